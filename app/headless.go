package app

import (
	"context"
	"errors"
	"time"
)

// RunHeadless records one take without a window: it starts the pipeline,
// captures the background after the configured countdown, records for d
// (or until ctx is cancelled), then finishes and exports the take. It
// returns the written file path.
func RunHeadless(ctx context.Context, c *AppContainer, d time.Duration) (string, error) {
	if c == nil || c.Cloak == nil {
		return "", errors.New("headless: no container")
	}
	cloak := c.Cloak
	if err := cloak.Start(ctx); err != nil {
		return "", err
	}
	defer cloak.Stop()

	if err := cloak.CaptureBackground(ctx); err != nil {
		return "", err
	}
	if err := cloak.ToggleRecording(); err != nil {
		return "", err
	}
	if c.Logger != nil {
		c.Logger.Info("headless recording", "duration", d, "preset", c.Palette.Selected())
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	timer.Stop()
	if err := cloak.FinishRecording(); err != nil {
		return "", err
	}
	return cloak.Export()
}
