package capture

import (
	"context"
	"image"
)

// Source provides live frames standing in for the camera. LatestFrame
// returns the freshest snapshot while Running reports activity.
type Source interface {
	Start(ctx context.Context) error
	Stop()
	Running() bool
	LatestFrame() FrameSnapshot
	Stats() CaptureStats
	// Err returns the error that stopped the source, if it stopped itself.
	Err() error
}

// Grabber performs one frame grab. Implementations return a newly
// allocated image the caller owns.
type Grabber interface {
	Grab() (*image.RGBA, error)
	GrabRect(r image.Rectangle) (*image.RGBA, error)
}

// SelectionRectProvider returns the current selection rectangle, if any.
type SelectionRectProvider interface{ SelectionRect() *image.Rectangle }
