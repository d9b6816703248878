//go:build !windows

package debug

import (
	"context"
	"log/slog"
	"time"
)

// StartMemLogger logs Go heap stats every interval. The working set is only
// sampled on Windows; rss is reported as zero elsewhere.
func StartMemLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		return
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	every(ctx, interval, func() { logMem(logger, 0) })
}
