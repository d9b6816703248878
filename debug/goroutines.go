package debug

// Debug loggers, started only when config.Debug is true. They emit runtime
// and pipeline counters at a fixed interval until ctx is done.

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"

	"github.com/dustin/go-humanize"
)

// StartGoroutineLogger launches a ticker that logs goroutine count and stack memory.
func StartGoroutineLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		return
	}
	if interval <= 0 {
		interval = time.Second
	}
	samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
	every(ctx, interval, func() {
		metrics.Read(samples)
		var goroutines uint64
		if samples[0].Value.Kind() == metrics.KindUint64 {
			goroutines = samples[0].Value.Uint64()
		}
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		logger.Info("goroutine-stacks",
			slog.Uint64("goroutines", goroutines),
			slog.String("stack_inuse", humanize.IBytes(ms.StackInuse)),
			slog.String("stack_sys", humanize.IBytes(ms.StackSys)),
			slog.String("heap_alloc", humanize.IBytes(ms.HeapAlloc)),
		)
	})
}

// StartStatsLogger logs the attributes returned by snapshot under msg.
func StartStatsLogger(ctx context.Context, interval time.Duration, msg string, snapshot func() []slog.Attr, logger *slog.Logger) {
	if logger == nil || snapshot == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	every(ctx, interval, func() {
		logger.LogAttrs(ctx, slog.LevelInfo, msg, snapshot()...)
	})
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if ctx.Err() != nil {
					return
				}
				fn()
			}
		}
	}()
}
