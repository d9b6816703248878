package debug

import (
	"log/slog"
	"runtime"

	"github.com/dustin/go-humanize"
)

func logMem(logger *slog.Logger, rss uint64) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	logger.Info("memstats",
		slog.Int("goroutines", runtime.NumGoroutine()),
		slog.String("heap_alloc", humanize.IBytes(ms.HeapAlloc)),
		slog.String("heap_inuse", humanize.IBytes(ms.HeapInuse)),
		slog.String("heap_idle", humanize.IBytes(ms.HeapIdle)),
		slog.String("heap_sys", humanize.IBytes(ms.HeapSys)),
		slog.String("next_gc", humanize.IBytes(ms.NextGC)),
		slog.String("rss", humanize.IBytes(rss)),
		slog.Uint64("num_gc", uint64(ms.NumGC)),
	)
}
