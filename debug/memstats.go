//go:build windows

package debug

// Memory/RSS periodic logger. Logs the working set along with Go heap stats
// to correlate native and heap growth (Tk photos, frame buffers).

import (
	"context"
	"log/slog"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// processMemoryCounters matches PROCESS_MEMORY_COUNTERS from psapi.
type processMemoryCounters struct {
	cb                         uint32
	PageFaultCount             uint32
	PeakWorkingSetSize         uintptr
	WorkingSetSize             uintptr
	QuotaPeakPagedPoolUsage    uintptr
	QuotaPagedPoolUsage        uintptr
	QuotaPeakNonPagedPoolUsage uintptr
	QuotaNonPagedPoolUsage     uintptr
	PagefileUsage              uintptr
	PeakPagefileUsage          uintptr
}

var (
	modPsapi                 = windows.NewLazySystemDLL("psapi.dll")
	procGetProcessMemoryInfo = modPsapi.NewProc("GetProcessMemoryInfo")
)

// StartMemLogger logs memory stats every interval. Failures to query RSS
// are logged once and suppressed.
func StartMemLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		return
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	var rssErrLogged bool
	every(ctx, interval, func() {
		var rss uint64
		pmc := processMemoryCounters{cb: uint32(unsafe.Sizeof(processMemoryCounters{}))}
		r1, _, err := procGetProcessMemoryInfo.Call(uintptr(windows.CurrentProcess()), uintptr(unsafe.Pointer(&pmc)), uintptr(pmc.cb))
		if r1 != 0 {
			rss = uint64(pmc.WorkingSetSize)
		} else if !rssErrLogged {
			logger.Warn("memlog: GetProcessMemoryInfo call failed", slog.String("err", err.Error()))
			rssErrLogged = true
		}
		logMem(logger, rss)
	})
}
