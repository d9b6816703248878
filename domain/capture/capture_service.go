package capture

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/invisicam-go/domain/errs"
)

const (
	captureStatsLogInterval = 5 * time.Second
	defaultFrameRate        = 60
	// defaultMaxFailures consecutive grab errors stop the source.
	defaultMaxFailures = 30
)

// Options configures a ScreenSource.
type Options struct {
	Grabber     Grabber
	FrameRate   int // grabs per second (default 60)
	MaxFailures int
	Selection   func() *image.Rectangle
	Logger      *slog.Logger
}

// ScreenSource grabs frames (selection or full screen) on its own goroutine
// and exposes the latest capture alongside instrumentation data. Use
// NewScreenSource to construct an instance.
type ScreenSource struct {
	grab        Grabber
	interval    time.Duration
	maxFailures int
	logger      *slog.Logger

	selMu sync.RWMutex
	selFn func() *image.Rectangle

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error

	running      atomic.Bool
	latest       atomic.Pointer[FrameSnapshot]
	captures     atomic.Uint64
	skipped      atomic.Uint64
	failures     atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
}

var _ Source = (*ScreenSource)(nil)

// NewScreenSource constructs a source. A nil Grabber uses ScreenGrabber.
func NewScreenSource(opts Options) *ScreenSource {
	g := opts.Grabber
	if g == nil {
		g = ScreenGrabber{}
	}
	fps := opts.FrameRate
	if fps <= 0 {
		fps = defaultFrameRate
	}
	maxFail := opts.MaxFailures
	if maxFail <= 0 {
		maxFail = defaultMaxFailures
	}
	return &ScreenSource{
		grab:        g,
		interval:    time.Second / time.Duration(fps),
		maxFailures: maxFail,
		selFn:       opts.Selection,
		logger:      opts.Logger,
	}
}

func (s *ScreenSource) SetSelectionProvider(fn func() *image.Rectangle) {
	s.selMu.Lock()
	s.selFn = fn
	s.selMu.Unlock()
}

func (s *ScreenSource) LatestFrame() FrameSnapshot {
	snap := s.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

func (s *ScreenSource) Running() bool { return s.running.Load() }

func (s *ScreenSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *ScreenSource) Stats() CaptureStats {
	captures := s.captures.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	snapshot := s.LatestFrame()
	age := time.Duration(0)
	if !snapshot.CapturedAt.IsZero() {
		age = time.Since(snapshot.CapturedAt)
	}
	return CaptureStats{
		Captures:         captures,
		Skipped:          s.skipped.Load(),
		Failures:         s.failures.Load(),
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastCapture:      snapshot.CapturedAt,
		LatestFrameAge:   age,
		Sequence:         snapshot.Sequence,
	}
}

// Start performs a probe grab and launches the capture loop. A failing probe
// is reported as a permission error and leaves the source stopped.
func (s *ScreenSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return nil
	}
	img, err := s.grabOnce()
	if err == nil && img == nil {
		err = errors.New("capture: grabber returned no image")
	}
	if err != nil {
		s.lastErr = &errs.PermissionDeniedError{Device: "screen", Cause: err}
		return s.lastErr
	}
	s.lastErr = nil
	s.store(img, 0)

	if s.cancel != nil {
		// Previous loop stopped itself after losing the source.
		s.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)
	go s.loop(loopCtx, s.done)
	return nil
}

// Stop cancels the loop and waits for it to exit. Safe to call repeatedly.
func (s *ScreenSource) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.running.Store(false)
}

func (s *ScreenSource) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	consecutive := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-logTicker.C:
			s.logStats()
		case <-ticker.C:
			start := time.Now()
			img, err := s.grabOnce()
			if err != nil {
				s.failures.Add(1)
				consecutive++
				if s.logger != nil && consecutive == 1 {
					s.logger.Error("capture grab", "error", err)
				}
				if consecutive >= s.maxFailures {
					s.mu.Lock()
					s.lastErr = &errs.CaptureUnavailableError{Op: "grab", Cause: err}
					s.mu.Unlock()
					s.running.Store(false)
					if s.logger != nil {
						s.logger.Error("capture source lost", "failures", consecutive, "error", err)
					}
					return
				}
				continue
			}
			if img == nil {
				s.skipped.Add(1)
				continue
			}
			consecutive = 0
			s.store(img, time.Since(start))
		}
	}
}

func (s *ScreenSource) grabOnce() (*image.RGBA, error) {
	s.selMu.RLock()
	selFn := s.selFn
	s.selMu.RUnlock()
	if selFn != nil {
		if r := selFn(); r != nil && !r.Empty() {
			img, err := s.grab.GrabRect(*r)
			if err == nil {
				return img, nil
			}
			if s.logger != nil {
				s.logger.Debug("capture selection failed, falling back to full screen", "error", err)
			}
		}
	}
	return s.grab.Grab()
}

func (s *ScreenSource) store(img *image.RGBA, took time.Duration) {
	s.captureNanos.Add(uint64(took.Nanoseconds()))
	s.captures.Add(1)
	seq := s.sequence.Add(1)
	s.latest.Store(&FrameSnapshot{Image: img, CapturedAt: time.Now(), Sequence: seq})
}

func (s *ScreenSource) logStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", stats.Captures,
		"skipped", stats.Skipped,
		"failures", stats.Failures,
		"avg_capture", stats.AvgCapture,
		"age", stats.LatestFrameAge,
	)
}
