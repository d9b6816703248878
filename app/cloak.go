package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/invisicam-go/config"
	"github.com/soocke/invisicam-go/domain/capture"
	"github.com/soocke/invisicam-go/domain/chroma"
	"github.com/soocke/invisicam-go/domain/compositor"
	"github.com/soocke/invisicam-go/domain/errs"
	"github.com/soocke/invisicam-go/domain/recording"
)

const (
	defaultRefreshHz  = 60
	mismatchLogPeriod = 5 * time.Second
)

// Status message durations.
const (
	shortNotice = 2 * time.Second
	longNotice  = 3 * time.Second
)

// DisplaySink receives every displayed frame. Implementations must copy what
// they keep; the frame is reused on the next tick.
type DisplaySink interface {
	Show(frame *image.RGBA)
}

// Notifier shows transient user-visible messages.
type Notifier interface {
	Notify(msg string, d time.Duration)
}

// Exporter persists a finished take and returns where it went.
type Exporter interface {
	Write(blob recording.Blob) (string, error)
}

// Options wires a Cloak to its collaborators. Source, Compositor, Palette and
// Recorder are required.
type Options struct {
	Source     capture.Source
	Compositor *compositor.Compositor
	Palette    *chroma.Palette
	Recorder   recording.Recorder
	Audio      recording.AudioTrack
	Sink       DisplaySink
	Notifier   Notifier
	Exporter   Exporter

	RefreshHz       int
	Countdown       int           // background countdown in seconds
	CountdownStep   time.Duration // length of one countdown step (default 1s)
	ElapsedInterval time.Duration // elapsed timer period (default 1s)

	// OnElapsed is called by the elapsed timer while recording.
	OnElapsed func(time.Duration)
	// OnState is called after every session transition.
	OnState func(prev, next recording.State)

	Clock  func() time.Time
	Logger *slog.Logger
}

// Stats aggregates pipeline counters for instrumentation.
type Stats struct {
	Capture     capture.CaptureStats
	Compositor  compositor.Stats
	Displayed   uint64
	Passthrough uint64
}

// Cloak owns the live effect: it pulls frames from the source, composites
// them against the captured background, shows them and feeds the current
// recording session.
type Cloak struct {
	opts   Options
	logger *slog.Logger

	background atomic.Pointer[image.RGBA]

	mu       sync.Mutex
	session  *recording.Session
	pending  *recording.Blob
	runCtx   context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	running  bool

	timerMu   sync.Mutex
	timerStop chan struct{}
	timerDone chan struct{}

	// refresh loop state, touched only by the loop goroutine
	lastSeq      uint64
	scratch      *image.RGBA
	lastMismatch time.Time

	displayed   atomic.Uint64
	passthrough atomic.Uint64
}

// NewCloak returns an idle Cloak with a fresh session.
func NewCloak(opts Options) *Cloak {
	if opts.RefreshHz <= 0 {
		opts.RefreshHz = defaultRefreshHz
	}
	if opts.CountdownStep <= 0 {
		opts.CountdownStep = time.Second
	}
	if opts.ElapsedInterval <= 0 {
		opts.ElapsedInterval = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Palette == nil {
		opts.Palette = chroma.NewPalette()
	}
	c := &Cloak{opts: opts, logger: opts.Logger}
	c.session = c.newSession()
	return c
}

func (c *Cloak) newSession() *recording.Session {
	s := recording.NewSession(recording.Options{
		Recorder:      c.opts.Recorder,
		HasBackground: c.HasBackground,
		Clock:         c.opts.Clock,
		Logger:        c.logger,
	})
	s.AddListener(func(prev, next recording.State) { c.onSessionState(s, prev, next) })
	return s
}

// Start acquires the capture source and launches the refresh loop. It can be
// called again after Stop or after the source was lost.
func (c *Cloak) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	if err := c.opts.Source.Start(ctx); err != nil {
		c.report(err)
		return err
	}
	if c.cancel != nil {
		// Loop already exited after a source loss.
		c.cancel()
	}
	c.runCtx, c.cancel = context.WithCancel(ctx)
	c.loopDone = make(chan struct{})
	c.running = true
	c.lastSeq = 0
	go c.refreshLoop(c.runCtx, c.loopDone)
	if c.logger != nil {
		c.logger.Info("cloak started", "refresh_hz", c.opts.RefreshHz)
	}
	return nil
}

// Running reports whether the refresh loop is active.
func (c *Cloak) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Stop tears the pipeline down: cancel the refresh loop, flush an
// in-progress segment, release the source and audio track, stop the elapsed
// timer. Safe to call repeatedly.
func (c *Cloak) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.loopDone
	c.cancel, c.loopDone = nil, nil
	c.running = false
	s := c.session
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if s.State() == recording.StateRecording {
		if err := s.Pause(); err != nil && c.logger != nil {
			c.logger.Warn("cloak: flush segment on stop", "error", err)
		}
	}
	c.opts.Source.Stop()
	if c.opts.Audio != nil {
		c.opts.Audio.Stop()
	}
	c.stopElapsedTimer()
	c.releaseScratch()
}

// HasBackground reports whether a background frame has been captured.
func (c *Cloak) HasBackground() bool { return c.background.Load() != nil }

// Background returns the captured background frame, or nil.
func (c *Cloak) Background() *image.RGBA { return c.background.Load() }

// Palette exposes the color selection.
func (c *Cloak) Palette() *chroma.Palette { return c.opts.Palette }

// Session returns the current recording session.
func (c *Cloak) Session() *recording.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Hint returns the header text for the current selection.
func (c *Cloak) Hint() string {
	return chroma.Hint(c.opts.Palette.Selected(), c.HasBackground())
}

// CaptureBackground counts down, then pins the latest source frame as the
// background and activates the effect.
func (c *Cloak) CaptureBackground(ctx context.Context) error {
	if !c.opts.Source.Running() {
		err := &errs.CaptureUnavailableError{Op: "capture background", Cause: errors.New("camera not started")}
		c.report(err)
		return err
	}
	for n := c.opts.Countdown; n > 0; n-- {
		c.notify(fmt.Sprintf("Capturing background in %d... Move out of frame!", n), c.opts.CountdownStep)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.opts.CountdownStep):
		}
	}
	snap := c.opts.Source.LatestFrame()
	if snap.Empty() {
		err := &errs.CaptureUnavailableError{Op: "capture background", Cause: errors.New("no frame available")}
		c.report(err)
		return err
	}
	bg := compositor.CloneFrame(snap.Image)
	c.background.Store(bg)
	if c.opts.Compositor != nil {
		go c.opts.Compositor.Warm(c.opts.Palette.Range())
	}
	if c.logger != nil {
		c.logger.Info("background captured",
			"width", bg.Rect.Dx(),
			"height", bg.Rect.Dy(),
			"size", humanize.Bytes(uint64(len(bg.Pix))),
			"sequence", snap.Sequence,
		)
	}
	c.notify("Background captured! Ready to record!", shortNotice)
	return nil
}

// SelectColor switches the target preset.
func (c *Cloak) SelectColor(name string) error {
	if err := c.opts.Palette.Select(name); err != nil {
		c.report(err)
		return err
	}
	if c.logger != nil {
		c.logger.Debug("color selected", "preset", name, "range", c.opts.Palette.Range().String())
	}
	return nil
}

// SetCustomBound updates one bound of the custom preset.
func (c *Cloak) SetCustomBound(b chroma.Bound, v int) {
	c.opts.Palette.SetCustomBound(b, v)
}

// ApplyConfig applies the color part of a reloaded configuration.
func (c *Cloak) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	c.opts.Palette.SetCustom(cfg.Custom)
	_ = c.SelectColor(cfg.Preset)
}

// ToggleRecording starts, pauses or resumes the current take.
func (c *Cloak) ToggleRecording() error {
	c.mu.Lock()
	if c.session.State() == recording.StateDiscarded {
		c.session = c.newSession()
	}
	s := c.session
	ctx := c.runCtx
	c.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	// Segments outlive the refresh loop so Stop can still flush them.
	if err := s.Toggle(context.WithoutCancel(ctx)); err != nil {
		c.report(err)
		return err
	}
	return nil
}

// FinishRecording closes the take and makes it exportable.
func (c *Cloak) FinishRecording() error {
	if err := c.Session().Finish(); err != nil {
		c.report(err)
		return err
	}
	return nil
}

// DiscardRecording drops the current take and starts a fresh session.
func (c *Cloak) DiscardRecording() {
	c.mu.Lock()
	s := c.session
	c.pending = nil
	c.mu.Unlock()
	s.Discard()
	c.mu.Lock()
	if c.session == s {
		c.session = c.newSession()
	}
	c.mu.Unlock()
	c.notify("Recording discarded", shortNotice)
}

// Export writes the finished take through the Exporter and starts a fresh
// session. A take whose write failed is kept and retried on the next call.
func (c *Cloak) Export() (string, error) {
	if c.opts.Exporter == nil {
		err := errors.New("no exporter configured")
		c.report(err)
		return "", err
	}
	c.mu.Lock()
	s := c.session
	pending := c.pending
	c.mu.Unlock()

	var blob recording.Blob
	if pending != nil {
		blob = *pending
	} else {
		b, err := s.Export()
		if err != nil {
			c.report(err)
			return "", err
		}
		blob = b
	}
	path, err := c.opts.Exporter.Write(blob)
	c.mu.Lock()
	if err != nil {
		c.pending = &blob
	} else {
		c.pending = nil
		if c.session == s {
			c.session = c.newSession()
		}
	}
	c.mu.Unlock()
	if err != nil {
		c.report(err)
		return "", err
	}
	c.notify("Video saved successfully!", longNotice)
	return path, nil
}

// Stats returns a pipeline snapshot.
func (c *Cloak) Stats() Stats {
	st := Stats{
		Capture:     c.opts.Source.Stats(),
		Displayed:   c.displayed.Load(),
		Passthrough: c.passthrough.Load(),
	}
	if c.opts.Compositor != nil {
		st.Compositor = c.opts.Compositor.Stats()
	}
	return st
}

func (c *Cloak) refreshLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second / time.Duration(c.opts.RefreshHz))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.opts.Source.Running() {
				c.sourceLost(c.opts.Source.Err())
				return
			}
			c.tick()
		}
	}
}

// tick processes the most recent source frame, if it is new.
func (c *Cloak) tick() {
	snap := c.opts.Source.LatestFrame()
	if snap.Empty() || snap.Sequence == c.lastSeq {
		return
	}
	c.lastSeq = snap.Sequence
	out := c.composite(snap.Image)
	if c.opts.Sink != nil {
		c.opts.Sink.Show(out)
	}
	c.displayed.Add(1)
	c.Session().Offer(out)
}

// composite returns the frame to display: the raw frame before a background
// exists or when sizes differ, the composited scratch frame otherwise.
func (c *Cloak) composite(frame *image.RGBA) *image.RGBA {
	bg := c.background.Load()
	if bg == nil || c.opts.Compositor == nil {
		c.passthrough.Add(1)
		return frame
	}
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	if c.scratch == nil || c.scratch.Rect.Dx() != w || c.scratch.Rect.Dy() != h {
		c.releaseScratch()
		c.scratch = compositor.AcquireFrame(image.Rect(0, 0, w, h))
	}
	if err := c.opts.Compositor.CompositeInto(c.scratch, frame, bg, c.opts.Palette.Range()); err != nil {
		now := c.opts.Clock()
		if c.logger != nil && now.Sub(c.lastMismatch) >= mismatchLogPeriod {
			c.logger.Warn("composite skipped, showing raw frame", "error", err)
			c.lastMismatch = now
		}
		c.passthrough.Add(1)
		return frame
	}
	return c.scratch
}

func (c *Cloak) releaseScratch() {
	if c.scratch != nil {
		compositor.RecycleFrame(c.scratch)
		c.scratch = nil
	}
}

// sourceLost runs on the loop goroutine when the source stopped by itself.
// The host returns to an idle state from which Start can be retried.
func (c *Cloak) sourceLost(cause error) {
	if cause == nil {
		cause = errors.New("capture source stopped")
	}
	err := &errs.CaptureUnavailableError{Op: "refresh", Cause: cause}
	if c.logger != nil {
		c.logger.Error("capture source lost", "error", cause)
	}
	c.mu.Lock()
	c.running = false
	s := c.session
	c.mu.Unlock()
	if s.State() == recording.StateRecording {
		_ = s.Pause()
	}
	c.stopElapsedTimer()
	c.report(err)
}

func (c *Cloak) onSessionState(s *recording.Session, prev, next recording.State) {
	if next == recording.StateRecording {
		c.startElapsedTimer(s)
	} else {
		c.stopElapsedTimer()
		if prev == recording.StateRecording && c.opts.OnElapsed != nil {
			// final reading so displays stop on the exact value
			c.opts.OnElapsed(s.Elapsed())
		}
	}
	if c.opts.OnState != nil {
		c.opts.OnState(prev, next)
	}
}

func (c *Cloak) startElapsedTimer(s *recording.Session) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.timerStop != nil {
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	c.timerStop, c.timerDone = stop, done
	go func() {
		defer close(done)
		t := time.NewTicker(c.opts.ElapsedInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if c.opts.OnElapsed != nil {
					c.opts.OnElapsed(s.Elapsed())
				}
			}
		}
	}()
}

func (c *Cloak) stopElapsedTimer() {
	c.timerMu.Lock()
	stop, done := c.timerStop, c.timerDone
	c.timerStop, c.timerDone = nil, nil
	c.timerMu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (c *Cloak) report(err error) {
	if c.logger != nil {
		c.logger.Warn("cloak error", "error", err, "fatal", errs.IsFatal(err))
	}
	c.notify(errs.UserMessage(err), longNotice)
}

func (c *Cloak) notify(msg string, d time.Duration) {
	if c.opts.Notifier != nil && msg != "" {
		c.opts.Notifier.Notify(msg, d)
	}
}
