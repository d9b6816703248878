package presenter

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/soocke/invisicam-go/domain/recording"
)

// RecordingController narrows what the presenter needs from the cloak host.
type RecordingController interface {
	HasBackground() bool
	CaptureBackground(ctx context.Context) error
	ToggleRecording() error
	FinishRecording() error
	DiscardRecording()
	Export() (string, error)
	Session() *recording.Session
}

// Controls describes which recording buttons are usable and how the record
// button is labelled.
type Controls struct {
	RecordLabel string
	Record      bool
	Finish      bool
	Discard     bool
	Export      bool
	Background  bool
}

// RecordingView updates the recording buttons.
type RecordingView interface {
	SetControls(Controls)
}

// ControlsFor derives the button layout for a session state.
func ControlsFor(s recording.State, hasBackground, busy bool) Controls {
	c := Controls{RecordLabel: "Start Recording"}
	switch s {
	case recording.StateIdle, recording.StateDiscarded:
		c.Record = hasBackground && !busy
	case recording.StateRecording:
		c.RecordLabel = "Pause"
		c.Record, c.Finish, c.Discard = true, true, true
	case recording.StatePaused:
		c.RecordLabel = "Resume"
		c.Record, c.Finish, c.Discard = true, true, true
	case recording.StateFinalized:
		c.Discard, c.Export = true, true
	}
	c.Background = !busy && s != recording.StateRecording
	return c
}

// RecordingPresenter turns button presses into controller calls and keeps
// the buttons in line with the session state.
type RecordingPresenter struct {
	ctrl   RecordingController
	view   RecordingView
	ctx    context.Context
	logger *slog.Logger

	busy    atomic.Bool // background countdown running
	last    Controls
	painted bool
}

// NewRecordingPresenter returns a presenter. ctx bounds background captures.
func NewRecordingPresenter(ctx context.Context, ctrl RecordingController, view RecordingView, logger *slog.Logger) *RecordingPresenter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &RecordingPresenter{ctrl: ctrl, view: view, ctx: ctx, logger: logger}
}

// CaptureBackground runs the countdown off the UI thread. A second press
// while a countdown is running is ignored.
func (p *RecordingPresenter) CaptureBackground() {
	if p == nil || p.ctrl == nil {
		return
	}
	if !p.busy.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer p.busy.Store(false)
		if err := p.ctrl.CaptureBackground(p.ctx); err != nil && p.logger != nil {
			p.logger.Warn("background capture failed", "error", err)
		}
	}()
}

// Busy reports whether a background countdown is running.
func (p *RecordingPresenter) Busy() bool { return p != nil && p.busy.Load() }

// Toggle starts, pauses or resumes recording.
func (p *RecordingPresenter) Toggle() {
	if p == nil || p.ctrl == nil {
		return
	}
	_ = p.ctrl.ToggleRecording()
	p.Tick(time.Now())
}

func (p *RecordingPresenter) Finish() {
	if p == nil || p.ctrl == nil {
		return
	}
	_ = p.ctrl.FinishRecording()
	p.Tick(time.Now())
}

func (p *RecordingPresenter) Discard() {
	if p == nil || p.ctrl == nil {
		return
	}
	p.ctrl.DiscardRecording()
	p.Tick(time.Now())
}

func (p *RecordingPresenter) Export() {
	if p == nil || p.ctrl == nil {
		return
	}
	if path, err := p.ctrl.Export(); err == nil && p.logger != nil {
		p.logger.Info("take exported", "path", path)
	}
	p.Tick(time.Now())
}

// Tick repaints the buttons when the derived layout changed.
func (p *RecordingPresenter) Tick(now time.Time) {
	if p == nil || p.ctrl == nil || p.view == nil {
		return
	}
	state := recording.StateIdle
	if s := p.ctrl.Session(); s != nil {
		state = s.State()
	}
	c := ControlsFor(state, p.ctrl.HasBackground(), p.busy.Load())
	if p.painted && c == p.last {
		return
	}
	p.last, p.painted = c, true
	p.view.SetControls(c)
}
