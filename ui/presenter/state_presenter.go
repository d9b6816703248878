package presenter

import (
	"sync"
	"time"

	"github.com/soocke/invisicam-go/domain/recording"
)

// HintSource provides the header text for the current color and background.
type HintSource interface{ Hint() string }

// StateView sets the state and hint labels in the view.
type StateView interface {
	SetStateLabel(string)
	SetHint(string)
}

// StatePresenter receives session transitions from any goroutine and
// reflects the latest one on the next Tick.
type StatePresenter struct {
	hints HintSource
	view  StateView

	mu      sync.Mutex
	pending []recording.State

	latest   recording.State
	shown    bool
	lastHint string
}

func NewStatePresenter(hints HintSource, view StateView) *StatePresenter {
	return &StatePresenter{hints: hints, view: view}
}

// OnState queues a transitioned state from the session listener.
func (p *StatePresenter) OnState(prev, next recording.State) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.pending = append(p.pending, next)
	p.mu.Unlock()
}

// Tick processes queued states and updates the view with the most recent one.
func (p *StatePresenter) Tick(now time.Time) {
	if p == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	last, have := p.latest, false
	if n := len(p.pending); n > 0 {
		last, have = p.pending[n-1], true
		p.pending = p.pending[:0]
	}
	p.mu.Unlock()
	if (have && last != p.latest) || !p.shown {
		p.latest, p.shown = last, true
		p.view.SetStateLabel("State: " + last.String())
	}
	if p.hints != nil {
		if h := p.hints.Hint(); h != p.lastHint {
			p.lastHint = h
			p.view.SetHint(h)
		}
	}
}
