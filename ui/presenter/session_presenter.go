package presenter

import (
	"time"

	"github.com/soocke/invisicam-go/ui/model"
)

// SessionView displays formatted take and total durations.
type SessionView interface {
	SetSession(take, total time.Duration)
}

// SessionPresenter pushes take and total durations from the model to the view.
type SessionPresenter struct {
	sess *model.SessionModel
	view SessionView

	lastTake, lastTotal time.Duration
	painted             bool
}

// NewSessionPresenter returns a new SessionPresenter.
func NewSessionPresenter(sess *model.SessionModel, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, view: view}
}

// Tick pushes values to the view when they changed at second resolution.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.view == nil {
		return
	}
	take, total := p.sess.Values()
	take, total = take.Truncate(time.Second), total.Truncate(time.Second)
	if p.painted && take == p.lastTake && total == p.lastTotal {
		return
	}
	p.lastTake, p.lastTotal, p.painted = take, total, true
	p.view.SetSession(take, total)
}
