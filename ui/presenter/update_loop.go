package presenter

import "time"

// Loop aggregates feature presenters and drives periodic updates.
//
// It calls Tick on the sub-presenters and invokes a scheduler callback.
// The zero value is usable (methods are nil-safe).
type Loop struct {
	State     *StatePresenter
	Recording *RecordingPresenter
	Session   *SessionPresenter
	Preview   *PreviewPresenter
	Status    *StatusPresenter
	Color     *ColorPresenter
	Schedule  func()
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	// State first so labels flush pending transitions before buttons repaint.
	if l.State != nil {
		l.State.Tick(now)
	}
	if l.Recording != nil {
		l.Recording.Tick(now)
	}
	if l.Session != nil {
		l.Session.Tick(now)
	}
	if l.Color != nil {
		l.Color.Tick(now)
	}
	if l.Status != nil {
		l.Status.Tick(now)
	}
	if l.Preview != nil {
		l.Preview.Tick(now)
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
