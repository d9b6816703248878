package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/soocke/invisicam-go/domain/recording"
)

// SessionModel tracks the elapsed time of the current take and the time
// accumulated over all finished takes. It is fed from the recording
// callbacks, which run off the UI thread; presenters poll Values().
// The zero value is ready to use.
type SessionModel struct {
	mu          sync.Mutex
	state       recording.State
	take        time.Duration
	accumulated time.Duration
	takes       int
}

// NewSessionModel returns a pointer to a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnElapsed records the active time of the current take.
func (m *SessionModel) OnElapsed(d time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.state != recording.StateFinalized {
		m.take = d
	}
	m.mu.Unlock()
}

// OnState follows session transitions.
func (m *SessionModel) OnState(prev, next recording.State) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch next {
	case recording.StateRecording:
		if prev == recording.StateIdle { // new take
			m.take = 0
		}
	case recording.StateFinalized:
		m.accumulated += m.take
		m.takes++
	case recording.StateDiscarded:
		m.take = 0
	}
	m.state = next
}

// State returns the last observed session state.
func (m *SessionModel) State() recording.State {
	if m == nil {
		return recording.StateIdle
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Values returns the current take duration and the total recorded duration.
// The total includes the ongoing take while recording or paused.
func (m *SessionModel) Values() (take, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	take = m.take
	total = m.accumulated
	if m.state == recording.StateRecording || m.state == recording.StatePaused {
		total += take
	}
	return
}

// Takes returns how many takes were finished.
func (m *SessionModel) Takes() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.takes
}

// FormatClock renders d as MM:SS. Minutes keep growing past 99.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
