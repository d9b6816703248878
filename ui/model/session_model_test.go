package model

import (
	"testing"
	"time"

	"github.com/soocke/invisicam-go/domain/recording"
)

func TestSessionModel_BasicLifecycle(t *testing.T) {
	m := NewSessionModel()

	m.OnState(recording.StateIdle, recording.StateRecording)
	m.OnElapsed(5 * time.Second)
	take, total := m.Values()
	if take != 5*time.Second || total != 5*time.Second {
		t.Fatalf("expected 5s take & total; got take=%v total=%v", take, total)
	}

	// Pausing keeps the take in the total.
	m.OnState(recording.StateRecording, recording.StatePaused)
	take, total = m.Values()
	if take != 5*time.Second || total != 5*time.Second {
		t.Fatalf("paused expected 5s; got take=%v total=%v", take, total)
	}

	m.OnState(recording.StatePaused, recording.StateRecording)
	m.OnElapsed(8 * time.Second)
	m.OnState(recording.StateRecording, recording.StateFinalized)
	take, total = m.Values()
	if take != 8*time.Second || total != 8*time.Second {
		t.Fatalf("finalized expected 8s; got take=%v total=%v", take, total)
	}
	if m.Takes() != 1 {
		t.Fatalf("Takes = %d, want 1", m.Takes())
	}

	// Late timer ticks after finish are ignored.
	m.OnElapsed(9 * time.Second)
	if take, _ = m.Values(); take != 8*time.Second {
		t.Fatalf("take changed after finish: %v", take)
	}

	// Second take on a fresh session restarts the take clock.
	m.OnState(recording.StateIdle, recording.StateRecording)
	m.OnElapsed(3 * time.Second)
	take, total = m.Values()
	if take != 3*time.Second || total != 11*time.Second {
		t.Fatalf("second take expected 3s/11s; got take=%v total=%v", take, total)
	}
}

func TestSessionModel_DiscardDropsTake(t *testing.T) {
	m := NewSessionModel()
	m.OnState(recording.StateIdle, recording.StateRecording)
	m.OnElapsed(4 * time.Second)
	m.OnState(recording.StateRecording, recording.StateDiscarded)
	take, total := m.Values()
	if take != 0 || total != 0 {
		t.Fatalf("discard expected zero; got take=%v total=%v", take, total)
	}
	if m.State() != recording.StateDiscarded {
		t.Fatalf("State = %v", m.State())
	}
}

func TestSessionModel_NilSafe(t *testing.T) {
	var m *SessionModel
	m.OnElapsed(time.Second)
	m.OnState(recording.StateIdle, recording.StateRecording)
	if take, total := m.Values(); take != 0 || total != 0 {
		t.Fatal("nil model should report zero")
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{15 * time.Second, "00:15"},
		{61*time.Second + 900*time.Millisecond, "01:01"},
		{125 * time.Minute, "125:00"},
		{-time.Second, "00:00"},
	}
	for _, c := range cases {
		if got := FormatClock(c.d); got != c.want {
			t.Errorf("FormatClock(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
