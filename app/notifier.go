package app

import (
	"log/slog"
	"sync"
	"time"
)

// LogNotifier writes notifications to the logger. Used when no window is
// available.
type LogNotifier struct{ Logger *slog.Logger }

func (n LogNotifier) Notify(msg string, d time.Duration) {
	if n.Logger != nil {
		n.Logger.Info("status", "message", msg, "duration", d)
	}
}

// StatusBoard keeps the latest notification until it expires. Views poll
// Current on their refresh tick.
type StatusBoard struct {
	mu      sync.Mutex
	msg     string
	expires time.Time
	now     func() time.Time
}

// NewStatusBoard returns an empty board. A nil clock uses time.Now.
func NewStatusBoard(now func() time.Time) *StatusBoard {
	if now == nil {
		now = time.Now
	}
	return &StatusBoard{now: now}
}

func (b *StatusBoard) Notify(msg string, d time.Duration) {
	b.mu.Lock()
	b.msg = msg
	b.expires = b.now().Add(d)
	b.mu.Unlock()
}

// Current returns the active message, or "" once it expired.
func (b *StatusBoard) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.msg == "" || !b.now().Before(b.expires) {
		return ""
	}
	return b.msg
}

// multiNotifier fans a notification out to several notifiers.
type multiNotifier []Notifier

func (m multiNotifier) Notify(msg string, d time.Duration) {
	for _, n := range m {
		if n != nil {
			n.Notify(msg, d)
		}
	}
}
