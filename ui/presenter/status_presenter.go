package presenter

import "time"

// StatusSource returns the active transient message, or "".
type StatusSource interface{ Current() string }

// StatusView shows the transient status line.
type StatusView interface{ SetStatus(string) }

// StatusPresenter mirrors the status board into the view.
type StatusPresenter struct {
	src  StatusSource
	view StatusView
	last string
}

func NewStatusPresenter(src StatusSource, view StatusView) *StatusPresenter {
	return &StatusPresenter{src: src, view: view}
}

func (p *StatusPresenter) Tick(now time.Time) {
	if p == nil || p.src == nil || p.view == nil {
		return
	}
	if msg := p.src.Current(); msg != p.last {
		p.last = msg
		p.view.SetStatus(msg)
	}
}
