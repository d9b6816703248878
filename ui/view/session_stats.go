package view

import (
	"time"

	"github.com/soocke/invisicam-go/ui/model"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// SessionStats shows the elapsed time of the current take and the total.
type SessionStats interface {
	SetTake(d time.Duration)
	SetTotal(d time.Duration)
}

type sessionStats struct {
	takeLbl  *LabelWidget
	totalLbl *LabelWidget
}

// NewSessionStats places the take label at (row, startCol) and the total
// label next to it. A nil parent grids relative to the App root.
func NewSessionStats(parent *FrameWidget, row, startCol int) SessionStats {
	s := &sessionStats{takeLbl: Label(Width(14)), totalLbl: Label(Width(14))}
	for i, lbl := range []*LabelWidget{s.takeLbl, s.totalLbl} {
		if parent != nil {
			Grid(lbl, In(parent), Row(row), Column(startCol+i), Sticky("w"), Padx("0.2m"))
		} else {
			Grid(lbl, Row(row), Column(startCol+i), Sticky("w"), Padx("0.2m"))
		}
	}
	s.SetTake(0)
	s.SetTotal(0)
	return s
}

func (s *sessionStats) SetTake(d time.Duration) {
	if s == nil || s.takeLbl == nil {
		return
	}
	s.takeLbl.Configure(Txt("Take: " + model.FormatClock(d)))
}

func (s *sessionStats) SetTotal(d time.Duration) {
	if s == nil || s.totalLbl == nil {
		return
	}
	s.totalLbl.Configure(Txt("Total: " + model.FormatClock(d)))
}
