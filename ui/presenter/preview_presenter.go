package presenter

import (
	"time"

	"github.com/soocke/invisicam-go/ui/images"
	"github.com/soocke/invisicam-go/ui/model"
)

// PreviewView shows an encoded preview image.
type PreviewView interface {
	UpdatePreview(png []byte)
	PreviewReset()
}

// PreviewPresenter moves frames from the preview model to the view, scaled
// to the preview box.
type PreviewPresenter struct {
	frames *model.PreviewModel
	view   PreviewView
	maxW   int
	maxH   int
	mirror bool

	seq      uint64
	interval time.Duration
	last     time.Time
}

// NewPreviewPresenter returns a presenter. fps limits how often the view is
// repainted; zero repaints on every tick.
func NewPreviewPresenter(frames *model.PreviewModel, view PreviewView, maxW, maxH, fps int, mirror bool) *PreviewPresenter {
	p := &PreviewPresenter{frames: frames, view: view, maxW: maxW, maxH: maxH, mirror: mirror}
	if fps > 0 {
		p.interval = time.Second / time.Duration(fps)
	}
	return p
}

func (p *PreviewPresenter) Tick(now time.Time) {
	if p == nil || p.frames == nil || p.view == nil {
		return
	}
	if p.interval > 0 && !p.last.IsZero() && now.Sub(p.last) < p.interval {
		return
	}
	img, seq, ok := p.frames.Snapshot(p.seq)
	if !ok {
		return
	}
	p.seq, p.last = seq, now
	scaled := images.ScaleToFit(img, p.maxW, p.maxH)
	if p.mirror {
		scaled = images.Mirror(scaled)
	}
	p.view.UpdatePreview(images.EncodePNG(scaled))
}

// Reset clears the view.
func (p *PreviewPresenter) Reset() {
	if p == nil || p.view == nil {
		return
	}
	p.view.PreviewReset()
}
