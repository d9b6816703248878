package model

import (
	"image"
	"sync"
)

// PreviewModel keeps a copy of the most recently displayed frame. The refresh
// loop writes through Show; the UI thread reads with Snapshot at its own pace.
// The zero value is usable.
type PreviewModel struct {
	mu    sync.Mutex
	frame *image.RGBA
	seq   uint64
}

// Show copies frame into the model. The caller may reuse frame afterwards.
func (m *PreviewModel) Show(frame *image.RGBA) {
	if m == nil || frame == nil {
		return
	}
	b := frame.Bounds()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil || m.frame.Rect.Dx() != b.Dx() || m.frame.Rect.Dy() != b.Dy() {
		m.frame = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		src := frame.Pix[frame.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := m.frame.Pix[y*m.frame.Stride:]
		copy(dst[:rowLen], src[:rowLen])
	}
	m.seq++
}

// Snapshot returns a private copy of the latest frame when it is newer than
// since. ok is false when nothing new was shown.
func (m *PreviewModel) Snapshot(since uint64) (img *image.RGBA, seq uint64, ok bool) {
	if m == nil {
		return nil, 0, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil || m.seq == since {
		return nil, m.seq, false
	}
	cp := image.NewRGBA(m.frame.Rect)
	copy(cp.Pix, m.frame.Pix)
	return cp, m.seq, true
}

// Seq returns the sequence number of the latest frame.
func (m *PreviewModel) Seq() uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}
