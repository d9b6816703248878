package model

import (
	"fmt"
	"image"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
)

// RegionModel holds the screen rectangle the capture source is limited to.
// It implements capture.SelectionRectProvider. The zero value means full
// screen.
type RegionModel struct {
	rect atomic.Pointer[image.Rectangle]
}

// NewRegionModel returns a model seeded from a stored x/y/w/h selection.
// Non-positive sizes leave it empty.
func NewRegionModel(x, y, w, h int) *RegionModel {
	m := &RegionModel{}
	if w > 0 && h > 0 {
		m.Set(image.Rect(x, y, x+w, y+h))
	}
	return m
}

// SelectionRect returns the active region or nil for full screen.
func (m *RegionModel) SelectionRect() *image.Rectangle {
	if m == nil {
		return nil
	}
	r := m.rect.Load()
	if r == nil || r.Empty() {
		return nil
	}
	cp := *r
	return &cp
}

// Set stores r; an empty rectangle clears the region.
func (m *RegionModel) Set(r image.Rectangle) {
	if m == nil {
		return
	}
	if r.Empty() {
		m.rect.Store(nil)
		return
	}
	m.rect.Store(&r)
}

func (m *RegionModel) Clear() { m.Set(image.Rectangle{}) }

var geometryRe = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// ParseGeometry parses a Tk geometry string "WxH+X+Y".
func ParseGeometry(g string) (image.Rectangle, bool) {
	m := geometryRe.FindStringSubmatch(strings.TrimSpace(g))
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}

// FormatGeometry renders r as a Tk geometry string.
func FormatGeometry(r image.Rectangle) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Dx(), r.Dy(), r.Min.X, r.Min.Y)
}

// InitialRegion returns the rectangle an overlay opens with: the current
// region when set, otherwise two thirds of the screen, centred.
func InitialRegion(current *image.Rectangle, screen image.Rectangle) image.Rectangle {
	if current != nil && !current.Empty() {
		return *current
	}
	if screen.Empty() {
		screen = image.Rect(0, 0, 1920, 1080)
	}
	w, h := max(screen.Dx()*2/3, 1), max(screen.Dy()*2/3, 1)
	x := screen.Min.X + (screen.Dx()-w)/2
	y := screen.Min.Y + (screen.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}
