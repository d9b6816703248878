package capture

import (
	"image"

	"github.com/vova616/screenshot"
)

// ScreenGrabber grabs the primary display through the screenshot library.
type ScreenGrabber struct{}

// Grab returns a capture of the whole active monitor.
func (ScreenGrabber) Grab() (*image.RGBA, error) {
	return screenshot.CaptureScreen()
}

// GrabRect captures r clipped to the screen bounds.
func (ScreenGrabber) GrabRect(r image.Rectangle) (*image.RGBA, error) {
	screen, err := screenshot.ScreenRect()
	if err == nil {
		r = r.Intersect(screen)
	}
	return screenshot.CaptureRect(r)
}

// ScreenBounds returns the primary display rectangle, or an empty rectangle
// when it cannot be queried.
func ScreenBounds() image.Rectangle {
	r, err := screenshot.ScreenRect()
	if err != nil {
		return image.Rectangle{}
	}
	return r
}
