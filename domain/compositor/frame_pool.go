package compositor

import (
	"image"
	"sync"
)

// Reusable frame pool for composited output. The refresh loop composites
// into one scratch frame per resolution instead of allocating a new RGBA
// surface every tick; the pool hands that scratch frame out and takes it
// back when the resolution changes or the loop stops.
//
// Usage: AcquireFrame(rect) returns a *image.RGBA whose Pix length is exactly
// rect area * 4. Call RecycleFrame(frame) once nothing reads it any more. If
// callers never recycle, the behaviour degrades to plain allocation.

var framePool sync.Pool // stores *image.RGBA

// AcquireFrame returns a reusable RGBA image sized to rect. Stride is width*4.
// Pixel contents are unspecified.
func AcquireFrame(rect image.Rectangle) *image.RGBA {
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return &image.RGBA{Rect: rect}
	}
	needed := w * h * 4
	var img *image.RGBA
	if v := framePool.Get(); v != nil {
		img = v.(*image.RGBA)
	}
	if img == nil || cap(img.Pix) < needed {
		img = &image.RGBA{Pix: make([]byte, needed), Stride: w * 4, Rect: rect}
	} else {
		img.Stride = w * 4
		img.Rect = rect
		img.Pix = img.Pix[:needed]
	}
	return img
}

// RecycleFrame returns the frame to the pool for potential reuse. The frame
// must no longer be accessed by the caller after invoking RecycleFrame.
func RecycleFrame(img *image.RGBA) {
	if img == nil || img.Pix == nil {
		return
	}
	framePool.Put(img)
}

// CloneFrame copies src into a freshly allocated RGBA image with bounds
// starting at the origin. Used to pin a background frame.
func CloneFrame(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w*4], src.Pix[si:si+w*4])
	}
	return dst
}
