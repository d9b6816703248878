package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestScaleToFit_KeepsSmallImages(t *testing.T) {
	src := solid(10, 10, color.RGBA{1, 2, 3, 255})
	if got := ScaleToFit(src, 20, 20); got != image.Image(src) {
		t.Fatal("image that already fits should be returned unchanged")
	}
}

func TestScaleToFit_PreservesAspect(t *testing.T) {
	src := solid(400, 200, color.RGBA{10, 200, 30, 255})
	got := ScaleToFit(src, 100, 100)
	b := got.Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("scaled to %dx%d, want 100x50", b.Dx(), b.Dy())
	}
	r, g, _, _ := got.At(50, 25).RGBA()
	if r>>8 != 10 || g>>8 != 200 {
		t.Errorf("unexpected color after scale: r=%d g=%d", r>>8, g>>8)
	}
}

func TestScaleToFit_Nil(t *testing.T) {
	if ScaleToFit(nil, 10, 10) != nil {
		t.Fatal("nil in, nil out")
	}
}

func TestMirror(t *testing.T) {
	src := solid(2, 1, color.RGBA{0, 0, 0, 255})
	src.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	got := Mirror(src)
	r, _, _, _ := got.At(1, 0).RGBA()
	if r>>8 != 255 {
		t.Fatalf("left pixel should move right, got r=%d", r>>8)
	}
}

func TestEncodePNG(t *testing.T) {
	if EncodePNG(nil) != nil {
		t.Fatal("nil image should encode to nil")
	}
	data := EncodePNG(solid(3, 2, color.RGBA{9, 9, 9, 255}))
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("decoded bounds %v", img.Bounds())
	}
}
