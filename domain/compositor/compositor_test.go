package compositor

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/soocke/invisicam-go/domain/chroma"
	"github.com/soocke/invisicam-go/domain/errs"
)

// synthFrame creates a uniform RGBA image and applies an optional mutate func.
func synthFrame(w, h int, r, g, b, a byte, mutate func(px []byte, w, h int)) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, a
	}
	if mutate != nil {
		mutate(img.Pix, w, h)
	}
	return img
}

// paintRegion sets RGB values inside the given rectangle.
func paintRegion(px []byte, w, x0, y0, x1, y1 int, r, g, b byte) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			i := (y*w + x) * 4
			px[i], px[i+1], px[i+2] = r, g, b
		}
	}
}

func greenRange() chroma.ColorRange {
	r, _ := chroma.Preset(chroma.Green)
	return r
}

func TestComposite_ReplacesTargetPixels(t *testing.T) {
	w, h := 32, 24
	bg := synthFrame(w, h, 10, 20, 30, 255, nil)
	cur := synthFrame(w, h, 200, 200, 200, 255, func(px []byte, w, h int) {
		paintRegion(px, w, 4, 4, 12, 12, 0, 255, 0)
	})
	out, err := Composite(cur, bg, greenRange())
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := out.RGBAAt(x, y)
			inside := x >= 4 && x < 12 && y >= 4 && y < 12
			if inside && (c.R != 10 || c.G != 20 || c.B != 30) {
				t.Fatalf("pixel (%d,%d) = %v, want background", x, y, c)
			}
			if !inside && (c.R != 200 || c.G != 200 || c.B != 200) {
				t.Fatalf("pixel (%d,%d) = %v, want passthrough", x, y, c)
			}
		}
	}
}

func TestComposite_RedPresetOnPureRed(t *testing.T) {
	red, _ := chroma.Preset(chroma.Red)
	bg := synthFrame(2, 2, 1, 2, 3, 255, nil)
	cur := synthFrame(2, 2, 255, 0, 0, 255, nil)
	out, err := Composite(cur, bg, red)
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if c := out.RGBAAt(1, 1); c.R != 1 || c.G != 2 || c.B != 3 || c.A != 255 {
		t.Fatalf("pure red pixel not replaced by background: %v", c)
	}
}

func TestComposite_AchromaticPassesThrough(t *testing.T) {
	bg := synthFrame(16, 16, 0, 255, 0, 255, nil)
	cur := synthFrame(16, 16, 0, 0, 0, 255, func(px []byte, w, h int) {
		for i := 0; i < len(px); i += 4 {
			v := byte(i / 4)
			px[i], px[i+1], px[i+2] = v, v, v
		}
	})
	for _, name := range chroma.PresetNames() {
		r, ok := chroma.Preset(name)
		if !ok {
			continue
		}
		out, err := Composite(cur, bg, r)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for i := 0; i < len(out.Pix); i += 4 {
			if out.Pix[i] != cur.Pix[i] || out.Pix[i+1] != cur.Pix[i+1] || out.Pix[i+2] != cur.Pix[i+2] {
				t.Fatalf("%s: gray pixel %d replaced", name, i/4)
			}
		}
	}
}

func TestComposite_AlphaAlwaysOpaque(t *testing.T) {
	bg := synthFrame(8, 8, 5, 5, 5, 0, nil)
	cur := synthFrame(8, 8, 0, 255, 0, 17, func(px []byte, w, h int) {
		paintRegion(px, w, 0, 0, 4, 8, 90, 90, 90)
	})
	out, err := Composite(cur, bg, greenRange())
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	for i := 3; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 255 {
			t.Fatalf("alpha at pixel %d = %d", i/4, out.Pix[i])
		}
	}
}

func TestComposite_Idempotent(t *testing.T) {
	bg := synthFrame(20, 20, 50, 60, 70, 255, nil)
	cur := synthFrame(20, 20, 0, 0, 0, 255, func(px []byte, w, h int) {
		for i := 0; i < len(px); i += 4 {
			px[i], px[i+1], px[i+2] = byte(i*7), byte(i*13), byte(i*3)
		}
	})
	a, _ := Composite(cur, bg, greenRange())
	b, _ := Composite(cur, bg, greenRange())
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("composite not deterministic")
	}
}

func TestComposite_SizeMismatch(t *testing.T) {
	_, err := Composite(synthFrame(4, 4, 0, 0, 0, 255, nil), synthFrame(5, 4, 0, 0, 0, 255, nil), greenRange())
	if !errors.Is(err, errs.ErrSizeMismatch) {
		t.Fatalf("expected size mismatch, got %v", err)
	}
	var sm *errs.SizeMismatchError
	if !errors.As(err, &sm) || sm.Background.Dx() != 5 {
		t.Fatalf("expected SizeMismatchError with bounds, got %v", err)
	}
}

func TestComposite_HonoursSubImageOffsets(t *testing.T) {
	big := synthFrame(10, 10, 100, 100, 100, 255, func(px []byte, w, h int) {
		paintRegion(px, w, 5, 5, 10, 10, 0, 255, 0)
	})
	cur := big.SubImage(image.Rect(5, 5, 10, 10)).(*image.RGBA)
	bg := synthFrame(5, 5, 1, 1, 1, 255, nil)
	out, err := Composite(cur, bg, greenRange())
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if c := out.RGBAAt(0, 0); c.R != 1 {
		t.Fatalf("sub-image pixel not composited: %v", c)
	}
}

func TestCompositor_ParallelMatchesSequential(t *testing.T) {
	w, h := 64, 130
	bg := synthFrame(w, h, 9, 8, 7, 255, nil)
	cur := synthFrame(w, h, 0, 0, 0, 255, func(px []byte, w, h int) {
		for i := 0; i < len(px); i += 4 {
			px[i], px[i+1], px[i+2] = byte(i*31), byte(i*17), byte(i*5)
		}
		paintRegion(px, w, 0, 0, 8, 8, 0, 255, 0)
		paintRegion(px, w, 8, 0, 16, 8, 128, 128, 128)
	})
	want, _ := Composite(cur, bg, greenRange())
	c := New(Options{Workers: 4}, nil)
	got, err := c.Composite(cur, bg, greenRange())
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	defer RecycleFrame(got)
	if !bytes.Equal(want.Pix, got.Pix) {
		t.Fatalf("parallel output differs from sequential")
	}
	st := c.Stats()
	if st.Frames != 1 {
		t.Fatalf("frames = %d", st.Frames)
	}
	if st.LastCoverage <= 0 || st.LastCoverage >= 1 {
		t.Fatalf("unexpected coverage %v", st.LastCoverage)
	}
}

func TestCompositor_CompositeIntoRejectsWrongDestination(t *testing.T) {
	c := New(Options{Workers: 1}, nil)
	cur := synthFrame(4, 4, 0, 0, 0, 255, nil)
	if err := c.CompositeInto(synthFrame(3, 3, 0, 0, 0, 255, nil), cur, cur, greenRange()); err == nil {
		t.Fatalf("expected error for mismatched destination")
	}
	if err := c.CompositeInto(cur, cur, synthFrame(2, 2, 0, 0, 0, 255, nil), greenRange()); !errors.Is(err, errs.ErrSizeMismatch) {
		t.Fatalf("expected size mismatch, got %v", err)
	}
	if c.Stats().Mismatches != 1 {
		t.Fatalf("mismatch not counted")
	}
}

func TestCompositor_LookupTableAgreesWithDirect(t *testing.T) {
	r := chroma.ColorRange{HueMin: 170, HueMax: 10, SatMin: 50, SatMax: 255, ValMin: 50, ValMax: 255}
	c := New(Options{Workers: 4, LookupTable: true}, nil)
	c.Warm(r)
	table := c.tables.get(r)
	if table == nil {
		t.Fatalf("table not cached after Warm")
	}
	for red := 0; red < 256; red += 3 {
		for g := 0; g < 256; g += 7 {
			for b := 0; b < 256; b += 5 {
				want := r.ContainsRGB(uint8(red), uint8(g), uint8(b))
				if got := table.contains(uint8(red), uint8(g), uint8(b)); got != want {
					t.Fatalf("table(%d,%d,%d) = %v, want %v", red, g, b, got, want)
				}
			}
		}
	}
}

func TestAcquireFrameReusesBacking(t *testing.T) {
	f := AcquireFrame(image.Rect(0, 0, 8, 8))
	if len(f.Pix) != 8*8*4 || f.Stride != 32 {
		t.Fatalf("unexpected frame layout len=%d stride=%d", len(f.Pix), f.Stride)
	}
	RecycleFrame(f)
	g := AcquireFrame(image.Rect(0, 0, 4, 4))
	if len(g.Pix) != 4*4*4 || g.Stride != 16 {
		t.Fatalf("unexpected frame layout len=%d stride=%d", len(g.Pix), g.Stride)
	}
}

func TestCloneFrameCopiesPixels(t *testing.T) {
	src := synthFrame(3, 3, 1, 2, 3, 4, nil)
	dst := CloneFrame(src)
	src.Pix[0] = 99
	if dst.Pix[0] != 1 {
		t.Fatalf("clone shares backing array")
	}
}
