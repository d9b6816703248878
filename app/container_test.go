package app

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/soocke/invisicam-go/config"
	"github.com/soocke/invisicam-go/domain/chroma"
	"github.com/soocke/invisicam-go/domain/recording"
)

// stubGrabber returns a fresh solid frame on every grab.
type stubGrabber struct {
	mu    sync.Mutex
	rects []image.Rectangle
}

func (g *stubGrabber) Grab() (*image.RGBA, error) {
	return solidFrame(32, 24, color.RGBA{30, 200, 40, 255}), nil
}

func (g *stubGrabber) GrabRect(r image.Rectangle) (*image.RGBA, error) {
	g.mu.Lock()
	g.rects = append(g.rects, r)
	g.mu.Unlock()
	return solidFrame(r.Dx(), r.Dy(), color.RGBA{30, 200, 40, 255}), nil
}

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ExportDir = t.TempDir()
	cfg.CountdownSeconds = 0
	cfg.CaptureHz = 120
	cfg.RefreshHz = 120
	cfg.Workers = 2
	return cfg
}

func TestBuildContainer_AppliesConfiguredColor(t *testing.T) {
	cfg := testConfig(t)
	cfg.Preset = chroma.Custom
	cfg.Custom = chroma.ColorRange{HueMin: 170, HueMax: 10, SatMin: 50, SatMax: 255, ValMin: 50, ValMax: 255}
	c := BuildContainer(cfg, "", nil, ContainerOptions{Grabber: &stubGrabber{}})
	if c.Palette.Selected() != chroma.Custom || c.Palette.Range() != cfg.Custom {
		t.Fatalf("palette = %s %v", c.Palette.Selected(), c.Palette.Range())
	}
	if c.Preview == nil {
		t.Fatal("preview model should be the display sink by default")
	}
}

func TestRunHeadless_WritesMotionJPEG(t *testing.T) {
	cfg := testConfig(t)
	c := BuildContainer(cfg, "", nil, ContainerOptions{Grabber: &stubGrabber{}, NoPreview: true})

	var mu sync.Mutex
	var states []recording.State
	c.OnState(func(_, next recording.State) {
		mu.Lock()
		states = append(states, next)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	path, err := RunHeadless(ctx, c, 250*time.Millisecond)
	if err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Fatalf("export does not start with a JPEG frame")
	}
	if c.Cloak.Running() {
		t.Fatal("pipeline should be stopped after a headless run")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || states[0] != recording.StateRecording || states[1] != recording.StateFinalized {
		t.Fatalf("states = %v", states)
	}
	take, total := c.Session.Values()
	if take <= 0 || total != take {
		t.Fatalf("session model take=%v total=%v", take, total)
	}
}

func TestRunHeadless_CancelledDuringRecordingStillExports(t *testing.T) {
	cfg := testConfig(t)
	c := BuildContainer(cfg, "", nil, ContainerOptions{Grabber: &stubGrabber{}, NoPreview: true})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()
	path, err := RunHeadless(ctx, c, time.Hour)
	if err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export missing: %v", err)
	}
}

func TestContainer_ApplyConfigUpdatesRegion(t *testing.T) {
	cfg := testConfig(t)
	g := &stubGrabber{}
	c := BuildContainer(cfg, "", nil, ContainerOptions{Grabber: g, NoPreview: true})
	if c.Region.SelectionRect() != nil {
		t.Fatal("default config captures the full screen")
	}
	next := testConfig(t)
	next.SelectionX, next.SelectionY, next.SelectionW, next.SelectionH = 4, 4, 16, 8
	next.Preset = chroma.Blue
	c.ApplyConfig(next)
	if r := c.Region.SelectionRect(); r == nil || *r != image.Rect(4, 4, 20, 12) {
		t.Fatalf("region = %v", r)
	}
	if c.Palette.Selected() != chroma.Blue {
		t.Fatalf("preset = %q", c.Palette.Selected())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Source.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Source.Stop()
	g.mu.Lock()
	n := len(g.rects)
	g.mu.Unlock()
	if n == 0 {
		t.Fatal("source did not grab the configured region")
	}

	next.SelectionW = 0
	c.ApplyConfig(next)
	if c.Region.SelectionRect() != nil {
		t.Fatal("zero width should restore full screen")
	}
}

func TestContainer_PipelineAttrs(t *testing.T) {
	c := BuildContainer(testConfig(t), "", nil, ContainerOptions{Grabber: &stubGrabber{}, NoPreview: true})
	attrs := c.PipelineAttrs()
	keys := map[string]bool{}
	for _, a := range attrs {
		keys[a.Key] = true
	}
	for _, k := range []string{"captures", "displayed", "composited", "encoded", "session"} {
		if !keys[k] {
			t.Errorf("missing attr %q", k)
		}
	}
}
