package presenter

import (
	"errors"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/soocke/invisicam-go/config"
	"github.com/soocke/invisicam-go/domain/chroma"
	"github.com/soocke/invisicam-go/domain/recording"
	"github.com/soocke/invisicam-go/ui/model"
)

type mockStateView struct {
	labels []string
	hints  []string
}

func (v *mockStateView) SetStateLabel(s string) { v.labels = append(v.labels, s) }
func (v *mockStateView) SetHint(s string)       { v.hints = append(v.hints, s) }

type staticHint string

func (h staticHint) Hint() string { return string(h) }

func TestStatePresenter_ReflectsLatest(t *testing.T) {
	view := &mockStateView{}
	p := NewStatePresenter(staticHint("Hold green items to become invisible!"), view)
	p.Tick(time.Now())
	if len(view.labels) != 1 || view.labels[0] != "State: idle" {
		t.Fatalf("initial labels = %v", view.labels)
	}
	p.OnState(recording.StateIdle, recording.StateRecording)
	p.OnState(recording.StateRecording, recording.StatePaused)
	p.Tick(time.Now())
	if got := view.labels[len(view.labels)-1]; got != "State: paused" {
		t.Fatalf("label = %q, want paused", got)
	}
	p.Tick(time.Now())
	if len(view.labels) != 2 || len(view.hints) != 1 {
		t.Fatalf("unchanged tick repainted: labels=%v hints=%v", view.labels, view.hints)
	}
}

type mockSessionView struct {
	calls       int
	take, total time.Duration
}

func (v *mockSessionView) SetSession(take, total time.Duration) {
	v.calls++
	v.take, v.total = take, total
}

func TestSessionPresenter_SecondResolution(t *testing.T) {
	m := model.NewSessionModel()
	view := &mockSessionView{}
	p := NewSessionPresenter(m, view)
	p.Tick(time.Now())
	m.OnState(recording.StateIdle, recording.StateRecording)
	m.OnElapsed(1500 * time.Millisecond)
	p.Tick(time.Now())
	m.OnElapsed(1700 * time.Millisecond)
	p.Tick(time.Now())
	if view.calls != 2 {
		t.Fatalf("calls = %d, want 2", view.calls)
	}
	if view.take != time.Second || view.total != time.Second {
		t.Fatalf("take=%v total=%v", view.take, view.total)
	}
}

type mockPreviewView struct {
	updates [][]byte
	resets  int
}

func (v *mockPreviewView) UpdatePreview(png []byte) { v.updates = append(v.updates, png) }
func (v *mockPreviewView) PreviewReset()            { v.resets++ }

func TestPreviewPresenter_ThrottlesAndSkipsStale(t *testing.T) {
	frames := &model.PreviewModel{}
	view := &mockPreviewView{}
	p := NewPreviewPresenter(frames, view, 8, 8, 10, true)
	base := time.Unix(100, 0)

	p.Tick(base)
	if len(view.updates) != 0 {
		t.Fatal("no frame yet, nothing to paint")
	}
	frames.Show(image.NewRGBA(image.Rect(0, 0, 16, 8)))
	p.Tick(base)
	if len(view.updates) != 1 || len(view.updates[0]) == 0 {
		t.Fatalf("updates = %d", len(view.updates))
	}
	frames.Show(image.NewRGBA(image.Rect(0, 0, 16, 8)))
	p.Tick(base.Add(50 * time.Millisecond))
	if len(view.updates) != 1 {
		t.Fatal("repainted faster than the preview rate")
	}
	p.Tick(base.Add(150 * time.Millisecond))
	if len(view.updates) != 2 {
		t.Fatal("new frame after interval not painted")
	}
	p.Tick(base.Add(400 * time.Millisecond))
	if len(view.updates) != 2 {
		t.Fatal("stale frame repainted")
	}
	p.Reset()
	if view.resets != 1 {
		t.Fatal("reset not forwarded")
	}
}

type mockStatusView struct{ msgs []string }

func (v *mockStatusView) SetStatus(s string) { v.msgs = append(v.msgs, s) }

type fakeBoard struct{ msg string }

func (b *fakeBoard) Current() string { return b.msg }

func TestStatusPresenter(t *testing.T) {
	board := &fakeBoard{msg: "Background captured! Ready to record!"}
	view := &mockStatusView{}
	p := NewStatusPresenter(board, view)
	p.Tick(time.Now())
	p.Tick(time.Now())
	board.msg = ""
	p.Tick(time.Now())
	if len(view.msgs) != 2 || view.msgs[1] != "" {
		t.Fatalf("msgs = %q", view.msgs)
	}
}

type mockColorCtrl struct {
	palette *chroma.Palette
	failOn  string
}

func (c *mockColorCtrl) SelectColor(name string) error {
	if name == c.failOn {
		return errors.New("unknown")
	}
	return c.palette.Select(name)
}
func (c *mockColorCtrl) SetCustomBound(b chroma.Bound, v int) { c.palette.SetCustomBound(b, v) }

type mockColorView struct {
	presets []string
	customs []chroma.ColorRange
}

func (v *mockColorView) SetPreset(n string)            { v.presets = append(v.presets, n) }
func (v *mockColorView) SetCustom(r chroma.ColorRange) { v.customs = append(v.customs, r) }

func TestColorPresenter_SelectPersists(t *testing.T) {
	pal := chroma.NewPalette()
	ctrl := &mockColorCtrl{palette: pal, failOn: "teal"}
	cfg := config.DefaultConfig()
	path := filepath.Join(t.TempDir(), "config.json")
	view := &mockColorView{}
	p := NewColorPresenter(ctrl, pal, view, cfg, path, nil)

	if err := p.SelectPreset(" Blue "); err != nil {
		t.Fatalf("SelectPreset: %v", err)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Preset != chroma.Blue {
		t.Fatalf("saved preset = %q", loaded.Preset)
	}
	if err := p.SelectPreset("teal"); err == nil {
		t.Fatal("unknown preset should fail")
	}
	if cfg.Preset != chroma.Blue {
		t.Fatalf("failed select changed config: %q", cfg.Preset)
	}
}

func TestColorPresenter_ApplyCustom(t *testing.T) {
	pal := chroma.NewPalette()
	ctrl := &mockColorCtrl{palette: pal}
	cfg := config.DefaultConfig()
	view := &mockColorView{}
	p := NewColorPresenter(ctrl, pal, view, cfg, "", nil)

	err := p.ApplyCustom(map[chroma.Bound]string{chroma.HueMin: "170", chroma.HueMax: " 10 "})
	if err != nil {
		t.Fatalf("ApplyCustom: %v", err)
	}
	if got := pal.Custom(); got.HueMin != 170 || got.HueMax != 10 {
		t.Fatalf("custom = %v", got)
	}
	if cfg.Custom != pal.Custom() {
		t.Fatal("config not updated")
	}
	before := pal.Custom()
	if err := p.ApplyCustom(map[chroma.Bound]string{chroma.SatMin: "12", chroma.ValMin: "x"}); err == nil {
		t.Fatal("invalid field should fail")
	}
	if pal.Custom() != before {
		t.Fatal("partial apply on invalid input")
	}
}

func TestColorPresenter_TickFollowsPalette(t *testing.T) {
	pal := chroma.NewPalette()
	view := &mockColorView{}
	cfg := config.DefaultConfig()
	p := NewColorPresenter(&mockColorCtrl{palette: pal}, pal, view, cfg, "", nil)
	p.Tick(time.Now())
	p.Tick(time.Now())
	if len(view.presets) != 1 || len(view.customs) != 1 {
		t.Fatalf("initial paint: presets=%v customs=%d", view.presets, len(view.customs))
	}
	_ = pal.Select(chroma.Red) // e.g. config reload
	p.Tick(time.Now())
	if len(view.presets) != 2 || view.presets[1] != chroma.Red || len(view.customs) != 1 {
		t.Fatalf("after reload: presets=%v customs=%d", view.presets, len(view.customs))
	}
	if cfg.Preset != chroma.Red {
		t.Fatalf("config preset = %q", cfg.Preset)
	}
}

func TestLoop_TickNilSafeAndSchedules(t *testing.T) {
	var nilLoop *Loop
	nilLoop.Tick()
	scheduled := 0
	l := &Loop{Schedule: func() { scheduled++ }}
	l.Tick()
	if scheduled != 1 {
		t.Fatalf("scheduled = %d", scheduled)
	}
}
