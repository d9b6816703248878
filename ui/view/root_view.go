package view

import (
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/soocke/invisicam-go/config"
	"github.com/soocke/invisicam-go/domain/chroma"
	"github.com/soocke/invisicam-go/ui/model"
	"github.com/soocke/invisicam-go/ui/presenter"
	"github.com/soocke/invisicam-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are invoked on user actions.
type Handlers struct {
	CaptureBackground func()
	ToggleRecording   func()
	Finish            func()
	Discard           func()
	Export            func()
	Exit              func()
	PresetChanged     func(name string) error
	ApplyCustom       func(map[chroma.Bound]string) error
}

// RootView composes the top-level application layout and wires UI callbacks.
// It implements the presenter view contracts.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
	region  *model.RegionModel
	screen  image.Rectangle

	// Subviews
	Session    SessionStats
	ColorPanel ColorPanel
	Preview    Preview
	Region     RegionOverlay

	// Widgets
	HintLabel    *TLabelWidget
	StateLabel   *TLabelWidget
	StatusLabel  *LabelWidget
	PresetSelect *TComboboxWidget
	recordBtn    *TButtonWidget
	finishBtn    *TButtonWidget
	discardBtn   *TButtonWidget
	exportBtn    *TButtonWidget
	bgBtn        *TButtonWidget
	presets      []string
}

var (
	_ presenter.StateView     = (*RootView)(nil)
	_ presenter.RecordingView = (*RootView)(nil)
	_ presenter.SessionView   = (*RootView)(nil)
	_ presenter.PreviewView   = (*RootView)(nil)
	_ presenter.StatusView    = (*RootView)(nil)
	_ presenter.ColorView     = (*RootView)(nil)
)

func NewRootView(cfg *config.Config, cfgPath string, region *model.RegionModel, screen image.Rectangle, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, region: region, screen: screen, logger: logger, presets: chroma.PresetNames()}
}

// Build constructs the layout.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	// Row 0: hint across the window
	rv.HintLabel = TLabel(Txt(chroma.Hint(chroma.Green, false)), Style(theme.StyleHintLabel))
	Grid(rv.HintLabel, Row(0), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	// Row 1: take/total, state label
	rv.Session = NewSessionStats(nil, 1, 0)
	rv.StateLabel = TLabel(Txt("State: idle"), Style(theme.StyleStateLabel))
	Grid(rv.StateLabel, Row(1), Column(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	// Column 3: buttons
	btnFrame := Frame()
	Grid(btnFrame, Row(1), Column(3), Rowspan(9), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	rv.PresetSelect = TCombobox(Values(rv.presets), Width(16), State("readonly"))
	Grid(rv.PresetSelect, In(btnFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.PresetSelect.Current(0)
	Bind(rv.PresetSelect, "<<ComboboxSelected>>", Command(func() {
		idx, err := strconv.Atoi(rv.PresetSelect.Current(nil))
		if err != nil || idx < 0 || idx >= len(rv.presets) {
			if rv.logger != nil {
				rv.logger.Error("preset selection parse error", "error", err)
			}
			return
		}
		if h.PresetChanged != nil {
			if err := h.PresetChanged(rv.presets[idx]); err != nil {
				rv.SetStatus(err.Error())
			}
		}
	}))
	button := func(row int, label, style string, fn func()) *TButtonWidget {
		if fn == nil {
			fn = func() {}
		}
		b := TButton(Txt(label), Style(style), Command(fn))
		Grid(b, In(btnFrame), Row(row), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
		return b
	}
	rv.bgBtn = button(1, "Capture Background", theme.StylePrimaryButton, h.CaptureBackground)
	rv.recordBtn = button(2, "Start Recording", theme.StyleRecordButton, h.ToggleRecording)
	rv.finishBtn = button(3, "Finish", theme.StylePrimaryButton, h.Finish)
	rv.discardBtn = button(4, "Discard", theme.StyleDangerButton, h.Discard)
	rv.exportBtn = button(5, "Download Video", theme.StylePrimaryButton, h.Export)
	button(6, "Capture Region", theme.StylePrimaryButton, rv.openRegion)
	button(7, "Exit", theme.StyleDangerButton, h.Exit)

	// Custom color rows
	rv.ColorPanel = NewColorPanel(h.ApplyCustom)
	endRow := rv.ColorPanel.Build(2)

	// Status line and preview
	rv.StatusLabel = Label(Txt(""), Anchor("w"))
	Grid(rv.StatusLabel, Row(endRow), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"))
	w, hgt := 640, 360
	if rv.cfg != nil {
		w, hgt = rv.cfg.PreviewWidth, rv.cfg.PreviewHeight
	}
	rv.Preview = NewPreview(endRow+1, 4, w, hgt)
	rv.Region = NewRegionOverlay(rv.region, rv.screen, rv.cfg, rv.cfgPath, rv.logger)
}

func (rv *RootView) openRegion() {
	if rv != nil && rv.Region != nil {
		rv.Region.OpenOrFocus()
	}
}

// SetStateLabel updates the state label text.
func (rv *RootView) SetStateLabel(text string) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Txt(text))
	}
}

func (rv *RootView) SetHint(text string) {
	if rv != nil && rv.HintLabel != nil {
		rv.HintLabel.Configure(Txt(text))
	}
}

func (rv *RootView) SetStatus(text string) {
	if rv != nil && rv.StatusLabel != nil {
		rv.StatusLabel.Configure(Txt(text))
	}
}

// SetControls relabels and enables the recording buttons.
func (rv *RootView) SetControls(c presenter.Controls) {
	if rv == nil || rv.recordBtn == nil {
		return
	}
	rv.recordBtn.Configure(Txt(c.RecordLabel), State(enabled(c.Record)))
	rv.finishBtn.Configure(State(enabled(c.Finish)))
	rv.discardBtn.Configure(State(enabled(c.Discard)))
	rv.exportBtn.Configure(State(enabled(c.Export)))
	rv.bgBtn.Configure(State(enabled(c.Background)))
}

func enabled(b bool) string {
	if b {
		return "normal"
	}
	return "disabled"
}

// SetSession updates take and total durations.
func (rv *RootView) SetSession(take, total time.Duration) {
	if rv == nil || rv.Session == nil {
		return
	}
	rv.Session.SetTake(take)
	rv.Session.SetTotal(total)
}

// UpdatePreview proxies to the preview view.
func (rv *RootView) UpdatePreview(png []byte) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.UpdatePNG(png)
	}
}

// PreviewReset clears the preview.
func (rv *RootView) PreviewReset() {
	if rv != nil && rv.Preview != nil {
		rv.Preview.Reset()
	}
}

// SetPreset moves the combobox to name.
func (rv *RootView) SetPreset(name string) {
	if rv == nil || rv.PresetSelect == nil {
		return
	}
	for i, n := range rv.presets {
		if n == name {
			rv.PresetSelect.Current(i)
			return
		}
	}
}

func (rv *RootView) SetCustom(r chroma.ColorRange) {
	if rv != nil && rv.ColorPanel != nil {
		rv.ColorPanel.SetValues(r)
	}
}
