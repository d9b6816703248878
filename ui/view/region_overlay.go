package view

import (
	"image"
	"log/slog"

	"github.com/soocke/invisicam-go/config"
	"github.com/soocke/invisicam-go/ui/model"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// RegionOverlay is a see-through window the user drags and resizes over the
// screen area that should act as the camera.
type RegionOverlay interface {
	OpenOrFocus()
	Clear()
}

type regionOverlay struct {
	logger  *slog.Logger
	cfg     *config.Config
	cfgPath string
	region  *model.RegionModel
	screen  image.Rectangle
	win     *ToplevelWidget
}

// NewRegionOverlay returns an overlay writing into region. screen bounds
// the initial placement.
func NewRegionOverlay(region *model.RegionModel, screen image.Rectangle, cfg *config.Config, cfgPath string, logger *slog.Logger) RegionOverlay {
	return &regionOverlay{logger: logger, cfg: cfg, cfgPath: cfgPath, region: region, screen: screen}
}

const transparentKey = "#008080"

func (v *regionOverlay) OpenOrFocus() {
	if v.win != nil {
		WmGeometry(v.win.Window)
		return
	}
	win := App.Toplevel(Borderwidth(2), Background(transparentKey))
	win.WmTitle("Capture Region")
	v.win = win
	initial := model.InitialRegion(v.region.SelectionRect(), v.screen)
	WmGeometry(win.Window, model.FormatGeometry(initial))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-alpha", 0.5)
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(1))
	body := win.Frame(Background(transparentKey), Borderwidth(3), Relief("solid"))
	Grid(body, Row(0), Column(0), Sticky("nsew"))
	controls := win.Frame()
	Grid(controls, Row(1), Column(0), Sticky("we"))
	confirm := win.Button(Txt("Use Region [Enter]"), Command(v.confirm))
	Grid(confirm, In(controls), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	full := win.Button(Txt("Full Screen"), Command(func() { v.Clear(); v.destroy() }))
	Grid(full, In(controls), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancel := win.Button(Txt("Cancel [Esc]"), Command(v.destroy))
	Grid(cancel, In(controls), Row(0), Column(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(win, "<Return>", Command(v.confirm))
	Bind(win, "<Escape>", Command(v.destroy))
}

// Clear drops the region so the whole screen is captured again.
func (v *regionOverlay) Clear() {
	v.region.Clear()
	v.store(image.Rectangle{})
}

func (v *regionOverlay) confirm() {
	if v.win == nil {
		return
	}
	if rect, ok := model.ParseGeometry(WmGeometry(v.win.Window)); ok {
		v.region.Set(rect)
		v.store(rect)
		if v.logger != nil {
			v.logger.Info("capture region set", "rect", rect.String())
		}
	}
	v.destroy()
}

// store persists the region. Backgrounds captured for another region no
// longer match the frame size and must be captured again.
func (v *regionOverlay) store(r image.Rectangle) {
	if v.cfg == nil {
		return
	}
	v.cfg.SelectionX, v.cfg.SelectionY = r.Min.X, r.Min.Y
	v.cfg.SelectionW, v.cfg.SelectionH = r.Dx(), r.Dy()
	if err := v.cfg.Save(v.cfgPath); err != nil && v.logger != nil {
		v.logger.Warn("config save failed", "error", err)
	}
}

func (v *regionOverlay) destroy() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}
