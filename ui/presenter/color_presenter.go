package presenter

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/soocke/invisicam-go/config"
	"github.com/soocke/invisicam-go/domain/chroma"
)

// ColorController applies color selections to the running effect.
type ColorController interface {
	SelectColor(name string) error
	SetCustomBound(b chroma.Bound, v int)
}

// PaletteSource reports the effective selection.
type PaletteSource interface {
	Selected() string
	Custom() chroma.ColorRange
}

// ColorView shows the selected preset and the custom bounds.
type ColorView interface {
	SetPreset(name string)
	SetCustom(r chroma.ColorRange)
}

// ColorPresenter handles preset selection and custom bound edits and
// persists them to the config file.
type ColorPresenter struct {
	ctrl    ColorController
	palette PaletteSource
	view    ColorView
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	lastPreset string
	lastCustom chroma.ColorRange
	painted    bool
}

func NewColorPresenter(ctrl ColorController, palette PaletteSource, view ColorView, cfg *config.Config, cfgPath string, logger *slog.Logger) *ColorPresenter {
	return &ColorPresenter{ctrl: ctrl, palette: palette, view: view, cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// SelectPreset switches the active preset and saves it.
func (p *ColorPresenter) SelectPreset(name string) error {
	if p == nil || p.ctrl == nil {
		return nil
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if err := p.ctrl.SelectColor(name); err != nil {
		return err
	}
	if p.cfg != nil {
		p.cfg.Preset = name
	}
	p.save()
	return nil
}

// ApplyCustom parses the edited bound fields, applies them to the custom
// preset and saves the result. Nothing is applied when a field is invalid.
func (p *ColorPresenter) ApplyCustom(fields map[chroma.Bound]string) error {
	if p == nil || p.ctrl == nil {
		return nil
	}
	vals := make(map[chroma.Bound]int, len(fields))
	for b, txt := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(txt))
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", b, txt)
		}
		vals[b] = v
	}
	for b := chroma.HueMin; b <= chroma.ValMax; b++ {
		if v, ok := vals[b]; ok {
			p.ctrl.SetCustomBound(b, v)
		}
	}
	if p.cfg != nil && p.palette != nil {
		p.cfg.Custom = p.palette.Custom()
	}
	p.save()
	return nil
}

func (p *ColorPresenter) save() {
	if p.cfg == nil || p.cfgPath == "" {
		return
	}
	if err := p.cfg.Save(p.cfgPath); err != nil && p.logger != nil {
		p.logger.Warn("config save failed", "path", p.cfgPath, "error", err)
	}
}

// Tick repaints the selector when the palette changed, for example after a
// config reload.
func (p *ColorPresenter) Tick(now time.Time) {
	if p == nil || p.palette == nil || p.view == nil {
		return
	}
	name, custom := p.palette.Selected(), p.palette.Custom()
	if p.painted && name == p.lastPreset && custom == p.lastCustom {
		return
	}
	if !p.painted || name != p.lastPreset {
		p.view.SetPreset(name)
	}
	if !p.painted || custom != p.lastCustom {
		p.view.SetCustom(custom)
	}
	p.lastPreset, p.lastCustom, p.painted = name, custom, true
	if p.cfg != nil {
		p.cfg.Preset, p.cfg.Custom = name, custom
	}
}
