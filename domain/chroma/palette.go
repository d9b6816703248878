package chroma

import (
	"fmt"
	"sync"

	"github.com/soocke/invisicam-go/domain/errs"
)

// Preset names.
const (
	Green  = "green"
	Blue   = "blue"
	Red    = "red"
	Orange = "orange"
	Pink   = "pink"
	Purple = "purple"
	Yellow = "yellow"
	Custom = "custom"
)

var presets = map[string]ColorRange{
	Green:  {HueMin: 40, HueMax: 80, SatMin: 82, SatMax: 255, ValMin: 78, ValMax: 255},
	Blue:   {HueMin: 100, HueMax: 130, SatMin: 50, SatMax: 255, ValMin: 50, ValMax: 255},
	Red:    {HueMin: 0, HueMax: 10, SatMin: 50, SatMax: 255, ValMin: 50, ValMax: 255},
	Orange: {HueMin: 10, HueMax: 25, SatMin: 100, SatMax: 255, ValMin: 100, ValMax: 255},
	Pink:   {HueMin: 140, HueMax: 170, SatMin: 50, SatMax: 255, ValMin: 100, ValMax: 255},
	Purple: {HueMin: 120, HueMax: 140, SatMin: 50, SatMax: 255, ValMin: 50, ValMax: 255},
	Yellow: {HueMin: 20, HueMax: 35, SatMin: 100, SatMax: 255, ValMin: 100, ValMax: 255},
}

var presetOrder = []string{Green, Blue, Red, Orange, Pink, Purple, Yellow, Custom}

// Preset returns the fixed range for a named preset. Custom is not a fixed
// preset; use Palette.Custom.
func Preset(name string) (ColorRange, bool) {
	r, ok := presets[name]
	return r, ok
}

// PresetNames lists every selectable name, custom last.
func PresetNames() []string {
	out := make([]string, len(presetOrder))
	copy(out, presetOrder)
	return out
}

// Hint returns the header text shown for the selected preset.
func Hint(name string, hasBackground bool) string {
	if !hasBackground {
		return "Capture background first, then start recording!"
	}
	items := name + " items"
	if name == Custom {
		items = "custom colored items"
	}
	return fmt.Sprintf("Hold %s to become invisible!", items)
}

// Palette tracks the selected preset and the single mutable custom range.
// Safe for concurrent use: the refresh loop reads Range every tick while
// user actions change the selection.
type Palette struct {
	mu       sync.RWMutex
	selected string
	active   ColorRange
	custom   ColorRange
}

// NewPalette returns a palette with green selected and custom initialised to green.
func NewPalette() *Palette {
	g := presets[Green]
	return &Palette{selected: Green, active: g, custom: g}
}

// Select activates a preset by name.
func (p *Palette) Select(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if name == Custom {
		p.selected = Custom
		p.active = p.custom
		return nil
	}
	r, ok := presets[name]
	if !ok {
		return fmt.Errorf("select %q: %w", name, errs.ErrUnknownPreset)
	}
	p.selected = name
	p.active = r
	return nil
}

// Selected returns the active preset name.
func (p *Palette) Selected() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.selected
}

// Range returns the active color range.
func (p *Palette) Range() ColorRange {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// Custom returns the stored custom range.
func (p *Palette) Custom() ColorRange {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.custom
}

// SetCustom replaces the custom range. When custom is selected the active
// range follows immediately.
func (p *Palette) SetCustom(r ColorRange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.custom = r
	if p.selected == Custom {
		p.active = r
	}
}

// SetCustomBound updates one bound of the custom range.
func (p *Palette) SetCustomBound(b Bound, v int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.custom = p.custom.With(b, v)
	if p.selected == Custom {
		p.active = p.custom
	}
}
