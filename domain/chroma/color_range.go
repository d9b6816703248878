// Package chroma holds the color model used by the compositor: HSV
// conversion, target color ranges and the preset palette.
package chroma

import (
	"fmt"
	"strings"
)

// ColorRange is an inclusive HSV box. Hue is on [0,180], saturation and value
// on [0,255]. HueMin > HueMax denotes a range that wraps through 0 (for
// example 170..10 covers deep reds on both ends of the circle). Inverted
// saturation or value bounds describe an empty interval.
type ColorRange struct {
	HueMin int `json:"hue_min" mapstructure:"hue_min"`
	HueMax int `json:"hue_max" mapstructure:"hue_max"`
	SatMin int `json:"sat_min" mapstructure:"sat_min"`
	SatMax int `json:"sat_max" mapstructure:"sat_max"`
	ValMin int `json:"val_min" mapstructure:"val_min"`
	ValMax int `json:"val_max" mapstructure:"val_max"`
}

// Contains reports whether c falls inside the range.
func (r ColorRange) Contains(c HSV) bool {
	return r.containsHue(c.H) &&
		c.S >= float64(r.SatMin) && c.S <= float64(r.SatMax) &&
		c.V >= float64(r.ValMin) && c.V <= float64(r.ValMax)
}

// ContainsRGB converts the pixel and tests membership.
func (r ColorRange) ContainsRGB(red, green, blue uint8) bool {
	return r.Contains(RGBToHSV(red, green, blue))
}

// WrapsHue reports whether the hue interval wraps through 0.
func (r ColorRange) WrapsHue() bool { return r.HueMin > r.HueMax }

func (r ColorRange) containsHue(h float64) bool {
	lo, hi := float64(r.HueMin), float64(r.HueMax)
	if r.WrapsHue() {
		return h >= lo || h <= hi
	}
	return h >= lo && h <= hi
}

func (r ColorRange) String() string {
	return fmt.Sprintf("h[%d..%d] s[%d..%d] v[%d..%d]", r.HueMin, r.HueMax, r.SatMin, r.SatMax, r.ValMin, r.ValMax)
}

// Bound names one of the six ColorRange limits.
type Bound int

const (
	HueMin Bound = iota
	HueMax
	SatMin
	SatMax
	ValMin
	ValMax
)

var boundNames = [...]string{"hue_min", "hue_max", "sat_min", "sat_max", "val_min", "val_max"}

func (b Bound) String() string {
	if b < HueMin || b > ValMax {
		return "unknown"
	}
	return boundNames[b]
}

// ParseBound resolves a bound name such as "hue_min" or "hueMin".
func ParseBound(s string) (Bound, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for i, n := range boundNames {
		if strings.ReplaceAll(n, "_", "") == norm {
			return Bound(i), nil
		}
	}
	return 0, fmt.Errorf("chroma: unknown bound %q", s)
}

// With returns a copy of r with bound b set to v. Values are clamped to the
// scale of the bound (hue 0..180, saturation and value 0..255).
func (r ColorRange) With(b Bound, v int) ColorRange {
	limit := 255
	if b == HueMin || b == HueMax {
		limit = 180
	}
	if v < 0 {
		v = 0
	} else if v > limit {
		v = limit
	}
	switch b {
	case HueMin:
		r.HueMin = v
	case HueMax:
		r.HueMax = v
	case SatMin:
		r.SatMin = v
	case SatMax:
		r.SatMax = v
	case ValMin:
		r.ValMin = v
	case ValMax:
		r.ValMax = v
	}
	return r
}

// Get returns the value of bound b.
func (r ColorRange) Get(b Bound) int {
	switch b {
	case HueMin:
		return r.HueMin
	case HueMax:
		return r.HueMax
	case SatMin:
		return r.SatMin
	case SatMax:
		return r.SatMax
	case ValMin:
		return r.ValMin
	case ValMax:
		return r.ValMax
	}
	return 0
}
