package chroma

import "math"

// HSV is a pixel in the 8-bit friendly HSV convention: hue on a half circle
// [0,180), saturation and value on [0,255].
type HSV struct {
	H, S, V float64
}

// RGBToHSV converts 8-bit RGB to HSV using the six-case max-channel formula.
func RGBToHSV(r8, g8, b8 uint8) HSV {
	r := float64(r8) / 255
	g := float64(g8) / 255
	b := float64(b8) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	diff := max - min

	h := 0.0
	if diff != 0 {
		switch max {
		case r:
			h = math.Mod((g-b)/diff, 6)
		case g:
			h = (b-r)/diff + 2
		default:
			h = (r-g)/diff + 4
		}
	}
	h /= 6
	if h < 0 {
		h++
	}
	// h can round up to exactly 1 after adding 1 to a tiny negative value.
	if h >= 1 {
		h -= 1
	}

	s := 0.0
	if max != 0 {
		s = diff / max
	}
	return HSV{H: h * 180, S: s * 255, V: max * 255}
}
