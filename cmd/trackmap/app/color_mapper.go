package app

import (
	"image/color"
	"math"
)

const (
	ClassicTheme   ColorTheme = "classic"   // blue low, red high
	GrayscaleTheme ColorTheme = "grayscale" // light low, black high
	JungleTheme    ColorTheme = "jungle"
	ThermalTheme   ColorTheme = "thermal"
	MarineTheme    ColorTheme = "marine"

	DefaultColorMapSize = 256
)

// ColorTheme names a gradient for mapping altitude to path color. Every theme keeps enough
// contrast against the white canvas at both ends.
type ColorTheme string

var themes = map[ColorTheme]func(float64) color.Color{
	ClassicTheme: func(v float64) color.Color {
		return HSV{H: 240 - v*240, S: 0.9 + v*0.1, V: 0.55 + math.Pow(v, 0.7)*0.4}.RGB()
	},
	GrayscaleTheme: func(v float64) color.Color {
		g := uint8((0.75 - math.Pow(v, 0.7)*0.75) * 255)
		return color.RGBA{R: g, G: g, B: g, A: 0xff}
	},
	JungleTheme: func(v float64) color.Color {
		return HSV{H: 120 - v*60, S: 1, V: 0.35 + math.Pow(v, 0.6)*0.5}.RGB()
	},
	ThermalTheme: func(v float64) color.Color {
		if v < 0.5 {
			return color.RGBA{R: uint8((0.3 + v*1.4) * 255), A: 0xff}
		}
		return color.RGBA{R: 255, G: uint8((v - 0.5) * 1.6 * 255), A: 0xff}
	},
	MarineTheme: func(v float64) color.Color {
		return HSV{H: 240 - v*60, S: 1 - v*0.5, V: 0.35 + math.Pow(v, 0.6)*0.5}.RGB()
	},
}

// AltitudeBounds is the relative altitude range covered by a color map.
type AltitudeBounds struct {
	Min, Max float64
}

// ColorMapper maps relative altitude to a color using a pre-computed gradient.
type ColorMapper struct {
	colorMap    []color.Color
	themeName   ColorTheme
	boundsMin   float64
	boundsRange float64
}

func NewColorMapper(theme ColorTheme, bounds AltitudeBounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a color mapper with size gradient steps. Unknown themes fall
// back to ClassicTheme.
func NewColorMapperWithSize(theme ColorTheme, bounds AltitudeBounds, size int) *ColorMapper {
	if size < 2 {
		size = DefaultColorMapSize
	}
	fn, ok := themes[theme]
	if !ok {
		theme, fn = ClassicTheme, themes[ClassicTheme]
	}

	cm := &ColorMapper{
		colorMap:  make([]color.Color, size),
		themeName: theme,
	}
	for i := range cm.colorMap {
		cm.colorMap[i] = fn(float64(i) / float64(size-1))
	}
	cm.UpdateBounds(bounds)
	return cm
}

func (cm *ColorMapper) UpdateBounds(bounds AltitudeBounds) {
	cm.boundsMin = bounds.Min
	cm.boundsRange = bounds.Max - bounds.Min
}

// GetColor returns the color for alt, clamped to the mapper bounds. A flat range maps
// everything to the middle of the gradient.
func (cm *ColorMapper) GetColor(alt float64) color.Color {
	if cm.boundsRange <= 0 {
		return cm.colorMap[len(cm.colorMap)/2]
	}
	v := (alt - cm.boundsMin) / cm.boundsRange
	index := int(math.Round(v * float64(len(cm.colorMap)-1)))
	return cm.colorMap[max(0, min(index, len(cm.colorMap)-1))]
}

// Gradient returns the color at position v in [0,1] regardless of bounds.
func (cm *ColorMapper) Gradient(v float64) color.Color {
	index := int(math.Round(v * float64(len(cm.colorMap)-1)))
	return cm.colorMap[max(0, min(index, len(cm.colorMap)-1))]
}

func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

// HSV represents a color in HSV color space
type HSV struct {
	H float64 // Hue [0-360]
	S float64 // Saturation [0-1]
	V float64 // Value [0-1]
}

func (hsv HSV) RGB() color.Color {
	if hsv.S <= 0 {
		v := uint8(hsv.V * 255)
		return color.RGBA{R: v, G: v, B: v, A: 0xff}
	}

	h := math.Mod(hsv.H, 360) / 60
	if h < 0 {
		h += 6
	}
	i := math.Floor(h)
	f := h - i

	v := hsv.V
	p := v * (1 - hsv.S)
	q := v * (1 - hsv.S*f)
	t := v * (1 - hsv.S*(1-f))

	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}

	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 0xff}
}
