package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
)

// viridisHex samples the viridis scale at eleven evenly spaced points
var viridisHex = []string{
	"#440154", "#482475", "#414487", "#355f8d", "#2a788e", "#21918c",
	"#22a884", "#44bf70", "#7ad151", "#bddf26", "#fde725",
}

var viridisStops = mustParseHex(viridisHex)

// Viridis is a palette.ColorMap interpolating linearly between the viridis
// samples over [Min, Max]
type Viridis struct {
	min, max, alpha float64
}

// NewViridis returns a viridis colour map over [min, max]
func NewViridis(min, max float64) *Viridis {
	return &Viridis{min: min, max: max, alpha: 1}
}

var _ palette.ColorMap = (*Viridis)(nil)

// At implements palette.ColorMap
func (v *Viridis) At(x float64) (color.Color, error) {
	if v.max <= v.min {
		return nil, fmt.Errorf("viridis: invalid range [%v, %v]", v.min, v.max)
	}
	switch {
	case math.IsNaN(x):
		return nil, palette.ErrNaN
	case x < v.min:
		return nil, palette.ErrUnderflow
	case x > v.max:
		return nil, palette.ErrOverflow
	}

	t := (x - v.min) / (v.max - v.min) * float64(len(viridisStops)-1)
	i := int(t)
	if i >= len(viridisStops)-1 {
		return v.withAlpha(viridisStops[len(viridisStops)-1]), nil
	}
	return v.withAlpha(lerp(viridisStops[i], viridisStops[i+1], t-float64(i))), nil
}

// Max implements palette.ColorMap
func (v *Viridis) Max() float64 { return v.max }

// SetMax implements palette.ColorMap
func (v *Viridis) SetMax(x float64) { v.max = x }

// Min implements palette.ColorMap
func (v *Viridis) Min() float64 { return v.min }

// SetMin implements palette.ColorMap
func (v *Viridis) SetMin(x float64) { v.min = x }

// Alpha implements palette.ColorMap
func (v *Viridis) Alpha() float64 { return v.alpha }

// SetAlpha implements palette.ColorMap
func (v *Viridis) SetAlpha(a float64) { v.alpha = clamp(a, 0, 1) }

// Palette implements palette.ColorMap
func (v *Viridis) Palette(colors int) palette.Palette {
	if colors < 2 {
		colors = 2
	}
	out := make(colorList, colors)
	step := (v.max - v.min) / float64(colors-1)
	for i := range out {
		c, err := v.At(v.min + float64(i)*step)
		if err != nil {
			c = v.withAlpha(viridisStops[len(viridisStops)-1])
		}
		out[i] = c
	}
	return out
}

// Color returns the colour of x, clamping it into the map's range
func (v *Viridis) Color(x float64) color.Color {
	c, err := v.At(clamp(x, v.min, v.max))
	if err != nil {
		return v.withAlpha(viridisStops[0])
	}
	return c
}

func (v *Viridis) withAlpha(c color.NRGBA) color.NRGBA {
	c.A = uint8(math.Round(255 * v.alpha))
	return c
}

type colorList []color.Color

func (l colorList) Colors() []color.Color { return l }

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

func mustParseHex(hex []string) []color.NRGBA {
	out := make([]color.NRGBA, len(hex))
	for i, h := range hex {
		var r, g, b uint8
		if _, err := fmt.Sscanf(h, "#%02x%02x%02x", &r, &g, &b); err != nil {
			panic(fmt.Sprintf("bad colour %q: %v", h, err))
		}
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}
