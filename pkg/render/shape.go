package render

import (
	"math"

	"github.com/oxygene76/exosky/internal/types"
)

const (
	minSymbolSize = 2
	maxSymbolSize = 20

	// magnitudeOffset keeps the size denominator positive for stars down to
	// magnitude -4 (brighter stars are capped at the maximum size)
	magnitudeOffset = 5.0
)

// StarSize maps an apparent magnitude to a relative marker size, 20/(m+5).
// Brighter stars (lower magnitudes) get larger markers.
func StarSize(magnitude float64) float64 {
	d := magnitude + magnitudeOffset
	if math.IsNaN(d) || d < 1 {
		d = 1
	}
	return 20 / d
}

// SymbolSize is the marker diameter in pixels used by the interactive charts
func SymbolSize(magnitude float64) int {
	size := int(math.Round(3 * StarSize(magnitude)))
	switch {
	case size < minSymbolSize:
		return minSymbolSize
	case size > maxSymbolSize:
		return maxSymbolSize
	}
	return size
}

// GlyphRadius is the marker radius in points used by the static image.
// The marker area is 10*StarSize square points.
func GlyphRadius(magnitude float64) float64 {
	return math.Sqrt(10 * StarSize(magnitude) / math.Pi)
}

// magnitudeRange returns the colour scale bounds of a view. A degenerate or
// empty range is widened so the scale stays usable.
func magnitudeRange(stars []types.VisibleStar) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range stars {
		m := s.ApparentMagnitude
		if math.IsNaN(m) || math.IsInf(m, 0) {
			continue
		}
		lo = math.Min(lo, m)
		hi = math.Max(hi, m)
	}

	switch {
	case lo > hi:
		return 0, 1
	case lo == hi:
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}

// clamp limits v to [lo, hi]; NaN maps to lo
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
