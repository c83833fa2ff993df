package sky

// ApparentMagnitude returns the magnitude of a star as seen from the planet.
//
// It is currently a passthrough of the magnitude observed from the reference
// point: no inverse-square correction for the new vantage point is applied.
// This is a known limitation.
func ApparentMagnitude(observed float64) float64 {
	return observed
}
