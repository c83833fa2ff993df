package sky

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// UnitVector returns the direction of a sky position (degrees) on the unit sphere
func UnitVector(ra, dec float64) r3.Vec {
	raRad := ra * degToRad
	decRad := dec * degToRad
	cosDec := math.Cos(decRad)

	return r3.Vec{
		X: cosDec * math.Cos(raRad),
		Y: cosDec * math.Sin(raRad),
		Z: math.Sin(decRad),
	}
}

// Separation returns the great-circle angle in degrees between two sky
// positions given in degrees. The result is in [0, 180].
func Separation(ra1, dec1, ra2, dec2 float64) float64 {
	return vectorSeparation(UnitVector(ra1, dec1), UnitVector(ra2, dec2))
}

// vectorSeparation uses atan2(|a×b|, a·b), which stays accurate for both tiny
// and near-antipodal angles where acos or haversine lose precision
func vectorSeparation(a, b r3.Vec) float64 {
	sep := math.Atan2(r3.Norm(r3.Cross(a, b)), r3.Dot(a, b)) * radToDeg

	if sep < 0 {
		return 0
	}
	if sep > 180 {
		return 180
	}
	return sep
}
