package sky

import (
	"math"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/exosky/internal/types"
)

const (
	// DefaultMagnitudeLimit is the faintest magnitude kept by default (exclusive)
	DefaultMagnitudeLimit = 15.0

	// DefaultRadius is the half-angle of the visibility cone in degrees (exclusive)
	DefaultRadius = 90.0

	// boundaryEpsilon is the relative margin that keeps points lying on the
	// cone edge outside of it when rounding puts them a few ulps inside.
	// It amounts to about six ulps of the radius.
	boundaryEpsilon = 1e-15
)

// Filter selects the stars visible from a target's sky position
type Filter struct {
	MagnitudeLimit float64
	Radius         float64
}

// DefaultFilter returns a filter with the default limit and radius
func DefaultFilter() Filter {
	return Filter{
		MagnitudeLimit: DefaultMagnitudeLimit,
		Radius:         DefaultRadius,
	}
}

// VisibleStars returns the stars brighter than magnitudeLimit lying within 90°
// of (targetRA, targetDec), annotated with their separation. Order follows
// the input but callers must not rely on it.
func VisibleStars(stars []types.Star, targetRA, targetDec, magnitudeLimit float64) ([]types.VisibleStar, error) {
	return Filter{MagnitudeLimit: magnitudeLimit, Radius: DefaultRadius}.Apply(stars, targetRA, targetDec)
}

// Apply runs the filter against a star table
func (f Filter) Apply(stars []types.Star, targetRA, targetDec float64) ([]types.VisibleStar, error) {
	if err := f.validate(stars, targetRA, targetDec); err != nil {
		return nil, err
	}

	target := UnitVector(targetRA, targetDec)
	visible := make([]types.VisibleStar, 0, len(stars))

	for _, star := range stars {
		// Magnitude prefilter; NaN and infinite magnitudes are not measurements
		if !isFinite(star.Magnitude) || !(star.Magnitude < f.MagnitudeLimit) {
			continue
		}

		sep := vectorSeparation(target, UnitVector(star.RA, star.Dec))
		if !InsideCone(sep, f.Radius) {
			continue
		}

		visible = append(visible, types.VisibleStar{
			Star:              star,
			Separation:        sep,
			ApparentMagnitude: ApparentMagnitude(star.Magnitude),
		})
	}

	return visible, nil
}

// InsideCone reports whether a separation lies strictly inside a cone of the
// given radius. Both values are in degrees.
func InsideCone(separation, radius float64) bool {
	return separation < radius-radius*boundaryEpsilon
}

func (f Filter) validate(stars []types.Star, targetRA, targetDec float64) error {
	if len(stars) == 0 {
		return errorsmod.Wrap(types.ErrInvalidInput, "star table is empty")
	}
	if !isFinite(targetRA) || !isFinite(targetDec) {
		return errorsmod.Wrapf(types.ErrInvalidInput, "target position (%v, %v) is not finite", targetRA, targetDec)
	}
	if !isFinite(f.MagnitudeLimit) {
		return errorsmod.Wrapf(types.ErrInvalidInput, "magnitude limit %v is not finite", f.MagnitudeLimit)
	}
	if !(f.Radius > 0 && f.Radius <= 180) {
		return errorsmod.Wrapf(types.ErrInvalidInput, "radius %v must be in (0, 180]", f.Radius)
	}

	for i, star := range stars {
		if !isFinite(star.RA) || !isFinite(star.Dec) {
			return errorsmod.Wrapf(types.ErrInvalidInput, "star %q (row %d) has non-finite position (%v, %v)",
				star.SourceID, i, star.RA, star.Dec)
		}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
