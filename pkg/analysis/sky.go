package analysis

import (
	"context"
	"math"
	"sort"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/oxygene76/exosky/internal/types"
	"github.com/oxygene76/exosky/pkg/astronomy/sky"
	"github.com/oxygene76/exosky/pkg/catalog"
)

// DefaultHistogramBins is the bin count of the magnitude histogram
const DefaultHistogramBins = 50

// Manager turns a planet selection into a sky view. It holds only the
// immutable catalog and settings, so every call is independent.
type Manager struct {
	catalog *catalog.Catalog
	filter  sky.Filter
	bins    int
	logger  log.Logger
	now     func() time.Time
}

// NewManager creates a new analysis manager
func NewManager(cat *catalog.Catalog, filter sky.Filter, bins int, logger log.Logger) *Manager {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Manager{
		catalog: cat,
		filter:  filter,
		bins:    bins,
		logger:  logger,
		now:     time.Now,
	}
}

// Catalog returns the catalog the manager reads from
func (m *Manager) Catalog() *catalog.Catalog { return m.catalog }

// Filter returns the visibility filter settings
func (m *Manager) Filter() sky.Filter { return m.filter }

// View computes the night sky seen from the named planet
func (m *Manager) View(ctx context.Context, planetName string) (*types.SkyView, error) {
	planet, ok := m.catalog.Planet(planetName)
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrUnknownTarget, "planet %q", planetName)
	}
	return m.ViewFrom(ctx, planet, m.filter)
}

// ViewFrom computes the sky from an explicit planet and filter
func (m *Manager) ViewFrom(ctx context.Context, planet types.Planet, filter sky.Filter) (*types.SkyView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	visible, err := filter.Apply(m.catalog.Stars(), planet.RA, planet.Dec)
	if err != nil {
		m.logger.Error("visibility filter failed", "planet", planet.Name, "err", err)
		return nil, err
	}

	magnitudes := ApparentMagnitudes(visible)
	view := &types.SkyView{
		Planet:         planet,
		Stars:          visible,
		MagnitudeLimit: filter.MagnitudeLimit,
		Radius:         filter.Radius,
		Stats:          Summarize(magnitudes),
		Histogram:      Histogram(magnitudes, m.bins),
		GeneratedAt:    m.now(),
	}

	m.logger.Debug("sky view computed",
		"planet", planet.Name,
		"visible", len(visible),
		"catalog", m.catalog.NumStars(),
		"duration", time.Since(start).String(),
	)
	return view, nil
}

// ApparentMagnitudes extracts the apparent magnitude column of a view
func ApparentMagnitudes(stars []types.VisibleStar) []float64 {
	mags := make([]float64, len(stars))
	for i, s := range stars {
		mags[i] = s.ApparentMagnitude
	}
	return mags
}

// Summarize computes magnitude statistics; an empty input yields zero stats
func Summarize(magnitudes []float64) types.MagnitudeStats {
	if len(magnitudes) == 0 {
		return types.MagnitudeStats{}
	}

	stats := types.MagnitudeStats{
		Count: len(magnitudes),
		Mean:  stat.Mean(magnitudes, nil),
		Min:   floats.Min(magnitudes),
		Max:   floats.Max(magnitudes),
	}
	if len(magnitudes) > 1 {
		stats.StdDev = stat.StdDev(magnitudes, nil)
	}
	return stats
}

// Histogram bins magnitudes into equal-width bins spanning their range.
// Every value falls in exactly one bin.
func Histogram(magnitudes []float64, bins int) []types.HistogramBin {
	if len(magnitudes) == 0 || bins <= 0 {
		return nil
	}

	sorted := append([]float64(nil), magnitudes...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	// stat.Histogram wants every value strictly below the last divider
	upper := dividers[bins]
	dividers[bins] = math.Nextafter(upper, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	out := make([]types.HistogramBin, bins)
	for i := range out {
		out[i] = types.HistogramBin{
			Low:   dividers[i],
			High:  dividers[i+1],
			Count: int(counts[i]),
		}
	}
	out[bins-1].High = upper
	return out
}
