package catalog

import (
	"slices"
	"sort"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/oxygene76/exosky/internal/types"
)

// Catalog holds the planet and star tables. It is built once at startup and
// never mutated; accessors hand out copies.
type Catalog struct {
	planets []types.Planet
	byName  map[string]int
	stars   []types.Star
}

// New builds a catalog from already parsed tables. Planets are sorted by name.
func New(planets []types.Planet, stars []types.Star) (*Catalog, error) {
	if len(planets) == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidInput, "planet table is empty")
	}
	if len(stars) == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidInput, "star table is empty")
	}

	sorted := slices.Clone(planets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	byName := make(map[string]int, len(sorted))
	for i, p := range sorted {
		if _, dup := byName[p.Name]; dup {
			return nil, errorsmod.Wrapf(types.ErrInvalidInput, "duplicate planet %q", p.Name)
		}
		byName[p.Name] = i
	}

	seen := make(map[string]struct{}, len(stars))
	for _, s := range stars {
		if _, dup := seen[s.SourceID]; dup {
			return nil, errorsmod.Wrapf(types.ErrInvalidInput, "duplicate star %q", s.SourceID)
		}
		seen[s.SourceID] = struct{}{}
	}

	return &Catalog{
		planets: sorted,
		byName:  byName,
		stars:   slices.Clone(stars),
	}, nil
}

// Planets returns all planets sorted by name
func (c *Catalog) Planets() []types.Planet {
	return slices.Clone(c.planets)
}

// Planet looks up a planet by exact name
func (c *Catalog) Planet(name string) (types.Planet, bool) {
	i, ok := c.byName[name]
	if !ok {
		return types.Planet{}, false
	}
	return c.planets[i], true
}

// Search returns planets whose name contains query, case-insensitively
func (c *Catalog) Search(query string) []types.Planet {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.Planets()
	}

	var matches []types.Planet
	for _, p := range c.planets {
		if strings.Contains(strings.ToLower(p.Name), query) {
			matches = append(matches, p)
		}
	}
	return matches
}

// Stars returns a copy of the star table
func (c *Catalog) Stars() []types.Star {
	return slices.Clone(c.stars)
}

// NumPlanets returns the number of planets
func (c *Catalog) NumPlanets() int { return len(c.planets) }

// NumStars returns the number of stars
func (c *Catalog) NumStars() int { return len(c.stars) }
