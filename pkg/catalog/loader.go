package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/oxygene76/exosky/internal/types"
	"github.com/oxygene76/exosky/pkg/utils"
)

// Load reads both tables named in cfg and builds the catalog.
// Absent files are reported as ErrMissingResource.
func Load(cfg utils.DataConfig, logger log.Logger) (*Catalog, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	planets, err := LoadPlanets(cfg.PlanetsFile, cfg.Planets, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load planets: %w", err)
	}

	stars, err := LoadStars(cfg.StarsFile, cfg.Stars, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load stars: %w", err)
	}

	logger.Info("catalog loaded", "planets", len(planets), "stars", len(stars))
	return New(planets, stars)
}

// LoadPlanets loads the planet table from a CSV file
func LoadPlanets(filename string, cols utils.PlanetColumns, logger log.Logger) ([]types.Planet, error) {
	file, err := openTable(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadPlanets(file, cols, logger)
}

// ReadPlanets parses planets from CSV. Malformed and duplicate rows are
// skipped with a warning.
func ReadPlanets(r io.Reader, cols utils.PlanetColumns, logger log.Logger) ([]types.Planet, error) {
	t, err := newTable(r, cols.Name, cols.RA, cols.Dec, cols.Distance)
	if err != nil {
		return nil, err
	}

	var planets []types.Planet
	seen := make(map[string]struct{})
	for {
		record, line, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !skippable(err) {
				return nil, fmt.Errorf("failed to read line %d: %w", line, err)
			}
			logger.Error("skipping unreadable planet row", "line", line, "err", err)
			continue
		}

		planet, err := parsePlanet(record)
		if err != nil {
			logger.Error("skipping malformed planet row", "line", line, "err", err)
			continue
		}
		if _, dup := seen[planet.Name]; dup {
			logger.Error("skipping duplicate planet", "line", line, "name", planet.Name)
			continue
		}
		seen[planet.Name] = struct{}{}

		planets = append(planets, planet)
	}

	if len(planets) == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidInput, "no usable planet rows")
	}
	return planets, nil
}

// LoadStars loads the star table from a CSV file
func LoadStars(filename string, cols utils.StarColumns, logger log.Logger) ([]types.Star, error) {
	file, err := openTable(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadStars(file, cols, logger)
}

// ReadStars parses stars from CSV. Malformed and duplicate rows are skipped
// with a warning.
func ReadStars(r io.Reader, cols utils.StarColumns, logger log.Logger) ([]types.Star, error) {
	t, err := newTable(r, cols.SourceID, cols.RA, cols.Dec, cols.Magnitude)
	if err != nil {
		return nil, err
	}

	var stars []types.Star
	seen := make(map[string]struct{})
	for {
		record, line, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if !skippable(err) {
				return nil, fmt.Errorf("failed to read line %d: %w", line, err)
			}
			logger.Error("skipping unreadable star row", "line", line, "err", err)
			continue
		}

		star, err := parseStar(record)
		if err != nil {
			logger.Error("skipping malformed star row", "line", line, "err", err)
			continue
		}
		if _, dup := seen[star.SourceID]; dup {
			logger.Error("skipping duplicate star", "line", line, "source_id", star.SourceID)
			continue
		}
		seen[star.SourceID] = struct{}{}

		stars = append(stars, star)
	}

	if len(stars) == 0 {
		return nil, errorsmod.Wrap(types.ErrInvalidInput, "no usable star rows")
	}
	return stars, nil
}

func openTable(filename string) (*os.File, error) {
	file, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errorsmod.Wrapf(types.ErrMissingResource, "input file %s not found", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	return file, nil
}

var errShortRecord = errors.New("short record")

// skippable reports whether a row error only affects that row
func skippable(err error) bool {
	var parseErr *csv.ParseError
	return errors.Is(err, errShortRecord) || errors.As(err, &parseErr)
}

// table reads selected columns of a CSV file by header name
type table struct {
	reader  *csv.Reader
	indexes []int
	line    int
}

func newTable(r io.Reader, columns ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errorsmod.Wrap(types.ErrInvalidInput, "table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		// Strip a UTF-8 BOM some exporters put in front of the first column
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		positions[name] = i
	}

	indexes := make([]int, len(columns))
	for i, col := range columns {
		idx, ok := positions[col]
		if !ok {
			return nil, errorsmod.Wrapf(types.ErrInvalidInput, "missing column %q", col)
		}
		indexes[i] = idx
	}

	return &table{reader: reader, indexes: indexes, line: 1}, nil
}

// next returns the selected fields of the next record and its 1-based line number
func (t *table) next() ([]string, int, error) {
	record, err := t.reader.Read()
	t.line++
	if err != nil {
		return nil, t.line, err
	}

	fields := make([]string, len(t.indexes))
	for i, idx := range t.indexes {
		if idx >= len(record) {
			return nil, t.line, fmt.Errorf("%w: %d fields, need column %d", errShortRecord, len(record), idx+1)
		}
		fields[i] = strings.TrimSpace(record[idx])
	}
	return fields, t.line, nil
}

func parsePlanet(fields []string) (types.Planet, error) {
	planet := types.Planet{Name: fields[0]}
	if planet.Name == "" {
		return planet, fmt.Errorf("empty planet name")
	}

	var err error
	if planet.RA, err = parseFloat(fields[1]); err != nil {
		return planet, fmt.Errorf("invalid ra: %w", err)
	}
	if planet.Dec, err = parseFloat(fields[2]); err != nil {
		return planet, fmt.Errorf("invalid dec: %w", err)
	}
	if planet.Distance, err = parseFloat(fields[3]); err != nil {
		return planet, fmt.Errorf("invalid distance: %w", err)
	}

	return planet, nil
}

func parseStar(fields []string) (types.Star, error) {
	star := types.Star{SourceID: fields[0]}
	if star.SourceID == "" {
		return star, fmt.Errorf("empty source id")
	}

	var err error
	if star.RA, err = parseFloat(fields[1]); err != nil {
		return star, fmt.Errorf("invalid ra: %w", err)
	}
	if star.Dec, err = parseFloat(fields[2]); err != nil {
		return star, fmt.Errorf("invalid dec: %w", err)
	}
	if star.Magnitude, err = parseFloat(fields[3]); err != nil {
		return star, fmt.Errorf("invalid magnitude: %w", err)
	}

	return star, nil
}

// parseFloat rejects NaN and Inf so the row is skipped like any other
// malformed one
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}
