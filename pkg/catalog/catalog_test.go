package catalog

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cosmossdk.io/log"

	"github.com/oxygene76/exosky/internal/types"
	"github.com/oxygene76/exosky/pkg/utils"
)

const planetsCSV = `pl_name,hostname,ra,dec,sy_dist
Kepler-22 b,Kepler-22,289.2176,47.8842,194.3
51 Peg b,51 Peg,344.3665,20.7688,15.47
TRAPPIST-1 e,TRAPPIST-1,346.6219,-5.0414,12.43
broken,x,not-a-number,1,1
51 Peg b,51 Peg,0,0,1
`

const starsCSV = `SOURCE_ID,ra,dec,phot_g_mean_mag,parallax
100,10.5,20.1,9.2,1.1
101,359.9,-3.0,14.9,0.3
102,180.0,45.0,,0.2
103,42.0,NaN,11.0,0.1
104,12.0,20.0,-inf,0.1
100,11.0,21.0,3.0,1.0
short,1
`

func defaultColumns() utils.DataConfig {
	return utils.DefaultConfig().Data
}

func TestReadPlanets(t *testing.T) {
	planets, err := ReadPlanets(strings.NewReader(planetsCSV), defaultColumns().Planets, log.NewNopLogger())
	if err != nil {
		t.Fatalf("ReadPlanets: %v", err)
	}

	if len(planets) != 3 {
		t.Fatalf("got %d planets, want 3 (malformed and duplicate skipped)", len(planets))
	}
	if planets[0].Name != "Kepler-22 b" || planets[0].Distance != 194.3 {
		t.Fatalf("first planet = %+v", planets[0])
	}
}

func TestReadStars(t *testing.T) {
	stars, err := ReadStars(strings.NewReader(starsCSV), defaultColumns().Stars, log.NewNopLogger())
	if err != nil {
		t.Fatalf("ReadStars: %v", err)
	}

	ids := make([]string, 0, len(stars))
	for _, s := range stars {
		ids = append(ids, s.SourceID)
	}
	if got := strings.Join(ids, ","); got != "100,101" {
		t.Fatalf("star ids = %s, want 100,101", got)
	}
	if stars[0].Magnitude != 9.2 {
		t.Fatalf("first duplicate should win, magnitude = %v", stars[0].Magnitude)
	}
}

func TestReadStarsSkipsNonFinite(t *testing.T) {
	input := "SOURCE_ID,ra,dec,phot_g_mean_mag\na,10,20,-inf\nb,11,20,5\nc,12,20,NaN\nd,+Inf,20,5\n"
	stars, err := ReadStars(strings.NewReader(input), defaultColumns().Stars, log.NewNopLogger())
	if err != nil {
		t.Fatalf("ReadStars: %v", err)
	}
	if len(stars) != 1 || stars[0].SourceID != "b" {
		t.Fatalf("stars = %+v, want only b", stars)
	}
	for _, s := range stars {
		if math.IsInf(s.Magnitude, 0) || math.IsNaN(s.Magnitude) {
			t.Fatalf("non-finite magnitude loaded: %+v", s)
		}
	}
}

func TestReadMissingColumn(t *testing.T) {
	_, err := ReadStars(strings.NewReader("id,ra,dec\n1,2,3\n"), defaultColumns().Stars, log.NewNopLogger())
	if !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("ReadStars error = %v, want ErrInvalidInput", err)
	}
}

func TestReadCustomColumns(t *testing.T) {
	cols := utils.StarColumns{SourceID: "id", RA: "alpha", Dec: "delta", Magnitude: "vmag"}
	stars, err := ReadStars(strings.NewReader("\ufeffid,alpha,delta,vmag\nsirius,101.28,-16.71,-1.46\n"), cols, log.NewNopLogger())
	if err != nil {
		t.Fatalf("ReadStars: %v", err)
	}
	if len(stars) != 1 || stars[0].Magnitude != -1.46 {
		t.Fatalf("stars = %+v", stars)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	cfg := defaultColumns()
	cfg.PlanetsFile = filepath.Join(t.TempDir(), "absent.csv")

	_, err := Load(cfg, nil)
	if !errors.Is(err, types.ErrMissingResource) {
		t.Fatalf("Load error = %v, want ErrMissingResource", err)
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	cfg := defaultColumns()
	cfg.PlanetsFile = filepath.Join(dir, "planets.csv")
	cfg.StarsFile = filepath.Join(dir, "stars.csv")

	if err := os.WriteFile(cfg.PlanetsFile, []byte(planetsCSV), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.StarsFile, []byte(starsCSV), 0644); err != nil {
		t.Fatal(err)
	}

	cat, err := Load(cfg, log.NewNopLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cat.NumPlanets() != 3 || cat.NumStars() != 2 {
		t.Fatalf("catalog sizes = %d planets, %d stars", cat.NumPlanets(), cat.NumStars())
	}

	names := []string{}
	for _, p := range cat.Planets() {
		names = append(names, p.Name)
	}
	if got := strings.Join(names, "|"); got != "51 Peg b|Kepler-22 b|TRAPPIST-1 e" {
		t.Fatalf("planets not sorted: %s", got)
	}

	if _, ok := cat.Planet("Kepler-22 b"); !ok {
		t.Fatal("Kepler-22 b not found")
	}
	if _, ok := cat.Planet("kepler-22 b"); ok {
		t.Fatal("lookup should be exact")
	}
	if got := cat.Search("trappist"); len(got) != 1 {
		t.Fatalf("Search(trappist) = %+v", got)
	}
}

func TestCatalogIsImmutable(t *testing.T) {
	cat, err := New(
		[]types.Planet{{Name: "b", RA: 1, Dec: 1, Distance: 1}},
		[]types.Star{{SourceID: "s", RA: 1, Dec: 1, Magnitude: 1}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stars := cat.Stars()
	stars[0].Magnitude = 99
	planets := cat.Planets()
	planets[0].Name = "changed"

	if cat.Stars()[0].Magnitude != 1 {
		t.Fatal("star table mutated through accessor")
	}
	if _, ok := cat.Planet("b"); !ok || cat.Planets()[0].Name != "b" {
		t.Fatal("planet table mutated through accessor")
	}
}

func TestNewRejectsBadTables(t *testing.T) {
	planet := types.Planet{Name: "p", RA: 1, Dec: 1, Distance: 1}
	star := types.Star{SourceID: "s", RA: 1, Dec: 1, Magnitude: 1}

	tests := []struct {
		name    string
		planets []types.Planet
		stars   []types.Star
	}{
		{"no planets", nil, []types.Star{star}},
		{"no stars", []types.Planet{planet}, nil},
		{"duplicate planet", []types.Planet{planet, planet}, []types.Star{star}},
		{"duplicate star", []types.Planet{planet}, []types.Star{star, star}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.planets, tt.stars); !errors.Is(err, types.ErrInvalidInput) {
				t.Fatalf("New error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
