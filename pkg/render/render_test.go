package render

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"

	"github.com/oxygene76/exosky/internal/types"
)

func testView() *types.SkyView {
	stars := []types.VisibleStar{
		{Star: types.Star{SourceID: "4295806720", RA: 10, Dec: 20, Magnitude: 3}, Separation: 22, ApparentMagnitude: 3},
		{Star: types.Star{SourceID: "4295806721", RA: 350, Dec: -40, Magnitude: 9}, Separation: 45, ApparentMagnitude: 9},
		{Star: types.Star{SourceID: "4295806722", RA: 180, Dec: 0, Magnitude: 14.5}, Separation: 80, ApparentMagnitude: 14.5},
	}
	return &types.SkyView{
		Planet:         types.Planet{Name: "Kepler-22 b", RA: 289.2, Dec: 47.9, Distance: 194.3},
		Stars:          stars,
		MagnitudeLimit: 15,
		Radius:         90,
		Histogram: []types.HistogramBin{
			{Low: 3, High: 8.75, Count: 1},
			{Low: 8.75, High: 14.5, Count: 2},
		},
	}
}

func TestStarSize(t *testing.T) {
	tests := []struct {
		mag  float64
		want float64
	}{
		{0, 4},
		{5, 2},
		{15, 1},
		{-4, 20},
		{-10, 20},
	}

	for _, tt := range tests {
		if got := StarSize(tt.mag); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("StarSize(%v) = %v, want %v", tt.mag, got, tt.want)
		}
	}

	if !(StarSize(1) > StarSize(2)) {
		t.Fatal("brighter stars must be larger")
	}
	if got := StarSize(math.NaN()); got != 20 {
		t.Fatalf("StarSize(NaN) = %v", got)
	}
}

func TestSymbolSizeClamped(t *testing.T) {
	if got := SymbolSize(-20); got != maxSymbolSize {
		t.Fatalf("SymbolSize(-20) = %d, want %d", got, maxSymbolSize)
	}
	if got := SymbolSize(100); got != minSymbolSize {
		t.Fatalf("SymbolSize(100) = %d, want %d", got, minSymbolSize)
	}
	if got := SymbolSize(0); got != 12 {
		t.Fatalf("SymbolSize(0) = %d, want 12", got)
	}
}

func TestGlyphRadius(t *testing.T) {
	// area 10*StarSize(5) = 20 square points
	want := math.Sqrt(20 / math.Pi)
	if got := GlyphRadius(5); math.Abs(got-want) > 1e-12 {
		t.Fatalf("GlyphRadius(5) = %v, want %v", got, want)
	}
}

func TestMagnitudeRange(t *testing.T) {
	lo, hi := magnitudeRange(testView().Stars)
	if lo != 3 || hi != 14.5 {
		t.Fatalf("range = [%v, %v]", lo, hi)
	}

	lo, hi = magnitudeRange(nil)
	if lo != 0 || hi != 1 {
		t.Fatalf("empty range = [%v, %v]", lo, hi)
	}

	lo, hi = magnitudeRange([]types.VisibleStar{{ApparentMagnitude: 7}})
	if lo != 6.5 || hi != 7.5 {
		t.Fatalf("single range = [%v, %v]", lo, hi)
	}
}

func TestViridis(t *testing.T) {
	cmap := NewViridis(0, 10)

	first, err := cmap.At(0)
	if err != nil {
		t.Fatalf("At(0): %v", err)
	}
	if first != (color.NRGBA{R: 0x44, G: 0x01, B: 0x54, A: 255}) {
		t.Fatalf("At(0) = %v", first)
	}

	last, err := cmap.At(10)
	if err != nil {
		t.Fatalf("At(10): %v", err)
	}
	if last != (color.NRGBA{R: 0xfd, G: 0xe7, B: 0x25, A: 255}) {
		t.Fatalf("At(10) = %v", last)
	}

	if _, err := cmap.At(11); err != palette.ErrOverflow {
		t.Fatalf("At(11) error = %v, want ErrOverflow", err)
	}
	if _, err := cmap.At(-1); err != palette.ErrUnderflow {
		t.Fatalf("At(-1) error = %v, want ErrUnderflow", err)
	}
	if _, err := cmap.At(math.NaN()); err != palette.ErrNaN {
		t.Fatalf("At(NaN) error = %v, want ErrNaN", err)
	}

	if got := cmap.Color(42); got != last {
		t.Fatalf("Color clamps high values, got %v", got)
	}
	if n := len(cmap.Palette(16).Colors()); n != 16 {
		t.Fatalf("palette has %d colours", n)
	}

	cmap.SetAlpha(0.5)
	c, _ := cmap.At(5)
	if c.(color.NRGBA).A != 128 {
		t.Fatalf("alpha = %d, want 128", c.(color.NRGBA).A)
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, testView()); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"Night sky from Kepler-22 b",
		"4295806721",
		HistogramColor,
		"goecharts_" + starMapID + ".setOption({xAxis: {inverse: true}})",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestWriteHTMLPlanetInfo(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, testView()); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"Distance: 194.30 pc", "RA: 289.20°", "Dec: 47.90°", "3 stars brighter than magnitude 15"} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, "<select") || strings.Contains(html, "exosky-export") {
		t.Error("page without navigation should have no selector or export controls")
	}
	if strings.Index(html, "exosky-header") > strings.Index(html, "goecharts_"+starMapID) {
		t.Error("header should come before the charts")
	}
}

func TestWritePageNavigation(t *testing.T) {
	nav := &Navigation{
		Planets:   []string{"51 Peg b", "Kepler-22 b", "TRAPPIST-1 e"},
		SkyPath:   "/sky/",
		ExportURL: "/api/v1/sky/Kepler-22%20b/export",
	}

	var buf bytes.Buffer
	if err := WritePage(&buf, testView(), nav); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		`<option value="/sky/51%20Peg%20b">51 Peg b</option>`,
		`<option value="/sky/Kepler-22%20b" selected>Kepler-22 b</option>`,
		`action="/api/v1/sky/Kepler-22%20b/export"`,
		"Generate image",
		"preview=true",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Index(html, "51 Peg b") > strings.Index(html, "TRAPPIST-1 e") {
		t.Error("selector should keep the given order")
	}
}

func TestWithQuery(t *testing.T) {
	got := withQuery("/api/v1/sky/x/export?limit=10", "preview", "true")
	if got != "/api/v1/sky/x/export?limit=10&preview=true" {
		t.Fatalf("withQuery = %q", got)
	}
}

func TestWriteHTMLEmptyView(t *testing.T) {
	view := testView()
	view.Stars = nil
	view.Histogram = nil

	var buf bytes.Buffer
	if err := WriteHTML(&buf, view); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
}

func TestWritePNG(t *testing.T) {
	opt := StaticOptions{Width: 4 * vg.Inch, Height: 2 * vg.Inch, DPI: 25}

	var buf bytes.Buffer
	if err := WritePNG(&buf, testView(), opt); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("image is %dx%d, want 100x50", b.Dx(), b.Dy())
	}

	// corners stay on the black background
	r, g, b, _ := img.At(0, 0).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("corner pixel = %v, want black", img.At(0, 0))
	}
}

func TestWritePNGEmptyView(t *testing.T) {
	view := testView()
	view.Stars = nil

	var buf bytes.Buffer
	if err := WritePNG(&buf, view, StaticOptions{Width: 3 * vg.Inch, Height: 2 * vg.Inch, DPI: 10}); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
}

func TestStaticImageRejectsBadSize(t *testing.T) {
	if _, err := StaticImage(testView(), StaticOptions{Width: vg.Inch, Height: vg.Inch}); err == nil {
		t.Fatal("StaticImage accepted zero dpi")
	}
}
