package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/oxygene76/exosky/internal/types"
)

const (
	// HistogramColor is the bar colour of the magnitude histogram (turquoise)
	HistogramColor = "#00CED1"

	starMapID = "star_map"
	theme     = "dark"
)

// invertRAScript flips the star map's RA axis so east is on the left, as on
// a sky chart
const invertRAScript = `<script type="text/javascript">
goecharts_%[1]s.setOption({xAxis: {inverse: true}});
</script>
`

// Page builds the interactive page of a view: the star map, the 3D
// distribution, the magnitude histogram and the real vs apparent comparison
func Page(view *types.SkyView) *components.Page {
	page := components.NewPage()
	page.PageTitle = "Exosky"
	page.AddCharts(
		StarMap(view),
		Distribution3D(view),
		MagnitudeHistogram(view),
		BrightnessComparison(view),
	)
	return page
}

// WriteHTML renders the interactive page of a view to w
func WriteHTML(w io.Writer, view *types.SkyView) error {
	return WritePage(w, view, nil)
}

// WritePage renders the interactive page of a view to w under a header with
// the planet's details. nav, when set, adds the planet selector and the
// export controls.
func WritePage(w io.Writer, view *types.SkyView, nav *Navigation) error {
	var buf bytes.Buffer
	if err := Page(view).Render(&buf); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	header, err := renderHeader(view, nav)
	if err != nil {
		return err
	}
	script := []byte(fmt.Sprintf(invertRAScript, starMapID))

	html := insertAfterBodyOpen(buf.Bytes(), header)
	if i := bytes.LastIndex(html, []byte("</body>")); i >= 0 {
		html = append(html[:i:i], append(script, html[i:]...)...)
	} else {
		html = append(html, script...)
	}

	_, err = w.Write(html)
	return err
}

func insertAfterBodyOpen(html, fragment []byte) []byte {
	i := bytes.Index(html, []byte("<body"))
	if i < 0 {
		return append(fragment[:len(fragment):len(fragment)], html...)
	}
	end := bytes.IndexByte(html[i:], '>')
	if end < 0 {
		return append(html, fragment...)
	}
	at := i + end + 1

	out := make([]byte, 0, len(html)+len(fragment))
	out = append(out, html[:at]...)
	out = append(out, fragment...)
	return append(out, html[at:]...)
}

// StarMap plots RA against Dec, coloured and sized by apparent magnitude
func StarMap(view *types.SkyView) *charts.Scatter {
	lo, hi := magnitudeRange(view.Stars)

	chart := charts.NewScatter()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       "Exosky",
			ChartID:         starMapID,
			Theme:           theme,
			Width:           "1200px",
			Height:          "800px",
			BackgroundColor: "black",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Night sky from %s", view.Planet.Name),
			Subtitle: fmt.Sprintf("%d stars brighter than magnitude %g", len(view.Stars), view.MagnitudeLimit),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Right ascension (deg)", Type: "value", Min: 0, Max: 360}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Declination (deg)", Type: "value", Min: -90, Max: 90}),
		charts.WithVisualMapOpts(viridisVisualMap(lo, hi)),
	)

	data := make([]opts.ScatterData, len(view.Stars))
	for i, s := range view.Stars {
		data[i] = opts.ScatterData{
			Name:       s.SourceID,
			Value:      []interface{}{s.RA, s.Dec, s.ApparentMagnitude},
			SymbolSize: SymbolSize(s.ApparentMagnitude),
		}
	}
	chart.AddSeries("Apparent magnitude", data)
	return chart
}

// Distribution3D plots the visible stars in (RA, Dec, magnitude) space
func Distribution3D(view *types.SkyView) *charts.Scatter3D {
	lo, hi := magnitudeRange(view.Stars)

	chart := charts.NewScatter3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           theme,
			Width:           "1200px",
			Height:          "700px",
			BackgroundColor: "black",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("3D distribution of stars visible from %s", view.Planet.Name),
		}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "Right ascension"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Declination"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Apparent magnitude"}),
		charts.WithVisualMapOpts(viridisVisualMap(lo, hi)),
	)

	data := make([]opts.Chart3DData, len(view.Stars))
	for i, s := range view.Stars {
		data[i] = opts.Chart3DData{
			Name:  s.SourceID,
			Value: []interface{}{s.RA, s.Dec, s.Magnitude},
		}
	}
	chart.AddSeries("Stars", data)
	return chart
}

// MagnitudeHistogram plots the histogram bins of a view
func MagnitudeHistogram(view *types.SkyView) *charts.Bar {
	chart := charts.NewBar()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  theme,
			Width:  "1200px",
			Height: "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Magnitude distribution of stars visible from %s", view.Planet.Name),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Apparent magnitude"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Number of stars"}),
	)

	labels := make([]string, len(view.Histogram))
	data := make([]opts.BarData, len(view.Histogram))
	for i, b := range view.Histogram {
		labels[i] = fmt.Sprintf("%.2f", (b.Low+b.High)/2)
		data[i] = opts.BarData{
			Name:      fmt.Sprintf("[%.2f, %.2f)", b.Low, b.High),
			Value:     b.Count,
			ItemStyle: &opts.ItemStyle{Color: HistogramColor},
		}
	}
	chart.SetXAxis(labels).AddSeries("Stars", data)
	return chart
}

// BrightnessComparison plots observed against apparent magnitude with the
// identity diagonal for reference
func BrightnessComparison(view *types.SkyView) *charts.Scatter {
	lo, hi := magnitudeRange(view.Stars)

	chart := charts.NewScatter()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  theme,
			Width:  "1200px",
			Height: "600px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Real vs apparent brightness"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Real magnitude", Type: "value", Min: lo, Max: hi}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Apparent magnitude", Type: "value", Min: lo, Max: hi}),
		charts.WithVisualMapOpts(viridisVisualMap(lo, hi)),
	)

	data := make([]opts.ScatterData, len(view.Stars))
	for i, s := range view.Stars {
		data[i] = opts.ScatterData{
			Name:  s.SourceID,
			Value: []interface{}{s.Magnitude, s.ApparentMagnitude, s.Magnitude},
		}
	}
	chart.AddSeries("Stars", data)

	diagonal := charts.NewLine()
	diagonal.AddSeries("Identity", []opts.LineData{
		{Value: []interface{}{lo, lo}},
		{Value: []interface{}{hi, hi}},
	})
	chart.Overlap(diagonal)
	return chart
}

func viridisVisualMap(lo, hi float64) opts.VisualMap {
	return opts.VisualMap{
		Min:     float32(lo),
		Max:     float32(hi),
		InRange: &opts.VisualMapInRange{Color: viridisHex},
	}
}
