package render

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/oxygene76/exosky/internal/types"
)

// StaticOptions sets the physical size and resolution of the static image
type StaticOptions struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// DefaultStaticOptions returns a 20x10 inch figure at 300 DPI
func DefaultStaticOptions() StaticOptions {
	return StaticOptions{
		Width:  20 * vg.Inch,
		Height: 10 * vg.Inch,
		DPI:    300,
	}
}

var (
	white     = color.White
	black     = color.Black
	gridColor = color.NRGBA{R: 255, G: 255, B: 255, A: 77}
)

// StaticImage draws the star map of a view on a black canvas: white axes and
// labels, a dotted grid, and a viridis colour bar for apparent magnitude
func StaticImage(view *types.SkyView, opt StaticOptions) (*vgimg.Canvas, error) {
	if opt.Width <= 0 || opt.Height <= 0 || opt.DPI <= 0 {
		return nil, fmt.Errorf("invalid image size %vx%v at %d dpi", opt.Width, opt.Height, opt.DPI)
	}

	lo, hi := magnitudeRange(view.Stars)
	cmap := NewViridis(lo, hi)

	chart, err := starMapPlot(view, cmap)
	if err != nil {
		return nil, err
	}
	bar := colorBarPlot(cmap)

	canvas := vgimg.NewWith(
		vgimg.UseWH(opt.Width, opt.Height),
		vgimg.UseDPI(opt.DPI),
		vgimg.UseBackgroundColor(black),
	)
	dc := draw.New(canvas)

	barWidth := max(opt.Width/10, vg.Inch)
	chart.Draw(draw.Crop(dc, 0, -barWidth, 0, 0))
	bar.Draw(draw.Crop(dc, opt.Width-barWidth, 0, opt.Height/20, -opt.Height/20))

	return canvas, nil
}

// WritePNG renders the static image of a view and encodes it as PNG
func WritePNG(w io.Writer, view *types.SkyView, opt StaticOptions) error {
	canvas, err := StaticImage(view, opt)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func starMapPlot(view *types.SkyView, cmap *Viridis) (*plot.Plot, error) {
	p := plot.New()
	p.BackgroundColor = black
	p.Title.Text = fmt.Sprintf("Night sky from %s", view.Planet.Name)
	p.X.Label.Text = "Right ascension"
	p.Y.Label.Text = "Declination"
	styleAxes(p)

	p.X.Min, p.X.Max = 0, 360
	p.Y.Min, p.Y.Max = -90, 90

	grid := plotter.NewGrid()
	for _, ls := range []*draw.LineStyle{&grid.Vertical, &grid.Horizontal} {
		ls.Color = gridColor
		ls.Dashes = []vg.Length{vg.Points(1), vg.Points(3)}
	}
	p.Add(grid)

	if len(view.Stars) == 0 {
		return p, nil
	}

	xys := make(plotter.XYs, len(view.Stars))
	for i, s := range view.Stars {
		xys[i].X = s.RA
		xys[i].Y = s.Dec
	}

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to build star scatter: %w", err)
	}
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		m := view.Stars[i].ApparentMagnitude
		return draw.GlyphStyle{
			Color:  cmap.Color(m),
			Radius: vg.Points(GlyphRadius(m)),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(scatter)

	return p, nil
}

func colorBarPlot(cmap *Viridis) *plot.Plot {
	p := plot.New()
	p.BackgroundColor = black
	p.Y.Label.Text = "Apparent magnitude"
	styleAxes(p)
	p.HideX()

	p.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true, Colors: 256})
	return p
}

func styleAxes(p *plot.Plot) {
	p.Title.TextStyle.Color = white
	for _, axis := range []*plot.Axis{&p.X, &p.Y} {
		axis.Color = white
		axis.Label.TextStyle.Color = white
		axis.Tick.Color = white
		axis.Tick.Label.Color = white
	}
}
