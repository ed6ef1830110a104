// Package render draws the run's figures with gonum/plot: a three-panel
// overview of the raw aligned series and a projection figure showing the
// level trend extrapolated to zero.
package render

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/couchcryptid/lake-balance/internal/domain"
)

var (
	red    = color.RGBA{R: 0xd6, G: 0x2a, B: 0x2a, A: 0xff}
	blue   = color.RGBA{R: 0x1f, G: 0x4e, B: 0xd8, A: 0xff}
	yellow = color.RGBA{R: 0xd4, G: 0xa0, B: 0x17, A: 0xff}
	green  = color.RGBA{R: 0x2e, G: 0x8b, B: 0x3a, A: 0xff}
	cyan   = color.RGBA{R: 0x19, G: 0xa5, B: 0xb8, A: 0xff}
	gray   = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
)

// dischargeColors cycles for however many tributaries the table carries.
var dischargeColors = []color.Color{yellow, green, cyan}

// Overview writes a PNG of three stacked panels sharing the date axis:
// precipitation, lake level, and all discharge series together.
func Overview(t domain.Table, title, path, precipCol, levelCol string, dischargeCols []string) error {
	precipPanel := newPanel(title, precipCol)
	if err := addSeries(precipPanel, t, precipCol, red, "Annual Precipitation"); err != nil {
		return err
	}

	levelPanel := newPanel(title, levelCol)
	if err := addSeries(levelPanel, t, levelCol, blue, "Water Level"); err != nil {
		return err
	}

	dischargePanel := newPanel(title, "Discharge (cfs)")
	for i, col := range dischargeCols {
		c := dischargeColors[i%len(dischargeColors)]
		if err := addSeries(dischargePanel, t, col, c, col); err != nil {
			return err
		}
	}

	return writeStacked(path, precipPanel, levelPanel, dischargePanel)
}

// Projection writes a PNG of the lake level with its fitted trend and,
// unless the projection never dries, a dashed extrapolation from the last
// observation down to zero at the dry-up date.
func Projection(t domain.Table, a domain.Assessment, title, path, levelCol string) error {
	p := newPanel(title, levelCol)
	if err := addSeries(p, t, levelCol, blue, "Water Level"); err != nil {
		return err
	}

	values, err := t.Column(levelCol)
	if err != nil {
		return err
	}
	if trend, err := domain.FitTrend(values); err == nil {
		dates := t.Dates()
		fit := make(plotter.XYs, len(dates))
		for i, d := range dates {
			fit[i] = plotter.XY{X: float64(d.Unix()), Y: trend.At(i)}
		}
		line, err := plotter.NewLine(fit)
		if err != nil {
			return fmt.Errorf("projection figure: %w", err)
		}
		line.Color = gray
		p.Add(line)
		p.Legend.Add("Linear Trend", line)
	}

	if !a.Projection.NeverDries {
		drop := plotter.XYs{
			{X: float64(a.LastDate.Unix()), Y: a.LastLevel},
			{X: float64(a.Projection.Date.Unix()), Y: 0},
		}
		line, err := plotter.NewLine(drop)
		if err != nil {
			return fmt.Errorf("projection figure: %w", err)
		}
		line.Color = red
		line.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
		p.Add(line)
		p.Legend.Add("Extrapolation", line)
	}

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("projection figure: %w", err)
	}
	return nil
}

func newPanel(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006", Time: plot.UTCUnixTime}
	return p
}

func addSeries(p *plot.Plot, t domain.Table, col string, c color.Color, label string) error {
	values, err := t.Column(col)
	if err != nil {
		return err
	}
	dates := t.Dates()

	xys := make(plotter.XYs, len(dates))
	for i, d := range dates {
		xys[i] = plotter.XY{X: float64(d.Unix()), Y: values[i]}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("series %q: %w", col, err)
	}
	line.Color = c
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

// writeStacked lays panels out in one column and writes the PNG.
func writeStacked(path string, panels ...*plot.Plot) error {
	rows := make([][]*plot.Plot, len(panels))
	for i, p := range panels {
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.New(10*vg.Inch, vg.Length(len(panels))*5.3*vg.Inch)
	dc := draw.New(img)
	canvases := plot.Align(rows, draw.Tiles{Rows: len(panels), Cols: 1, PadY: vg.Points(12)}, dc)
	for i, p := range panels {
		p.Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("overview figure: %w", err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("overview figure: %w", err)
	}
	return f.Close()
}
