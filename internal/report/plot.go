package report

import (
	"fmt"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/stride.report/internal/session"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 4 * vg.Inch
)

func speedPlot(s session.Summary, window int) (*plot.Plot, error) {
	series := Series(s.Path, window)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Speed - %s", s.StartTime.Format("2006-01-02 15:04"))
	p.X.Label.Text = "Elapsed (s)"
	p.Y.Label.Text = "Speed (km/h)"

	if len(series) == 0 {
		return p, nil
	}

	pts := make(plotter.XYs, len(series))
	for i, sp := range series {
		pts[i] = plotter.XY{X: sp.Elapsed, Y: sp.SpeedKmh}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Width = vg.Points(1)
	p.Add(line, plotter.NewGrid())
	p.Legend.Add("windowed", line)

	avg := plotter.NewFunction(func(float64) float64 { return s.AverageSpeedKmh })
	avg.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(avg)
	p.Legend.Add("average", avg)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePlot writes the speed plot of a session as PNG.
func WritePlot(w io.Writer, s session.Summary, window int) error {
	p, err := speedPlot(s, window)
	if err != nil {
		return fmt.Errorf("failed to build plot: %w", err)
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

// SavePlot writes the speed plot of a session to a PNG file.
func SavePlot(path string, s session.Summary, window int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WritePlot(f, s, window); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
