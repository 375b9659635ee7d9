package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/stride.report/internal/db"
	"github.com/banshee-data/stride.report/internal/session"
)

// HTMLOptions tunes RenderHTML. A zero value uses the go-echarts CDN.
type HTMLOptions struct {
	AssetsHost  string
	SpeedWindow int
}

func (o HTMLOptions) init(title string) opts.Initialization {
	return opts.Initialization{PageTitle: title, Width: "100%", Height: "480px", AssetsHost: o.AssetsHost}
}

// RenderHTML writes a page with the speed and distance charts of one session.
func RenderHTML(w io.Writer, id string, s session.Summary, o HTMLOptions) error {
	series := Series(s.Path, o.SpeedWindow)
	st := Describe(series)

	x := make([]string, len(series))
	speed := make([]opts.LineData, len(series))
	distance := make([]opts.LineData, len(series))
	for i, p := range series {
		x[i] = fmt.Sprintf("%.0f", p.Elapsed)
		speed[i] = opts.LineData{Value: p.SpeedKmh}
		distance[i] = opts.LineData{Value: p.DistanceKm}
	}

	subtitle := fmt.Sprintf("%s  %.3f km  %d steps  %d kcal  avg %.2f km/h  p90 %.2f km/h",
		s.StartTime.Format(time.RFC3339), s.TotalDistanceKm, s.TotalSteps, s.TotalCalories, s.AverageSpeedKmh, st.P90)

	speedChart := charts.NewLine()
	speedChart.SetGlobalOptions(
		charts.WithInitializationOpts(o.init("Session "+id)),
		charts.WithTitleOpts(opts.Title{Title: "Speed", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Elapsed (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "km/h", NameLocation: "middle", NameGap: 30}),
	)
	speedChart.SetXAxis(x).AddSeries("windowed speed", speed, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	distanceChart := charts.NewLine()
	distanceChart.SetGlobalOptions(
		charts.WithInitializationOpts(o.init("Session "+id)),
		charts.WithTitleOpts(opts.Title{Title: "Distance"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Elapsed (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "km", NameLocation: "middle", NameGap: 30}),
	)
	distanceChart.SetXAxis(x).AddSeries("distance", distance)

	page := components.NewPage()
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	page.AddCharts(speedChart, distanceChart)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render session %s: %w", id, err)
	}
	return nil
}

// RenderDailyHTML writes a bar chart of steps per day.
func RenderDailyHTML(w io.Writer, days []db.DailyTotal, o HTMLOptions) error {
	p := db.SummarizeDays(days)

	x := make([]string, len(days))
	steps := make([]opts.BarData, len(days))
	for i, d := range days {
		x[i] = d.Date
		steps[i] = opts.BarData{Value: d.Steps}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(o.init("Daily steps")),
		charts.WithTitleOpts(opts.Title{
			Title:    "Daily steps",
			Subtitle: fmt.Sprintf("%d days  total %d  avg %d  max %d  %d kcal", p.DaysTracked, p.TotalSteps, p.AverageSteps, p.MaxSteps, p.TotalCalories),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("steps", steps,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render daily totals: %w", err)
	}
	return nil
}
