// Command stride-report renders stored sessions as GeoJSON, HTML charts and
// PNG plots, and prints daily step totals.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/banshee-data/stride.report/internal/db"
	"github.com/banshee-data/stride.report/internal/export"
	"github.com/banshee-data/stride.report/internal/geo"
	"github.com/banshee-data/stride.report/internal/report"
	"github.com/banshee-data/stride.report/internal/security"
	"github.com/banshee-data/stride.report/internal/units"
	"github.com/banshee-data/stride.report/internal/version"
)

var (
	dbPath      = flag.String("db", "stride.db", "Path to the sqlite session store")
	sessionID   = flag.String("session", "", "Session to render")
	geojsonOut  = flag.String("geojson", "", "Write the session path as GeoJSON to this file")
	points      = flag.Bool("points", false, "Include one GeoJSON point per fix")
	htmlOut     = flag.String("html", "", "Write session charts, or daily totals without -session, as HTML")
	pngOut      = flag.String("png", "", "Write the session speed plot as PNG")
	outDir      = flag.String("out-dir", "", "Write <session>.geojson, .html and .png into this directory")
	days        = flag.Int("days", 7, "Days covered by the listing and daily totals")
	speedUnits  = flag.String("units", units.KMPH, "Speed units for printed summaries")
	distUnits   = flag.String("distance-units", units.KM, "Distance units for printed summaries")
	window      = flag.Int("window", geo.DefaultSpeedWindow, "Speed window in fixes")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("stride-report"))
		return
	}
	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid units %q", *speedUnits)
	}
	if !units.IsValidDistance(*distUnits) {
		log.Fatalf("invalid distance units %q", *distUnits)
	}

	store, err := db.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if *sessionID != "" {
		err = renderSession(ctx, store, os.Stdout)
	} else {
		err = renderPeriod(ctx, store, os.Stdout, time.Now())
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

func renderSession(ctx context.Context, store *db.DB, w io.Writer) error {
	s, err := store.GetSession(ctx, *sessionID)
	if err != nil {
		return err
	}

	if *outDir != "" {
		if err := defaultOutputs(*outDir, s.ID); err != nil {
			return err
		}
	}

	st := report.Describe(report.Series(s.Path, *window))
	fmt.Fprintf(w, "%s  %s  %s  %s  %d steps  %d kcal  avg %s  p90 %s\n",
		s.ID, s.StartTime.Local().Format(time.DateTime), s.Duration().Round(time.Second),
		units.FormatDistance(s.TotalDistanceKm, *distUnits), s.TotalSteps, s.TotalCalories,
		units.FormatSpeed(s.AverageSpeedKmh, *speedUnits), units.FormatSpeed(st.P90, *speedUnits))

	if *geojsonOut != "" {
		if err := writeFile(*geojsonOut, func(f io.Writer) error {
			return export.Write(f, export.Collection(s.ID, s.Summary, *points))
		}); err != nil {
			return err
		}
	}
	if *htmlOut != "" {
		if err := writeFile(*htmlOut, func(f io.Writer) error {
			return report.RenderHTML(f, s.ID, s.Summary, report.HTMLOptions{SpeedWindow: *window})
		}); err != nil {
			return err
		}
	}
	if *pngOut != "" {
		if err := report.SavePlot(*pngOut, s.Summary, *window); err != nil {
			return err
		}
	}
	return nil
}

func renderPeriod(ctx context.Context, store *db.DB, w io.Writer, now time.Time) error {
	stats, err := store.StatsForLastDays(ctx, now, *days, time.Local)
	if err != nil {
		return err
	}
	sessions, err := store.ListSessions(ctx, stats.From, stats.To)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "%s  %s  %s  %d steps  %d kcal\n", s.ID, s.StartTime.Local().Format(time.DateTime),
			units.FormatDistance(s.TotalDistanceKm, *distUnits), s.TotalSteps, s.TotalCalories)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	if *htmlOut != "" {
		totals, err := store.DailyTotals(ctx, stats.From, stats.To, time.Local)
		if err != nil {
			return err
		}
		return writeFile(*htmlOut, func(f io.Writer) error {
			return report.RenderDailyHTML(f, totals, report.HTMLOptions{})
		})
	}
	return nil
}

// defaultOutputs fills the unset output flags with files in dir named
// after the session.
func defaultOutputs(dir, id string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, out := range []struct {
		flag *string
		ext  string
	}{
		{geojsonOut, ".geojson"},
		{htmlOut, ".html"},
		{pngOut, ".png"},
	} {
		if *out.flag != "" {
			continue
		}
		p, err := security.OutputPath(dir, id, out.ext)
		if err != nil {
			return err
		}
		*out.flag = p
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
