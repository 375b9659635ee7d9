package report

import (
	"bytes"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/stride.report/internal/db"
	"github.com/banshee-data/stride.report/internal/geo"
	"github.com/banshee-data/stride.report/internal/session"
	"github.com/banshee-data/stride.report/internal/testutil"
)

func walkSummary() session.Summary {
	path := testutil.Walk(7, 90, 83.0/6, 10*time.Second, 5)
	return session.Summary{
		StartTime:       testutil.Epoch,
		EndTime:         testutil.Epoch.Add(90 * time.Second),
		TotalDistanceKm: geo.PathDistanceKm(path),
		TotalSteps:      110,
		TotalCalories:   7,
		AverageSpeedKmh: 4.98,
		MaxSpeedKmh:     4.98,
		Path:            path,
	}
}

func TestSeries(t *testing.T) {
	s := walkSummary()
	series := Series(s.Path, geo.DefaultSpeedWindow)
	require.Len(t, series, 6)

	last := series[len(series)-1]
	assert.Equal(t, 60.0, last.Elapsed)
	assert.InDelta(t, s.TotalDistanceKm, last.DistanceKm, 1e-12)
	for _, p := range series {
		assert.InDelta(t, 4.98, p.SpeedKmh, 0.01)
	}

	assert.Nil(t, Series(s.Path[:1], 5))
}

func TestDescribe(t *testing.T) {
	series := []SpeedPoint{{SpeedKmh: 3}, {SpeedKmh: 5}, {SpeedKmh: 4}, {SpeedKmh: 6}}
	st := Describe(series)
	assert.Equal(t, 4, st.Samples)
	assert.InDelta(t, 4.5, st.Mean, 1e-12)
	assert.Equal(t, 3.0, st.Min)
	assert.Equal(t, 6.0, st.Max)
	assert.Equal(t, 4.0, st.Median)
	assert.Equal(t, 6.0, st.P90)
	assert.Greater(t, st.StdDev, 0.0)

	one := Describe([]SpeedPoint{{SpeedKmh: 5}})
	assert.Equal(t, 5.0, one.Mean)
	assert.Zero(t, one.StdDev)

	assert.Equal(t, SpeedStats{}, Describe(nil))
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, "abc", walkSummary(), HTMLOptions{SpeedWindow: 5}))
	out := buf.String()
	assert.True(t, strings.Contains(out, "<html"), "expected an html page")
	assert.Contains(t, out, "windowed speed")
	assert.Contains(t, out, "110 steps")
}

func TestRenderDailyHTML(t *testing.T) {
	var buf bytes.Buffer
	days := []db.DailyTotal{
		{Date: "2026-03-13", Sessions: 1, Steps: 4000, Calories: 160},
		{Date: "2026-03-14", Sessions: 2, Steps: 6000, Calories: 240},
	}
	require.NoError(t, RenderDailyHTML(&buf, days, HTMLOptions{}))
	assert.Contains(t, buf.String(), "2026-03-14")
	assert.Contains(t, buf.String(), "avg 5000")
}

func TestWritePlot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlot(&buf, walkSummary(), 5))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())

	// A single fix still renders an empty plot.
	s := walkSummary()
	s.Path = s.Path[:1]
	buf.Reset()
	assert.NoError(t, WritePlot(&buf, s, 5))
}

func TestSavePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speed.png")
	require.NoError(t, SavePlot(path, walkSummary(), 5))
	assert.FileExists(t, path)

	assert.Error(t, SavePlot(filepath.Join(t.TempDir(), "missing", "speed.png"), walkSummary(), 5))
}
