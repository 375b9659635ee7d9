package geo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/stride.report/internal/geo"
	"github.com/banshee-data/stride.report/internal/testutil"
)

func TestHaversineSymmetric(t *testing.T) {
	t.Parallel()

	pairs := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
	}{
		{"london to paris", 51.5074, -0.1278, 48.8566, 2.3522},
		{"across the antimeridian", -16.5, 179.9, -16.4, -179.9},
		{"near the pole", 89.9, 0, 89.9, 180},
		{"equator short hop", 0, 0, 0, 0.0001},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			ab := geo.Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			ba := geo.Haversine(tt.lat2, tt.lon2, tt.lat1, tt.lon1)
			assert.InDelta(t, ab, ba, 1e-12)
			assert.Equal(t, 0.0, geo.Haversine(tt.lat1, tt.lon1, tt.lat1, tt.lon1))
		})
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	t.Parallel()

	// London to Paris on a 6371 km sphere.
	got := geo.Haversine(51.5074, -0.1278, 48.8566, 2.3522)
	assert.InDelta(t, 343.56, got, 0.1)
}

func TestAccumulatorMatchesRecomputation(t *testing.T) {
	t.Parallel()

	fixes := testutil.Walk(200, 30, 7.5, 3*time.Second, 4)

	var acc geo.Accumulator
	prev := 0.0
	for i, f := range fixes {
		acc.Add(f)
		total := acc.TotalKm()
		require.GreaterOrEqual(t, total, prev, "distance decreased at fix %d", i)
		prev = total

		if i%25 == 0 {
			assert.InDelta(t, geo.PathDistanceKm(fixes[:i+1]), total, 1e-9)
		}
	}
	assert.InDelta(t, geo.PathDistanceKm(fixes), acc.TotalKm(), 1e-9)
	assert.Equal(t, len(fixes), acc.Count())

	last, ok := acc.Last()
	require.True(t, ok)
	assert.Equal(t, fixes[len(fixes)-1], last)
}

func TestAccumulatorEmpty(t *testing.T) {
	t.Parallel()

	var acc geo.Accumulator
	_, ok := acc.Last()
	assert.False(t, ok)
	assert.Zero(t, acc.TotalKm())
	assert.Zero(t, acc.Add(testutil.Fix(1, 1, testutil.Epoch, 1)), "first leg has no length")
}

func TestWindowedSpeedStraightWalk(t *testing.T) {
	t.Parallel()

	fixes := testutil.Walk(2, 0, 83, time.Minute, 5)
	speed, ok := geo.WindowedSpeedKmh(fixes, geo.DefaultSpeedWindow)
	require.True(t, ok)
	assert.InDelta(t, 5.0, speed, 0.1)
}

func TestWindowedSpeedUsesTrailingWindow(t *testing.T) {
	t.Parallel()

	slow := testutil.Walk(6, 90, 10, 10*time.Second, 5) // 3.6 km/h
	last := slow[len(slow)-1]
	fixes := append([]geo.Fix(nil), slow...)
	for i := 1; i <= 4; i++ {
		lat, lon := testutil.Destination(last.Latitude, last.Longitude, 90, float64(i)*20)
		fixes = append(fixes, testutil.Fix(lat, lon, last.Time.Add(time.Duration(i)*10*time.Second), 5))
	}

	speed, ok := geo.WindowedSpeedKmh(fixes, 5)
	require.True(t, ok)
	assert.InDelta(t, 7.2, speed, 1e-6, "only the last five fixes count")

	speed, ok = geo.WindowedSpeedKmh(fixes, 0)
	require.True(t, ok, "non-positive window falls back to the default")
	assert.InDelta(t, 7.2, speed, 1e-6)
}

func TestWindowedSpeedUndefined(t *testing.T) {
	t.Parallel()

	_, ok := geo.WindowedSpeedKmh(nil, 5)
	assert.False(t, ok)

	one := testutil.Walk(1, 0, 10, time.Second, 5)
	_, ok = geo.WindowedSpeedKmh(one, 5)
	assert.False(t, ok)

	sameTime := []geo.Fix{
		testutil.Fix(0, 0, testutil.Epoch, 5),
		testutil.Fix(0, 0.001, testutil.Epoch, 5),
	}
	_, ok = geo.WindowedSpeedKmh(sameTime, 5)
	assert.False(t, ok)
}

func TestReportedSpeedKmh(t *testing.T) {
	t.Parallel()

	f := testutil.Fix(0, 0, testutil.Epoch, 5)
	_, ok := geo.ReportedSpeedKmh(f)
	assert.False(t, ok)

	f.SpeedMps = testutil.Float(1.5)
	kmh, ok := geo.ReportedSpeedKmh(f)
	require.True(t, ok)
	assert.InDelta(t, 5.4, kmh, 1e-9)

	f.SpeedMps = testutil.Float(-1)
	_, ok = geo.ReportedSpeedKmh(f)
	assert.False(t, ok)
}

func TestFixString(t *testing.T) {
	t.Parallel()

	s := testutil.Fix(51.5, -0.12, testutil.Epoch, 4).String()
	assert.Contains(t, s, "51.500000,-0.120000")
}
