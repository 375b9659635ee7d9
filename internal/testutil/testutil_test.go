package testutil

import (
	"math"
	"testing"
	"time"

	"github.com/banshee-data/stride.report/internal/geo"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestDestinationRoundTrip(t *testing.T) {
	t.Parallel()

	for _, meters := range []float64{1, 5, 83, 1000, 25000} {
		lat, lon := Destination(OriginLat, OriginLon, 45, meters)
		got := geo.Haversine(OriginLat, OriginLon, lat, lon) * 1000
		if math.Abs(got-meters) > 1e-6*math.Max(1, meters) {
			t.Errorf("Destination(%v m) measured %v m", meters, got)
		}
	}
}

func TestWalk(t *testing.T) {
	t.Parallel()

	fixes := Walk(4, 90, 10, 5*time.Second, 3)
	if len(fixes) != 4 {
		t.Fatalf("len = %d, want 4", len(fixes))
	}
	if got := geo.PathDistanceKm(fixes); math.Abs(got-0.030) > 1e-9 {
		t.Errorf("path distance = %v km, want 0.030", got)
	}
	if d := fixes[3].Time.Sub(fixes[0].Time); d != 15*time.Second {
		t.Errorf("span = %v, want 15s", d)
	}
}

func TestJitterStaysInsideRadius(t *testing.T) {
	t.Parallel()

	for i, f := range Jitter(10, 3, 5) {
		d := geo.Haversine(OriginLat, OriginLon, f.Latitude, f.Longitude) * 1000
		if d > 3+1e-9 {
			t.Errorf("fix %d is %v m from origin", i, d)
		}
	}
}
