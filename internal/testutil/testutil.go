// Package testutil provides shared test helpers and position fixtures.
//
// Fixture paths are built on the same 6371 km sphere the estimator uses, so
// a leg generated with Destination measures back to the requested length.
package testutil

import (
	"math"
	"testing"
	"time"

	"github.com/banshee-data/stride.report/internal/geo"
)

// Epoch is the start time used by fixture paths.
var Epoch = time.Date(2026, time.March, 14, 7, 30, 0, 0, time.UTC)

// Origin is a fixed starting position for fixture paths.
const (
	OriginLat = 51.5007
	OriginLon = -0.1246
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Destination returns the point reached by travelling meters from lat/lon
// along the initial bearing (degrees clockwise from north).
func Destination(lat, lon, bearingDeg, meters float64) (float64, float64) {
	const rad = math.Pi / 180
	angular := meters / 1000 / geo.EarthRadiusKm
	brg := bearingDeg * rad
	lat1 := lat * rad
	lon1 := lon * rad

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) + math.Cos(lat1)*math.Sin(angular)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(
		math.Sin(brg)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2))
	return lat2 / rad, lon2 / rad
}

// Fix builds a fix at the given position.
func Fix(lat, lon float64, at time.Time, accuracy float64) geo.Fix {
	return geo.Fix{Latitude: lat, Longitude: lon, Time: at, AccuracyMeters: accuracy}
}

// Walk returns n fixes starting at the origin, each stepMeters further
// along bearing and interval later than the previous one.
func Walk(n int, bearingDeg, stepMeters float64, interval time.Duration, accuracy float64) []geo.Fix {
	fixes := make([]geo.Fix, 0, n)
	lat, lon := OriginLat, OriginLon
	for i := 0; i < n; i++ {
		fixes = append(fixes, Fix(lat, lon, Epoch.Add(time.Duration(i)*interval), accuracy))
		lat, lon = Destination(lat, lon, bearingDeg, stepMeters)
	}
	return fixes
}

// Jitter returns n fixes scattered within radiusMeters of the origin, one
// second apart. The first fix sits exactly on the origin.
func Jitter(n int, radiusMeters, accuracy float64) []geo.Fix {
	fixes := make([]geo.Fix, 0, n)
	for i := 0; i < n; i++ {
		lat, lon := OriginLat, OriginLon
		if i > 0 {
			r := radiusMeters * float64(i%4+1) / 4
			lat, lon = Destination(OriginLat, OriginLon, float64(i*137%360), r)
		}
		fixes = append(fixes, Fix(lat, lon, Epoch.Add(time.Duration(i)*time.Second), accuracy))
	}
	return fixes
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
