// Package export renders stored sessions as GeoJSON.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/banshee-data/stride.report/internal/geo"
	"github.com/banshee-data/stride.report/internal/session"
)

// LineString converts a path to an orb line. Points are lon/lat.
func LineString(path []geo.Fix) orb.LineString {
	ls := make(orb.LineString, 0, len(path))
	for _, f := range path {
		ls = append(ls, orb.Point{f.Longitude, f.Latitude})
	}
	return ls
}

// SessionFeature is the session path as a LineString feature carrying the
// summary totals as properties.
func SessionFeature(id string, s session.Summary) *geojson.Feature {
	ls := LineString(s.Path)
	f := geojson.NewFeature(ls)
	if id != "" {
		f.ID = id
	}
	if len(ls) > 0 {
		f.BBox = geojson.NewBBox(ls.Bound())
	}
	f.Properties["start_time"] = s.StartTime.UTC().Format(time.RFC3339Nano)
	f.Properties["end_time"] = s.EndTime.UTC().Format(time.RFC3339Nano)
	f.Properties["duration_s"] = s.Duration().Seconds()
	f.Properties["total_distance_km"] = s.TotalDistanceKm
	f.Properties["total_steps"] = s.TotalSteps
	f.Properties["total_calories"] = s.TotalCalories
	f.Properties["average_speed_kmh"] = s.AverageSpeedKmh
	f.Properties["max_speed_kmh"] = s.MaxSpeedKmh
	if s.MaxReportedSpeedKmh > 0 {
		f.Properties["max_reported_speed_kmh"] = s.MaxReportedSpeedKmh
	}
	f.Properties["point_count"] = len(s.Path)
	return f
}

// PointFeature is a single fix with its time and accuracy.
func PointFeature(fix geo.Fix) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{fix.Longitude, fix.Latitude})
	f.Properties["time"] = fix.Time.UTC().Format(time.RFC3339Nano)
	f.Properties["accuracy_m"] = fix.AccuracyMeters
	if fix.SpeedMps != nil {
		f.Properties["speed_mps"] = *fix.SpeedMps
	}
	if fix.Altitude != nil {
		f.Properties["altitude_m"] = *fix.Altitude
	}
	return f
}

// Collection holds the session line and, with points set, one feature per
// fix after it.
func Collection(id string, s session.Summary, points bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	line := SessionFeature(id, s)
	fc.Append(line)
	fc.BBox = line.BBox
	if points {
		for _, fix := range s.Path {
			fc.Append(PointFeature(fix))
		}
	}
	return fc
}

// Write encodes the collection to w.
func Write(w io.Writer, fc *geojson.FeatureCollection) error {
	b, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode geojson: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("failed to write geojson: %w", err)
	}
	return nil
}
