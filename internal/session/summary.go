package session

import (
	"context"
	"time"

	"github.com/banshee-data/stride.report/internal/energy"
	"github.com/banshee-data/stride.report/internal/geo"
)

// Summary is the record of a completed session.
type Summary struct {
	StartTime           time.Time          `json:"start_time"`
	EndTime             time.Time          `json:"end_time"`
	TotalDistanceKm     float64            `json:"total_distance_km"`
	TotalSteps          uint32             `json:"total_steps"`
	TotalCalories       uint32             `json:"total_calories"`
	AverageSpeedKmh     float64            `json:"average_speed_kmh"`
	MaxSpeedKmh         float64            `json:"max_speed_kmh"`
	MaxReportedSpeedKmh float64            `json:"max_reported_speed_kmh,omitempty"`
	Metrics             energy.BodyMetrics `json:"metrics"`
	Path                []geo.Fix          `json:"path"`
}

// Duration is the wall time of the session.
func (s Summary) Duration() time.Duration { return s.EndTime.Sub(s.StartTime) }

// Result is what Stop returns. Summary is nil for an empty session.
type Result struct {
	Summary   *Summary
	SessionID string
}

// Persister stores completed sessions. Save is called exactly once per
// non-empty session, after it has stopped.
type Persister interface {
	Save(ctx context.Context, s Summary) (string, error)
}

// MetricsProvider supplies the body metrics of the person walking. It is
// consulted once per session, at start.
type MetricsProvider interface {
	CurrentMetrics(ctx context.Context) (energy.BodyMetrics, error)
}

// StaticMetrics is a MetricsProvider with fixed values.
type StaticMetrics energy.BodyMetrics

func (m StaticMetrics) CurrentMetrics(context.Context) (energy.BodyMetrics, error) {
	return energy.BodyMetrics(m), nil
}

// Summarize builds the Summary of a stopped session. The second return is
// false when no fix was accepted or the session was cancelled.
//
// Average speed is distance over the time between the first and last
// accepted fix, falling back to the session wall time. Calories use the
// MET of that average over the same duration.
func Summarize(s State) (Summary, bool) {
	if s.Cancelled || len(s.Fixes) == 0 {
		return Summary{}, false
	}
	first, last := s.Fixes[0], s.Fixes[len(s.Fixes)-1]

	sum := Summary{
		StartTime:           s.StartTime,
		EndTime:             s.EndTime,
		TotalDistanceKm:     s.DistanceKm,
		TotalSteps:          energy.StepsFromDistance(s.DistanceKm, s.Metrics),
		MaxSpeedKmh:         s.MaxSpeedKmh,
		MaxReportedSpeedKmh: s.MaxReportedSpeedKmh,
		Metrics:             s.Metrics,
		Path:                append([]geo.Fix(nil), s.Fixes...),
	}

	elapsed := last.Time.Sub(first.Time)
	if elapsed <= 0 {
		elapsed = s.EndTime.Sub(s.StartTime)
	}
	if elapsed > 0 && s.DistanceKm > 0 {
		sum.AverageSpeedKmh = s.DistanceKm / elapsed.Hours()
	}

	if sum.AverageSpeedKmh > 0 {
		avg := sum.AverageSpeedKmh
		sum.TotalCalories = energy.Calories(s.Metrics.WeightKg, energy.MetForSpeed(&avg), elapsed.Minutes())
	} else {
		_, sum.TotalCalories, _ = energy.ForDistance(s.DistanceKm, nil, s.Metrics)
	}
	if s.Metrics.Validate() != nil {
		sum.TotalCalories = 0
	}
	return sum, true
}
