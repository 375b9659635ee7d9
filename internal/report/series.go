// Package report turns a stored session into speed statistics, HTML charts
// and PNG plots.
package report

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/stride.report/internal/geo"
)

// SpeedPoint is the state of a session at one accepted fix.
type SpeedPoint struct {
	At         time.Time `json:"at"`
	Elapsed    float64   `json:"elapsed_s"`
	DistanceKm float64   `json:"distance_km"`
	SpeedKmh   float64   `json:"speed_kmh"`
}

// Series replays the path with the same windowed speed the live session
// uses. The first fix has no speed and is omitted.
func Series(path []geo.Fix, window int) []SpeedPoint {
	if len(path) < 2 {
		return nil
	}
	out := make([]SpeedPoint, 0, len(path)-1)
	var acc geo.Accumulator
	acc.Add(path[0])
	for i := 1; i < len(path); i++ {
		acc.Add(path[i])
		speed, ok := geo.WindowedSpeedKmh(path[:i+1], window)
		if !ok {
			continue
		}
		out = append(out, SpeedPoint{
			At:         path[i].Time,
			Elapsed:    path[i].Time.Sub(path[0].Time).Seconds(),
			DistanceKm: acc.TotalKm(),
			SpeedKmh:   speed,
		})
	}
	return out
}

// SpeedStats describes the distribution of windowed speeds in km/h.
type SpeedStats struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Median  float64 `json:"median"`
	P90     float64 `json:"p90"`
	Max     float64 `json:"max"`
}

// Describe computes SpeedStats over a series. An empty series yields zeros.
func Describe(series []SpeedPoint) SpeedStats {
	if len(series) == 0 {
		return SpeedStats{}
	}
	speeds := make([]float64, len(series))
	for i, p := range series {
		speeds[i] = p.SpeedKmh
	}
	sort.Float64s(speeds)

	st := SpeedStats{
		Samples: len(speeds),
		Min:     floats.Min(speeds),
		Max:     floats.Max(speeds),
		Median:  stat.Quantile(0.5, stat.Empirical, speeds, nil),
		P90:     stat.Quantile(0.9, stat.Empirical, speeds, nil),
	}
	if len(speeds) > 1 {
		st.Mean, st.StdDev = stat.MeanStdDev(speeds, nil)
	} else {
		st.Mean = speeds[0]
	}
	return st
}
