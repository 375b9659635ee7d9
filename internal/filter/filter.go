// Package filter decides which raw fixes are trustworthy enough to enter a
// session path.
package filter

import (
	"math"

	"github.com/banshee-data/stride.report/internal/geo"
)

// Defaults for the two thresholds.
const (
	DefaultMaxAccuracyMeters = 20.0
	DefaultMinDisplacementKm = 0.005
)

// Decision records the outcome of Evaluate.
type Decision int

const (
	Accepted Decision = iota
	RejectedAccuracy
	RejectedDisplacement
)

func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case RejectedAccuracy:
		return "low_accuracy"
	case RejectedDisplacement:
		return "stationary"
	default:
		return "unknown"
	}
}

// Filter rejects imprecise fixes and fixes that barely moved from the last
// accepted one. The zero value uses the default thresholds.
type Filter struct {
	// MaxAccuracyMeters rejects fixes whose accuracy radius is at or above it.
	MaxAccuracyMeters float64
	// MinDisplacementKm rejects fixes closer than this to the last accepted fix.
	MinDisplacementKm float64
}

// New returns a Filter with the given thresholds. Non-positive values fall
// back to the defaults.
func New(maxAccuracyMeters, minDisplacementKm float64) Filter {
	return Filter{MaxAccuracyMeters: maxAccuracyMeters, MinDisplacementKm: minDisplacementKm}
}

func (f Filter) maxAccuracy() float64 {
	if f.MaxAccuracyMeters <= 0 {
		return DefaultMaxAccuracyMeters
	}
	return f.MaxAccuracyMeters
}

func (f Filter) minDisplacement() float64 {
	if f.MinDisplacementKm <= 0 {
		return DefaultMinDisplacementKm
	}
	return f.MinDisplacementKm
}

// Evaluate applies the rules in order: accuracy first, then displacement
// from last (when there is one). An unknown (NaN) accuracy is rejected.
func (f Filter) Evaluate(candidate geo.Fix, last *geo.Fix) Decision {
	if math.IsNaN(candidate.AccuracyMeters) || candidate.AccuracyMeters >= f.maxAccuracy() {
		return RejectedAccuracy
	}
	if last != nil && geo.DistanceKm(*last, candidate) < f.minDisplacement() {
		return RejectedDisplacement
	}
	return Accepted
}

// Accept reports whether candidate should be appended after last.
func (f Filter) Accept(candidate geo.Fix, last *geo.Fix) bool {
	return f.Evaluate(candidate, last) == Accepted
}
