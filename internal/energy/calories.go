package energy

import "math"

const (
	// DefaultMET is used when no speed is known (moderate walk).
	DefaultMET = 3.5
	// DefaultWalkingSpeedKmh is assumed when deriving duration without speed.
	DefaultWalkingSpeedKmh = 4.8
)

// MetForSpeed maps a walking speed to a MET bucket. A nil or non-positive
// speed returns DefaultMET.
func MetForSpeed(speedKmh *float64) float64 {
	if speedKmh == nil || *speedKmh <= 0 {
		return DefaultMET
	}
	switch s := *speedKmh; {
	case s < 3.2:
		return 2.8
	case s < 4.8:
		return 3.5
	default:
		return 5.0
	}
}

// Calories returns duration × MET × 3.5 × weight / 200, rounded.
func Calories(weightKg, met, durationMinutes float64) uint32 {
	if weightKg <= 0 || met <= 0 || durationMinutes <= 0 {
		return 0
	}
	return clampUint32(math.Round(durationMinutes * met * 3.5 * weightKg / 200))
}

// CaloriesFromSteps is the fallback used when no duration is available:
// 0.04 kcal per step for a 70 kg baseline.
func CaloriesFromSteps(steps uint32, weightKg float64) uint32 {
	if weightKg <= 0 {
		return 0
	}
	return clampUint32(math.Round(0.04 * float64(steps) * weightKg / 70))
}

// DurationMinutes derives time on foot from distance and speed, assuming
// DefaultWalkingSpeedKmh when speed is unknown.
func DurationMinutes(distanceKm float64, speedKmh *float64) float64 {
	speed := DefaultWalkingSpeedKmh
	if speedKmh != nil && *speedKmh > 0 {
		speed = *speedKmh
	}
	return distanceKm / speed * 60
}

// Intensity is the pace class used by IntensityCalories.
type Intensity string

const (
	Slow     Intensity = "slow"
	Moderate Intensity = "moderate"
	Fast     Intensity = "fast"
)

// IntensityCalories is the simple weight × distance estimator used by the
// calorie calculator: weight × km × 0.57 scaled by pace.
func IntensityCalories(distanceKm, weightKg float64, intensity Intensity) uint32 {
	if weightKg <= 0 || distanceKm <= 0 {
		return 0
	}
	mul := 1.0
	switch intensity {
	case Slow:
		mul = 0.8
	case Fast:
		mul = 1.3
	}
	return clampUint32(math.Round(weightKg * distanceKm * 0.57 * mul))
}

func clampUint32(v float64) uint32 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(v)
	}
}
