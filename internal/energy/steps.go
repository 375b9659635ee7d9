package energy

import "math"

// StepsPerKm returns 100000 / (height × gender constant × weight adjustment).
// Invalid metrics return 0.
func StepsPerKm(m BodyMetrics) float64 {
	if !m.valid() {
		return 0
	}
	return 100000 / (m.HeightCm * stepConstant(m.Gender) * WeightAdjustment(m.WeightKg, m.HeightCm))
}

// StepsFromDistance estimates the steps needed to cover distanceKm.
func StepsFromDistance(distanceKm float64, m BodyMetrics) uint32 {
	if distanceKm <= 0 {
		return 0
	}
	steps := math.Round(StepsPerKm(m) * distanceKm)
	if steps > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(steps)
}

// DistanceFromSteps is the inverse of StepsFromDistance, rounded to two
// decimal places.
func DistanceFromSteps(steps uint32, m BodyMetrics) float64 {
	perKm := StepsPerKm(m)
	if perKm <= 0 {
		return 0
	}
	return math.Round(float64(steps)/perKm*100) / 100
}
