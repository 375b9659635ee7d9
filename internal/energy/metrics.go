// Package energy maps distance, speed and body metrics to step counts, MET
// values and calorie estimates. Every function here is pure.
package energy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBodyMetrics is returned by Validate for non-positive height or
// weight. Estimators never return it; they yield zero results instead.
var ErrInvalidBodyMetrics = errors.New("invalid body metrics")

// Gender selects the stride and step constants.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
	Other  Gender = "other"
)

// ParseGender maps a free-form string to a Gender. Unknown values are Other.
func ParseGender(s string) Gender {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case Male, "m":
		return Male
	case Female, "f":
		return Female
	default:
		return Other
	}
}

// BodyMetrics is read once at session start from the profile provider.
type BodyMetrics struct {
	HeightCm float64 `json:"height_cm"`
	WeightKg float64 `json:"weight_kg"`
	Gender   Gender  `json:"gender"`
}

// Validate checks that height and weight are usable.
func (m BodyMetrics) Validate() error {
	if m.HeightCm <= 0 {
		return fmt.Errorf("%w: height %.1f cm must be positive", ErrInvalidBodyMetrics, m.HeightCm)
	}
	if m.WeightKg <= 0 {
		return fmt.Errorf("%w: weight %.1f kg must be positive", ErrInvalidBodyMetrics, m.WeightKg)
	}
	return nil
}

func (m BodyMetrics) valid() bool { return m.Validate() == nil }

// BMI returns weight / height² (height in meters).
func BMI(weightKg, heightCm float64) float64 {
	h := heightCm / 100
	return weightKg / (h * h)
}

// WeightAdjustment scales stride by body mass index band.
func WeightAdjustment(weightKg, heightCm float64) float64 {
	bmi := BMI(weightKg, heightCm)
	switch {
	case bmi < 18.5:
		return 1.05
	case bmi <= 24.9:
		return 1.0
	case bmi <= 29.9:
		return 0.95
	default:
		return 0.90
	}
}

// StrideConstant is the fraction of height covered by one step.
func StrideConstant(g Gender) float64 {
	switch g {
	case Male:
		return 0.415
	case Female:
		return 0.413
	default:
		return 0.414
	}
}

// StrideLengthKm returns the per-step distance derived from height.
func StrideLengthKm(m BodyMetrics) float64 {
	if m.HeightCm <= 0 {
		return 0
	}
	return m.HeightCm / 100 * StrideConstant(m.Gender) / 1000
}

func stepConstant(g Gender) float64 {
	switch g {
	case Male:
		return 0.43
	case Female:
		return 0.41
	default:
		return 0.42
	}
}
