// Package units provides shared constants and conversions for speed and
// distance units used by the tracker and its reports.
package units

import "fmt"

// Speed unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// Distance unit constants
const (
	KM    = "km"
	MI    = "mi"
	Meter = "m"
)

// ValidUnits contains all valid speed unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// ValidDistanceUnits contains all valid distance unit values
var ValidDistanceUnits = []string{KM, MI, Meter}

const (
	mpsToKmph = 3.6
	kmphToMph = 0.621371192237334
	kmToMi    = 0.621371192237334
	// 1852 m per nautical mile / 3600 s
	knotsToMPS = 1852.0 / 3600.0
)

// IsValid checks if the given speed unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// IsValidDistance checks if the given distance unit is supported
func IsValidDistance(unit string) bool {
	for _, validUnit := range ValidDistanceUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// MPSToKmph converts a device-reported speed in meters per second to km/h.
func MPSToKmph(speedMPS float64) float64 {
	return speedMPS * mpsToKmph
}

// KnotsToMPS converts an NMEA ground speed in knots to meters per second.
func KnotsToMPS(knots float64) float64 {
	return knots * knotsToMPS
}

// ConvertSpeed converts a speed in km/h, the unit the estimator works in,
// to the target units. Unknown units return the value unchanged.
func ConvertSpeed(speedKmph float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedKmph / mpsToKmph
	case MPH:
		return speedKmph * kmphToMph
	case KMPH, KPH:
		return speedKmph
	default:
		return speedKmph
	}
}

// ConvertDistance converts a distance in kilometers to the target units.
func ConvertDistance(distanceKm float64, targetUnits string) float64 {
	switch targetUnits {
	case MI:
		return distanceKm * kmToMi
	case Meter:
		return distanceKm * 1000
	default:
		return distanceKm
	}
}

// FormatSpeed renders a km/h speed in the target units with its suffix.
func FormatSpeed(speedKmph float64, targetUnits string) string {
	if !IsValid(targetUnits) {
		targetUnits = KMPH
	}
	return fmt.Sprintf("%.1f %s", ConvertSpeed(speedKmph, targetUnits), targetUnits)
}

// FormatDistance renders a km distance in the target units with its suffix.
func FormatDistance(distanceKm float64, targetUnits string) string {
	if !IsValidDistance(targetUnits) {
		targetUnits = KM
	}
	if targetUnits == Meter {
		return fmt.Sprintf("%.0f %s", ConvertDistance(distanceKm, targetUnits), targetUnits)
	}
	return fmt.Sprintf("%.2f %s", ConvertDistance(distanceKm, targetUnits), targetUnits)
}
