// Package geo holds the position fix type and the great-circle distance and
// speed computations built on top of it.
package geo

import (
	"fmt"
	"time"

	"github.com/banshee-data/stride.report/internal/units"
)

// Fix is a single timestamped position reading. Fixes are values and are
// never modified after the source emits them.
type Fix struct {
	Latitude       float64   `json:"lat"`
	Longitude      float64   `json:"lon"`
	Time           time.Time `json:"time"`
	AccuracyMeters float64   `json:"accuracy_m"`
	SpeedMps       *float64  `json:"speed_mps,omitempty"`
	Altitude       *float64  `json:"altitude_m,omitempty"`
}

func (f Fix) String() string {
	return fmt.Sprintf("%.6f,%.6f@%s±%.1fm", f.Latitude, f.Longitude, f.Time.UTC().Format(time.RFC3339Nano), f.AccuracyMeters)
}

// ReportedSpeedKmh returns the device-reported speed converted to km/h.
// Reported speed is unreliable on several platforms and is only used for
// diagnostics; WindowedSpeedKmh is the canonical speed signal.
func ReportedSpeedKmh(f Fix) (float64, bool) {
	if f.SpeedMps == nil || *f.SpeedMps < 0 {
		return 0, false
	}
	return units.MPSToKmph(*f.SpeedMps), true
}
