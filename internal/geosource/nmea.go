package geosource

import (
	"fmt"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"

	"github.com/banshee-data/stride.report/internal/geo"
	"github.com/banshee-data/stride.report/internal/units"
)

// DefaultUereMeters converts HDOP to an accuracy radius for a typical
// consumer receiver.
const DefaultUereMeters = 5.0

// NMEADecoder pairs the RMC and GGA sentences of one receiver epoch into a
// fix. RMC carries the date and ground speed, GGA the HDOP and altitude,
// and they may arrive in either order. It is not safe for concurrent use;
// a Mux calls it from a single goroutine.
type NMEADecoder struct {
	// UereMeters scales HDOP into AccuracyMeters. Zero uses DefaultUereMeters.
	UereMeters float64

	rmc *nmea.RMC
	gga *nmea.GGA

	// last epoch already reported as unavailable
	noFixAt  nmea.Time
	noFixSet bool
}

// NewNMEADecoder returns a decoder using uere meters per unit of HDOP.
func NewNMEADecoder(uere float64) *NMEADecoder {
	return &NMEADecoder{UereMeters: uere}
}

func (d *NMEADecoder) uere() float64 {
	if d.UereMeters <= 0 {
		return DefaultUereMeters
	}
	return d.UereMeters
}

func (d *NMEADecoder) Decode(line string) (geo.Fix, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return geo.Fix{}, false, nil
	}
	if line[0] != '$' && line[0] != '!' {
		return geo.Fix{}, false, fmt.Errorf("%w: not an NMEA sentence", ErrMalformed)
	}
	s, err := nmea.Parse(line)
	if err != nil {
		return geo.Fix{}, false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch v := s.(type) {
	case nmea.RMC:
		if v.Validity != "A" {
			return d.unavailable(v.Time)
		}
		d.rmc = &v
	case nmea.GGA:
		if v.FixQuality == "" || v.FixQuality == "0" {
			return d.unavailable(v.Time)
		}
		d.gga = &v
	default:
		return geo.Fix{}, false, nil
	}
	return d.combine()
}

func (d *NMEADecoder) unavailable(t nmea.Time) (geo.Fix, bool, error) {
	d.rmc, d.gga = nil, nil
	if d.noFixSet && d.noFixAt == t {
		return geo.Fix{}, false, nil
	}
	d.noFixAt, d.noFixSet = t, true
	return geo.Fix{}, false, fmt.Errorf("%w: receiver has no fix at %s", ErrFixUnavailable, t)
}

func (d *NMEADecoder) combine() (geo.Fix, bool, error) {
	if d.rmc == nil || d.gga == nil || d.rmc.Time != d.gga.Time {
		return geo.Fix{}, false, nil
	}
	rmc, gga := *d.rmc, *d.gga
	d.rmc, d.gga = nil, nil
	d.noFixSet = false

	if !rmc.Date.Valid || !rmc.Time.Valid {
		return geo.Fix{}, false, fmt.Errorf("%w: epoch without date or time", ErrMalformed)
	}
	if !validLatLng(rmc.Latitude, rmc.Longitude) {
		return geo.Fix{}, false, fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrMalformed, rmc.Latitude, rmc.Longitude)
	}

	speed := units.KnotsToMPS(rmc.Speed)
	alt := gga.Altitude
	return geo.Fix{
		Latitude:  rmc.Latitude,
		Longitude: rmc.Longitude,
		Time: fixTime(2000+rmc.Date.YY, time.Month(rmc.Date.MM), rmc.Date.DD,
			rmc.Time.Hour, rmc.Time.Minute, rmc.Time.Second, rmc.Time.Millisecond),
		AccuracyMeters: gga.HDOP * d.uere(),
		SpeedMps:       &speed,
		Altitude:       &alt,
	}, true, nil
}
