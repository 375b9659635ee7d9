package geosource

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang/geo/s2"

	"github.com/banshee-data/stride.report/internal/geo"
)

// Decoder turns one receiver line into a fix. ok is false for lines that
// carry no position (other sentence types, blank lines). Sensor failures
// come back as one of the package sentinels; anything else wrapping
// ErrMalformed is skipped by the Mux.
type Decoder interface {
	Decode(line string) (fix geo.Fix, ok bool, err error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(line string) (geo.Fix, bool, error)

func (f DecoderFunc) Decode(line string) (geo.Fix, bool, error) { return f(line) }

// validLatLng rejects coordinates outside ±90/±180.
func validLatLng(lat, lon float64) bool {
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}

// JSONDecoder reads the replay format: one JSON object per line, either a
// fix
//
//	{"lat":51.5,"lon":-0.12,"time":"2026-03-14T07:30:00Z","accuracy_m":5}
//
// or a failure
//
//	{"error":"permission_denied"}
type JSONDecoder struct{}

type jsonLine struct {
	geo.Fix
	Error string `json:"error,omitempty"`
}

func (JSONDecoder) Decode(line string) (geo.Fix, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return geo.Fix{}, false, nil
	}
	var rec jsonLine
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return geo.Fix{}, false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rec.Error != "" {
		return geo.Fix{}, false, FromCode(rec.Error)
	}
	if rec.Time.IsZero() {
		return geo.Fix{}, false, fmt.Errorf("%w: fix without time", ErrMalformed)
	}
	if !validLatLng(rec.Latitude, rec.Longitude) {
		return geo.Fix{}, false, fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrMalformed, rec.Latitude, rec.Longitude)
	}
	if rec.AccuracyMeters < 0 {
		return geo.Fix{}, false, fmt.Errorf("%w: negative accuracy %f", ErrMalformed, rec.AccuracyMeters)
	}
	return rec.Fix, true, nil
}

// EncodeJSON renders a fix in the replay format.
func EncodeJSON(f geo.Fix) (string, error) {
	b, err := json.Marshal(jsonLine{Fix: f})
	if err != nil {
		return "", fmt.Errorf("failed to encode fix: %w", err)
	}
	return string(b), nil
}

// EncodeJSONError renders a sensor failure in the replay format.
func EncodeJSONError(err error) string {
	return fmt.Sprintf(`{"error":%q}`, Code(err))
}

// fixTime is used by decoders that only learn the time of day.
func fixTime(year int, month time.Month, day, hour, min, sec, ms int) time.Time {
	return time.Date(year, month, day, hour, min, sec, ms*int(time.Millisecond), time.UTC)
}
