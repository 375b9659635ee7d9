// Package geosource delivers position fixes from a receiver to subscribers.
//
// A Source pushes fixes and failures to callbacks. Concrete sources are the
// line-oriented Mux (serial NMEA receivers and JSON-lines replay files), the
// DisabledSource used when no receiver is configured, and the ManualSource
// used by tests and embedders that already own a position feed.
package geosource

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/stride.report/internal/geo"
)

var (
	// ErrUnsupported means no positioning capability exists. It is fatal to
	// starting a session.
	ErrUnsupported = errors.New("geolocation unsupported")
	// ErrPermissionDenied means the receiver exists but may not be read.
	ErrPermissionDenied = errors.New("geolocation permission denied")
	// ErrFixUnavailable means the receiver is talking but has no position.
	ErrFixUnavailable = errors.New("position unavailable")
	// ErrTimeout means no fix arrived within the configured fix timeout.
	ErrTimeout = errors.New("position request timed out")

	// ErrClosed is returned after a source has been closed.
	ErrClosed = errors.New("geo source closed")
	// ErrMalformed marks a line that could not be decoded. Malformed lines
	// are skipped, never delivered to subscribers.
	ErrMalformed = errors.New("malformed receiver line")
)

// Handle identifies one subscription.
type Handle string

// Source is a push-based positioning capability. Deliveries to one
// subscriber are serialized, and none happen after Unsubscribe returns.
// Callbacks must not call Unsubscribe themselves.
type Source interface {
	Available(ctx context.Context) error
	Subscribe(onFix func(geo.Fix), onError func(error)) (Handle, error)
	Unsubscribe(Handle)
}

// IsSensorError reports whether err is one of the transient receiver
// failures that subscribers are told about.
func IsSensorError(err error) bool {
	return errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrFixUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnsupported)
}

// Codes used by replay files and the numeric codes of browser-style
// position errors.
const (
	CodePermissionDenied = "permission_denied"
	CodeUnavailable      = "position_unavailable"
	CodeTimeout          = "timeout"
	CodeUnsupported      = "unsupported"
)

// FromCode maps a textual error code to its sentinel.
func FromCode(code string) error {
	switch code {
	case CodePermissionDenied, "1":
		return ErrPermissionDenied
	case CodeUnavailable, "2":
		return ErrFixUnavailable
	case CodeTimeout, "3":
		return ErrTimeout
	case CodeUnsupported:
		return ErrUnsupported
	default:
		return fmt.Errorf("%w: unknown error code %q", ErrMalformed, code)
	}
}

// Code is the inverse of FromCode. Unknown errors return "unknown".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, ErrFixUnavailable):
		return CodeUnavailable
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrUnsupported):
		return CodeUnsupported
	default:
		return "unknown"
	}
}

// Describe returns a message suitable for showing to the person walking.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Permission denied. Please enable location access in your device settings."
	case errors.Is(err, ErrFixUnavailable):
		return "Position unavailable. Please check your GPS/location services."
	case errors.Is(err, ErrTimeout):
		return "Request timed out. Please try again."
	case errors.Is(err, ErrUnsupported):
		return "Geolocation is not supported on this device."
	default:
		return "An unknown geolocation error occurred."
	}
}
