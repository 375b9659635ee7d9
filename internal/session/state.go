// Package session runs one live tracking session at a time: it turns the
// fixes of a geosource.Source into distance, speed, step and calorie
// figures, and hands a Summary to a Persister when the session stops.
//
// All state changes go through Reduce, a pure function of the previous
// State and one Event. Machine feeds Reduce from a single goroutine.
package session

import (
	"errors"
	"time"

	"github.com/banshee-data/stride.report/internal/energy"
	"github.com/banshee-data/stride.report/internal/filter"
	"github.com/banshee-data/stride.report/internal/geo"
)

var (
	// ErrSessionActive is returned by Start while a session is tracking.
	ErrSessionActive = errors.New("session already tracking")
	// ErrNotTracking is returned by Stop and Cancel with no active session.
	ErrNotTracking = errors.New("no session tracking")
	// ErrPersistence wraps a failure to save a completed session.
	ErrPersistence = errors.New("failed to persist session")
)

// Status is the lifecycle position of a session.
type Status int

const (
	StatusIdle Status = iota
	StatusTracking
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusTracking:
		return "tracking"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config holds the tunables Reduce and Machine read.
type Config struct {
	Filter      filter.Filter
	SpeedWindow int
	// QueueSize bounds the channel between the source callbacks and the
	// session loop.
	QueueSize int
	// TickInterval is the period of elapsed-time notifications.
	TickInterval time.Duration
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Filter:       filter.New(filter.DefaultMaxAccuracyMeters, filter.DefaultMinDisplacementKm),
		SpeedWindow:  geo.DefaultSpeedWindow,
		QueueSize:    64,
		TickInterval: time.Second,
	}
}

// State is everything a session has accumulated. A State returned by Reduce
// may share its Fixes backing array with the State passed in, so earlier
// States must be treated as read-only.
type State struct {
	Status    Status
	Fixes     []geo.Fix
	StartTime time.Time
	EndTime   time.Time
	Metrics   energy.BodyMetrics
	LastError error
	Cancelled bool

	// DistanceKm always equals the haversine sum over Fixes.
	DistanceKm float64
	// SpeedKmh is the latest windowed speed, nil until two fixes span time.
	SpeedKmh            *float64
	MaxSpeedKmh         float64
	MaxReportedSpeedKmh float64
	Steps               uint32
	Calories            uint32
	Met                 float64

	// Rejected counts fixes the filter refused; Discarded counts fixes
	// that arrived out of order.
	Rejected  int
	Discarded int

	acc geo.Accumulator
}

// Last returns the most recent accepted fix.
func (s State) Last() (geo.Fix, bool) {
	if len(s.Fixes) == 0 {
		return geo.Fix{}, false
	}
	return s.Fixes[len(s.Fixes)-1], true
}

// Elapsed is the wall time from start to end, or to now while tracking.
func (s State) Elapsed(now time.Time) time.Duration {
	switch {
	case s.StartTime.IsZero():
		return 0
	case !s.EndTime.IsZero():
		return s.EndTime.Sub(s.StartTime)
	default:
		return now.Sub(s.StartTime)
	}
}

func (s State) clone() State {
	c := s
	c.Fixes = append([]geo.Fix(nil), s.Fixes...)
	if s.SpeedKmh != nil {
		v := *s.SpeedKmh
		c.SpeedKmh = &v
	}
	return c
}

// Update is delivered to the UpdateSink after every accepted fix and every
// sensor error. Err is set only for the latter.
type Update struct {
	At         time.Time
	DistanceKm float64
	Steps      uint32
	Calories   uint32
	SpeedKmh   *float64
	Met        *float64
	Err        error
}

// UpdateSink receives live updates on the session goroutine. It should
// return quickly and must not call Stop or Cancel, which wait for that
// goroutine to exit.
type UpdateSink func(Update)

// ElapsedSink receives the wall time since start once per tick. Like
// UpdateSink it runs on the session goroutine and must not call Stop or
// Cancel.
type ElapsedSink func(time.Duration)
