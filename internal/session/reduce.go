package session

import (
	"time"

	"github.com/banshee-data/stride.report/internal/energy"
	"github.com/banshee-data/stride.report/internal/geo"
)

// Event is one input to Reduce.
type Event interface{ event() }

// Started begins a new session, discarding any previous state.
type Started struct {
	At      time.Time
	Metrics energy.BodyMetrics
}

// FixArrived carries one raw fix from the source.
type FixArrived struct{ Fix geo.Fix }

// SensorFailed carries a transient source error.
type SensorFailed struct{ Err error }

// StopRequested ends the session normally.
type StopRequested struct{ At time.Time }

// Cancelled ends the session without a summary.
type Cancelled struct{ At time.Time }

func (Started) event()       {}
func (FixArrived) event()    {}
func (SensorFailed) event()  {}
func (StopRequested) event() {}
func (Cancelled) event()     {}

// Reduce applies ev to s. It returns the next state and, when the caller
// should be told, an Update. Replaying the same events from the zero State
// always yields the same result.
func Reduce(cfg Config, s State, ev Event) (State, *Update) {
	switch e := ev.(type) {
	case Started:
		if s.Status == StatusTracking {
			return s, nil
		}
		return State{Status: StatusTracking, StartTime: e.At, Metrics: e.Metrics}, nil

	case FixArrived:
		if s.Status != StatusTracking {
			return s, nil
		}
		return acceptFix(cfg, s, e.Fix)

	case SensorFailed:
		if s.Status != StatusTracking || e.Err == nil {
			return s, nil
		}
		s.LastError = e.Err
		u := s.update()
		u.Err = e.Err
		return s, &u

	case StopRequested:
		if s.Status != StatusTracking {
			return s, nil
		}
		s.Status = StatusStopped
		s.EndTime = e.At
		return s, nil

	case Cancelled:
		if s.Status != StatusTracking {
			return s, nil
		}
		s.Status = StatusStopped
		s.EndTime = e.At
		s.Cancelled = true
		return s, nil
	}
	return s, nil
}

func acceptFix(cfg Config, s State, f geo.Fix) (State, *Update) {
	var last *geo.Fix
	if prev, ok := s.Last(); ok {
		if !f.Time.After(prev.Time) {
			s.Discarded++
			return s, nil
		}
		last = &prev
	}
	if !cfg.Filter.Accept(f, last) {
		s.Rejected++
		return s, nil
	}

	s.Fixes = append(s.Fixes, f)
	s.acc.Add(f)
	s.DistanceKm = s.acc.TotalKm()

	s.SpeedKmh = nil
	if v, ok := geo.WindowedSpeedKmh(s.Fixes, cfg.SpeedWindow); ok {
		s.SpeedKmh = &v
		s.MaxSpeedKmh = max(s.MaxSpeedKmh, v)
	}
	if v, ok := geo.ReportedSpeedKmh(f); ok {
		s.MaxReportedSpeedKmh = max(s.MaxReportedSpeedKmh, v)
	}

	s.Steps, s.Calories, s.Met = energy.ForDistance(s.DistanceKm, s.SpeedKmh, s.Metrics)
	u := s.update()
	return s, &u
}

func (s State) update() Update {
	u := Update{DistanceKm: s.DistanceKm, Steps: s.Steps, Calories: s.Calories}
	if last, ok := s.Last(); ok {
		u.At = last.Time
	}
	if s.SpeedKmh != nil {
		v := *s.SpeedKmh
		u.SpeedKmh = &v
	}
	if s.Met > 0 {
		m := s.Met
		u.Met = &m
	}
	return u
}

// Replay folds events over the zero State.
func Replay(cfg Config, events []Event) (State, []Update) {
	var (
		s       State
		updates []Update
	)
	for _, ev := range events {
		var u *Update
		s, u = Reduce(cfg, s, ev)
		if u != nil {
			updates = append(updates, *u)
		}
	}
	return s, updates
}
