package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/stride.report/internal/geo"
	"github.com/banshee-data/stride.report/internal/geosource"
	"github.com/banshee-data/stride.report/internal/monitoring"
	"github.com/banshee-data/stride.report/internal/timeutil"
)

var logf = monitoring.Prefixed("session")

// Options carries the optional collaborators of a Machine.
type Options struct {
	Clock     timeutil.Clock
	OnUpdate  UpdateSink
	OnElapsed ElapsedSink
}

// Machine owns the lifecycle of tracking sessions against one source.
// At most one session tracks at a time.
type Machine struct {
	cfg     Config
	source  geosource.Source
	metrics MetricsProvider
	store   Persister
	clock   timeutil.Clock
	onUpd   UpdateSink
	onTick  ElapsedSink

	mu       sync.Mutex
	state    State
	run      *run
	starting bool
}

// run is the plumbing of one tracking session.
type run struct {
	handle geosource.Handle
	events chan Event
	// done is closed once no more events will be read.
	done chan struct{}
	// exited is closed when the loop goroutine returns.
	exited chan struct{}
	// final is the state after the terminating event, set before exited
	// closes.
	final     State
	closeOnce sync.Once
}

func (r *run) finish() { r.closeOnce.Do(func() { close(r.done) }) }

// send blocks while the queue is full and gives up once the session ended.
func (r *run) send(ev Event) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

func (r *run) onFix(f geo.Fix)   { r.send(FixArrived{Fix: f}) }
func (r *run) onError(err error) { r.send(SensorFailed{Err: err}) }

// NewMachine wires a Machine. store may be nil, in which case completed
// sessions are summarized but not saved.
func NewMachine(cfg Config, src geosource.Source, metrics MetricsProvider, store Persister, opts Options) *Machine {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.SpeedWindow <= 0 {
		cfg.SpeedWindow = def.SpeedWindow
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Machine{
		cfg:     cfg,
		source:  src,
		metrics: metrics,
		store:   store,
		clock:   clock,
		onUpd:   opts.OnUpdate,
		onTick:  opts.OnElapsed,
	}
}

// Start begins tracking. It fails with ErrSessionActive while another
// session tracks, and wraps the source error when positioning is not
// available. Cancelling ctx later cancels the session.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.starting || m.state.Status == StatusTracking {
		m.mu.Unlock()
		return ErrSessionActive
	}
	m.starting = true
	m.mu.Unlock()

	started := false
	defer func() {
		if !started {
			m.mu.Lock()
			m.starting = false
			m.mu.Unlock()
		}
	}()

	if err := m.source.Available(ctx); err != nil {
		return fmt.Errorf("geolocation not available: %w", err)
	}

	metrics, err := m.metrics.CurrentMetrics(ctx)
	if err != nil {
		return fmt.Errorf("failed to load body metrics: %w", err)
	}
	if err := metrics.Validate(); err != nil {
		logf("body metrics unusable, steps and calories will read zero: %v", err)
	}

	r := &run{
		events: make(chan Event, m.cfg.QueueSize),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	h, err := m.source.Subscribe(r.onFix, r.onError)
	if err != nil {
		return fmt.Errorf("failed to subscribe to fixes: %w", err)
	}
	r.handle = h

	now := m.clock.Now()
	m.mu.Lock()
	m.state, _ = Reduce(m.cfg, State{}, Started{At: now, Metrics: metrics})
	m.run = r
	m.starting = false
	started = true
	m.mu.Unlock()

	logf("started at %s", now.Format(time.RFC3339))
	go m.loop(ctx, r, now)
	return nil
}

func (m *Machine) loop(ctx context.Context, r *run, start time.Time) {
	defer close(r.exited)

	ticker := m.clock.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-r.events:
			st := m.apply(ev)
			switch ev.(type) {
			case StopRequested, Cancelled:
				r.final = st
				r.finish()
				return
			}

		case t := <-ticker.C():
			if m.onTick != nil {
				m.onTick(t.Sub(start))
			}

		case <-ctx.Done():
			r.finish()
			m.source.Unsubscribe(r.handle)
			r.final = m.apply(Cancelled{At: m.clock.Now()})
			m.mu.Lock()
			if m.run == r {
				m.run = nil
			}
			m.mu.Unlock()
			logf("cancelled: %v", ctx.Err())
			return
		}
	}
}

// apply reduces ev and returns a copy of the resulting state, taken under
// the same lock so a following Start cannot replace it first.
func (m *Machine) apply(ev Event) State {
	m.mu.Lock()
	var u *Update
	m.state, u = Reduce(m.cfg, m.state, ev)
	st := m.state.clone()
	m.mu.Unlock()
	if u != nil && m.onUpd != nil {
		m.onUpd(*u)
	}
	return st
}

// take detaches the active run so only one caller can end it.
func (m *Machine) take() (*run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.run == nil || m.state.Status != StatusTracking {
		return nil, ErrNotTracking
	}
	r := m.run
	m.run = nil
	return r, nil
}

// end unsubscribes, queues ev behind any pending fixes and waits for the
// loop to drain. It returns the state the loop ended with, which a new
// session started meanwhile does not affect.
func (m *Machine) end(r *run, ev Event) State {
	m.source.Unsubscribe(r.handle)
	select {
	case r.events <- ev:
	case <-r.exited:
	}
	<-r.exited
	return r.final
}

// Stop ends the session. Fixes already queued are applied first. A
// non-empty session is summarized and saved once; a save failure is
// returned wrapped in ErrPersistence alongside the Summary, and the session
// stays stopped.
func (m *Machine) Stop(ctx context.Context) (Result, error) {
	r, err := m.take()
	if err != nil {
		return Result{}, err
	}
	final := m.end(r, StopRequested{At: m.clock.Now()})

	sum, ok := Summarize(final)
	if !ok {
		logf("stopped with no accepted fixes (%d rejected)", final.Rejected)
		return Result{}, nil
	}
	res := Result{Summary: &sum}
	if m.store == nil {
		return res, nil
	}
	id, err := m.store.Save(ctx, sum)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	res.SessionID = id
	logf("saved session %s: %.3f km, %d steps, %d kcal", id, sum.TotalDistanceKm, sum.TotalSteps, sum.TotalCalories)
	return res, nil
}

// Cancel ends the session without a summary.
func (m *Machine) Cancel() error {
	r, err := m.take()
	if err != nil {
		return err
	}
	m.end(r, Cancelled{At: m.clock.Now()})
	logf("cancelled")
	return nil
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Status returns the current lifecycle status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status
}
