package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/banshee-data/stride.report/internal/config"
	"github.com/banshee-data/stride.report/internal/filter"
	"github.com/banshee-data/stride.report/internal/geo"
	"github.com/banshee-data/stride.report/internal/geosource"
	"github.com/banshee-data/stride.report/internal/monitoring"
	"github.com/banshee-data/stride.report/internal/session"
	"github.com/banshee-data/stride.report/internal/timeutil"
)

var logf = monitoring.Prefixed("stride")

// receiver is a position source driven by a read loop.
type receiver interface {
	geosource.Source
	Monitor(ctx context.Context) error
	Close() error
	AttachAdminRoutes(mux *http.ServeMux)
}

// disabledReceiver has no read loop; it only reports why positioning is off.
type disabledReceiver struct {
	geosource.DisabledSource
}

func (disabledReceiver) Monitor(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (disabledReceiver) Close() error { return nil }

func sessionConfig(t *config.TuningConfig) session.Config {
	return session.Config{
		Filter:       filter.New(t.GetMaxAccuracyMeters(), t.GetMinDisplacementKm()),
		SpeedWindow:  t.GetSpeedWindow(),
		QueueSize:    t.GetFixQueueSize(),
		TickInterval: t.GetTickInterval(),
	}
}

// openReceiver opens the serial NMEA receiver. A missing device or a
// permission problem yields a disabled receiver so the failure surfaces
// through the session start.
func openReceiver(path string, t *config.TuningConfig) (receiver, error) {
	mux, err := geosource.OpenSerial(path,
		geosource.PortOptions{BaudRate: t.GetBaudRate()},
		geosource.NewNMEADecoder(t.GetHDOPUereMeters()),
		geosource.MuxOptions{FixTimeout: t.GetFixTimeout()},
	)
	if errors.Is(err, geosource.ErrUnsupported) || errors.Is(err, geosource.ErrPermissionDenied) {
		logf("positioning disabled: %s (%v)", geosource.Describe(err), err)
		return disabledReceiver{geosource.DisabledSource{Reason: err}}, nil
	}
	if err != nil {
		return nil, err
	}
	return mux, nil
}

func newDecoder(format string, t *config.TuningConfig) (geosource.Decoder, error) {
	switch format {
	case "json", "jsonl":
		return geosource.JSONDecoder{}, nil
	case "nmea":
		return geosource.NewNMEADecoder(t.GetHDOPUereMeters()), nil
	default:
		return nil, fmt.Errorf("unknown replay format %q: expected json or nmea", format)
	}
}

// replayReceiver reads a recorded file. It owns a mock clock that follows
// the recorded fix times, so start, end and elapsed ticks match the
// recording rather than the wall clock.
type replayReceiver struct {
	*geosource.Mux[*os.File]
	clock *timeutil.MockClock
}

// replayDecoder moves the replay clock forward to every decoded fix.
type replayDecoder struct {
	geosource.Decoder
	clock *timeutil.MockClock
}

func (d replayDecoder) Decode(line string) (geo.Fix, bool, error) {
	f, ok, err := d.Decoder.Decode(line)
	if ok {
		if step := f.Time.Sub(d.clock.Now()); step > 0 {
			d.clock.Advance(step)
		}
	}
	return f, ok, err
}

func openReplay(path, format string, t *config.TuningConfig) (*replayReceiver, error) {
	dec, err := newDecoder(format, t)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}

	// The peek uses its own decoder since NMEA decoding is stateful.
	peekDec, _ := newDecoder(format, t)
	first, err := firstFix(f, peekDec)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rewind replay file: %w", err)
	}

	clock := timeutil.NewMockClock(first.Time)
	mux := geosource.NewMux[*os.File](f, replayDecoder{Decoder: dec, clock: clock}, geosource.MuxOptions{Clock: clock})
	return &replayReceiver{Mux: mux, clock: clock}, nil
}

func firstFix(r io.Reader, dec geosource.Decoder) (geo.Fix, error) {
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		if f, ok, err := dec.Decode(scan.Text()); err == nil && ok {
			return f, nil
		}
	}
	if err := scan.Err(); err != nil {
		return geo.Fix{}, fmt.Errorf("failed to read replay file: %w", err)
	}
	return geo.Fix{}, errors.New("replay file holds no fix")
}

// engine runs one tracking session against a receiver.
type engine struct {
	machine *session.Machine
	rcv     receiver
}

func newEngine(t *config.TuningConfig, rcv receiver, store session.Persister) *engine {
	opts := session.Options{
		OnUpdate:  logUpdate,
		OnElapsed: logElapsed,
	}
	if rr, ok := rcv.(*replayReceiver); ok {
		opts.Clock = rr.clock
	}
	m := session.NewMachine(sessionConfig(t), rcv, session.StaticMetrics(t.GetBodyMetrics()), store, opts)
	return &engine{machine: m, rcv: rcv}
}

// Run starts a session and stops it when ctx is done or the receiver
// reaches the end of its input.
func (e *engine) Run(ctx context.Context) (session.Result, error) {
	// The session outlives ctx so that a signal stops it with a summary
	// instead of cancelling it.
	if err := e.machine.Start(context.Background()); err != nil {
		if errors.Is(err, geosource.ErrUnsupported) || errors.Is(err, geosource.ErrPermissionDenied) {
			logf("%s", geosource.Describe(err))
		}
		return session.Result{}, fmt.Errorf("failed to start session: %w", err)
	}

	monCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	monDone := make(chan error, 1)
	go func() { monDone <- e.rcv.Monitor(monCtx) }()

	select {
	case <-ctx.Done():
		logf("stopping on signal")
	case err := <-monDone:
		if err != nil {
			logf("receiver stopped: %v", err)
		} else {
			logf("end of input")
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return e.machine.Stop(stopCtx)
}

func logUpdate(u session.Update) {
	if u.Err != nil {
		logf("sensor: %s", geosource.Describe(u.Err))
		return
	}
	speed := "-"
	if u.SpeedKmh != nil {
		speed = fmt.Sprintf("%.2f km/h", *u.SpeedKmh)
	}
	logf("%.3f km, %d steps, %d kcal, %s", u.DistanceKm, u.Steps, u.Calories, speed)
}

func logElapsed(d time.Duration) {
	if d%time.Minute < time.Second {
		monitoring.Debugf("elapsed %s", d.Round(time.Second))
	}
}
