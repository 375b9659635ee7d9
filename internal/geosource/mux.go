package geosource

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/stride.report/internal/geo"
	"github.com/banshee-data/stride.report/internal/monitoring"
	"github.com/banshee-data/stride.report/internal/timeutil"
)

// MuxOptions tunes a Mux. The zero value uses the real clock and disables
// the fix watchdog.
type MuxOptions struct {
	Clock timeutil.Clock
	// FixTimeout raises ErrTimeout when no fix is decoded for this long.
	// Zero disables the watchdog.
	FixTimeout time.Duration
}

type subscriber struct {
	onFix   func(geo.Fix)
	onError func(error)
}

// Stats counts what a Mux has seen since it was created.
type Stats struct {
	Lines       int64     `json:"lines"`
	Fixes       int64     `json:"fixes"`
	Errors      int64     `json:"errors"`
	Malformed   int64     `json:"malformed"`
	Subscribers int       `json:"subscribers"`
	LastFix     *geo.Fix  `json:"last_fix,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Since       time.Time `json:"since"`
}

// Mux reads lines from a single receiver port, decodes them into fixes and
// fans them out to every subscriber. Raw lines are also copied to tail
// channels for the debug console.
type Mux[T Port] struct {
	port       T
	decoder    Decoder
	clock      timeutil.Clock
	fixTimeout time.Duration
	started    time.Time

	// mu is held for the whole of a dispatch, so Unsubscribe returning
	// means no callback for that handle is running or will run.
	mu          sync.Mutex
	subscribers map[Handle]subscriber

	tailMu sync.Mutex
	tails  map[string]chan string

	closingMu sync.Mutex
	closing   bool

	lines, fixes, errs, malformed atomic.Int64

	lastMu    sync.Mutex
	lastFix   *geo.Fix
	lastError error
}

// NewMux wraps port. The decoder turns each line into a fix, a sensor
// error, or nothing.
func NewMux[T Port](port T, dec Decoder, opts MuxOptions) *Mux[T] {
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Mux[T]{
		port:        port,
		decoder:     dec,
		clock:       clock,
		fixTimeout:  opts.FixTimeout,
		started:     clock.Now(),
		subscribers: make(map[Handle]subscriber),
		tails:       make(map[string]chan string),
	}
}

// randomID generates an 8 byte random hex id.
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (m *Mux[T]) isClosing() bool {
	m.closingMu.Lock()
	defer m.closingMu.Unlock()
	return m.closing
}

// Available reports ErrUnsupported once the mux has been closed.
func (m *Mux[T]) Available(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.isClosing() {
		return fmt.Errorf("%w: %w", ErrUnsupported, ErrClosed)
	}
	return nil
}

func (m *Mux[T]) Subscribe(onFix func(geo.Fix), onError func(error)) (Handle, error) {
	if onFix == nil {
		return "", errors.New("subscribe: nil fix callback")
	}
	if m.isClosing() {
		return "", ErrClosed
	}
	h := Handle(randomID())
	m.mu.Lock()
	m.subscribers[h] = subscriber{onFix: onFix, onError: onError}
	m.mu.Unlock()
	return h, nil
}

// Unsubscribe removes h. It blocks while a delivery is in flight.
func (m *Mux[T]) Unsubscribe(h Handle) {
	m.mu.Lock()
	delete(m.subscribers, h)
	m.mu.Unlock()
}

// Tail returns a channel of raw receiver lines. Slow readers miss lines.
func (m *Mux[T]) Tail() (string, <-chan string) {
	id := randomID()
	ch := make(chan string, 16)
	m.tailMu.Lock()
	m.tails[id] = ch
	m.tailMu.Unlock()
	return id, ch
}

// Untail closes and removes a tail channel.
func (m *Mux[T]) Untail(id string) {
	m.tailMu.Lock()
	defer m.tailMu.Unlock()
	if ch, ok := m.tails[id]; ok {
		close(ch)
		delete(m.tails, id)
	}
}

func (m *Mux[T]) publishLine(line string) {
	m.tailMu.Lock()
	defer m.tailMu.Unlock()
	for _, ch := range m.tails {
		select {
		case ch <- line:
		default:
		}
	}
}

func (m *Mux[T]) dispatchFix(f geo.Fix) {
	m.fixes.Add(1)
	m.lastMu.Lock()
	m.lastFix = &f
	m.lastMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subscribers {
		s.onFix(f)
	}
}

func (m *Mux[T]) dispatchError(err error) {
	m.errs.Add(1)
	m.lastMu.Lock()
	m.lastError = err
	m.lastMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subscribers {
		if s.onError != nil {
			s.onError(err)
		}
	}
}

// Monitor reads the port until EOF, a read error, Close or ctx is done.
// EOF and Close return nil.
func (m *Mux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(m.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan runs apart from the select loop so cancellation
	// and the watchdog are never stuck behind a read.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	var timeoutC <-chan time.Time
	var watchdog timeutil.Timer
	if m.fixTimeout > 0 {
		watchdog = m.clock.NewTimer(m.fixTimeout)
		defer watchdog.Stop()
		timeoutC = watchdog.C()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			if m.isClosing() {
				return nil
			}
			return fmt.Errorf("failed to read receiver: %w", err)

		case <-timeoutC:
			m.dispatchError(fmt.Errorf("%w: no fix for %s", ErrTimeout, m.fixTimeout))
			watchdog.Reset(m.fixTimeout)

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					if !m.isClosing() {
						return fmt.Errorf("failed to read receiver: %w", err)
					}
				default:
				}
				return nil
			}
			if m.isClosing() {
				return nil
			}
			m.lines.Add(1)
			m.publishLine(line)

			fix, ok, err := m.decoder.Decode(line)
			switch {
			case err != nil && IsSensorError(err):
				m.dispatchError(err)
			case err != nil:
				m.malformed.Add(1)
				monitoring.Debugf("geosource: skipping line %q: %v", line, err)
			case ok:
				m.dispatchFix(fix)
				if watchdog != nil {
					watchdog.Reset(m.fixTimeout)
				}
			}
		}
	}
}

// Stats returns a snapshot of the counters.
func (m *Mux[T]) Stats() Stats {
	m.mu.Lock()
	nsubs := len(m.subscribers)
	m.mu.Unlock()

	st := Stats{
		Lines:       m.lines.Load(),
		Fixes:       m.fixes.Load(),
		Errors:      m.errs.Load(),
		Malformed:   m.malformed.Load(),
		Subscribers: nsubs,
		Since:       m.started,
	}
	m.lastMu.Lock()
	if m.lastFix != nil {
		f := *m.lastFix
		st.LastFix = &f
	}
	if m.lastError != nil {
		st.LastError = m.lastError.Error()
	}
	m.lastMu.Unlock()
	return st
}

// Close drops every subscriber and tail and closes the port.
func (m *Mux[T]) Close() error {
	m.closingMu.Lock()
	if m.closing {
		m.closingMu.Unlock()
		return nil
	}
	m.closing = true
	m.closingMu.Unlock()

	m.mu.Lock()
	clear(m.subscribers)
	m.mu.Unlock()

	m.tailMu.Lock()
	for id, ch := range m.tails {
		close(ch)
		delete(m.tails, id)
	}
	m.tailMu.Unlock()

	return m.port.Close()
}
