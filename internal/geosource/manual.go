package geosource

import (
	"context"
	"sync"

	"github.com/banshee-data/stride.report/internal/geo"
)

// ManualSource is driven by explicit Emit and Fail calls. It suits tests and
// embedders that already receive positions from elsewhere.
type ManualSource struct {
	mu     sync.Mutex
	subs   map[Handle]subscriber
	unavai error

	subscribed, unsubscribed int
}

// NewManualSource returns an available source with no subscribers.
func NewManualSource() *ManualSource {
	return &ManualSource{subs: make(map[Handle]subscriber)}
}

// SetUnavailable makes Available and Subscribe fail with err. Nil restores
// availability.
func (m *ManualSource) SetUnavailable(err error) {
	m.mu.Lock()
	m.unavai = err
	m.mu.Unlock()
}

func (m *ManualSource) Available(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unavai
}

func (m *ManualSource) Subscribe(onFix func(geo.Fix), onError func(error)) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavai != nil {
		return "", m.unavai
	}
	h := Handle(randomID())
	m.subs[h] = subscriber{onFix: onFix, onError: onError}
	m.subscribed++
	return h, nil
}

func (m *ManualSource) Unsubscribe(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[h]; ok {
		delete(m.subs, h)
		m.unsubscribed++
	}
}

// Emit delivers f to every subscriber before returning.
func (m *ManualSource) Emit(f geo.Fix) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		s.onFix(f)
	}
}

// EmitAll delivers fixes in order.
func (m *ManualSource) EmitAll(fixes []geo.Fix) {
	for _, f := range fixes {
		m.Emit(f)
	}
}

// Fail delivers err to every subscriber's error callback.
func (m *ManualSource) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.onError != nil {
			s.onError(err)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (m *ManualSource) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Calls returns how many Subscribe and Unsubscribe calls succeeded.
func (m *ManualSource) Calls() (subscribed, unsubscribed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribed, m.unsubscribed
}
