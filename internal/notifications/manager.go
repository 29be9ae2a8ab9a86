package notifications

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

// Manager broadcasts events to its handlers in registration order. Each
// handler's SendEvent runs synchronously on the caller's goroutine, so a slow
// synchronous handler delays every handler after it; register a QueuedHandler
// for slow sinks. The first handler error aborts the broadcast and is
// returned.
type Manager struct {
	mu       sync.RWMutex
	handlers []Notifier
}

// NewManager returns a manager with the given handlers registered in order.
func NewManager(handlers ...Notifier) *Manager {
	m := &Manager{}
	for _, h := range handlers {
		m.AddHandler(h)
	}
	return m
}

// AddHandler appends h. The same handler may be registered more than once and
// will then receive each event once per registration.
func (m *Manager) AddHandler(h Notifier) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// Clear removes every handler. Handlers are not closed.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = nil
}

// Handlers returns a snapshot of the registered handlers.
func (m *Manager) Handlers() []Notifier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Notifier(nil), m.handlers...)
}

// Len returns the number of registrations.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers)
}

// SendEvent delivers the event to every handler in order.
func (m *Manager) SendEvent(ctx context.Context, kind EventKind, params Params) error {
	for _, h := range m.Handlers() {
		if err := h.SendEvent(ctx, kind, params); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every registered handler that owns background resources,
// waiting for queued messages to flush. Handlers registered more than once are
// closed once. Errors are joined.
func (m *Manager) Close(ctx context.Context) error {
	type closer interface {
		Close(context.Context) error
	}
	seen := make(map[Notifier]struct{})
	var errs []error
	for _, h := range m.Handlers() {
		// Only comparable handlers can be map keys; the rest are closed as
		// often as they were registered.
		if reflect.TypeOf(h).Comparable() {
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
		}
		if c, ok := h.(closer); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
