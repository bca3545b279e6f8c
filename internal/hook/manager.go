package hook

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Manager dispatches hook events to registered handlers in priority order.
//
// BeforeToolExecution is a gate: the first handler to deny or fail stops
// the chain. Every other point is observational: all handlers run, and
// their errors are joined so one broken observer cannot hide another.
type Manager struct {
	handlers map[HookPoint][]Handler
	mu       sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		handlers: make(map[HookPoint][]Handler),
	}
}

// Register adds a handler. A handler with the same name replaces the
// previous one, so wiring code can register defaults unconditionally.
func (m *Manager) Register(handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for point, hs := range m.handlers {
		kept := hs[:0:0]
		for _, h := range hs {
			if h.Name() != handler.Name() {
				kept = append(kept, h)
			}
		}
		m.handlers[point] = kept
	}

	for _, point := range handler.Points() {
		hs := append(m.handlers[point], handler)
		sort.SliceStable(hs, func(i, j int) bool {
			return hs[i].Priority() > hs[j].Priority()
		})
		m.handlers[point] = hs
	}
}

// Trigger runs the handlers for data.Point.
func (m *Manager) Trigger(ctx context.Context, data *HookData) (*Feedback, error) {
	m.mu.RLock()
	handlers := append([]Handler(nil), m.handlers[data.Point]...)
	m.mu.RUnlock()

	if data.Point != BeforeToolExecution {
		var errs []error
		for _, h := range handlers {
			if _, err := call(ctx, h, data); err != nil {
				errs = append(errs, err)
			}
		}
		return AllowFeedback(), errors.Join(errs...)
	}

	for _, h := range handlers {
		feedback, err := call(ctx, h, data)
		if err != nil {
			return nil, err
		}
		if feedback != nil && !feedback.Allow {
			return feedback, nil
		}
	}
	return AllowFeedback(), nil
}

// call runs one handler, turning a panic into an error naming it.
func call(ctx context.Context, h Handler, data *HookData) (fb *Feedback, err error) {
	defer func() {
		if r := recover(); r != nil {
			fb, err = nil, fmt.Errorf("hook %s panicked: %v", h.Name(), r)
		}
	}()
	fb, err = h.Handle(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("hook %s: %w", h.Name(), err)
	}
	return fb, nil
}

// HasHandlers reports whether anything listens on point.
func (m *Manager) HasHandlers(point HookPoint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[point]) > 0
}

// Names returns each registered handler name once.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, point := range []HookPoint{BeforeToolExecution, AfterToolExecution, OnRunStart, OnRunEnd} {
		for _, h := range m.handlers[point] {
			if !seen[h.Name()] {
				seen[h.Name()] = true
				names = append(names, h.Name())
			}
		}
	}
	return names
}

// ListHandlers returns handler names for a hook point
func (m *Manager) ListHandlers(point HookPoint) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	handlers := m.handlers[point]
	names := make([]string, len(handlers))
	for i, h := range handlers {
		names[i] = h.Name()
	}
	return names
}
