// Package telemetry is a minimal in-process event bus for the
// CompletionAccepted event (SPEC_FULL.md supplemented feature; spec §4.8
// step 5), grounded in the teacher's typed-message conventions
// (core/worker + core/broker), scaled down since no external broker is in
// scope here.
package telemetry

import "sync"

// CompletionAccepted is emitted once an accepted suffix has been applied.
type CompletionAccepted struct {
	RequestID  int64
	SuffixLen  int
	DocumentID string
}

// Handler receives published events.
type Handler func(CompletionAccepted)

// Bus is a typed, synchronous publish/subscribe bus for one event type.
// Subscribers are invoked in the goroutine that calls Publish; callers that
// need isolation should launch their own goroutine inside the handler.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus { return &Bus{} }

// Subscribe registers fn and returns an unsubscribe function.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
	idx := len(b.handlers) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.handlers) {
			b.handlers[idx] = nil
		}
	}
}

func (b *Bus) Publish(evt CompletionAccepted) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, h := range b.handlers {
		if h != nil {
			h(evt)
		}
	}
}
