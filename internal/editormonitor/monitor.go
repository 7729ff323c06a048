// Package editormonitor implements the Edit Monitor (C1): it turns raw
// editor notifications into Trigger Events with no I/O and no blocking,
// emitting at most one event per observed change (spec §4.1).
package editormonitor

import (
	"sync"
	"time"

	"github.com/inkforge/quillcore/internal/document"
)

// Monitor is the sole producer of Trigger Events. It owns no document state
// beyond the currently focused document id; the caller supplies revision and
// cursor on every call, mirroring how a real editor surface reports them.
//
// Unlike `core/trigger`'s condition-variable fan-out in the teacher, this
// emitter never blocks: Events is a buffered channel and a full buffer drops
// the oldest pending event rather than stall the caller, since C1 must
// return within microseconds.
type Monitor struct {
	current document.ID
	events  chan document.TriggerEvent

	stopOnce sync.Once
	mu       sync.Mutex
	closed   bool
}

// New creates a Monitor whose Trigger Events are delivered on a channel
// buffered to bufSize (a small buffer is enough; the Trigger Gate is
// expected to drain it promptly).
func New(bufSize int) *Monitor {
	if bufSize <= 0 {
		bufSize = 8
	}
	return &Monitor{events: make(chan document.TriggerEvent, bufSize)}
}

// Events returns the channel Trigger Events are published on.
func (m *Monitor) Events() <-chan document.TriggerEvent { return m.events }

// SetCurrentDocument switches focus. Emits no trigger.
func (m *Monitor) SetCurrentDocument(id document.ID) {
	m.current = id
}

// OnTextChanged emits a TextChange Trigger Event. Fails silently (per
// contract) if docID is not the focused document.
func (m *Monitor) OnTextChanged(docID document.ID, revision int64, cursorPos int) {
	if docID == "" || docID != m.current {
		return
	}
	m.emit(document.TriggerEvent{
		DocumentID: docID,
		Revision:   revision,
		CursorPos:  cursorPos,
		Kind:       document.TriggerTextChange,
		Timestamp:  time.Now(),
	})
}

// OnCursorMoved emits a CursorMove Trigger Event. Never triggers a
// completion directly — it is the Trigger Gate's policy, not this
// component's, that decides that (spec §4.1).
func (m *Monitor) OnCursorMoved(docID document.ID, revision int64, cursorPos int) {
	if docID == "" || docID != m.current {
		return
	}
	m.emit(document.TriggerEvent{
		DocumentID: docID,
		Revision:   revision,
		CursorPos:  cursorPos,
		Kind:       document.TriggerCursorMove,
		Timestamp:  time.Now(),
	})
}

// Manual emits a Manual Trigger Event, e.g. from an explicit "complete now"
// keybinding. Bypasses no gate policy itself — C2 is what special-cases it.
func (m *Monitor) Manual(docID document.ID, revision int64, cursorPos int) {
	if docID == "" || docID != m.current {
		return
	}
	m.emit(document.TriggerEvent{
		DocumentID: docID,
		Revision:   revision,
		CursorPos:  cursorPos,
		Kind:       document.TriggerManual,
		Timestamp:  time.Now(),
	})
}

func (m *Monitor) emit(evt document.TriggerEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.events <- evt:
	default:
		// Buffer full: drop the oldest pending event to make room rather
		// than block the editor thread.
		select {
		case <-m.events:
		default:
		}
		select {
		case m.events <- evt:
		default:
		}
	}
}

// Stop closes the Trigger Event channel, ending the consuming pump
// goroutine's range loop. Safe to call more than once; further edit
// notifications are silently ignored after Stop returns.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.events)
	})
}
