package editormonitor

import (
	"testing"
	"time"

	"github.com/inkforge/quillcore/internal/document"
)

func TestMonitorEmitsOnlyForFocusedDocument(t *testing.T) {
	m := New(4)
	docA := document.ID("a")
	docB := document.ID("b")
	m.SetCurrentDocument(docA)

	m.OnTextChanged(docB, 1, 0)
	select {
	case <-m.Events():
		t.Fatal("expected no event for unfocused document")
	case <-time.After(10 * time.Millisecond):
	}

	m.OnTextChanged(docA, 1, 5)
	select {
	case evt := <-m.Events():
		if evt.Kind != document.TriggerTextChange || evt.CursorPos != 5 {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("expected event for focused document")
	}
}

func TestMonitorCursorMoveNeverEmitsManualOrTextChange(t *testing.T) {
	m := New(4)
	doc := document.ID("a")
	m.SetCurrentDocument(doc)
	m.OnCursorMoved(doc, 1, 3)
	evt := <-m.Events()
	if evt.Kind != document.TriggerCursorMove {
		t.Fatalf("expected CursorMove, got %v", evt.Kind)
	}
}

func TestMonitorStopClosesEventsAndIgnoresLateNotifications(t *testing.T) {
	m := New(4)
	doc := document.ID("a")
	m.SetCurrentDocument(doc)

	m.Stop()
	m.Stop() // must not panic on double Stop

	m.OnTextChanged(doc, 1, 1)

	_, ok := <-m.Events()
	if ok {
		t.Fatal("expected Events channel to be closed after Stop")
	}
}

func TestMonitorDropsOldestWhenBufferFull(t *testing.T) {
	m := New(1)
	doc := document.ID("a")
	m.SetCurrentDocument(doc)
	m.OnTextChanged(doc, 1, 1)
	m.OnTextChanged(doc, 2, 2)
	evt := <-m.Events()
	if evt.CursorPos != 2 {
		t.Fatalf("expected the newest event to survive, got cursor %d", evt.CursorPos)
	}
}
