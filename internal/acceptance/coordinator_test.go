package acceptance

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/inkforge/quillcore/internal/document"
	"github.com/inkforge/quillcore/internal/telemetry"
)

type fakeCanceller struct{ calls int32 }

func (f *fakeCanceller) CancelInFlight() { atomic.AddInt32(&f.calls, 1) }

func TestAcceptInsertsSuffixAndBumpsRevision(t *testing.T) {
	doc := document.New("d1", "Alice opened the door and ")
	canceller := &fakeCanceller{}
	bus := telemetry.NewBus()
	var got telemetry.CompletionAccepted
	bus.Subscribe(func(e telemetry.CompletionAccepted) { got = e })

	c := NewCoordinator(doc, canceller, bus)
	rev := c.Accept(document.RequestID(7), 27, "stepped into the garden.")

	text, _, revision := doc.Snapshot()
	if text != "Alice opened the door and stepped into the garden." {
		t.Fatalf("unexpected text: %q", text)
	}
	if revision != rev || revision != 1 {
		t.Fatalf("expected revision 1, got %d", revision)
	}
	if atomic.LoadInt32(&canceller.calls) != 1 {
		t.Fatal("expected in-flight cancellation")
	}
	if got.SuffixLen != len([]rune("stepped into the garden.")) {
		t.Fatalf("unexpected telemetry event: %+v", got)
	}
}

func TestAcceptSchedulesChainWhenAutoChainAndAutoAI(t *testing.T) {
	doc := document.New("d1", "text")
	chained := make(chan struct{}, 1)
	c := NewCoordinator(doc, &fakeCanceller{}, nil)
	c.AutoChain = true
	c.Mode = document.CompletionAutoAI
	c.Rechain = func() { chained <- struct{}{} }

	c.Accept(1, 4, "more")

	select {
	case <-chained:
	case <-time.After(time.Second):
		t.Fatal("expected chained trigger to fire")
	}
}

func TestAcceptDoesNotChainWhenDisabled(t *testing.T) {
	doc := document.New("d1", "text")
	called := false
	c := NewCoordinator(doc, &fakeCanceller{}, nil)
	c.AutoChain = false
	c.Mode = document.CompletionAutoAI
	c.Rechain = func() { called = true }

	c.Accept(1, 4, "more")
	time.Sleep(50 * time.Millisecond)
	if called {
		t.Fatal("expected no chain when auto_chain disabled")
	}
}
