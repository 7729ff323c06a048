package telemetry

import "testing"

func TestBusDeliversToSubscribers(t *testing.T) {
	b := NewBus()
	var got CompletionAccepted
	b.Subscribe(func(e CompletionAccepted) { got = e })

	b.Publish(CompletionAccepted{RequestID: 42, SuffixLen: 10, DocumentID: "d1"})
	if got.RequestID != 42 || got.SuffixLen != 10 {
		t.Fatalf("unexpected event received: %+v", got)
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus()
	calls := 0
	unsub := b.Subscribe(func(e CompletionAccepted) { calls++ })
	unsub()

	b.Publish(CompletionAccepted{RequestID: 1})
	if calls != 0 {
		t.Fatalf("expected no delivery after unsubscribe, got %d calls", calls)
	}
}
