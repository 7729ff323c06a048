package triggergate

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/inkforge/quillcore/internal/document"
)

type fakeBuffer struct {
	mu      sync.Mutex
	content string
}

func (f *fakeBuffer) set(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = s
}

func (f *fakeBuffer) Content() (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.content {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return f.content, n
}

type launchRecorder struct {
	mu       sync.Mutex
	launches []document.RequestID
	cancels  int
}

func (l *launchRecorder) launchFunc() LaunchFunc {
	return func(ctx context.Context, evt document.TriggerEvent, rid document.RequestID, mode document.PromptMode) func() {
		l.mu.Lock()
		l.launches = append(l.launches, rid)
		l.mu.Unlock()
		return func() {
			l.mu.Lock()
			l.cancels++
			l.mu.Unlock()
		}
	}
}

func (l *launchRecorder) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launches)
}

func TestGateManualBypassesDebounceAndThrottle(t *testing.T) {
	buf := &fakeBuffer{content: "hello."}
	rec := &launchRecorder{}
	cfg := DefaultConfig()
	cfg.DebounceMs = 10_000
	cfg.ThrottleMs = 10_000
	g := New(cfg, buf, rec.launchFunc())

	g.Evaluate(document.TriggerEvent{Kind: document.TriggerManual, CursorPos: 6})
	if rec.count() != 1 {
		t.Fatalf("expected manual trigger to launch immediately, got %d launches", rec.count())
	}
}

func TestGateDisabledModeDropsEverything(t *testing.T) {
	buf := &fakeBuffer{content: "hello."}
	rec := &launchRecorder{}
	cfg := DefaultConfig()
	cfg.Mode = document.CompletionDisabled
	g := New(cfg, buf, rec.launchFunc())

	g.Evaluate(document.TriggerEvent{Kind: document.TriggerManual, CursorPos: 6})
	if rec.count() != 0 {
		t.Fatal("expected Disabled mode to drop even Manual triggers")
	}
}

func TestGateManualAIDropsNonManual(t *testing.T) {
	buf := &fakeBuffer{content: "hello."}
	rec := &launchRecorder{}
	cfg := DefaultConfig()
	cfg.Mode = document.CompletionManualAI
	g := New(cfg, buf, rec.launchFunc())

	g.Evaluate(document.TriggerEvent{Kind: document.TriggerTextChange, CursorPos: 6})
	if rec.count() != 0 {
		t.Fatal("expected ManualAI mode to drop TextChange events")
	}
}

func TestGateFingerprintDedupDropsUnchangedContent(t *testing.T) {
	buf := &fakeBuffer{content: "hello."}
	rec := &launchRecorder{}
	cfg := DefaultConfig()
	cfg.DebounceMs = 1
	g := New(cfg, buf, rec.launchFunc())

	g.Evaluate(document.TriggerEvent{Kind: document.TriggerTextChange, CursorPos: 6})
	time.Sleep(20 * time.Millisecond)
	firstCount := rec.count()
	if firstCount != 1 {
		t.Fatalf("expected first evaluate to launch, got %d", firstCount)
	}

	// Same content again: fingerprint unchanged, must drop.
	g.Evaluate(document.TriggerEvent{Kind: document.TriggerTextChange, CursorPos: 6})
	time.Sleep(20 * time.Millisecond)
	if rec.count() != firstCount {
		t.Fatalf("expected unchanged content to be deduped, got %d launches", rec.count())
	}
}

func TestGateMinCharsDrops(t *testing.T) {
	buf := &fakeBuffer{content: ""}
	rec := &launchRecorder{}
	cfg := DefaultConfig()
	cfg.MinChars = 5
	g := New(cfg, buf, rec.launchFunc())

	g.Evaluate(document.TriggerEvent{Kind: document.TriggerTextChange, CursorPos: 0})
	if rec.count() != 0 {
		t.Fatal("expected empty buffer below min_chars to drop")
	}
}

func TestGateSupersessionCancelsPrior(t *testing.T) {
	buf := &fakeBuffer{content: "first sentence."}
	rec := &launchRecorder{}
	cfg := DefaultConfig()
	cfg.ThrottleMs = 0
	g := New(cfg, buf, rec.launchFunc())

	g.Evaluate(document.TriggerEvent{Kind: document.TriggerTextChange, CursorPos: len("first sentence.")})
	if rec.count() != 1 {
		t.Fatalf("expected strong heuristic trigger to launch immediately, got %d", rec.count())
	}

	buf.set(strings.Repeat("x", 1) + " second sentence.")
	g.Evaluate(document.TriggerEvent{Kind: document.TriggerTextChange, CursorPos: len("x second sentence.")})
	if rec.count() != 2 {
		t.Fatalf("expected second trigger to launch, got %d", rec.count())
	}
	rec.mu.Lock()
	cancels := rec.cancels
	rec.mu.Unlock()
	if cancels != 1 {
		t.Fatalf("expected exactly one cancellation of the superseded request, got %d", cancels)
	}
}
