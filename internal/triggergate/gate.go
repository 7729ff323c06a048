// Package triggergate implements the Trigger Gate (C2): debounce, throttle,
// content heuristics, and mode policy deciding whether a Trigger Event
// becomes a Completion Request, with a single in-flight slot per surface
// and strictly monotonic request ids (spec §4.2).
package triggergate

import (
	"context"
	"sync"
	"time"

	"github.com/inkforge/quillcore/internal/document"
)

// LaunchFunc starts the C3→C5→C6 pipeline for an accepted trigger. It
// returns a cancel function the Gate calls if a later request supersedes
// this one before it completes.
type LaunchFunc func(ctx context.Context, evt document.TriggerEvent, requestID document.RequestID, mode document.PromptMode) (cancel func())

// BufferView lets the Gate inspect live buffer state without owning the
// document, mirroring the worker/editor-thread split in spec §5.
type BufferView interface {
	// Content returns the full buffer text and the count of non-whitespace
	// characters preceding the cursor.
	Content() (full string, nonWhitespaceBeforeCursor int)
}

// Gate is the Trigger Gate. Trigger evaluation for one editor surface is
// single-threaded (spec §4.2 "Ordering guarantees"); a Gate instance
// represents exactly one surface.
type Gate struct {
	mu sync.Mutex

	cfg    Config
	launch LaunchFunc
	buffer BufferView

	nextRequestID   int64
	lastLaunch      time.Time
	haveFingerprint bool
	lastFingerprint uint64

	debounceTimer *time.Timer
	pending       *document.TriggerEvent

	currentRequestID int64
	currentCancel    func()
}

// New creates a Gate. buffer supplies live content for fingerprinting and
// min-chars checks; launch starts the downstream pipeline when a trigger is
// accepted.
func New(cfg Config, buffer BufferView, launch LaunchFunc) *Gate {
	return &Gate{cfg: cfg, buffer: buffer, launch: launch}
}

// SetConfig replaces the gate's policy. Safe to call concurrently with Evaluate.
func (g *Gate) SetConfig(cfg Config) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg = cfg
}

// Evaluate applies the C2 policy to a Trigger Event (spec §4.2, steps 1-8).
func (g *Gate) Evaluate(evt document.TriggerEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cfg := g.cfg

	// Step 1: global off-switch, except Manual still honors completion_enabled.
	if cfg.Mode == document.CompletionDisabled || !cfg.CompletionEnabled {
		return
	}

	// Step 2: ManualAI mode only reacts to Manual events.
	if cfg.Mode == document.CompletionManualAI && evt.Kind != document.TriggerManual {
		return
	}

	content, nonWSBefore := g.buffer.Content()

	// Step 3: fingerprint dedup. Manual events skip it, so an explicit
	// request may launch on unchanged content.
	fp := Fingerprint(content)
	if g.haveFingerprint && fp == g.lastFingerprint && evt.Kind != document.TriggerManual {
		return
	}

	// Step 4: minimum preceding non-whitespace characters.
	if nonWSBefore < cfg.MinChars {
		return
	}

	if evt.Kind == document.TriggerManual {
		g.haveFingerprint = true
		g.lastFingerprint = fp
		g.launchNow(evt)
		return
	}

	// CursorMove alone never triggers (spec §4.1); only TextChange reaches
	// the heuristic/debounce pipeline.
	if evt.Kind != document.TriggerTextChange {
		return
	}

	// Step 5: heuristic filter on the character before the cursor.
	textBeforeCursor := runesBefore(content, evt.CursorPos)
	switch classify(textBeforeCursor) {
	case verdictDrop:
		return
	case verdictAccept:
		g.haveFingerprint = true
		g.lastFingerprint = fp
		g.debounceThenLaunch(evt, 0)
		return
	case verdictNeutral:
		g.haveFingerprint = true
		g.lastFingerprint = fp
		g.debounceThenLaunch(evt, time.Duration(cfg.DebounceMs)*time.Millisecond)
	}
}

// debounceThenLaunch starts or restarts the single-shot debounce timer. A
// zero delay (strong heuristic trigger) fires immediately but still passes
// through the throttle check on expiry.
func (g *Gate) debounceThenLaunch(evt document.TriggerEvent, delay time.Duration) {
	pending := evt
	g.pending = &pending

	if g.debounceTimer != nil {
		g.debounceTimer.Stop()
	}
	if delay <= 0 {
		g.onDebounceExpired()
		return
	}
	g.debounceTimer = time.AfterFunc(delay, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.onDebounceExpired()
	})
}

// onDebounceExpired runs the throttle check (step 7) and launches (step 8).
// Must be called with g.mu held.
func (g *Gate) onDebounceExpired() {
	if g.pending == nil {
		return
	}
	evt := *g.pending
	g.pending = nil

	if evt.Kind != document.TriggerManual {
		if !g.lastLaunch.IsZero() {
			elapsed := time.Since(g.lastLaunch)
			if elapsed < time.Duration(g.cfg.ThrottleMs)*time.Millisecond {
				return
			}
		}
	}
	g.launchNow(evt)
}

// launchNow allocates a request id, cancels any prior in-flight request on
// this surface, and starts the downstream pipeline. Must be called with
// g.mu held.
func (g *Gate) launchNow(evt document.TriggerEvent) {
	if g.currentCancel != nil {
		g.currentCancel()
		g.currentCancel = nil
	}

	g.nextRequestID++
	rid := document.RequestID(g.nextRequestID)
	g.currentRequestID = g.nextRequestID
	g.lastLaunch = time.Now()

	if g.launch == nil {
		return
	}
	cancel := g.launch(context.Background(), evt, rid, g.cfg.PromptMode)
	g.currentCancel = cancel
}

// CurrentRequestID returns the request id of the surface's in-flight slot
// (0 if none).
func (g *Gate) CurrentRequestID() document.RequestID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return document.RequestID(g.currentRequestID)
}

// CancelInFlight cancels whatever request currently occupies the in-flight
// slot, e.g. on document switch (spec §8 scenario 6) or acceptance (§4.8 step 3).
func (g *Gate) CancelInFlight() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentCancel != nil {
		g.currentCancel()
		g.currentCancel = nil
	}
}

func runesBefore(content string, cursorPos int) string {
	runes := []rune(content)
	if cursorPos < 0 {
		cursorPos = 0
	}
	if cursorPos > len(runes) {
		cursorPos = len(runes)
	}
	return string(runes[:cursorPos])
}
