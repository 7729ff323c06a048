package ghosttext

import (
	"sync"
	"time"

	"github.com/inkforge/quillcore/internal/document"
)

// Phase is the coarse state name (spec §4.7 state transition table).
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRequesting
	PhaseDisplayed
)

const (
	cursorTolerance      = 5
	acceptAnchorTolerance = 50
	defaultAutoHide       = 20 * time.Second
	extendedAutoHide      = 30 * time.Second
)

// Overlay is the frozen, anchored display produced on first render of a
// Result; it never relocates or rewraps on its own (spec §4.7 "Anchoring").
type Overlay struct {
	RequestID   document.RequestID
	AnchorPos   int
	Suffix      string
	WrappedLines []string
}

// Wrapper wraps display text to a pixel width using editor font metrics;
// satisfied by the host application's text layout engine.
type Wrapper interface {
	Wrap(text string, maxWidthPx int) []string
}

// Machine is the Ghost-Text State Machine for one editor surface.
type Machine struct {
	mu sync.Mutex

	phase        Phase
	requestingID document.RequestID
	overlay      *Overlay

	wrapper    Wrapper
	widthPx    int
	autoHideAt time.Time
	autoHide   *time.Timer

	onClear func()
}

func NewMachine(wrapper Wrapper, widthPx int) *Machine {
	return &Machine{wrapper: wrapper, widthPx: widthPx, phase: PhaseIdle}
}

// SetOnClear registers a callback invoked whenever the overlay is cleared
// (so the host can repaint).
func (m *Machine) SetOnClear(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClear = fn
}

func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Machine) Overlay() *Overlay {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlay
}

// Requesting transitions Idle -> Requesting(rid), showing a "thinking"
// indicator is the caller's responsibility (non-modal UI concern).
func (m *Machine) Requesting(rid document.RequestID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseRequesting
	m.requestingID = rid
	m.overlay = nil
}

// Result delivers a Completion Result. Stale results (not matching the
// currently requesting id) are discarded silently, matching spec §4.7's
// "Requesting(rid) -> Result(other_rid, *) -> unchanged".
func (m *Machine) Result(res document.CompletionResult, beforeCursor string, cursorPos int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseRequesting || res.RequestID != m.requestingID {
		return
	}

	if res.Status != document.StatusOk {
		m.toIdleLocked()
		return
	}

	suffix := Diff(beforeCursor, res.Text)
	if suffix == "" {
		m.toIdleLocked()
		return
	}

	var lines []string
	if m.wrapper != nil {
		lines = m.wrapper.Wrap(suffix, m.widthPx)
	} else {
		lines = []string{suffix}
	}
	m.overlay = &Overlay{RequestID: res.RequestID, AnchorPos: cursorPos, Suffix: suffix, WrappedLines: lines}
	m.phase = PhaseDisplayed
	m.resetAutoHideLocked(defaultAutoHide)
}

// CursorMoved applies spec §4.7's tolerance rule: small moves keep the
// overlay, moves beyond tolerance clear it.
func (m *Machine) CursorMoved(cursorPos int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseDisplayed || m.overlay == nil {
		return
	}
	delta := cursorPos - m.overlay.AnchorPos
	if delta < 0 {
		delta = -delta
	}
	if delta > cursorTolerance {
		m.toIdleLocked()
	}
}

// TextChanged clears the overlay if the edit falls inside the anchor's
// suffix range, extending the auto-hide timer first per spec §4.7.
func (m *Machine) TextChanged(editPos int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseDisplayed || m.overlay == nil {
		return
	}
	end := m.overlay.AnchorPos + len([]rune(m.overlay.Suffix))
	if editPos >= m.overlay.AnchorPos && editPos <= end {
		m.resetAutoHideLocked(extendedAutoHide)
		m.toIdleLocked()
	}
}

// Accept validates the anchor and returns the suffix to insert, or ("",
// false) if acceptance must be refused (spec §4.7 "Anchor validity").
func (m *Machine) Accept(cursorPos int) (suffix string, anchorPos int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseDisplayed || m.overlay == nil {
		return "", 0, false
	}
	delta := cursorPos - m.overlay.AnchorPos
	if delta < 0 {
		delta = -delta
	}
	if delta > acceptAnchorTolerance {
		m.toIdleLocked()
		return "", 0, false
	}
	suffix, anchorPos = m.overlay.Suffix, m.overlay.AnchorPos
	m.toIdleLocked()
	return suffix, anchorPos, true
}

// Reject clears the overlay unconditionally (Escape, Reject, or a
// disqualifying key press).
func (m *Machine) Reject() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toIdleLocked()
}

// ExtendAutoHide resets the auto-hide timer without altering the overlay
// (Space key per spec §4.7 "Key handling").
func (m *Machine) ExtendAutoHide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseDisplayed {
		m.resetAutoHideLocked(defaultAutoHide)
	}
}

// Resize re-runs wrapping using the stored anchor and display text,
// without relocating the anchor (spec §4.7 "Anchoring").
func (m *Machine) Resize(widthPx int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.widthPx = widthPx
	if m.overlay == nil || m.wrapper == nil {
		return
	}
	m.overlay.WrappedLines = m.wrapper.Wrap(m.overlay.Suffix, widthPx)
}

func (m *Machine) resetAutoHideLocked(d time.Duration) {
	if m.autoHide != nil {
		m.autoHide.Stop()
	}
	m.autoHide = time.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.toIdleLocked()
	})
}

func (m *Machine) toIdleLocked() {
	if m.autoHide != nil {
		m.autoHide.Stop()
		m.autoHide = nil
	}
	wasIdle := m.phase == PhaseIdle && m.overlay == nil
	m.phase = PhaseIdle
	m.overlay = nil
	if !wasIdle && m.onClear != nil {
		go m.onClear()
	}
}
