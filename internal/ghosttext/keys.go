package ghosttext

// Key is the small set of key events the overlay reacts to while Displayed
// (spec §4.7 "Key handling"). The host editor maps its native key events
// onto this set.
type Key int

const (
	KeyOther Key = iota
	KeyTab
	KeyEnter
	KeyEscape
	KeySpace
	KeyPrintable
)

// AcceptResult is returned by HandleKey when the key triggers acceptance.
type AcceptResult struct {
	Suffix    string
	AnchorPos int
}

// HandleKey applies spec §4.7's key table. currentLineEmpty is only
// consulted for KeyEnter ("Enter on an empty line -> Accept"). Returns
// (accept, true) when the key should insert the suffix, or (zero, false)
// otherwise (the overlay may already have been cleared as a side effect).
func (m *Machine) HandleKey(key Key, cursorPos int, currentLineEmpty bool) (AcceptResult, bool) {
	m.mu.Lock()
	if m.phase != PhaseDisplayed {
		m.mu.Unlock()
		return AcceptResult{}, false
	}
	m.mu.Unlock()

	switch key {
	case KeyTab:
		if suffix, anchor, ok := m.Accept(cursorPos); ok {
			return AcceptResult{Suffix: suffix, AnchorPos: anchor}, true
		}
		return AcceptResult{}, false

	case KeyEnter:
		if currentLineEmpty {
			if suffix, anchor, ok := m.Accept(cursorPos); ok {
				return AcceptResult{Suffix: suffix, AnchorPos: anchor}, true
			}
		}
		return AcceptResult{}, false

	case KeyEscape:
		m.Reject()
		return AcceptResult{}, false

	case KeySpace:
		m.ExtendAutoHide()
		return AcceptResult{}, false

	case KeyPrintable:
		ov := m.Overlay()
		if ov == nil {
			return AcceptResult{}, false
		}
		end := ov.AnchorPos + len([]rune(ov.Suffix))
		if cursorPos < ov.AnchorPos || cursorPos > end {
			m.Reject()
		}
		return AcceptResult{}, false

	default:
		return AcceptResult{}, false
	}
}
