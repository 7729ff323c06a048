// Package document defines the core data model shared across every
// component: the live document buffer, trigger events, completion
// requests/results, and the other record types listed in the data model.
package document

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ID identifies a document stably across its lifetime.
type ID string

// NewID mints a new document identifier.
func NewID() ID { return ID(uuid.NewString()) }

// Document is an ordered sequence of Unicode scalars with a cursor position
// and a monotonic revision counter. Revision is the basis for discarding
// stale Completion Results (spec §3 invariant).
type Document struct {
	mu       sync.RWMutex
	id       ID
	text     []rune
	cursor   int
	revision int64
}

// New creates a Document with the given id and initial text, cursor at the
// end of the text, revision 0.
func New(id ID, text string) *Document {
	r := []rune(text)
	return &Document{id: id, text: r, cursor: len(r)}
}

func (d *Document) ID() ID { return d.id }

// Snapshot returns the current text, cursor position, and revision under a
// single read lock, so callers observe a consistent triple.
func (d *Document) Snapshot() (text string, cursor int, revision int64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return string(d.text), d.cursor, d.revision
}

func (d *Document) Revision() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.revision
}

// SetCursor moves the cursor without mutating text or bumping revision
// (cursor moves alone never trigger a completion, spec §4.1).
func (d *Document) SetCursor(pos int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor = clamp(pos, 0, len(d.text))
}

// Insert inserts s at pos, advances the cursor past the inserted text, and
// bumps the revision. Returns the new revision.
func (d *Document) Insert(pos int, s string) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	pos = clamp(pos, 0, len(d.text))
	ins := []rune(s)
	merged := make([]rune, 0, len(d.text)+len(ins))
	merged = append(merged, d.text[:pos]...)
	merged = append(merged, ins...)
	merged = append(merged, d.text[pos:]...)
	d.text = merged
	d.cursor = pos + len(ins)
	d.revision++
	return d.revision
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TriggerKind distinguishes the editor notification that produced a Trigger Event.
type TriggerKind int

const (
	TriggerTextChange TriggerKind = iota
	TriggerCursorMove
	TriggerManual
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerTextChange:
		return "TextChange"
	case TriggerCursorMove:
		return "CursorMove"
	case TriggerManual:
		return "Manual"
	default:
		return "Unknown"
	}
}

// TriggerEvent is produced by the Edit Monitor and consumed by the Trigger Gate.
type TriggerEvent struct {
	DocumentID ID
	Revision   int64
	CursorPos  int
	Kind       TriggerKind
	Timestamp  time.Time
}

// PromptMode is the Fast/Balanced/Full axis controlling window size, token
// caps and retrieval aggressiveness.
type PromptMode int

const (
	ModeFast PromptMode = iota
	ModeBalanced
	ModeFull
)

func (m PromptMode) String() string {
	switch m {
	case ModeFast:
		return "Fast"
	case ModeBalanced:
		return "Balanced"
	case ModeFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// CompletionMode is the AutoAI/ManualAI/Disabled axis the Trigger Gate polices.
type CompletionMode int

const (
	CompletionAutoAI CompletionMode = iota
	CompletionManualAI
	CompletionDisabled
)

// CompletionKind is the variant of text being completed.
type CompletionKind int

const (
	KindText CompletionKind = iota
	KindDialogue
	KindDescription
	KindHeading
	KindCharacter
	KindLocation
	KindTime
	KindMetadataTag
	KindParagraph
)

func (k CompletionKind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindDialogue:
		return "Dialogue"
	case KindDescription:
		return "Description"
	case KindHeading:
		return "Heading"
	case KindCharacter:
		return "Character"
	case KindLocation:
		return "Location"
	case KindTime:
		return "Time"
	case KindMetadataTag:
		return "MetadataTag"
	case KindParagraph:
		return "Paragraph"
	default:
		return "Unknown"
	}
}

// RequestID is a per-surface monotonic identifier for a Completion Request.
type RequestID int64

// RagChunk is one retrieved context fragment.
type RagChunk struct {
	DocumentID ID
	ChunkIndex int
	Text       string
	Score      float64
}

// CompletionRequest is immutable after launch (spec §3).
type CompletionRequest struct {
	RequestID        RequestID
	DocumentID       ID
	RevisionAtLaunch int64
	CursorAtLaunch   int
	PromptMode       PromptMode
	CompletionKind   CompletionKind
	TextWindow       string
	RagContext       []RagChunk
	BuiltPrompt      string
	MaxTokens        int
	Temperature      float64
	Deadline         time.Time
	// Idempotent marks requests safe to retry on network error (spec §4.6):
	// deterministic temperature or an explicit idempotency key was supplied.
	Idempotent bool
}

// ResultStatus is the terminal status of a Completion Result.
type ResultStatus int

const (
	StatusOk ResultStatus = iota
	StatusCancelled
	StatusTimeout
	StatusError
)

// ErrKind is the error-handling taxonomy from spec §7.
type ErrKind int

const (
	ErrNone ErrKind = iota
	ErrConfiguration
	ErrNetwork
	ErrTimeout
	ErrProvider
	ErrProtocol
	ErrCancelled
	ErrStale
)

func (k ErrKind) String() string {
	switch k {
	case ErrConfiguration:
		return "Configuration"
	case ErrNetwork:
		return "Network"
	case ErrTimeout:
		return "Timeout"
	case ErrProvider:
		return "Provider"
	case ErrProtocol:
		return "Protocol"
	case ErrCancelled:
		return "Cancelled"
	case ErrStale:
		return "Stale"
	default:
		return "None"
	}
}

// Usage carries both the character-proxy accounting the builder enforces
// and an informational tiktoken-based estimate (SPEC_FULL.md §B), neither
// of which gates the other.
type Usage struct {
	PromptChars     int
	CompletionChars int
	PromptTokensEst int
	OutputTokensEst int
}

// CompletionResult is returned by the Completion Client, tagged with the
// request id that produced it so stale results can be discarded.
type CompletionResult struct {
	RequestID RequestID
	Status    ResultStatus
	ErrKind   ErrKind
	Text      string
	Usage     *Usage
	Err       error
}
