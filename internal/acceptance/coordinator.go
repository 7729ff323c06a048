// Package acceptance implements the Acceptance Coordinator (C8): applying an
// accepted suffix and orchestrating the follow-up (spec §4.8).
package acceptance

import (
	"time"

	"github.com/inkforge/quillcore/internal/document"
	"github.com/inkforge/quillcore/internal/telemetry"
)

// InFlightCanceller cancels any other in-flight request on a surface
// (satisfied by *triggergate.Gate).
type InFlightCanceller interface {
	CancelInFlight()
}

// Rechainer schedules a fresh trigger after acceptance when auto_chain is
// enabled: a caller-supplied closure, e.g. one that feeds a TextChange
// Trigger Event to triggergate.Gate.Evaluate.
type Rechainer func()

const chainDelay = 500 * time.Millisecond

// Coordinator wires a Document, the in-flight canceller, and the telemetry
// bus together for the acceptance flow.
type Coordinator struct {
	Doc       *document.Document
	InFlight  InFlightCanceller
	Bus       *telemetry.Bus
	AutoChain bool
	Mode      document.CompletionMode
	Rechain   Rechainer

	chainTimer *time.Timer
}

func NewCoordinator(doc *document.Document, inFlight InFlightCanceller, bus *telemetry.Bus) *Coordinator {
	return &Coordinator{Doc: doc, InFlight: inFlight, Bus: bus}
}

// Accept runs the full spec §4.8 flow: insert suffix at anchorPos, bump
// revision, cancel other in-flight requests, optionally schedule a chained
// trigger, and emit CompletionAccepted telemetry.
func (c *Coordinator) Accept(rid document.RequestID, anchorPos int, suffix string) int64 {
	revision := c.Doc.Insert(anchorPos, suffix)

	if c.InFlight != nil {
		c.InFlight.CancelInFlight()
	}

	if c.AutoChain && c.Mode == document.CompletionAutoAI && c.Rechain != nil {
		if c.chainTimer != nil {
			c.chainTimer.Stop()
		}
		c.chainTimer = time.AfterFunc(chainDelay, c.Rechain)
	}

	if c.Bus != nil {
		c.Bus.Publish(telemetry.CompletionAccepted{
			RequestID:  int64(rid),
			SuffixLen:  len([]rune(suffix)),
			DocumentID: string(c.Doc.ID()),
		})
	}

	return revision
}
