package corecontext

import (
	"context"
	"time"
	"unicode"

	"github.com/inkforge/quillcore/internal/acceptance"
	"github.com/inkforge/quillcore/internal/config"
	"github.com/inkforge/quillcore/internal/contextextractor"
	"github.com/inkforge/quillcore/internal/document"
	"github.com/inkforge/quillcore/internal/editormonitor"
	"github.com/inkforge/quillcore/internal/ghosttext"
	"github.com/inkforge/quillcore/internal/prompt"
	"github.com/inkforge/quillcore/internal/retrieval"
	"github.com/inkforge/quillcore/internal/triggergate"
)

// Surface is one open editor view: its own Document, Edit Monitor, Trigger
// Gate, Ghost-Text Machine, and Acceptance Coordinator, all sharing the
// CoreContext's configuration, template registry, retrieval engine, and
// completion client (spec §5 "a single editor thread owns the document,
// C1, C2, C7, C8"). This is the single-flight pipeline named in spec §2:
// "C2 orchestrates a single-flight through C3→C4→C5→C6→C7."
type Surface struct {
	cc  *CoreContext
	Doc *document.Document

	Monitor     *editormonitor.Monitor
	Gate        *triggergate.Gate
	Ghost       *ghosttext.Machine
	Coordinator *acceptance.Coordinator
}

// documentBuffer adapts *document.Document to triggergate.BufferView.
type documentBuffer struct{ doc *document.Document }

func (b documentBuffer) Content() (string, int) {
	text, cursor, _ := b.doc.Snapshot()
	runes := []rune(text)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	count := 0
	for _, r := range runes[:cursor] {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return text, count
}

// OpenSurface creates a Surface over doc, wiring the full C1-C8 pipeline
// against cc's shared retrieval engine, prompt builder, and completion
// client, using wrapper for C7's font-metric-driven line wrapping.
func (cc *CoreContext) OpenSurface(doc *document.Document, wrapper ghosttext.Wrapper, widthPx int) *Surface {
	s := &Surface{
		cc:    cc,
		Doc:   doc,
		Ghost: ghosttext.NewMachine(wrapper, widthPx),
	}

	s.Monitor = editormonitor.New(8)
	s.Monitor.SetCurrentDocument(doc.ID())

	cfg := cc.Config.Snapshot()
	s.Gate = triggergate.New(triggergate.Config{
		Mode:              cfg.Completion.Mode,
		CompletionEnabled: cfg.Completion.Enabled,
		DebounceMs:        cfg.Completion.DebounceMs,
		ThrottleMs:        cfg.Completion.ThrottleMs,
		MinChars:          cfg.Completion.MinChars,
		PunctuationAssist: cfg.Completion.PunctuationAssist,
		PromptMode:        cfg.Completion.PromptMode,
		AutoChain:         cfg.Completion.AutoChain,
	}, documentBuffer{doc}, s.launch)

	s.Coordinator = acceptance.NewCoordinator(doc, s.Gate, cc.Bus)
	s.Coordinator.AutoChain = cfg.Completion.AutoChain
	s.Coordinator.Mode = cfg.Completion.Mode

	cc.Config.Subscribe(func(updated config.Config) {
		s.Gate.SetConfig(triggergate.Config{
			Mode:              updated.Completion.Mode,
			CompletionEnabled: updated.Completion.Enabled,
			DebounceMs:        updated.Completion.DebounceMs,
			ThrottleMs:        updated.Completion.ThrottleMs,
			MinChars:          updated.Completion.MinChars,
			PunctuationAssist: updated.Completion.PunctuationAssist,
			PromptMode:        updated.Completion.PromptMode,
			AutoChain:         updated.Completion.AutoChain,
		})
		s.Coordinator.AutoChain = updated.Completion.AutoChain
		s.Coordinator.Mode = updated.Completion.Mode
	})

	s.Coordinator.Rechain = func() {
		text, cursor, revision := doc.Snapshot()
		s.Gate.Evaluate(document.TriggerEvent{
			DocumentID: doc.ID(),
			Revision:   revision,
			CursorPos:  cursor,
			Kind:       document.TriggerTextChange,
			Timestamp:  time.Now(),
		})
		_ = text
	}

	cc.surfaceOpened()
	go s.pump()

	return s
}

// Close tears down the Surface: stops the Edit Monitor (ending pump),
// cancels any in-flight completion request, and retunes the CoreContext's
// shared worker pool back down now that one fewer surface is active (spec
// §5 "bounded parallelism ... equal to the number of active surfaces").
func (s *Surface) Close() {
	s.Gate.CancelInFlight()
	s.Monitor.Stop()
	s.cc.surfaceClosed()
}

// pump drains Trigger Events from the Edit Monitor into the Trigger Gate,
// the boundary between C1 (no I/O) and C2 (the policy gate), run on the
// single editor-thread goroutine for this surface.
func (s *Surface) pump() {
	for evt := range s.Monitor.Events() {
		s.Gate.Evaluate(evt)
	}
}

// launch is the triggergate.LaunchFunc: it runs C3 (extract) synchronously
// — it is pure and fast — then hands the rest of the pipeline to the
// shared worker pool so the editor thread is never blocked on retrieval or
// completion I/O (spec §5 "Suspension points").
func (s *Surface) launch(_ context.Context, evt document.TriggerEvent, requestID document.RequestID, mode document.PromptMode) (cancel func()) {
	ctx, cancelFn := context.WithCancel(context.Background())

	text, _, revision := s.Doc.Snapshot()
	if revision != evt.Revision {
		cancelFn()
		return func() {}
	}

	window := contextextractor.Extract(text, evt.CursorPos, mode)
	s.Ghost.Requesting(requestID)

	err := s.cc.Pool.Submit(func() {
		s.runPipeline(ctx, requestID, evt, mode, window, text)
	})
	if err != nil {
		// Backpressure: worker pool saturated (spec §5). The prior token
		// was already cancelled by the Gate before calling launch; no
		// replacement is enqueued.
		s.Ghost.Result(document.CompletionResult{RequestID: requestID, Status: document.StatusError, ErrKind: document.ErrNetwork}, "", evt.CursorPos)
		cancelFn()
	}

	return cancelFn
}

// runPipeline executes C4 (retrieval) -> C5 (prompt) -> C6 (completion),
// then delivers the tagged Result to C7. It runs entirely on a worker
// goroutine; ctx carries cancellation from supersession or document switch.
func (s *Surface) runPipeline(ctx context.Context, requestID document.RequestID, evt document.TriggerEvent, mode document.PromptMode, window contextextractor.Window, fullText string) {
	cfg := s.cc.Config.Snapshot()

	var ragChunks []document.RagChunk
	if cfg.Rag.Enabled && s.cc.RetrievalEngine != nil {
		budgetMs := budgetForMode(mode)
		res, err := s.cc.RetrievalEngine.Retrieve(ctx, retrieval.Params{
			QueryText:     window.Text,
			Mode:          mode,
			BudgetMs:      budgetMs,
			CancelMs:      200,
			MinSimilarity: cfg.Rag.SimilarityThreshold,
			RerankEnabled: cfg.Rag.RerankEnabled,
			RerankTopK:    cfg.Rag.RerankTopK,
		})
		if err == nil {
			for _, item := range res.Items {
				ragChunks = append(ragChunks, document.RagChunk{
					DocumentID: item.DocumentID,
					ChunkIndex: item.ChunkIndex,
					Text:       item.Text,
					Score:      item.Score,
				})
			}
		}
	}

	out, err := s.cc.PromptBuilder.Build(prompt.Inputs{
		TextWindow: window.Text,
		Kind:       window.Kind,
		Mode:       mode,
		RagContext: ragChunks,
		TemplateID: "default",
	})
	if err != nil {
		s.deliver(requestID, document.CompletionResult{RequestID: requestID, Status: document.StatusError, ErrKind: document.ErrProtocol, Err: err}, evt.CursorPos)
		return
	}

	if s.cc.CompletionClient == nil {
		s.deliver(requestID, document.CompletionResult{RequestID: requestID, Status: document.StatusError, ErrKind: document.ErrConfiguration}, evt.CursorPos)
		return
	}

	req := &document.CompletionRequest{
		RequestID:        requestID,
		DocumentID:       evt.DocumentID,
		RevisionAtLaunch: evt.Revision,
		CursorAtLaunch:   evt.CursorPos,
		PromptMode:       mode,
		CompletionKind:   window.Kind,
		TextWindow:       window.Text,
		RagContext:       ragChunks,
		BuiltPrompt:      out.Prompt,
		MaxTokens:        out.MaxOutputTokens,
		Temperature:      cfg.Provider.Temperature,
		Deadline:         time.Now().Add(time.Duration(cfg.Provider.TimeoutMs) * time.Millisecond),
		Idempotent:       cfg.Provider.Temperature == 0,
	}

	result := s.cc.CompletionClient.Complete(ctx, req)
	if s.Doc.Revision() != evt.Revision {
		result = document.CompletionResult{RequestID: requestID, Status: document.StatusError, ErrKind: document.ErrStale}
	}
	s.deliver(requestID, result, evt.CursorPos)
}

// deliver discards results whose request id no longer matches the surface's
// in-flight id (spec §3 invariant: "A Result whose request_id does not
// match the current in-flight id is discarded"), then hands survivors to the
// Ghost-Text State Machine. runPipeline has already replaced a completion
// whose launch revision is out of date with a Stale error result.
func (s *Surface) deliver(requestID document.RequestID, result document.CompletionResult, cursorAtLaunch int) {
	if s.Gate.CurrentRequestID() != requestID {
		return
	}
	text, cursor, _ := s.Doc.Snapshot()
	runes := []rune(text)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	before := string(runes[:cursor])
	s.Ghost.Result(result, before, cursor)
}

// Accept drives C8: validate the overlay's anchor, apply the suffix, and
// orchestrate the follow-up.
func (s *Surface) Accept(cursorPos int) bool {
	overlay := s.Ghost.Overlay()
	suffix, anchor, ok := s.Ghost.Accept(cursorPos)
	if !ok {
		return false
	}
	var rid document.RequestID
	if overlay != nil {
		rid = overlay.RequestID
	}
	s.Coordinator.Accept(rid, anchor, suffix)
	return true
}

func budgetForMode(mode document.PromptMode) int {
	switch mode {
	case document.ModeFast:
		return 150
	case document.ModeFull:
		return 600
	default:
		return 300
	}
}

