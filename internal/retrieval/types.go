// Package retrieval implements the Retrieval Engine (C4): embedding cache,
// circuit breaker, vector similarity search, optional rerank, and a lexical
// fallback, all under a wall-clock budget (spec §4.4).
package retrieval

import (
	"time"

	"github.com/inkforge/quillcore/internal/document"
)

// perModeTopK is the per-mode result count cap (spec §4.4 step 5).
var perModeTopK = map[document.PromptMode]int{
	document.ModeFast:     15,
	document.ModeBalanced: 35,
	document.ModeFull:     50,
}

// perModeQueryCap truncates the query text before embedding (spec §4.4 step 1).
var perModeQueryCap = map[document.PromptMode]int{
	document.ModeFast:     200,
	document.ModeBalanced: 400,
	document.ModeFull:     600,
}

// Params configures one retrieval call.
type Params struct {
	QueryText    string
	Mode         document.PromptMode
	BudgetMs     int
	CancelMs     int
	MinSimilarity float64

	// RerankEnabled and RerankTopK mirror rag.rerank_enabled/rag.rerank_top_k
	// (spec §4.4 step 6, §6). When RerankEnabled is false the Engine's
	// Reranker, if any, is skipped entirely.
	RerankEnabled bool
	RerankTopK    int
}

// Item is one retrieved chunk with its similarity score.
type Item struct {
	DocumentID document.ID
	ChunkIndex int
	Text       string
	Score      float64
}

// Result is returned by Retrieve.
type Result struct {
	Items        []Item
	UsedFallback bool
}

func topKFor(mode document.PromptMode) int {
	if k, ok := perModeTopK[mode]; ok {
		return k
	}
	return perModeTopK[document.ModeBalanced]
}

func queryCapFor(mode document.PromptMode) int {
	if c, ok := perModeQueryCap[mode]; ok {
		return c
	}
	return perModeQueryCap[document.ModeBalanced]
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func nowMs() int64 { return time.Now().UnixMilli() }
