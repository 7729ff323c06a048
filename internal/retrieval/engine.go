package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Engine is the Retrieval Engine (C4): it embeds the query, consults the
// embedding cache, queries the vector store behind a circuit breaker, and
// degrades to a lexical fallback on timeout, breaker-open, or vector-store
// error, always honoring the caller's budget (spec §4.4).
type Engine struct {
	Embedder    Embedder
	EmbedModel  string
	Cache       *EmbeddingCache
	Store       VectorStore
	Breaker     *CircuitBreaker
	Lexical     *LexicalIndex
	Log         *slog.Logger

	// Reranker, when set, refines the final item list (spec §4.4 step 6).
	// Left nil when rag.rerank_enabled is false at construction time.
	Reranker *Reranker
}

// NewEngine wires the components; any of Cache/Store/Breaker/Lexical may be
// nil to run in a reduced configuration (e.g. lexical-only for tests).
func NewEngine(embedder Embedder, model string, cache *EmbeddingCache, store VectorStore, breaker *CircuitBreaker, lexical *LexicalIndex, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if breaker == nil {
		breaker = NewCircuitBreaker(BreakerConfig{})
	}
	return &Engine{Embedder: embedder, EmbedModel: model, Cache: cache, Store: store, Breaker: breaker, Lexical: lexical, Log: log}
}

// Retrieve runs the full pipeline for one query under p.BudgetMs, falling
// back to the lexical index and returning Result.UsedFallback=true whenever
// the vector path cannot complete in time or at all.
func (e *Engine) Retrieve(ctx context.Context, p Params) (Result, error) {
	budget := time.Duration(p.BudgetMs) * time.Millisecond
	if budget <= 0 {
		budget = 300 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	query := truncateRunes(p.QueryText, queryCapFor(p.Mode))
	topK := topKFor(p.Mode)

	items, err := e.retrieveVector(ctx, query, topK, p.MinSimilarity)
	if err == nil {
		return Result{Items: e.rerank(ctx, query, items, p)}, nil
	}

	e.Log.Warn("retrieval: falling back to lexical search", "error", err)
	if e.Lexical == nil {
		return Result{}, nil
	}
	fallback := e.Lexical.Search(query, topK)
	return Result{Items: e.rerank(ctx, query, fallback, p), UsedFallback: true}, nil
}

// rerank applies the optional refinement step (spec §4.4 step 6) when both
// the caller requested it and the Engine has a Reranker configured.
func (e *Engine) rerank(ctx context.Context, query string, items []Item, p Params) []Item {
	if !p.RerankEnabled || e.Reranker == nil {
		return items
	}
	topK := p.RerankTopK
	if topK <= 0 {
		topK = len(items)
	}
	return e.Reranker.Rerank(ctx, query, items, topK)
}

func (e *Engine) retrieveVector(ctx context.Context, query string, topK int, minScore float64) ([]Item, error) {
	if e.Store == nil || e.Embedder == nil {
		return nil, errors.New("retrieval: vector path not configured")
	}

	vector, ok := e.cachedVector(query)
	if !ok {
		var err error
		vector, err = e.embedUnderBreaker(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	var items []Item
	searchErr := e.Breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		items, err = e.Store.Search(ctx, Query{Vector: vector, TopK: topK, MinScore: minScore})
		return err
	})
	if searchErr != nil {
		return nil, searchErr
	}
	return items, nil
}

func (e *Engine) cachedVector(query string) ([]float32, bool) {
	if e.Cache == nil {
		return nil, false
	}
	return e.Cache.Get(context.Background(), e.EmbedModel, query)
}

func (e *Engine) embedUnderBreaker(ctx context.Context, query string) ([]float32, error) {
	var vector []float32
	err := e.Breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		vector, err = e.Embedder.Embed(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}
	if e.Cache != nil {
		e.Cache.Put(context.Background(), e.EmbedModel, query, vector)
	}
	return vector, nil
}
