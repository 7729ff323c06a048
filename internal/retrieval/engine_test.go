package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/inkforge/quillcore/internal/document"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeStore struct {
	items []Item
	err   error
}

func (f *fakeStore) Upsert(ctx context.Context, points []Point) error { return nil }
func (f *fakeStore) Search(ctx context.Context, q Query) ([]Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}
func (f *fakeStore) DeleteDocument(ctx context.Context, docID document.ID) error { return nil }
func (f *fakeStore) Close() error                                               { return nil }

func TestEngineReturnsVectorResultsOnSuccess(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 2, 3}}
	store := &fakeStore{items: []Item{{DocumentID: "d1", Text: "chunk"}}}
	e := NewEngine(embedder, "m", nil, store, nil, nil, nil)

	res, err := e.Retrieve(context.Background(), Params{QueryText: "hello", Mode: document.ModeBalanced, BudgetMs: 1000})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if res.UsedFallback {
		t.Fatal("expected vector path, not fallback")
	}
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}
}

func TestEngineFallsBackToLexicalOnStoreError(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 2, 3}}
	store := &fakeStore{err: errors.New("qdrant down")}
	lexical := NewLexicalIndex()
	lexical.Add(Item{DocumentID: "d1", ChunkIndex: 0, Text: "hello there friend"})

	e := NewEngine(embedder, "m", nil, store, NewCircuitBreaker(BreakerConfig{FailureThreshold: 100}), lexical, nil)

	res, err := e.Retrieve(context.Background(), Params{QueryText: "hello friend", Mode: document.ModeFast, BudgetMs: 1000})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !res.UsedFallback {
		t.Fatal("expected fallback path")
	}
	if len(res.Items) == 0 {
		t.Fatal("expected lexical fallback to find a match")
	}
}

func TestEngineCachesEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1, 2, 3}}
	store := &fakeStore{items: []Item{{DocumentID: "d1"}}}
	cache, _ := NewEmbeddingCache(8, nil)
	e := NewEngine(embedder, "m", cache, store, nil, nil, nil)

	ctx := context.Background()
	if _, err := e.Retrieve(ctx, Params{QueryText: "repeat me", Mode: document.ModeBalanced, BudgetMs: 1000}); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if _, err := e.Retrieve(ctx, Params{QueryText: "repeat me", Mode: document.ModeBalanced, BudgetMs: 1000}); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if embedder.calls != 1 {
		t.Fatalf("expected embedder called once due to cache hit, got %d calls", embedder.calls)
	}
}
