package retrieval

import (
	"context"
	"testing"
)

// perTextEmbedder returns a fixed vector per exact text match, letting a
// test control cosine similarity precisely instead of every item scoring
// identically.
type perTextEmbedder struct {
	vectors map[string][]float32
}

func (e *perTextEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0}, nil
}

func TestRerankSortsDescendingAndTruncates(t *testing.T) {
	r := NewReranker(nil, "", nil)
	items := []Item{
		{DocumentID: "a", Score: 0.2},
		{DocumentID: "b", Score: 0.9},
		{DocumentID: "c", Score: 0.5},
	}

	out := r.Rerank(context.Background(), "query", items, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 items after truncation, got %d", len(out))
	}
	if out[0].DocumentID != "b" || out[1].DocumentID != "c" {
		t.Fatalf("expected [b, c] sorted by score descending, got %+v", out)
	}
	// Rerank must not mutate the caller's slice.
	if items[0].DocumentID != "a" {
		t.Fatal("expected Rerank to copy before sorting")
	}
}

func TestRerankWithEmbedderRescoresByCosineSimilarity(t *testing.T) {
	embed := &perTextEmbedder{vectors: map[string][]float32{
		"query":     {1, 0},
		"matches":   {1, 0},
		"unrelated": {0, 1},
	}}
	r := NewReranker(embed, "rerank-model", nil)

	items := []Item{
		{DocumentID: "unrelated-doc", Text: "unrelated", Score: 0.99},
		{DocumentID: "match-doc", Text: "matches", Score: 0.01},
	}

	out := r.Rerank(context.Background(), "query", items, 10)
	if out[0].DocumentID != "match-doc" {
		t.Fatalf("expected the cosine-aligned item first despite a lower retrieval-time score, got %+v", out)
	}
	if out[0].Score <= out[1].Score {
		t.Fatalf("expected rescored items to reflect cosine similarity, got %+v", out)
	}
}

func TestRerankEmptyInputReturnsEmpty(t *testing.T) {
	r := NewReranker(nil, "", nil)
	out := r.Rerank(context.Background(), "q", nil, 5)
	if len(out) != 0 {
		t.Fatalf("expected no items, got %d", len(out))
	}
}
