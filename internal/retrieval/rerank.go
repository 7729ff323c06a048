package retrieval

import (
	"context"
	"log/slog"
	"math"
	"sort"
)

// Reranker is the optional refinement step named in spec §4.4 step 6 and
// configured by rag.rerank.* (spec §6), grounded in the teacher's
// ai/rag/document/refiners/rank.go RankRefiner: copy the candidate slice,
// score-sort it descending, then truncate to topK.
//
// When Embed is set, Reranker first re-scores every candidate against the
// query with a dedicated rerank-model embedding (cosine similarity)
// instead of trusting the retrieval-time vector/lexical score as-is; when
// Embed is nil, it only re-sorts and truncates the scores already present.
type Reranker struct {
	// Embed, when non-nil, re-embeds the query and each candidate's text
	// with the rerank model (rag.rerank_model) and replaces Item.Score with
	// their cosine similarity before sorting.
	Embed Embedder
	Model string
	Log   *slog.Logger
}

// NewReranker builds a Reranker. embed may be nil, in which case Rerank
// only sorts and truncates using the scores items already carry.
func NewReranker(embed Embedder, model string, log *slog.Logger) *Reranker {
	if log == nil {
		log = slog.Default()
	}
	return &Reranker{Embed: embed, Model: model, Log: log}
}

// Rerank sorts items by Score descending and truncates to topK (minimum 1),
// re-scoring each item against query first when r.Embed is configured.
func (r *Reranker) Rerank(ctx context.Context, query string, items []Item, topK int) []Item {
	if topK < 1 {
		topK = 1
	}
	if len(items) == 0 {
		return items
	}

	out := make([]Item, len(items))
	copy(out, items)

	if r != nil && r.Embed != nil {
		if rescored, err := r.rescore(ctx, query, out); err != nil {
			r.Log.Warn("retrieval: rerank embedding failed, falling back to retrieval-time scores", "error", err)
		} else {
			out = rescored
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

func (r *Reranker) rescore(ctx context.Context, query string, items []Item) ([]Item, error) {
	queryVec, err := r.Embed.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	for i := range items {
		vec, err := r.Embed.Embed(ctx, items[i].Text)
		if err != nil {
			return nil, err
		}
		items[i].Score = cosineSimilarity(queryVec, vec)
	}
	return items, nil
}

// cosineSimilarity returns the cosine similarity of a and b, or 0 if either
// is empty or a zero vector.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
