package retrieval

import (
	"strings"

	"github.com/inkforge/quillcore/internal/document"
)

// LexicalIndex is a degraded-mode retriever used when the circuit breaker is
// open or the vector store call exceeds budget: plain Jaccard token overlap
// over an in-memory chunk set (spec §4.4 fallback path).
type LexicalIndex struct {
	chunks []lexicalChunk
}

type lexicalChunk struct {
	Item
	tokens map[string]struct{}
}

func NewLexicalIndex() *LexicalIndex {
	return &LexicalIndex{}
}

func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r > 127)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Add indexes one chunk.
func (l *LexicalIndex) Add(item Item) {
	l.chunks = append(l.chunks, lexicalChunk{Item: item, tokens: tokenize(item.Text)})
}

// RemoveDocument drops every chunk belonging to docID, keeping this index in
// sync with vector-store deletes issued by the indexer.
func (l *LexicalIndex) RemoveDocument(docID document.ID) {
	kept := l.chunks[:0]
	for _, c := range l.chunks {
		if c.DocumentID != docID {
			kept = append(kept, c)
		}
	}
	l.chunks = kept
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Search returns the topK chunks with the highest Jaccard overlap against
// query, scores filled in as the overlap ratio.
func (l *LexicalIndex) Search(query string, topK int) []Item {
	q := tokenize(query)
	scored := make([]Item, 0, len(l.chunks))
	for _, c := range l.chunks {
		score := jaccard(q, c.tokens)
		if score <= 0 {
			continue
		}
		item := c.Item
		item.Score = score
		scored = append(scored, item)
	}
	// simple insertion sort descending by score; chunk counts here are small
	for i := 1; i < len(scored); i++ {
		for j := i; j > 0 && scored[j].Score > scored[j-1].Score; j-- {
			scored[j], scored[j-1] = scored[j-1], scored[j]
		}
	}
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
