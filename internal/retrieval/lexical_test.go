package retrieval

import (
	"testing"

	"github.com/inkforge/quillcore/internal/document"
)

func TestLexicalIndexRanksByOverlap(t *testing.T) {
	idx := NewLexicalIndex()
	idx.Add(Item{DocumentID: "d1", ChunkIndex: 0, Text: "the dragon flew over the castle at dawn"})
	idx.Add(Item{DocumentID: "d1", ChunkIndex: 1, Text: "the merchant counted coins in the market"})

	results := idx.Search("dragon flying near the castle", 5)
	if len(results) == 0 {
		t.Fatal("expected at least one match")
	}
	if results[0].ChunkIndex != 0 {
		t.Fatalf("expected chunk 0 to rank first, got %d", results[0].ChunkIndex)
	}
}

func TestLexicalIndexRemoveDocument(t *testing.T) {
	idx := NewLexicalIndex()
	idx.Add(Item{DocumentID: "d1", ChunkIndex: 0, Text: "alpha beta gamma"})
	idx.Add(Item{DocumentID: "d2", ChunkIndex: 0, Text: "alpha beta gamma"})

	idx.RemoveDocument(document.ID("d1"))
	results := idx.Search("alpha beta gamma", 5)
	if len(results) != 1 || results[0].DocumentID != "d2" {
		t.Fatalf("expected only d2 to remain, got %+v", results)
	}
}

func TestLexicalIndexNoOverlapReturnsEmpty(t *testing.T) {
	idx := NewLexicalIndex()
	idx.Add(Item{DocumentID: "d1", ChunkIndex: 0, Text: "completely unrelated content"})
	results := idx.Search("xyz123", 5)
	if len(results) != 0 {
		t.Fatalf("expected no matches, got %+v", results)
	}
}
