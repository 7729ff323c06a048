package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/inkforge/quillcore/internal/document"
	"github.com/qdrant/go-client/qdrant"
)

// TestNewQdrantStoreReturnsWrappedErrorWithNoServer exercises the
// constructor's real dial/CollectionExists path end to end against a
// closed local port: no qdrant server is required, but the call must still
// reach CollectionExists and come back as a wrapped connect/check error
// rather than hang or panic.
func TestNewQdrantStoreReturnsWrappedErrorWithNoServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Port 1 is a reserved, never-listened-on TCP port; dialing it fails
	// fast instead of risking a long OS-level connect timeout.
	_, err := NewQdrantStore(ctx, "127.0.0.1", 1, "notes", 3)
	if err == nil {
		t.Fatal("expected an error connecting to a closed port")
	}
}

func TestBuildUpsertRequestEncodesPayloadAndVector(t *testing.T) {
	points := []Point{
		{DocumentID: "doc-1", ChunkIndex: 2, Text: "hello world", Vector: []float32{0.1, 0.2, 0.3}},
		{DocumentID: "doc-2", ChunkIndex: 0, Text: "second chunk", Vector: []float32{0.4, 0.5}},
	}

	req, err := buildUpsertRequest("notes", points)
	if err != nil {
		t.Fatalf("buildUpsertRequest: %v", err)
	}
	if req.CollectionName != "notes" {
		t.Fatalf("expected collection name to round-trip, got %q", req.CollectionName)
	}
	if len(req.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(req.Points))
	}

	first := req.Points[0]
	if first.Id == nil {
		t.Fatal("expected a point id to be assigned")
	}
	payload := first.Payload
	if got := payload[payloadTextKey].GetStringValue(); got != "hello world" {
		t.Fatalf("expected text payload to round-trip, got %q", got)
	}
	if got := payload[payloadDocIDKey].GetStringValue(); got != "doc-1" {
		t.Fatalf("expected document id payload to round-trip, got %q", got)
	}
	if got := payload[payloadChunkKey].GetIntegerValue(); got != 2 {
		t.Fatalf("expected chunk index payload to round-trip, got %d", got)
	}
}

func TestDecodeScoredPointsIsInverseOfUpsertPayload(t *testing.T) {
	payload, err := qdrant.TryValueMap(map[string]any{
		payloadTextKey:  "rainy streets at dusk",
		payloadDocIDKey: "doc-7",
		payloadChunkKey: int64(3),
	})
	if err != nil {
		t.Fatalf("TryValueMap: %v", err)
	}

	scored := []*qdrant.ScoredPoint{
		{Score: 0.87, Payload: payload},
	}

	items := decodeScoredPoints(scored)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.DocumentID != document.ID("doc-7") {
		t.Fatalf("expected document id doc-7, got %q", item.DocumentID)
	}
	if item.ChunkIndex != 3 {
		t.Fatalf("expected chunk index 3, got %d", item.ChunkIndex)
	}
	if item.Text != "rainy streets at dusk" {
		t.Fatalf("expected text to round-trip, got %q", item.Text)
	}
	if float32(item.Score) != 0.87 {
		t.Fatalf("expected score 0.87, got %v", item.Score)
	}
}

func TestBuildDeleteRequestFiltersByDocumentID(t *testing.T) {
	req := buildDeleteRequest("notes", document.ID("doc-9"))
	if req.CollectionName != "notes" {
		t.Fatalf("expected collection name to round-trip, got %q", req.CollectionName)
	}
	if req.Points == nil {
		t.Fatal("expected a points selector to be set")
	}
}

func TestPointIDIsStableForSameDocumentAndChunk(t *testing.T) {
	a := pointID("doc-1", 4)
	b := pointID("doc-1", 4)
	c := pointID("doc-1", 5)
	if a != b {
		t.Fatalf("expected pointID to be deterministic, got %q vs %q", a, b)
	}
	if a == c {
		t.Fatal("expected different chunk indexes to produce different point ids")
	}
}
