package retrieval

import (
	"context"
	"fmt"

	"github.com/inkforge/quillcore/internal/document"
	"github.com/qdrant/go-client/qdrant"
)

// Point is one chunk to upsert into the vector store.
type Point struct {
	DocumentID document.ID
	ChunkIndex int
	Text       string
	Vector     []float32
}

// Query carries an already-embedded query vector plus the result cap.
type Query struct {
	Vector   []float32
	TopK     int
	MinScore float64
}

// VectorStore is the narrow interface the pipeline depends on, grounded in
// Tangerg-lynx's ai/vectorstore.VectorStore (Create/Retrieve/Delete/Info).
type VectorStore interface {
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, q Query) ([]Item, error)
	DeleteDocument(ctx context.Context, docID document.ID) error
	Close() error
}

const payloadTextKey = "text"
const payloadDocIDKey = "document_id"
const payloadChunkKey = "chunk_index"

// QdrantStore adapts github.com/qdrant/go-client to VectorStore, grounded in
// ai/providers/vectorstores/qdrant/store.go.
type QdrantStore struct {
	client         *qdrant.Client
	collectionName string
}

// NewQdrantStore connects to addr and ensures the collection exists with the
// given vector dimension (cosine distance, matching the teacher adapter).
func NewQdrantStore(ctx context.Context, addr string, port int, collection string, dim int) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: addr, Port: port})
	if err != nil {
		return nil, fmt.Errorf("retrieval: qdrant connect: %w", err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("retrieval: qdrant collection check: %w", err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("retrieval: qdrant create collection: %w", err)
		}
	}

	return &QdrantStore{client: client, collectionName: collection}, nil
}

func pointID(docID document.ID, chunkIndex int) string {
	return fmt.Sprintf("%s:%d", docID, chunkIndex)
}

// buildUpsertRequest translates Points into the wire shape qdrant expects.
// Split out from Upsert so the payload/vector encoding can be exercised
// directly in tests without a live client or network connection.
func buildUpsertRequest(collection string, points []Point) (*qdrant.UpsertPoints, error) {
	upsert := &qdrant.UpsertPoints{CollectionName: collection}
	for _, p := range points {
		payload, err := qdrant.TryValueMap(map[string]any{
			payloadTextKey:  p.Text,
			payloadDocIDKey: string(p.DocumentID),
			payloadChunkKey: int64(p.ChunkIndex),
		})
		if err != nil {
			return nil, fmt.Errorf("retrieval: build payload: %w", err)
		}
		upsert.Points = append(upsert.Points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(p.DocumentID, p.ChunkIndex)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		})
	}
	return upsert, nil
}

// decodeScoredPoints is the inverse of buildUpsertRequest's payload
// encoding: it turns qdrant's scored search results back into Items.
func decodeScoredPoints(scored []*qdrant.ScoredPoint) []Item {
	items := make([]Item, 0, len(scored))
	for _, pt := range scored {
		payload := pt.GetPayload()
		item := Item{Score: float64(pt.GetScore())}
		if v, ok := payload[payloadTextKey]; ok {
			item.Text = v.GetStringValue()
		}
		if v, ok := payload[payloadDocIDKey]; ok {
			item.DocumentID = document.ID(v.GetStringValue())
		}
		if v, ok := payload[payloadChunkKey]; ok {
			item.ChunkIndex = int(v.GetIntegerValue())
		}
		items = append(items, item)
	}
	return items
}

// buildDeleteRequest builds the filter-based delete-by-document request.
func buildDeleteRequest(collection string, docID document.ID) *qdrant.DeletePoints {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(payloadDocIDKey, string(docID)),
		},
	}
	return &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	}
}

func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	upsert, err := buildUpsertRequest(s.collectionName, points)
	if err != nil {
		return err
	}
	if _, err := s.client.Upsert(ctx, upsert); err != nil {
		return fmt.Errorf("retrieval: qdrant upsert: %w", err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, q Query) ([]Item, error) {
	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(q.Vector...),
		Limit:          qdrantUint64(q.TopK),
		ScoreThreshold: qdrantFloat32(float32(q.MinScore)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval: qdrant query: %w", err)
	}
	return decodeScoredPoints(scored), nil
}

func (s *QdrantStore) DeleteDocument(ctx context.Context, docID document.ID) error {
	if _, err := s.client.Delete(ctx, buildDeleteRequest(s.collectionName, docID)); err != nil {
		return fmt.Errorf("retrieval: qdrant delete: %w", err)
	}
	return nil
}

func (s *QdrantStore) Close() error { return s.client.Close() }

func qdrantUint64(v int) *uint64 {
	u := uint64(v)
	return &u
}

func qdrantFloat32(v float32) *float32 { return &v }
