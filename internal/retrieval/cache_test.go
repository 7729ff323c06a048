package retrieval

import "testing"

func TestEmbeddingCacheMemTierHit(t *testing.T) {
	c, err := NewEmbeddingCache(4, nil)
	if err != nil {
		t.Fatalf("NewEmbeddingCache: %v", err)
	}
	vec := []float32{0.1, 0.2, 0.3}
	c.Put(nil, "model-a", "hello world", vec)

	got, ok := c.Get(nil, "model-a", "hello world")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != len(vec) {
		t.Fatalf("expected %v, got %v", vec, got)
	}
}

func TestEmbeddingCacheMissForDifferentModel(t *testing.T) {
	c, _ := NewEmbeddingCache(4, nil)
	c.Put(nil, "model-a", "hello", []float32{1})
	if _, ok := c.Get(nil, "model-b", "hello"); ok {
		t.Fatal("expected miss for a different model's key")
	}
}
