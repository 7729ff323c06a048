package retrieval

import (
	"context"
	"fmt"

	"github.com/inkforge/quillcore/internal/providerapi"
	"github.com/openai/openai-go/v3"
)

// Embedder turns text into a vector. It is satisfied by *providerapi.Api via
// OpenAIEmbedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder adapts providerapi.Api's Embedding call to Embedder.
type OpenAIEmbedder struct {
	API   *providerapi.Api
	Model string
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.API.Embedding(ctx, &openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: e.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("retrieval: embed: empty response")
	}
	src := resp.Data[0].Embedding
	out := make([]float32, len(src))
	for i, v := range src {
		out[i] = float32(v)
	}
	return out, nil
}
