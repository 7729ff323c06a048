// Package providerapi wraps the OpenAI-compatible wire client shared by the
// Completion Client (C6) and the Retrieval Engine's embedding step (C4),
// grounded in Tangerg-lynx's ai/extensions/models/openai Api wrapper.
package providerapi

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

// Config names the OpenAI-compatible endpoint to talk to (spec §6
// provider.endpoint / provider.api_key).
type Config struct {
	Endpoint string
	APIKey   string
}

// Api is a thin wrapper over the generated SDK client, narrowed to the two
// operations this module needs: chat completions and embeddings.
type Api struct {
	client *openai.Client
}

// New constructs an Api talking to cfg.Endpoint with cfg.APIKey.
func New(cfg Config) (*Api, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("providerapi: api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	client := openai.NewClient(opts...)
	return &Api{client: &client}, nil
}

// ChatCompletion issues a blocking chat-completions call.
func (a *Api) ChatCompletion(ctx context.Context, req *openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	if req == nil {
		return nil, errors.New("providerapi: request is nil")
	}
	return a.client.Chat.Completions.New(ctx, *req)
}

// ChatCompletionStream issues a streaming chat-completions call, decoded as
// server-sent events delivering choices[0].delta.content chunks (spec §6).
func (a *Api) ChatCompletionStream(ctx context.Context, req *openai.ChatCompletionNewParams) (*ssestream.Stream[openai.ChatCompletionChunk], error) {
	if req == nil {
		return nil, errors.New("providerapi: request is nil")
	}
	return a.client.Chat.Completions.NewStreaming(ctx, *req), nil
}

// Embedding requests vector embeddings for one or more input texts.
func (a *Api) Embedding(ctx context.Context, req *openai.EmbeddingNewParams) (*openai.CreateEmbeddingResponse, error) {
	if req == nil {
		return nil, errors.New("providerapi: request is nil")
	}
	return a.client.Embeddings.New(ctx, *req)
}
