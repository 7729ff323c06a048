// Package completion implements the Completion Client (C6): a cancellable
// blocking/streaming wrapper around the chat-completions call that tags
// every Result with its originating request id and maps failures onto the
// spec §7 error-kind taxonomy (spec §4.6).
package completion

import (
	"context"
	"errors"
	"strings"

	"github.com/inkforge/quillcore/internal/document"
	"github.com/inkforge/quillcore/internal/providerapi"
	"github.com/openai/openai-go/v3"
)

// Client performs the model call, grounded in
// ai/providers/models/openai/chat_model.go's Call/Stream dual structure
// (tool-call recursion stripped — ghost-text completion never invokes
// tools).
type Client struct {
	API   *providerapi.Api
	Model string
}

func NewClient(api *providerapi.Api, model string) *Client {
	return &Client{API: api, Model: model}
}

// OnChunk is invoked with each incremental text delta during streaming.
type OnChunk func(delta string)

func (c *Client) buildParams(req *document.CompletionRequest) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.BuiltPrompt),
		},
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	}
}

// Complete performs a single blocking call, retrying per the idempotency
// policy in spec §4.6.
func (c *Client) Complete(ctx context.Context, req *document.CompletionRequest) document.CompletionResult {
	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	params := c.buildParams(req)
	text, err := withRetry(ctx, req.Idempotent, func(ctx context.Context) (string, error) {
		resp, err := c.API.ChatCompletion(ctx, &params)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errProtocol("empty choices array")
		}
		return resp.Choices[0].Message.Content, nil
	})

	return resultFromOutcome(req.RequestID, text, err)
}

// CompleteStream performs a streaming call, invoking onChunk for every
// incremental delta and returning the terminal Result.
func (c *Client) CompleteStream(ctx context.Context, req *document.CompletionRequest, onChunk OnChunk) document.CompletionResult {
	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	params := c.buildParams(req)
	stream, err := c.API.ChatCompletionStream(ctx, &params)
	if err != nil {
		return resultFromOutcome(req.RequestID, "", err)
	}
	defer stream.Close()

	var full strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onChunk != nil {
			onChunk(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return resultFromOutcome(req.RequestID, "", err)
	}

	return resultFromOutcome(req.RequestID, full.String(), nil)
}

func resultFromOutcome(rid document.RequestID, text string, err error) document.CompletionResult {
	if err == nil {
		return document.CompletionResult{RequestID: rid, Status: document.StatusOk, Text: text}
	}

	kind := classifyErr(err)
	status := document.StatusError
	switch {
	case errors.Is(err, context.Canceled):
		status = document.StatusCancelled
		kind = document.ErrCancelled
	case errors.Is(err, context.DeadlineExceeded):
		status = document.StatusTimeout
		kind = document.ErrTimeout
	}
	return document.CompletionResult{RequestID: rid, Status: status, ErrKind: kind, Err: err}
}
