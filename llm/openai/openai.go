// Package openai implements llm.ChatClient and llm.Embedder on top of any
// OpenAI-compatible chat-completions endpoint. The default base URL points at
// Together AI, which serves the models this system is tuned for.
package openai

import (
	"context"
	"fmt"
	"iter"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	errs "github.com/fraudlens/fraudlens/errors"
	"github.com/fraudlens/fraudlens/llm"
	"github.com/fraudlens/fraudlens/message"
)

// DefaultBaseURL is the Together AI OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.together.xyz/v1"

// Config holds provider configuration.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Dimension      int
	MaxTokens      int64
}

// Provider implements llm.ChatClient and llm.Embedder.
type Provider struct {
	config *Config
	client openaisdk.Client
}

// New creates a provider against the configured OpenAI-compatible endpoint.
func New(config *Config) *Provider {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	options := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithBaseURL(config.BaseURL),
	}
	return &Provider{
		config: config,
		client: openaisdk.NewClient(options...),
	}
}

// Complete implements llm.ChatClient.
func (p *Provider) Complete(ctx context.Context, req *llm.Request) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: nil completion request", errs.ErrInvalidInput)
	}

	completion, err := p.client.Chat.Completions.New(ctx, p.buildParams(req))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from completion endpoint")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// Stream implements llm.ChatClient. Fragments are yielded in generation order
// with no buffering beyond what the backend produces.
func (p *Provider) Stream(ctx context.Context, req *llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if req == nil {
			yield("", fmt.Errorf("%w: nil stream request", errs.ErrInvalidInput))
			return
		}

		stream := p.client.Chat.Completions.NewStreaming(ctx, p.buildParams(req))
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			if len(event.Choices) == 0 {
				continue
			}
			if delta := event.Choices[0].Delta.Content; delta != "" {
				if !yield(delta, nil) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("chat completion stream: %w", err))
		}
	}
}

func (p *Provider) buildParams(req *llm.Request) openaisdk.ChatCompletionNewParams {
	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			msgs = append(msgs, openaisdk.SystemMessage(msg.Content))
		case message.RoleUser:
			msgs = append(msgs, openaisdk.UserMessage(msg.Content))
		case message.RoleAssistant:
			msgs = append(msgs, openaisdk.AssistantMessage(msg.Content))
		}
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	params := openaisdk.ChatCompletionNewParams{
		Messages:    msgs,
		Model:       openaisdk.ChatModel(model),
		Temperature: param.NewOpt(req.Temperature),
	}
	if maxTokens := p.maxTokens(req); maxTokens > 0 {
		params.MaxTokens = param.NewOpt(maxTokens)
	}
	return params
}

func (p *Provider) maxTokens(req *llm.Request) int64 {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return p.config.MaxTokens
}

// Dimension implements llm.Embedder.
func (p *Provider) Dimension() int {
	return p.config.Dimension
}

// Embed implements llm.Embedder.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

// EmbedBatch implements llm.Embedder.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	params := openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(p.config.EmbeddingModel),
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for i, emb := range resp.Data {
		out[i] = convertVector(emb.Embedding, p.config.Dimension)
	}
	return out, nil
}

func convertVector(input []float64, expected int) []float32 {
	vec := make([]float32, expected)
	for i := 0; i < len(input) && i < expected; i++ {
		vec[i] = float32(input[i])
	}
	return vec
}
