// Package anthropic implements llm.ChatClient on the official Claude SDK.
// Claude has no embeddings endpoint, so this provider is chat-only; embedding
// traffic stays on the OpenAI-compatible provider regardless of chat choice.
package anthropic

import (
	"context"
	"fmt"
	"iter"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	errs "github.com/fraudlens/fraudlens/errors"
	"github.com/fraudlens/fraudlens/llm"
	"github.com/fraudlens/fraudlens/message"
)

const defaultMaxTokens = 1024

// Config holds provider configuration.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
}

// Provider implements llm.ChatClient for Claude models.
type Provider struct {
	config *Config
	client anthropicsdk.Client
}

// New creates a Claude provider using the official SDK.
func New(config *Config) *Provider {
	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	return &Provider{
		config: config,
		client: anthropicsdk.NewClient(options...),
	}
}

// Complete implements llm.ChatClient.
func (p *Provider) Complete(ctx context.Context, req *llm.Request) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: nil completion request", errs.ErrInvalidInput)
	}

	resp, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		return "", fmt.Errorf("claude completion: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(text.String()), nil
}

// Stream implements llm.ChatClient.
func (p *Provider) Stream(ctx context.Context, req *llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if req == nil {
			yield("", fmt.Errorf("%w: nil stream request", errs.ErrInvalidInput))
			return
		}

		stream := p.client.Messages.NewStreaming(ctx, p.buildParams(req))
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			if event.Type != "content_block_delta" {
				continue
			}
			delta := event.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" && delta.Delta.Text != "" {
				if !yield(delta.Delta.Text, nil) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			yield("", fmt.Errorf("claude stream: %w", err))
		}
	}
}

func (p *Provider) buildParams(req *llm.Request) anthropicsdk.MessageNewParams {
	var systemPrompts []string
	conversation := make([]anthropicsdk.MessageParam, 0, len(req.Messages))

	for _, msg := range req.Messages {
		switch msg.Role {
		case message.RoleSystem:
			systemPrompts = append(systemPrompts, msg.Content)
		case message.RoleUser:
			conversation = append(conversation,
				anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(msg.Content)))
		case message.RoleAssistant:
			conversation = append(conversation,
				anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(msg.Content)))
		}
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(model),
		Messages:  conversation,
		MaxTokens: maxTokens,
	}
	if len(systemPrompts) > 0 {
		params.System = []anthropicsdk.TextBlockParam{
			{Text: strings.Join(systemPrompts, "\n")},
		}
	}
	params.Temperature = param.NewOpt(req.Temperature)
	return params
}
