package agent

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/fraudlens/fraudlens/llm"
	"github.com/fraudlens/fraudlens/message"
	"github.com/fraudlens/fraudlens/pkg/logging"
)

// Synthesizer produces the final answer from whatever tool context survived.
// With no usable context it degrades to a fixed explanatory message without
// calling the model at all.
type Synthesizer struct {
	llm         llm.ChatClient
	model       string
	temperature float64
	maxTokens   int64
	logger      *slog.Logger
}

func NewSynthesizer(client llm.ChatClient, model string, temperature float64, maxTokens int64) *Synthesizer {
	return &Synthesizer{
		llm:         client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logging.WithComponent("synthesizer"),
	}
}

// Stream yields answer fragments. When no context is available the degraded
// message is yielded as a single fragment and the model is never called.
func (s *Synthesizer) Stream(ctx context.Context, question string, sqlRes *SQLResult, ragRes *RAGResult) iter.Seq2[string, error] {
	req, ok := s.buildRequest(question, sqlRes, ragRes)
	if !ok {
		degraded := degradedAnswer(sqlRes, ragRes)
		return func(yield func(string, error) bool) {
			yield(degraded, nil)
		}
	}
	return s.llm.Stream(ctx, req)
}

// Synthesize is the blocking form of Stream, used by tests and batch paths.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, sqlRes *SQLResult, ragRes *RAGResult) (string, error) {
	req, ok := s.buildRequest(question, sqlRes, ragRes)
	if !ok {
		return degradedAnswer(sqlRes, ragRes), nil
	}
	return s.llm.Complete(ctx, req)
}

func (s *Synthesizer) buildRequest(question string, sqlRes *SQLResult, ragRes *RAGResult) (*llm.Request, bool) {
	context := buildGroundingContext(sqlRes, ragRes)
	if context == "" {
		return nil, false
	}
	system := renderPrompt(synthesisPrompt, map[string]string{
		"context_section": "CONTEXT:\n" + context,
	})
	return &llm.Request{
		Messages: []*message.Message{
			message.NewMessage(message.RoleSystem, system),
			message.NewMessage(message.RoleUser, question),
		},
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}, true
}

// buildGroundingContext folds the surviving tool outputs into the context
// block the synthesis prompt wraps. Tool results carrying errors contribute
// nothing.
func buildGroundingContext(sqlRes *SQLResult, ragRes *RAGResult) string {
	var parts []string

	if sqlRes != nil && sqlRes.Error == "" && len(sqlRes.Rows) > 0 {
		table := FormatSQLResultAsText(sqlRes.Columns, sqlRes.Rows, previewRows)
		parts = append(parts, fmt.Sprintf(
			"## SQL Query Results\nQuery: %s\nRows returned: %d\n\n%s",
			sqlRes.Query, sqlRes.RowCount, table,
		))
	}

	if ragRes != nil && ragRes.Error == "" && len(ragRes.Chunks) > 0 {
		docParts := make([]string, len(ragRes.Chunks))
		for i, chunk := range ragRes.Chunks {
			meta := ragRes.Metadatas[i]
			docParts[i] = fmt.Sprintf("[Source: %s, Page %d]\n%s", meta.Source, meta.Page, chunk)
		}
		parts = append(parts, "## Document Context\n"+strings.Join(docParts, "\n\n---\n\n"))
	}

	return strings.Join(parts, "\n\n")
}

// degradedAnswer is the deterministic no-context reply: tool errors first,
// then the empty-result-set case, then the generic miss.
func degradedAnswer(sqlRes *SQLResult, ragRes *RAGResult) string {
	var issues []string
	if sqlRes != nil && sqlRes.Error != "" {
		issues = append(issues, "- SQL Tool: "+sqlRes.Error)
	}
	if ragRes != nil && ragRes.Error != "" {
		issues = append(issues, "- RAG Tool: "+ragRes.Error)
	}
	if len(issues) > 0 {
		return "I was unable to retrieve the necessary data to answer your question.\n\n" +
			"**Issues encountered:**\n" + strings.Join(issues, "\n") +
			"\n\nPlease try rephrasing your question or check that the data sources are properly set up."
	}

	if sqlRes != nil && sqlRes.RowCount == 0 {
		return "The database query returned no results for your question. " +
			"This might mean the data doesn't contain matching records. " +
			"Try broadening your query or asking about different criteria."
	}

	return "I couldn't find relevant information to answer your question. Please try rephrasing it."
}
