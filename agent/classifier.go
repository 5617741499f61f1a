package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fraudlens/fraudlens/llm"
	"github.com/fraudlens/fraudlens/message"
	"github.com/fraudlens/fraudlens/pkg/logging"
)

// Classifier routes a question to the SQL tool, the document tool, or both.
// It never returns an error: when the model reply is unusable it falls back
// to deterministic keyword matching, so a question is always routed.
type Classifier struct {
	llm       llm.ChatClient
	model     string
	maxTokens int64
	logger    *slog.Logger
}

func NewClassifier(client llm.ChatClient, model string, maxTokens int64) *Classifier {
	return &Classifier{
		llm:       client,
		model:     model,
		maxTokens: maxTokens,
		logger:    logging.WithComponent("classifier"),
	}
}

// Classify decides the category for one question. The last three exchanges
// of history give the model context for follow-up questions.
func (c *Classifier) Classify(ctx context.Context, question string, history []*message.Message) *Classification {
	msgs := []*message.Message{message.NewMessage(message.RoleSystem, classificationPrompt)}
	msgs = append(msgs, message.RecentExchanges(history, 3)...)
	msgs = append(msgs, message.NewMessage(message.RoleUser, question))

	raw, err := c.llm.Complete(ctx, &llm.Request{
		Messages:    msgs,
		Model:       c.model,
		Temperature: 0.0,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		c.logger.Error("classification request failed", "error", err)
		return fallbackClassification(question)
	}

	parsed, err := decodeJSON[Classification](raw)
	if err != nil {
		c.logger.Warn("unparseable classification reply", "error", err, "raw", raw)
		return fallbackClassification(question)
	}
	switch parsed.Category {
	case CategorySQL, CategoryRAG, CategoryHybrid:
	default:
		c.logger.Warn("unknown category in classification reply", "category", parsed.Category)
		return fallbackClassification(question)
	}
	return parsed
}

var (
	sqlKeywords = []string{
		"how many", "count", "rate", "trend", "average", "total",
		"highest", "lowest", "most", "least", "percentage", "monthly",
		"daily", "yearly", "over time", "fluctuate", "merchant", "category",
		"transaction", "amount", "which", "top", "statistics",
	}
	ragKeywords = []string{
		"what are", "explain", "describe", "methods", "components",
		"according to", "authors", "definition", "how does", "why",
		"primary methods", "core components", "detection system",
		"techniques", "strategies",
	}
	hybridKeywords = []string{
		"eea", "cross-border", "h1 2023", "report", "compared to",
		"outside the", "share of total",
	}
)

// fallbackClassification is the deterministic keyword route used when the
// model reply cannot be trusted. Hybrid keywords dominate; a tie between
// SQL and document scores resolves to hybrid so neither source is dropped.
func fallbackClassification(question string) *Classification {
	q := strings.ToLower(question)

	score := func(keywords []string) int {
		n := 0
		for _, kw := range keywords {
			if strings.Contains(q, kw) {
				n++
			}
		}
		return n
	}
	sqlScore := score(sqlKeywords)
	ragScore := score(ragKeywords)

	var category Category
	switch {
	case score(hybridKeywords) > 0:
		category = CategoryHybrid
	case sqlScore > ragScore:
		category = CategorySQL
	case ragScore > sqlScore:
		category = CategoryRAG
	default:
		category = CategoryHybrid
	}

	cls := &Classification{
		Category:  category,
		Reasoning: "Fallback keyword-based classification",
	}
	if category.NeedsSQL() {
		cls.SQLHint = question
	}
	if category.NeedsRAG() {
		cls.RAGHint = question
	}
	return cls
}
