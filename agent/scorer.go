package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fraudlens/fraudlens/llm"
	"github.com/fraudlens/fraudlens/message"
	"github.com/fraudlens/fraudlens/pkg/logging"
)

const (
	scorerPassageLimit = 5
	scorerPassageChars = 500
	scorerRowPreview   = 10
)

// Scorer judges an answer against the context it was synthesized from.
// It never returns an error: an unusable judge reply degrades to a neutral
// score of 3, and an answer with no context to verify against scores 2.
type Scorer struct {
	llm       llm.ChatClient
	model     string
	maxTokens int64
	logger    *slog.Logger
}

func NewScorer(client llm.ChatClient, model string, maxTokens int64) *Scorer {
	return &Scorer{
		llm:       client,
		model:     model,
		maxTokens: maxTokens,
		logger:    logging.WithComponent("scorer"),
	}
}

type scorePayload struct {
	Score              float64  `json:"score"`
	Reasoning          string   `json:"reasoning"`
	HasHallucination   bool     `json:"has_hallucination"`
	MissingInformation []string `json:"missing_information"`
}

func (s *Scorer) Score(ctx context.Context, question, answer string, sqlRes *SQLResult, ragRes *RAGResult) *QualityScore {
	context := s.buildContext(sqlRes, ragRes)
	if context == "" {
		return &QualityScore{
			Score:              2,
			Reasoning:          "No source context available for verification",
			MissingInformation: []string{"No context data to verify against"},
		}
	}

	system := renderPrompt(scoringPrompt, map[string]string{
		"context":  context,
		"question": question,
		"answer":   answer,
	})
	raw, err := s.llm.Complete(ctx, &llm.Request{
		Messages: []*message.Message{
			message.NewMessage(message.RoleSystem, system),
			message.NewMessage(message.RoleUser, "Evaluate the answer quality."),
		},
		Model:       s.model,
		Temperature: 0.0,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		s.logger.Error("quality scoring request failed", "error", err)
		return &QualityScore{
			Score:     3,
			Reasoning: "Scoring error: " + err.Error(),
		}
	}

	parsed, err := decodeJSON[scorePayload](raw)
	if err != nil {
		s.logger.Warn("unparseable quality score", "error", err, "raw", raw)
		return &QualityScore{
			Score:     3,
			Reasoning: "Could not parse quality evaluation; defaulting to moderate score",
		}
	}

	return &QualityScore{
		Score:              clampScore(int(parsed.Score)),
		Reasoning:          parsed.Reasoning,
		HasHallucination:   parsed.HasHallucination,
		MissingInformation: parsed.MissingInformation,
	}
}

func clampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 5 {
		return 5
	}
	return score
}

// buildContext is a compact summary of the tool context: at most ten sample
// rows and five passages truncated to 500 runes each, enough for the judge
// without burning the routing budget.
func (s *Scorer) buildContext(sqlRes *SQLResult, ragRes *RAGResult) string {
	var parts []string

	if sqlRes != nil && sqlRes.Error == "" && len(sqlRes.Rows) > 0 {
		preview := sqlRes.Rows
		if len(preview) > scorerRowPreview {
			preview = preview[:scorerRowPreview]
		}
		parts = append(parts, fmt.Sprintf(
			"SQL Query: %s\nColumns: %v\nSample rows: %v\nTotal rows: %d",
			sqlRes.Query, sqlRes.Columns, preview, sqlRes.RowCount,
		))
	}

	if ragRes != nil && ragRes.Error == "" && len(ragRes.Chunks) > 0 {
		limit := len(ragRes.Chunks)
		if limit > scorerPassageLimit {
			limit = scorerPassageLimit
		}
		for i := 0; i < limit; i++ {
			parts = append(parts, fmt.Sprintf(
				"[Page %d]: %s", ragRes.Metadatas[i].Page, truncateRunes(ragRes.Chunks[i], scorerPassageChars),
			))
		}
	}

	return strings.Join(parts, "\n\n")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
