package agent

import (
	"context"
	"testing"
)

func TestClassifyParsesModelReply(t *testing.T) {
	client := &scriptedLLM{
		classifyReply: "```json\n{\"query_type\": \"hybrid\", \"reasoning\": \"needs both\", \"sql_query_hint\": \"eea stats\", \"rag_search_hint\": \"eea report\"}\n```",
	}
	c := NewClassifier(client, "routing", 512)

	cls := c.Classify(context.Background(), "Compare EEA stats with the report", nil)
	if cls.Category != CategoryHybrid {
		t.Errorf("expected hybrid, got %q", cls.Category)
	}
	if cls.SQLHint != "eea stats" || cls.RAGHint != "eea report" {
		t.Errorf("hints not carried: %+v", cls)
	}
}

func TestClassifyUnknownCategoryFallsBack(t *testing.T) {
	client := &scriptedLLM{classifyReply: `{"query_type": "graphql", "reasoning": "??"}`}
	c := NewClassifier(client, "routing", 512)

	cls := c.Classify(context.Background(), "What is the average transaction amount?", nil)
	if cls.Reasoning != "Fallback keyword-based classification" {
		t.Errorf("expected keyword fallback, got %+v", cls)
	}
	if cls.Category != CategorySQL {
		t.Errorf("expected sql from keywords, got %q", cls.Category)
	}
}

func TestClassifyGarbageReplyFallsBack(t *testing.T) {
	client := &scriptedLLM{classifyReply: "sure! here is my analysis..."}
	c := NewClassifier(client, "routing", 512)

	cls := c.Classify(context.Background(), "Explain how skimming works", nil)
	if cls.Category != CategoryRAG {
		t.Errorf("expected rag from keywords, got %q", cls.Category)
	}
	if cls.RAGHint == "" || cls.SQLHint != "" {
		t.Errorf("rag fallback must hint retrieval only, got %+v", cls)
	}
}

func TestFallbackClassification(t *testing.T) {
	cases := []struct {
		name     string
		question string
		want     Category
	}{
		{"hybrid keyword dominates", "How does the EEA report compare to our averages?", CategoryHybrid},
		{"sql keywords win", "How many transactions happened monthly?", CategorySQL},
		{"rag keywords win", "Explain why detection systems fail", CategoryRAG},
		{"tie resolves to hybrid", "Tell me about it", CategoryHybrid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cls := fallbackClassification(tc.question)
			if cls.Category != tc.want {
				t.Errorf("fallback(%q) = %q, want %q", tc.question, cls.Category, tc.want)
			}
			if cls.Category.NeedsSQL() && cls.SQLHint != tc.question {
				t.Errorf("sql hint must echo the question, got %q", cls.SQLHint)
			}
			if cls.Category.NeedsRAG() && cls.RAGHint != tc.question {
				t.Errorf("rag hint must echo the question, got %q", cls.RAGHint)
			}
		})
	}
}
