package agent

import (
	"context"
	"strings"
	"testing"
)

func TestSynthesizeDegradedOnToolErrors(t *testing.T) {
	// A stub with no synthesis script: any model call would fail the test.
	s := NewSynthesizer(&scriptedLLM{}, "primary", 0.1, 3000)

	answer, err := s.Synthesize(context.Background(), "q",
		&SQLResult{Error: "SQL query failed after 3 attempts: boom"},
		&RAGResult{Error: "No relevant documents found for this query."},
	)
	if err != nil {
		t.Fatalf("degraded path must not error: %v", err)
	}
	if !strings.Contains(answer, "Issues encountered") {
		t.Errorf("expected issue listing, got %q", answer)
	}
	if !strings.Contains(answer, "SQL Tool:") || !strings.Contains(answer, "RAG Tool:") {
		t.Errorf("expected both tool errors listed, got %q", answer)
	}
}

func TestSynthesizeDegradedOnEmptyResultSet(t *testing.T) {
	s := NewSynthesizer(&scriptedLLM{}, "primary", 0.1, 3000)

	answer, err := s.Synthesize(context.Background(), "q",
		&SQLResult{Query: "SELECT 1;", Columns: []string{"x"}, Rows: [][]any{}, RowCount: 0}, nil)
	if err != nil {
		t.Fatalf("degraded path must not error: %v", err)
	}
	if !strings.Contains(answer, "returned no results") {
		t.Errorf("expected empty-result message, got %q", answer)
	}
}

func TestSynthesizeDegradedGenericMiss(t *testing.T) {
	s := NewSynthesizer(&scriptedLLM{}, "primary", 0.1, 3000)

	answer, err := s.Synthesize(context.Background(), "q", nil, nil)
	if err != nil {
		t.Fatalf("degraded path must not error: %v", err)
	}
	if !strings.Contains(answer, "couldn't find relevant information") {
		t.Errorf("expected generic miss message, got %q", answer)
	}
}

func TestSynthesizeStreamMatchesBlocking(t *testing.T) {
	client := &scriptedLLM{synthReply: "Fraud peaked in December [Page 3]."}
	s := NewSynthesizer(client, "primary", 0.1, 3000)

	sqlRes := &SQLResult{
		Query:    "SELECT month, rate FROM fraud_transactions;",
		Columns:  []string{"month", "rate"},
		Rows:     [][]any{{"2020-12", 1.2}},
		RowCount: 1,
	}

	blocking, err := s.Synthesize(context.Background(), "q", sqlRes, nil)
	if err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	for fragment, err := range s.Stream(context.Background(), "q", sqlRes, nil) {
		if err != nil {
			t.Fatal(err)
		}
		b.WriteString(fragment)
	}
	if b.String() != blocking {
		t.Errorf("stream %q != blocking %q", b.String(), blocking)
	}
}

func TestBuildGroundingContext(t *testing.T) {
	sqlRes := &SQLResult{
		Query:    "SELECT category FROM fraud_transactions;",
		Columns:  []string{"category"},
		Rows:     [][]any{{"grocery_pos"}},
		RowCount: 1,
	}
	ragRes := &RAGResult{
		Chunks:    []string{"Skimming copies card data."},
		Metadatas: []ChunkMeta{{Source: "fraud.pdf", Page: 4}},
		Distances: []float64{0.1},
	}

	got := buildGroundingContext(sqlRes, ragRes)
	if !strings.Contains(got, "## SQL Query Results") || !strings.Contains(got, "## Document Context") {
		t.Errorf("expected both sections, got %q", got)
	}
	if !strings.Contains(got, "[Source: fraud.pdf, Page 4]") {
		t.Errorf("expected passage provenance, got %q", got)
	}

	// A tool result carrying an error contributes nothing.
	if got := buildGroundingContext(&SQLResult{Error: "x"}, nil); got != "" {
		t.Errorf("errored result must contribute no context, got %q", got)
	}
}
