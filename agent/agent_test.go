package agent

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"testing"

	errs "github.com/fraudlens/fraudlens/errors"
	"github.com/fraudlens/fraudlens/llm"
	"github.com/fraudlens/fraudlens/message"
	"github.com/fraudlens/fraudlens/store/docstore"
)

// scriptedLLM routes on the system prompt so one stub can serve the
// classifier, the SQL generator, the synthesizer, and the scorer.
type scriptedLLM struct {
	mu sync.Mutex

	classifyReply string
	classifyErr   error

	sqlReplies []string
	sqlCalls   int

	synthReply string
	synthErr   error

	scoreReplies []string
	scoreCalls   int
}

func (s *scriptedLLM) Complete(_ context.Context, req *llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	system := req.Messages[0].Content
	switch {
	case strings.Contains(system, "query classifier"):
		return s.classifyReply, s.classifyErr
	case strings.Contains(system, "SQL query generator"):
		reply := s.sqlReplies[min(s.sqlCalls, len(s.sqlReplies)-1)]
		s.sqlCalls++
		return reply, nil
	case strings.Contains(system, "quality assurance evaluator"):
		reply := s.scoreReplies[min(s.scoreCalls, len(s.scoreReplies)-1)]
		s.scoreCalls++
		return reply, nil
	case strings.Contains(system, "expert fraud analyst"):
		return s.synthReply, s.synthErr
	}
	return "", fmt.Errorf("unexpected system prompt: %.40s", system)
}

func (s *scriptedLLM) Stream(ctx context.Context, req *llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		text, err := s.Complete(ctx, req)
		if err != nil {
			yield("", err)
			return
		}
		half := len(text) / 2
		if !yield(text[:half], nil) {
			return
		}
		yield(text[half:], nil)
	}
}

type scriptedDB struct {
	columns   []string
	rows      [][]any
	execErr   error
	dryRunErr error
	executed  []string
}

func (db *scriptedDB) Execute(_ context.Context, query string) ([]string, [][]any, error) {
	db.executed = append(db.executed, query)
	if db.execErr != nil {
		return nil, nil, db.execErr
	}
	return db.columns, db.rows, nil
}

func (db *scriptedDB) DryRun(context.Context, string) error { return db.dryRunErr }

func (db *scriptedDB) Schema() string { return "Table: fraud_transactions" }

type scriptedDocs struct {
	matches   []docstore.Match
	searchErr error
	queries   []string
}

func (d *scriptedDocs) Search(_ context.Context, query string, _ int) ([]docstore.Match, error) {
	d.queries = append(d.queries, query)
	if d.searchErr != nil {
		return nil, d.searchErr
	}
	if len(d.matches) == 0 {
		return nil, errs.ErrNoMatches
	}
	return d.matches, nil
}

func scoreJSON(score int) string {
	return fmt.Sprintf(`{"score": %d, "reasoning": "judged", "has_hallucination": false, "missing_information": []}`, score)
}

func sqlClassification() string {
	return `{"query_type": "sql", "reasoning": "statistical question", "sql_query_hint": "monthly fraud rate"}`
}

func someMatches() []docstore.Match {
	return []docstore.Match{
		{Passage: docstore.Passage{Content: "Skimming copies card data.", Source: "fraud.pdf", Page: 4, ChunkIndex: 0}, Distance: 0.12},
		{Passage: docstore.Passage{Content: "Phishing targets credentials.", Source: "fraud.pdf", Page: 7, ChunkIndex: 3}, Distance: 0.19},
	}
}

func newTestAgent(client *scriptedLLM, db QueryExecutor, docs DocRetriever) *Agent {
	return New(Deps{
		Chat:         client,
		Routing:      client,
		DB:           db,
		Docs:         docs,
		PrimaryModel: "primary",
		RoutingModel: "routing",
	})
}

func collect(t *testing.T, events <-chan Event) (steps []StepEvent, tokens []string, finals []*Response) {
	t.Helper()
	for ev := range events {
		switch e := ev.(type) {
		case StepEvent:
			steps = append(steps, e)
		case TokenEvent:
			tokens = append(tokens, e.Text)
		case FinalEvent:
			finals = append(finals, e.Response)
		}
	}
	return steps, tokens, finals
}

func TestAskAcceptsOnceThresholdMet(t *testing.T) {
	client := &scriptedLLM{
		classifyReply: sqlClassification(),
		sqlReplies:    []string{"SELECT category, COUNT(*) FROM fraud_transactions GROUP BY category"},
		synthReply:    "Fraud concentrates in grocery_pos.",
		scoreReplies:  []string{scoreJSON(2), scoreJSON(2), scoreJSON(4)},
	}
	db := &scriptedDB{columns: []string{"category", "count"}, rows: [][]any{{"grocery_pos", 42}}}

	agent := newTestAgent(client, db, &scriptedDocs{})
	steps, _, finals := collect(t, agent.AskStream(context.Background(), "Which categories have the most fraud?", nil))

	if len(finals) != 1 {
		t.Fatalf("expected exactly one terminal response, got %d", len(finals))
	}
	resp := finals[0]
	if resp.RetryCount != 2 {
		t.Errorf("expected acceptance on third attempt, got retry_count %d", resp.RetryCount)
	}
	if resp.Quality == nil || resp.Quality.Score != 4 {
		t.Errorf("expected quality 4, got %+v", resp.Quality)
	}
	if strings.Contains(resp.Answer, "limited accuracy") {
		t.Error("accepted answer must not carry the low-confidence note")
	}
	retries := 0
	for _, s := range steps {
		if s.Step == "retry" {
			retries++
		}
	}
	if retries != 2 {
		t.Errorf("expected 2 retry notices, got %d", retries)
	}
}

func TestAskExhaustionKeepsBestAndAppendsNote(t *testing.T) {
	client := &scriptedLLM{
		classifyReply: sqlClassification(),
		sqlReplies:    []string{"SELECT COUNT(*) FROM fraud_transactions"},
		synthReply:    "There are 42 transactions.",
		scoreReplies:  []string{scoreJSON(1), scoreJSON(2), scoreJSON(2)},
	}
	db := &scriptedDB{columns: []string{"count"}, rows: [][]any{{42}}}

	agent := newTestAgent(client, db, &scriptedDocs{})
	resp := agent.Ask(context.Background(), "How many transactions are there?", nil)

	if resp == nil {
		t.Fatal("expected a terminal response")
	}
	// Ties resolve to the earliest attempt: the second attempt (score 2)
	// wins over the identical third.
	if resp.RetryCount != 1 {
		t.Errorf("expected best response from attempt 2, got retry_count %d", resp.RetryCount)
	}
	if resp.Quality.Score != 2 {
		t.Errorf("expected best score 2, got %d", resp.Quality.Score)
	}
	if !strings.Contains(resp.Answer, "limited accuracy") {
		t.Error("exhausted response must carry the low-confidence note")
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	agent := newTestAgent(&scriptedLLM{}, &scriptedDB{}, &scriptedDocs{})
	steps, tokens, finals := collect(t, agent.AskStream(context.Background(), "   ", nil))

	if len(finals) != 1 {
		t.Fatalf("expected exactly one terminal response, got %d", len(finals))
	}
	if finals[0].Error != "empty query" {
		t.Errorf("expected empty query error, got %q", finals[0].Error)
	}
	if finals[0].Category != CategoryUnknown {
		t.Errorf("expected unknown category, got %q", finals[0].Category)
	}
	if len(steps) != 0 || len(tokens) != 0 {
		t.Errorf("empty question must not reach the pipeline, got %d steps %d tokens", len(steps), len(tokens))
	}
}

func TestAskDocumentOnlySkipsSQLTool(t *testing.T) {
	client := &scriptedLLM{
		classifyReply: `{"query_type": "rag", "reasoning": "conceptual", "rag_search_hint": "fraud methods"}`,
		synthReply:    "Skimming and phishing are the primary methods [Page 4].",
		scoreReplies:  []string{scoreJSON(5)},
	}
	db := &scriptedDB{}
	docs := &scriptedDocs{matches: someMatches()}

	agent := newTestAgent(client, db, docs)
	resp := agent.Ask(context.Background(), "What are the primary methods of fraud?", nil)

	if len(db.executed) != 0 {
		t.Errorf("SQL tool must not run for a document question, executed %v", db.executed)
	}
	if resp.SQL != nil {
		t.Error("document question must carry no SQL result")
	}
	if got := docs.queries; len(got) != 1 || got[0] != "fraud methods" {
		t.Errorf("expected retrieval with classifier hint, got %v", got)
	}
	if len(resp.Sources) != 1 || !strings.HasPrefix(resp.Sources[0], "Document:") {
		t.Errorf("expected a single document source, got %v", resp.Sources)
	}
	if !strings.Contains(resp.Sources[0], "Pages 4, 7") {
		t.Errorf("expected sorted distinct pages, got %q", resp.Sources[0])
	}
}

func TestAskHybridDegradesWhenSQLFails(t *testing.T) {
	client := &scriptedLLM{
		classifyReply: `{"query_type": "hybrid", "reasoning": "needs both", "sql_query_hint": "eea stats", "rag_search_hint": "eea fraud"}`,
		sqlReplies:    []string{"SELECT * FROM fraud_transactions"},
		synthReply:    "According to the report, EEA fraud concentrated cross-border [Page 7].",
		scoreReplies:  []string{scoreJSON(4)},
	}
	db := &scriptedDB{execErr: fmt.Errorf(`pq: relation "fraud_transactions" does not exist`)}
	docs := &scriptedDocs{matches: someMatches()}

	agent := newTestAgent(client, db, docs)
	resp := agent.Ask(context.Background(), "What share of EEA fraud was cross-border?", nil)

	if resp.SQL == nil || resp.SQL.Error == "" {
		t.Fatal("expected a failed SQL result to be carried on the response")
	}
	if resp.SQL.Query != "" {
		t.Errorf("exhausted SQL tool must return an empty query, got %q", resp.SQL.Query)
	}
	if resp.Quality.Score != 4 {
		t.Errorf("expected the degraded answer to be scored normally, got %d", resp.Quality.Score)
	}
	if len(resp.Sources) != 1 || !strings.HasPrefix(resp.Sources[0], "Document:") {
		t.Errorf("failed SQL must contribute no source, got %v", resp.Sources)
	}
}

func TestAskStreamOrderingAndSingleTerminal(t *testing.T) {
	client := &scriptedLLM{
		classifyReply: sqlClassification(),
		sqlReplies:    []string{"SELECT COUNT(*) FROM fraud_transactions"},
		synthReply:    "There are 42 transactions in total.",
		scoreReplies:  []string{scoreJSON(5)},
	}
	db := &scriptedDB{columns: []string{"count"}, rows: [][]any{{42}}}

	agent := newTestAgent(client, db, &scriptedDocs{})

	var kinds []string
	var finals int
	for ev := range agent.AskStream(context.Background(), "How many transactions?", nil) {
		switch e := ev.(type) {
		case StepEvent:
			kinds = append(kinds, e.Step)
		case TokenEvent:
			kinds = append(kinds, "token")
		case FinalEvent:
			kinds = append(kinds, "final")
			finals++
			if e.Response == nil {
				t.Error("terminal event carried a nil response")
			}
		}
	}

	if finals != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", finals)
	}
	if kinds[len(kinds)-1] != "final" {
		t.Errorf("terminal event must be last, got order %v", kinds)
	}
	want := []string{"classify", "classify_done", "sql", "sql_done", "synthesize", "token", "token", "score", "score_done", "final"}
	if len(kinds) != len(want) {
		t.Fatalf("event order mismatch:\n got %v\nwant %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event order mismatch at %d:\n got %v\nwant %v", i, kinds, want)
		}
	}
	if joined := strings.Join(kinds, ","); strings.Count(joined, "final") != 1 {
		t.Errorf("expected a single terminal, got %s", joined)
	}
}

func TestAskStreamedTokensConcatenateToAnswer(t *testing.T) {
	client := &scriptedLLM{
		classifyReply: sqlClassification(),
		sqlReplies:    []string{"SELECT COUNT(*) FROM fraud_transactions"},
		synthReply:    "There are 42 transactions in total.",
		scoreReplies:  []string{scoreJSON(5)},
	}
	db := &scriptedDB{columns: []string{"count"}, rows: [][]any{{42}}}

	agent := newTestAgent(client, db, &scriptedDocs{})
	_, tokens, finals := collect(t, agent.AskStream(context.Background(), "How many transactions?", nil))

	if got := strings.Join(tokens, ""); got != finals[0].Answer {
		t.Errorf("streamed fragments %q do not concatenate to the final answer %q", got, finals[0].Answer)
	}
}

func TestAskQuestionTruncatedToLimit(t *testing.T) {
	client := &scriptedLLM{
		classifyReply: `{"query_type": "rag", "reasoning": "conceptual"}`,
		synthReply:    "Answer.",
		scoreReplies:  []string{scoreJSON(4)},
	}
	docs := &scriptedDocs{matches: someMatches()}
	agent := newTestAgent(client, &scriptedDB{}, docs)

	long := strings.Repeat("a", maxQuestionLen+500)
	resp := agent.Ask(context.Background(), long, nil)
	if resp == nil {
		t.Fatal("expected a terminal response")
	}
	// No hint in the classification, so the retrieval query is the
	// sanitized question itself.
	if len(docs.queries) != 1 || len(docs.queries[0]) != maxQuestionLen {
		t.Errorf("expected question truncated to %d chars, got %d", maxQuestionLen, len(docs.queries[0]))
	}
}

func TestHistoryForwardedToClassifier(t *testing.T) {
	classifier := NewClassifier(&recordingLLM{reply: sqlClassification()}, "routing", 512)
	history := []*message.Message{
		message.NewMessage(message.RoleUser, "What is the fraud rate?"),
		message.NewMessage(message.RoleAssistant, "About 0.52%."),
	}
	cls := classifier.Classify(context.Background(), "And monthly?", history)
	if cls.Reasoning != "statistical question" {
		t.Errorf("history not forwarded as expected, fell back: %+v", cls)
	}
}

// recordingLLM asserts history placement inside the classifier request.
type recordingLLM struct {
	reply string
}

func (r *recordingLLM) Complete(_ context.Context, req *llm.Request) (string, error) {
	if len(req.Messages) != 4 {
		return "", fmt.Errorf("expected system + 2 history + question, got %d messages", len(req.Messages))
	}
	if req.Messages[0].Role != message.RoleSystem || req.Messages[3].Role != message.RoleUser {
		return "", fmt.Errorf("unexpected message roles")
	}
	return r.reply, nil
}

func (r *recordingLLM) Stream(ctx context.Context, req *llm.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		text, err := r.Complete(ctx, req)
		yield(text, err)
	}
}
