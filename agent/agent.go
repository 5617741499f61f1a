package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fraudlens/fraudlens/llm"
	"github.com/fraudlens/fraudlens/message"
	"github.com/fraudlens/fraudlens/pkg/logging"
	"github.com/fraudlens/fraudlens/pkg/telemetry"
)

const documentTitle = "Understanding Credit Card Frauds"

const lowConfidenceNote = "\n\n---\n*Note: This response may have limited accuracy. " +
	"The quality score did not meet the confidence threshold after multiple attempts. " +
	"Please verify the information against the source data.*"

// Deps are the external handles an Agent needs. All of them are constructed
// at process start and passed in; the agent holds no process-global state.
type Deps struct {
	// Chat serves synthesis traffic with the primary model.
	Chat llm.ChatClient
	// Routing serves classification, SQL generation, and scoring with the
	// routing model.
	Routing llm.ChatClient
	// DB is the fraud transaction store.
	DB QueryExecutor
	// Docs is the document index retriever.
	Docs DocRetriever

	PrimaryModel string
	RoutingModel string
}

// Agent runs the full question-processing pipeline: classify, dispatch to
// tools, synthesize, score, retry while below threshold, keep the best.
type Agent struct {
	classifier  *Classifier
	sqlTool     *SQLTool
	ragTool     *RAGTool
	synthesizer *Synthesizer
	scorer      *Scorer

	qualityThreshold int
	maxRetries       int

	logger *slog.Logger
	tracer trace.Tracer
}

func New(deps Deps, opts ...Option) *Agent {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Agent{
		classifier:       NewClassifier(deps.Routing, deps.RoutingModel, cfg.routingMaxTokens),
		sqlTool:          NewSQLTool(deps.Routing, deps.DB, deps.RoutingModel, cfg.routingMaxTokens, cfg.sqlRetries, cfg.rowLimit),
		ragTool:          NewRAGTool(deps.Docs, cfg.topK),
		synthesizer:      NewSynthesizer(deps.Chat, deps.PrimaryModel, cfg.synthTemperature, cfg.synthMaxTokens),
		scorer:           NewScorer(deps.Routing, deps.RoutingModel, cfg.routingMaxTokens),
		qualityThreshold: cfg.qualityThreshold,
		maxRetries:       cfg.maxRetries,
		logger:           logging.WithComponent("agent"),
		tracer:           otel.Tracer("fraudlens/agent"),
	}
}

// AskStream processes one question and streams events on the returned
// channel: step notices, answer fragments, then exactly one FinalEvent,
// after which the channel closes. The caller owns draining; cancelling ctx
// stops the pipeline and releases the goroutine.
func (a *Agent) AskStream(ctx context.Context, question string, history []*message.Message) <-chan Event {
	events := make(chan Event, 8)
	go func() {
		defer close(events)
		a.run(ctx, question, history, events)
	}()
	return events
}

// Ask is the blocking form of AskStream. It returns nil only when ctx is
// cancelled before a terminal response is produced.
func (a *Agent) Ask(ctx context.Context, question string, history []*message.Message) *Response {
	var final *Response
	for ev := range a.AskStream(ctx, question, history) {
		if f, ok := ev.(FinalEvent); ok {
			final = f.Response
		}
	}
	return final
}

func (a *Agent) run(ctx context.Context, question string, history []*message.Message, events chan<- Event) {
	emit := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	terminated := false
	final := func(resp *Response) {
		if terminated {
			return
		}
		terminated = true
		emit(FinalEvent{Response: resp})
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("pipeline panic", "panic", r)
			final(&Response{
				Answer:   fmt.Sprintf("An unexpected error occurred: %v. Please try again.", r),
				Category: CategoryUnknown,
				Error:    fmt.Sprint(r),
			})
		}
	}()

	question = sanitizeQuestion(question)
	if question == "" {
		final(&Response{
			Answer:   "Please enter a question to get started.",
			Category: CategoryUnknown,
			Error:    "empty query",
		})
		return
	}

	ctx, span := a.tracer.Start(ctx, "agent.process_question",
		trace.WithAttributes(attribute.Int("question.length", len(question))))
	defer telemetry.End(span, nil)

	if !emit(StepEvent{Step: "classify", Label: "Classifying your question..."}) {
		return
	}
	classification := a.classifier.Classify(ctx, question, history)
	a.logger.Info("question classified",
		"category", classification.Category, "reasoning", classification.Reasoning)
	span.SetAttributes(attribute.String("question.category", string(classification.Category)))
	if !emit(StepEvent{Step: "classify_done", Label: categoryLabel(classification.Category), Detail: classification.Reasoning}) {
		return
	}

	var best *Response
	bestScore := 0

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			if !emit(StepEvent{Step: "retry", Label: fmt.Sprintf("Retrying (attempt %d/%d)...", attempt+1, a.maxRetries+1)}) {
				return
			}
		}

		var sqlRes *SQLResult
		var ragRes *RAGResult

		if classification.Category.NeedsSQL() {
			if !emit(StepEvent{Step: "sql", Label: "Generating and executing SQL query..."}) {
				return
			}
			sqlRes = a.sqlTool.Run(ctx, hintOr(classification.SQLHint, question))
			if !emit(sqlDoneEvent(sqlRes)) {
				return
			}
		}

		if classification.Category.NeedsRAG() {
			if !emit(StepEvent{Step: "rag", Label: "Searching document for relevant information..."}) {
				return
			}
			ragRes = a.ragTool.Search(ctx, hintOr(classification.RAGHint, question))
			if !emit(ragDoneEvent(ragRes)) {
				return
			}
		}

		if classification.Category == CategoryHybrid {
			switch {
			case sqlRes != nil && sqlRes.Error != "" && ragRes != nil && ragRes.Error == "":
				a.logger.Info("hybrid degraded to document-only", "sql_error", sqlRes.Error)
			case ragRes != nil && ragRes.Error != "" && sqlRes != nil && sqlRes.Error == "":
				a.logger.Info("hybrid degraded to SQL-only", "rag_error", ragRes.Error)
			}
		}

		if !emit(StepEvent{Step: "synthesize", Label: "Generating response..."}) {
			return
		}
		var b strings.Builder
		var streamErr error
		for fragment, err := range a.synthesizer.Stream(ctx, question, sqlRes, ragRes) {
			if err != nil {
				streamErr = err
				break
			}
			b.WriteString(fragment)
			if !emit(TokenEvent{Text: fragment}) {
				return
			}
		}
		answer := b.String()
		if streamErr != nil {
			a.logger.Error("synthesis failed", "error", streamErr)
			answer = describeLLMError(streamErr)
			if !emit(TokenEvent{Text: answer}) {
				return
			}
		}

		if !emit(StepEvent{Step: "score", Label: "Evaluating response quality..."}) {
			return
		}
		quality := a.scorer.Score(ctx, question, answer, sqlRes, ragRes)
		if !emit(StepEvent{
			Step:   "score_done",
			Label:  fmt.Sprintf("Quality score: %d/5", quality.Score),
			Detail: quality.Reasoning,
		}) {
			return
		}

		current := &Response{
			Answer:     answer,
			Category:   classification.Category,
			SQL:        sqlRes,
			RAG:        ragRes,
			Quality:    quality,
			Sources:    buildSources(sqlRes, ragRes),
			RetryCount: attempt,
		}

		// Strictly greater keeps the earliest attempt on ties.
		if best == nil || quality.Score > bestScore {
			best = current
			bestScore = quality.Score
		}

		if quality.Score >= a.qualityThreshold {
			a.logger.Info("quality threshold met", "score", quality.Score, "attempt", attempt+1)
			span.SetAttributes(attribute.Int("answer.quality", quality.Score), attribute.Int("answer.attempts", attempt+1))
			final(current)
			return
		}
		a.logger.Warn("quality below threshold", "score", quality.Score, "attempt", attempt+1)
	}

	resp := *best
	resp.Answer += lowConfidenceNote
	span.SetAttributes(attribute.Int("answer.quality", bestScore), attribute.Int("answer.attempts", a.maxRetries+1))
	final(&resp)
}

func sanitizeQuestion(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > maxQuestionLen {
		text = text[:maxQuestionLen]
	}
	return text
}

func hintOr(hint, fallback string) string {
	if strings.TrimSpace(hint) != "" {
		return hint
	}
	return fallback
}

func categoryLabel(c Category) string {
	switch c {
	case CategorySQL:
		return "Statistical query: will query the database"
	case CategoryRAG:
		return "Document query: will search the PDF"
	case CategoryHybrid:
		return "Hybrid query: will use both database and PDF"
	default:
		return "Unknown query type"
	}
}

func sqlDoneEvent(res *SQLResult) StepEvent {
	if res.Error != "" {
		return StepEvent{Step: "sql_done", Label: "SQL query issue: " + truncateRunes(res.Error, 80)}
	}
	return StepEvent{
		Step:   "sql_done",
		Label:  fmt.Sprintf("SQL returned %d rows", res.RowCount),
		Detail: res.Query,
	}
}

func ragDoneEvent(res *RAGResult) StepEvent {
	if res.Error != "" {
		return StepEvent{Step: "rag_done", Label: "Document search issue: " + truncateRunes(res.Error, 80)}
	}
	pages := distinctPages(res.Metadatas)
	labels := make([]string, len(pages))
	for i, p := range pages {
		labels[i] = fmt.Sprint(p)
	}
	return StepEvent{
		Step:  "rag_done",
		Label: fmt.Sprintf("Found %d relevant chunks (pages %s)", len(res.Chunks), strings.Join(labels, ", ")),
	}
}

// buildSources lists the provenance shown under a final answer: the executed
// query and the document pages the passages came from.
func buildSources(sqlRes *SQLResult, ragRes *RAGResult) []string {
	var sources []string
	if sqlRes != nil && sqlRes.Error == "" && len(sqlRes.Rows) > 0 {
		sources = append(sources, "SQL: "+sqlRes.Query)
	}
	if ragRes != nil && ragRes.Error == "" && len(ragRes.Chunks) > 0 {
		pages := distinctPages(ragRes.Metadatas)
		if len(pages) > 0 {
			labels := make([]string, len(pages))
			for i, p := range pages {
				labels[i] = fmt.Sprint(p)
			}
			sources = append(sources, fmt.Sprintf("Document: %s (Pages %s)", documentTitle, strings.Join(labels, ", ")))
		}
	}
	return sources
}

func distinctPages(metas []ChunkMeta) []int {
	seen := make(map[int]struct{}, len(metas))
	var pages []int
	for _, m := range metas {
		if m.Page == 0 {
			continue
		}
		if _, ok := seen[m.Page]; ok {
			continue
		}
		seen[m.Page] = struct{}{}
		pages = append(pages, m.Page)
	}
	sort.Ints(pages)
	return pages
}
