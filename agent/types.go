package agent

// Category is the classifier's routing decision.
type Category string

const (
	CategorySQL     Category = "sql"
	CategoryRAG     Category = "rag"
	CategoryHybrid  Category = "hybrid"
	CategoryUnknown Category = "unknown"
)

// NeedsSQL reports whether the category routes to the SQL tool.
func (c Category) NeedsSQL() bool {
	return c == CategorySQL || c == CategoryHybrid
}

// NeedsRAG reports whether the category routes to the document tool.
func (c Category) NeedsRAG() bool {
	return c == CategoryRAG || c == CategoryHybrid
}

// Classification is the routing decision for one question. Produced once per
// question and never mutated; retries reuse it.
type Classification struct {
	Category  Category `json:"query_type"`
	Reasoning string   `json:"reasoning"`
	SQLHint   string   `json:"sql_query_hint,omitempty"`
	RAGHint   string   `json:"rag_search_hint,omitempty"`
}

// SQLResult carries the outcome of one SQL tool run. Error and populated
// rows/columns are mutually exclusive by convention; check Error first.
type SQLResult struct {
	Query    string   `json:"query"`
	Columns  []string `json:"columns,omitempty"`
	Rows     [][]any  `json:"rows,omitempty"`
	RowCount int      `json:"row_count"`
	Error    string   `json:"error,omitempty"`
}

// ChunkMeta is the metadata attached to one retrieved passage.
type ChunkMeta struct {
	Source     string `json:"source"`
	Page       int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
}

// RAGResult carries the outcome of one document search. The three slices are
// parallel and equal in length whenever Error is empty.
type RAGResult struct {
	Chunks    []string    `json:"chunks,omitempty"`
	Metadatas []ChunkMeta `json:"metadatas,omitempty"`
	Distances []float64   `json:"distances,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// QualityScore is the scorer's judgement of one answer. Produced fresh each
// attempt and never mutated afterwards.
type QualityScore struct {
	Score              int      `json:"score"`
	Reasoning          string   `json:"reasoning"`
	HasHallucination   bool     `json:"has_hallucination"`
	MissingInformation []string `json:"missing_information,omitempty"`
}

// Response is the terminal artifact of one question-processing cycle. A
// non-empty Error with an empty Answer is a hard failure; both populated
// means a degraded but displayable answer.
type Response struct {
	Answer     string        `json:"answer"`
	Category   Category      `json:"query_type"`
	SQL        *SQLResult    `json:"sql_result,omitempty"`
	RAG        *RAGResult    `json:"rag_result,omitempty"`
	Quality    *QualityScore `json:"quality_score,omitempty"`
	Sources    []string      `json:"sources,omitempty"`
	Error      string        `json:"error,omitempty"`
	RetryCount int           `json:"retry_count"`
}

// Event is the tagged union streamed from the orchestrator to the
// presentation layer: step notices, raw answer fragments, and exactly one
// terminal response per question, in that interleaving order.
type Event interface {
	isEvent()
}

// StepEvent is a progress notice with a machine-readable tag and a human
// label.
type StepEvent struct {
	Step   string
	Label  string
	Detail string
}

// TokenEvent is one raw text fragment of the streamed answer.
type TokenEvent struct {
	Text string
}

// FinalEvent carries the terminal response; the event channel closes after
// emitting it.
type FinalEvent struct {
	Response *Response
}

func (StepEvent) isEvent()  {}
func (TokenEvent) isEvent() {}
func (FinalEvent) isEvent() {}
