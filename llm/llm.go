// Package llm defines the generation-backend capability consumed by the
// classifier, the SQL tool, the synthesizer and the quality scorer. Providers
// live in sub-packages; callers depend only on these interfaces.
package llm

import (
	"context"
	"iter"

	"github.com/fraudlens/fraudlens/message"
)

// Request bundles the inputs of one chat-completion call. Temperature is
// always sent as given (zero means deterministic sampling); Model and
// MaxTokens fall back to provider defaults when unset.
type Request struct {
	Messages    []*message.Message
	Model       string
	Temperature float64
	MaxTokens   int64
}

// ChatClient is the text-generation capability. Stream yields fragments in
// generation order; the concatenation of all fragments equals what Complete
// would have produced for the same inputs, modulo backend non-determinism.
type ChatClient interface {
	Complete(ctx context.Context, req *Request) (string, error)
	Stream(ctx context.Context, req *Request) iter.Seq2[string, error]
}

// Embedder converts text into fixed-length float vectors. Used by offline
// ingestion and by semantic search query-time vectorization.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
