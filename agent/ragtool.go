package agent

import (
	"context"
	"errors"
	"log/slog"

	errs "github.com/fraudlens/fraudlens/errors"
	"github.com/fraudlens/fraudlens/pkg/logging"
	"github.com/fraudlens/fraudlens/store/docstore"
)

// DocRetriever is the slice of the document index the RAG tool needs.
type DocRetriever interface {
	Search(ctx context.Context, query string, topK int) ([]docstore.Match, error)
}

// RAGTool retrieves the passages most similar to a question from the
// document index.
type RAGTool struct {
	retriever DocRetriever
	topK      int
	logger    *slog.Logger
}

func NewRAGTool(retriever DocRetriever, topK int) *RAGTool {
	return &RAGTool{
		retriever: retriever,
		topK:      topK,
		logger:    logging.WithComponent("rag_tool"),
	}
}

// Search never returns nil; failures and empty indexes come back as a result
// with Error set so the caller can degrade.
func (t *RAGTool) Search(ctx context.Context, query string) *RAGResult {
	matches, err := t.retriever.Search(ctx, query, t.topK)
	switch {
	case errors.Is(err, errs.ErrStoreNotReady):
		return &RAGResult{Error: "Vector store is not initialized. Please run data setup first."}
	case errors.Is(err, errs.ErrNoMatches):
		return &RAGResult{
			Chunks:    []string{},
			Metadatas: []ChunkMeta{},
			Distances: []float64{},
			Error:     "No relevant documents found for this query.",
		}
	case err != nil:
		t.logger.Error("document search failed", "error", err)
		return &RAGResult{Error: "Document retrieval failed: " + err.Error()}
	}

	result := &RAGResult{
		Chunks:    make([]string, len(matches)),
		Metadatas: make([]ChunkMeta, len(matches)),
		Distances: make([]float64, len(matches)),
	}
	for i, m := range matches {
		result.Chunks[i] = m.Content
		result.Metadatas[i] = ChunkMeta{
			Source:     m.Source,
			Page:       m.Page,
			ChunkIndex: m.ChunkIndex,
		}
		result.Distances[i] = m.Distance
	}
	return result
}
