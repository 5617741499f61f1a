package docstore

import (
	"context"
	"fmt"
	"strings"

	errs "github.com/fraudlens/fraudlens/errors"
	"github.com/fraudlens/fraudlens/llm"
)

// Retriever pairs the passage store with an embedder so query-time
// vectorization is part of the semantic search request path.
type Retriever struct {
	store    *Store
	embedder llm.Embedder
}

// NewRetriever creates a retriever over the given store and embedder.
func NewRetriever(store *Store, embedder llm.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Search embeds the query text and returns the closest passages. It returns
// ErrStoreNotReady when the index holds no passages and ErrNoMatches when
// the search comes back empty.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.ErrEmptyQuestion
	}

	count, err := r.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("docstore: %w", errs.ErrStoreNotReady)
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("docstore: embed query: %w", err)
	}
	matches, err := r.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errs.ErrNoMatches
	}
	return matches, nil
}

// Count reports how many passages are indexed.
func (r *Retriever) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}
