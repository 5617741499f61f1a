package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	errs "github.com/fraudlens/fraudlens/errors"
	"github.com/fraudlens/fraudlens/store/docstore"
)

func TestRAGToolEmptyIndex(t *testing.T) {
	tool := NewRAGTool(&scriptedDocs{searchErr: errs.ErrStoreNotReady}, 7)

	res := tool.Search(context.Background(), "skimming")
	if !strings.Contains(res.Error, "not initialized") {
		t.Errorf("expected setup hint, got %q", res.Error)
	}
}

func TestRAGToolNoMatches(t *testing.T) {
	tool := NewRAGTool(&scriptedDocs{}, 7)

	res := tool.Search(context.Background(), "unrelated topic")
	if res.Error != "No relevant documents found for this query." {
		t.Errorf("unexpected error %q", res.Error)
	}
	// Empty but non-nil lists: the caller can still range them.
	if res.Chunks == nil || res.Metadatas == nil || res.Distances == nil {
		t.Error("zero-match result must carry empty lists, not nil")
	}
}

func TestRAGToolSearchFailure(t *testing.T) {
	tool := NewRAGTool(&scriptedDocs{searchErr: errors.New("dial tcp: refused")}, 7)

	res := tool.Search(context.Background(), "skimming")
	if !strings.Contains(res.Error, "Document retrieval failed") {
		t.Errorf("unexpected error %q", res.Error)
	}
	if len(res.Chunks) != 0 {
		t.Errorf("failed search must carry no chunks, got %d", len(res.Chunks))
	}
}

func TestRAGToolParallelLists(t *testing.T) {
	tool := NewRAGTool(&scriptedDocs{matches: someMatches()}, 7)

	res := tool.Search(context.Background(), "methods of fraud")
	if res.Error != "" {
		t.Fatalf("unexpected error %q", res.Error)
	}
	if len(res.Chunks) != len(res.Metadatas) || len(res.Chunks) != len(res.Distances) {
		t.Fatalf("lists not parallel: %d chunks, %d metadatas, %d distances",
			len(res.Chunks), len(res.Metadatas), len(res.Distances))
	}
	if res.Metadatas[0].Page != 4 || res.Metadatas[1].ChunkIndex != 3 {
		t.Errorf("metadata not mapped: %+v", res.Metadatas)
	}
	if res.Distances[0] >= res.Distances[1] {
		t.Errorf("distances must preserve retrieval order, got %v", res.Distances)
	}
}

func TestRAGToolWrapsRetriever(t *testing.T) {
	// The concrete retriever satisfies the tool's contract.
	var _ DocRetriever = (*docstore.Retriever)(nil)
}
