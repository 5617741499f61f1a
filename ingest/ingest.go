package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fraudlens/fraudlens/llm"
	"github.com/fraudlens/fraudlens/pkg/logging"
	"github.com/fraudlens/fraudlens/store/docstore"
	"github.com/fraudlens/fraudlens/store/frauddb"
)

const (
	defaultBatchSize = 50

	// cl100k is a stand-in tokenizer for the embedding model; the window is
	// generous enough that any miscount stays far from the 8k limit.
	embedEncoding   = "cl100k_base"
	embedTokenLimit = 8192
)

// Config selects the raw inputs for one setup run.
type Config struct {
	CSVPaths []string
	PDFPath  string

	ChunkSize int
	Overlap   int
	BatchSize int
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ChunkSize <= 0 {
		out.ChunkSize = defaultChunkSize
	}
	if out.Overlap <= 0 {
		out.Overlap = defaultOverlap
	}
	if out.BatchSize <= 0 {
		out.BatchSize = defaultBatchSize
	}
	return out
}

// Report summarizes one setup run for operator inspection.
type Report struct {
	DB *frauddb.LoadStats

	PagesExtracted int
	ChunksIndexed  int
	DocsSkipped    bool
}

// Pipeline loads the transaction CSVs and indexes the PDF. Both halves are
// idempotent: a populated table or index is left untouched.
type Pipeline struct {
	db       *frauddb.Store
	docs     *docstore.Store
	embedder llm.Embedder
	logger   *slog.Logger
}

func New(db *frauddb.Store, docs *docstore.Store, embedder llm.Embedder) *Pipeline {
	return &Pipeline{
		db:       db,
		docs:     docs,
		embedder: embedder,
		logger:   logging.WithComponent("ingest"),
	}
}

func (p *Pipeline) Run(ctx context.Context, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()
	report := &Report{}

	stats, err := p.db.Load(ctx, cfg.CSVPaths...)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	report.DB = stats
	if stats.Skipped {
		p.logger.Info("transaction table already populated, skipping CSV load")
	} else {
		p.logger.Info("transactions loaded", "rows", stats.RowsLoaded, "fraud", stats.FraudCount, "files", stats.FilesLoaded)
	}

	if err := p.indexDocument(ctx, cfg, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (p *Pipeline) indexDocument(ctx context.Context, cfg Config, report *Report) error {
	existing, err := p.docs.Count(ctx)
	if err != nil {
		return fmt.Errorf("probe document index: %w", err)
	}
	if existing > 0 {
		p.logger.Info("document index already populated, skipping", "chunks", existing)
		report.ChunksIndexed = existing
		report.DocsSkipped = true
		return nil
	}

	pages, err := ExtractPDFPages(cfg.PDFPath)
	if err != nil {
		return err
	}
	report.PagesExtracted = len(pages)

	truncator, err := NewTruncator(embedEncoding, embedTokenLimit)
	if err != nil {
		return fmt.Errorf("init tokenizer: %w", err)
	}

	var passages []docstore.Passage
	id := 0
	for _, page := range pages {
		for i, chunk := range ChunkText(page.Text, cfg.ChunkSize, cfg.Overlap) {
			passages = append(passages, docstore.Passage{
				ID:         fmt.Sprintf("chunk_%d", id),
				Content:    truncator.Truncate(chunk),
				Source:     page.Source,
				Page:       page.Number,
				ChunkIndex: i,
			})
			id++
		}
	}
	p.logger.Info("document chunked", "pages", len(pages), "chunks", len(passages))

	for start := 0; start < len(passages); start += cfg.BatchSize {
		end := min(start+cfg.BatchSize, len(passages))
		batch := passages[start:end]

		texts := make([]string, len(batch))
		for i, passage := range batch {
			texts[i] = passage.Content
		}
		embeddings, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch %d: %w", start/cfg.BatchSize+1, err)
		}
		if err := p.docs.Add(ctx, batch, embeddings); err != nil {
			return fmt.Errorf("index batch %d: %w", start/cfg.BatchSize+1, err)
		}
		p.logger.Info("indexed batch", "from", start, "to", end-1)
	}

	report.ChunksIndexed = len(passages)
	return nil
}
