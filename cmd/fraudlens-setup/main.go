// Command fraudlens-setup performs the one-shot data load: bulk-copies the
// transaction CSVs into PostgreSQL and chunks, embeds, and indexes the fraud
// report PDF. Both steps skip silently when already done.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fraudlens/fraudlens/config"
	"github.com/fraudlens/fraudlens/ingest"
	"github.com/fraudlens/fraudlens/llm/openai"
	"github.com/fraudlens/fraudlens/pkg/logging"
	"github.com/fraudlens/fraudlens/store/docstore"
	"github.com/fraudlens/fraudlens/store/frauddb"
)

func main() {
	csvList := flag.String("csv", "dataset/fraudTrain.csv,dataset/fraudTest.csv", "comma-separated transaction CSV paths")
	pdfPath := flag.String("pdf", "dataset/Understanding Credit Card Frauds.pdf", "fraud report PDF path")
	flag.Parse()

	if err := run(strings.Split(*csvList, ","), *pdfPath); err != nil {
		fmt.Fprintln(os.Stderr, "fraudlens-setup:", err)
		os.Exit(1)
	}
}

func run(csvPaths []string, pdfPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.WithComponent("setup")

	db, err := frauddb.Open(&frauddb.Config{
		Host:         cfg.PostgresHost,
		Port:         cfg.PostgresPort,
		User:         cfg.PostgresUser,
		Password:     cfg.PostgresPassword,
		DBName:       cfg.PostgresDB,
		SSLMode:      cfg.PostgresSSLMode,
		QueryTimeout: cfg.QueryTimeout,
	})
	if err != nil {
		return fmt.Errorf("open transaction store: %w", err)
	}
	defer db.Close()

	docs, err := docstore.Open(&docstore.Config{
		Host:      cfg.PostgresHost,
		Port:      cfg.PostgresPort,
		User:      cfg.PostgresUser,
		Password:  cfg.PostgresPassword,
		DBName:    cfg.PostgresDB,
		SSLMode:   cfg.PostgresSSLMode,
		Dimension: cfg.EmbeddingDim,
	})
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer docs.Close()

	embedder := openai.New(&openai.Config{
		APIKey:         cfg.TogetherAPIKey,
		BaseURL:        cfg.LLMBaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		Dimension:      cfg.EmbeddingDim,
	})

	logger.Info("starting data setup", "csv_files", len(csvPaths), "pdf", pdfPath)
	report, err := ingest.New(db, docs, embedder).Run(ctx, ingest.Config{
		CSVPaths: csvPaths,
		PDFPath:  pdfPath,
	})
	if err != nil {
		return err
	}

	fmt.Println("Data setup complete.")
	if report.DB.Skipped {
		fmt.Println("  Transactions: already loaded, skipped")
	} else {
		fmt.Printf("  Transactions: %d rows from %d files (%d fraud)\n",
			report.DB.RowsLoaded, report.DB.FilesLoaded, report.DB.FraudCount)
	}
	if report.DocsSkipped {
		fmt.Printf("  Document index: already populated (%d chunks), skipped\n", report.ChunksIndexed)
	} else {
		fmt.Printf("  Document index: %d chunks from %d pages\n", report.ChunksIndexed, report.PagesExtracted)
	}
	return nil
}
