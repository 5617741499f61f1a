// Package docstore stores fraud-report passages with their embeddings in
// PostgreSQL/pgvector and serves cosine-distance similarity search with
// per-passage metadata.
package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/lib/pq"

	errs "github.com/fraudlens/fraudlens/errors"
	"github.com/fraudlens/fraudlens/pkg/logging"
)

// Passage is one indexed chunk of the source document.
type Passage struct {
	ID         string
	Content    string
	Source     string
	Page       int
	ChunkIndex int
}

// Match is a search hit: the passage plus its cosine distance to the query.
type Match struct {
	Passage
	Distance float64
}

// Config holds pgvector store configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Dimension int
	TableName string
}

// Store implements passage storage and similarity search on pgvector.
type Store struct {
	db        *sql.DB
	dimension int
	tableName string
	logger    *slog.Logger
}

// Open connects to PostgreSQL, enables pgvector and creates the passages
// table when missing.
func Open(cfg *Config) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("docstore: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("docstore: ping: %w", err)
	}

	table := cfg.TableName
	if table == "" {
		table = "fraud_passages"
	}
	s := &Store{
		db:        db,
		dimension: cfg.Dimension,
		tableName: table,
		logger:    logging.WithComponent("docstore"),
	}
	if err := s.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("docstore: setup: %w", err)
	}
	return s, nil
}

func (s *Store) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(255) PRIMARY KEY,
		content TEXT NOT NULL,
		source TEXT NOT NULL,
		page_number INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, s.tableName, s.dimension)

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Add upserts passages with their pre-computed embeddings. The two slices
// must be parallel.
func (s *Store) Add(ctx context.Context, passages []Passage, embeddings [][]float32) error {
	if len(passages) != len(embeddings) {
		return fmt.Errorf("docstore: %w: %d passages but %d embeddings", errs.ErrInvalidInput, len(passages), len(embeddings))
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (id, content, source, page_number, chunk_index, embedding)
	VALUES ($1, $2, $3, $4, $5, $6::vector)
	ON CONFLICT (id) DO UPDATE SET
		content = EXCLUDED.content,
		source = EXCLUDED.source,
		page_number = EXCLUDED.page_number,
		chunk_index = EXCLUDED.chunk_index,
		embedding = EXCLUDED.embedding,
		created_at = CURRENT_TIMESTAMP
	`, s.tableName)

	for i, p := range passages {
		if len(embeddings[i]) != s.dimension {
			return fmt.Errorf("docstore: passage %s dimension mismatch: expected %d, got %d",
				p.ID, s.dimension, len(embeddings[i]))
		}
		_, err := s.db.ExecContext(ctx, query,
			p.ID, p.Content, p.Source, p.Page, p.ChunkIndex, vectorToString(embeddings[i]))
		if err != nil {
			return fmt.Errorf("docstore: add passage %s: %w", p.ID, err)
		}
	}
	return nil
}

// Search returns the topK passages closest to the query vector by cosine
// distance, nearest first.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]Match, error) {
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("docstore: query vector dimension mismatch: expected %d, got %d",
			s.dimension, len(queryVector))
	}
	if topK <= 0 {
		topK = 7
	}

	query := fmt.Sprintf(`
	SELECT id, content, source, page_number, chunk_index, embedding <=> $1::vector AS distance
	FROM %s
	ORDER BY distance
	LIMIT $2
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, vectorToString(queryVector), topK)
	if err != nil {
		return nil, fmt.Errorf("docstore: search: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, topK)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Content, &m.Source, &m.Page, &m.ChunkIndex, &m.Distance); err != nil {
			return nil, fmt.Errorf("docstore: scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore: iterate matches: %w", err)
	}
	return matches, nil
}

// Count returns the number of indexed passages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("docstore: count: %w", err)
	}
	return count, nil
}

// Clear removes all passages.
func (s *Store) Clear(ctx context.Context) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s", s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("docstore: clear: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func vectorToString(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = fmt.Sprintf("%f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
