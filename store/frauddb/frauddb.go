// Package frauddb owns the fraud_transactions table in PostgreSQL: read-only
// query execution for the SQL tool, a dry-run syntax check, a readiness
// probe, and the schema description fed to the query-generation prompt.
package frauddb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"

	errs "github.com/fraudlens/fraudlens/errors"
	"github.com/fraudlens/fraudlens/pkg/logging"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	QueryTimeout time.Duration
}

// Store wraps the database handle. It is constructed once at process start
// and reused; database/sql handles make it safe across sequential calls.
type Store struct {
	db      *sql.DB
	timeout time.Duration
	logger  *slog.Logger
}

// Open connects to PostgreSQL and verifies the connection.
func Open(cfg *Config) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("frauddb: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("frauddb: ping: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{
		db:      db,
		timeout: timeout,
		logger:  logging.WithComponent("frauddb"),
	}, nil
}

// Execute runs a query with a bounded timeout and returns ordered column
// names and rows. Driver byte slices are normalised to strings so downstream
// formatting sees plain scalar values.
func (s *Store) Execute(ctx context.Context, query string) ([]string, [][]any, error) {
	stmt := strings.TrimSpace(query)
	if stmt == "" {
		return nil, nil, fmt.Errorf("frauddb: %w: blank query", errs.ErrInvalidInput)
	}
	// The store is read-only regardless of what the caller validated.
	if !strings.HasPrefix(strings.ToUpper(stmt), "SELECT") {
		return nil, nil, fmt.Errorf("frauddb: %w: only SELECT statements may run", errs.ErrUnsafeQuery)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("frauddb: execute: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("frauddb: columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, fmt.Errorf("frauddb: scan: %w", err)
		}
		out = append(out, normalizeRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("frauddb: iterate: %w", err)
	}
	return columns, out, nil
}

// DryRun asks the planner to parse the query without executing it.
func (s *Store) DryRun(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, "EXPLAIN "+strings.TrimSuffix(strings.TrimSpace(query), ";")); err != nil {
		return fmt.Errorf("frauddb: syntax check: %w", err)
	}
	return nil
}

// Ready reports whether the fraud_transactions table exists and holds data.
func (s *Store) Ready(ctx context.Context) bool {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'fraud_transactions'",
	).Scan(&count)
	if err != nil || count == 0 {
		return false
	}
	var one int
	err = s.db.QueryRowContext(ctx, "SELECT 1 FROM fraud_transactions LIMIT 1").Scan(&one)
	return err == nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func normalizeRow(values []any) []any {
	for i, v := range values {
		switch tv := v.(type) {
		case []byte:
			values[i] = string(tv)
		case time.Time:
			values[i] = tv.Format("2006-01-02 15:04:05")
		}
	}
	return values
}
