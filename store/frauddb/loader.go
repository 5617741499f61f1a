package frauddb

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/lib/pq"
)

// LoadStats summarises a bulk load.
type LoadStats struct {
	FilesLoaded int
	RowsLoaded  int64
	FraudCount  int64
	Skipped     bool
}

var tableColumns = []string{
	"row_index", "trans_date_trans_time", "cc_num", "merchant", "category",
	"amt", "first", "last", "gender", "street", "city", "state", "zip",
	"lat", "long", "city_pop", "job", "dob", "trans_num", "unix_time",
	"merch_lat", "merch_long", "is_fraud",
}

const createTableDDL = `
CREATE TABLE IF NOT EXISTS fraud_transactions (
	row_index              BIGINT,
	trans_date_trans_time  TIMESTAMP,
	cc_num                 BIGINT,
	merchant               TEXT,
	category               TEXT,
	amt                    DOUBLE PRECISION,
	"first"                TEXT,
	"last"                 TEXT,
	gender                 TEXT,
	street                 TEXT,
	city                   TEXT,
	state                  TEXT,
	"zip"                  INTEGER,
	lat                    DOUBLE PRECISION,
	"long"                 DOUBLE PRECISION,
	city_pop               INTEGER,
	job                    TEXT,
	dob                    DATE,
	trans_num              TEXT,
	unix_time              BIGINT,
	merch_lat              DOUBLE PRECISION,
	merch_long             DOUBLE PRECISION,
	is_fraud               INTEGER
)`

var indexDDL = []string{
	"CREATE INDEX IF NOT EXISTS idx_trans_date ON fraud_transactions(trans_date_trans_time)",
	"CREATE INDEX IF NOT EXISTS idx_is_fraud ON fraud_transactions(is_fraud)",
	"CREATE INDEX IF NOT EXISTS idx_category ON fraud_transactions(category)",
	"CREATE INDEX IF NOT EXISTS idx_merchant ON fraud_transactions(merchant)",
}

// Load bulk-loads the raw transaction CSV files through COPY. It is
// idempotent: when the table already holds rows the load is skipped.
func (s *Store) Load(ctx context.Context, csvPaths ...string) (*LoadStats, error) {
	if s.Ready(ctx) {
		s.logger.Info("fraud_transactions already populated, skipping load")
		return &LoadStats{Skipped: true}, nil
	}

	if _, err := s.db.ExecContext(ctx, createTableDDL); err != nil {
		return nil, fmt.Errorf("frauddb: create table: %w", err)
	}

	stats := &LoadStats{}
	for _, path := range csvPaths {
		rows, err := s.copyFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("frauddb: load %s: %w", path, err)
		}
		stats.FilesLoaded++
		stats.RowsLoaded += rows
		s.logger.Info("loaded transaction file", "path", path, "rows", rows)
	}

	for _, ddl := range indexDDL {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return nil, fmt.Errorf("frauddb: create index: %w", err)
		}
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM fraud_transactions WHERE is_fraud = 1",
	).Scan(&stats.FraudCount); err != nil {
		return nil, fmt.Errorf("frauddb: count fraud rows: %w", err)
	}
	return stats, nil
}

func (s *Store) copyFile(ctx context.Context, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.ReuseRecord = true

	// Header row names the unnamed pandas index column "", mapped to row_index.
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("fraud_transactions", tableColumns...))
	if err != nil {
		return 0, err
	}

	var count int64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read record: %w", err)
		}
		if len(record) != len(tableColumns) {
			return 0, fmt.Errorf("record %d has %d fields, want %d", count+1, len(record), len(tableColumns))
		}
		if _, err := stmt.ExecContext(ctx, recordValues(record)...); err != nil {
			return 0, fmt.Errorf("copy record %d: %w", count+1, err)
		}
		count++
	}

	// Flush the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, err
	}
	return count, tx.Commit()
}

// recordValues converts one CSV record into driver values, mapping empty
// fields to NULL. Postgres casts the text representation per column type.
func recordValues(record []string) []any {
	values := make([]any, len(record))
	for i, field := range record {
		if field == "" {
			values[i] = nil
			continue
		}
		values[i] = field
	}
	return values
}
