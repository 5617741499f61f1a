package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestIsSafeSQL(t *testing.T) {
	cases := []struct {
		query string
		safe  bool
	}{
		{"SELECT * FROM fraud_transactions", true},
		{"SELECT category, COUNT(*) FROM fraud_transactions GROUP BY category", true},
		{"DROP TABLE fraud_transactions", false},
		{"SELECT * FROM fraud_transactions; DELETE FROM fraud_transactions", false},
		{"select * from t where note = 'x'; update t set amt = 0", false},
		{"SELECT updated_at FROM fraud_transactions", true}, // substring, not keyword
		{"TRUNCATE fraud_transactions", false},
		{"CREATE INDEX idx ON fraud_transactions (amt)", false},
		{"SELECT 1", true},
	}
	for _, tc := range cases {
		if got := IsSafeSQL(tc.query); got != tc.safe {
			t.Errorf("IsSafeSQL(%q) = %v, want %v", tc.query, got, tc.safe)
		}
		// Pure check: same input, same verdict.
		if again := IsSafeSQL(tc.query); again != IsSafeSQL(tc.query) {
			t.Errorf("IsSafeSQL(%q) not deterministic", tc.query)
		}
	}
}

func TestCleanupSQL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"SELECT 1", "SELECT 1;"},
		{"SELECT 1;", "SELECT 1;"},
		{"```sql\nSELECT 1\n```", "SELECT 1;"},
		{"```\nSELECT 1;\n```", "SELECT 1;"},
		{"  SELECT 1  ", "SELECT 1;"},
	}
	for _, tc := range cases {
		if got := cleanupSQL(tc.raw); got != tc.want {
			t.Errorf("cleanupSQL(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestSQLToolNeverExecutesUnsafeQuery(t *testing.T) {
	client := &scriptedLLM{sqlReplies: []string{
		"DROP TABLE fraud_transactions",
		"DELETE FROM fraud_transactions",
		"UPDATE fraud_transactions SET is_fraud = 0",
	}}
	db := &scriptedDB{columns: []string{"x"}, rows: [][]any{{1}}}
	tool := NewSQLTool(client, db, "routing", 512, 2, 100)

	res := tool.Run(context.Background(), "wipe the table")
	if len(db.executed) != 0 {
		t.Fatalf("unsafe queries must never reach the store, executed %v", db.executed)
	}
	if res.Error == "" || res.Query != "" {
		t.Errorf("exhaustion must return empty query with error, got %+v", res)
	}
	if !strings.Contains(res.Error, "after 3 attempts") {
		t.Errorf("error must name the attempt count, got %q", res.Error)
	}
}

func TestSQLToolRegeneratesAfterSyntaxFailure(t *testing.T) {
	client := &scriptedLLM{sqlReplies: []string{
		"SELECT frm fraud_transactions",
		"SELECT COUNT(*) FROM fraud_transactions",
	}}
	db := &scriptedDB{columns: []string{"count"}, rows: [][]any{{42}}}
	calls := 0
	gate := &gatedDB{inner: db, dryRun: func(string) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("syntax error at or near \"frm\"")
		}
		return nil
	}}
	tool := NewSQLTool(client, gate, "routing", 512, 2, 100)

	res := tool.Run(context.Background(), "How many transactions?")
	if res.Error != "" {
		t.Fatalf("expected recovery on second attempt, got error %q", res.Error)
	}
	if res.Query != "SELECT COUNT(*) FROM fraud_transactions;" {
		t.Errorf("unexpected accepted query %q", res.Query)
	}
	if res.RowCount != 1 {
		t.Errorf("expected 1 row, got %d", res.RowCount)
	}
}

func TestSQLToolCapsRows(t *testing.T) {
	rows := make([][]any, 150)
	for i := range rows {
		rows[i] = []any{i}
	}
	client := &scriptedLLM{sqlReplies: []string{"SELECT row_index FROM fraud_transactions"}}
	db := &scriptedDB{columns: []string{"row_index"}, rows: rows}
	tool := NewSQLTool(client, db, "routing", 512, 2, 100)

	res := tool.Run(context.Background(), "list rows")
	if res.RowCount != 100 || len(res.Rows) != 100 {
		t.Errorf("expected cap at 100 rows, got count=%d len=%d", res.RowCount, len(res.Rows))
	}
}

func TestSQLToolRejectsNonSelect(t *testing.T) {
	// Safe by keyword check but not a SELECT.
	client := &scriptedLLM{sqlReplies: []string{"EXPLAIN SELECT 1"}}
	db := &scriptedDB{}
	tool := NewSQLTool(client, db, "routing", 512, 0, 100)

	res := tool.Run(context.Background(), "explain something")
	if len(db.executed) != 0 {
		t.Fatalf("non-SELECT must not execute, ran %v", db.executed)
	}
	if !strings.Contains(res.Error, "must start with SELECT") {
		t.Errorf("expected SELECT-only rejection, got %q", res.Error)
	}
}

// gatedDB overrides DryRun per call while delegating the rest.
type gatedDB struct {
	inner  *scriptedDB
	dryRun func(string) error
}

func (g *gatedDB) Execute(ctx context.Context, query string) ([]string, [][]any, error) {
	return g.inner.Execute(ctx, query)
}

func (g *gatedDB) DryRun(_ context.Context, query string) error { return g.dryRun(query) }

func (g *gatedDB) Schema() string { return g.inner.Schema() }
