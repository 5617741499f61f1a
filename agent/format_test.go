package agent

import (
	"strings"
	"testing"
)

func TestFormatSQLResultAsText(t *testing.T) {
	columns := []string{"category", "fraud_count"}
	rows := [][]any{
		{"grocery_pos", 180},
		{"shopping_net", 95},
	}

	got := FormatSQLResultAsText(columns, rows, 20)
	lines := strings.Split(got, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule, 2 rows; got %d lines:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[0], "category") || !strings.Contains(lines[0], " | ") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "-+-") {
		t.Errorf("unexpected rule %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "grocery_pos ") {
		t.Errorf("values must be left-aligned to the column width, got %q", lines[2])
	}
}

func TestFormatSQLResultCapsPreview(t *testing.T) {
	columns := []string{"n"}
	rows := make([][]any, 30)
	for i := range rows {
		rows[i] = []any{i}
	}

	got := FormatSQLResultAsText(columns, rows, 20)
	if !strings.HasSuffix(got, "... and 10 more rows") {
		t.Errorf("expected overflow note, got tail %q", got[len(got)-40:])
	}
	if n := len(strings.Split(got, "\n")); n != 23 {
		t.Errorf("expected 23 lines (header, rule, 20 rows, note), got %d", n)
	}
}

func TestFormatSQLResultEmpty(t *testing.T) {
	if got := FormatSQLResultAsText([]string{"a"}, nil, 20); got != "No results found." {
		t.Errorf("unexpected empty rendering %q", got)
	}
}

func TestFormatSQLResultNilCell(t *testing.T) {
	got := FormatSQLResultAsText([]string{"a", "b"}, [][]any{{nil, "x"}}, 20)
	if strings.Contains(got, "<nil>") {
		t.Errorf("nil cells must render blank, got %q", got)
	}
}
