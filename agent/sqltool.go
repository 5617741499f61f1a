package agent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/fraudlens/fraudlens/llm"
	"github.com/fraudlens/fraudlens/message"
	"github.com/fraudlens/fraudlens/pkg/logging"
)

// QueryExecutor is the slice of the transaction store the SQL tool needs.
type QueryExecutor interface {
	Execute(ctx context.Context, query string) (columns []string, rows [][]any, err error)
	DryRun(ctx context.Context, query string) error
	Schema() string
}

// SQLTool turns a natural-language question into a validated SELECT and runs
// it against the transaction store. Generation is retried up to maxRetries
// extra times when validation or execution fails.
type SQLTool struct {
	llm        llm.ChatClient
	db         QueryExecutor
	model      string
	maxTokens  int64
	maxRetries int
	rowLimit   int
	logger     *slog.Logger
}

func NewSQLTool(client llm.ChatClient, db QueryExecutor, model string, maxTokens int64, maxRetries, rowLimit int) *SQLTool {
	return &SQLTool{
		llm:        client,
		db:         db,
		model:      model,
		maxTokens:  maxTokens,
		maxRetries: maxRetries,
		rowLimit:   rowLimit,
		logger:     logging.WithComponent("sql_tool"),
	}
}

var forbiddenSQL = regexp.MustCompile(`(?i)\b(DROP|DELETE|INSERT|UPDATE|ALTER|CREATE|PRAGMA|ATTACH|DETACH|REPLACE|TRUNCATE)\b`)

// IsSafeSQL reports whether the query is free of write and DDL keywords.
// It is a pure lexical check; syntax is validated separately via EXPLAIN.
func IsSafeSQL(query string) bool {
	return !forbiddenSQL.MatchString(query)
}

var (
	fenceOpen  = regexp.MustCompile("^```(?:sql)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
)

func cleanupSQL(raw string) string {
	sql := strings.TrimSpace(raw)
	sql = fenceOpen.ReplaceAllString(sql, "")
	sql = fenceClose.ReplaceAllString(sql, "")
	sql = strings.TrimSpace(sql)
	if !strings.HasSuffix(sql, ";") {
		sql += ";"
	}
	return sql
}

// Run executes the generate-validate-execute loop. It never returns nil: on
// exhaustion the result carries an empty Query and a populated Error so the
// caller can degrade instead of failing the whole question.
func (t *SQLTool) Run(ctx context.Context, question string) *SQLResult {
	var lastErr string

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		query, err := t.generate(ctx, question)
		if err != nil {
			lastErr = describeLLMError(err)
			t.logger.Warn("SQL generation failed", "attempt", attempt+1, "error", err)
			continue
		}
		t.logger.Info("generated SQL", "attempt", attempt+1, "query", query)

		if reason, ok := t.validate(ctx, query); !ok {
			lastErr = reason
			t.logger.Warn("SQL validation failed", "attempt", attempt+1, "reason", reason)
			continue
		}

		columns, rows, err := t.db.Execute(ctx, query)
		if err != nil {
			lastErr = describeSQLError(err)
			t.logger.Warn("SQL execution failed", "attempt", attempt+1, "error", err)
			continue
		}

		if len(rows) > t.rowLimit {
			rows = rows[:t.rowLimit]
		}
		return &SQLResult{
			Query:    query,
			Columns:  columns,
			Rows:     rows,
			RowCount: len(rows),
		}
	}

	return &SQLResult{
		Error: fmt.Sprintf("SQL query failed after %d attempts: %s", t.maxRetries+1, lastErr),
	}
}

func (t *SQLTool) generate(ctx context.Context, question string) (string, error) {
	system := renderPrompt(sqlGenerationPrompt, map[string]string{"schema": t.db.Schema()})
	raw, err := t.llm.Complete(ctx, &llm.Request{
		Messages: []*message.Message{
			message.NewMessage(message.RoleSystem, system),
			message.NewMessage(message.RoleUser, "Generate a PostgreSQL SELECT query for this question:\n\n"+question),
		},
		Model:       t.model,
		Temperature: 0.0,
		MaxTokens:   t.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return cleanupSQL(raw), nil
}

// validate gates every generated query: lexical safety, SELECT-only, then an
// EXPLAIN dry run against the live schema. Nothing reaches Execute without
// passing all three.
func (t *SQLTool) validate(ctx context.Context, query string) (string, bool) {
	if !IsSafeSQL(query) {
		return "query contains forbidden operations (only SELECT is allowed)", false
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT") {
		return "query must start with SELECT", false
	}
	if err := t.db.DryRun(ctx, query); err != nil {
		return "SQL syntax error: " + err.Error(), false
	}
	return "", true
}
