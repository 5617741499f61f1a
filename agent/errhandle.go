package agent

import (
	"fmt"
	"strings"
)

// User-facing error text. Raw provider and driver errors leak endpoints and
// internals, so everything surfaced in an answer goes through one of these.

func describeLLMError(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "rate_limit") || strings.Contains(msg, "429"):
		return "The AI service is temporarily rate-limited. Please try again in a moment."
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return "The AI service timed out. Please try again."
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503"):
		return "The AI service is temporarily unavailable. Please try again later."
	default:
		return fmt.Sprintf("An error occurred with the AI service: %s", msg)
	}
}

func describeSQLError(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "syntax"):
		return "There was a syntax error in the generated SQL query. Retrying..."
	case strings.Contains(lower, "does not exist") && strings.Contains(lower, "relation"):
		return "The database table was not found. Please run data setup first."
	case strings.Contains(lower, "does not exist") && strings.Contains(lower, "column"):
		return "The query referenced a column that doesn't exist in the database."
	default:
		return fmt.Sprintf("A database error occurred: %s", msg)
	}
}
