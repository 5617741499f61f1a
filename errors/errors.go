package errors

import "errors"

// Sentinel errors for common failure conditions across the agent pipeline.
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyQuestion indicates an empty or whitespace-only question
	ErrEmptyQuestion = errors.New("empty question")

	// ErrStoreNotReady indicates a backing store has no usable data yet
	ErrStoreNotReady = errors.New("store not ready")

	// ErrUnsafeQuery indicates a generated SQL query failed the safety check
	ErrUnsafeQuery = errors.New("unsafe SQL query")

	// ErrNoMatches indicates a semantic search produced zero passages
	ErrNoMatches = errors.New("no matching passages")
)
