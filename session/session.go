// Package session persists conversation transcripts. The transcript is an
// append-only ordered sequence of messages owned by the presentation layer;
// the agent only ever reads a bounded recent window of it.
package session

import (
	"context"

	"github.com/fraudlens/fraudlens/message"
)

// Store persists per-session transcripts. Implementations live in
// session/store (in-memory, Redis, MongoDB).
type Store interface {
	// Append adds one message to the end of the session transcript.
	Append(ctx context.Context, sessionID string, msg *message.Message) error

	// History returns the full transcript in insertion order.
	History(ctx context.Context, sessionID string) ([]*message.Message, error)

	// Clear removes the transcript for a session.
	Clear(ctx context.Context, sessionID string) error
}
