package store

import (
	"context"
	"sync"

	"github.com/fraudlens/fraudlens/message"
)

// MemoryStore keeps transcripts in process memory. Useful for tests and for
// single-shot CLI sessions that do not need persistence.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]*message.Message
}

// NewMemoryStore creates an empty in-memory transcript store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]*message.Message)}
}

// Append adds a message to the session transcript.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, msg *message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], message.Clone(msg))
	return nil
}

// History returns a copy of the transcript in insertion order.
func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]*message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return message.CloneMessages(s.sessions[sessionID]), nil
}

// Clear removes the transcript for a session.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
