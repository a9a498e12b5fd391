package core

import (
	"context"
	"sync"
	"time"
)

// Session is an append-only, ordered per-conversation turn log. It is safe
// for concurrent access; appends are atomic (a reader never observes a
// half-written turn).
type Session struct {
	ID      string    `json:"id"`
	Turns   []Turn    `json:"turns"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	mu      sync.RWMutex
}

// NewSession creates an empty session with the given identifier.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, Turns: []Turn{}, Created: now, Updated: now}
}

// Append adds a turn to the history.
func (s *Session) Append(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Turns = append(s.Turns, t)
	s.Updated = time.Now().UTC()
}

// History returns a defensive copy of the most recent turns. A window of
// zero or less returns the full history.
func (s *Session) History(window int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.Turns
	if window > 0 && len(turns) > window {
		turns = turns[len(turns)-window:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Len returns the number of turns recorded so far.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Turns)
}

// MemoryStore persists per-session conversation history. Implementations
// must serialize appends per session identifier while allowing concurrent
// access across different sessions, and must create sessions lazily on first
// append or read. Durability guarantees are the store's responsibility, not
// the loop's.
type MemoryStore interface {
	// Append records a turn at the end of the session's history.
	Append(ctx context.Context, sessionID string, turn Turn) error

	// Read returns the session's history in append order. A window of zero
	// or less returns everything; a positive window returns the most recent
	// turns only.
	Read(ctx context.Context, sessionID string, window int) ([]Turn, error)
}
