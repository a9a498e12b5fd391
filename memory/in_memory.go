package memory

import (
	"context"
	"sync"

	"github.com/taskweave/taskweave/core"
)

// InMemoryStore is a volatile core.MemoryStore keeping sessions in a process
// local map. Sessions are created lazily on first access. Appends are
// serialized per session by the session's own lock while different sessions
// proceed concurrently.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

var _ core.MemoryStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

func (s *InMemoryStore) session(id string) *core.Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	sess = core.NewSession(id)
	s.sessions[id] = sess
	return sess
}

// Append implements core.MemoryStore.
func (s *InMemoryStore) Append(ctx context.Context, sessionID string, turn core.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.session(sessionID).Append(turn)
	return nil
}

// Read implements core.MemoryStore.
func (s *InMemoryStore) Read(ctx context.Context, sessionID string, window int) ([]core.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.session(sessionID).History(window), nil
}

// Sessions returns the identifiers of all sessions created so far.
func (s *InMemoryStore) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}
