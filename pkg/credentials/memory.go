package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps the token in process memory. Suitable for tests and
// sessions that should not outlive the process.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces the current token.
func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	TokenSaves.WithLabelValues("memory").Inc()
	return nil
}

// Read returns the current token, or "" if none is stored.
func (s *MemoryStore) Read(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		TokenReads.WithLabelValues("memory", "miss").Inc()
		return "", nil
	}
	TokenReads.WithLabelValues("memory", "hit").Inc()
	return s.token, nil
}

// Clear removes the current token.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	TokenClears.WithLabelValues("memory").Inc()
	return nil
}
