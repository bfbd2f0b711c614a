package backend

import (
	"strings"
	"sync"
)

// MemoryStore keeps the backend origin in process memory. It backs tests and
// embedded hosts that want no disk state at all.
type MemoryStore struct {
	mu  sync.RWMutex
	url string
}

// NewMemoryStore creates an in-memory store. An empty initial value starts
// the store at DefaultOrigin.
func NewMemoryStore(initial string) *MemoryStore {
	initial = strings.TrimSpace(initial)
	if initial == "" {
		initial = DefaultOrigin
	}
	return &MemoryStore{url: initial}
}

// Read returns the current backend origin.
func (s *MemoryStore) Read() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Write validates and applies a new backend origin.
func (s *MemoryStore) Write(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}

	s.mu.Lock()
	s.url = url
	s.mu.Unlock()
	return nil
}
