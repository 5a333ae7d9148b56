package kv

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and for running the gateway
// without redis (state then lasts for the process lifetime only).
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

func (s *MemoryStore) Write(ctx context.Context, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(doc))
	copy(stored, doc)
	s.docs[key] = stored
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}
