package repository

import (
	"context"
	"sync"

	domainRepo "github.com/sangkips/billdesk/internal/domain/repository"
)

type memorySessionStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemorySessionStore creates a store that lives as long as the process
func NewMemorySessionStore() domainRepo.SessionStore {
	return &memorySessionStore{data: make(map[string]string)}
}

func (s *memorySessionStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memorySessionStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memorySessionStore) Update(_ context.Context, values map[string]string, remove ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range remove {
		delete(s.data, k)
	}
	for k, v := range values {
		s.data[k] = v
	}
	return nil
}

func (s *memorySessionStore) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *memorySessionStore) Close() error {
	return nil
}
