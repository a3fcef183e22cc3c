package storage

import (
	"context"
	"slices"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func (s *memoryStore) Get(_ context.Context, slot string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.slots == nil {
		return nil, ErrClosed
	}

	value, ok := s.slots[slot]
	if !ok {
		return nil, nil
	}
	return slices.Clone(value), nil
}

func (s *memoryStore) Set(_ context.Context, slot string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slots == nil {
		return ErrClosed
	}

	s.slots[slot] = slices.Clone(value)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slots == nil {
		return ErrClosed
	}

	delete(s.slots, slot)
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = nil
	return nil
}
