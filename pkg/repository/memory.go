package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/flagkit/pkg/entity"
)

// MemoryStorage is an in-memory Storage. It is safe for concurrent use and
// stores clones, so neither inputs nor results alias stored values.
// Useful for tests and single-process deployments.
type MemoryStorage[E entity.Entity[E]] struct {
	items map[string]E
	mu    sync.RWMutex
}

// NewMemoryStorage creates a storage pre-filled with the given entities.
func NewMemoryStorage[E entity.Entity[E]](initial ...E) *MemoryStorage[E] {
	s := &MemoryStorage[E]{items: make(map[string]E, len(initial))}
	for _, e := range initial {
		s.items[e.GetUID()] = e.Clone()
	}
	return s
}

func (s *MemoryStorage[E]) Exists(ctx context.Context, uid string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[uid]
	return ok, nil
}

func (s *MemoryStorage[E]) Get(ctx context.Context, uid string) (E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[uid]
	if !ok {
		var zero E
		return zero, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	return e.Clone(), nil
}

func (s *MemoryStorage[E]) Put(ctx context.Context, e E) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[e.GetUID()] = e.Clone()
	return nil
}

func (s *MemoryStorage[E]) Delete(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[uid]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	delete(s.items, uid)
	return nil
}

// List returns clones ordered by uid.
func (s *MemoryStorage[E]) List(ctx context.Context) ([]E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uids := slices.Sorted(maps.Keys(s.items))
	out := make([]E, 0, len(uids))
	for _, uid := range uids {
		out = append(out, s.items[uid].Clone())
	}
	return out, nil
}

func (s *MemoryStorage[E]) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.items)
	return nil
}

// CreateSchema is a no-op for memory storage.
func (s *MemoryStorage[E]) CreateSchema(ctx context.Context) error {
	return nil
}
