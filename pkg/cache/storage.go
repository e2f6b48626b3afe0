package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/entity"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

const defaultStorageCapacity = 1024

// Storage is a read-through, write-through repository.Storage decorator.
// Single entity reads are served from an LRU; writes go to the backend first
// and update the cache only on success. List always reads the backend.
//
// A read that misses fills the cache only if no write or invalidation ran
// while the backend was being read, so a slow read never overwrites a
// newer value.
//
// The cache is local to the process. Writes made by other processes become
// visible when entries expire (see WithTTL) or are evicted.
type Storage[E entity.Entity[E]] struct {
	next  repository.Storage[E]
	items *LRU[string, storageEntry[E]]
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	epoch uint64 // bumped by every write and invalidation
}

type storageEntry[E any] struct {
	value    E
	storedAt time.Time
}

// StorageOption configures a Storage.
type StorageOption func(*storageOptions)

type storageOptions struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// WithCapacity bounds the number of cached entities.
func WithCapacity(n int) StorageOption {
	return func(o *storageOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithTTL expires cached entities after d. Zero keeps them until evicted.
func WithTTL(d time.Duration) StorageOption {
	return func(o *storageOptions) {
		o.ttl = d
	}
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) StorageOption {
	return func(o *storageOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewStorage wraps next with an LRU cache.
// It panics if next is nil.
func NewStorage[E entity.Entity[E]](next repository.Storage[E], opts ...StorageOption) *Storage[E] {
	if next == nil {
		panic("cache: storage cannot be nil")
	}
	o := &storageOptions{capacity: defaultStorageCapacity, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return &Storage[E]{
		next:  next,
		items: NewLRU[string, storageEntry[E]](o.capacity),
		ttl:   o.ttl,
		now:   o.now,
	}
}

func (s *Storage[E]) Exists(ctx context.Context, uid string) (bool, error) {
	if _, ok := s.lookup(uid); ok {
		return true, nil
	}
	return s.next.Exists(ctx, uid)
}

func (s *Storage[E]) Get(ctx context.Context, uid string) (E, error) {
	if e, ok := s.lookup(uid); ok {
		return e.Clone(), nil
	}

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	e, err := s.next.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.items.Remove(uid)
		}
		var zero E
		return zero, err
	}

	s.mu.Lock()
	if s.epoch == epoch {
		s.store(e)
	}
	s.mu.Unlock()
	return e.Clone(), nil
}

func (s *Storage[E]) Put(ctx context.Context, e E) error {
	err := s.next.Put(ctx, e)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	if err != nil {
		s.items.Remove(e.GetUID())
		return err
	}
	s.store(e)
	return nil
}

func (s *Storage[E]) Delete(ctx context.Context, uid string) error {
	err := s.next.Delete(ctx, uid)
	s.Invalidate(uid)
	return err
}

func (s *Storage[E]) List(ctx context.Context) ([]E, error) {
	return s.next.List(ctx)
}

func (s *Storage[E]) Clear(ctx context.Context) error {
	err := s.next.Clear(ctx)
	s.InvalidateAll()
	return err
}

func (s *Storage[E]) CreateSchema(ctx context.Context) error {
	return s.next.CreateSchema(ctx)
}

// Invalidate drops uid from the cache.
func (s *Storage[E]) Invalidate(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.items.Remove(uid)
}

// InvalidateAll empties the cache without touching the backend.
func (s *Storage[E]) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.items.Clear()
}

// Stats returns cache hits and misses.
func (s *Storage[E]) Stats() (hits, misses uint64) {
	return s.items.Stats()
}

func (s *Storage[E]) lookup(uid string) (E, bool) {
	entry, ok := s.items.Get(uid)
	if !ok {
		var zero E
		return zero, false
	}
	if s.ttl > 0 && s.now().Sub(entry.storedAt) >= s.ttl {
		s.items.Remove(uid)
		var zero E
		return zero, false
	}
	return entry.value, true
}

func (s *Storage[E]) store(e E) {
	s.items.Put(e.GetUID(), storageEntry[E]{value: e.Clone(), storedAt: s.now()})
}
