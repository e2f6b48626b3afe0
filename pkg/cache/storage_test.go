package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/cache"
	"github.com/dmitrymomot/flagkit/pkg/entity"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

type doc struct {
	entity.Base
	Body string
}

func (d *doc) Clone() *doc {
	c := *d
	return &c
}

// countingStorage counts backend reads.
type countingStorage struct {
	*repository.MemoryStorage[*doc]
	gets   int
	putErr error
}

func (s *countingStorage) Get(ctx context.Context, uid string) (*doc, error) {
	s.gets++
	return s.MemoryStorage.Get(ctx, uid)
}

func (s *countingStorage) Put(ctx context.Context, d *doc) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemoryStorage.Put(ctx, d)
}

func newBackend(docs ...*doc) *countingStorage {
	return &countingStorage{MemoryStorage: repository.NewMemoryStorage(docs...)}
}

func TestStorage_ReadThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := newBackend(&doc{Base: entity.Base{UID: "a"}, Body: "v1"})
	s := cache.NewStorage[*doc](backend)

	for range 3 {
		d, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "v1", d.Body)
	}
	assert.Equal(t, 1, backend.gets)

	d, _ := s.Get(ctx, "a")
	d.Body = "mutated"
	again, _ := s.Get(ctx, "a")
	assert.Equal(t, "v1", again.Body, "cached values are not aliased")

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	hits, misses := s.Stats()
	assert.Equal(t, uint64(4), hits)
	assert.Equal(t, uint64(2), misses)
}

func TestStorage_WriteThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := newBackend()
	s := cache.NewStorage[*doc](backend)

	require.NoError(t, s.Put(ctx, &doc{Base: entity.Base{UID: "a"}, Body: "v1"}))
	d, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "v1", d.Body)
	assert.Zero(t, backend.gets)

	backend.putErr = errors.New("down")
	require.Error(t, s.Put(ctx, &doc{Base: entity.Base{UID: "a"}, Body: "v2"}))
	d, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "v1", d.Body, "failed writes are not cached")

	require.NoError(t, s.Delete(ctx, "a"))
	ok, err := s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, s.Delete(ctx, "a"), repository.ErrNotFound)
}

func TestStorage_TTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	backend := newBackend(&doc{Base: entity.Base{UID: "a"}})
	s := cache.NewStorage[*doc](backend,
		cache.WithTTL(time.Minute),
		cache.WithClock(func() time.Time { return now }),
	)

	_, err := s.Get(ctx, "a")
	require.NoError(t, err)
	_, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.gets)

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.gets)
}

func TestStorage_Clear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := newBackend(&doc{Base: entity.Base{UID: "a"}}, &doc{Base: entity.Base{UID: "b"}})
	s := cache.NewStorage[*doc](backend, cache.WithCapacity(1))

	_, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStorage_Invalidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := newBackend(&doc{Base: entity.Base{UID: "a"}}, &doc{Base: entity.Base{UID: "b"}})
	s := cache.NewStorage[*doc](backend)

	for _, uid := range []string{"a", "b"} {
		_, err := s.Get(ctx, uid)
		require.NoError(t, err)
	}
	require.Equal(t, 2, backend.gets)

	s.Invalidate("a")
	_, err := s.Get(ctx, "b")
	require.NoError(t, err)
	_, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, backend.gets)

	s.InvalidateAll()
	_, err = s.Get(ctx, "a")
	require.NoError(t, err)
	_, err = s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 5, backend.gets)
}

// slowStorage pauses Get after reading the backend until release is closed.
type slowStorage struct {
	*repository.MemoryStorage[*doc]
	read    chan struct{}
	release chan struct{}
}

func (s *slowStorage) Get(ctx context.Context, uid string) (*doc, error) {
	d, err := s.MemoryStorage.Get(ctx, uid)
	close(s.read)
	<-s.release
	return d, err
}

func TestStorage_SlowFillDoesNotOverwriteWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name  string
		write func(s *cache.Storage[*doc]) error
		want  string
	}{
		{
			name:  "put",
			write: func(s *cache.Storage[*doc]) error { return s.Put(ctx, &doc{Base: entity.Base{UID: "a"}, Body: "v2"}) },
			want:  "v2",
		},
		{
			name: "invalidate after backend write",
			write: func(s *cache.Storage[*doc]) error {
				s.Invalidate("a")
				return nil
			},
			want: "v2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			backend := &slowStorage{
				MemoryStorage: repository.NewMemoryStorage(&doc{Base: entity.Base{UID: "a"}, Body: "v1"}),
				read:          make(chan struct{}),
				release:       make(chan struct{}),
			}
			s := cache.NewStorage[*doc](backend)

			done := make(chan *doc)
			go func() {
				d, err := s.Get(ctx, "a")
				assert.NoError(t, err)
				done <- d
			}()

			<-backend.read
			require.NoError(t, backend.MemoryStorage.Put(ctx, &doc{Base: entity.Base{UID: "a"}, Body: "v2"}))
			require.NoError(t, tt.write(s))
			close(backend.release)
			assert.Equal(t, "v1", (<-done).Body, "the slow reader sees the value it read")

			// The backend is no longer slow: read and release are closed.
			backend.read, backend.release = make(chan struct{}), make(chan struct{})
			close(backend.release)
			d, err := s.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Body)
		})
	}
}

func TestStorage_NilBackend(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { cache.NewStorage[*doc](nil) })
}
