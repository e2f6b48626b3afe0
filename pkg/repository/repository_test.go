package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/entity"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

type item struct {
	entity.Base
	Value string
}

func (i *item) Clone() *item {
	c := *i
	return &c
}

type itemListener = repository.Listener[*item]

// recorder appends "<name>:<event>" to a shared journal.
type recorder struct {
	name    string
	journal *journal
	fail    error
}

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func (r *recorder) record(event string) error {
	r.journal.add(r.name + ":" + event)
	return r.fail
}

func (r *recorder) OnCreate(_ context.Context, e *item) error { return r.record("create:" + e.UID) }
func (r *recorder) OnUpdate(_ context.Context, e *item) error { return r.record("update:" + e.UID) }
func (r *recorder) OnDelete(_ context.Context, uid string) error {
	return r.record("delete:" + uid)
}
func (r *recorder) OnCreateSchema(context.Context) error { return r.record("schema") }
func (r *recorder) OnDeleteAll(context.Context) error    { return r.record("clear") }

func newRepo(opts ...repository.Option) *repository.Repository[*item, itemListener] {
	return repository.New[*item, itemListener](repository.NewMemoryStorage[*item](), opts...)
}

func TestRepository_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stamps dates and persists a copy", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		repo := newRepo(repository.WithClock(func() time.Time { return now }))

		in := &item{Base: entity.Base{UID: "a"}, Value: "v1"}
		require.NoError(t, repo.Create(ctx, in))
		assert.Equal(t, now, in.CreatedAt)
		assert.Equal(t, now, in.UpdatedAt)

		in.Value = "mutated"
		got, err := repo.FindByID(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "v1", got.Value)
	})

	t.Run("duplicate uid fails with already exists", func(t *testing.T) {
		t.Parallel()
		repo := newRepo()
		j := &journal{}
		repo.RegisterListener("l1", &recorder{name: "l1", journal: j})

		require.NoError(t, repo.Create(ctx, &item{Base: entity.Base{UID: "a"}}))
		err := repo.Create(ctx, &item{Base: entity.Base{UID: "a"}})
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
		assert.Equal(t, []string{"l1:create:a"}, j.list())
	})

	t.Run("blank uid fails fast", func(t *testing.T) {
		t.Parallel()
		repo := newRepo()
		err := repo.Create(ctx, &item{Base: entity.Base{UID: "  "}})
		assert.ErrorIs(t, err, repository.ErrInvalidArgument)
		assert.ErrorIs(t, err, entity.ErrBlankUID)
	})
}

func TestRepository_FindByID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newRepo()

	_, err := repo.FindByID(ctx, "never")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.FindByID(ctx, "")
	assert.ErrorIs(t, err, repository.ErrInvalidArgument)

	ok, err := repo.Exists(ctx, "never")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := created
	repo := newRepo(repository.WithClock(func() time.Time { return clock }))
	j := &journal{}
	repo.RegisterListener("l1", &recorder{name: "l1", journal: j})

	require.NoError(t, repo.Create(ctx, &item{Base: entity.Base{UID: "a"}, Value: "v1"}))

	clock = created.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, &item{Base: entity.Base{UID: "a"}, Value: "v2"}))

	got, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Value)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, clock, got.UpdatedAt)

	err = repo.Update(ctx, &item{Base: entity.Base{UID: "missing"}})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []string{"l1:create:a", "l1:update:a"}, j.list())
}

func TestRepository_Persist(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newRepo()
	j := &journal{}
	repo.RegisterListener("l1", &recorder{name: "l1", journal: j})

	require.NoError(t, repo.Create(ctx, &item{Base: entity.Base{UID: "a"}}))
	require.NoError(t, repo.Persist(ctx, &item{Base: entity.Base{UID: "a"}, Value: "silent"}))

	got, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "silent", got.Value)
	assert.Equal(t, []string{"l1:create:a"}, j.list())
}

func TestRepository_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing uid fails and fires nothing", func(t *testing.T) {
		t.Parallel()
		repo := newRepo()
		j := &journal{}
		repo.RegisterListener("l1", &recorder{name: "l1", journal: j})

		err := repo.Delete(ctx, "ghost")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Empty(t, j.list())
	})

	t.Run("removes and notifies", func(t *testing.T) {
		t.Parallel()
		repo := newRepo()
		j := &journal{}
		require.NoError(t, repo.Create(ctx, &item{Base: entity.Base{UID: "a"}}))
		repo.RegisterListener("l1", &recorder{name: "l1", journal: j})

		require.NoError(t, repo.Delete(ctx, "a"))
		ok, err := repo.Exists(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, []string{"l1:delete:a"}, j.list())
	})
}

func TestRepository_SchemaAndDeleteAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newRepo()
	j := &journal{}
	repo.RegisterListener("l1", &recorder{name: "l1", journal: j})

	require.NoError(t, repo.CreateSchema(ctx))
	require.NoError(t, repo.Create(ctx, &item{Base: entity.Base{UID: "a"}}))
	require.NoError(t, repo.Create(ctx, &item{Base: entity.Base{UID: "b"}}))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.DeleteAll(ctx))
	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.Equal(t, []string{"l1:schema", "l1:create:a", "l1:create:b", "l1:clear"}, j.list())
}

func TestRepository_FindAllIsSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newRepo()
	require.NoError(t, repo.Create(ctx, &item{Base: entity.Base{UID: "a"}, Value: "v1"}))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	all["a"].Value = "changed"

	got, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Value)
}

func TestRepository_Listeners(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("dispatches in registration order", func(t *testing.T) {
		t.Parallel()
		repo := newRepo()
		j := &journal{}
		repo.RegisterListener("L1", &recorder{name: "L1", journal: j})
		repo.RegisterListener("L2", &recorder{name: "L2", journal: j})

		require.NoError(t, repo.Create(ctx, &item{Base: entity.Base{UID: "e"}}))
		assert.Equal(t, []string{"L1:create:e", "L2:create:e"}, j.list())
	})

	t.Run("duplicate name overwrites in place", func(t *testing.T) {
		t.Parallel()
		repo := newRepo()
		j := &journal{}
		repo.RegisterListener("L1", &recorder{name: "first", journal: j})
		repo.RegisterListener("L2", &recorder{name: "L2", journal: j})
		repo.RegisterListener("L1", &recorder{name: "second", journal: j})

		assert.Equal(t, []string{"L1", "L2"}, repo.Listeners())
		require.NoError(t, repo.Create(ctx, &item{Base: entity.Base{UID: "e"}}))
		assert.Equal(t, []string{"second:create:e", "L2:create:e"}, j.list())
	})

	t.Run("unregister", func(t *testing.T) {
		t.Parallel()
		repo := newRepo()
		j := &journal{}
		repo.RegisterListener("L1", &recorder{name: "L1", journal: j})

		assert.True(t, repo.UnregisterListener("L1"))
		assert.False(t, repo.UnregisterListener("L1"))
		require.NoError(t, repo.Create(ctx, &item{Base: entity.Base{UID: "e"}}))
		assert.Empty(t, j.list())
	})

	t.Run("failing listener does not undo the commit", func(t *testing.T) {
		t.Parallel()
		repo := newRepo()
		j := &journal{}
		boom := errors.New("boom")
		repo.RegisterListener("bad", &recorder{name: "bad", journal: j, fail: boom})
		repo.RegisterListener("good", &recorder{name: "good", journal: j})

		err := repo.Create(ctx, &item{Base: entity.Base{UID: "e"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrListener)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"bad:create:e", "good:create:e"}, j.list())

		ok, err := repo.Exists(ctx, "e")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Exists(ctx context.Context, uid string) (bool, error) {
	args := m.Called(ctx, uid)
	return args.Bool(0), args.Error(1)
}

func (m *mockStorage) Get(ctx context.Context, uid string) (*item, error) {
	args := m.Called(ctx, uid)
	e, _ := args.Get(0).(*item)
	return e, args.Error(1)
}

func (m *mockStorage) Put(ctx context.Context, e *item) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockStorage) Delete(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

func (m *mockStorage) List(ctx context.Context) ([]*item, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*item)
	return list, args.Error(1)
}

func (m *mockStorage) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStorage) CreateSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestRepository_StorageFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	down := repository.Unavailable(fmt.Errorf("dial tcp: connection refused"))
	storage := new(mockStorage)
	storage.On("Exists", mock.Anything, "a").Return(false, nil)
	storage.On("Put", mock.Anything, mock.Anything).Return(down)

	repo := repository.New[*item, itemListener](storage)
	j := &journal{}
	repo.RegisterListener("l1", &recorder{name: "l1", journal: j})

	err := repo.Create(ctx, &item{Base: entity.Base{UID: "a"}})
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
	assert.Empty(t, j.list())
	storage.AssertExpectations(t)
}

func TestRepository_NewPanicsWithoutStorage(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		repository.New[*item, itemListener](nil)
	})
}

func TestUnavailable(t *testing.T) {
	t.Parallel()

	assert.NoError(t, repository.Unavailable(nil))
	assert.Equal(t, repository.ErrNotFound, repository.Unavailable(repository.ErrNotFound))

	err := repository.Unavailable(errors.New("timeout"))
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}
