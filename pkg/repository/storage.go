package repository

import "context"

// Storage is the persistence capability a backend must provide for one
// entity collection. Implementations must be safe for concurrent use and
// must not retain or hand out values the caller can mutate.
//
// Consistency is as strong as the backend allows. Read-modify-write sequences
// built on top of Storage are not atomic unless the backend makes them so.
type Storage[E any] interface {
	// Exists reports whether an entity with the uid is stored.
	Exists(ctx context.Context, uid string) (bool, error)

	// Get returns the entity or ErrNotFound.
	Get(ctx context.Context, uid string) (E, error)

	// Put inserts or replaces the entity keyed by its uid.
	Put(ctx context.Context, e E) error

	// Delete removes the entity or returns ErrNotFound.
	Delete(ctx context.Context, uid string) error

	// List returns every stored entity.
	List(ctx context.Context) ([]E, error)

	// Clear removes every entity of the collection.
	Clear(ctx context.Context) error

	// CreateSchema prepares the backend (tables, indexes, keys).
	// It must be idempotent.
	CreateSchema(ctx context.Context) error
}

// Listener observes committed mutations of a repository.
// Methods run synchronously on the caller's goroutine.
type Listener[E any] interface {
	OnCreate(ctx context.Context, e E) error
	OnUpdate(ctx context.Context, e E) error
	OnDelete(ctx context.Context, uid string) error
	OnCreateSchema(ctx context.Context) error
	OnDeleteAll(ctx context.Context) error
}

// NopListener implements Listener with no-ops.
// Embed it to observe only some notifications.
type NopListener[E any] struct{}

func (NopListener[E]) OnCreate(context.Context, E) error      { return nil }
func (NopListener[E]) OnUpdate(context.Context, E) error      { return nil }
func (NopListener[E]) OnDelete(context.Context, string) error { return nil }
func (NopListener[E]) OnCreateSchema(context.Context) error   { return nil }
func (NopListener[E]) OnDeleteAll(context.Context) error      { return nil }
