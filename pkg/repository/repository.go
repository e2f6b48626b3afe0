package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/entity"
	"github.com/dmitrymomot/flagkit/pkg/logger"
)

// Repository is the storage-agnostic CRUD engine shared by every entity
// collection. It validates input, delegates persistence to a Storage and,
// once a mutation has been committed, notifies registered listeners of type L
// in registration order.
//
// Repository runs no goroutines and does not lock across operations.
type Repository[E entity.Entity[E], L Listener[E]] struct {
	storage   Storage[E]
	listeners listenerRegistry[L]
	now       func() time.Time
	log       *slog.Logger
}

// New creates a repository over the given storage.
// It panics if storage is nil.
func New[E entity.Entity[E], L Listener[E]](storage Storage[E], opts ...Option) *Repository[E, L] {
	if storage == nil {
		panic("repository: storage cannot be nil")
	}

	o := &options{now: time.Now, log: logger.Discard()}
	for _, opt := range opts {
		opt(o)
	}

	return &Repository[E, L]{
		storage: storage,
		now:     o.now,
		log:     o.log,
	}
}

// Storage returns the underlying adapter.
func (r *Repository[E, L]) Storage() Storage[E] {
	return r.storage
}

// Exists reports whether an entity with the uid exists.
func (r *Repository[E, L]) Exists(ctx context.Context, uid string) (bool, error) {
	if err := validateUID(uid); err != nil {
		return false, err
	}
	return r.storage.Exists(ctx, uid)
}

// FindByID returns a copy of the entity or ErrNotFound.
func (r *Repository[E, L]) FindByID(ctx context.Context, uid string) (E, error) {
	var zero E
	if err := validateUID(uid); err != nil {
		return zero, err
	}

	e, err := r.storage.Get(ctx, uid)
	if err != nil {
		return zero, notFound(err, uid)
	}
	return e, nil
}

// FindAll returns a snapshot of every entity keyed by uid.
func (r *Repository[E, L]) FindAll(ctx context.Context) (map[string]E, error) {
	list, err := r.storage.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]E, len(list))
	for _, e := range list {
		out[e.GetUID()] = e
	}
	return out, nil
}

// Create persists a new entity and fires OnCreate.
// It stamps both dates on e and fails with ErrAlreadyExists when the uid is taken.
func (r *Repository[E, L]) Create(ctx context.Context, e E) error {
	uid := e.GetUID()
	if err := validateUID(uid); err != nil {
		return err
	}

	exists, err := r.storage.Exists(ctx, uid)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, uid)
	}

	now := r.now()
	e.Touch(now, now)

	if err := r.storage.Put(ctx, e.Clone()); err != nil {
		return err
	}

	return r.Notify(ctx, func(l L) error { return l.OnCreate(ctx, e.Clone()) })
}

// Update replaces an existing entity and fires OnUpdate.
// The creation date is preserved and the modification date refreshed.
func (r *Repository[E, L]) Update(ctx context.Context, e E) error {
	if err := r.Persist(ctx, e); err != nil {
		return err
	}
	return r.Notify(ctx, func(l L) error { return l.OnUpdate(ctx, e.Clone()) })
}

// Persist behaves like Update without notifying listeners. Specialised stores
// use it when they fire a dedicated notification instead of OnUpdate.
func (r *Repository[E, L]) Persist(ctx context.Context, e E) error {
	uid := e.GetUID()
	if err := validateUID(uid); err != nil {
		return err
	}

	existing, err := r.storage.Get(ctx, uid)
	if err != nil {
		return notFound(err, uid)
	}

	e.Touch(existing.GetCreatedAt(), r.now())
	return r.storage.Put(ctx, e.Clone())
}

// Delete removes an entity and fires OnDelete.
// Nothing is notified when the entity does not exist.
func (r *Repository[E, L]) Delete(ctx context.Context, uid string) error {
	if err := validateUID(uid); err != nil {
		return err
	}

	if err := r.storage.Delete(ctx, uid); err != nil {
		return notFound(err, uid)
	}

	return r.Notify(ctx, func(l L) error { return l.OnDelete(ctx, uid) })
}

// DeleteAll clears the collection and fires OnDeleteAll.
func (r *Repository[E, L]) DeleteAll(ctx context.Context) error {
	if err := r.storage.Clear(ctx); err != nil {
		return err
	}
	return r.Notify(ctx, func(l L) error { return l.OnDeleteAll(ctx) })
}

// CreateSchema prepares the backend and fires OnCreateSchema.
func (r *Repository[E, L]) CreateSchema(ctx context.Context) error {
	if err := r.storage.CreateSchema(ctx); err != nil {
		return err
	}
	return r.Notify(ctx, func(l L) error { return l.OnCreateSchema(ctx) })
}

// RegisterListener adds a listener under name. A listener already registered
// under the same name is replaced silently and keeps its position.
func (r *Repository[E, L]) RegisterListener(name string, l L) {
	r.listeners.register(name, l)
}

// UnregisterListener removes the named listener. It reports whether it was registered.
func (r *Repository[E, L]) UnregisterListener(name string) bool {
	return r.listeners.unregister(name)
}

// Listeners returns registered listener names in dispatch order.
func (r *Repository[E, L]) Listeners() []string {
	entries := r.listeners.snapshot()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// Notify invokes fn for every listener in registration order.
// All listeners are called even when one fails; failures are joined and
// returned wrapped with ErrListener.
func (r *Repository[E, L]) Notify(ctx context.Context, fn func(L) error) error {
	var errs []error
	for _, entry := range r.listeners.snapshot() {
		if err := fn(entry.listener); err != nil {
			r.log.WarnContext(ctx, "listener failed after commit",
				logger.Listener(entry.name),
				logger.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", entry.name, err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrListener}, errs...)...)
}

func validateUID(uid string) error {
	if err := entity.ValidateUID(uid); err != nil {
		return errors.Join(ErrInvalidArgument, err)
	}
	return nil
}

func notFound(err error, uid string) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	return err
}
