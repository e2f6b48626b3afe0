package property

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

// Listener observes property store mutations.
type Listener = repository.Listener[*Property]

// NopListener implements Listener with no-ops.
type NopListener = repository.NopListener[*Property]

// Store is the repository of properties. Every write validates the value
// against its kind and fixed values before touching storage.
type Store struct {
	repo *repository.Repository[*Property, Listener]
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	log      *slog.Logger
	repoOpts []repository.Option
}

// WithLogger sets the logger passed to the repository engine.
func WithLogger(l *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRepositoryOptions passes options to the underlying repository engine.
func WithRepositoryOptions(opts ...repository.Option) StoreOption {
	return func(o *storeOptions) {
		o.repoOpts = append(o.repoOpts, opts...)
	}
}

// NewStore creates a property store over storage.
// It panics if storage is nil.
func NewStore(storage repository.Storage[*Property], opts ...StoreOption) *Store {
	o := &storeOptions{log: logger.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	repoOpts := append([]repository.Option{
		repository.WithLogger(o.log.With(logger.Component("property_store"))),
	}, o.repoOpts...)

	return &Store{repo: repository.New[*Property, Listener](storage, repoOpts...)}
}

func (s *Store) Exists(ctx context.Context, uid string) (bool, error) {
	return s.repo.Exists(ctx, uid)
}

// FindByID returns the property or ErrPropertyNotFound.
func (s *Store) FindByID(ctx context.Context, uid string) (*Property, error) {
	p, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, propertyNotFound(err, uid)
	}
	return p, nil
}

func (s *Store) FindAll(ctx context.Context) (map[string]*Property, error) {
	return s.repo.FindAll(ctx)
}

// Names returns every property uid in lexical order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(all)), nil
}

func (s *Store) Create(ctx context.Context, p *Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Store) Update(ctx context.Context, p *Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return propertyNotFound(err, p.UID)
	}
	return nil
}

// SetValue changes only the value of an existing property.
func (s *Store) SetValue(ctx context.Context, uid, value string) error {
	p, err := s.FindByID(ctx, uid)
	if err != nil {
		return err
	}
	p.Value = value
	return s.Update(ctx, p)
}

func (s *Store) Delete(ctx context.Context, uid string) error {
	if err := s.repo.Delete(ctx, uid); err != nil {
		return propertyNotFound(err, uid)
	}
	return nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

func (s *Store) CreateSchema(ctx context.Context) error {
	return s.repo.CreateSchema(ctx)
}

func (s *Store) RegisterListener(name string, l Listener) {
	s.repo.RegisterListener(name, l)
}

func (s *Store) UnregisterListener(name string) bool {
	return s.repo.UnregisterListener(name)
}

func (s *Store) Listeners() []string {
	return s.repo.Listeners()
}

func propertyNotFound(err error, uid string) error {
	if errors.Is(err, repository.ErrNotFound) && !errors.Is(err, ErrPropertyNotFound) {
		return fmt.Errorf("%w: %s", ErrPropertyNotFound, uid)
	}
	return err
}
