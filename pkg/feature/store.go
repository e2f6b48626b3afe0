package feature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/cache"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/repository"
	"github.com/dmitrymomot/flagkit/pkg/security"
)

const defaultStrategyCacheSize = 256

// Store specialises the repository engine for features with toggle, group,
// permission and execution semantics.
//
// Read-modify-write operations (toggles, group and role changes) are not
// atomic against concurrent writers; that guarantee belongs to the storage
// adapter. Group operations iterate per feature without a transaction.
type Store struct {
	repo       *repository.Repository[*Feature, Listener]
	gate       security.Gate
	registry   *Registry
	extractors Extractors
	strategies *cache.LRU[string, cachedStrategy]
	log        *slog.Logger
}

type cachedStrategy struct {
	updatedAt time.Time
	strategy  Strategy
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	gate       security.Gate
	registry   *Registry
	extractors Extractors
	cacheSize  int
	log        *slog.Logger
	repoOpts   []repository.Option
}

// WithAuthorization enables permission checks in Check through gate.
func WithAuthorization(gate security.Gate) StoreOption {
	return func(o *storeOptions) {
		o.gate = gate
	}
}

// WithRegistry sets the strategy registry. DefaultRegistry is used otherwise.
func WithRegistry(r *Registry) StoreOption {
	return func(o *storeOptions) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithExtractors overrides how strategies read user, environment and host.
func WithExtractors(ex Extractors) StoreOption {
	return func(o *storeOptions) {
		o.extractors = ex
	}
}

// WithStrategyCacheSize bounds the number of built strategies kept in memory.
func WithStrategyCacheSize(n int) StoreOption {
	return func(o *storeOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithLogger sets the logger for the store and its repository.
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

// NewStore creates a feature store over storage.
// It panics if storage is nil.
func NewStore(storage repository.Storage[*Feature], opts ...StoreOption) *Store {
	o := &storeOptions{
		cacheSize: defaultStrategyCacheSize,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}

	log := o.log.With(logger.Component("feature_store"))
	repoOpts := append([]repository.Option{repository.WithLogger(log)}, o.repoOpts...)

	return &Store{
		repo:       repository.New[*Feature, Listener](storage, repoOpts...),
		gate:       o.gate,
		registry:   o.registry,
		extractors: o.extractors.withDefaults(),
		strategies: cache.NewLRU[string, cachedStrategy](o.cacheSize),
		log:        log,
	}
}

// Registry returns the strategy registry used by the store.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Exists reports whether a feature with uid exists.
func (s *Store) Exists(ctx context.Context, uid string) (bool, error) {
	return s.repo.Exists(ctx, uid)
}

// FindByID returns the feature or ErrFeatureNotFound.
func (s *Store) FindByID(ctx context.Context, uid string) (*Feature, error) {
	f, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, featureNotFound(err, uid)
	}
	return f, nil
}

// FindAll returns every feature keyed by uid.
func (s *Store) FindAll(ctx context.Context) (map[string]*Feature, error) {
	return s.repo.FindAll(ctx)
}

// Create validates and persists a new feature.
func (s *Store) Create(ctx context.Context, f *Feature) error {
	if err := s.validate(f); err != nil {
		return err
	}
	return s.repo.Create(ctx, f)
}

// Update replaces an existing feature.
func (s *Store) Update(ctx context.Context, f *Feature) error {
	if err := s.validate(f); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, f); err != nil {
		return featureNotFound(err, f.UID)
	}
	return nil
}

// Delete removes a feature.
func (s *Store) Delete(ctx context.Context, uid string) error {
	if err := s.repo.Delete(ctx, uid); err != nil {
		return featureNotFound(err, uid)
	}
	return nil
}

// DeleteAll removes every feature.
func (s *Store) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

// CreateSchema prepares the storage backend.
func (s *Store) CreateSchema(ctx context.Context) error {
	return s.repo.CreateSchema(ctx)
}

// RegisterListener adds a listener; see repository.Repository.RegisterListener.
func (s *Store) RegisterListener(name string, l Listener) {
	s.repo.RegisterListener(name, l)
}

// UnregisterListener removes the named listener.
func (s *Store) UnregisterListener(name string) bool {
	return s.repo.UnregisterListener(name)
}

// Listeners returns registered listener names in dispatch order.
func (s *Store) Listeners() []string {
	return s.repo.Listeners()
}

// ToggleOn enables the feature. Enabling an enabled feature is a no-op.
func (s *Store) ToggleOn(ctx context.Context, uid string) error {
	return s.toggle(ctx, uid, true)
}

// ToggleOff disables the feature. Disabling a disabled feature is a no-op.
func (s *Store) ToggleOff(ctx context.Context, uid string) error {
	return s.toggle(ctx, uid, false)
}

func (s *Store) toggle(ctx context.Context, uid string, enabled bool) error {
	f, err := s.FindByID(ctx, uid)
	if err != nil {
		return err
	}
	if f.Enabled == enabled {
		return nil
	}

	f.Enabled = enabled
	if err := s.repo.Persist(ctx, f); err != nil {
		return featureNotFound(err, uid)
	}
	return s.repo.Notify(ctx, func(l Listener) error { return l.OnToggle(ctx, uid, enabled) })
}

// GrantRole adds role to the feature permissions.
func (s *Store) GrantRole(ctx context.Context, uid, role string) error {
	role, err := requireName("role", role)
	if err != nil {
		return err
	}

	f, err := s.FindByID(ctx, uid)
	if err != nil {
		return err
	}
	if f.HasPermission(role) {
		return nil
	}

	f.Permissions = append(f.Permissions, role)
	f.normalize()
	if err := s.repo.Persist(ctx, f); err != nil {
		return featureNotFound(err, uid)
	}
	return s.repo.Notify(ctx, func(l Listener) error { return l.OnGrantRole(ctx, uid, role) })
}

// RemoveRole removes role from the feature permissions.
func (s *Store) RemoveRole(ctx context.Context, uid, role string) error {
	role, err := requireName("role", role)
	if err != nil {
		return err
	}

	f, err := s.FindByID(ctx, uid)
	if err != nil {
		return err
	}
	if !f.HasPermission(role) {
		return nil
	}

	f.Permissions = slices.DeleteFunc(f.Permissions, func(p string) bool { return p == role })
	f.normalize()
	if err := s.repo.Persist(ctx, f); err != nil {
		return featureNotFound(err, uid)
	}
	return s.repo.Notify(ctx, func(l Listener) error { return l.OnRemoveRole(ctx, uid, role) })
}

// AddToGroup moves the feature into group, leaving any previous group.
func (s *Store) AddToGroup(ctx context.Context, uid, group string) error {
	group, err := requireName("group", group)
	if err != nil {
		return err
	}

	f, err := s.FindByID(ctx, uid)
	if err != nil {
		return err
	}
	if f.Group == group {
		return nil
	}

	f.Group = group
	if err := s.repo.Persist(ctx, f); err != nil {
		return featureNotFound(err, uid)
	}
	return s.repo.Notify(ctx, func(l Listener) error { return l.OnAddToGroup(ctx, uid, group) })
}

// RemoveFromGroup clears the feature group. It fails with ErrGroupNotFound when
// the group has no members and ErrNotInGroup when the feature belongs elsewhere.
func (s *Store) RemoveFromGroup(ctx context.Context, uid, group string) error {
	group, err := requireName("group", group)
	if err != nil {
		return err
	}
	if _, err := requireName("uid", uid); err != nil {
		return err
	}

	members, err := s.ReadGroup(ctx, group)
	if err != nil {
		return err
	}

	f, ok := members[uid]
	if !ok {
		if _, err := s.FindByID(ctx, uid); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s not in %s", ErrNotInGroup, uid, group)
	}

	f.Group = ""
	if err := s.repo.Persist(ctx, f); err != nil {
		return featureNotFound(err, uid)
	}
	return s.repo.Notify(ctx, func(l Listener) error { return l.OnRemoveFromGroup(ctx, uid, group) })
}

// ReadGroup returns the members of group keyed by uid, or ErrGroupNotFound.
func (s *Store) ReadGroup(ctx context.Context, group string) (map[string]*Feature, error) {
	group, err := requireName("group", group)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	maps.DeleteFunc(all, func(_ string, f *Feature) bool { return f.Group != group })
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, group)
	}
	return all, nil
}

// ExistGroup reports whether at least one feature belongs to group.
func (s *Store) ExistGroup(ctx context.Context, group string) (bool, error) {
	_, err := s.ReadGroup(ctx, group)
	if errors.Is(err, ErrGroupNotFound) {
		return false, nil
	}
	return err == nil, err
}

// EnableGroup toggles every member of group on.
// It stops at the first failure; members toggled before it stay toggled.
func (s *Store) EnableGroup(ctx context.Context, group string) error {
	return s.toggleGroup(ctx, group, true)
}

// DisableGroup toggles every member of group off, with EnableGroup semantics.
func (s *Store) DisableGroup(ctx context.Context, group string) error {
	return s.toggleGroup(ctx, group, false)
}

func (s *Store) toggleGroup(ctx context.Context, group string, enabled bool) error {
	members, err := s.ReadGroup(ctx, group)
	if err != nil {
		return err
	}

	for _, uid := range slices.Sorted(maps.Keys(members)) {
		if err := s.toggle(ctx, uid, enabled); err != nil {
			s.log.WarnContext(ctx, "group toggle interrupted",
				logger.Group(group),
				logger.FeatureUID(uid),
				logger.Error(err),
			)
			return err
		}
	}
	return nil
}

// ReadAllGroups returns the distinct non-empty group names in lexical order.
func (s *Store) ReadAllGroups(ctx context.Context) ([]string, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	groups := make([]string, 0, len(all))
	for _, f := range all {
		if f.Group != "" {
			groups = append(groups, f.Group)
		}
	}
	slices.Sort(groups)
	return slices.Compact(groups), nil
}

func (s *Store) validate(f *Feature) error {
	if f == nil {
		return ErrInvalidFeature
	}
	f.normalize()
	if f.Strategy == nil {
		return nil
	}
	if _, err := s.registry.Build(f.Strategy, s.extractors); err != nil {
		return errors.Join(ErrInvalidFeature, err)
	}
	return nil
}

func requireName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: blank %s", repository.ErrInvalidArgument, kind)
	}
	return name, nil
}

func featureNotFound(err error, uid string) error {
	if errors.Is(err, repository.ErrNotFound) && !errors.Is(err, ErrFeatureNotFound) {
		return fmt.Errorf("%w: %s", ErrFeatureNotFound, uid)
	}
	return err
}
