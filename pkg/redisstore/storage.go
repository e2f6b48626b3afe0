package redisstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/flagkit/pkg/entity"
	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/property"
	"github.com/dmitrymomot/flagkit/pkg/redis"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

// Collection names used by the default constructors.
const (
	FeaturesCollection   = "features"
	PropertiesCollection = "properties"
)

// Storage keeps one entity collection in a single Redis hash, one JSON
// document per field keyed by uid. It implements repository.Storage.
type Storage[E entity.Entity[E]] struct {
	client goredis.UniversalClient
	key    string
	alloc  func() E
}

// NewStorage returns a storage writing to the hash "<prefix>:<collection>".
// alloc must return a fresh, non-nil value to decode documents into.
func NewStorage[E entity.Entity[E]](client goredis.UniversalClient, prefix, collection string, alloc func() E) *Storage[E] {
	return &Storage[E]{client: client, key: HashKey(prefix, collection), alloc: alloc}
}

func NewFeatureStorage(client goredis.UniversalClient, prefix string) *Storage[*feature.Feature] {
	return NewStorage(client, prefix, FeaturesCollection, func() *feature.Feature { return &feature.Feature{} })
}

func NewPropertyStorage(client goredis.UniversalClient, prefix string) *Storage[*property.Property] {
	return NewStorage(client, prefix, PropertiesCollection, func() *property.Property { return &property.Property{} })
}

// HashKey builds the hash name of a collection.
func HashKey(prefix, collection string) string {
	if prefix == "" {
		return collection
	}
	return prefix + ":" + collection
}

func (s *Storage[E]) Exists(ctx context.Context, uid string) (bool, error) {
	ok, err := s.client.HExists(ctx, s.key, uid).Result()
	if err != nil {
		return false, s.fail("hexists", err)
	}
	return ok, nil
}

func (s *Storage[E]) Get(ctx context.Context, uid string) (E, error) {
	var zero E
	doc, err := s.client.HGet(ctx, s.key, uid).Bytes()
	if err != nil {
		if redis.IsNil(err) {
			return zero, fmt.Errorf("%w: %s", repository.ErrNotFound, uid)
		}
		return zero, s.fail("hget", err)
	}
	return s.decode(doc)
}

func (s *Storage[E]) Put(ctx context.Context, e E) error {
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redisstore: encode %s: %w", e.GetUID(), err)
	}
	if err := s.client.HSet(ctx, s.key, e.GetUID(), doc).Err(); err != nil {
		return s.fail("hset", err)
	}
	return nil
}

func (s *Storage[E]) Delete(ctx context.Context, uid string) error {
	n, err := s.client.HDel(ctx, s.key, uid).Result()
	if err != nil {
		return s.fail("hdel", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", repository.ErrNotFound, uid)
	}
	return nil
}

// List returns the collection sorted by uid.
func (s *Storage[E]) List(ctx context.Context) ([]E, error) {
	docs, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, s.fail("hgetall", err)
	}
	out := make([]E, 0, len(docs))
	for _, doc := range docs {
		e, err := s.decode([]byte(doc))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b E) int { return cmp.Compare(a.GetUID(), b.GetUID()) })
	return out, nil
}

func (s *Storage[E]) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return s.fail("del", err)
	}
	return nil
}

// CreateSchema is a no-op: hashes are created on first write.
func (s *Storage[E]) CreateSchema(context.Context) error {
	return nil
}

func (s *Storage[E]) decode(doc []byte) (E, error) {
	e := s.alloc()
	if err := json.Unmarshal(doc, e); err != nil {
		var zero E
		return zero, repository.Unavailable(fmt.Errorf("redisstore: decode %s field: %w", s.key, err))
	}
	return e, nil
}

func (s *Storage[E]) fail(op string, err error) error {
	return repository.Unavailable(fmt.Errorf("redisstore: %s %s: %w", op, s.key, err))
}
