package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/config"
	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/httpserver"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/mongo"
	"github.com/dmitrymomot/flagkit/pkg/mongotrail"
	"github.com/dmitrymomot/flagkit/pkg/opensearch"
	"github.com/dmitrymomot/flagkit/pkg/pg"
	"github.com/dmitrymomot/flagkit/pkg/pgstore"
	"github.com/dmitrymomot/flagkit/pkg/property"
	"github.com/dmitrymomot/flagkit/pkg/redis"
	"github.com/dmitrymomot/flagkit/pkg/redisstore"
	"github.com/dmitrymomot/flagkit/pkg/repository"
	"github.com/dmitrymomot/flagkit/pkg/searchtrail"
)

// ErrUnknownBackend is returned for backend names the binary does not know.
var ErrUnknownBackend = errors.New("flagkit: unknown backend")

// backends opens connections on demand, shares them between the stores and
// the trail, and remembers how to probe and close them.
type backends struct {
	log     *slog.Logger
	checks  []httpserver.Check
	closers []func(context.Context) error

	pool  *pgxpool.Pool
	redis *goredis.Client
}

func (b *backends) onClose(fn func(context.Context) error) {
	b.closers = append(b.closers, fn)
}

// close runs the closers in reverse order and joins their errors.
func (b *backends) close(ctx context.Context) error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// postgres connects once and applies the schema migrations.
func (b *backends) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if b.pool != nil {
		return b.pool, nil
	}
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b.onClose(func(context.Context) error {
		pool.Close()
		return nil
	})
	if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, b.log); err != nil {
		return nil, err
	}
	b.checks = append(b.checks, httpserver.Check{Name: BackendPostgres, Fn: pg.Healthcheck(pool)})
	b.pool = pool
	return pool, nil
}

func (b *backends) redisClient(ctx context.Context) (*goredis.Client, string, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, "", err
	}
	if b.redis != nil {
		return b.redis, cfg.KeyPrefix, nil
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	b.onClose(func(context.Context) error { return client.Close() })
	b.checks = append(b.checks, httpserver.Check{Name: BackendRedis, Fn: redis.Healthcheck(client)})
	b.redis = client
	return client, cfg.KeyPrefix, nil
}

// storages returns the feature and property storages of the configured backend.
func (b *backends) storages(ctx context.Context, name string) (repository.Storage[*feature.Feature], repository.Storage[*property.Property], error) {
	switch name {
	case BackendMemory:
		return repository.NewMemoryStorage[*feature.Feature](), repository.NewMemoryStorage[*property.Property](), nil
	case BackendPostgres:
		pool, err := b.postgres(ctx)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewFeatureStorage(pool), pgstore.NewPropertyStorage(pool), nil
	case BackendRedis:
		client, prefix, err := b.redisClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewFeatureStorage(client, prefix), redisstore.NewPropertyStorage(client, prefix), nil
	}
	return nil, nil, fmt.Errorf("%w: feature store %q", ErrUnknownBackend, name)
}

// trail returns the audit trail of the configured backend, schema included.
func (b *backends) trail(ctx context.Context, name string) (audit.BatchTrail, error) {
	switch name {
	case BackendMemory:
		return audit.NewMemoryTrail(), nil

	case BackendPostgres:
		pool, err := b.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return pgstore.NewTrail(pool), nil

	case BackendMongo:
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		db, err := mongo.NewWithDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client := db.Client()
		b.onClose(client.Disconnect)
		b.checks = append(b.checks, httpserver.Check{Name: BackendMongo, Fn: mongo.Healthcheck(client)})

		t := mongotrail.New(db.Collection(mongotrail.DefaultCollection))
		if err := t.CreateSchema(ctx); err != nil {
			return nil, err
		}
		return t, nil

	case BackendOpenSearch:
		var cfg opensearch.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := opensearch.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.checks = append(b.checks, httpserver.Check{Name: BackendOpenSearch, Fn: opensearch.Healthcheck(client)})

		t := searchtrail.New(client, cfg.AuditIndex)
		if err := t.CreateSchema(ctx); err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("%w: audit trail %q", ErrUnknownBackend, name)
}

func (b *backends) logClose(ctx context.Context) {
	if err := b.close(ctx); err != nil {
		b.log.ErrorContext(ctx, "failed to release backends", logger.Error(err))
	}
}
