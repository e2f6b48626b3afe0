// Command flagkit serves the feature toggle console over the configured
// stores and audit trail.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/cache"
	"github.com/dmitrymomot/flagkit/pkg/config"
	"github.com/dmitrymomot/flagkit/pkg/console"
	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/httpserver"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/natsio"
	"github.com/dmitrymomot/flagkit/pkg/natstrail"
	"github.com/dmitrymomot/flagkit/pkg/property"
	"github.com/dmitrymomot/flagkit/pkg/security"
	"github.com/dmitrymomot/flagkit/pkg/snapshot"
	"github.com/dmitrymomot/flagkit/pkg/usage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("flagkit stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg AppConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	log := logger.New(logger.WithEnvironment(cfg.Env, cfg.Service))
	logger.SetAsDefault(log)

	b := &backends{log: log}
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		b.logClose(ctx)
	}()

	gate, err := security.NewContextGate(security.WithRoleHierarchy(parseHierarchy(cfg.RoleHierarchy)))
	if err != nil {
		return err
	}

	featureStorage, propertyStorage, err := b.storages(ctx, cfg.FeatureBackend)
	if err != nil {
		return err
	}
	featureCache := cache.NewStorage(featureStorage, cache.WithCapacity(cfg.CacheSize), cache.WithTTL(cfg.CacheTTL))
	propertyCache := cache.NewStorage(propertyStorage, cache.WithCapacity(cfg.CacheSize), cache.WithTTL(cfg.CacheTTL))

	features := feature.NewStore(featureCache, feature.WithAuthorization(gate), feature.WithLogger(log))
	properties := property.NewStore(propertyCache, property.WithLogger(log))

	trail, err := b.trail(ctx, cfg.TrailBackend)
	if err != nil {
		return err
	}
	if cfg.NATSEnabled {
		if trail, err = withNATS(b, trail, featureCache, propertyCache); err != nil {
			return err
		}
	}
	var storeTrail audit.Trail = trail
	if cfg.AuditAsync {
		async := audit.NewAsyncTrail(trail, audit.AsyncOptions{
			BatchSize:    cfg.AuditBatchSize,
			BatchTimeout: cfg.AuditBatchTimeout,
			Logger:       log,
		})
		b.onClose(async.Close)
		storeTrail = async
	}

	features.RegisterListener("audit", audit.NewFeatureListener(storeTrail, audit.WithGate(gate)))
	properties.RegisterListener("audit", audit.NewPropertyListener(storeTrail, audit.WithGate(gate)))

	if err := features.CreateSchema(ctx); err != nil {
		return err
	}
	if err := properties.CreateSchema(ctx); err != nil {
		return err
	}

	bucket, err := snapshotBucket(ctx, cfg)
	if err != nil {
		return err
	}
	if err := importSnapshots(ctx, cfg, bucket, features, properties, log); err != nil {
		return err
	}

	c := console.New(features,
		console.WithProperties(properties),
		console.WithAudit(storeTrail, usage.NewService(storeTrail, usage.WithLogger(log))),
		console.WithUserResolver(headerUser(cfg.UserHeader, cfg.RolesHeader)),
		console.WithLogger(log),
	)

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, 2*time.Second, b.checks...))
	r.Mount(httpCfg.ConsolePrefix, c)

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, r) })
	if bucket != nil && cfg.SnapshotKey != "" && cfg.SnapshotInterval > 0 {
		g.Go(func() error {
			backupLoop(gctx, cfg.SnapshotInterval, bucket, cfg.SnapshotKey, features, properties, log)
			return nil
		})
	}
	return g.Wait()
}

// withNATS publishes stored events and drops cache entries changed by other
// instances.
func withNATS(b *backends, trail audit.BatchTrail, features, properties invalidator) (audit.BatchTrail, error) {
	var cfg natsio.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	nc, err := natsio.Connect(cfg, b.log)
	if err != nil {
		return nil, err
	}
	b.onClose(func(context.Context) error { return nc.Drain() })
	b.checks = append(b.checks, httpserver.Check{Name: "nats", Fn: natsio.Healthcheck(nc)})

	if _, err := natstrail.Subscribe(nc, cfg.Subject, b.log, cacheInvalidator(features, properties)); err != nil {
		return nil, err
	}
	return natstrail.New(trail, nc, cfg.Subject, b.log), nil
}

// snapshotBucket returns the S3 bucket when FLAGKIT_SNAPSHOT_S3_KEY is set.
func snapshotBucket(ctx context.Context, cfg AppConfig) (snapshot.Bucket, error) {
	if cfg.SnapshotKey == "" {
		return nil, nil
	}
	var s3cfg snapshot.S3Config
	if err := config.Load(&s3cfg); err != nil {
		return nil, err
	}
	bucket, err := snapshot.NewS3Bucket(ctx, s3cfg)
	if err != nil {
		return nil, err
	}
	return bucket, nil
}

// importSnapshots loads the startup file, then the S3 object. A missing
// object is not an error: the first backup creates it.
func importSnapshots(ctx context.Context, cfg AppConfig, bucket snapshot.Bucket, features *feature.Store, properties *property.Store, log *slog.Logger) error {
	type source struct {
		bucket   snapshot.Bucket
		key      string
		optional bool
	}
	var sources []source
	if cfg.SnapshotFile != "" {
		sources = append(sources, source{
			bucket: snapshot.NewDirBucket(filepath.Dir(cfg.SnapshotFile)),
			key:    filepath.Base(cfg.SnapshotFile),
		})
	}
	if bucket != nil {
		sources = append(sources, source{bucket: bucket, key: cfg.SnapshotKey, optional: true})
	}

	for _, src := range sources {
		snap, err := snapshot.Load(ctx, src.bucket, src.key)
		if src.optional && errors.Is(err, snapshot.ErrSnapshotNotFound) {
			log.WarnContext(ctx, "snapshot not found, starting empty", slog.String("key", src.key))
			continue
		}
		if err != nil {
			return err
		}
		rep, err := snapshot.Import(ctx, snap, features, properties, snapshot.WithLogger(log))
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "snapshot imported",
			slog.String("key", src.key),
			slog.Int("features_created", rep.FeaturesCreated),
			slog.Int("features_updated", rep.FeaturesUpdated),
			slog.Int("properties_created", rep.PropertiesCreated),
			slog.Int("properties_updated", rep.PropertiesUpdated))
	}
	return nil
}

// backupLoop writes a snapshot every interval until ctx is done. Failures
// are logged and retried at the next tick.
func backupLoop(ctx context.Context, interval time.Duration, bucket snapshot.Bucket, key string, features *feature.Store, properties *property.Store, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		snap, err := snapshot.Export(ctx, features, properties)
		if err == nil {
			err = snapshot.Save(ctx, bucket, key, snap)
		}
		if err != nil {
			log.ErrorContext(ctx, "snapshot backup failed", slog.String("key", key), logger.Error(err))
			continue
		}
		log.DebugContext(ctx, "snapshot saved", slog.String("key", key))
	}
}

// headerUser reads the caller from request headers set by an authenticating proxy.
func headerUser(userHeader, rolesHeader string) console.UserResolver {
	return func(r *http.Request) (security.User, bool) {
		name := strings.TrimSpace(r.Header.Get(userHeader))
		if name == "" {
			return security.User{}, false
		}
		var roles []string
		for role := range strings.SplitSeq(r.Header.Get(rolesHeader), ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, role)
			}
		}
		return security.User{Name: name, Roles: roles}, true
	}
}

// parseHierarchy turns "EDITOR|VIEWER" values into role lists.
func parseHierarchy(raw map[string]string) map[string][]string {
	out := make(map[string][]string, len(raw))
	for role, parents := range raw {
		for p := range strings.SplitSeq(parents, "|") {
			if p = strings.TrimSpace(p); p != "" {
				out[strings.TrimSpace(role)] = append(out[strings.TrimSpace(role)], p)
			}
		}
	}
	return out
}
