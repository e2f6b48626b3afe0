package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/property"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

// Report counts what an import did.
type Report struct {
	FeaturesCreated   int `json:"features_created"`
	FeaturesUpdated   int `json:"features_updated"`
	PropertiesCreated int `json:"properties_created"`
	PropertiesUpdated int `json:"properties_updated"`

	// ListenerFailures counts committed writes whose listeners failed.
	ListenerFailures int `json:"listener_failures"`
}

// ImportOption configures Import.
type ImportOption func(*importConfig)

type importConfig struct {
	replace bool
	log     *slog.Logger
}

// WithReplace deletes every feature and property before importing.
func WithReplace() ImportOption {
	return func(c *importConfig) { c.replace = true }
}

func WithLogger(l *slog.Logger) ImportOption {
	return func(c *importConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Import creates missing entities and updates existing ones through the
// stores, so listeners see every change. It stops at the first storage or
// validation error; listener failures are counted and logged instead.
// A nil store is skipped.
func Import(ctx context.Context, snap *Snapshot, features *feature.Store, properties *property.Store, opts ...ImportOption) (Report, error) {
	cfg := importConfig{log: logger.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var rep Report
	note := func(err error) error {
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrListener) {
			rep.ListenerFailures++
			cfg.log.WarnContext(ctx, "snapshot import listener failed", logger.Error(err))
			return nil
		}
		return err
	}

	if features != nil {
		if cfg.replace {
			if err := note(features.DeleteAll(ctx)); err != nil {
				return rep, fmt.Errorf("clear features: %w", err)
			}
		}
		for _, f := range snap.Features {
			created, err := upsert(ctx, f.Clone(), f.UID, features.Exists, features.Create, features.Update)
			if err = note(err); err != nil {
				return rep, fmt.Errorf("import feature %s: %w", f.UID, err)
			}
			if created {
				rep.FeaturesCreated++
			} else {
				rep.FeaturesUpdated++
			}
		}
	}

	if properties != nil {
		if cfg.replace {
			if err := note(properties.DeleteAll(ctx)); err != nil {
				return rep, fmt.Errorf("clear properties: %w", err)
			}
		}
		for _, p := range snap.Properties {
			created, err := upsert(ctx, p.Clone(), p.UID, properties.Exists, properties.Create, properties.Update)
			if err = note(err); err != nil {
				return rep, fmt.Errorf("import property %s: %w", p.UID, err)
			}
			if created {
				rep.PropertiesCreated++
			} else {
				rep.PropertiesUpdated++
			}
		}
	}

	cfg.log.InfoContext(ctx, "snapshot imported",
		slog.Int("features_created", rep.FeaturesCreated),
		slog.Int("features_updated", rep.FeaturesUpdated),
		slog.Int("properties_created", rep.PropertiesCreated),
		slog.Int("properties_updated", rep.PropertiesUpdated))
	return rep, nil
}

func upsert[E any](
	ctx context.Context,
	e E,
	uid string,
	exists func(context.Context, string) (bool, error),
	create, update func(context.Context, E) error,
) (bool, error) {
	ok, err := exists(ctx, uid)
	if err != nil {
		return false, err
	}
	if ok {
		return false, update(ctx, e)
	}
	return true, create(ctx, e)
}
