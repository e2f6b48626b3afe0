package feature

import (
	"context"
	"errors"

	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

// Check reports whether the feature is active for the caller in ctx.
//
// A disabled feature is inactive. When the feature declares permissions and
// the store has an authorization gate, the current user must hold one of
// them. A configured strategy then decides. Every positive answer fires
// OnFeatureExecuted, which listener failures never turn into a negative answer.
func (s *Store) Check(ctx context.Context, uid string) (bool, error) {
	f, err := s.FindByID(ctx, uid)
	if err != nil {
		return false, err
	}
	if !f.Enabled {
		return false, nil
	}

	if len(f.Permissions) > 0 && s.gate != nil {
		if err := s.gate.Authorize(ctx, f.Permissions...); err != nil {
			if errors.Is(err, repository.ErrAccessDenied) {
				return false, nil
			}
			return false, err
		}
	}

	if f.Strategy != nil {
		strategy, err := s.strategyFor(f)
		if err != nil {
			return false, err
		}
		active, err := strategy.Evaluate(ctx)
		if err != nil || !active {
			return false, err
		}
	}

	if err := s.repo.Notify(ctx, func(l Listener) error { return l.OnFeatureExecuted(ctx, f.Clone()) }); err != nil {
		s.log.WarnContext(ctx, "feature hit not recorded",
			logger.FeatureUID(uid),
			logger.Error(err),
		)
	}
	return true, nil
}

// strategyFor returns the built strategy of f, rebuilding it when f changed.
func (s *Store) strategyFor(f *Feature) (Strategy, error) {
	if c, ok := s.strategies.Get(f.UID); ok && c.updatedAt.Equal(f.UpdatedAt) {
		return c.strategy, nil
	}

	strategy, err := s.registry.Build(f.Strategy, s.extractors)
	if err != nil {
		return nil, err
	}
	s.strategies.Put(f.UID, cachedStrategy{updatedAt: f.UpdatedAt, strategy: strategy})
	return strategy, nil
}
