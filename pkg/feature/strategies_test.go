package feature_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/feature"
)

type (
	testUserIDKey      struct{}
	testUserGroupsKey  struct{}
	testEnvironmentKey struct{}
)

func testUserIDExtractor(ctx context.Context) string {
	userID, _ := ctx.Value(testUserIDKey{}).(string)
	return userID
}

func testUserGroupsExtractor(ctx context.Context) []string {
	groups, _ := ctx.Value(testUserGroupsKey{}).([]string)
	return groups
}

func testEnvironmentExtractor(ctx context.Context) string {
	env, _ := ctx.Value(testEnvironmentKey{}).(string)
	return env
}

func withUserID(id string) context.Context {
	return context.WithValue(context.Background(), testUserIDKey{}, id)
}

func evaluate(t *testing.T, s feature.Strategy, ctx context.Context) bool {
	t.Helper()
	enabled, err := s.Evaluate(ctx)
	require.NoError(t, err)
	return enabled
}

func TestAlwaysStrategy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assert.True(t, evaluate(t, feature.NewAlwaysOnStrategy(), ctx))
	assert.False(t, evaluate(t, feature.NewAlwaysOffStrategy(), ctx))
}

func TestTargetedStrategy(t *testing.T) {
	t.Parallel()

	t.Run("empty criteria", func(t *testing.T) {
		t.Parallel()
		enabled, err := feature.NewTargetedStrategy(feature.TargetCriteria{}).Evaluate(context.Background())
		assert.ErrorIs(t, err, feature.ErrInvalidStrategy)
		assert.False(t, enabled)
	})

	t.Run("user ids", func(t *testing.T) {
		t.Parallel()
		criteria := feature.TargetCriteria{UserIDs: []string{"user1", "user2"}}
		s := feature.NewTargetedStrategy(criteria, feature.WithUserIDExtractor(testUserIDExtractor))

		assert.True(t, evaluate(t, s, withUserID("user2")))
		assert.False(t, evaluate(t, s, withUserID("user4")))
		assert.False(t, evaluate(t, s, context.Background()))

		noExtractor := feature.NewTargetedStrategy(criteria)
		assert.False(t, evaluate(t, noExtractor, withUserID("user2")))
	})

	t.Run("groups", func(t *testing.T) {
		t.Parallel()
		s := feature.NewTargetedStrategy(
			feature.TargetCriteria{Groups: []string{"admin", "beta-testers"}},
			feature.WithUserGroupsExtractor(testUserGroupsExtractor),
		)

		ctx := context.WithValue(context.Background(), testUserGroupsKey{}, []string{"user", "beta-testers"})
		assert.True(t, evaluate(t, s, ctx))

		ctx = context.WithValue(context.Background(), testUserGroupsKey{}, []string{"guest"})
		assert.False(t, evaluate(t, s, ctx))
	})

	t.Run("deny list wins over allow list", func(t *testing.T) {
		t.Parallel()
		s := feature.NewTargetedStrategy(
			feature.TargetCriteria{
				AllowList: []string{"alice", "bob"},
				DenyList:  []string{"bob"},
			},
			feature.WithUserIDExtractor(testUserIDExtractor),
		)

		assert.True(t, evaluate(t, s, withUserID("alice")))
		assert.False(t, evaluate(t, s, withUserID("bob")))
		assert.False(t, evaluate(t, s, context.Background()), "unknown user is denied when a deny list exists")
	})

	t.Run("percentage bounds", func(t *testing.T) {
		t.Parallel()
		zero, hundred, invalid := 0, 100, 150
		opt := feature.WithUserIDExtractor(testUserIDExtractor)

		assert.False(t, evaluate(t, feature.NewTargetedStrategy(feature.TargetCriteria{Percentage: &zero}, opt), withUserID("u")))
		assert.True(t, evaluate(t, feature.NewTargetedStrategy(feature.TargetCriteria{Percentage: &hundred}, opt), withUserID("u")))

		_, err := feature.NewTargetedStrategy(feature.TargetCriteria{Percentage: &invalid}, opt).Evaluate(withUserID("u"))
		assert.ErrorIs(t, err, feature.ErrInvalidStrategy)
	})

	t.Run("percentage is stable per user", func(t *testing.T) {
		t.Parallel()
		p := 50
		s := feature.NewTargetedStrategy(feature.TargetCriteria{Percentage: &p},
			feature.WithUserIDExtractor(testUserIDExtractor))

		enabled := 0
		for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
			first := evaluate(t, s, withUserID(id))
			assert.Equal(t, first, evaluate(t, s, withUserID(id)))
			if first {
				enabled++
			}
		}
		assert.False(t, evaluate(t, s, context.Background()), "anonymous users are outside partial rollouts")
		assert.Equal(t, 4, enabled)
	})
}

func TestBlacklistStrategy(t *testing.T) {
	t.Parallel()

	s := feature.NewBlacklistStrategy([]string{"mallory"}, testUserIDExtractor)
	assert.True(t, evaluate(t, s, withUserID("alice")))
	assert.False(t, evaluate(t, s, withUserID("mallory")))
	assert.True(t, evaluate(t, feature.NewBlacklistStrategy([]string{"mallory"}, nil), withUserID("mallory")))
}

func TestPonderationStrategy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for range 20 {
		assert.True(t, evaluate(t, feature.NewPonderationStrategy(1), ctx))
		assert.False(t, evaluate(t, feature.NewPonderationStrategy(0), ctx))
	}

	_, err := feature.NewPonderationStrategy(1.5).Evaluate(ctx)
	assert.ErrorIs(t, err, feature.ErrInvalidStrategy)
}

func TestEnvironmentStrategy(t *testing.T) {
	t.Parallel()

	s := feature.NewEnvironmentStrategy([]string{"staging", "development"},
		feature.WithEnvironmentExtractor(testEnvironmentExtractor))

	ctx := context.WithValue(context.Background(), testEnvironmentKey{}, "staging")
	assert.True(t, evaluate(t, s, ctx))

	ctx = context.WithValue(context.Background(), testEnvironmentKey{}, "production")
	assert.False(t, evaluate(t, s, ctx))
	assert.False(t, evaluate(t, s, context.Background()))

	_, err := feature.NewEnvironmentStrategy(nil).Evaluate(ctx)
	assert.ErrorIs(t, err, feature.ErrInvalidStrategy)
}

func TestServerStrategy(t *testing.T) {
	t.Parallel()

	s := feature.NewServerStrategy([]string{"node-1", "node-2"}, func() string { return "node-2" })
	assert.True(t, evaluate(t, s, context.Background()))

	s = feature.NewServerStrategy([]string{"node-1"}, func() string { return "node-9" })
	assert.False(t, evaluate(t, s, context.Background()))
}

func TestReleaseDateStrategy(t *testing.T) {
	t.Parallel()

	assert.True(t, evaluate(t, feature.NewReleaseDateStrategy(time.Now().Add(-time.Hour)), context.Background()))
	assert.False(t, evaluate(t, feature.NewReleaseDateStrategy(time.Now().Add(time.Hour)), context.Background()))
}

func TestCompositeStrategy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	on, off := feature.NewAlwaysOnStrategy(), feature.NewAlwaysOffStrategy()

	assert.True(t, evaluate(t, feature.NewAndStrategy(on, on), ctx))
	assert.False(t, evaluate(t, feature.NewAndStrategy(on, off), ctx))
	assert.True(t, evaluate(t, feature.NewOrStrategy(off, on), ctx))
	assert.False(t, evaluate(t, feature.NewOrStrategy(off, off), ctx))

	_, err := feature.NewAndStrategy().Evaluate(ctx)
	assert.ErrorIs(t, err, feature.ErrInvalidStrategy)

	_, err = (&feature.CompositeStrategy{Strategies: []feature.Strategy{on}, Operator: "xor"}).Evaluate(ctx)
	assert.ErrorIs(t, err, feature.ErrInvalidStrategy)

	failing := feature.NewTargetedStrategy(feature.TargetCriteria{})
	_, err = feature.NewOrStrategy(failing, on).Evaluate(ctx)
	assert.ErrorIs(t, err, feature.ErrInvalidStrategy)
}
