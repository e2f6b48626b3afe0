package redisstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/redis"
	"github.com/dmitrymomot/flagkit/pkg/redisstore"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

func TestHashKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "flagkit:features", redisstore.HashKey("flagkit", "features"))
	assert.Equal(t, "features", redisstore.HashKey("", "features"))
}

// TestStorage_Redis runs against a live server when REDIS_URL is set.
func TestStorage_Redis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := redis.Connect(ctx, redis.Config{ConnectionURL: url, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := redisstore.NewFeatureStorage(client, "flagkit-test-"+uuid.NewString())
	t.Cleanup(func() { _ = s.Clear(context.Background()) })

	require.NoError(t, s.CreateSchema(ctx))

	ok, err := s.Exists(ctx, "beta")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "beta")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	f := feature.New("beta", true)
	f.Group = "g1"
	require.NoError(t, s.Put(ctx, f))
	require.NoError(t, s.Put(ctx, feature.New("alpha", false)))

	got, err := s.Get(ctx, "beta")
	require.NoError(t, err)
	assert.True(t, got.Enabled)
	assert.Equal(t, "g1", got.Group)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].UID)

	require.NoError(t, s.Delete(ctx, "beta"))
	assert.ErrorIs(t, s.Delete(ctx, "beta"), repository.ErrNotFound)

	require.NoError(t, s.Clear(ctx))
	all, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
