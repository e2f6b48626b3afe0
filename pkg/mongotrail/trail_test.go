package mongotrail

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/mongo"
)

func TestWindowFilter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bson.M{}, windowFilter(*audit.NewQuery()))
	assert.Equal(t,
		bson.M{"ts": bson.M{"$gte": int64(10), "$lte": int64(20)}},
		windowFilter(*audit.NewQuery().Since(10).Until(20)))
	assert.Equal(t,
		bson.M{"ts": bson.M{"$gte": int64(10)}},
		windowFilter(*audit.NewQuery().Since(10)))
}

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	e := audit.NewEvent(audit.ActionGrantRole, audit.ScopeFeature, "beta",
		audit.WithOwner("alice"),
		audit.WithAttribute(audit.AttrRole, "ADMIN"))

	d := toDocument(e)
	assert.False(t, d.ID.IsZero())
	assert.Equal(t, e, d.event())
}

// TestTrail_Mongo runs against a live server when MONGODB_URL is set.
func TestTrail_Mongo(t *testing.T) {
	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL not set")
	}

	ctx := context.Background()
	db, err := mongo.NewWithDatabase(ctx, mongo.Config{
		ConnectionURL:  url,
		Database:       "flagkit_test",
		ConnectTimeout: 5 * time.Second,
		RetryAttempts:  1,
	})
	require.NoError(t, err)

	coll := db.Collection("audit_" + uuid.NewString())
	t.Cleanup(func() {
		_ = coll.Drop(context.Background())
		_ = db.Client().Disconnect(context.Background())
	})

	trail := New(coll)
	require.NoError(t, trail.CreateSchema(ctx))

	require.NoError(t, trail.LogBatch(ctx, []audit.Event{
		audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "beta", audit.WithTimestamp(100)),
		audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "alpha", audit.WithTimestamp(200)),
		audit.NewEvent(audit.ActionCreate, audit.ScopeFeature, "beta", audit.WithTimestamp(300)),
	}))

	hits, err := trail.Search(ctx, *audit.NewQuery().WithAction("hit"))
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "beta", hits[0].TargetUID)

	n, err := trail.Count(ctx, *audit.NewQuery().ForTarget("BETA").Since(150))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, trail.Purge(ctx, *audit.NewQuery().ForTarget("beta")))
	n, err = trail.Count(ctx, *audit.NewQuery())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
