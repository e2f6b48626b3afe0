package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/property"
	"github.com/dmitrymomot/flagkit/pkg/repository"
	"github.com/dmitrymomot/flagkit/pkg/security"
)

func actions(events []audit.Event) []audit.Action {
	out := make([]audit.Action, len(events))
	for i, e := range events {
		out[i] = e.Action
	}
	return out
}

func TestFeatureListener(t *testing.T) {
	t.Parallel()

	gate, err := security.NewContextGate()
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	trail := audit.NewMemoryTrail()
	store := feature.NewStore(repository.NewMemoryStorage[*feature.Feature]())
	store.RegisterListener("audit", audit.NewFeatureListener(trail,
		audit.WithGate(gate),
		audit.WithHost("node-1"),
		audit.WithClock(func() time.Time { return now }),
	))

	ctx := audit.ContextWithSource(security.WithUser(context.Background(), "alice", "admin"), audit.SourceWebConsole)

	require.NoError(t, store.CreateSchema(ctx))
	require.NoError(t, store.Create(ctx, feature.New("beta", false)))
	require.NoError(t, store.ToggleOn(ctx, "beta"))
	require.NoError(t, store.AddToGroup(ctx, "beta", "G1"))
	require.NoError(t, store.GrantRole(ctx, "beta", "admin"))
	ok, err := store.Check(ctx, "beta")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.RemoveRole(ctx, "beta", "admin"))
	require.NoError(t, store.RemoveFromGroup(ctx, "beta", "G1"))
	require.NoError(t, store.ToggleOff(ctx, "beta"))
	require.NoError(t, store.Delete(ctx, "beta"))
	require.NoError(t, store.DeleteAll(ctx))

	events, err := trail.Search(ctx, *audit.NewQuery())
	require.NoError(t, err)
	assert.Equal(t, []audit.Action{
		audit.ActionCreateSchema,
		audit.ActionCreate,
		audit.ActionToggleOn,
		audit.ActionAddToGroup,
		audit.ActionGrantRole,
		audit.ActionHit,
		audit.ActionRemoveRole,
		audit.ActionRemoveFromGroup,
		audit.ActionToggleOff,
		audit.ActionDelete,
		audit.ActionDeleteAll,
	}, actions(events))

	for _, e := range events {
		assert.Equal(t, "alice", e.Owner)
		assert.Equal(t, "node-1", e.Hostname)
		assert.Equal(t, audit.SourceWebConsole, e.Source)
		assert.Equal(t, now.UnixMilli(), e.Timestamp)
	}

	assert.Equal(t, audit.ScopeFeatureStore, events[0].Scope)
	assert.Equal(t, "beta", events[1].TargetUID)
	assert.Equal(t, "G1", events[3].Attributes[audit.AttrTargetGroup])
	assert.Equal(t, "admin", events[4].Attributes[audit.AttrRole])
	assert.Equal(t, "G1", events[5].Attributes[audit.AttrTargetGroup])
}

func TestFeatureListener_AnonymousCaller(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	gate, err := security.NewContextGate()
	require.NoError(t, err)
	trail := audit.NewMemoryTrail()
	l := audit.NewFeatureListener(trail, audit.WithGate(gate))

	require.NoError(t, l.OnToggle(ctx, "f1", true))
	events, err := trail.Search(ctx, *audit.NewQuery())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Owner)
	assert.Equal(t, audit.SourceAPI, events[0].Source)
}

func TestPropertyListener(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	trail := audit.NewMemoryTrail()
	store := property.NewStore(repository.NewMemoryStorage[*property.Property]())
	store.RegisterListener("audit", audit.NewPropertyListener(trail))

	require.NoError(t, store.Create(ctx, property.New("retries", property.KindInt, "3")))
	require.NoError(t, store.SetValue(ctx, "retries", "4"))
	require.NoError(t, store.Delete(ctx, "retries"))

	events, err := trail.Search(ctx, *audit.NewQuery().InScope(audit.ScopeProperty))
	require.NoError(t, err)
	assert.Equal(t, []audit.Action{audit.ActionCreate, audit.ActionUpdate, audit.ActionDelete}, actions(events))
	assert.Equal(t, "4", events[1].Value)

	assert.Panics(t, func() { audit.NewPropertyListener(nil) })
}
