package property_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/property"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

type updates struct {
	property.NopListener
	values []string
}

func (u *updates) OnUpdate(_ context.Context, p *property.Property) error {
	u.values = append(u.values, p.Value)
	return nil
}

func TestStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := property.NewStore(repository.NewMemoryStorage[*property.Property]())
	l := &updates{}
	store.RegisterListener("updates", l)

	require.NoError(t, store.Create(ctx, property.New("retries", property.KindInt, "3")))
	require.NoError(t, store.Create(ctx, property.New("mode", property.KindString, "a", "a", "b")))

	assert.ErrorIs(t, store.Create(ctx, property.New("retries", property.KindInt, "3")), repository.ErrAlreadyExists)
	assert.ErrorIs(t, store.Create(ctx, property.New("bad", property.KindInt, "x")), property.ErrInvalidProperty)

	names, err := store.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mode", "retries"}, names)

	require.NoError(t, store.SetValue(ctx, "retries", "5"))
	p, err := store.FindByID(ctx, "retries")
	require.NoError(t, err)
	n, err := p.Int()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	assert.ErrorIs(t, store.SetValue(ctx, "mode", "c"), property.ErrNotAllowed)
	assert.ErrorIs(t, store.SetValue(ctx, "ghost", "1"), property.ErrPropertyNotFound)
	assert.Equal(t, []string{"5"}, l.values)

	_, err = store.FindByID(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "mode"))
	assert.ErrorIs(t, store.Delete(ctx, "mode"), property.ErrPropertyNotFound)

	require.NoError(t, store.DeleteAll(ctx))
	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
