package feature

import (
	"context"

	"github.com/dmitrymomot/flagkit/pkg/repository"
)

// Listener observes feature store mutations and executions.
// Toggle, group and role changes fire their dedicated method instead of OnUpdate.
type Listener interface {
	repository.Listener[*Feature]

	OnToggle(ctx context.Context, uid string, enabled bool) error
	OnAddToGroup(ctx context.Context, uid, group string) error
	OnRemoveFromGroup(ctx context.Context, uid, group string) error
	OnGrantRole(ctx context.Context, uid, role string) error
	OnRemoveRole(ctx context.Context, uid, role string) error

	// OnFeatureExecuted is fired by Check each time an enabled feature is used.
	OnFeatureExecuted(ctx context.Context, f *Feature) error
}

// NopListener implements Listener with no-ops.
type NopListener struct {
	repository.NopListener[*Feature]
}

func (NopListener) OnToggle(context.Context, string, bool) error            { return nil }
func (NopListener) OnAddToGroup(context.Context, string, string) error      { return nil }
func (NopListener) OnRemoveFromGroup(context.Context, string, string) error { return nil }
func (NopListener) OnGrantRole(context.Context, string, string) error       { return nil }
func (NopListener) OnRemoveRole(context.Context, string, string) error      { return nil }
func (NopListener) OnFeatureExecuted(context.Context, *Feature) error       { return nil }

var _ Listener = NopListener{}
