package security

import (
	"context"
	"slices"
)

// User is the authenticated principal acting on the stores.
type User struct {
	Name  string
	Roles []string
}

type userCtxKey struct{}

// WithUser stores the acting user and its roles in the context.
func WithUser(ctx context.Context, name string, roles ...string) context.Context {
	return context.WithValue(ctx, userCtxKey{}, User{Name: name, Roles: slices.Clone(roles)})
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(User)
	return u, ok && u.Name != ""
}
