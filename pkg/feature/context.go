package feature

import (
	"context"
	"os"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/security"
)

type environmentKey struct{}

// WithEnvironment stores the deployment environment evaluated by environment strategies.
func WithEnvironment(ctx context.Context, env string) context.Context {
	return context.WithValue(ctx, environmentKey{}, env)
}

// EnvironmentFromContext returns the environment set by WithEnvironment.
func EnvironmentFromContext(ctx context.Context) string {
	env, _ := ctx.Value(environmentKey{}).(string)
	return env
}

// Extractors supplies strategies with the evaluation data they need.
type Extractors struct {
	UserID      UserIDExtractor
	UserGroups  UserGroupsExtractor
	Environment EnvironmentExtractor
	Hostname    func() string
	Now         func() time.Time
}

// DefaultExtractors reads the user and its roles from the security context,
// the environment from WithEnvironment and the host from os.Hostname.
func DefaultExtractors() Extractors {
	return Extractors{
		UserID: func(ctx context.Context) string {
			if u, ok := security.UserFromContext(ctx); ok {
				return u.Name
			}
			return ""
		},
		UserGroups: func(ctx context.Context) []string {
			if u, ok := security.UserFromContext(ctx); ok {
				return u.Roles
			}
			return nil
		},
		Environment: EnvironmentFromContext,
		Hostname: func() string {
			host, _ := os.Hostname()
			return host
		},
		Now: time.Now,
	}
}

// withDefaults fills unset extractors from DefaultExtractors.
func (ex Extractors) withDefaults() Extractors {
	def := DefaultExtractors()
	if ex.UserID == nil {
		ex.UserID = def.UserID
	}
	if ex.UserGroups == nil {
		ex.UserGroups = def.UserGroups
	}
	if ex.Environment == nil {
		ex.Environment = def.Environment
	}
	if ex.Hostname == nil {
		ex.Hostname = def.Hostname
	}
	if ex.Now == nil {
		ex.Now = def.Now
	}
	return ex
}
