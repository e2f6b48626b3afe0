package console

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/property"
	"github.com/dmitrymomot/flagkit/pkg/repository"
	"github.com/dmitrymomot/flagkit/pkg/security"
	"github.com/dmitrymomot/flagkit/pkg/usage"
)

// UserResolver identifies the caller of a request.
type UserResolver func(r *http.Request) (security.User, bool)

// Console serves the REST API over the stores, the audit trail and usage
// analytics. Every request runs with audit source WEB_CONSOLE.
type Console struct {
	features   *feature.Store
	properties *property.Store
	trail      audit.Trail
	usage      *usage.Service
	users      UserResolver
	log        *slog.Logger
	router     chi.Router
}

// Option configures a Console.
type Option func(*Console)

// WithProperties enables the property routes.
func WithProperties(s *property.Store) Option {
	return func(c *Console) { c.properties = s }
}

// WithAudit enables the audit and usage routes.
func WithAudit(t audit.Trail, u *usage.Service) Option {
	return func(c *Console) {
		c.trail = t
		c.usage = u
	}
}

// WithUserResolver sets how callers are identified. Without it requests run
// anonymously and the stores' authorization gate sees no user.
func WithUserResolver(fn UserResolver) Option {
	return func(c *Console) { c.users = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds the console over the feature store.
func New(features *feature.Store, opts ...Option) *Console {
	c := &Console{features: features, log: logger.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	c.router = c.routes()
	return c
}

func (c *Console) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.router.ServeHTTP(w, r)
}

func (c *Console) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, c.identify)

	r.Route("/features", func(r chi.Router) {
		r.Get("/", c.handle(c.listFeatures))
		r.Post("/", c.handle(c.createFeature))
		r.Route("/{uid}", func(r chi.Router) {
			r.Get("/", c.handle(c.getFeature))
			r.Put("/", c.handle(c.updateFeature))
			r.Delete("/", c.handle(c.deleteFeature))
			r.Post("/enable", c.handle(c.toggleFeature(true)))
			r.Post("/disable", c.handle(c.toggleFeature(false)))
			r.Post("/check", c.handle(c.checkFeature))
			r.Post("/roles/{role}", c.handle(c.grantRole))
			r.Delete("/roles/{role}", c.handle(c.removeRole))
			r.Put("/group/{group}", c.handle(c.addToGroup))
			r.Delete("/group/{group}", c.handle(c.removeFromGroup))
		})
	})

	r.Route("/groups", func(r chi.Router) {
		r.Get("/", c.handle(c.listGroups))
		r.Get("/{group}", c.handle(c.readGroup))
		r.Post("/{group}/enable", c.handle(c.toggleGroup(true)))
		r.Post("/{group}/disable", c.handle(c.toggleGroup(false)))
	})

	if c.properties != nil {
		r.Route("/properties", func(r chi.Router) {
			r.Get("/", c.handle(c.listProperties))
			r.Get("/{uid}", c.handle(c.getProperty))
			r.Put("/{uid}", c.handle(c.putProperty))
			r.Delete("/{uid}", c.handle(c.deleteProperty))
		})
	}

	if c.trail != nil {
		r.Get("/audit", c.handle(c.searchAudit))
	}
	if c.usage != nil {
		r.Route("/usage", func(r chi.Router) {
			r.Get("/hits", c.handle(c.hits))
			r.Get("/history", c.handle(c.history))
			r.Get("/distribution", c.handle(c.distribution))
		})
	}

	r.Get("/snapshot", c.handle(c.exportSnapshot))
	r.Post("/snapshot", c.handle(c.importSnapshot))

	return r
}

// identify stamps the audit source and the resolved user on the request context.
func (c *Console) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.ContextWithSource(r.Context(), audit.SourceWebConsole)
		if c.users != nil {
			if u, ok := c.users(r); ok {
				ctx = security.WithUser(ctx, u.Name, u.Roles...)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handle renders the response of fn and logs failures.
func (c *Console) handle(fn func(r *http.Request) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := fn(r)
		if jr, ok := resp.(*jsonResponse); ok && jr.err != nil {
			level := slog.LevelWarn
			if jr.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			c.log.Log(r.Context(), level, "console request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", jr.status),
				logger.Error(jr.err),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		}
		if err := resp.Render(w, r); err != nil {
			c.log.ErrorContext(r.Context(), "console render failed", logger.Error(err))
		}
	}
}

// committed treats listener failures as success: the mutation is stored.
func (c *Console) committed(ctx context.Context, err error) error {
	if err != nil && errors.Is(err, repository.ErrListener) {
		c.log.WarnContext(ctx, "console mutation stored but listeners failed", logger.Error(err))
		return nil
	}
	return err
}
