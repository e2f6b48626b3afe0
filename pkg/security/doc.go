// Package security is the authorization gate consumed by the feature store
// and the audit listeners. It answers two questions: who is acting (used to
// stamp audit events) and whether that user may use a feature restricted to a
// set of roles.
//
// The gate is a collaborator contract. ContextGate is the bundled
// implementation; it reads the user placed in the context by WithUser,
// typically from an HTTP middleware, and expands roles through an optional
// inheritance hierarchy:
//
//	gate, err := security.NewContextGate(security.WithRoleHierarchy(map[string][]string{
//	    "admin":  {"editor"},
//	    "editor": {"viewer"},
//	}))
//	ctx = security.WithUser(ctx, "alice", "admin")
//	err = gate.Authorize(ctx, "viewer") // nil: admin inherits viewer
//
// Authorize returns ErrAccessDenied, which matches repository.ErrAccessDenied.
package security
