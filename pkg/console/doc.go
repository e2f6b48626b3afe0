// Package console exposes the feature store, the property store, the audit
// trail and usage analytics over HTTP with a JSON envelope:
//
//	{"data": ..., "meta": ..., "error": {"code": "not_found", "message": "..."}}
//
// Mutations run with audit source WEB_CONSOLE, so the audit trail tells them
// apart from library calls. Errors map to status codes by repository kind:
// not found is 404, already exists is 409, invalid argument is 400, access
// denied is 403 and an unavailable store is 503.
//
// Mount it under any prefix:
//
//	c := console.New(features,
//		console.WithProperties(properties),
//		console.WithAudit(trail, usage.NewService(trail)),
//	)
//	mux.Handle("/console/", http.StripPrefix("/console", c))
package console
