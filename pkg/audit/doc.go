// Package audit records what happened to features and properties.
//
// Every committed store mutation and every feature execution becomes an
// immutable Event appended to a Trail. FeatureListener and PropertyListener
// translate store notifications into events, stamping the acting user (from
// a security.Gate), the host and the entry point set with WithSource.
//
//	trail := audit.NewMemoryTrail()
//	features.RegisterListener("audit", audit.NewFeatureListener(trail, audit.WithGate(gate)))
//
//	events, err := trail.Search(ctx, *audit.NewQuery().
//		Since(from).Until(to).
//		InScope(audit.ScopeFeature).
//		ForTarget("new-ui"))
//
// Listeners run on the caller's goroutine. Wrap a slow backend in an
// AsyncTrail to batch writes in the background:
//
//	async := audit.NewAsyncTrail(pgTrail, audit.AsyncOptions{BatchSize: 200})
//	defer async.Close(context.Background())
//
// Backends for PostgreSQL, MongoDB and OpenSearch live in packages pgstore,
// mongotrail and searchtrail; natstrail republishes events on NATS.
package audit
