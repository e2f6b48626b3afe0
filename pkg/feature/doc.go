// Package feature manages runtime feature toggles.
//
// A Feature is a named boolean flag. It may belong to one group, restrict its
// use to a set of roles and carry an evaluation strategy. Store specialises the
// generic repository engine (package repository) with toggle, group and role
// operations, each observable through its own Listener method so observers can
// tell a flag flip from a metadata edit.
//
// # Usage
//
//	store := feature.NewStore(repository.NewMemoryStorage[*feature.Feature](),
//		feature.WithAuthorization(gate),
//		feature.WithLogger(log),
//	)
//	store.RegisterListener("audit", audit.NewFeatureListener(trail))
//
//	_ = store.Create(ctx, feature.New("new-ui", false))
//	_ = store.ToggleOn(ctx, "new-ui")
//
//	if ok, _ := store.Check(ctx, "new-ui"); ok {
//		// serve the new UI
//	}
//
// # Strategies
//
// A strategy is persisted as a StrategySpec: a type name plus string
// parameters. The Registry turns it into a Strategy at evaluation time.
// DefaultRegistry knows the built-in types:
//
//	always       value=true|false
//	ponderation  weight=0..1, random draw per call
//	percentage   percent=0..100, stable per user
//	whitelist    users=a,b
//	blacklist    users=a,b
//	targeted     users, groups, allow, deny, percent
//	environment  environments=staging,production
//	server       hosts=node-1,node-2
//	releaseDate  date=RFC3339 instant
//
// Register custom types at startup. Strategies read the user, its roles, the
// environment and the host through Extractors; the defaults use
// security.WithUser, WithEnvironment and os.Hostname.
//
// # Consistency
//
// Listeners run synchronously after the mutation is committed. Toggles, group
// and role changes are read-modify-write sequences and are not atomic against
// concurrent writers unless the storage adapter makes them so. EnableGroup and
// DisableGroup toggle members one by one and stop at the first failure.
package feature
