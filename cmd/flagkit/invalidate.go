package main

import (
	"github.com/dmitrymomot/flagkit/pkg/audit"
)

// invalidator is the part of cache.Storage used to drop stale entries.
type invalidator interface {
	Invalidate(uid string)
	InvalidateAll()
}

// cacheInvalidator returns a handler for events published by other
// instances. Feature hits change nothing; group toggles touch every member,
// so the whole feature cache is dropped.
func cacheInvalidator(features, properties invalidator) func(audit.Event) {
	return func(e audit.Event) {
		if e.Action == audit.ActionHit {
			return
		}
		switch e.Scope {
		case audit.ScopeFeature:
			if features != nil {
				features.Invalidate(e.TargetUID)
			}
		case audit.ScopeFeatureGroup, audit.ScopeFeatureStore:
			if features != nil {
				features.InvalidateAll()
			}
		case audit.ScopeProperty:
			if properties != nil {
				properties.Invalidate(e.TargetUID)
			}
		case audit.ScopePropertyStore:
			if properties != nil {
				properties.InvalidateAll()
			}
		}
	}
}
