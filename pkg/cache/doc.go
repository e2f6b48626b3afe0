// Package cache provides a generic thread-safe LRU and a caching decorator
// for repository storage adapters.
//
//	lru := cache.NewLRU[string, int](128)
//	lru.Put("a", 1)
//	v, ok := lru.Get("a")
//
// Storage wraps any repository.Storage so single entity reads stop hitting a
// remote backend:
//
//	storage := cache.NewStorage[*feature.Feature](pgstore.NewFeatureStorage(pool),
//		cache.WithCapacity(512),
//		cache.WithTTL(30*time.Second),
//	)
//	store := feature.NewStore(storage)
//
// Eviction is least-recently-used by capacity, plus optional expiry by age.
package cache
