// Package repository provides the generic CRUD engine shared by features and
// properties, the Storage contract every backend implements and the Listener
// contract observers implement.
//
// # Architecture
//
//	caller ──► Repository ──► Storage (memory, postgres, redis, cache...)
//	                │
//	                └──► listeners, in registration order, after commit
//
// Repository validates identifiers before touching storage, stamps creation
// and modification dates, persists clones and then notifies listeners
// synchronously. A listener is never notified for a failed mutation. A
// failing listener does not roll back the committed mutation: every listener
// still runs and the joined failures are returned wrapped with ErrListener.
//
// A slow listener delays the caller. Observers that must not block writes
// should hand work off to a queue (see audit.AsyncTrail).
//
// # Concurrency
//
// The engine holds no lock across operations. Read-modify-write sequences such
// as toggles are not atomic against concurrent writers unless the Storage
// implementation provides compare-and-swap or transactional semantics.
//
// # Errors
//
// ErrNotFound, ErrAlreadyExists, ErrInvalidArgument, ErrAccessDenied,
// ErrStoreUnavailable and ErrListener classify failures; match them with
// errors.Is. Adapter failures are propagated without retry.
//
// # Usage
//
//	storage := repository.NewMemoryStorage[*property.Property]()
//	repo := repository.New[*property.Property, repository.Listener[*property.Property]](storage)
//	repo.RegisterListener("audit", auditListener)
//	err := repo.Create(ctx, &property.Property{...})
package repository
