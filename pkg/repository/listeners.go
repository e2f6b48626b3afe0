package repository

import "sync"

type namedListener[L any] struct {
	name     string
	listener L
}

// listenerRegistry keeps listeners keyed by name in registration order.
// Re-registering a name replaces the listener in place.
type listenerRegistry[L any] struct {
	mu      sync.RWMutex
	entries []namedListener[L]
}

func (r *listenerRegistry[L]) register(name string, l L) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].name == name {
			r.entries[i].listener = l
			return
		}
	}
	r.entries = append(r.entries, namedListener[L]{name: name, listener: l})
}

func (r *listenerRegistry[L]) unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].name == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot returns a copy so dispatch never holds the lock while calling out.
func (r *listenerRegistry[L]) snapshot() []namedListener[L] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]namedListener[L], len(r.entries))
	copy(out, r.entries)
	return out
}
