package audit

import (
	"context"
	"slices"
	"sync"
)

// Trail is an append-only event log.
type Trail interface {
	// Log appends the event. Events are never deduplicated.
	Log(ctx context.Context, e Event) error

	// Search returns matching events in insertion order.
	Search(ctx context.Context, q Query) ([]Event, error)

	// Purge irreversibly deletes matching events.
	Purge(ctx context.Context, q Query) error

	// Count returns the number of matching events, ignoring Limit.
	Count(ctx context.Context, q Query) (int64, error)
}

// BatchTrail is a Trail that can append several events in one call.
// Implementations should write the batch atomically.
type BatchTrail interface {
	Trail
	LogBatch(ctx context.Context, events []Event) error
}

// MemoryTrail keeps events in process memory. It is safe for concurrent use.
type MemoryTrail struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryTrail returns an empty trail.
func NewMemoryTrail() *MemoryTrail {
	return &MemoryTrail{}
}

func (t *MemoryTrail) Log(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e.Clone())
	return nil
}

func (t *MemoryTrail) LogBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range events {
		t.events = append(t.events, e.Clone())
	}
	return nil
}

func (t *MemoryTrail) Search(ctx context.Context, q Query) ([]Event, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return q.Filter(t.events), nil
}

func (t *MemoryTrail) Purge(ctx context.Context, q Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	m := q.matcher()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = slices.DeleteFunc(t.events, m.match)
	return nil
}

func (t *MemoryTrail) Count(ctx context.Context, q Query) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	m := q.matcher()
	t.mu.RLock()
	defer t.mu.RUnlock()
	var n int64
	for _, e := range t.events {
		if m.match(e) {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored events.
func (t *MemoryTrail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}
