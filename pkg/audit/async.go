package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/logger"
)

// AsyncOptions configures batching for AsyncTrail.
type AsyncOptions struct {
	BufferSize     int           // events queued before Log falls back to a synchronous write
	BatchSize      int           // events per LogBatch call
	BatchTimeout   time.Duration // max wait before a partial batch is written
	StorageTimeout time.Duration // per batch write timeout
	Logger         *slog.Logger  // receives batch write failures
}

// AsyncTrail hands events to a background worker that writes them in
// batches, so store mutations do not wait on the audit backend. Reads go
// straight to the wrapped trail and may miss events still queued; call Flush
// when read-your-writes is needed.
type AsyncTrail struct {
	next    BatchTrail
	events  chan Event
	flushes chan chan error
	done    chan struct{}
	wg      sync.WaitGroup
	opts    AsyncOptions
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewAsyncTrail starts the batching worker over next.
// It panics if next is nil.
func NewAsyncTrail(next BatchTrail, opts AsyncOptions) *AsyncTrail {
	if next == nil {
		panic("audit: batch trail cannot be nil")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = 5 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	t := &AsyncTrail{
		next:    next,
		events:  make(chan Event, opts.BufferSize),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
		opts:    opts,
		log:     log.With(logger.Component("async_trail")),
	}
	t.wg.Add(1)
	go t.worker()
	return t
}

// Log queues the event. When the buffer is full it writes synchronously so
// no event is dropped.
func (t *AsyncTrail) Log(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return ErrTrailClosed
	}

	select {
	case t.events <- e.Clone():
		return nil
	default:
		return t.next.LogBatch(ctx, []Event{e})
	}
}

func (t *AsyncTrail) Search(ctx context.Context, q Query) ([]Event, error) {
	return t.next.Search(ctx, q)
}

func (t *AsyncTrail) Purge(ctx context.Context, q Query) error {
	return t.next.Purge(ctx, q)
}

func (t *AsyncTrail) Count(ctx context.Context, q Query) (int64, error) {
	return t.next.Count(ctx, q)
}

// Flush writes every queued event and returns the write error, if any.
func (t *AsyncTrail) Flush(ctx context.Context) error {
	result := make(chan error, 1)
	select {
	case t.flushes <- result:
	case <-t.done:
		return ErrTrailClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events, drains the queue and waits for the worker.
// If ctx expires first, queued events may be lost.
func (t *AsyncTrail) Close(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)
	t.mu.Unlock()

	stopped := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *AsyncTrail) worker() {
	defer t.wg.Done()

	batch := make([]Event, 0, t.opts.BatchSize)
	ticker := time.NewTicker(t.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		// Detached from callers so a cancelled request does not drop its events.
		ctx, cancel := context.WithTimeout(context.Background(), t.opts.StorageTimeout)
		defer cancel()

		err := t.next.LogBatch(ctx, batch)
		if err != nil {
			t.log.Error("audit batch write failed", logger.Count(len(batch)), logger.Error(err))
		}
		clear(batch)
		batch = batch[:0]
		return err
	}

	drain := func() {
		for {
			select {
			case e := <-t.events:
				batch = append(batch, e)
				if len(batch) >= t.opts.BatchSize {
					_ = flush()
				}
			default:
				return
			}
		}
	}

	for {
		select {
		case e := <-t.events:
			batch = append(batch, e)
			if len(batch) >= t.opts.BatchSize {
				_ = flush()
			}

		case <-ticker.C:
			_ = flush()

		case result := <-t.flushes:
			drain()
			result <- flush()

		case <-t.done:
			drain()
			_ = flush()
			return
		}
	}
}
