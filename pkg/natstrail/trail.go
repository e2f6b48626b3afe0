package natstrail

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/logger"
)

// Publisher is the part of *nats.Conn used to broadcast events.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Trail stores events in the wrapped trail and then publishes each stored
// event as JSON on "<prefix>.<scope>.<action>", lower-cased. Publish
// failures are logged and never fail the write.
type Trail struct {
	next   audit.Trail
	pub    Publisher
	prefix string
	log    *slog.Logger
}

// New wraps next. A nil log falls back to slog.Default.
func New(next audit.Trail, pub Publisher, prefix string, log *slog.Logger) *Trail {
	if log == nil {
		log = slog.Default()
	}
	return &Trail{next: next, pub: pub, prefix: prefix, log: log}
}

// Subject returns the subject an event is published on.
func Subject(prefix string, e audit.Event) string {
	s := strings.ToLower(string(e.Scope) + "." + string(e.Action))
	if prefix == "" {
		return s
	}
	return prefix + "." + s
}

func (t *Trail) Log(ctx context.Context, e audit.Event) error {
	if err := t.next.Log(ctx, e); err != nil {
		return err
	}
	t.publish(ctx, e)
	return nil
}

// LogBatch uses the wrapped trail's batch write when it has one.
func (t *Trail) LogBatch(ctx context.Context, events []audit.Event) error {
	if bt, ok := t.next.(audit.BatchTrail); ok {
		if err := bt.LogBatch(ctx, events); err != nil {
			return err
		}
	} else {
		for _, e := range events {
			if err := t.next.Log(ctx, e); err != nil {
				return err
			}
		}
	}
	for _, e := range events {
		t.publish(ctx, e)
	}
	return nil
}

func (t *Trail) Search(ctx context.Context, q audit.Query) ([]audit.Event, error) {
	return t.next.Search(ctx, q)
}

func (t *Trail) Purge(ctx context.Context, q audit.Query) error {
	return t.next.Purge(ctx, q)
}

func (t *Trail) Count(ctx context.Context, q audit.Query) (int64, error) {
	return t.next.Count(ctx, q)
}

func (t *Trail) publish(ctx context.Context, e audit.Event) {
	subject := Subject(t.prefix, e)
	data, err := json.Marshal(e)
	if err == nil {
		err = t.pub.Publish(subject, data)
	}
	if err != nil {
		t.log.WarnContext(ctx, "audit event not published",
			slog.String("subject", subject),
			slog.String("event", e.UID),
			logger.Error(err))
	}
}

// Subscribe delivers events published under prefix to fn, which runs on
// the subscription goroutine. Messages that do not decode are logged and
// dropped.
func Subscribe(nc *nats.Conn, prefix string, log *slog.Logger, fn func(audit.Event)) (*nats.Subscription, error) {
	if log == nil {
		log = slog.Default()
	}
	return nc.Subscribe(prefix+".>", func(msg *nats.Msg) {
		e, err := Decode(msg.Data)
		if err != nil {
			log.Warn("malformed audit event", slog.String("subject", msg.Subject), logger.Error(err))
			return
		}
		fn(e)
	})
}

// Decode parses and validates a published event.
func Decode(data []byte) (audit.Event, error) {
	var e audit.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return audit.Event{}, err
	}
	if err := e.Validate(); err != nil {
		return audit.Event{}, err
	}
	return e, nil
}
