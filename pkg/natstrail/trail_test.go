package natstrail_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/natstrail"
)

type message struct {
	subject string
	data    []byte
}

type publisher struct {
	mu   sync.Mutex
	msgs []message
	err  error
}

func (p *publisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, message{subject, data})
	return nil
}

// plainTrail hides the batch method of MemoryTrail.
type plainTrail struct{ audit.Trail }

func TestSubject(t *testing.T) {
	t.Parallel()

	e := audit.NewEvent(audit.ActionToggleOn, audit.ScopeFeature, "beta")
	assert.Equal(t, "flagkit.audit.feature.toggle_on", natstrail.Subject("flagkit.audit", e))
	assert.Equal(t, "feature.toggle_on", natstrail.Subject("", e))
}

func TestTrail_Log(t *testing.T) {
	t.Parallel()

	t.Run("stores then publishes", func(t *testing.T) {
		t.Parallel()

		mem := audit.NewMemoryTrail()
		pub := &publisher{}
		trail := natstrail.New(mem, pub, "flagkit.audit", logger.Discard())

		e := audit.NewEvent(audit.ActionCreate, audit.ScopeProperty, "ttl")
		require.NoError(t, trail.Log(context.Background(), e))

		assert.Equal(t, 1, mem.Len())
		require.Len(t, pub.msgs, 1)
		assert.Equal(t, "flagkit.audit.property.create", pub.msgs[0].subject)

		got, err := natstrail.Decode(pub.msgs[0].data)
		require.NoError(t, err)
		assert.Equal(t, e.UID, got.UID)
	})

	t.Run("invalid event is neither stored nor published", func(t *testing.T) {
		t.Parallel()

		pub := &publisher{}
		trail := natstrail.New(audit.NewMemoryTrail(), pub, "p", logger.Discard())
		assert.ErrorIs(t, trail.Log(context.Background(), audit.Event{}), audit.ErrInvalidEvent)
		assert.Empty(t, pub.msgs)
	})

	t.Run("publish failure does not fail the write", func(t *testing.T) {
		t.Parallel()

		mem := audit.NewMemoryTrail()
		trail := natstrail.New(mem, &publisher{err: errors.New("nats: connection closed")}, "p", logger.Discard())
		require.NoError(t, trail.Log(context.Background(), audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "beta")))
		assert.Equal(t, 1, mem.Len())
	})
}

func TestTrail_LogBatch(t *testing.T) {
	t.Parallel()

	events := []audit.Event{
		audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "a"),
		audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "b"),
	}

	for name, next := range map[string]audit.Trail{
		"batch":  audit.NewMemoryTrail(),
		"single": plainTrail{audit.NewMemoryTrail()},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pub := &publisher{}
			trail := natstrail.New(next, pub, "p", logger.Discard())
			require.NoError(t, trail.LogBatch(context.Background(), events))

			n, err := trail.Count(context.Background(), *audit.NewQuery())
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)
			assert.Len(t, pub.msgs, 2)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	_, err := natstrail.Decode([]byte(`{`))
	assert.Error(t, err)

	data, err := json.Marshal(audit.Event{UID: "x"})
	require.NoError(t, err)
	_, err = natstrail.Decode(data)
	assert.ErrorIs(t, err, audit.ErrInvalidEvent)
}
