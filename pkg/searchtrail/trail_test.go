package searchtrail_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/repository"
	"github.com/dmitrymomot/flagkit/pkg/searchtrail"
)

type recorded struct {
	method string
	path   string
	query  string
	body   string
}

// transport answers every request with the next canned response.
type transport struct {
	mu        sync.Mutex
	requests  []recorded
	responses []*http.Response
}

func (tr *transport) Perform(req *http.Request) (*http.Response, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	tr.requests = append(tr.requests, recorded{req.Method, req.URL.Path, req.URL.RawQuery, body})

	res := tr.responses[0]
	tr.responses = tr.responses[1:]
	return res, nil
}

func reply(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func hitsBody(t *testing.T, events ...audit.Event) string {
	t.Helper()
	hits := make([]map[string]any, 0, len(events))
	for _, e := range events {
		hits = append(hits, map[string]any{"_source": e, "sort": []any{e.Timestamp, e.UID}})
	}
	b, err := json.Marshal(map[string]any{"hits": map[string]any{"hits": hits}})
	require.NoError(t, err)
	return string(b)
}

func TestTrail_Log(t *testing.T) {
	t.Parallel()

	tr := &transport{responses: []*http.Response{reply(201, `{"result":"created"}`)}}
	trail := searchtrail.New(tr, "audit")

	e := audit.NewEvent(audit.ActionToggleOn, audit.ScopeFeature, "beta")
	require.NoError(t, trail.Log(context.Background(), e))

	require.Len(t, tr.requests, 1)
	assert.Equal(t, "/audit/_doc/"+e.UID, tr.requests[0].path)
	assert.Contains(t, tr.requests[0].query, "refresh=wait_for")
	assert.Contains(t, tr.requests[0].body, `"action":"TOGGLE_ON"`)
}

func TestTrail_LogErrorStatus(t *testing.T) {
	t.Parallel()

	tr := &transport{responses: []*http.Response{reply(503, `{"error":"unavailable"}`)}}
	err := searchtrail.New(tr, "audit").Log(context.Background(),
		audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "beta"))
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}

func TestTrail_LogBatch(t *testing.T) {
	t.Parallel()

	events := []audit.Event{
		audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "a"),
		audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "b"),
	}

	t.Run("writes ndjson", func(t *testing.T) {
		t.Parallel()

		tr := &transport{responses: []*http.Response{reply(200, `{"errors":false,"items":[]}`)}}
		require.NoError(t, searchtrail.New(tr, "audit").LogBatch(context.Background(), events))

		require.Len(t, tr.requests, 1)
		lines := strings.Split(strings.TrimSpace(tr.requests[0].body), "\n")
		assert.Len(t, lines, 4)
		assert.JSONEq(t, `{"index":{"_id":"`+events[0].UID+`"}}`, lines[0])
	})

	t.Run("reports rejected items", func(t *testing.T) {
		t.Parallel()

		resp := `{"errors":true,"items":[{"index":{"_id":"` + events[1].UID + `","error":{"type":"mapper_parsing_exception"}}}]}`
		tr := &transport{responses: []*http.Response{reply(200, resp)}}
		err := searchtrail.New(tr, "audit").LogBatch(context.Background(), events)
		require.ErrorIs(t, err, repository.ErrStoreUnavailable)
		assert.Contains(t, err.Error(), events[1].UID)
	})
}

func TestTrail_Search(t *testing.T) {
	t.Parallel()

	hitBeta := audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "Beta", audit.WithTimestamp(100))
	createBeta := audit.NewEvent(audit.ActionCreate, audit.ScopeFeature, "beta", audit.WithTimestamp(150))
	hitAlpha := audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "alpha", audit.WithTimestamp(200))

	tr := &transport{responses: []*http.Response{reply(200, hitsBody(t, hitBeta, createBeta, hitAlpha))}}
	got, err := searchtrail.New(tr, "audit").Search(context.Background(),
		*audit.NewQuery().Since(50).Until(300).ForTarget("BETA").WithAction(audit.ActionHit))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, hitBeta.UID, got[0].UID)

	require.Len(t, tr.requests, 1)
	assert.Equal(t, "/audit/_search", tr.requests[0].path)
	assert.Contains(t, tr.requests[0].body, `"gte":50`)
	assert.Contains(t, tr.requests[0].body, `"lte":300`)
}

func TestTrail_PurgeDeletesMatchedIDs(t *testing.T) {
	t.Parallel()

	keep := audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "alpha")
	drop := audit.NewEvent(audit.ActionHit, audit.ScopeFeature, "beta")

	tr := &transport{responses: []*http.Response{
		reply(200, hitsBody(t, keep, drop)),
		reply(200, `{"deleted":1}`),
	}}
	require.NoError(t, searchtrail.New(tr, "audit").Purge(context.Background(), *audit.NewQuery().ForTarget("beta")))

	require.Len(t, tr.requests, 2)
	assert.Equal(t, "/audit/_delete_by_query", tr.requests[1].path)
	assert.Contains(t, tr.requests[1].body, drop.UID)
	assert.NotContains(t, tr.requests[1].body, keep.UID)
}

func TestTrail_CreateSchema(t *testing.T) {
	t.Parallel()

	t.Run("existing index", func(t *testing.T) {
		t.Parallel()

		tr := &transport{responses: []*http.Response{reply(200, ``)}}
		require.NoError(t, searchtrail.New(tr, "audit").CreateSchema(context.Background()))
		assert.Len(t, tr.requests, 1)
	})

	t.Run("missing index", func(t *testing.T) {
		t.Parallel()

		tr := &transport{responses: []*http.Response{reply(404, ``), reply(200, `{"acknowledged":true}`)}}
		require.NoError(t, searchtrail.New(tr, "audit").CreateSchema(context.Background()))
		require.Len(t, tr.requests, 2)
		assert.Equal(t, "/audit", tr.requests[1].path)
		assert.Contains(t, tr.requests[1].body, `"target_uid"`)
	})
}
