package searchtrail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/opensearch"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

const pageSize = 1000

// Trail stores audit events in an OpenSearch index. It implements
// audit.BatchTrail. Events come back ordered by timestamp, then uid.
type Trail struct {
	client  opensearchapi.Transport
	index   string
	refresh string
}

// Option configures a Trail.
type Option func(*Trail)

// WithRefresh sets the refresh policy of writes: "true", "false" or
// "wait_for" (default).
func WithRefresh(policy string) Option {
	return func(t *Trail) { t.refresh = policy }
}

// New returns a trail writing to index. client is usually *opensearch.Client.
func New(client opensearchapi.Transport, index string, opts ...Option) *Trail {
	t := &Trail{client: client, index: index, refresh: "wait_for"}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

const mapping = `{
  "mappings": {
    "properties": {
      "uid":        {"type": "keyword"},
      "timestamp":  {"type": "long"},
      "action":     {"type": "keyword"},
      "scope":      {"type": "keyword"},
      "source":     {"type": "keyword"},
      "target_uid": {"type": "keyword"},
      "owner":      {"type": "keyword"},
      "hostname":   {"type": "keyword"},
      "duration":   {"type": "long"},
      "value":      {"type": "keyword"},
      "attributes": {"type": "object", "dynamic": true}
    }
  }
}`

// CreateSchema creates the index with its mapping unless it exists.
func (t *Trail) CreateSchema(ctx context.Context) error {
	res, err := opensearchapi.IndicesExistsRequest{Index: []string{t.index}}.Do(ctx, t.client)
	if err != nil {
		return t.fail("index exists", err)
	}
	drain(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = opensearchapi.IndicesCreateRequest{
		Index: t.index,
		Body:  bytes.NewReader([]byte(mapping)),
	}.Do(ctx, t.client)
	return t.check("create index", res, err)
}

func (t *Trail) Log(ctx context.Context, e audit.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("searchtrail: encode %s: %w", e.UID, err)
	}
	res, err := opensearchapi.IndexRequest{
		Index:      t.index,
		DocumentID: e.UID,
		Body:       bytes.NewReader(body),
		Refresh:    t.refresh,
	}.Do(ctx, t.client)
	return t.check("index", res, err)
}

// LogBatch writes the events with one bulk request. Bulk writes are not
// atomic: items that failed are reported in the returned error.
func (t *Trail) LogBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	body, err := bulkBody(events)
	if err != nil {
		return err
	}
	res, err := opensearchapi.BulkRequest{
		Index:   t.index,
		Body:    bytes.NewReader(body),
		Refresh: t.refresh,
	}.Do(ctx, t.client)
	if err != nil {
		return t.fail("bulk", err)
	}
	defer res.Body.Close()
	if err := opensearch.ResponseError(res); err != nil {
		return t.fail("bulk", err)
	}

	var out struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID    string          `json:"_id"`
			Error json.RawMessage `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return t.fail("decode bulk response", err)
	}
	if !out.Errors {
		return nil
	}
	var failed []string
	for _, item := range out.Items {
		for _, r := range item {
			if len(r.Error) > 0 {
				failed = append(failed, r.ID)
			}
		}
	}
	return t.fail("bulk", fmt.Errorf("%d of %d events rejected: %v", len(failed), len(events), failed))
}

func (t *Trail) Search(ctx context.Context, q audit.Query) ([]audit.Event, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	events, err := t.scan(ctx, q)
	if err != nil {
		return nil, err
	}
	return q.Filter(events), nil
}

func (t *Trail) Count(ctx context.Context, q audit.Query) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	events, err := t.scan(ctx, q)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, e := range events {
		if q.Match(e) {
			n++
		}
	}
	return n, nil
}

func (t *Trail) Purge(ctx context.Context, q audit.Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	events, err := t.scan(ctx, q)
	if err != nil {
		return err
	}
	var ids []string
	for _, e := range events {
		if q.Match(e) {
			ids = append(ids, e.UID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{"ids": map[string]any{"values": ids}},
	})
	if err != nil {
		return fmt.Errorf("searchtrail: encode purge: %w", err)
	}
	refresh := true
	res, err := opensearchapi.DeleteByQueryRequest{
		Index:   []string{t.index},
		Body:    bytes.NewReader(body),
		Refresh: &refresh,
	}.Do(ctx, t.client)
	return t.check("delete by query", res, err)
}

// scan pages through the events inside the query window with search_after.
// Scope, target and action are matched in process so comparisons use
// Unicode folding.
func (t *Trail) scan(ctx context.Context, q audit.Query) ([]audit.Event, error) {
	var (
		out   []audit.Event
		after []any
	)
	for {
		body, err := json.Marshal(searchBody(q, after))
		if err != nil {
			return nil, fmt.Errorf("searchtrail: encode search: %w", err)
		}
		res, err := opensearchapi.SearchRequest{
			Index: []string{t.index},
			Body:  bytes.NewReader(body),
		}.Do(ctx, t.client)
		if err != nil {
			return nil, t.fail("search", err)
		}
		page, err := decodePage(res)
		if err != nil {
			return nil, t.fail("search", err)
		}
		for _, h := range page {
			out = append(out, h.Source)
		}
		if len(page) < pageSize {
			return out, nil
		}
		after = page[len(page)-1].Sort
	}
}

type hit struct {
	Source audit.Event `json:"_source"`
	Sort   []any       `json:"sort"`
}

func decodePage(res *opensearchapi.Response) ([]hit, error) {
	defer res.Body.Close()
	if err := opensearch.ResponseError(res); err != nil {
		return nil, err
	}
	var out struct {
		Hits struct {
			Hits []hit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Hits.Hits, nil
}

// searchBody renders one page request for the query window.
func searchBody(q audit.Query, after []any) map[string]any {
	body := map[string]any{
		"size": pageSize,
		"sort": []any{
			map[string]string{"timestamp": "asc"},
			map[string]string{"uid": "asc"},
		},
	}
	rng := map[string]int64{}
	if q.From != nil {
		rng["gte"] = *q.From
	}
	if q.To != nil {
		rng["lte"] = *q.To
	}
	if len(rng) > 0 {
		body["query"] = map[string]any{"range": map[string]any{"timestamp": rng}}
	} else {
		body["query"] = map[string]any{"match_all": map[string]any{}}
	}
	if len(after) > 0 {
		body["search_after"] = after
	}
	return body
}

func bulkBody(events []audit.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		meta := map[string]any{"index": map[string]string{"_id": e.UID}}
		if err := enc.Encode(meta); err != nil {
			return nil, fmt.Errorf("searchtrail: encode bulk meta: %w", err)
		}
		if err := enc.Encode(e); err != nil {
			return nil, fmt.Errorf("searchtrail: encode %s: %w", e.UID, err)
		}
	}
	return buf.Bytes(), nil
}

func (t *Trail) check(op string, res *opensearchapi.Response, err error) error {
	if err != nil {
		return t.fail(op, err)
	}
	defer drain(res)
	if err := opensearch.ResponseError(res); err != nil {
		return t.fail(op, err)
	}
	return nil
}

func (t *Trail) fail(op string, err error) error {
	return repository.Unavailable(fmt.Errorf("searchtrail: %s %s: %w", op, t.index, err))
}

func drain(res *opensearchapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
