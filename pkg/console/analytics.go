package console

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/binder"
	"github.com/dmitrymomot/flagkit/pkg/repository"
	"github.com/dmitrymomot/flagkit/pkg/usage"
)

// auditRequest is the query string shared by the audit and usage routes.
// Bounds are epoch milliseconds.
type auditRequest struct {
	From   *int64 `query:"from"`
	To     *int64 `query:"to"`
	Scope  string `query:"scope"`
	UID    string `query:"uid"`
	Action string `query:"action"`
	Limit  int    `query:"limit"`
	By     string `query:"by"`
	Unit   string `query:"unit"`
}

func (req auditRequest) query() audit.Query {
	return audit.Query{
		From:      req.From,
		To:        req.To,
		Scope:     audit.Scope(req.Scope),
		TargetUID: req.UID,
		Action:    audit.Action(req.Action),
		Limit:     req.Limit,
	}
}

func bindAudit(r *http.Request) (auditRequest, error) {
	var req auditRequest
	err := binder.Query()(r, &req)
	return req, err
}

func (c *Console) searchAudit(r *http.Request) Response {
	req, err := bindAudit(r)
	if err != nil {
		return JSONError(err)
	}
	q := req.query()
	if err := q.Validate(); err != nil {
		return JSONError(err)
	}
	events, err := c.trail.Search(r.Context(), q)
	if err != nil {
		return JSONError(err)
	}
	if events == nil {
		events = []audit.Event{}
	}
	return JSON(events, WithMeta(map[string]int{"count": len(events)}))
}

type hitsMeta struct {
	By    string `json:"by"`
	Total int64  `json:"total"`
}

// hits tallies feature hits by feature, host, user or source (?by=, default feature).
func (c *Console) hits(r *http.Request) Response {
	req, err := bindAudit(r)
	if err != nil {
		return JSONError(err)
	}
	if req.By == "" {
		req.By = "feature"
	}

	var tally func(context.Context, audit.Query) (map[string]*usage.HitCounter, error)
	switch req.By {
	case "feature":
		tally = c.usage.HitCount
	case "host":
		tally = c.usage.HostHitCount
	case "user":
		tally = c.usage.UserHitCount
	case "source":
		tally = c.usage.SourceHitCount
	default:
		return JSONError(fmt.Errorf("%w: unknown tally %q", repository.ErrInvalidArgument, req.By))
	}

	counts, err := tally(r.Context(), req.query())
	if err != nil {
		return JSONError(err)
	}
	var total int64
	for _, n := range counts {
		total += n.Value()
	}
	return JSON(counts, WithMeta(hitsMeta{By: req.By, Total: total}))
}

func (c *Console) history(r *http.Request) Response {
	req, err := bindAudit(r)
	if err != nil {
		return JSONError(err)
	}
	if req.Unit == "" {
		req.Unit = string(usage.Hour)
	}
	unit, err := usage.ParseUnit(req.Unit)
	if err != nil {
		return JSONError(err)
	}
	chart, err := c.usage.FeatureUsageHistory(r.Context(), req.query(), unit)
	if err != nil {
		return JSONError(err)
	}
	return JSON(chart)
}

func (c *Console) distribution(r *http.Request) Response {
	req, err := bindAudit(r)
	if err != nil {
		return JSONError(err)
	}
	shares, err := c.usage.Distribution(r.Context(), req.query())
	if err != nil {
		return JSONError(err)
	}
	return JSON(shares)
}
