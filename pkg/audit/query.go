package audit

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
)

// Query selects events. Unset predicates match everything; set predicates
// are combined with AND. Bounds are inclusive, in epoch milliseconds.
// Scope, target and action compare case-insensitively with Unicode folding.
type Query struct {
	From      *int64 `json:"from,omitempty"`
	To        *int64 `json:"to,omitempty"`
	Scope     Scope  `json:"scope,omitempty"`
	TargetUID string `json:"target_uid,omitempty"`
	Action    Action `json:"action,omitempty"`

	// Limit caps Search results, keeping the oldest matches. Zero means no limit.
	Limit int `json:"limit,omitempty"`
}

// NewQuery returns a query matching every event.
func NewQuery() *Query {
	return &Query{}
}

// Window returns a query bounded by two instants.
func Window(from, to time.Time) *Query {
	return NewQuery().Since(from.UnixMilli()).Until(to.UnixMilli())
}

// Since sets the inclusive lower bound.
func (q *Query) Since(ms int64) *Query {
	q.From = &ms
	return q
}

// Until sets the inclusive upper bound.
func (q *Query) Until(ms int64) *Query {
	q.To = &ms
	return q
}

func (q *Query) InScope(s Scope) *Query {
	q.Scope = s
	return q
}

func (q *Query) ForTarget(uid string) *Query {
	q.TargetUID = uid
	return q
}

func (q *Query) WithAction(a Action) *Query {
	q.Action = a
	return q
}

func (q *Query) WithLimit(n int) *Query {
	q.Limit = n
	return q
}

// Validate rejects inverted bounds and negative limits.
func (q Query) Validate() error {
	if q.From != nil && q.To != nil && *q.From > *q.To {
		return fmt.Errorf("%w: from %d is after to %d", ErrInvalidQuery, *q.From, *q.To)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}

// Match reports whether e satisfies every set predicate.
func (q Query) Match(e Event) bool {
	return q.matcher().match(e)
}

// Filter returns the matching events in their original order, honouring Limit.
func (q Query) Filter(events []Event) []Event {
	m := q.matcher()
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if !m.match(e) {
			continue
		}
		out = append(out, e.Clone())
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

// FoldKey returns s in the case-folded form Match compares scope, target
// and action in. Stores that filter natively index values by this key.
func FoldKey(s string) string {
	return cases.Fold().String(s)
}

// matcher holds the query with its predicates folded once per scan.
type matcher struct {
	q      Query
	fold   cases.Caser
	scope  string
	target string
	action string
}

func (q Query) matcher() *matcher {
	fold := cases.Fold()
	return &matcher{
		q:      q,
		fold:   fold,
		scope:  fold.String(string(q.Scope)),
		target: fold.String(q.TargetUID),
		action: fold.String(string(q.Action)),
	}
}

func (m *matcher) match(e Event) bool {
	if m.q.From != nil && e.Timestamp < *m.q.From {
		return false
	}
	if m.q.To != nil && e.Timestamp > *m.q.To {
		return false
	}
	if m.scope != "" && m.fold.String(string(e.Scope)) != m.scope {
		return false
	}
	if m.target != "" && m.fold.String(e.TargetUID) != m.target {
		return false
	}
	if m.action != "" && m.fold.String(string(e.Action)) != m.action {
		return false
	}
	return true
}
