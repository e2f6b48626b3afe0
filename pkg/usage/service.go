package usage

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/logger"
)

// Anonymous keys hits whose event has no owner in UserHitCount.
const Anonymous = "anonymous"

// DefaultMaxBuckets bounds the width of a history chart.
const DefaultMaxBuckets = 10_000

// Service aggregates HIT events of features read from an audit trail.
// It keeps no state between calls.
type Service struct {
	trail      audit.Trail
	loc        *time.Location
	now        func() time.Time
	maxBuckets int
	log        *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLocation sets the zone used to cut day, hour and minute buckets. UTC by default.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock sets the time used as the window end when a query has no upper bound.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxBuckets bounds the number of buckets of a history chart.
func WithMaxBuckets(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBuckets = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates a usage service over trail.
// It panics if trail is nil.
func NewService(trail audit.Trail, opts ...Option) *Service {
	if trail == nil {
		panic("usage: trail cannot be nil")
	}
	s := &Service{
		trail:      trail,
		loc:        time.UTC,
		now:        time.Now,
		maxBuckets: DefaultMaxBuckets,
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("usage"))
	return s
}

// HitCount tallies hits per feature uid.
func (s *Service) HitCount(ctx context.Context, q audit.Query) (map[string]*HitCounter, error) {
	return s.tally(ctx, q, func(e audit.Event) string { return e.TargetUID })
}

// HostHitCount tallies hits per host.
func (s *Service) HostHitCount(ctx context.Context, q audit.Query) (map[string]*HitCounter, error) {
	return s.tally(ctx, q, func(e audit.Event) string { return e.Hostname })
}

// UserHitCount tallies hits per acting user; hits without owner count as Anonymous.
func (s *Service) UserHitCount(ctx context.Context, q audit.Query) (map[string]*HitCounter, error) {
	return s.tally(ctx, q, func(e audit.Event) string {
		if e.Owner == "" {
			return Anonymous
		}
		return e.Owner
	})
}

// SourceHitCount tallies hits per entry point.
func (s *Service) SourceHitCount(ctx context.Context, q audit.Query) (map[string]*HitCounter, error) {
	return s.tally(ctx, q, func(e audit.Event) string { return string(e.Source) })
}

// TotalHitCount returns the number of hits matching q.
func (s *Service) TotalHitCount(ctx context.Context, q audit.Query) (int64, error) {
	counts, err := s.HitCount(ctx, q)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, c := range counts {
		total += c.Value()
	}
	return total, nil
}

// FeatureUsageHistory returns one dense series per feature hit in the
// window of q, with a bucket per unit and zero for buckets without hits.
// A missing lower bound starts at the first hit; a missing upper bound ends now.
func (s *Service) FeatureUsageHistory(ctx context.Context, q audit.Query, unit Unit) (*TimeSeriesChart, error) {
	if _, err := ParseUnit(string(unit)); err != nil {
		return nil, err
	}

	hits, err := s.hits(ctx, q)
	if err != nil {
		return nil, err
	}

	chart := &TimeSeriesChart{Unit: unit, Labels: []string{}, Series: []Serie{}}
	end := s.now().UnixMilli()
	if q.To != nil {
		end = *q.To
	}
	start := end
	switch {
	case q.From != nil:
		start = *q.From
	case len(hits) > 0:
		start = slices.MinFunc(hits, func(a, b audit.Event) int { return cmp.Compare(a.Timestamp, b.Timestamp) }).Timestamp
	}

	labels, err := unit.buckets(start, end, s.loc, s.maxBuckets)
	if err != nil {
		return nil, err
	}
	chart.Labels = labels

	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	series := make(map[string][]int64)
	for _, e := range hits {
		i, ok := index[unit.Key(e.Timestamp, s.loc)]
		if !ok {
			continue
		}
		counts, ok := series[e.TargetUID]
		if !ok {
			counts = make([]int64, len(labels))
			series[e.TargetUID] = counts
		}
		counts[i]++
	}

	for _, name := range slices.Sorted(maps.Keys(series)) {
		chart.Series = append(chart.Series, Serie{Name: name, Counts: series[name]})
	}
	return chart, nil
}

// Distribution returns each feature's share of hits, largest first.
func (s *Service) Distribution(ctx context.Context, q audit.Query) ([]Slice, error) {
	counts, err := s.HitCount(ctx, q)
	if err != nil {
		return nil, err
	}

	var total int64
	out := make([]Slice, 0, len(counts))
	for name, c := range counts {
		total += c.Value()
		out = append(out, Slice{Name: name, Count: c.Value()})
	}
	for i := range out {
		out[i].Percent = float64(out[i].Count) * 100 / float64(total)
	}
	slices.SortFunc(out, func(a, b Slice) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (s *Service) tally(ctx context.Context, q audit.Query, key func(audit.Event) string) (map[string]*HitCounter, error) {
	hits, err := s.hits(ctx, q)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]*HitCounter)
	for _, e := range hits {
		k := key(e)
		c, ok := counts[k]
		if !ok {
			c = &HitCounter{}
			counts[k] = c
		}
		c.Inc()
	}
	return counts, nil
}

// hits returns the feature HIT events matching q.
func (s *Service) hits(ctx context.Context, q audit.Query) ([]audit.Event, error) {
	q.Action = audit.ActionHit
	q.Limit = 0
	if q.From != nil && q.To != nil && *q.From > *q.To {
		// Inverted windows collapse to the instant of the upper bound.
		from := *q.To
		q.From = &from
	}

	events, err := s.trail.Search(ctx, q)
	if err != nil {
		s.log.ErrorContext(ctx, "usage query failed", logger.Error(err))
		return nil, err
	}

	features := audit.NewQuery().InScope(audit.ScopeFeature)
	return slices.DeleteFunc(events, func(e audit.Event) bool { return !features.Match(e) }), nil
}
