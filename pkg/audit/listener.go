package audit

import (
	"context"
	"os"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/property"
	"github.com/dmitrymomot/flagkit/pkg/security"
)

// ListenerOption configures the store listeners.
type ListenerOption func(*emitter)

// WithGate sets the gate used to stamp the acting user as event owner.
func WithGate(g security.Gate) ListenerOption {
	return func(e *emitter) { e.gate = g }
}

// WithHost overrides the hostname stamped on events.
func WithHost(host string) ListenerOption {
	return func(e *emitter) { e.hostname = host }
}

// WithClock overrides the time source of emitted events.
func WithClock(now func() time.Time) ListenerOption {
	return func(e *emitter) {
		if now != nil {
			e.now = now
		}
	}
}

// emitter builds events from notifications and logs them to a trail.
type emitter struct {
	trail    Trail
	gate     security.Gate
	hostname string
	now      func() time.Time
}

func newEmitter(trail Trail, opts []ListenerOption) emitter {
	if trail == nil {
		panic("audit: trail cannot be nil")
	}
	host, _ := os.Hostname()
	e := emitter{trail: trail, hostname: host, now: time.Now}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (em emitter) emit(ctx context.Context, action Action, scope Scope, target string, opts ...EventOption) error {
	base := []EventOption{
		WithTime(em.now()),
		WithSource(SourceFromContext(ctx)),
		WithHostname(em.hostname),
	}
	if em.gate != nil {
		if name, ok := em.gate.CurrentUserName(ctx); ok {
			base = append(base, WithOwner(name))
		}
	}
	return em.trail.Log(ctx, NewEvent(action, scope, target, append(base, opts...)...))
}

// FeatureListener records feature store notifications, executions included.
type FeatureListener struct {
	em emitter
}

// NewFeatureListener returns a listener logging to trail.
func NewFeatureListener(trail Trail, opts ...ListenerOption) *FeatureListener {
	return &FeatureListener{em: newEmitter(trail, opts)}
}

func (l *FeatureListener) OnCreate(ctx context.Context, f *feature.Feature) error {
	return l.em.emit(ctx, ActionCreate, ScopeFeature, f.UID)
}

func (l *FeatureListener) OnUpdate(ctx context.Context, f *feature.Feature) error {
	return l.em.emit(ctx, ActionUpdate, ScopeFeature, f.UID)
}

func (l *FeatureListener) OnDelete(ctx context.Context, uid string) error {
	return l.em.emit(ctx, ActionDelete, ScopeFeature, uid)
}

func (l *FeatureListener) OnCreateSchema(ctx context.Context) error {
	return l.em.emit(ctx, ActionCreateSchema, ScopeFeatureStore, "")
}

func (l *FeatureListener) OnDeleteAll(ctx context.Context) error {
	return l.em.emit(ctx, ActionDeleteAll, ScopeFeatureStore, "")
}

func (l *FeatureListener) OnToggle(ctx context.Context, uid string, enabled bool) error {
	action := ActionToggleOff
	if enabled {
		action = ActionToggleOn
	}
	return l.em.emit(ctx, action, ScopeFeature, uid)
}

func (l *FeatureListener) OnAddToGroup(ctx context.Context, uid, group string) error {
	return l.em.emit(ctx, ActionAddToGroup, ScopeFeature, uid, WithAttribute(AttrTargetGroup, group))
}

func (l *FeatureListener) OnRemoveFromGroup(ctx context.Context, uid, group string) error {
	return l.em.emit(ctx, ActionRemoveFromGroup, ScopeFeature, uid, WithAttribute(AttrTargetGroup, group))
}

func (l *FeatureListener) OnGrantRole(ctx context.Context, uid, role string) error {
	return l.em.emit(ctx, ActionGrantRole, ScopeFeature, uid, WithAttribute(AttrRole, role))
}

func (l *FeatureListener) OnRemoveRole(ctx context.Context, uid, role string) error {
	return l.em.emit(ctx, ActionRemoveRole, ScopeFeature, uid, WithAttribute(AttrRole, role))
}

// OnFeatureExecuted records a HIT, the unit counted by usage analytics.
func (l *FeatureListener) OnFeatureExecuted(ctx context.Context, f *feature.Feature) error {
	var opts []EventOption
	if f.Group != "" {
		opts = append(opts, WithAttribute(AttrTargetGroup, f.Group))
	}
	return l.em.emit(ctx, ActionHit, ScopeFeature, f.UID, opts...)
}

// PropertyListener records property store notifications.
type PropertyListener struct {
	em emitter
}

// NewPropertyListener returns a listener logging to trail.
func NewPropertyListener(trail Trail, opts ...ListenerOption) *PropertyListener {
	return &PropertyListener{em: newEmitter(trail, opts)}
}

func (l *PropertyListener) OnCreate(ctx context.Context, p *property.Property) error {
	return l.em.emit(ctx, ActionCreate, ScopeProperty, p.UID, WithValue(p.Value))
}

func (l *PropertyListener) OnUpdate(ctx context.Context, p *property.Property) error {
	return l.em.emit(ctx, ActionUpdate, ScopeProperty, p.UID, WithValue(p.Value))
}

func (l *PropertyListener) OnDelete(ctx context.Context, uid string) error {
	return l.em.emit(ctx, ActionDelete, ScopeProperty, uid)
}

func (l *PropertyListener) OnCreateSchema(ctx context.Context) error {
	return l.em.emit(ctx, ActionCreateSchema, ScopePropertyStore, "")
}

func (l *PropertyListener) OnDeleteAll(ctx context.Context) error {
	return l.em.emit(ctx, ActionDeleteAll, ScopePropertyStore, "")
}

var (
	_ feature.Listener  = (*FeatureListener)(nil)
	_ property.Listener = (*PropertyListener)(nil)
)
