package audit

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Action is what happened to the target.
type Action string

const (
	ActionCreate          Action = "CREATE"
	ActionUpdate          Action = "UPDATE"
	ActionDelete          Action = "DELETE"
	ActionCreateSchema    Action = "CREATE_SCHEMA"
	ActionToggleOn        Action = "TOGGLE_ON"
	ActionToggleOff       Action = "TOGGLE_OFF"
	ActionAddToGroup      Action = "ADD_TO_GROUP"
	ActionRemoveFromGroup Action = "REMOVE_FROM_GROUP"
	ActionGrantRole       Action = "GRANT_ROLE"
	ActionRemoveRole      Action = "REMOVE_ROLE"
	ActionDeleteAll       Action = "DELETE_ALL"
	ActionHit             Action = "HIT"
)

// Scope is the kind of target an event concerns.
type Scope string

const (
	ScopeFeature       Scope = "FEATURE"
	ScopeFeatureStore  Scope = "FEATURESTORE"
	ScopeProperty      Scope = "PROPERTY"
	ScopePropertyStore Scope = "PROPERTYSTORE"
	ScopeFeatureGroup  Scope = "FEATURE_GROUP"
)

// Source is the entry point that triggered the event.
type Source string

const (
	SourceAPI             Source = "JAVA_API"
	SourceWebConsole      Source = "WEB_CONSOLE"
	SourceWebAPI          Source = "WEB_API"
	SourceSSH             Source = "SSH"
	SourceEmbeddedServlet Source = "EMBEDDED_SERVLET"
	SourceUnknown         Source = "UNKNOWN"
)

// Attribute keys set by the store listeners.
const (
	AttrTargetGroup = "targetGroup"
	AttrRole        = "role"
)

// Event is an immutable record of a mutation or feature execution.
type Event struct {
	UID        string            `json:"uid"`
	Timestamp  int64             `json:"timestamp"` // epoch milliseconds
	Action     Action            `json:"action"`
	Scope      Scope             `json:"scope"`
	Source     Source            `json:"source"`
	TargetUID  string            `json:"target_uid"`
	Owner      string            `json:"owner,omitempty"`
	Hostname   string            `json:"hostname,omitempty"`
	Duration   int64             `json:"duration,omitempty"` // milliseconds
	Value      string            `json:"value,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// EventOption customises an event built by NewEvent.
type EventOption func(*Event)

// NewEvent returns an event with a random uid, the current time and source
// SourceAPI, then applies opts.
func NewEvent(action Action, scope Scope, targetUID string, opts ...EventOption) Event {
	e := Event{
		UID:       uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Action:    action,
		Scope:     scope,
		Source:    SourceAPI,
		TargetUID: targetUID,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// WithTimestamp sets the event instant in epoch milliseconds.
func WithTimestamp(ms int64) EventOption {
	return func(e *Event) { e.Timestamp = ms }
}

// WithTime sets the event instant.
func WithTime(t time.Time) EventOption {
	return func(e *Event) { e.Timestamp = t.UnixMilli() }
}

func WithSource(s Source) EventOption {
	return func(e *Event) {
		if s != "" {
			e.Source = s
		}
	}
}

func WithOwner(owner string) EventOption {
	return func(e *Event) { e.Owner = owner }
}

func WithHostname(host string) EventOption {
	return func(e *Event) { e.Hostname = host }
}

func WithDuration(d time.Duration) EventOption {
	return func(e *Event) { e.Duration = d.Milliseconds() }
}

func WithValue(v string) EventOption {
	return func(e *Event) { e.Value = v }
}

// WithAttribute adds a scope specific attribute.
func WithAttribute(key, value string) EventOption {
	return func(e *Event) {
		if e.Attributes == nil {
			e.Attributes = make(map[string]string)
		}
		e.Attributes[key] = value
	}
}

// Time returns the event instant.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Clone returns a copy that shares no memory with e.
func (e Event) Clone() Event {
	e.Attributes = maps.Clone(e.Attributes)
	return e
}

// Validate checks the fields every trail relies on.
func (e Event) Validate() error {
	switch {
	case e.UID == "":
		return fmt.Errorf("%w: uid is required", ErrInvalidEvent)
	case e.Action == "":
		return fmt.Errorf("%w: action is required", ErrInvalidEvent)
	case e.Scope == "":
		return fmt.Errorf("%w: scope is required", ErrInvalidEvent)
	}
	return nil
}
