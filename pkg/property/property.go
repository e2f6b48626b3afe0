package property

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/entity"
)

// Kind names the value type of a property.
type Kind string

const (
	KindString   Kind = "string"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindBool     Kind = "bool"
	KindDuration Kind = "duration"
	KindDate     Kind = "date"
	KindLogLevel Kind = "log_level"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindString, KindInt, KindFloat, KindBool, KindDuration, KindDate, KindLogLevel}

// DateLayout is the short layout accepted for KindDate besides RFC3339.
const DateLayout = "2006-01-02"

// Property is a named, typed configuration value stored as text.
type Property struct {
	entity.Base `yaml:",inline"`

	Kind  Kind   `json:"kind" yaml:"kind"`
	Value string `json:"value" yaml:"value"`

	// FixedValues restricts Value when non-empty.
	FixedValues []string `json:"fixed_values,omitempty" yaml:"fixed_values,omitempty"`
}

// New returns a property of the given kind. An empty kind means KindString.
func New(uid string, kind Kind, value string, fixed ...string) *Property {
	if kind == "" {
		kind = KindString
	}
	return &Property{
		Base:        entity.Base{UID: uid},
		Kind:        kind,
		Value:       value,
		FixedValues: fixed,
	}
}

// Clone returns a deep copy.
func (p *Property) Clone() *Property {
	c := *p
	c.FixedValues = slices.Clone(p.FixedValues)
	return &c
}

// Validate checks the kind, that Value and every fixed value parse, and that
// Value belongs to FixedValues when the set is not empty.
func (p *Property) Validate() error {
	if p == nil {
		return ErrInvalidProperty
	}
	if !slices.Contains(Kinds, p.kind()) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidProperty, p.Kind)
	}
	if err := parse(p.kind(), p.Value); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidProperty, p.UID, err)
	}
	for _, v := range p.FixedValues {
		if err := parse(p.kind(), v); err != nil {
			return fmt.Errorf("%w: fixed value %q: %w", ErrInvalidProperty, v, err)
		}
	}
	if len(p.FixedValues) > 0 && !slices.Contains(p.FixedValues, p.Value) {
		return fmt.Errorf("%w: %q not in %v", ErrNotAllowed, p.Value, p.FixedValues)
	}
	return nil
}

func (p *Property) kind() Kind {
	if p.Kind == "" {
		return KindString
	}
	return p.Kind
}

func (p *Property) Int() (int64, error) {
	if err := p.expect(KindInt); err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(p.Value), 10, 64)
}

func (p *Property) Float() (float64, error) {
	if err := p.expect(KindFloat); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
}

func (p *Property) Bool() (bool, error) {
	if err := p.expect(KindBool); err != nil {
		return false, err
	}
	return strconv.ParseBool(strings.TrimSpace(p.Value))
}

func (p *Property) Duration() (time.Duration, error) {
	if err := p.expect(KindDuration); err != nil {
		return 0, err
	}
	return time.ParseDuration(strings.TrimSpace(p.Value))
}

// Time parses a date property, RFC3339 first then DateLayout in UTC.
func (p *Property) Time() (time.Time, error) {
	if err := p.expect(KindDate); err != nil {
		return time.Time{}, err
	}
	return parseDate(p.Value)
}

// Level parses a log level property (DEBUG, INFO, WARN, ERROR, with offsets like INFO+2).
func (p *Property) Level() (slog.Level, error) {
	if err := p.expect(KindLogLevel); err != nil {
		return 0, err
	}
	var l slog.Level
	err := l.UnmarshalText([]byte(strings.TrimSpace(p.Value)))
	return l, err
}

func (p *Property) expect(k Kind) error {
	if p.kind() != k {
		return fmt.Errorf("%w: %s is %s, not %s", ErrKindMismatch, p.UID, p.kind(), k)
	}
	return nil
}

func parse(k Kind, v string) error {
	v = strings.TrimSpace(v)
	var err error
	switch k {
	case KindString:
	case KindInt:
		_, err = strconv.ParseInt(v, 10, 64)
	case KindFloat:
		_, err = strconv.ParseFloat(v, 64)
	case KindBool:
		_, err = strconv.ParseBool(v)
	case KindDuration:
		_, err = time.ParseDuration(v)
	case KindDate:
		_, err = parseDate(v)
	case KindLogLevel:
		var l slog.Level
		err = l.UnmarshalText([]byte(v))
	}
	return err
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(DateLayout, v)
}
