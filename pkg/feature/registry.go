package feature

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Strategy type names understood by DefaultRegistry.
const (
	StrategyAlways      = "always"
	StrategyPonderation = "ponderation"
	StrategyPercentage  = "percentage"
	StrategyWhitelist   = "whitelist"
	StrategyBlacklist   = "blacklist"
	StrategyTargeted    = "targeted"
	StrategyEnvironment = "environment"
	StrategyServer      = "server"
	StrategyReleaseDate = "releaseDate"
)

// Factory builds a strategy from its persisted parameters.
type Factory func(params map[string]string, ex Extractors) (Strategy, error)

// Registry maps strategy type names to factories.
// Populate it at startup; it is not safe for concurrent registration.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry holding every built-in strategy.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(StrategyAlways, newAlways)
	r.Register(StrategyPonderation, newPonderation)
	r.Register(StrategyPercentage, newPercentage)
	r.Register(StrategyWhitelist, newWhitelist)
	r.Register(StrategyBlacklist, newBlacklist)
	r.Register(StrategyTargeted, newTargeted)
	r.Register(StrategyEnvironment, newEnvironment)
	r.Register(StrategyServer, newServer)
	r.Register(StrategyReleaseDate, newReleaseDate)
	return r
}

// Register adds or replaces the factory for name.
// It panics on an empty name or nil factory.
func (r *Registry) Register(name string, f Factory) {
	if name == "" || f == nil {
		panic("feature: strategy name and factory are required")
	}
	r.factories[name] = f
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Names returns registered strategy names in lexical order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.factories))
}

// Build instantiates the strategy described by spec.
func (r *Registry) Build(spec *StrategySpec, ex Extractors) (Strategy, error) {
	if spec == nil {
		return nil, ErrInvalidStrategy
	}
	f, ok := r.factories[spec.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidStrategy, spec.Type)
	}
	s, err := f(spec.Params, ex.withDefaults())
	if err != nil {
		return nil, errors.Join(ErrInvalidStrategy, fmt.Errorf("%s: %w", spec.Type, err))
	}
	return s, nil
}

func newAlways(params map[string]string, _ Extractors) (Strategy, error) {
	value := true
	if raw, ok := params["value"]; ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		value = v
	}
	return &AlwaysStrategy{Value: value}, nil
}

func newPonderation(params map[string]string, _ Extractors) (Strategy, error) {
	w, err := strconv.ParseFloat(params["weight"], 64)
	if err != nil {
		return nil, fmt.Errorf("weight: %w", err)
	}
	if w < 0 || w > 1 {
		return nil, errors.New("weight must be between 0 and 1")
	}
	return NewPonderationStrategy(w), nil
}

func newPercentage(params map[string]string, ex Extractors) (Strategy, error) {
	p, err := parsePercent(params["percent"])
	if err != nil {
		return nil, err
	}
	return NewTargetedStrategy(TargetCriteria{Percentage: &p}, WithUserIDExtractor(ex.UserID)), nil
}

func newWhitelist(params map[string]string, ex Extractors) (Strategy, error) {
	users := splitList(params["users"])
	if len(users) == 0 {
		return nil, errors.New("users is required")
	}
	return NewTargetedStrategy(TargetCriteria{UserIDs: users}, WithUserIDExtractor(ex.UserID)), nil
}

func newBlacklist(params map[string]string, ex Extractors) (Strategy, error) {
	return NewBlacklistStrategy(splitList(params["users"]), ex.UserID), nil
}

func newTargeted(params map[string]string, ex Extractors) (Strategy, error) {
	c := TargetCriteria{
		UserIDs:   splitList(params["users"]),
		Groups:    splitList(params["groups"]),
		AllowList: splitList(params["allow"]),
		DenyList:  splitList(params["deny"]),
	}
	if raw, ok := params["percent"]; ok {
		p, err := parsePercent(raw)
		if err != nil {
			return nil, err
		}
		c.Percentage = &p
	}
	return NewTargetedStrategy(c,
		WithUserIDExtractor(ex.UserID),
		WithUserGroupsExtractor(ex.UserGroups),
	), nil
}

func newEnvironment(params map[string]string, ex Extractors) (Strategy, error) {
	envs := splitList(params["environments"])
	if len(envs) == 0 {
		return nil, errors.New("environments is required")
	}
	return NewEnvironmentStrategy(envs, WithEnvironmentExtractor(ex.Environment)), nil
}

func newServer(params map[string]string, ex Extractors) (Strategy, error) {
	hosts := splitList(params["hosts"])
	if len(hosts) == 0 {
		return nil, errors.New("hosts is required")
	}
	return NewServerStrategy(hosts, ex.Hostname), nil
}

func newReleaseDate(params map[string]string, ex Extractors) (Strategy, error) {
	date, err := time.Parse(time.RFC3339, params["date"])
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	return &ReleaseDateStrategy{ReleaseDate: date, now: ex.Now}, nil
}

func parsePercent(raw string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("percent: %w", err)
	}
	if p < 0 || p > 100 {
		return 0, errors.New("percent must be between 0 and 100")
	}
	return p, nil
}

// splitList parses a comma separated parameter, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for item := range strings.SplitSeq(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
