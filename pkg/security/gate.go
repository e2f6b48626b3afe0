package security

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// MaxInheritanceDepth bounds role hierarchy nesting.
const MaxInheritanceDepth = 10

// Gate supplies the current user and validates permission checks for the stores.
type Gate interface {
	// CurrentUserName returns the acting user. ok is false in unauthenticated contexts.
	CurrentUserName(ctx context.Context) (name string, ok bool)

	// CurrentUserRoles returns the roles of the acting user, inherited roles included.
	CurrentUserRoles(ctx context.Context) []string

	// Authorize succeeds when required is empty or the user holds at least one of the roles.
	Authorize(ctx context.Context, required ...string) error
}

// ContextGate reads the user from the context (see WithUser) and expands its
// roles through an optional hierarchy. It is immutable after construction and
// safe for concurrent use.
type ContextGate struct {
	// expanded maps a role to itself plus every role it inherits.
	expanded map[string][]string
	sorted   []string
}

// GateOption configures a ContextGate.
type GateOption func(*gateConfig)

type gateConfig struct {
	hierarchy map[string][]string
}

// WithRoleHierarchy declares role inheritance: a user holding role k also holds
// every role listed in hierarchy[k], transitively.
func WithRoleHierarchy(hierarchy map[string][]string) GateOption {
	return func(c *gateConfig) {
		for role, parents := range hierarchy {
			c.hierarchy[role] = slices.Clone(parents)
		}
	}
}

// NewContextGate builds a gate and validates the role hierarchy.
func NewContextGate(opts ...GateOption) (*ContextGate, error) {
	cfg := &gateConfig{hierarchy: make(map[string][]string)}
	for _, opt := range opts {
		opt(cfg)
	}

	for role := range cfg.hierarchy {
		if err := checkCycles(role, cfg.hierarchy, []string{role}); err != nil {
			return nil, err
		}
	}

	expanded := make(map[string][]string, len(cfg.hierarchy))
	for role := range cfg.hierarchy {
		roles, err := expand(role, cfg.hierarchy, 0)
		if err != nil {
			return nil, err
		}
		slices.Sort(roles)
		expanded[role] = slices.Compact(roles)
	}

	return &ContextGate{
		expanded: expanded,
		sorted:   sortByDepth(cfg.hierarchy),
	}, nil
}

func (g *ContextGate) CurrentUserName(ctx context.Context) (string, bool) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return u.Name, true
}

func (g *ContextGate) CurrentUserRoles(ctx context.Context) []string {
	u, ok := UserFromContext(ctx)
	if !ok {
		return nil
	}

	var roles []string
	for _, r := range u.Roles {
		if inherited, ok := g.expanded[r]; ok {
			roles = append(roles, inherited...)
			continue
		}
		roles = append(roles, r)
	}
	slices.Sort(roles)
	return slices.Compact(roles)
}

func (g *ContextGate) Authorize(ctx context.Context, required ...string) error {
	if len(required) == 0 {
		return nil
	}
	if _, ok := UserFromContext(ctx); !ok {
		return errors.Join(ErrAccessDenied, ErrNoUser)
	}

	held := g.CurrentUserRoles(ctx)
	for _, r := range required {
		if _, found := slices.BinarySearch(held, r); found {
			return nil
		}
	}
	return ErrAccessDenied
}

// KnownRoles lists roles declared in the hierarchy, base roles first.
func (g *ContextGate) KnownRoles() []string {
	return slices.Clone(g.sorted)
}

func expand(role string, hierarchy map[string][]string, depth int) ([]string, error) {
	if depth > MaxInheritanceDepth {
		return nil, fmt.Errorf("%w: depth exceeds %d at role %q", ErrCircularInheritance, MaxInheritanceDepth, role)
	}

	out := []string{role}
	for _, parent := range hierarchy[role] {
		inherited, err := expand(parent, hierarchy, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, inherited...)
	}
	return out, nil
}

func checkCycles(role string, hierarchy map[string][]string, path []string) error {
	for _, parent := range hierarchy[role] {
		if slices.Contains(path, parent) {
			return fmt.Errorf("%w: %s -> %s", ErrCircularInheritance, role, parent)
		}
		if err := checkCycles(parent, hierarchy, append(slices.Clone(path), parent)); err != nil {
			return err
		}
	}
	return nil
}

// sortByDepth orders every role mentioned in the hierarchy by inheritance depth,
// then by name.
func sortByDepth(hierarchy map[string][]string) []string {
	depths := make(map[string]int)
	var depth func(string) int
	depth = func(role string) int {
		if d, ok := depths[role]; ok {
			return d
		}
		d := 0
		for _, parent := range hierarchy[role] {
			d = max(d, depth(parent)+1)
		}
		depths[role] = d
		return d
	}

	for role, parents := range hierarchy {
		depth(role)
		for _, p := range parents {
			depth(p)
		}
	}

	roles := slices.Collect(maps.Keys(depths))
	slices.SortFunc(roles, func(a, b string) int {
		if depths[a] != depths[b] {
			return depths[a] - depths[b]
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return roles
}
