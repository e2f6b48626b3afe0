package feature

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrymomot/flagkit/pkg/entity"
)

// Feature is a named toggle with optional group membership, role
// restrictions and an evaluation strategy.
type Feature struct {
	entity.Base `yaml:",inline"`

	Enabled bool `json:"enabled" yaml:"enabled"`

	// Group is the name of the single group the feature belongs to, if any.
	Group string `json:"group,omitempty" yaml:"group,omitempty"`

	// Permissions lists roles allowed to use the feature when access control is active.
	// Kept sorted and free of duplicates.
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`

	Strategy *StrategySpec `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// CustomProperties carries free-form settings attached to the feature.
	CustomProperties map[string]string `json:"custom_properties,omitempty" yaml:"custom_properties,omitempty"`
}

// StrategySpec is the persisted form of an evaluation strategy:
// a registered type name and its string parameters.
type StrategySpec struct {
	Type   string            `json:"type" yaml:"type"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// New returns a feature with the given uid and state.
func New(uid string, enabled bool) *Feature {
	return &Feature{Base: entity.Base{UID: uid}, Enabled: enabled}
}

// Clone returns a deep copy.
func (f *Feature) Clone() *Feature {
	c := *f
	c.Permissions = slices.Clone(f.Permissions)
	c.CustomProperties = maps.Clone(f.CustomProperties)
	if f.Strategy != nil {
		s := *f.Strategy
		s.Params = maps.Clone(f.Strategy.Params)
		c.Strategy = &s
	}
	return &c
}

// HasPermission reports whether role is in the permission set.
func (f *Feature) HasPermission(role string) bool {
	_, found := slices.BinarySearch(f.Permissions, role)
	return found
}

// normalize trims group and permissions and sorts the permission set.
func (f *Feature) normalize() {
	f.Group = strings.TrimSpace(f.Group)
	perms := make([]string, 0, len(f.Permissions))
	for _, p := range f.Permissions {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	slices.Sort(perms)
	f.Permissions = slices.Compact(perms)
	if len(f.Permissions) == 0 {
		f.Permissions = nil
	}
}

// Strategy decides whether an enabled feature is active for a given context.
type Strategy interface {
	// Evaluate determines if the feature should be active for the context.
	// The context carries the data the strategy needs (user, groups, environment).
	Evaluate(ctx context.Context) (bool, error)
}

// TargetCriteria defines targeting criteria for TargetedStrategy.
type TargetCriteria struct {
	UserIDs    []string `json:"user_ids,omitempty"`
	Groups     []string `json:"groups,omitempty"`
	Percentage *int     `json:"percentage,omitempty"`
	// AllowList always takes precedence over other criteria except DenyList
	AllowList []string `json:"allow_list,omitempty"`
	// DenyList always takes precedence over all other criteria
	DenyList []string `json:"deny_list,omitempty"`
}

// Extractor function types used by strategies to read evaluation data from context.
type (
	UserIDExtractor      func(ctx context.Context) string
	UserGroupsExtractor  func(ctx context.Context) []string
	EnvironmentExtractor func(ctx context.Context) string
)
