package feature

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"time"
)

// AlwaysStrategy is a strategy that always returns the same value.
type AlwaysStrategy struct {
	Value bool
}

func (s *AlwaysStrategy) Evaluate(ctx context.Context) (bool, error) {
	return s.Value, nil
}

func NewAlwaysOnStrategy() Strategy {
	return &AlwaysStrategy{Value: true}
}

func NewAlwaysOffStrategy() Strategy {
	return &AlwaysStrategy{Value: false}
}

// TargetedStrategy enables features for specific users, groups, or percentages.
type TargetedStrategy struct {
	Criteria TargetCriteria

	userIDExtractor     UserIDExtractor
	userGroupsExtractor UserGroupsExtractor
}

// Evaluate applies, in order: deny list, allow list, user ids, groups, percentage.
func (s *TargetedStrategy) Evaluate(ctx context.Context) (bool, error) {
	if s.isEmptyCriteria() {
		return false, ErrInvalidStrategy
	}

	var userID string
	if s.userIDExtractor != nil {
		userID = s.userIDExtractor(ctx)
	}

	if s.isInDenyList(userID) {
		return false, nil
	}
	if s.isInAllowList(userID) || s.isTargetedUser(userID) || s.isInTargetedGroup(ctx) {
		return true, nil
	}
	if s.Criteria.Percentage != nil {
		return evaluatePercentage(*s.Criteria.Percentage, userID)
	}
	return false, nil
}

func (s *TargetedStrategy) isEmptyCriteria() bool {
	return s.Criteria.UserIDs == nil && s.Criteria.Groups == nil &&
		s.Criteria.Percentage == nil && s.Criteria.AllowList == nil &&
		s.Criteria.DenyList == nil
}

// isInDenyList fails safe: an unknown user is denied when a deny list exists.
func (s *TargetedStrategy) isInDenyList(userID string) bool {
	if len(s.Criteria.DenyList) == 0 {
		return false
	}
	if userID == "" {
		return true
	}
	return slices.Contains(s.Criteria.DenyList, userID)
}

func (s *TargetedStrategy) isInAllowList(userID string) bool {
	return userID != "" && slices.Contains(s.Criteria.AllowList, userID)
}

func (s *TargetedStrategy) isTargetedUser(userID string) bool {
	return userID != "" && slices.Contains(s.Criteria.UserIDs, userID)
}

func (s *TargetedStrategy) isInTargetedGroup(ctx context.Context) bool {
	if len(s.Criteria.Groups) == 0 || s.userGroupsExtractor == nil {
		return false
	}
	for _, g := range s.userGroupsExtractor(ctx) {
		if slices.Contains(s.Criteria.Groups, g) {
			return true
		}
	}
	return false
}

// evaluatePercentage buckets the user deterministically with FNV-1a so a user
// keeps the same answer across calls and processes.
func evaluatePercentage(percentage int, userID string) (bool, error) {
	if percentage < 0 || percentage > 100 {
		return false, errors.Join(ErrInvalidStrategy,
			errors.New("percentage must be between 0 and 100"))
	}
	switch {
	case percentage == 0:
		return false, nil
	case percentage == 100:
		return true, nil
	case userID == "":
		return false, nil
	}

	hash := fnv.New32a()
	hash.Write([]byte(userID))
	return int(hash.Sum32()%100) < percentage, nil
}

// TargetedStrategyOption is a function that configures a TargetedStrategy.
type TargetedStrategyOption func(*TargetedStrategy)

func WithUserIDExtractor(extractor UserIDExtractor) TargetedStrategyOption {
	return func(s *TargetedStrategy) {
		s.userIDExtractor = extractor
	}
}

func WithUserGroupsExtractor(extractor UserGroupsExtractor) TargetedStrategyOption {
	return func(s *TargetedStrategy) {
		s.userGroupsExtractor = extractor
	}
}

// NewTargetedStrategy creates a strategy based on targeting criteria.
func NewTargetedStrategy(criteria TargetCriteria, opts ...TargetedStrategyOption) Strategy {
	s := &TargetedStrategy{Criteria: criteria}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BlacklistStrategy enables the feature for everyone except the listed users.
type BlacklistStrategy struct {
	Users []string

	userIDExtractor UserIDExtractor
}

func (s *BlacklistStrategy) Evaluate(ctx context.Context) (bool, error) {
	if s.userIDExtractor == nil {
		return true, nil
	}
	return !slices.Contains(s.Users, s.userIDExtractor(ctx)), nil
}

// NewBlacklistStrategy creates a strategy denying the listed users.
func NewBlacklistStrategy(users []string, extractor UserIDExtractor) Strategy {
	return &BlacklistStrategy{Users: users, userIDExtractor: extractor}
}

// PonderationStrategy enables the feature for a random share of executions.
// Weight is the probability in [0, 1].
type PonderationStrategy struct {
	Weight float64

	random func() float64
}

func (s *PonderationStrategy) Evaluate(ctx context.Context) (bool, error) {
	if s.Weight < 0 || s.Weight > 1 {
		return false, errors.Join(ErrInvalidStrategy, errors.New("weight must be between 0 and 1"))
	}
	random := s.random
	if random == nil {
		random = rand.Float64
	}
	return random() < s.Weight, nil
}

// NewPonderationStrategy creates a weighted random strategy.
func NewPonderationStrategy(weight float64) Strategy {
	return &PonderationStrategy{Weight: weight}
}

// EnvironmentStrategy enables features based on the environment.
type EnvironmentStrategy struct {
	EnabledEnvironments []string

	environmentExtractor EnvironmentExtractor
}

func (s *EnvironmentStrategy) Evaluate(ctx context.Context) (bool, error) {
	if len(s.EnabledEnvironments) == 0 {
		return false, ErrInvalidStrategy
	}
	if s.environmentExtractor == nil {
		return false, nil
	}
	env := s.environmentExtractor(ctx)
	return env != "" && slices.Contains(s.EnabledEnvironments, env), nil
}

// EnvironmentStrategyOption is a function that configures an EnvironmentStrategy.
type EnvironmentStrategyOption func(*EnvironmentStrategy)

func WithEnvironmentExtractor(extractor EnvironmentExtractor) EnvironmentStrategyOption {
	return func(s *EnvironmentStrategy) {
		s.environmentExtractor = extractor
	}
}

// NewEnvironmentStrategy creates a strategy that enables features in specific environments.
func NewEnvironmentStrategy(environments []string, opts ...EnvironmentStrategyOption) Strategy {
	s := &EnvironmentStrategy{EnabledEnvironments: environments}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServerStrategy enables the feature only on the listed hosts.
type ServerStrategy struct {
	Hosts []string

	hostname func() string
}

func (s *ServerStrategy) Evaluate(ctx context.Context) (bool, error) {
	if len(s.Hosts) == 0 {
		return false, ErrInvalidStrategy
	}
	if s.hostname == nil {
		return false, nil
	}
	return slices.Contains(s.Hosts, s.hostname()), nil
}

// NewServerStrategy creates a strategy matching the local hostname.
func NewServerStrategy(hosts []string, hostname func() string) Strategy {
	return &ServerStrategy{Hosts: hosts, hostname: hostname}
}

// ReleaseDateStrategy enables the feature from a given instant on.
type ReleaseDateStrategy struct {
	ReleaseDate time.Time

	now func() time.Time
}

func (s *ReleaseDateStrategy) Evaluate(ctx context.Context) (bool, error) {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return !now().Before(s.ReleaseDate), nil
}

// NewReleaseDateStrategy creates a strategy active from date on.
func NewReleaseDateStrategy(date time.Time) Strategy {
	return &ReleaseDateStrategy{ReleaseDate: date}
}

// CompositeStrategy combines multiple strategies with an operator.
type CompositeStrategy struct {
	Strategies []Strategy
	Operator   string // "and" or "or"
}

func (s *CompositeStrategy) Evaluate(ctx context.Context) (bool, error) {
	if len(s.Strategies) == 0 {
		return false, ErrInvalidStrategy
	}

	switch s.Operator {
	case "and":
		for _, strategy := range s.Strategies {
			enabled, err := strategy.Evaluate(ctx)
			if err != nil || !enabled {
				return false, err
			}
		}
		return true, nil

	case "or":
		for _, strategy := range s.Strategies {
			enabled, err := strategy.Evaluate(ctx)
			if err != nil {
				return false, err
			}
			if enabled {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, errors.Join(ErrInvalidStrategy,
			errors.New("composite operator must be 'and' or 'or'"))
	}
}

func NewAndStrategy(strategies ...Strategy) Strategy {
	return &CompositeStrategy{Strategies: strategies, Operator: "and"}
}

func NewOrStrategy(strategies ...Strategy) Strategy {
	return &CompositeStrategy{Strategies: strategies, Operator: "or"}
}
