package feature

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/flagkit/pkg/repository"
)

var (
	// ErrFeatureNotFound indicates that the requested feature does not exist.
	// It matches repository.ErrNotFound.
	ErrFeatureNotFound = fmt.Errorf("feature.not_found: %w", repository.ErrNotFound)

	// ErrGroupNotFound indicates that a group has no member features.
	// It matches repository.ErrNotFound.
	ErrGroupNotFound = fmt.Errorf("feature.group_not_found: %w", repository.ErrNotFound)

	// ErrNotInGroup indicates that a feature is not a member of the named group.
	ErrNotInGroup = fmt.Errorf("feature.not_in_group: %w", repository.ErrInvalidArgument)

	// ErrInvalidFeature indicates that the provided feature is nil or malformed.
	ErrInvalidFeature = fmt.Errorf("feature.invalid: %w", repository.ErrInvalidArgument)

	// ErrInvalidStrategy indicates an issue with the strategy configuration.
	ErrInvalidStrategy = errors.New("feature.invalid_strategy")
)
