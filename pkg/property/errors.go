package property

import (
	"fmt"

	"github.com/dmitrymomot/flagkit/pkg/repository"
)

var (
	// ErrPropertyNotFound indicates that the requested property does not exist.
	ErrPropertyNotFound = fmt.Errorf("property.not_found: %w", repository.ErrNotFound)

	// ErrInvalidProperty indicates a nil property or a value that does not parse for its kind.
	ErrInvalidProperty = fmt.Errorf("property.invalid: %w", repository.ErrInvalidArgument)

	// ErrNotAllowed indicates a value outside the fixed value set.
	ErrNotAllowed = fmt.Errorf("property.value_not_allowed: %w", repository.ErrInvalidArgument)

	// ErrKindMismatch is returned by typed getters called on another kind.
	ErrKindMismatch = fmt.Errorf("property.kind_mismatch: %w", repository.ErrInvalidArgument)
)
