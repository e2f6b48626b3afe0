package audit

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/flagkit/pkg/repository"
)

var (
	// ErrTrailClosed is returned when logging to a closed AsyncTrail.
	ErrTrailClosed = errors.New("audit.trail_closed")

	// ErrInvalidEvent indicates an event without uid, action or scope.
	ErrInvalidEvent = fmt.Errorf("audit.invalid_event: %w", repository.ErrInvalidArgument)

	// ErrInvalidQuery indicates inverted bounds or a negative limit.
	ErrInvalidQuery = fmt.Errorf("audit.invalid_query: %w", repository.ErrInvalidArgument)
)
