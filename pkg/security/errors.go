package security

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/flagkit/pkg/repository"
)

var (
	// ErrAccessDenied is returned when the current user holds none of the required roles.
	// It matches repository.ErrAccessDenied.
	ErrAccessDenied = fmt.Errorf("security.access_denied: %w", repository.ErrAccessDenied)

	// ErrNoUser is joined with ErrAccessDenied when the context carries no user.
	ErrNoUser = errors.New("security.no_user_in_context")

	// ErrCircularInheritance is returned when the role hierarchy contains a cycle
	// or nests deeper than MaxInheritanceDepth.
	ErrCircularInheritance = errors.New("security.circular_inheritance")
)
