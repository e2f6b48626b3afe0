package usage

import (
	"fmt"

	"github.com/dmitrymomot/flagkit/pkg/repository"
)

var (
	// ErrInvalidUnit indicates an unknown chart unit.
	ErrInvalidUnit = fmt.Errorf("usage.invalid_unit: %w", repository.ErrInvalidArgument)

	// ErrTooManyBuckets indicates a window too wide for the chart unit.
	ErrTooManyBuckets = fmt.Errorf("usage.too_many_buckets: %w", repository.ErrInvalidArgument)

	// ErrWindowOutOfRange indicates a chart bound outside years 1 through 9999.
	ErrWindowOutOfRange = fmt.Errorf("usage.window_out_of_range: %w", repository.ErrInvalidArgument)
)
