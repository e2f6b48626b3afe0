package binder

import (
	"fmt"

	"github.com/dmitrymomot/flagkit/pkg/repository"
)

// Binding errors. All of them match repository.ErrInvalidArgument.
var (
	ErrUnsupportedMediaType = fmt.Errorf("binder.unsupported_media_type: %w", repository.ErrInvalidArgument)
	ErrMissingContentType   = fmt.Errorf("binder.missing_content_type: %w", repository.ErrInvalidArgument)
	ErrFailedToParseJSON    = fmt.Errorf("binder.invalid_json: %w", repository.ErrInvalidArgument)
	ErrFailedToParseQuery   = fmt.Errorf("binder.invalid_query: %w", repository.ErrInvalidArgument)
	ErrFailedToParsePath    = fmt.Errorf("binder.invalid_path: %w", repository.ErrInvalidArgument)
)
