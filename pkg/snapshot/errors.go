package snapshot

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/flagkit/pkg/repository"
)

var (
	// ErrUnknownFormat is returned for formats other than yaml and json.
	ErrUnknownFormat = fmt.Errorf("snapshot.unknown_format: %w", repository.ErrInvalidArgument)

	// ErrMalformed is returned when a document does not decode.
	ErrMalformed = fmt.Errorf("snapshot.malformed: %w", repository.ErrInvalidArgument)

	// ErrUnsupportedVersion is returned for documents written by a newer format version.
	ErrUnsupportedVersion = fmt.Errorf("snapshot.unsupported_version: %w", repository.ErrInvalidArgument)

	// ErrSnapshotNotFound is returned when a bucket has no object under the key.
	ErrSnapshotNotFound = fmt.Errorf("snapshot.not_found: %w", repository.ErrNotFound)

	// ErrInvalidConfig is returned by NewS3Bucket when bucket or region is missing.
	ErrInvalidConfig = errors.New("snapshot.invalid_s3_config")
)
