package repository

import "errors"

// Error kinds shared by every store. Callers branch on them with errors.Is.
var (
	// ErrNotFound is returned when an entity, feature or group is absent.
	ErrNotFound = errors.New("repository.not_found")

	// ErrAlreadyExists is returned when creating an entity whose uid is taken.
	ErrAlreadyExists = errors.New("repository.already_exists")

	// ErrInvalidArgument is returned for blank identifiers and malformed input,
	// always before storage is touched.
	ErrInvalidArgument = errors.New("repository.invalid_argument")

	// ErrAccessDenied is returned when the authorization gate rejects an operation.
	ErrAccessDenied = errors.New("repository.access_denied")

	// ErrStoreUnavailable wraps storage adapter I/O failures.
	ErrStoreUnavailable = errors.New("repository.store_unavailable")

	// ErrListener is returned when one or more listeners fail after the
	// mutation has been committed. The mutation is not rolled back.
	ErrListener = errors.New("repository.listener_failed")
)

// Unavailable wraps an adapter failure with ErrStoreUnavailable,
// leaving nil and already classified errors untouched.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}
