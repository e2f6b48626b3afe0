package config

import "errors"

var (
	// ErrParsingConfig is returned when the environment does not fit the configuration struct.
	ErrParsingConfig = errors.New("config: failed to parse environment")

	// ErrLoadingEnvFile is returned when a .env file cannot be read.
	ErrLoadingEnvFile = errors.New("config: failed to load env file")

	// ErrNilPointer is returned when a nil pointer is passed to Load.
	ErrNilPointer = errors.New("config: nil pointer")
)
