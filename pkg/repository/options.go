package repository

import (
	"log/slog"
	"time"
)

// Option configures a Repository.
type Option func(*options)

type options struct {
	now func() time.Time
	log *slog.Logger
}

// WithClock overrides the time source used to stamp entity dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used to report listener failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
