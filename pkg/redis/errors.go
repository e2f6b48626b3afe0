package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	ErrFailedToParseRedisConnString = errors.New("redis: failed to parse connection string")
	ErrRedisNotReady                = errors.New("redis: server did not become ready")
	ErrEmptyConnectionURL           = errors.New("redis: empty connection URL, set REDIS_URL")
	ErrHealthcheckFailed            = errors.New("redis: healthcheck failed")
)

// IsNil reports whether err is the reply for a missing key or field.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
