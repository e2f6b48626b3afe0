package redis

import "time"

// Config holds Redis connection settings, read from the environment.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required"` // redis://:password@localhost:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"` // multiplied by the attempt number
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	// KeyPrefix namespaces every key written by the stores.
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"flagkit"`
}
