package natsio

import "time"

// Config holds NATS connection settings, read from the environment.
type Config struct {
	URL           string        `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	Name          string        `env:"NATS_CLIENT_NAME" envDefault:"flagkit"`
	MaxReconnects int           `env:"NATS_MAX_RECONNECTS" envDefault:"5"`
	ReconnectWait time.Duration `env:"NATS_RECONNECT_WAIT" envDefault:"2s"`
	Timeout       time.Duration `env:"NATS_TIMEOUT" envDefault:"5s"`

	// Subject is the prefix audit events are published under.
	Subject string `env:"NATS_AUDIT_SUBJECT" envDefault:"flagkit.audit"`
}
