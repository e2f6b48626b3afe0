package main

import "time"

// Backend names accepted by FLAGKIT_FEATURE_BACKEND and FLAGKIT_TRAIL_BACKEND.
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendRedis      = "redis"
	BackendMongo      = "mongo"
	BackendOpenSearch = "opensearch"
)

// AppConfig selects the backends and optional parts of the server.
// Connection settings live in each adapter's own Config.
type AppConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_SERVICE" envDefault:"flagkit"`

	FeatureBackend string `env:"FLAGKIT_FEATURE_BACKEND" envDefault:"memory"` // memory, postgres or redis
	TrailBackend   string `env:"FLAGKIT_TRAIL_BACKEND" envDefault:"memory"`   // memory, postgres, mongo or opensearch

	CacheSize int           `env:"FLAGKIT_CACHE_SIZE" envDefault:"1024"`
	CacheTTL  time.Duration `env:"FLAGKIT_CACHE_TTL" envDefault:"0s"`

	AuditAsync        bool          `env:"FLAGKIT_AUDIT_ASYNC" envDefault:"true"`
	AuditBatchSize    int           `env:"FLAGKIT_AUDIT_BATCH_SIZE" envDefault:"100"`
	AuditBatchTimeout time.Duration `env:"FLAGKIT_AUDIT_BATCH_TIMEOUT" envDefault:"100ms"`

	// NATSEnabled publishes audit events and invalidates caches on events
	// from other instances.
	NATSEnabled bool `env:"FLAGKIT_NATS_ENABLED" envDefault:"false"`

	// SnapshotFile is imported at startup when set.
	SnapshotFile string `env:"FLAGKIT_SNAPSHOT_FILE"`
	// SnapshotKey is an object key in the S3 snapshot bucket, imported at
	// startup and rewritten every SnapshotInterval when the interval is set.
	SnapshotKey      string        `env:"FLAGKIT_SNAPSHOT_S3_KEY"`
	SnapshotInterval time.Duration `env:"FLAGKIT_SNAPSHOT_INTERVAL" envDefault:"0s"`

	// RoleHierarchy declares inherited roles, e.g. "ADMIN:EDITOR|VIEWER,EDITOR:VIEWER".
	RoleHierarchy map[string]string `env:"FLAGKIT_ROLE_HIERARCHY"`

	UserHeader  string `env:"FLAGKIT_USER_HEADER" envDefault:"X-Flagkit-User"`
	RolesHeader string `env:"FLAGKIT_ROLES_HEADER" envDefault:"X-Flagkit-Roles"`

	ShutdownTimeout time.Duration `env:"FLAGKIT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}
