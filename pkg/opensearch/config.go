package opensearch

// Config holds OpenSearch client settings, read from the environment.
type Config struct {
	Addresses    []string `env:"OPENSEARCH_ADDRESSES,required"`
	Username     string   `env:"OPENSEARCH_USERNAME"`
	Password     string   `env:"OPENSEARCH_PASSWORD"`
	MaxRetries   int      `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry bool     `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`

	// AuditIndex is the index holding audit events.
	AuditIndex string `env:"OPENSEARCH_AUDIT_INDEX" envDefault:"flagkit-audit"`
}
