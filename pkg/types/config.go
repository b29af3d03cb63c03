package types

import "time"

// HTTPConfig holds shared HTTP settings for components that call the network.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "market-pipeline/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds settings for the OpenAlex source client.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent as the mailto parameter for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// RequestsPerSecond caps the request rate against the API (default 10,
	// the polite pool limit).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// MaxRetries is the number of retry attempts on 429/5xx responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FetchConfig holds settings for the paginated fetch stage.
type FetchConfig struct {
	// Days is the lookback window: papers published in [now-Days, now].
	Days int `json:"days" yaml:"days"`

	// PageSize is the per-page record count (provider ceiling 200).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxPages bounds the pagination loop to cap API cost (default 50).
	// Pages past the ceiling are never requested and the fetch is marked
	// truncated.
	MaxPages int `json:"max_pages" yaml:"max_pages"`
}

// StoreConfig holds settings for the papers store.
type StoreConfig struct {
	// DSN selects the database: a postgres:// URL opens PostgreSQL,
	// anything else is treated as a SQLite file path.
	DSN string `json:"dsn" yaml:"dsn"`

	// BatchSize is the number of records committed per transaction (default 100).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// ArtifactConfig holds the file locations the pipeline writes to.
type ArtifactConfig struct {
	// StagingDir receives the pre-persistence backup snapshot (default "temp").
	StagingDir string `json:"staging_dir" yaml:"staging_dir"`

	// ReportsDir receives quality report files (default "reports").
	ReportsDir string `json:"reports_dir" yaml:"reports_dir"`

	// BackupFormat is the snapshot serialization: "json" or "yaml".
	BackupFormat string `json:"backup_format" yaml:"backup_format"`
}
