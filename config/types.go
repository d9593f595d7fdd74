package config

const (
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	// DriverNone disables the event archive.
	DriverNone = "none"
)

// StorageConfig selects the state database.
type StorageConfig struct {
	Backend   string `toml:"Backend"`
	CacheMiB  int    `toml:"CacheMiB"`
	OpenFiles int    `toml:"OpenFiles"`
}

// GatewayConfig controls the HTTP API.
type GatewayConfig struct {
	ListenAddress       string  `toml:"ListenAddress"`
	ReadTimeoutSeconds  int     `toml:"ReadTimeoutSeconds"`
	WriteTimeoutSeconds int     `toml:"WriteTimeoutSeconds"`
	RateLimitPerSecond  float64 `toml:"RateLimitPerSecond"`
	RateLimitBurst      int     `toml:"RateLimitBurst"`
	// StreamBuffer is the per-subscriber queue of the websocket event stream.
	StreamBuffer int `toml:"StreamBuffer"`
}

type LoggingConfig struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
	Compress   bool   `toml:"Compress"`
}

// TelemetryConfig mirrors the OTLP exporter settings.
type TelemetryConfig struct {
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Headers     string  `toml:"Headers"`
	Traces      bool    `toml:"Traces"`
	Metrics     bool    `toml:"Metrics"`
	SampleRatio float64 `toml:"SampleRatio"`
}

// IndexerConfig selects the event archive database.
type IndexerConfig struct {
	Driver string `toml:"Driver"`
	DSN    string `toml:"DSN"`
}
