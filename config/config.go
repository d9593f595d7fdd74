package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DataDir     string          `toml:"DataDir"`
	GenesisFile string          `toml:"GenesisFile"`
	Env         string          `toml:"Env"`
	Storage     StorageConfig   `toml:"storage"`
	Gateway     GatewayConfig   `toml:"gateway"`
	Logging     LoggingConfig   `toml:"logging"`
	Telemetry   TelemetryConfig `toml:"telemetry"`
	Indexer     IndexerConfig   `toml:"indexer"`
	Economics   EconomicsConfig `toml:"economics"`
}

// Default returns the configuration written for a fresh node.
func Default() *Config {
	return &Config{
		DataDir: "./vine-data",
		Env:     "local",
		Storage: StorageConfig{Backend: BackendLevelDB, CacheMiB: 64, OpenFiles: 128},
		Gateway: GatewayConfig{
			ListenAddress:       ":8080",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 15,
			RateLimitPerSecond:  20,
			RateLimitBurst:      40,
			StreamBuffer:        64,
		},
		Logging:   LoggingConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 28},
		Telemetry: TelemetryConfig{Endpoint: "localhost:4318", Insecure: true},
		Indexer:   IndexerConfig{Driver: DriverSQLite, DSN: "indexer.db"},
		Economics: DefaultEconomics(),
	}
}

// Load loads the configuration from the given path, writing the defaults
// there first when the file does not exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := persist(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	} else if err != nil {
		return nil, err
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.normalize()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.DataDir = strings.TrimSpace(c.DataDir)
	c.Env = strings.TrimSpace(c.Env)
	if env := strings.TrimSpace(os.Getenv("VINE_ENV")); env != "" {
		c.Env = env
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Indexer.Driver = strings.ToLower(strings.TrimSpace(c.Indexer.Driver))
	c.Gateway.ListenAddress = strings.TrimSpace(c.Gateway.ListenAddress)
	if endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); endpoint != "" {
		c.Telemetry.Endpoint = endpoint
	}
	if headers := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")); headers != "" {
		c.Telemetry.Headers = headers
	}
}

// ResolvePath anchors a relative path under DataDir.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
