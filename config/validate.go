package config

import (
	"fmt"
	"net"
)

// Validate checks cross-field constraints that decoding cannot express.
func Validate(c *Config) error {
	if c == nil {
		return fmt.Errorf("configuration is missing")
	}
	switch c.Storage.Backend {
	case BackendLevelDB:
		if c.DataDir == "" {
			return fmt.Errorf("storage: DataDir required for leveldb backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
	if _, _, err := net.SplitHostPort(c.Gateway.ListenAddress); err != nil {
		return fmt.Errorf("gateway: invalid ListenAddress %q: %w", c.Gateway.ListenAddress, err)
	}
	if c.Gateway.RateLimitPerSecond < 0 || c.Gateway.RateLimitBurst < 0 {
		return fmt.Errorf("gateway: rate limits must not be negative")
	}
	if c.Gateway.RateLimitPerSecond > 0 && c.Gateway.RateLimitBurst == 0 {
		return fmt.Errorf("gateway: RateLimitBurst must be positive when RateLimitPerSecond is set")
	}
	switch c.Indexer.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Indexer.DSN == "" {
			return fmt.Errorf("indexer: DSN required for driver %q", c.Indexer.Driver)
		}
	case DriverNone, "":
	default:
		return fmt.Errorf("indexer: unknown driver %q", c.Indexer.Driver)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio must be within [0,1]")
	}

	econ, err := c.Economics.Parse()
	if err != nil {
		return err
	}
	if econ.CreatorAssetDeposit.Sign() == 0 {
		return fmt.Errorf("economics: CreatorAssetDeposit must be positive")
	}
	if econ.ExistenceUnits == 0 {
		return fmt.Errorf("economics: ExistenceUnits must be at least 1")
	}
	if econ.ViewerReward.Sign() == 0 && econ.CreatorViewReward.Sign() == 0 {
		return fmt.Errorf("economics: at least one view reward must be positive")
	}
	if econ.MaxMetadataBytes < 0 {
		return fmt.Errorf("economics: MaxMetadataBytes must not be negative")
	}
	return nil
}
