package config

import (
	"fmt"
	"math/big"
	"strings"
)

// EconomicsConfig holds the protocol amounts as decimal strings so values
// beyond 64 bits survive the TOML round trip.
type EconomicsConfig struct {
	CreatorAssetDeposit string `toml:"CreatorAssetDeposit"`
	ExistenceUnits      uint64 `toml:"ExistenceUnits"`
	CreationReward      string `toml:"CreationReward"`
	ViewerReward        string `toml:"ViewerReward"`
	CreatorViewReward   string `toml:"CreatorViewReward"`
	MaxMetadataBytes    int    `toml:"MaxMetadataBytes"`
}

// Economics is the parsed form of EconomicsConfig.
type Economics struct {
	CreatorAssetDeposit *big.Int
	ExistenceUnits      uint64
	CreationReward      *big.Int
	ViewerReward        *big.Int
	CreatorViewReward   *big.Int
	MaxMetadataBytes    int
}

func DefaultEconomics() EconomicsConfig {
	return EconomicsConfig{
		CreatorAssetDeposit: "1000000",
		ExistenceUnits:      2,
		CreationReward:      "100",
		ViewerReward:        "10",
		CreatorViewReward:   "5",
		MaxMetadataBytes:    4096,
	}
}

// Parse converts the configured strings into runtime values.
func (e EconomicsConfig) Parse() (Economics, error) {
	out := Economics{ExistenceUnits: e.ExistenceUnits, MaxMetadataBytes: e.MaxMetadataBytes}
	fields := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"CreatorAssetDeposit", e.CreatorAssetDeposit, &out.CreatorAssetDeposit},
		{"CreationReward", e.CreationReward, &out.CreationReward},
		{"ViewerReward", e.ViewerReward, &out.ViewerReward},
		{"CreatorViewReward", e.CreatorViewReward, &out.CreatorViewReward},
	}
	for _, f := range fields {
		amount, err := ParseAmount(f.raw)
		if err != nil {
			return Economics{}, fmt.Errorf("invalid economics.%s: %w", f.name, err)
		}
		*f.dst = amount
	}
	return out, nil
}

// ParseAmount parses a non-negative base-10 integer. Underscores are allowed
// as digit separators.
func ParseAmount(raw string) (*big.Int, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(raw), "_", "")
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%q must not be negative", raw)
	}
	return value, nil
}
