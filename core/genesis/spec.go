package genesis

import (
	"bytes"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"vinechain/config"
	"vinechain/crypto"
)

// Spec is the YAML document describing the initial state of a network.
type Spec struct {
	GenesisTime    string            `yaml:"genesisTime"`
	RewardsReserve string            `yaml:"rewardsReserve"`
	Alloc          map[string]string `yaml:"alloc"`
	Users          []UserSpec        `yaml:"users"`

	genesisTimestamp time.Time
	alloc            map[[20]byte]*big.Int
	rewards          *big.Int
}

// UserSpec pre-registers a profile at genesis.
type UserSpec struct {
	Address      string `yaml:"address"`
	Name         string `yaml:"name"`
	ProfileImage string `yaml:"profileImage"`

	account [20]byte
}

// LoadSpec reads and validates a genesis file. Unknown fields are rejected.
func LoadSpec(path string) (*Spec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	return ParseSpec(raw)
}

// ParseSpec decodes and validates a genesis document.
func ParseSpec(raw []byte) (*Spec, error) {
	var spec Spec
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode genesis spec: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (s *Spec) validate() error {
	ts, err := parseGenesisTime(s.GenesisTime)
	if err != nil {
		return err
	}
	s.genesisTimestamp = ts

	rewards, err := config.ParseAmount(s.RewardsReserve)
	if err != nil {
		return fmt.Errorf("rewardsReserve: %w", err)
	}
	s.rewards = rewards

	s.alloc = make(map[[20]byte]*big.Int, len(s.Alloc))
	for addr, amount := range s.Alloc {
		account, err := crypto.ParseAccount(strings.TrimSpace(addr))
		if err != nil {
			return fmt.Errorf("alloc %q: %w", addr, err)
		}
		if _, dup := s.alloc[account]; dup {
			return fmt.Errorf("alloc %q: duplicate account", addr)
		}
		value, err := config.ParseAmount(amount)
		if err != nil {
			return fmt.Errorf("alloc %q: %w", addr, err)
		}
		s.alloc[account] = value
	}

	seen := make(map[[20]byte]struct{}, len(s.Users))
	for i := range s.Users {
		user := &s.Users[i]
		account, err := crypto.ParseAccount(strings.TrimSpace(user.Address))
		if err != nil {
			return fmt.Errorf("users[%d]: %w", i, err)
		}
		if _, dup := seen[account]; dup {
			return fmt.Errorf("users[%d]: duplicate account %s", i, user.Address)
		}
		seen[account] = struct{}{}
		user.account = account
	}
	return nil
}

// GenesisTimestamp returns the parsed genesis time.
func (s *Spec) GenesisTimestamp() time.Time { return s.genesisTimestamp }

func parseGenesisTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Unix(0, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("genesisTime: %w", err)
	}
	return ts.UTC(), nil
}
