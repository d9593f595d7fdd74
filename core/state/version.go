package state

import (
	"errors"
	"fmt"
	"math"
)

// SchemaVersion identifies the key layout written by this binary. Bump it
// whenever a stored record changes shape.
const SchemaVersion uint32 = 1

var (
	schemaVersionKey = []byte("state/version")
	// ErrSchemaMismatch indicates the stored schema version does not match
	// the version supported by the current binary.
	ErrSchemaMismatch = errors.New("state: schema version mismatch")
)

// SetSchemaVersion records version in state.
func (m *Manager) SetSchemaVersion(version uint32) error {
	return m.KVPut(schemaVersionKey, uint64(version))
}

// SchemaVersion returns the stored schema version and whether one was
// recorded.
func (m *Manager) SchemaVersion() (uint32, bool, error) {
	var stored uint64
	ok, err := m.KVGet(schemaVersionKey, &stored)
	if err != nil || !ok {
		return 0, false, err
	}
	if stored > uint64(math.MaxUint32) {
		return 0, false, fmt.Errorf("state: schema version overflow: %d", stored)
	}
	return uint32(stored), true, nil
}

// EnsureSchemaVersion fails unless the stored schema version equals
// SchemaVersion.
func (m *Manager) EnsureSchemaVersion() error {
	version, _, err := m.SchemaVersion()
	if err != nil {
		return err
	}
	if version != SchemaVersion {
		return fmt.Errorf("%w: on-disk=%d expected=%d", ErrSchemaMismatch, version, SchemaVersion)
	}
	return nil
}
