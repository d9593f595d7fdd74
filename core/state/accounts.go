package state

import (
	"encoding/binary"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	vineerrors "vinechain/core/errors"
)

var noncePrefix = []byte("account/nonce/")

// Protocol-controlled module names.
const (
	ModuleIssuance = "py/vines"
	ModuleRewards  = "py/rewrd"
)

// ModuleAccount derives the deterministic account owned by a protocol module.
// Nobody holds its key; only engine code moves its funds.
func ModuleAccount(module string) [20]byte {
	var out [20]byte
	digest := ethcrypto.Keccak256([]byte("modl/" + module))
	copy(out[:], digest[12:])
	return out
}

// SubAccount derives the index-th child account of a module, used to keep the
// reserve of each bonding curve separate.
func SubAccount(module string, index uint64) [20]byte {
	var out [20]byte
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, index)
	digest := ethcrypto.Keccak256([]byte("modl/"+module+"/sub/"), buf)
	copy(out[:], digest[12:])
	return out
}

func nonceKey(addr [20]byte) []byte {
	return append(append([]byte{}, noncePrefix...), addr[:]...)
}

// Nonce returns the next transaction nonce expected from addr.
func (m *Manager) Nonce(addr [20]byte) (uint64, error) {
	var nonce uint64
	if _, err := m.KVGet(nonceKey(addr), &nonce); err != nil {
		return 0, err
	}
	return nonce, nil
}

// ConsumeNonce checks that got is the expected nonce of addr and advances it.
func (m *Manager) ConsumeNonce(addr [20]byte, got uint64) error {
	expected, err := m.Nonce(addr)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("%w: expected %d, got %d", vineerrors.ErrInvalidNonce, expected, got)
	}
	return m.KVPut(nonceKey(addr), expected+1)
}
