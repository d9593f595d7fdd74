package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	vineerrors "vinechain/core/errors"
	"vinechain/core/types"
)

var (
	issuancePrefix = []byte("currency/issuance/")
	balancePrefix  = []byte("currency/balance/")
	reservedPrefix = []byte("currency/reserved/")
)

func issuanceKey(asset types.AssetID) []byte {
	key := make([]byte, len(issuancePrefix)+8)
	copy(key, issuancePrefix)
	binary.BigEndian.PutUint64(key[len(issuancePrefix):], uint64(asset))
	return key
}

func accountAssetKey(prefix []byte, asset types.AssetID, addr [20]byte) []byte {
	key := make([]byte, len(prefix)+8+len(addr))
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(asset))
	copy(key[len(prefix)+8:], addr[:])
	return key
}

func (m *Manager) loadAmount(key []byte) (*big.Int, error) {
	value := new(big.Int)
	if _, err := m.KVGet(key, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (m *Manager) writeAmount(key []byte, amount *big.Int) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("currency: negative amount %s", amount)
	}
	if amount.Sign() == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, amount)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: currency amount must be non-negative", vineerrors.ErrInvalidAmount)
	}
	return nil
}

// TotalIssuance returns the outstanding supply of asset. Missing entries
// default to zero.
func (m *Manager) TotalIssuance(asset types.AssetID) (*big.Int, error) {
	return m.loadAmount(issuanceKey(asset))
}

// FreeBalance returns the spendable balance of addr in asset.
func (m *Manager) FreeBalance(asset types.AssetID, addr [20]byte) (*big.Int, error) {
	return m.loadAmount(accountAssetKey(balancePrefix, asset, addr))
}

// ReservedBalance returns the amount of asset held in reserve for addr.
func (m *Manager) ReservedBalance(asset types.AssetID, addr [20]byte) (*big.Int, error) {
	return m.loadAmount(accountAssetKey(reservedPrefix, asset, addr))
}

// Deposit mints amount of asset into addr and raises the total issuance.
func (m *Manager) Deposit(asset types.AssetID, addr [20]byte, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	balance, err := m.FreeBalance(asset, addr)
	if err != nil {
		return err
	}
	issuance, err := m.TotalIssuance(asset)
	if err != nil {
		return err
	}
	if err := m.writeAmount(accountAssetKey(balancePrefix, asset, addr), balance.Add(balance, amount)); err != nil {
		return err
	}
	return m.writeAmount(issuanceKey(asset), issuance.Add(issuance, amount))
}

// EnsureCanWithdraw fails with ErrInsufficientBalance when addr cannot burn
// amount of asset.
func (m *Manager) EnsureCanWithdraw(asset types.AssetID, addr [20]byte, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	balance, err := m.FreeBalance(asset, addr)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: asset %s balance %s < %s", vineerrors.ErrInsufficientBalance, asset, balance, amount)
	}
	return nil
}

// Withdraw burns amount of asset from addr and lowers the total issuance.
func (m *Manager) Withdraw(asset types.AssetID, addr [20]byte, amount *big.Int) error {
	if err := m.EnsureCanWithdraw(asset, addr, amount); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	balance, err := m.FreeBalance(asset, addr)
	if err != nil {
		return err
	}
	issuance, err := m.TotalIssuance(asset)
	if err != nil {
		return err
	}
	if issuance.Cmp(amount) < 0 {
		return fmt.Errorf("currency: asset %s issuance underflow", asset)
	}
	if err := m.writeAmount(accountAssetKey(balancePrefix, asset, addr), balance.Sub(balance, amount)); err != nil {
		return err
	}
	return m.writeAmount(issuanceKey(asset), issuance.Sub(issuance, amount))
}

// Transfer moves amount of asset from one account to another. Issuance is
// unchanged.
func (m *Manager) Transfer(asset types.AssetID, from, to [20]byte, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	fromBalance, err := m.FreeBalance(asset, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: asset %s balance %s < %s", vineerrors.ErrInsufficientFunds, asset, fromBalance, amount)
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	toBalance, err := m.FreeBalance(asset, to)
	if err != nil {
		return err
	}
	if err := m.writeAmount(accountAssetKey(balancePrefix, asset, from), fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	return m.writeAmount(accountAssetKey(balancePrefix, asset, to), toBalance.Add(toBalance, amount))
}

// CanReserve reports whether addr has at least amount of free asset.
func (m *Manager) CanReserve(asset types.AssetID, addr [20]byte, amount *big.Int) (bool, error) {
	if err := checkAmount(amount); err != nil {
		return false, err
	}
	balance, err := m.FreeBalance(asset, addr)
	if err != nil {
		return false, err
	}
	return balance.Cmp(amount) >= 0, nil
}

// Reserve moves amount of asset from the free to the reserved balance of addr.
func (m *Manager) Reserve(asset types.AssetID, addr [20]byte, amount *big.Int) error {
	ok, err := m.CanReserve(asset, addr, amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: asset %s reserve %s", vineerrors.ErrInsufficientReserve, asset, amount)
	}
	if amount.Sign() == 0 {
		return nil
	}
	free, err := m.FreeBalance(asset, addr)
	if err != nil {
		return err
	}
	reserved, err := m.ReservedBalance(asset, addr)
	if err != nil {
		return err
	}
	if err := m.writeAmount(accountAssetKey(balancePrefix, asset, addr), free.Sub(free, amount)); err != nil {
		return err
	}
	return m.writeAmount(accountAssetKey(reservedPrefix, asset, addr), reserved.Add(reserved, amount))
}
