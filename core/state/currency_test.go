package state

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	vineerrors "vinechain/core/errors"
	"vinechain/core/types"
	"vinechain/storage"
	"vinechain/storage/trie"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	return NewManager(tr)
}

var (
	alice = [20]byte{0xa1}
	bob   = [20]byte{0xb0}
)

func TestDepositAndWithdrawAdjustIssuance(t *testing.T) {
	m := newTestManager(t)
	asset := types.AssetID(5)

	total, err := m.TotalIssuance(asset)
	require.NoError(t, err)
	require.Zero(t, total.Sign())

	require.NoError(t, m.Deposit(asset, alice, big.NewInt(1000)))
	require.NoError(t, m.Deposit(asset, bob, big.NewInt(5)))
	total, err = m.TotalIssuance(asset)
	require.NoError(t, err)
	require.Equal(t, int64(1005), total.Int64())

	require.NoError(t, m.Withdraw(asset, alice, big.NewInt(250)))
	total, err = m.TotalIssuance(asset)
	require.NoError(t, err)
	require.Equal(t, int64(755), total.Int64())

	balance, err := m.FreeBalance(asset, alice)
	require.NoError(t, err)
	require.Equal(t, int64(750), balance.Int64())
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Deposit(1, alice, big.NewInt(3)))

	err := m.Withdraw(1, alice, big.NewInt(4))
	require.True(t, errors.Is(err, vineerrors.ErrInsufficientBalance))

	balance, err := m.FreeBalance(1, alice)
	require.NoError(t, err)
	require.Equal(t, int64(3), balance.Int64())
}

func TestTransferInsufficientFundsLeavesBalances(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Deposit(types.NativeAsset, alice, big.NewInt(10)))

	err := m.Transfer(types.NativeAsset, alice, bob, big.NewInt(11))
	require.True(t, errors.Is(err, vineerrors.ErrInsufficientFunds))

	require.NoError(t, m.Transfer(types.NativeAsset, alice, bob, big.NewInt(4)))
	a, _ := m.FreeBalance(types.NativeAsset, alice)
	b, _ := m.FreeBalance(types.NativeAsset, bob)
	require.Equal(t, int64(6), a.Int64())
	require.Equal(t, int64(4), b.Int64())

	total, err := m.TotalIssuance(types.NativeAsset)
	require.NoError(t, err)
	require.Equal(t, int64(10), total.Int64())
}

func TestReserveMovesFreeToReserved(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Deposit(types.NativeAsset, alice, big.NewInt(100)))

	ok, err := m.CanReserve(types.NativeAsset, alice, big.NewInt(101))
	require.NoError(t, err)
	require.False(t, ok)
	err = m.Reserve(types.NativeAsset, alice, big.NewInt(101))
	require.True(t, errors.Is(err, vineerrors.ErrInsufficientReserve))

	require.NoError(t, m.Reserve(types.NativeAsset, alice, big.NewInt(40)))
	free, _ := m.FreeBalance(types.NativeAsset, alice)
	reserved, _ := m.ReservedBalance(types.NativeAsset, alice)
	require.Equal(t, int64(60), free.Int64())
	require.Equal(t, int64(40), reserved.Int64())
}

func TestNegativeAmountsRejected(t *testing.T) {
	m := newTestManager(t)
	err := m.Deposit(1, alice, big.NewInt(-1))
	require.True(t, errors.Is(err, vineerrors.ErrInvalidAmount))
	err = m.Transfer(1, alice, bob, nil)
	require.True(t, errors.Is(err, vineerrors.ErrInvalidAmount))
}
