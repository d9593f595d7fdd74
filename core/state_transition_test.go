package core

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	vineerrors "vinechain/core/errors"
	"vinechain/core/genesis"
	"vinechain/core/types"
	"vinechain/crypto"
	"vinechain/native/curve"
	"vinechain/storage"
)

func TestFailedTransactionLeavesStateUntouched(t *testing.T) {
	alice, bob := newAccount(t), newAccount(t)
	node := newTestNode(t, storage.NewMemDB(), genesisFor(t, alice))
	node.mustSubmit(t, alice, types.TxTypeCreateAsset, types.CreateAssetPayload{
		AssetID:   9,
		Curve:     uint8(curve.Exponential),
		MaxSupply: big.NewInt(1_000),
	})
	root, height := node.Root(), node.Height()
	node.sink.Reset()

	_, err := node.submit(t, bob, types.TxTypeBuy, types.TradePayload{AssetID: 9, Amount: big.NewInt(5)})
	require.ErrorIs(t, err, vineerrors.ErrInsufficientFunds)

	require.Equal(t, root, node.Root())
	require.Equal(t, height, node.Height())
	require.Empty(t, node.sink.Events())
	nonce, err := node.Nonce(bob.addr)
	require.NoError(t, err)
	require.Zero(t, nonce)
}

func TestPartialMutationsRollBack(t *testing.T) {
	alice := newAccount(t)
	spec, err := genesis.ParseSpec([]byte("alloc:\n  " + crypto.FormatAddress(alice.addr) + ": \"1_000\"\n"))
	require.NoError(t, err)
	node := newTestNode(t, storage.NewMemDB(), spec)
	node.mustSubmit(t, alice, types.TxTypeRegisterUser, types.RegisterUserPayload{Name: "alice"})
	root := node.Root()

	// The rewards pool is empty, so the creation reward fails after the
	// content record has already been written.
	_, err = node.submit(t, alice, types.TxTypePostContent, types.PostContentPayload{ContentID: 7, Metadata: "x"})
	require.ErrorIs(t, err, vineerrors.ErrInsufficientFunds)

	require.Equal(t, root, node.Root())
	_, ok, err := node.Content(7)
	require.NoError(t, err)
	require.False(t, ok)
	collection, ok, err := node.Collection(alice.addr)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, collection)
}

func TestNonceReplayRejected(t *testing.T) {
	alice := newAccount(t)
	node := newTestNode(t, storage.NewMemDB(), genesisFor(t, alice))

	tx := alice.sign(t, types.TxTypeRegisterUser, types.RegisterUserPayload{Name: "alice"})
	_, err := node.SubmitTransaction(context.Background(), tx)
	require.NoError(t, err)

	_, err = node.SubmitTransaction(context.Background(), tx)
	require.ErrorIs(t, err, vineerrors.ErrInvalidNonce)
	require.Equal(t, vineerrors.KindAuth, vineerrors.KindOf(err))

	alice.nonce = 5
	_, err = node.submit(t, alice, types.TxTypeRegisterUser, types.RegisterUserPayload{Name: "again"})
	require.ErrorIs(t, err, vineerrors.ErrInvalidNonce)
}

func TestUnsignedAndUnknownTransactions(t *testing.T) {
	alice := newAccount(t)
	node := newTestNode(t, storage.NewMemDB(), genesisFor(t, alice))
	root := node.Root()

	unsigned, err := types.NewTransaction(types.TxTypeRegisterUser, 0, types.RegisterUserPayload{Name: "alice"})
	require.NoError(t, err)
	_, err = node.SubmitTransaction(context.Background(), unsigned)
	require.ErrorIs(t, err, vineerrors.ErrUnauthenticated)

	_, err = node.SubmitTransaction(context.Background(), nil)
	require.ErrorIs(t, err, vineerrors.ErrMalformedPayload)

	_, err = node.submit(t, alice, types.TxType(0x7f), types.SpotPricePayload{AssetID: 1})
	require.ErrorIs(t, err, vineerrors.ErrUnknownTxType)

	_, err = node.submit(t, alice, types.TxTypeBuy, types.RegisterUserPayload{Name: "not a trade"})
	require.ErrorIs(t, err, vineerrors.ErrMalformedPayload)

	require.Equal(t, root, node.Root())
	nonce, err := node.Nonce(alice.addr)
	require.NoError(t, err)
	require.Zero(t, nonce)
}

func TestReceiptCarriesCommittedEvents(t *testing.T) {
	alice := newAccount(t)
	node := newTestNode(t, storage.NewMemDB(), genesisFor(t, alice))

	receipt := node.mustSubmit(t, alice, types.TxTypeRegisterUser, types.RegisterUserPayload{Name: "alice"})
	require.Equal(t, "register_user", receipt.Type)
	require.Equal(t, alice.addr, receipt.Sender)
	require.Equal(t, node.Root(), receipt.Root)
	require.Len(t, receipt.Events, 1)
	require.Len(t, node.sink.Events(), 1)
}

func TestViewRollsBackWhenCreatorPayoutFails(t *testing.T) {
	alice, bob := newAccount(t), newAccount(t)
	// Enough for the creation reward and the viewer's share, nothing more.
	spec, err := genesis.ParseSpec([]byte("rewardsReserve: \"110\"\nalloc:\n  " + crypto.FormatAddress(alice.addr) + ": \"1_000\"\n"))
	require.NoError(t, err)
	node := newTestNode(t, storage.NewMemDB(), spec)
	node.mustSubmit(t, alice, types.TxTypeRegisterUser, types.RegisterUserPayload{Name: "alice"})
	node.mustSubmit(t, alice, types.TxTypePostContent, types.PostContentPayload{ContentID: 7, Metadata: "x"})
	root := node.Root()
	bobBefore := node.native(t, bob.addr)
	node.sink.Reset()

	_, err = node.submit(t, bob, types.TxTypeViewContent, types.ViewContentPayload{ContentID: 7})
	require.ErrorIs(t, err, vineerrors.ErrInsufficientFunds)

	require.Equal(t, root, node.Root())
	require.Empty(t, node.sink.Events())
	viewed, err := node.HasViewed(bob.addr, 7)
	require.NoError(t, err)
	require.False(t, viewed)
	item, ok, err := node.Content(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, item.ViewCount)
	require.Zero(t, bobBefore.Cmp(node.native(t, bob.addr)))
	totals, err := node.Rewards(bob.addr)
	require.NoError(t, err)
	require.Nil(t, totals.ViewRewards)
	nonce, err := node.Nonce(bob.addr)
	require.NoError(t, err)
	require.Zero(t, nonce)
}

type headWriteFailDB struct {
	storage.Database
	fail bool
}

func (db *headWriteFailDB) Put(key, value []byte) error {
	if db.fail && bytes.Equal(key, headKey) {
		return errors.New("disk full")
	}
	return db.Database.Put(key, value)
}

func TestHeadPersistFailureKeepsPreviousRoot(t *testing.T) {
	alice := newAccount(t)
	db := &headWriteFailDB{Database: storage.NewMemDB()}
	node := newTestNode(t, db, genesisFor(t, alice))
	root, height := node.Root(), node.Height()
	node.sink.Reset()

	db.fail = true
	_, err := node.submit(t, alice, types.TxTypeRegisterUser, types.RegisterUserPayload{Name: "alice"})
	require.Error(t, err)
	require.Equal(t, root, node.Root())
	require.Equal(t, height, node.Height())
	require.Empty(t, node.sink.Events())
	_, ok, err := node.ResolveUser(alice.addr)
	require.NoError(t, err)
	require.False(t, ok)

	db.fail = false
	receipt := node.mustSubmit(t, alice, types.TxTypeRegisterUser, types.RegisterUserPayload{Name: "alice"})
	require.Equal(t, height+1, receipt.Height)
	require.Equal(t, node.Root(), receipt.Root)
	head, found, err := loadHead(db)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, receipt.Root, head.Root)
}
