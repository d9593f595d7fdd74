package core

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	vineerrors "vinechain/core/errors"
	"vinechain/core/events"
	"vinechain/core/genesis"
	"vinechain/core/state"
	"vinechain/core/types"
	"vinechain/crypto"
	"vinechain/native/content"
	"vinechain/native/curve"
	"vinechain/native/issuance"
	"vinechain/storage"
)

type account struct {
	key   *crypto.PrivateKey
	addr  [20]byte
	nonce uint64
}

func newAccount(t *testing.T) *account {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	return &account{key: key, addr: key.PubKey().Address().Raw()}
}

func (a *account) sign(t *testing.T, txType types.TxType, payload interface{}) *types.Transaction {
	t.Helper()
	tx, err := types.NewTransaction(txType, a.nonce, payload)
	require.NoError(t, err)
	require.NoError(t, tx.Sign(a.key.PrivateKey))
	return tx
}

type testNode struct {
	*Node
	sink *events.Buffer
}

func testParams() ProcessorParams {
	return ProcessorParams{
		Issuance: issuance.Params{CreatorAssetDeposit: big.NewInt(1_000), ExistenceUnits: 2},
		Content: content.Params{
			CreationReward:    big.NewInt(100),
			ViewerReward:      big.NewInt(10),
			CreatorViewReward: big.NewInt(5),
			MaxMetadataBytes:  256,
		},
	}
}

func genesisFor(t *testing.T, funded ...*account) *genesis.Spec {
	t.Helper()
	raw := "genesisTime: \"2024-01-01T00:00:00Z\"\nrewardsReserve: \"1_000_000\"\nalloc:\n"
	for _, acc := range funded {
		raw += fmt.Sprintf("  %s: \"10_000_000\"\n", crypto.FormatAddress(acc.addr))
	}
	spec, err := genesis.ParseSpec([]byte(raw))
	require.NoError(t, err)
	return spec
}

func newTestNode(t *testing.T, db storage.Database, spec *genesis.Spec) *testNode {
	t.Helper()
	sink := &events.Buffer{}
	node, err := NewNode(db, NodeOptions{
		Params:  testParams(),
		Genesis: spec,
		Sink:    sink,
		Now:     func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
	require.NoError(t, err)
	return &testNode{Node: node, sink: sink}
}

func (n *testNode) submit(t *testing.T, from *account, txType types.TxType, payload interface{}) (*Receipt, error) {
	t.Helper()
	receipt, err := n.SubmitTransaction(context.Background(), from.sign(t, txType, payload))
	if err == nil {
		from.nonce++
	}
	return receipt, err
}

func (n *testNode) mustSubmit(t *testing.T, from *account, txType types.TxType, payload interface{}) *Receipt {
	t.Helper()
	receipt, err := n.submit(t, from, txType, payload)
	require.NoError(t, err)
	return receipt
}

func (n *testNode) native(t *testing.T, addr [20]byte) *big.Int {
	t.Helper()
	balance, err := n.Balance(types.NativeAsset, addr)
	require.NoError(t, err)
	return balance.Free
}

func TestGenesisFundsAccountsAndRewards(t *testing.T) {
	alice := newAccount(t)
	node := newTestNode(t, storage.NewMemDB(), genesisFor(t, alice))

	require.Equal(t, big.NewInt(10_000_000), node.native(t, alice.addr))
	require.Equal(t, big.NewInt(1_000_000), node.native(t, content.RewardsAccount()))
	require.Equal(t, uint64(1), node.Height())
	require.NotEqual(t, [32]byte{}, [32]byte(node.Root()))
}

func TestCreatorEconomyScenario(t *testing.T) {
	alice, bob := newAccount(t), newAccount(t)
	node := newTestNode(t, storage.NewMemDB(), genesisFor(t, alice, bob))

	receipt := node.mustSubmit(t, alice, types.TxTypeRegisterUser, types.RegisterUserPayload{Name: "alice"})
	require.Equal(t, uint64(1), receipt.ID)
	node.mustSubmit(t, bob, types.TxTypeRegisterUser, types.RegisterUserPayload{Name: "bob"})

	node.mustSubmit(t, alice, types.TxTypeCreateAsset, types.CreateAssetPayload{
		AssetID:   42,
		Curve:     uint8(curve.Exponential),
		MaxSupply: big.NewInt(100),
		Name:      "Alice Coin",
		Symbol:    "alc",
	})
	user, ok, err := node.ResolveUser(alice.addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, user.HasAsset)
	require.Equal(t, uint64(42), user.AssetID)

	expected, err := curve.Cost(curve.Exponential, big.NewInt(0), big.NewInt(3))
	require.NoError(t, err)
	quote, err := node.Quote(42, big.NewInt(3), issuance.SideBuy)
	require.NoError(t, err)
	require.Equal(t, expected, quote)

	receipt = node.mustSubmit(t, bob, types.TxTypeBuy, types.TradePayload{AssetID: 42, Amount: big.NewInt(3)})
	require.Equal(t, expected, receipt.Amount)
	require.Equal(t, new(big.Int).Sub(big.NewInt(10_000_000), expected), node.native(t, bob.addr))

	supply, err := node.Supply(42)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(3), supply)

	receipt = node.mustSubmit(t, bob, types.TxTypeSpotPrice, types.SpotPricePayload{AssetID: 42})
	require.Equal(t, new(big.Int).Quo(expected, big.NewInt(3)), receipt.Amount)

	receipt = node.mustSubmit(t, bob, types.TxTypeSell, types.TradePayload{AssetID: 42, Amount: big.NewInt(3)})
	require.Equal(t, expected, receipt.Amount)
	require.Equal(t, big.NewInt(10_000_000), node.native(t, bob.addr))

	_, err = node.submit(t, bob, types.TxTypeSpotPrice, types.SpotPricePayload{AssetID: 42})
	require.ErrorIs(t, err, vineerrors.ErrDivisionByZero)

	receipt = node.mustSubmit(t, alice, types.TxTypePostContent, types.PostContentPayload{Metadata: "ipfs://first"})
	require.Equal(t, uint64(1), receipt.ID)
	receipt = node.mustSubmit(t, bob, types.TxTypeViewContent, types.ViewContentPayload{ContentID: 1})
	require.Equal(t, big.NewInt(10), receipt.Amount)

	_, err = node.submit(t, bob, types.TxTypeViewContent, types.ViewContentPayload{ContentID: 1})
	require.ErrorIs(t, err, vineerrors.ErrAlreadyRewarded)

	aliceRewards, err := node.Rewards(alice.addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(105), aliceRewards.Total())
	bobRewards, err := node.Rewards(bob.addr)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10), bobRewards.Total())

	item, ok, err := node.Content(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), item.ViewCount)

	kinds := make([]string, 0)
	for _, evt := range node.sink.Events() {
		kinds = append(kinds, evt.EventType())
	}
	require.Contains(t, kinds, events.TypeAssetCreated)
	require.Contains(t, kinds, events.TypeTokenMinted)
	require.Contains(t, kinds, events.TypeTokenBurned)
	require.Contains(t, kinds, events.TypeContentViewed)
}

func TestNodeReopensAtPersistedHead(t *testing.T) {
	alice := newAccount(t)
	db := storage.NewMemDB()
	node := newTestNode(t, db, genesisFor(t, alice))
	node.mustSubmit(t, alice, types.TxTypeRegisterUser, types.RegisterUserPayload{Name: "alice"})
	root, height := node.Root(), node.Height()

	reopened := newTestNode(t, db, nil)
	require.Equal(t, root, reopened.Root())
	require.Equal(t, height, reopened.Height())
	nonce, err := reopened.Nonce(alice.addr)
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce)
	require.Equal(t, big.NewInt(10_000_000), reopened.native(t, alice.addr))
}

func TestNodeRejectsForeignSchemaVersion(t *testing.T) {
	db := storage.NewMemDB()
	node := newTestNode(t, db, nil)
	_, err := node.state.Atomically(func() error {
		return node.state.State.SetSchemaVersion(state.SchemaVersion + 1)
	})
	require.NoError(t, err)

	_, err = NewNode(db, NodeOptions{Params: testParams()})
	require.ErrorIs(t, err, state.ErrSchemaMismatch)
}
