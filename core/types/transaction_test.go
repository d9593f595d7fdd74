package types

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	vineerrors "vinechain/core/errors"
)

func TestTransactionSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx, err := NewTransaction(TxTypeBuy, 3, TradePayload{AssetID: 7, Amount: big.NewInt(10)})
	require.NoError(t, err)
	require.NoError(t, tx.Sign(key))

	from, err := tx.From()
	require.NoError(t, err)
	require.Equal(t, [20]byte(crypto.PubkeyToAddress(key.PublicKey)), from)

	var payload TradePayload
	require.NoError(t, tx.DecodePayload(&payload))
	require.Equal(t, uint64(7), payload.AssetID)
	require.Equal(t, int64(10), payload.Amount.Int64())
}

func TestTransactionUnsignedIsUnauthenticated(t *testing.T) {
	tx, err := NewTransaction(TxTypeSpotPrice, 0, SpotPricePayload{AssetID: 1})
	require.NoError(t, err)
	_, err = tx.From()
	require.True(t, errors.Is(err, vineerrors.ErrUnauthenticated))
}

func TestTransactionTamperedPayloadChangesSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx, err := NewTransaction(TxTypeViewContent, 0, ViewContentPayload{ContentID: 1})
	require.NoError(t, err)
	require.NoError(t, tx.Sign(key))

	tampered := &Transaction{Type: tx.Type, Nonce: tx.Nonce + 1, Payload: tx.Payload, R: tx.R, S: tx.S, V: tx.V}
	from, err := tampered.From()
	if err == nil {
		require.NotEqual(t, [20]byte(crypto.PubkeyToAddress(key.PublicKey)), from)
	}
}

func TestTransactionRejectsBadRecoveryID(t *testing.T) {
	tx, err := NewTransaction(TxTypeSpotPrice, 0, SpotPricePayload{AssetID: 1})
	require.NoError(t, err)
	tx.R, tx.S, tx.V = big.NewInt(1), big.NewInt(1), big.NewInt(3)
	_, err = tx.From()
	require.True(t, errors.Is(err, vineerrors.ErrUnauthenticated))
}

func TestMalformedPayload(t *testing.T) {
	tx := &Transaction{Type: TxTypeBuy, Payload: []byte{0xff, 0x01}}
	var payload TradePayload
	err := tx.DecodePayload(&payload)
	require.True(t, errors.Is(err, vineerrors.ErrMalformedPayload))
}

func TestTxTypeString(t *testing.T) {
	require.Equal(t, "create_asset", TxTypeCreateAsset.String())
	require.Equal(t, "unknown(0x7f)", TxType(0x7f).String())
}
