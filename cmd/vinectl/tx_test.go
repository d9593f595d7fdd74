package main

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"vinechain/core/types"
	"vinechain/crypto"
	"vinechain/native/curve"
)

func TestBuildPayloadCreateAsset(t *testing.T) {
	txType, payload, err := buildPayload("create-asset", txFlags{
		asset: 7, curve: "Exponential", maxSupply: "1_000", name: "Coin", symbol: "cn", decimals: 2,
	})
	require.NoError(t, err)
	require.Equal(t, types.TxTypeCreateAsset, txType)
	p := payload.(types.CreateAssetPayload)
	require.Equal(t, uint8(curve.Exponential), p.Curve)
	require.Equal(t, big.NewInt(1000), p.MaxSupply)
	require.Equal(t, uint8(2), p.Decimals)
}

func TestBuildPayloadAirdropParsesBeneficiaries(t *testing.T) {
	a := crypto.FormatAddress([20]byte{1})
	b := crypto.FormatAddress([20]byte{2})
	_, payload, err := buildPayload("airdrop", txFlags{asset: 3, amount: "5", beneficiaries: a + ", " + b})
	require.NoError(t, err)
	p := payload.(types.AirdropPayload)
	require.Equal(t, [][20]byte{{1}, {2}}, p.Beneficiaries)

	_, _, err = buildPayload("airdrop", txFlags{asset: 3, amount: "5", beneficiaries: "nope"})
	require.Error(t, err)
}

func TestBuildPayloadRejectsBadInput(t *testing.T) {
	for name, tc := range map[string]struct {
		kind  string
		flags txFlags
	}{
		"unknown type":   {kind: "mint"},
		"zero amount":    {kind: "buy", flags: txFlags{asset: 1, amount: "0"}},
		"bad curve":      {kind: "create-asset", flags: txFlags{curve: "cubic", maxSupply: "10"}},
		"missing name":   {kind: "register"},
		"missing target": {kind: "view"},
	} {
		_, _, err := buildPayload(tc.kind, tc.flags)
		require.Error(t, err, name)
	}
}

func TestClientFetchesNonce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/accounts/vine1xyz/nonce", r.URL.Path)
		_, _ = w.Write([]byte(`{"nonce":12}`))
	}))
	defer srv.Close()

	nonce, err := newClient(srv.URL + "/").nonce("vine1xyz")
	require.NoError(t, err)
	require.Equal(t, uint64(12), nonce)
}
