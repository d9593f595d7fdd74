package events

import (
	"math/big"
	"strings"

	"vinechain/core/types"
)

const (
	TypeAssetCreated     = "asset.created"
	TypeTokenMinted      = "token.minted"
	TypeTokenBurned      = "token.burned"
	TypeSpotPriceUpdated = "token.spot_price"
	TypeTokensAirdropped = "token.airdropped"
)

type AssetCreated struct {
	AssetID   types.AssetID
	Creator   [20]byte
	Curve     string
	MaxSupply *big.Int
	Symbol    string
}

func (AssetCreated) EventType() string { return TypeAssetCreated }

func (e AssetCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeAssetCreated,
		Attributes: map[string]string{
			"assetId":   e.AssetID.String(),
			"creator":   addr(e.Creator),
			"curve":     e.Curve,
			"maxSupply": formatAmount(e.MaxSupply),
			"symbol":    strings.ToUpper(strings.TrimSpace(e.Symbol)),
		},
	}
}

type TokenMinted struct {
	Buyer   [20]byte
	AssetID types.AssetID
	Amount  *big.Int
	Cost    *big.Int
}

func (TokenMinted) EventType() string { return TypeTokenMinted }

func (e TokenMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenMinted,
		Attributes: map[string]string{
			"buyer":   addr(e.Buyer),
			"assetId": e.AssetID.String(),
			"amount":  formatAmount(e.Amount),
			"cost":    formatAmount(e.Cost),
		},
	}
}

type TokenBurned struct {
	Seller  [20]byte
	AssetID types.AssetID
	Amount  *big.Int
	Refund  *big.Int
}

func (TokenBurned) EventType() string { return TypeTokenBurned }

func (e TokenBurned) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenBurned,
		Attributes: map[string]string{
			"seller":  addr(e.Seller),
			"assetId": e.AssetID.String(),
			"amount":  formatAmount(e.Amount),
			"refund":  formatAmount(e.Refund),
		},
	}
}

type SpotPriceUpdated struct {
	AssetID types.AssetID
	Price   *big.Int
}

func (SpotPriceUpdated) EventType() string { return TypeSpotPriceUpdated }

func (e SpotPriceUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeSpotPriceUpdated,
		Attributes: map[string]string{
			"assetId": e.AssetID.String(),
			"price":   formatAmount(e.Price),
		},
	}
}

type TokensAirdropped struct {
	AssetID       types.AssetID
	Creator       [20]byte
	Amount        *big.Int
	Cost          *big.Int
	Beneficiaries [][20]byte
}

func (TokensAirdropped) EventType() string { return TypeTokensAirdropped }

func (e TokensAirdropped) Event() *types.Event {
	recipients := make([]string, 0, len(e.Beneficiaries))
	for _, b := range e.Beneficiaries {
		recipients = append(recipients, addr(b))
	}
	return &types.Event{
		Type: TypeTokensAirdropped,
		Attributes: map[string]string{
			"assetId":       e.AssetID.String(),
			"creator":       addr(e.Creator),
			"amount":        formatAmount(e.Amount),
			"cost":          formatAmount(e.Cost),
			"beneficiaries": strings.Join(recipients, ","),
		},
	}
}
