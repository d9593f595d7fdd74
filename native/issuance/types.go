package issuance

import (
	"math/big"

	"vinechain/core/types"
	"vinechain/native/curve"
)

// Asset is the ledger entry of a creator token. Circulating supply is not
// stored here; it is derived from the currency ledger.
type Asset struct {
	ID             uint64
	CurveID        uint64
	Curve          uint8
	Creator        [20]byte
	Name           string
	Symbol         string
	Decimals       uint8
	MaxSupply      *big.Int
	ExistenceUnits uint64
	HasSpotPrice   bool
	SpotPrice      *big.Int
	CreatedAt      uint64
}

// AssetID returns the currency id of the asset.
func (a *Asset) AssetID() types.AssetID { return types.AssetID(a.ID) }

// Variant returns the bonding curve the asset is priced on.
func (a *Asset) Variant() curve.Variant { return curve.Variant(a.Curve) }

// Clone returns a deep copy of the entry.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	out := *a
	out.MaxSupply = cloneAmount(a.MaxSupply)
	if a.SpotPrice != nil {
		out.SpotPrice = new(big.Int).Set(a.SpotPrice)
	}
	return &out
}

// CreateAssetRequest carries the caller supplied fields of a new asset.
type CreateAssetRequest struct {
	AssetID   types.AssetID
	Curve     curve.Variant
	MaxSupply *big.Int
	Name      string
	Symbol    string
	Decimals  uint8
}

// Side selects the direction of a quote.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideSell {
		return "sell"
	}
	return "buy"
}

// Params are the economic constants of the issuance engine.
type Params struct {
	// CreatorAssetDeposit is reserved from the creator's reserve currency
	// balance when an asset is created.
	CreatorAssetDeposit *big.Int
	// ExistenceUnits are minted to the issuance module account so that a new
	// asset has non-zero issuance. They never count as circulating supply.
	ExistenceUnits uint64
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		CreatorAssetDeposit: big.NewInt(1_000_000),
		ExistenceUnits:      2,
	}
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
