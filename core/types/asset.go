package types

import "strconv"

// AssetID identifies a currency in the multi-asset ledger.
type AssetID uint64

// NativeAsset is the reserve currency used to price and redeem creator tokens.
const NativeAsset AssetID = 0

func (id AssetID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsNative reports whether the id refers to the reserve currency.
func (id AssetID) IsNative() bool { return id == NativeAsset }

// ParseAssetID parses a decimal asset id.
func ParseAssetID(raw string) (AssetID, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return AssetID(v), nil
}
