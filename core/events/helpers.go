package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"vinechain/crypto"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func addr(a [20]byte) string {
	return crypto.FormatAddress(a)
}

func hexHash(h [32]byte) string {
	return "0x" + hex.EncodeToString(h[:])
}
