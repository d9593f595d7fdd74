package curve

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	vineerrors "vinechain/core/errors"
)

// Variant selects one of the fixed bonding curves an asset can be issued on.
type Variant uint8

const (
	Linear Variant = iota
	Exponential
	Flat
	Logarithmic
)

// Params describes the price function price(q) = Slope * q^Exponent.
type Params struct {
	Exponent uint32
	Slope    *uint256.Int
}

var table = map[Variant]struct {
	name     string
	exponent uint32
	slope    uint64
}{
	Linear:      {name: "linear", exponent: 50, slope: 100},
	Exponential: {name: "exponential", exponent: 10, slope: 10},
	Flat:        {name: "flat", exponent: 100, slope: 100},
	Logarithmic: {name: "logarithmic", exponent: 90, slope: 100},
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	_, ok := table[v]
	return ok
}

func (v Variant) String() string {
	if entry, ok := table[v]; ok {
		return entry.name
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

// Params returns the fixed parameters of v.
func (v Variant) Params() (Params, error) {
	entry, ok := table[v]
	if !ok {
		return Params{}, fmt.Errorf("%w: %d", vineerrors.ErrInvalidCurve, uint8(v))
	}
	return Params{Exponent: entry.exponent, Slope: uint256.NewInt(entry.slope)}, nil
}

// ParseVariant accepts the lower-case variant name.
func ParseVariant(raw string) (Variant, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for v, entry := range table {
		if entry.name == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", vineerrors.ErrInvalidCurve, raw)
}

// Integral returns floor(q^(e+1) * slope / (e+1)), the cumulative cost of
// issuing quantity units from zero. Results that do not fit in 256 bits fail
// with ErrOverflow instead of wrapping.
func Integral(v Variant, quantity *big.Int) (*big.Int, error) {
	params, err := v.Params()
	if err != nil {
		return nil, err
	}
	if quantity == nil || quantity.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if quantity.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative quantity", vineerrors.ErrInvalidAmount)
	}
	q, overflow := uint256.FromBig(quantity)
	if overflow {
		return nil, fmt.Errorf("%w: quantity %s", vineerrors.ErrOverflow, quantity)
	}
	power := uint256.NewInt(1)
	for i := uint32(0); i <= params.Exponent; i++ {
		if _, overflow = power.MulOverflow(power, q); overflow {
			return nil, fmt.Errorf("%w: %s^%d", vineerrors.ErrOverflow, quantity, params.Exponent+1)
		}
	}
	if _, overflow = power.MulOverflow(power, params.Slope); overflow {
		return nil, fmt.Errorf("%w: %s^%d * %s", vineerrors.ErrOverflow, quantity, params.Exponent+1, params.Slope)
	}
	power.Div(power, uint256.NewInt(uint64(params.Exponent)+1))
	return power.ToBig(), nil
}

// Cost prices minting amount units on top of a supply of before.
func Cost(v Variant, before, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, vineerrors.ErrInvalidAmount
	}
	start := normalize(before)
	end := new(big.Int).Add(start, amount)
	return span(v, start, end)
}

// Refund prices burning amount units from a supply of before.
func Refund(v Variant, before, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, vineerrors.ErrInvalidAmount
	}
	end := normalize(before)
	if amount.Cmp(end) > 0 {
		return nil, fmt.Errorf("%w: burning %s of supply %s", vineerrors.ErrInvalidAmount, amount, end)
	}
	start := new(big.Int).Sub(end, amount)
	return span(v, start, end)
}

// SpotPrice returns the average cost per unit at supply, Integral(supply)/supply.
func SpotPrice(v Variant, supply *big.Int) (*big.Int, error) {
	if supply == nil || supply.Sign() == 0 {
		return nil, vineerrors.ErrDivisionByZero
	}
	total, err := Integral(v, supply)
	if err != nil {
		return nil, err
	}
	return total.Quo(total, supply), nil
}

func span(v Variant, start, end *big.Int) (*big.Int, error) {
	upper, err := Integral(v, end)
	if err != nil {
		return nil, err
	}
	lower, err := Integral(v, start)
	if err != nil {
		return nil, err
	}
	return upper.Sub(upper, lower), nil
}

func normalize(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
