package issuance

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	vineerrors "vinechain/core/errors"
	"vinechain/core/events"
	"vinechain/core/state"
	"vinechain/core/types"
	"vinechain/native/curve"
)

var (
	creator = [20]byte{0xc0}
	buyer   = [20]byte{0xb1}
	other   = [20]byte{0x0e}
)

type harness struct {
	engine  *Engine
	state   *state.Manager
	emitted *events.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	manager, err := state.NewInMemory()
	require.NoError(t, err)
	buf := &events.Buffer{}
	engine := NewEngine()
	engine.SetState(manager)
	engine.SetEmitter(buf)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	engine.SetParams(Params{CreatorAssetDeposit: big.NewInt(500), ExistenceUnits: 2})
	return &harness{engine: engine, state: manager, emitted: buf}
}

func (h *harness) fund(t *testing.T, addr [20]byte, amount *big.Int) {
	t.Helper()
	require.NoError(t, h.state.Deposit(types.NativeAsset, addr, amount))
}

func (h *harness) create(t *testing.T, id types.AssetID, variant curve.Variant, max int64) *Asset {
	t.Helper()
	h.fund(t, creator, big.NewInt(500))
	asset, err := h.engine.CreateAsset(creator, CreateAssetRequest{
		AssetID:   id,
		Curve:     variant,
		MaxSupply: big.NewInt(max),
		Name:      "Creator Coin",
		Symbol:    "cc",
		Decimals:  0,
	})
	require.NoError(t, err)
	return asset
}

func (h *harness) native(t *testing.T, addr [20]byte) *big.Int {
	t.Helper()
	balance, err := h.state.FreeBalance(types.NativeAsset, addr)
	require.NoError(t, err)
	return balance
}

func TestCreateAssetReservesDepositAndMintsExistence(t *testing.T) {
	h := newHarness(t)
	asset := h.create(t, 7, curve.Linear, 1000)

	require.Equal(t, uint64(1), asset.CurveID)
	require.Equal(t, "CC", asset.Symbol)
	require.Zero(t, h.native(t, creator).Sign())
	reserved, err := h.state.ReservedBalance(types.NativeAsset, creator)
	require.NoError(t, err)
	require.Equal(t, int64(500), reserved.Int64())

	issued, err := h.state.TotalIssuance(7)
	require.NoError(t, err)
	require.Equal(t, int64(2), issued.Int64())
	supply, err := h.engine.Supply(7)
	require.NoError(t, err)
	require.Zero(t, supply.Sign())

	held, err := h.state.FreeBalance(7, ModuleAccount())
	require.NoError(t, err)
	require.Equal(t, int64(2), held.Int64())

	emitted := h.emitted.Events()
	require.Len(t, emitted, 1)
	require.Equal(t, events.TypeAssetCreated, emitted[0].EventType())
}

func TestCreateAssetRejections(t *testing.T) {
	h := newHarness(t)
	h.create(t, 7, curve.Flat, 10)

	h.fund(t, other, big.NewInt(500))
	_, err := h.engine.CreateAsset(other, CreateAssetRequest{AssetID: 7, Curve: curve.Flat, MaxSupply: big.NewInt(10)})
	require.True(t, errors.Is(err, vineerrors.ErrAssetAlreadyExists))

	_, err = h.engine.CreateAsset(other, CreateAssetRequest{AssetID: types.NativeAsset, Curve: curve.Flat, MaxSupply: big.NewInt(10)})
	require.True(t, errors.Is(err, vineerrors.ErrInvalidAsset))

	_, err = h.engine.CreateAsset(other, CreateAssetRequest{AssetID: 8, Curve: curve.Variant(42), MaxSupply: big.NewInt(10)})
	require.True(t, errors.Is(err, vineerrors.ErrInvalidCurve))

	_, err = h.engine.CreateAsset(buyer, CreateAssetRequest{AssetID: 8, Curve: curve.Flat, MaxSupply: big.NewInt(10)})
	require.True(t, errors.Is(err, vineerrors.ErrInsufficientReserve))
	require.Equal(t, vineerrors.KindResource, vineerrors.KindOf(err))
}

func TestCreateAssetLinksProfile(t *testing.T) {
	h := newHarness(t)
	linker := &recordingLinker{}
	h.engine.SetLinker(linker)
	h.create(t, 3, curve.Exponential, 100)
	require.Equal(t, []uint64{3}, linker.linked[creator])
}

type recordingLinker struct {
	linked map[[20]byte][]uint64
}

func (r *recordingLinker) AttachAsset(owner [20]byte, id uint64) error {
	if r.linked == nil {
		r.linked = make(map[[20]byte][]uint64)
	}
	r.linked[owner] = append(r.linked[owner], id)
	return nil
}

func TestBuyChargesIntegralDifference(t *testing.T) {
	h := newHarness(t)
	asset := h.create(t, 9, curve.Exponential, 100)
	h.fund(t, buyer, new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil))
	start := h.native(t, buyer)

	cost, err := h.engine.Buy(buyer, 9, big.NewInt(5))
	require.NoError(t, err)
	want, err := curve.Integral(curve.Exponential, big.NewInt(5))
	require.NoError(t, err)
	require.Equal(t, want, cost)

	second, err := h.engine.Buy(buyer, 9, big.NewInt(5))
	require.NoError(t, err)
	upper, _ := curve.Integral(curve.Exponential, big.NewInt(10))
	require.Equal(t, new(big.Int).Sub(upper, want), second)

	spent := new(big.Int).Sub(start, h.native(t, buyer))
	require.Equal(t, new(big.Int).Add(cost, second), spent)
	require.Equal(t, upper, h.native(t, ReserveAccount(asset)))

	tokens, err := h.state.FreeBalance(9, buyer)
	require.NoError(t, err)
	require.Equal(t, int64(10), tokens.Int64())
}

func TestBuyFailures(t *testing.T) {
	h := newHarness(t)
	h.create(t, 9, curve.Exponential, 100)

	_, err := h.engine.Buy(buyer, 10, big.NewInt(1))
	require.True(t, errors.Is(err, vineerrors.ErrAssetDoesNotExist))

	_, err = h.engine.Buy(buyer, 9, big.NewInt(0))
	require.True(t, errors.Is(err, vineerrors.ErrInvalidAmount))

	_, err = h.engine.Buy(buyer, 9, big.NewInt(50))
	require.True(t, errors.Is(err, vineerrors.ErrInsufficientFunds))
	tokens, _ := h.state.FreeBalance(9, buyer)
	require.Zero(t, tokens.Sign())
}

func TestSupplyCapBoundary(t *testing.T) {
	h := newHarness(t)
	h.create(t, 9, curve.Exponential, 100)
	h.fund(t, buyer, new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil))

	_, err := h.engine.Buy(buyer, 9, big.NewInt(101))
	require.True(t, errors.Is(err, vineerrors.ErrSupplyCapExceeded))

	_, err = h.engine.Buy(buyer, 9, big.NewInt(60))
	require.NoError(t, err)
	_, err = h.engine.Buy(buyer, 9, big.NewInt(41))
	require.True(t, errors.Is(err, vineerrors.ErrSupplyCapExceeded))
	_, err = h.engine.Buy(buyer, 9, big.NewInt(40))
	require.NoError(t, err)

	supply, err := h.engine.Supply(9)
	require.NoError(t, err)
	require.Equal(t, int64(100), supply.Int64())
}

func TestBuySellRoundTrip(t *testing.T) {
	for _, variant := range []curve.Variant{curve.Linear, curve.Exponential, curve.Flat, curve.Logarithmic} {
		h := newHarness(t)
		h.create(t, 4, variant, 5)
		h.fund(t, buyer, new(big.Int).Lsh(big.NewInt(1), 250))
		h.fund(t, other, new(big.Int).Lsh(big.NewInt(1), 250))

		_, err := h.engine.Buy(other, 4, big.NewInt(2))
		require.NoError(t, err)
		cost, err := h.engine.Buy(buyer, 4, big.NewInt(3))
		require.NoError(t, err, variant.String())
		refund, err := h.engine.Sell(buyer, 4, big.NewInt(3))
		require.NoError(t, err, variant.String())
		require.LessOrEqual(t, refund.Cmp(cost), 0, variant.String())
		if variant == curve.Flat {
			require.Equal(t, cost, refund)
		}
	}
}

func TestSellRequiresBalance(t *testing.T) {
	h := newHarness(t)
	h.create(t, 9, curve.Flat, 5)
	h.fund(t, buyer, new(big.Int).Lsh(big.NewInt(1), 250))
	_, err := h.engine.Buy(buyer, 9, big.NewInt(2))
	require.NoError(t, err)

	_, err = h.engine.Sell(other, 9, big.NewInt(1))
	require.True(t, errors.Is(err, vineerrors.ErrInsufficientBalance))
	_, err = h.engine.Sell(buyer, 9, big.NewInt(3))
	require.True(t, errors.Is(err, vineerrors.ErrInsufficientBalance))
	_, err = h.engine.Sell(buyer, 11, big.NewInt(1))
	require.True(t, errors.Is(err, vineerrors.ErrAssetDoesNotExist))
}

func TestLinearScenario(t *testing.T) {
	h := newHarness(t)
	h.create(t, 1, curve.Linear, 1000)
	h.fund(t, buyer, new(big.Int).Exp(big.NewInt(10), big.NewInt(60), nil))

	_, err := h.engine.SpotPrice(1)
	require.True(t, errors.Is(err, vineerrors.ErrDivisionByZero))

	_, err = h.engine.Buy(buyer, 1, big.NewInt(10))
	require.NoError(t, err)

	price, err := h.engine.SpotPrice(1)
	require.NoError(t, err)
	total, err := curve.Integral(curve.Linear, big.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Quo(total, big.NewInt(10)), price)

	asset, ok, err := h.engine.Asset(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, asset.HasSpotPrice)
	require.Equal(t, price, asset.SpotPrice)

	refund, err := h.engine.Sell(buyer, 1, big.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, total, refund)

	supply, err := h.engine.Supply(1)
	require.NoError(t, err)
	require.Zero(t, supply.Sign())

	_, err = h.engine.SpotPrice(1)
	require.True(t, errors.Is(err, vineerrors.ErrDivisionByZero))
	require.Equal(t, vineerrors.KindArithmetic, vineerrors.KindOf(err))
}

func TestAirdrop(t *testing.T) {
	h := newHarness(t)
	asset := h.create(t, 6, curve.Exponential, 10)
	h.fund(t, creator, new(big.Int).Exp(big.NewInt(10), big.NewInt(20), nil))
	recipients := [][20]byte{buyer, other}

	_, err := h.engine.Airdrop(buyer, 6, recipients, big.NewInt(1))
	require.True(t, errors.Is(err, vineerrors.ErrNotAssetCreator))

	_, err = h.engine.Airdrop(creator, 6, recipients, big.NewInt(6))
	require.True(t, errors.Is(err, vineerrors.ErrSupplyCapExceeded))

	_, err = h.engine.Airdrop(creator, 6, nil, big.NewInt(1))
	require.True(t, errors.Is(err, vineerrors.ErrMalformedPayload))

	cost, err := h.engine.Airdrop(creator, 6, recipients, big.NewInt(3))
	require.NoError(t, err)
	want, _ := curve.Integral(curve.Exponential, big.NewInt(6))
	require.Equal(t, want, cost)
	require.Equal(t, want, h.native(t, ReserveAccount(asset)))

	for _, r := range recipients {
		held, err := h.state.FreeBalance(6, r)
		require.NoError(t, err)
		require.Equal(t, int64(3), held.Int64())
	}

	// Every airdropped unit can be sold back against the funded reserve.
	_, err = h.engine.Sell(buyer, 6, big.NewInt(3))
	require.NoError(t, err)
	_, err = h.engine.Sell(other, 6, big.NewInt(3))
	require.NoError(t, err)
	require.Zero(t, h.native(t, ReserveAccount(asset)).Sign())
}

func TestQuoteMatchesSettlement(t *testing.T) {
	h := newHarness(t)
	h.create(t, 2, curve.Logarithmic, 6)
	h.fund(t, buyer, new(big.Int).Lsh(big.NewInt(1), 250))

	quoted, err := h.engine.Quote(2, big.NewInt(4), SideBuy)
	require.NoError(t, err)
	cost, err := h.engine.Buy(buyer, 2, big.NewInt(4))
	require.NoError(t, err)
	require.Equal(t, quoted, cost)

	quoted, err = h.engine.Quote(2, big.NewInt(1), SideSell)
	require.NoError(t, err)
	refund, err := h.engine.Sell(buyer, 2, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, quoted, refund)

	_, err = h.engine.Quote(2, big.NewInt(4), SideSell)
	require.True(t, errors.Is(err, vineerrors.ErrInsufficientBalance))
	_, err = h.engine.Quote(2, big.NewInt(4), SideBuy)
	require.True(t, errors.Is(err, vineerrors.ErrSupplyCapExceeded))
}
