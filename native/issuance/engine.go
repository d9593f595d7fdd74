package issuance

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	vineerrors "vinechain/core/errors"
	"vinechain/core/events"
	"vinechain/core/state"
	"vinechain/core/types"
	"vinechain/native/curve"
)

var (
	errNilState = errors.New("issuance engine: state not configured")

	assetPrefix = []byte("issuance/asset/")
)

const (
	maxNameLength   = 64
	maxSymbolLength = 12
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	NextSequence(name string) (uint64, error)

	TotalIssuance(asset types.AssetID) (*big.Int, error)
	FreeBalance(asset types.AssetID, addr [20]byte) (*big.Int, error)
	Deposit(asset types.AssetID, addr [20]byte, amount *big.Int) error
	EnsureCanWithdraw(asset types.AssetID, addr [20]byte, amount *big.Int) error
	Withdraw(asset types.AssetID, addr [20]byte, amount *big.Int) error
	Transfer(asset types.AssetID, from, to [20]byte, amount *big.Int) error
	CanReserve(asset types.AssetID, addr [20]byte, amount *big.Int) (bool, error)
	Reserve(asset types.AssetID, addr [20]byte, amount *big.Int) error
}

// AssetLinker records a created asset against the creator's profile.
type AssetLinker interface {
	AttachAsset(owner [20]byte, assetID uint64) error
}

// Engine prices and settles creator tokens on their bonding curves.
type Engine struct {
	state   engineState
	emitter events.Emitter
	linker  AssetLinker
	params  Params
	nowFn   func() int64
}

// NewEngine constructs an issuance engine with default parameters.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  DefaultParams(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(s engineState) { e.state = s }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLinker configures the profile hook invoked after asset creation.
func (e *Engine) SetLinker(linker AssetLinker) { e.linker = linker }

// SetParams replaces the engine's economic constants.
func (e *Engine) SetParams(p Params) {
	if p.CreatorAssetDeposit == nil {
		p.CreatorAssetDeposit = big.NewInt(0)
	}
	e.params = p
}

// Params returns a copy of the active parameters.
func (e *Engine) Params() Params {
	return Params{CreatorAssetDeposit: cloneAmount(e.params.CreatorAssetDeposit), ExistenceUnits: e.params.ExistenceUnits}
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// ModuleAccount holds the existence units of every asset.
func ModuleAccount() [20]byte { return state.ModuleAccount(state.ModuleIssuance) }

// ReserveAccount holds the reserve currency paid into the curve of an asset.
func ReserveAccount(asset *Asset) [20]byte {
	return state.SubAccount(state.ModuleIssuance, asset.CurveID)
}

func assetKey(id types.AssetID) []byte {
	buf := make([]byte, len(assetPrefix)+8)
	copy(buf, assetPrefix)
	binary.BigEndian.PutUint64(buf[len(assetPrefix):], uint64(id))
	return buf
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nil
}

// Asset loads the ledger entry for id.
func (e *Engine) Asset(id types.AssetID) (*Asset, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	var asset Asset
	ok, err := e.state.KVGet(assetKey(id), &asset)
	if err != nil || !ok {
		return nil, false, err
	}
	return &asset, true, nil
}

func (e *Engine) mustAsset(id types.AssetID) (*Asset, error) {
	asset, ok, err := e.Asset(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", vineerrors.ErrAssetDoesNotExist, id)
	}
	return asset, nil
}

// Supply returns the circulating supply of id, excluding existence units.
func (e *Engine) Supply(id types.AssetID) (*big.Int, error) {
	asset, err := e.mustAsset(id)
	if err != nil {
		return nil, err
	}
	return e.supplyOf(asset)
}

func (e *Engine) supplyOf(asset *Asset) (*big.Int, error) {
	issued, err := e.state.TotalIssuance(asset.AssetID())
	if err != nil {
		return nil, err
	}
	issued.Sub(issued, new(big.Int).SetUint64(asset.ExistenceUnits))
	if issued.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return issued, nil
}

func positive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return vineerrors.ErrInvalidAmount
	}
	return nil
}

// CreateAsset registers a new creator token priced on req.Curve.
func (e *Engine) CreateAsset(creator [20]byte, req CreateAssetRequest) (*Asset, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if req.AssetID.IsNative() {
		return nil, fmt.Errorf("%w: %s is the reserve currency", vineerrors.ErrInvalidAsset, req.AssetID)
	}
	if !req.Curve.Valid() {
		return nil, fmt.Errorf("%w: %d", vineerrors.ErrInvalidCurve, uint8(req.Curve))
	}
	if err := positive(req.MaxSupply); err != nil {
		return nil, fmt.Errorf("%w: max supply must be positive", err)
	}
	name := strings.TrimSpace(req.Name)
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if len(name) > maxNameLength || len(symbol) > maxSymbolLength {
		return nil, fmt.Errorf("%w: name or symbol too long", vineerrors.ErrMalformedPayload)
	}

	issued, err := e.state.TotalIssuance(req.AssetID)
	if err != nil {
		return nil, err
	}
	_, exists, err := e.Asset(req.AssetID)
	if err != nil {
		return nil, err
	}
	if exists || issued.Sign() != 0 {
		return nil, fmt.Errorf("%w: %s", vineerrors.ErrAssetAlreadyExists, req.AssetID)
	}

	deposit := cloneAmount(e.params.CreatorAssetDeposit)
	canReserve, err := e.state.CanReserve(types.NativeAsset, creator, deposit)
	if err != nil {
		return nil, err
	}
	if !canReserve {
		return nil, fmt.Errorf("%w: creator deposit %s", vineerrors.ErrInsufficientReserve, deposit)
	}
	if err := e.state.Reserve(types.NativeAsset, creator, deposit); err != nil {
		return nil, err
	}

	curveID, err := e.state.NextSequence(state.SeqAssetCurve)
	if err != nil {
		return nil, err
	}
	existence := new(big.Int).SetUint64(e.params.ExistenceUnits)
	if err := e.state.Deposit(req.AssetID, ModuleAccount(), existence); err != nil {
		return nil, err
	}
	asset := &Asset{
		ID:             uint64(req.AssetID),
		CurveID:        curveID,
		Curve:          uint8(req.Curve),
		Creator:        creator,
		Name:           name,
		Symbol:         symbol,
		Decimals:       req.Decimals,
		MaxSupply:      new(big.Int).Set(req.MaxSupply),
		ExistenceUnits: e.params.ExistenceUnits,
		SpotPrice:      big.NewInt(0),
		CreatedAt:      uint64(e.nowFn()),
	}
	if err := e.state.KVPut(assetKey(req.AssetID), asset); err != nil {
		return nil, err
	}
	if e.linker != nil {
		if err := e.linker.AttachAsset(creator, asset.ID); err != nil {
			return nil, err
		}
	}
	e.emitter.Emit(events.AssetCreated{
		AssetID:   req.AssetID,
		Creator:   creator,
		Curve:     req.Curve.String(),
		MaxSupply: asset.MaxSupply,
		Symbol:    symbol,
	})
	return asset.Clone(), nil
}

// Buy mints amount of the asset to buyer and charges the curve cost of the
// interval [supply, supply+amount) in reserve currency. The cost is computed
// from the supply before any mutation.
func (e *Engine) Buy(buyer [20]byte, id types.AssetID, amount *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := positive(amount); err != nil {
		return nil, err
	}
	asset, err := e.mustAsset(id)
	if err != nil {
		return nil, err
	}
	before, err := e.supplyOf(asset)
	if err != nil {
		return nil, err
	}
	cost, err := e.mintCost(asset, before, amount)
	if err != nil {
		return nil, err
	}
	balance, err := e.state.FreeBalance(types.NativeAsset, buyer)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(cost) < 0 {
		return nil, fmt.Errorf("%w: cost %s exceeds balance %s", vineerrors.ErrInsufficientFunds, cost, balance)
	}
	if err := e.state.Transfer(types.NativeAsset, buyer, ReserveAccount(asset), cost); err != nil {
		return nil, err
	}
	if err := e.state.Deposit(id, buyer, amount); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.TokenMinted{Buyer: buyer, AssetID: id, Amount: new(big.Int).Set(amount), Cost: new(big.Int).Set(cost)})
	return cost, nil
}

// Sell burns amount of the asset from seller and pays back the curve value
// of the retired interval [supply-amount, supply) from the asset reserve.
func (e *Engine) Sell(seller [20]byte, id types.AssetID, amount *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := positive(amount); err != nil {
		return nil, err
	}
	asset, err := e.mustAsset(id)
	if err != nil {
		return nil, err
	}
	if err := e.state.EnsureCanWithdraw(id, seller, amount); err != nil {
		return nil, err
	}
	before, err := e.supplyOf(asset)
	if err != nil {
		return nil, err
	}
	refund, err := curve.Refund(asset.Variant(), before, amount)
	if err != nil {
		return nil, err
	}
	if err := e.state.Withdraw(id, seller, amount); err != nil {
		return nil, err
	}
	if err := e.state.Transfer(types.NativeAsset, ReserveAccount(asset), seller, refund); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.TokenBurned{Seller: seller, AssetID: id, Amount: new(big.Int).Set(amount), Refund: new(big.Int).Set(refund)})
	return refund, nil
}

// SpotPrice computes the average cost per circulating unit, caches it on the
// asset entry and announces it. Assets with no circulating supply have no
// defined price.
func (e *Engine) SpotPrice(id types.AssetID) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	asset, err := e.mustAsset(id)
	if err != nil {
		return nil, err
	}
	supply, err := e.supplyOf(asset)
	if err != nil {
		return nil, err
	}
	price, err := curve.SpotPrice(asset.Variant(), supply)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", id, err)
	}
	asset.HasSpotPrice = true
	asset.SpotPrice = new(big.Int).Set(price)
	if err := e.state.KVPut(assetKey(id), asset); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.SpotPriceUpdated{AssetID: id, Price: new(big.Int).Set(price)})
	return price, nil
}

// Airdrop mints amount of the asset to every beneficiary. Only the asset
// creator may airdrop, and the creator pays the curve cost of the whole batch
// into the asset reserve so later sells stay funded.
func (e *Engine) Airdrop(caller [20]byte, id types.AssetID, beneficiaries [][20]byte, amount *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := positive(amount); err != nil {
		return nil, err
	}
	if len(beneficiaries) == 0 {
		return nil, fmt.Errorf("%w: no beneficiaries", vineerrors.ErrMalformedPayload)
	}
	asset, err := e.mustAsset(id)
	if err != nil {
		return nil, err
	}
	if asset.Creator != caller {
		return nil, fmt.Errorf("%w: asset %s", vineerrors.ErrNotAssetCreator, id)
	}
	before, err := e.supplyOf(asset)
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Mul(amount, big.NewInt(int64(len(beneficiaries))))
	cost, err := e.mintCost(asset, before, total)
	if err != nil {
		return nil, err
	}
	if err := e.state.Transfer(types.NativeAsset, caller, ReserveAccount(asset), cost); err != nil {
		return nil, err
	}
	for _, beneficiary := range beneficiaries {
		if err := e.state.Deposit(id, beneficiary, amount); err != nil {
			return nil, err
		}
	}
	e.emitter.Emit(events.TokensAirdropped{
		AssetID:       id,
		Creator:       caller,
		Amount:        new(big.Int).Set(amount),
		Cost:          new(big.Int).Set(cost),
		Beneficiaries: append([][20]byte(nil), beneficiaries...),
	})
	return cost, nil
}

// Quote prices a hypothetical trade without touching state.
func (e *Engine) Quote(id types.AssetID, amount *big.Int, side Side) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := positive(amount); err != nil {
		return nil, err
	}
	asset, err := e.mustAsset(id)
	if err != nil {
		return nil, err
	}
	supply, err := e.supplyOf(asset)
	if err != nil {
		return nil, err
	}
	if side == SideSell {
		if amount.Cmp(supply) > 0 {
			return nil, fmt.Errorf("%w: selling %s of supply %s", vineerrors.ErrInsufficientBalance, amount, supply)
		}
		return curve.Refund(asset.Variant(), supply, amount)
	}
	return e.mintCost(asset, supply, amount)
}

func (e *Engine) mintCost(asset *Asset, before, amount *big.Int) (*big.Int, error) {
	after := new(big.Int).Add(before, amount)
	if after.Cmp(asset.MaxSupply) > 0 {
		return nil, fmt.Errorf("%w: %s > %s", vineerrors.ErrSupplyCapExceeded, after, asset.MaxSupply)
	}
	return curve.Cost(asset.Variant(), before, amount)
}
