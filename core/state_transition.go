package core

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	vineerrors "vinechain/core/errors"
	"vinechain/core/events"
	"vinechain/core/state"
	"vinechain/core/types"
	"vinechain/native/content"
	"vinechain/native/curve"
	"vinechain/native/identity"
	"vinechain/native/issuance"
	"vinechain/observability/metrics"
	"vinechain/storage/trie"
)

var headKey = []byte("vine/head")

// Head is the last committed state root and the number of commits behind it.
type Head struct {
	Root   common.Hash
	Height uint64
}

// Receipt describes the outcome of an applied transaction.
type Receipt struct {
	TxHash hexutil.Bytes  `json:"txHash"`
	Type   string         `json:"type"`
	Sender [20]byte       `json:"-"`
	Root   common.Hash    `json:"root"`
	Height uint64         `json:"height"`
	Amount *big.Int       `json:"amount,omitempty"`
	ID     uint64         `json:"id,omitempty"`
	Events []*types.Event `json:"events"`
}

// ProcessorParams carries the economic constants of every engine.
type ProcessorParams struct {
	Issuance issuance.Params
	Content  content.Params
}

// StateProcessor applies transactions to the state trie. Every transaction is
// atomic: the trie is snapshotted before dispatch and restored on failure,
// and events reach the sink only after the new root has been committed.
//
// StateProcessor is not safe for concurrent use; Node serializes access.
type StateProcessor struct {
	Trie     *trie.Trie
	State    *state.Manager
	Identity *identity.Registry
	Issuance *issuance.Engine
	Content  *content.Ledger

	buffer *events.Buffer
	sink   events.Emitter
	head   Head

	metrics *metrics.EconomyMetrics
	tracer  trace.Tracer
	latency metric.Float64Histogram
}

// NewStateProcessor wires the engines onto tr. The processor starts at the
// committed root of tr with the supplied height.
func NewStateProcessor(tr *trie.Trie, height uint64, params ProcessorParams) (*StateProcessor, error) {
	manager := state.NewManager(tr)
	buffer := &events.Buffer{}

	registry := identity.NewRegistry()
	registry.SetState(manager)
	registry.SetEmitter(buffer)

	issuer := issuance.NewEngine()
	issuer.SetState(manager)
	issuer.SetEmitter(buffer)
	issuer.SetLinker(registry)
	issuer.SetParams(params.Issuance)

	ledger := content.NewLedger()
	ledger.SetState(manager)
	ledger.SetEmitter(buffer)
	ledger.SetDirectory(registry)
	ledger.SetParams(params.Content)

	latency, err := otel.Meter("vinechain/core").Float64Histogram(
		"vine.tx.apply.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Time spent applying and committing a transaction."),
	)
	if err != nil {
		return nil, fmt.Errorf("create latency histogram: %w", err)
	}

	return &StateProcessor{
		Trie:     tr,
		State:    manager,
		Identity: registry,
		Issuance: issuer,
		Content:  ledger,
		buffer:   buffer,
		sink:     events.NoopEmitter{},
		head:     Head{Root: tr.Root(), Height: height},
		metrics:  metrics.Economy(),
		tracer:   otel.Tracer("vinechain/core"),
		latency:  latency,
	}, nil
}

// SetSink configures where committed events are delivered.
func (sp *StateProcessor) SetSink(sink events.Emitter) {
	if sink == nil {
		sp.sink = events.NoopEmitter{}
		return
	}
	sp.sink = sink
}

// SetNowFunc overrides the clock of every engine.
func (sp *StateProcessor) SetNowFunc(now func() int64) {
	sp.Identity.SetNowFunc(now)
	sp.Issuance.SetNowFunc(now)
	sp.Content.SetNowFunc(now)
}

// Head returns the last committed root and height.
func (sp *StateProcessor) Head() Head { return sp.head }

// Atomically runs fn inside a snapshot boundary and commits on success. It
// is used for genesis and by Apply.
func (sp *StateProcessor) Atomically(fn func() error) ([]events.Event, error) {
	snap := sp.Trie.Snapshot()
	sp.buffer.Reset()
	if err := fn(); err != nil {
		sp.Trie.Restore(snap)
		sp.buffer.Reset()
		return nil, err
	}
	root, err := sp.Trie.Commit(sp.head.Height + 1)
	if err != nil {
		sp.Trie.Restore(snap)
		sp.buffer.Reset()
		return nil, fmt.Errorf("commit state: %w", err)
	}
	next := Head{Root: root, Height: sp.head.Height + 1}
	if err := persistHead(sp.Trie, next); err != nil {
		// The committed nodes stay on disk unreferenced; the stored head
		// still names the previous root.
		sp.Trie.Restore(snap)
		sp.buffer.Reset()
		return nil, err
	}
	sp.head = next
	return sp.buffer.Flush(sp.sink), nil
}

// Apply authenticates tx, checks its nonce and runs the operation it names.
func (sp *StateProcessor) Apply(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: nil transaction", vineerrors.ErrMalformedPayload)
	}
	started := time.Now()
	ctx, span := sp.tracer.Start(ctx, "vine.tx.apply", trace.WithAttributes(
		attribute.String("vine.tx.type", tx.Type.String()),
		attribute.Int64("vine.tx.nonce", int64(tx.Nonce)),
	))
	defer span.End()

	receipt, err := sp.apply(tx)
	elapsed := time.Since(started)
	sp.latency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("type", tx.Type.String())))
	if err != nil {
		outcome := vineerrors.KindOf(err).String()
		sp.metrics.ObserveTransaction(tx.Type.String(), outcome, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, vineerrors.CodeOf(err))
		return nil, err
	}
	sp.metrics.ObserveTransaction(tx.Type.String(), "ok", elapsed)
	span.SetAttributes(attribute.String("vine.state.root", receipt.Root.Hex()))
	return receipt, nil
}

func (sp *StateProcessor) apply(tx *types.Transaction) (*Receipt, error) {
	sender, err := tx.From()
	if err != nil {
		return nil, err
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	receipt := &Receipt{TxHash: hash, Type: tx.Type.String(), Sender: sender}
	emitted, err := sp.Atomically(func() error {
		if err := sp.State.ConsumeNonce(sender, tx.Nonce); err != nil {
			return err
		}
		return sp.dispatch(sender, tx, receipt)
	})
	if err != nil {
		return nil, err
	}
	receipt.Root = sp.head.Root
	receipt.Height = sp.head.Height
	receipt.Events = make([]*types.Event, 0, len(emitted))
	for _, evt := range emitted {
		receipt.Events = append(receipt.Events, events.Render(evt))
		sp.observe(evt)
	}
	return receipt, nil
}

func (sp *StateProcessor) dispatch(sender [20]byte, tx *types.Transaction, receipt *Receipt) error {
	switch tx.Type {
	case types.TxTypeRegisterUser:
		var p types.RegisterUserPayload
		if err := tx.DecodePayload(&p); err != nil {
			return err
		}
		user, err := sp.Identity.Register(sender, p.Name, p.ProfileImage)
		if err != nil {
			return err
		}
		receipt.ID = user.ID
	case types.TxTypeCreateAsset:
		var p types.CreateAssetPayload
		if err := tx.DecodePayload(&p); err != nil {
			return err
		}
		asset, err := sp.Issuance.CreateAsset(sender, issuance.CreateAssetRequest{
			AssetID:   types.AssetID(p.AssetID),
			Curve:     curve.Variant(p.Curve),
			MaxSupply: p.MaxSupply,
			Name:      p.Name,
			Symbol:    p.Symbol,
			Decimals:  p.Decimals,
		})
		if err != nil {
			return err
		}
		receipt.ID = asset.ID
	case types.TxTypeBuy, types.TxTypeSell:
		var p types.TradePayload
		if err := tx.DecodePayload(&p); err != nil {
			return err
		}
		trade := sp.Issuance.Buy
		if tx.Type == types.TxTypeSell {
			trade = sp.Issuance.Sell
		}
		amount, err := trade(sender, types.AssetID(p.AssetID), p.Amount)
		if err != nil {
			return err
		}
		receipt.ID = p.AssetID
		receipt.Amount = amount
	case types.TxTypeSpotPrice:
		var p types.SpotPricePayload
		if err := tx.DecodePayload(&p); err != nil {
			return err
		}
		price, err := sp.Issuance.SpotPrice(types.AssetID(p.AssetID))
		if err != nil {
			return err
		}
		receipt.ID = p.AssetID
		receipt.Amount = price
	case types.TxTypeAirdrop:
		var p types.AirdropPayload
		if err := tx.DecodePayload(&p); err != nil {
			return err
		}
		cost, err := sp.Issuance.Airdrop(sender, types.AssetID(p.AssetID), p.Beneficiaries, p.Amount)
		if err != nil {
			return err
		}
		receipt.ID = p.AssetID
		receipt.Amount = cost
	case types.TxTypePostContent:
		var p types.PostContentPayload
		if err := tx.DecodePayload(&p); err != nil {
			return err
		}
		item, err := sp.Content.PostContent(sender, p.ContentID, []byte(p.Metadata))
		if err != nil {
			return err
		}
		receipt.ID = item.ID
	case types.TxTypeViewContent:
		var p types.ViewContentPayload
		if err := tx.DecodePayload(&p); err != nil {
			return err
		}
		reward, err := sp.Content.RegisterView(sender, p.ContentID)
		if err != nil {
			return err
		}
		receipt.ID = p.ContentID
		receipt.Amount = reward
	default:
		return fmt.Errorf("%w: %s", vineerrors.ErrUnknownTxType, tx.Type)
	}
	return nil
}

func (sp *StateProcessor) observe(evt events.Event) {
	switch e := evt.(type) {
	case events.TokenMinted:
		sp.metrics.ObserveMint(e.AssetID.String(), e.Amount, e.Cost)
	case events.TokensAirdropped:
		total := new(big.Int).Mul(e.Amount, big.NewInt(int64(len(e.Beneficiaries))))
		sp.metrics.ObserveMint(e.AssetID.String(), total, e.Cost)
	case events.TokenBurned:
		sp.metrics.ObserveBurn(e.AssetID.String(), e.Amount, e.Refund)
	case events.RewardAccrued:
		sp.metrics.ObserveReward(e.Source, e.Amount)
	case events.SpotPriceUpdated:
		sp.metrics.SetSpotPrice(e.AssetID.String(), e.Price)
	}
}

func persistHead(tr *trie.Trie, head Head) error {
	encoded, err := rlp.EncodeToBytes(head)
	if err != nil {
		return err
	}
	if err := tr.Store().Put(headKey, encoded); err != nil {
		return fmt.Errorf("persist head: %w", err)
	}
	return nil
}
