package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"vinechain/core/events"
	"vinechain/core/genesis"
	"vinechain/core/state"
	"vinechain/core/types"
	"vinechain/crypto"
	"vinechain/native/content"
	"vinechain/native/identity"
	"vinechain/native/issuance"
	"vinechain/storage"
	"vinechain/storage/trie"
)

// NodeOptions configures a Node.
type NodeOptions struct {
	Params ProcessorParams
	// Genesis seeds an empty database. It is ignored once a head exists.
	Genesis *genesis.Spec
	Sink    events.Emitter
	Logger  *slog.Logger
	Now     func() time.Time
}

// Node is the central controller. It owns the state processor and serializes
// every read and write against it.
type Node struct {
	db     storage.Database
	state  *StateProcessor
	mu     sync.Mutex
	logger *slog.Logger
}

// NewNode opens the state at the persisted head, or applies the genesis spec
// when db holds no state yet.
func NewNode(db storage.Database, opts NodeOptions) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("node: database must not be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	head, found, err := loadHead(db)
	if err != nil {
		return nil, err
	}
	var root []byte
	if found {
		root = head.Root.Bytes()
	}
	tr, err := trie.NewTrie(db, root)
	if err != nil {
		return nil, fmt.Errorf("open state trie: %w", err)
	}
	processor, err := NewStateProcessor(tr, head.Height, opts.Params)
	if err != nil {
		return nil, err
	}
	if !found {
		if err := applyGenesis(processor, opts.Genesis); err != nil {
			return nil, err
		}
		logger.Info("genesis applied",
			slog.String("root", processor.Head().Root.Hex()),
			slog.Uint64("height", processor.Head().Height))
	} else {
		if err := processor.State.EnsureSchemaVersion(); err != nil {
			return nil, err
		}
		logger.Info("state loaded",
			slog.String("root", head.Root.Hex()),
			slog.Uint64("height", head.Height))
	}
	if opts.Now != nil {
		now := opts.Now
		processor.SetNowFunc(func() int64 { return now().Unix() })
	}
	processor.SetSink(opts.Sink)

	return &Node{db: db, state: processor, logger: logger}, nil
}

func loadHead(db storage.Database) (Head, bool, error) {
	raw, err := db.Get(headKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Head{}, false, nil
	}
	if err != nil {
		return Head{}, false, fmt.Errorf("read head: %w", err)
	}
	var head Head
	if err := rlp.DecodeBytes(raw, &head); err != nil {
		return Head{}, false, fmt.Errorf("decode head: %w", err)
	}
	return head, true, nil
}

func applyGenesis(sp *StateProcessor, spec *genesis.Spec) error {
	if spec == nil {
		_, err := sp.Atomically(func() error {
			return sp.State.SetSchemaVersion(state.SchemaVersion)
		})
		return err
	}
	if ts := spec.GenesisTimestamp(); !ts.IsZero() {
		sp.Identity.SetNowFunc(func() int64 { return ts.Unix() })
		defer sp.Identity.SetNowFunc(nil)
	}
	register := genesis.RegistrarFunc(func(caller [20]byte, name, image string) error {
		_, err := sp.Identity.Register(caller, name, image)
		return err
	})
	_, err := sp.Atomically(func() error {
		if err := sp.State.SetSchemaVersion(state.SchemaVersion); err != nil {
			return err
		}
		return genesis.Apply(spec, sp.State, register)
	})
	if err != nil {
		return fmt.Errorf("apply genesis: %w", err)
	}
	return nil
}

// SubmitTransaction applies tx immediately and returns its receipt.
func (n *Node) SubmitTransaction(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	receipt, err := n.state.Apply(ctx, tx)
	if err != nil {
		attrs := []any{slog.Any("error", err)}
		if tx != nil {
			attrs = append(attrs, slog.String("type", tx.Type.String()), slog.Uint64("nonce", tx.Nonce))
			if from, fromErr := tx.From(); fromErr == nil {
				attrs = append(attrs, slog.String("sender", crypto.FormatAddress(from)))
			}
		}
		n.logger.Warn("transaction rejected", attrs...)
		return nil, err
	}
	n.logger.Debug("transaction applied",
		slog.String("type", receipt.Type),
		slog.String("sender", crypto.FormatAddress(receipt.Sender)),
		slog.String("root", receipt.Root.Hex()),
		slog.Uint64("height", receipt.Height))
	return receipt, nil
}

// Root returns the committed state root.
func (n *Node) Root() common.Hash {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Head().Root
}

// Height returns the number of commits applied so far.
func (n *Node) Height() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Head().Height
}

// Nonce returns the next nonce expected from addr.
func (n *Node) Nonce(addr [20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.State.Nonce(addr)
}

// Balance holds the free and reserved balance of an account in one asset.
type Balance struct {
	Free     *big.Int
	Reserved *big.Int
}

// Balance returns the balances of addr in asset.
func (n *Node) Balance(asset types.AssetID, addr [20]byte) (*Balance, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	free, err := n.state.State.FreeBalance(asset, addr)
	if err != nil {
		return nil, err
	}
	reserved, err := n.state.State.ReservedBalance(asset, addr)
	if err != nil {
		return nil, err
	}
	return &Balance{Free: free, Reserved: reserved}, nil
}

// Asset returns the metadata of id.
func (n *Node) Asset(id types.AssetID) (*issuance.Asset, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Issuance.Asset(id)
}

// Supply returns the circulating supply of id.
func (n *Node) Supply(id types.AssetID) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Issuance.Supply(id)
}

// Quote prices a trade of amount without mutating state.
func (n *Node) Quote(id types.AssetID, amount *big.Int, side issuance.Side) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Issuance.Quote(id, amount, side)
}

// User returns the user registered under id.
func (n *Node) User(id uint64) (*identity.User, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Identity.User(id)
}

// ResolveUser returns the user owning addr.
func (n *Node) ResolveUser(addr [20]byte) (*identity.User, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Identity.Resolve(addr)
}

// Content returns the content item id.
func (n *Node) Content(id uint64) (*content.Content, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Content.Content(id)
}

// Collection returns the collection owned by owner.
func (n *Node) Collection(owner [20]byte) (*content.Collection, bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Content.Collection(owner)
}

// HasViewed reports whether viewer has a rewarded view of id.
func (n *Node) HasViewed(viewer [20]byte, id uint64) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Content.HasViewed(viewer, id)
}

// Rewards returns the lifetime reward totals of addr.
func (n *Node) Rewards(addr [20]byte) (*content.RewardTotals, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Content.Rewards(addr)
}

// Close releases the database handle.
func (n *Node) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.db.Close()
}
