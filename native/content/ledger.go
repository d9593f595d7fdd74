package content

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	"lukechampine.com/blake3"

	vineerrors "vinechain/core/errors"
	"vinechain/core/events"
	"vinechain/core/state"
	"vinechain/core/types"
)

var (
	errNilState = errors.New("content ledger: state not configured")

	itemPrefix       = []byte("content/item/")
	viewPrefix       = []byte("content/view/")
	collectionPrefix = []byte("content/collection/")
	ownerPrefix      = []byte("content/owner/")
	rewardsPrefix    = []byte("content/rewards/")
)

type ledgerState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVHas(key []byte) (bool, error)
	NextSequence(name string) (uint64, error)
	AdvanceSequence(name string, value uint64) error
	Transfer(asset types.AssetID, from, to [20]byte, amount *big.Int) error
}

// Directory answers whether an account is a registered identity.
type Directory interface {
	IsRegistered(addr [20]byte) (bool, error)
	IncrementContent(owner [20]byte) error
}

// Ledger records content, distinct paid views and the rewards they earn.
type Ledger struct {
	state     ledgerState
	directory Directory
	emitter   events.Emitter
	params    Params
	nowFn     func() int64
}

// NewLedger constructs a content ledger with the default reward schedule.
func NewLedger() *Ledger {
	return &Ledger{
		emitter: events.NoopEmitter{},
		params:  DefaultParams(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(s ledgerState) { l.state = s }

// SetDirectory configures the identity lookup guarding PostContent.
func (l *Ledger) SetDirectory(d Directory) { l.directory = d }

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetParams replaces the reward schedule.
func (l *Ledger) SetParams(p Params) {
	p.CreationReward = amountOrZero(p.CreationReward)
	p.ViewerReward = amountOrZero(p.ViewerReward)
	p.CreatorViewReward = amountOrZero(p.CreatorViewReward)
	l.params = p
}

// SetNowFunc overrides the time source used for deterministic testing.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

// RewardsAccount is the protocol reserve that funds every payout.
func RewardsAccount() [20]byte { return state.ModuleAccount(state.ModuleRewards) }

func idKey(prefix []byte, id uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[len(prefix):], id)
	return buf
}

func addrKey(prefix []byte, addr [20]byte) []byte {
	return append(append([]byte{}, prefix...), addr[:]...)
}

func viewKey(id uint64, viewer [20]byte) []byte {
	return append(idKey(viewPrefix, id), viewer[:]...)
}

func (l *Ledger) ready() error {
	if l == nil || l.state == nil {
		return errNilState
	}
	return nil
}

// PostContent publishes content for a registered creator and pays the
// creation reward. A zero id allocates the next free content id.
func (l *Ledger) PostContent(creator [20]byte, id uint64, metadata []byte) (*Content, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if l.directory == nil {
		return nil, fmt.Errorf("%w: no identity directory", vineerrors.ErrUnknownIdentity)
	}
	registered, err := l.directory.IsRegistered(creator)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, vineerrors.ErrUnknownIdentity
	}
	if l.params.MaxMetadataBytes > 0 && len(metadata) > l.params.MaxMetadataBytes {
		return nil, fmt.Errorf("%w: metadata exceeds %d bytes", vineerrors.ErrMalformedPayload, l.params.MaxMetadataBytes)
	}

	if id == 0 {
		if id, err = l.state.NextSequence(state.SeqContent); err != nil {
			return nil, err
		}
	} else {
		exists, err := l.state.KVHas(idKey(itemPrefix, id))
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %d", vineerrors.ErrContentExists, id)
		}
		if err := l.state.AdvanceSequence(state.SeqContent, id); err != nil {
			return nil, err
		}
	}

	collection, err := l.collectionFor(creator)
	if err != nil {
		return nil, err
	}
	item := &Content{
		ID:           id,
		Creator:      creator,
		CollectionID: collection.ID,
		MetadataHash: blake3.Sum256(metadata),
		Metadata:     append([]byte(nil), metadata...),
		CreatedAt:    uint64(l.nowFn()),
	}
	if err := l.state.KVPut(idKey(itemPrefix, id), item); err != nil {
		return nil, err
	}
	collection.ItemCount++
	if err := l.state.KVPut(idKey(collectionPrefix, collection.ID), collection); err != nil {
		return nil, err
	}
	if err := l.directory.IncrementContent(creator); err != nil {
		return nil, err
	}
	l.emitter.Emit(events.ContentCreated{
		ContentID:    id,
		Creator:      creator,
		CollectionID: collection.ID,
		MetadataHash: item.MetadataHash,
	})
	if err := l.pay(creator, l.params.CreationReward, events.RewardSourceCreation); err != nil {
		return nil, err
	}
	return item, nil
}

// RegisterView records the first view of id by viewer and pays both the
// viewer and the creator. Each (viewer, content) pair is rewarded once and
// creators are never rewarded for viewing their own content.
func (l *Ledger) RegisterView(viewer [20]byte, id uint64) (*big.Int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	item, ok, err := l.Content(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", vineerrors.ErrContentDoesNotExist, id)
	}
	if item.Creator == viewer {
		return nil, vineerrors.ErrSelfViewNotRewarded
	}
	viewed, err := l.HasViewed(viewer, id)
	if err != nil {
		return nil, err
	}
	if viewed {
		return nil, fmt.Errorf("%w: content %d", vineerrors.ErrAlreadyRewarded, id)
	}

	item.ViewCount++
	if err := l.state.KVPut(idKey(itemPrefix, id), item); err != nil {
		return nil, err
	}
	if err := l.state.KVPut(viewKey(id, viewer), true); err != nil {
		return nil, err
	}
	l.emitter.Emit(events.ContentViewed{Viewer: viewer, ContentID: id, ViewCount: item.ViewCount})
	if err := l.pay(viewer, l.params.ViewerReward, events.RewardSourceView); err != nil {
		return nil, err
	}
	if err := l.pay(item.Creator, l.params.CreatorViewReward, events.RewardSourceView); err != nil {
		return nil, err
	}
	return new(big.Int).Set(l.params.ViewerReward), nil
}

func (l *Ledger) pay(to [20]byte, amount *big.Int, source string) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if err := l.state.Transfer(types.NativeAsset, RewardsAccount(), to, amount); err != nil {
		return fmt.Errorf("content ledger: %s reward: %w", source, err)
	}
	totals, err := l.Rewards(to)
	if err != nil {
		return err
	}
	switch source {
	case events.RewardSourceCreation:
		totals.CreationRewards = addOptional(totals.CreationRewards, amount)
	default:
		totals.ViewRewards = addOptional(totals.ViewRewards, amount)
	}
	if err := l.state.KVPut(addrKey(rewardsPrefix, to), recordOf(totals)); err != nil {
		return err
	}
	l.emitter.Emit(events.RewardAccrued{Identity: to, Amount: new(big.Int).Set(amount), Source: source})
	return nil
}

func (l *Ledger) collectionFor(owner [20]byte) (*Collection, error) {
	existing, ok, err := l.Collection(owner)
	if err != nil {
		return nil, err
	}
	if ok {
		return existing, nil
	}
	id, err := l.state.NextSequence(state.SeqCollection)
	if err != nil {
		return nil, err
	}
	if err := l.state.KVPut(addrKey(ownerPrefix, owner), id); err != nil {
		return nil, err
	}
	return &Collection{ID: id, Owner: owner}, nil
}

// Content loads a content item.
func (l *Ledger) Content(id uint64) (*Content, bool, error) {
	if err := l.ready(); err != nil {
		return nil, false, err
	}
	var item Content
	ok, err := l.state.KVGet(idKey(itemPrefix, id), &item)
	if err != nil || !ok {
		return nil, false, err
	}
	return &item, true, nil
}

// Collection loads the collection owned by owner, if it was created.
func (l *Ledger) Collection(owner [20]byte) (*Collection, bool, error) {
	if err := l.ready(); err != nil {
		return nil, false, err
	}
	var id uint64
	ok, err := l.state.KVGet(addrKey(ownerPrefix, owner), &id)
	if err != nil || !ok {
		return nil, false, err
	}
	var collection Collection
	found, err := l.state.KVGet(idKey(collectionPrefix, id), &collection)
	if err != nil {
		return nil, false, err
	}
	if !found {
		collection = Collection{ID: id, Owner: owner}
	}
	return &collection, true, nil
}

// HasViewed reports whether viewer already claimed the view reward of id.
func (l *Ledger) HasViewed(viewer [20]byte, id uint64) (bool, error) {
	if err := l.ready(); err != nil {
		return false, err
	}
	return l.state.KVHas(viewKey(id, viewer))
}

// Rewards returns the running reward totals of identity.
func (l *Ledger) Rewards(identity [20]byte) (*RewardTotals, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	var record rewardRecord
	if _, err := l.state.KVGet(addrKey(rewardsPrefix, identity), &record); err != nil {
		return nil, err
	}
	return record.totals(identity), nil
}
