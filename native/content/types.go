package content

import "math/big"

// Content is one posted content unit.
type Content struct {
	ID           uint64
	Creator      [20]byte
	ViewCount    uint64
	ShareCount   uint64
	CommentCount uint64
	CollectionID uint64
	MetadataHash [32]byte
	Metadata     []byte
	CreatedAt    uint64
}

// Collection groups the content of a single creator. Every creator owns at
// most one, created on their first post.
type Collection struct {
	ID        uint64
	Owner     [20]byte
	ItemCount uint64
}

// RewardTotals aggregates the rewards earned by an identity. A nil field means
// nothing has been earned from that source yet.
type RewardTotals struct {
	Identity        [20]byte
	CreationRewards *big.Int
	ViewRewards     *big.Int
}

// rewardRecord is the stored form of RewardTotals. RLP has no nil big
// integers, so presence is kept in explicit flags.
type rewardRecord struct {
	HasCreation bool
	Creation    *big.Int
	HasView     bool
	View        *big.Int
}

func (r *rewardRecord) totals(identity [20]byte) *RewardTotals {
	out := &RewardTotals{Identity: identity}
	if r.HasCreation {
		out.CreationRewards = amountOrZero(r.Creation)
	}
	if r.HasView {
		out.ViewRewards = amountOrZero(r.View)
	}
	return out
}

func recordOf(t *RewardTotals) *rewardRecord {
	return &rewardRecord{
		HasCreation: t.CreationRewards != nil,
		Creation:    amountOrZero(t.CreationRewards),
		HasView:     t.ViewRewards != nil,
		View:        amountOrZero(t.ViewRewards),
	}
}

// Total returns the sum of both sources.
func (r *RewardTotals) Total() *big.Int {
	out := big.NewInt(0)
	if r == nil {
		return out
	}
	if r.CreationRewards != nil {
		out.Add(out, r.CreationRewards)
	}
	if r.ViewRewards != nil {
		out.Add(out, r.ViewRewards)
	}
	return out
}

// Params are the fixed reward amounts paid by the ledger, denominated in the
// reserve currency.
type Params struct {
	CreationReward    *big.Int
	ViewerReward      *big.Int
	CreatorViewReward *big.Int
	MaxMetadataBytes  int
}

// DefaultParams returns the reward schedule used when none is configured.
func DefaultParams() Params {
	return Params{
		CreationReward:    big.NewInt(100),
		ViewerReward:      big.NewInt(10),
		CreatorViewReward: big.NewInt(5),
		MaxMetadataBytes:  4096,
	}
}

func addOptional(current, delta *big.Int) *big.Int {
	if current == nil {
		return new(big.Int).Set(delta)
	}
	return new(big.Int).Add(current, delta)
}

func amountOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
