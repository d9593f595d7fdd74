package events

import (
	"math/big"

	"vinechain/core/types"
)

const (
	TypeContentCreated = "content.created"
	TypeContentViewed  = "content.viewed"
	TypeRewardAccrued  = "reward.accrued"

	// RewardSourceCreation tags rewards paid for publishing content.
	RewardSourceCreation = "creation"
	// RewardSourceView tags rewards paid for a distinct view.
	RewardSourceView = "view"
)

type ContentCreated struct {
	ContentID    uint64
	Creator      [20]byte
	CollectionID uint64
	MetadataHash [32]byte
}

func (ContentCreated) EventType() string { return TypeContentCreated }

func (e ContentCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeContentCreated,
		Attributes: map[string]string{
			"contentId":    uintToString(e.ContentID),
			"creator":      addr(e.Creator),
			"collectionId": uintToString(e.CollectionID),
			"metadataHash": hexHash(e.MetadataHash),
		},
	}
}

type ContentViewed struct {
	Viewer    [20]byte
	ContentID uint64
	ViewCount uint64
}

func (ContentViewed) EventType() string { return TypeContentViewed }

func (e ContentViewed) Event() *types.Event {
	return &types.Event{
		Type: TypeContentViewed,
		Attributes: map[string]string{
			"viewer":    addr(e.Viewer),
			"contentId": uintToString(e.ContentID),
			"viewCount": uintToString(e.ViewCount),
		},
	}
}

type RewardAccrued struct {
	Identity [20]byte
	Amount   *big.Int
	Source   string
}

func (RewardAccrued) EventType() string { return TypeRewardAccrued }

func (e RewardAccrued) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardAccrued,
		Attributes: map[string]string{
			"identity": addr(e.Identity),
			"amount":   formatAmount(e.Amount),
			"source":   e.Source,
		},
	}
}
