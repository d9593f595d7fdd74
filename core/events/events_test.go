package events

import (
	"math/big"
	"testing"

	"vinechain/crypto"
)

func TestTokenMintedEvent(t *testing.T) {
	buyer := [20]byte{0x01}
	evt := TokenMinted{Buyer: buyer, AssetID: 7, Amount: big.NewInt(10), Cost: big.NewInt(1960)}.Event()
	if evt.Type != TypeTokenMinted {
		t.Fatalf("unexpected type: %s", evt.Type)
	}
	if evt.Attributes["buyer"] != crypto.FormatAddress(buyer) {
		t.Fatalf("unexpected buyer attr: %s", evt.Attributes["buyer"])
	}
	if evt.Attributes["assetId"] != "7" || evt.Attributes["amount"] != "10" || evt.Attributes["cost"] != "1960" {
		t.Fatalf("unexpected attrs: %+v", evt.Attributes)
	}
}

func TestRewardAccruedNilAmount(t *testing.T) {
	evt := RewardAccrued{Identity: [20]byte{0x02}, Source: RewardSourceView}.Event()
	if evt.Attributes["amount"] != "0" {
		t.Fatalf("expected zero amount, got %s", evt.Attributes["amount"])
	}
	if evt.Attributes["source"] != "view" {
		t.Fatalf("unexpected source: %s", evt.Attributes["source"])
	}
}

func TestBufferFlushPreservesOrder(t *testing.T) {
	var buf Buffer
	buf.Emit(SpotPriceUpdated{AssetID: 1, Price: big.NewInt(3)})
	buf.Emit(nil)
	buf.Emit(ContentViewed{ContentID: 4, ViewCount: 1})

	var sink Buffer
	flushed := buf.Flush(&sink)
	if len(flushed) != 2 {
		t.Fatalf("expected 2 flushed events, got %d", len(flushed))
	}
	got := sink.Events()
	if got[0].EventType() != TypeSpotPriceUpdated || got[1].EventType() != TypeContentViewed {
		t.Fatalf("unexpected order: %s, %s", got[0].EventType(), got[1].EventType())
	}
	if len(buf.Events()) != 0 {
		t.Fatalf("buffer not reset after flush")
	}
}

type bareEvent struct{}

func (bareEvent) EventType() string { return "bare" }

func TestRenderFallsBackToType(t *testing.T) {
	rendered := Render(bareEvent{})
	if rendered.Type != "bare" || rendered.Attributes == nil {
		t.Fatalf("unexpected render: %+v", rendered)
	}
	var structured Event = AssetCreated{AssetID: 9, Symbol: " vine "}
	got := Render(structured)
	if got.Attributes["symbol"] != "VINE" {
		t.Fatalf("unexpected symbol: %s", got.Attributes["symbol"])
	}
}

func TestFanoutSkipsNil(t *testing.T) {
	var a, b Buffer
	Fanout{&a, nil, &b}.Emit(IdentityRegistered{UserID: 1, Name: "alice"})
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatalf("fanout did not reach every emitter")
	}
}
