package core

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"vinechain/core/events"
)

func TestEventStreamBacklogAndLive(t *testing.T) {
	stream := NewEventStream(4)
	stream.Emit(events.SpotPriceUpdated{AssetID: 1, Price: big.NewInt(10)})
	stream.Emit(events.SpotPriceUpdated{AssetID: 1, Price: big.NewInt(11)})

	updates, cancel, backlog := stream.Subscribe(context.Background(), "1")
	defer cancel()
	require.Len(t, backlog, 1)
	require.Equal(t, "11", backlog[0].Event.Attributes["price"])

	stream.Emit(events.ContentViewed{ContentID: 3, ViewCount: 1})
	update := <-updates
	require.Equal(t, uint64(3), update.Sequence)
	require.Equal(t, events.TypeContentViewed, update.Event.Type)
}

func TestEventStreamCancelClosesChannel(t *testing.T) {
	stream := NewEventStream(1)
	var active int
	stream.OnSubscribe = func(delta int) { active += delta }

	ctx, stop := context.WithCancel(context.Background())
	updates, cancel, _ := stream.Subscribe(ctx, "")
	require.Equal(t, 1, active)
	cancel()
	_, ok := <-updates
	require.False(t, ok)
	require.Equal(t, 0, active)
	stop()

	// Full subscriber channels drop updates instead of blocking.
	other, cancelOther, _ := stream.Subscribe(context.Background(), "")
	defer cancelOther()
	stream.Emit(events.SpotPriceUpdated{AssetID: 1, Price: big.NewInt(1)})
	stream.Emit(events.SpotPriceUpdated{AssetID: 1, Price: big.NewInt(2)})
	require.Len(t, other, 1)
}

func TestEventStreamCancelDuringEmit(t *testing.T) {
	stream := NewEventStream(1)
	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for {
			select {
			case <-stop:
				return
			default:
				stream.Emit(events.SpotPriceUpdated{AssetID: 1, Price: big.NewInt(1)})
			}
		}
	}()

	for i := 0; i < 20_000; i++ {
		_, cancel, _ := stream.Subscribe(context.Background(), "")
		cancel()
	}
	close(stop)
	<-finished
}
