package core

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"vinechain/core/events"
	"vinechain/core/types"
)

const (
	eventHistoryLimit   = 2048
	defaultStreamBuffer = 32
)

// StreamUpdate is one committed event as delivered to stream subscribers.
type StreamUpdate struct {
	Sequence uint64       `json:"sequence"`
	Cursor   string       `json:"cursor"`
	Event    *types.Event `json:"event"`
}

func cloneStreamUpdate(update StreamUpdate) StreamUpdate {
	cloned := update
	if update.Event != nil {
		attrs := make(map[string]string, len(update.Event.Attributes))
		for k, v := range update.Event.Attributes {
			attrs[k] = v
		}
		cloned.Event = &types.Event{Type: update.Event.Type, Attributes: attrs}
	}
	return cloned
}

// EventStream fans committed events out to live subscribers and keeps a
// bounded history so reconnecting clients can resume from a cursor. Slow
// subscribers miss updates rather than block the state processor.
type EventStream struct {
	mu      sync.Mutex
	seq     uint64
	nextID  uint64
	history []StreamUpdate
	subs    map[uint64]chan StreamUpdate
	buffer  int

	// OnSubscribe is invoked with +1 and -1 as subscribers come and go.
	OnSubscribe func(delta int)
}

var _ events.Emitter = (*EventStream)(nil)

// NewEventStream creates a stream whose subscriber channels hold buffer
// updates.
func NewEventStream(buffer int) *EventStream {
	if buffer <= 0 {
		buffer = defaultStreamBuffer
	}
	return &EventStream{subs: make(map[uint64]chan StreamUpdate), buffer: buffer}
}

// Emit publishes evt to every subscriber.
func (s *EventStream) Emit(evt events.Event) {
	if s == nil || evt == nil {
		return
	}
	rendered := events.Render(evt)
	if rendered == nil {
		return
	}

	s.mu.Lock()
	s.seq++
	update := StreamUpdate{Sequence: s.seq, Cursor: strconv.FormatUint(s.seq, 10), Event: rendered}
	s.history = append(s.history, update)
	if len(s.history) > eventHistoryLimit {
		excess := len(s.history) - eventHistoryLimit
		trimmed := make([]StreamUpdate, eventHistoryLimit)
		copy(trimmed, s.history[excess:])
		s.history = trimmed
	}
	// Sends happen under the lock so cancel cannot close a channel mid-send.
	for _, ch := range s.subs {
		select {
		case ch <- cloneStreamUpdate(update):
		default:
		}
	}
	s.mu.Unlock()
}

// Subscribe registers a subscriber for updates after cursor. The backlog
// holds retained history past the cursor; cancel releases the subscription
// and is also called when ctx ends.
func (s *EventStream) Subscribe(ctx context.Context, cursor string) (<-chan StreamUpdate, func(), []StreamUpdate) {
	updates := make(chan StreamUpdate, s.buffer)

	var since uint64
	if trimmed := strings.TrimSpace(cursor); trimmed != "" {
		if parsed, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
			since = parsed
		}
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = updates
	history := make([]StreamUpdate, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()
	if s.OnSubscribe != nil {
		s.OnSubscribe(1)
	}

	backlog := make([]StreamUpdate, 0, len(history))
	for _, entry := range history {
		if entry.Sequence > since {
			backlog = append(backlog, cloneStreamUpdate(entry))
		}
	}

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
			s.mu.Lock()
			sub, ok := s.subs[id]
			if ok {
				delete(s.subs, id)
				close(sub)
			}
			s.mu.Unlock()
			if s.OnSubscribe != nil {
				s.OnSubscribe(-1)
			}
		})
	}

	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-done:
			}
		}()
	}

	return updates, cancel, backlog
}
