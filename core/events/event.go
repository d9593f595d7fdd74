package events

import "vinechain/core/types"

// Event represents a structured state change emitted by the chain.
type Event interface {
	EventType() string
}

// Structured is implemented by events that can render themselves as a flat
// attribute payload for indexers and websocket subscribers.
type Structured interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Buffer collects events emitted during one transaction. The processor flushes
// it after commit and resets it after rollback, so watchers never observe
// events of a failed operation.
type Buffer struct {
	events []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if evt == nil {
		return
	}
	b.events = append(b.events, evt)
}

// Events returns the buffered events in emission order.
func (b *Buffer) Events() []Event {
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Reset drops all buffered events.
func (b *Buffer) Reset() { b.events = b.events[:0] }

// Flush forwards the buffered events to dst in order and resets the buffer.
func (b *Buffer) Flush(dst Emitter) []Event {
	flushed := b.Events()
	if dst != nil {
		for _, evt := range flushed {
			dst.Emit(evt)
		}
	}
	b.Reset()
	return flushed
}

// Fanout delivers every event to each emitter in order.
type Fanout []Emitter

// Emit implements the Emitter interface.
func (f Fanout) Emit(evt Event) {
	for _, e := range f {
		if e != nil {
			e.Emit(evt)
		}
	}
}

// Render converts evt to its attribute payload, falling back to a bare type.
func Render(evt Event) *types.Event {
	if evt == nil {
		return nil
	}
	if s, ok := evt.(Structured); ok {
		if rendered := s.Event(); rendered != nil {
			return rendered
		}
	}
	return &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
}
