package state

import "fmt"

var sequencePrefix = []byte("seq/")

// Sequence names persisted in state.
const (
	SeqAssetCurve = "asset-curve"
	SeqContent    = "content"
	SeqUser       = "user"
	SeqCollection = "collection"
)

func sequenceKey(name string) []byte {
	return append(append([]byte{}, sequencePrefix...), name...)
}

// PeekSequence returns the last value handed out for name, zero when unused.
func (m *Manager) PeekSequence(name string) (uint64, error) {
	var current uint64
	if _, err := m.KVGet(sequenceKey(name), &current); err != nil {
		return 0, err
	}
	return current, nil
}

// NextSequence increments the named counter and returns the new value. The
// first value is 1, so zero can mean "unassigned".
func (m *Manager) NextSequence(name string) (uint64, error) {
	current, err := m.PeekSequence(name)
	if err != nil {
		return 0, err
	}
	if current == ^uint64(0) {
		return 0, fmt.Errorf("sequence %s exhausted", name)
	}
	next := current + 1
	if err := m.KVPut(sequenceKey(name), next); err != nil {
		return 0, err
	}
	return next, nil
}

// AdvanceSequence raises the counter to at least value so explicitly chosen
// ids are never handed out again.
func (m *Manager) AdvanceSequence(name string, value uint64) error {
	current, err := m.PeekSequence(name)
	if err != nil {
		return err
	}
	if value <= current {
		return nil
	}
	return m.KVPut(sequenceKey(name), value)
}
