package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOfWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("%w: total 12 > max 10", ErrSupplyCapExceeded)
	require.True(t, stderrors.Is(err, ErrSupplyCapExceeded))
	require.Equal(t, KindInvariant, KindOf(err))
	require.Equal(t, "SUPPLY_CAP_EXCEEDED", CodeOf(err))
}

func TestKindOfUnclassified(t *testing.T) {
	err := stderrors.New("leveldb: closed")
	require.Equal(t, KindInternal, KindOf(err))
	require.Equal(t, "INTERNAL", CodeOf(err))
	_, ok := Classify(err)
	require.False(t, ok)
}

func TestKindStrings(t *testing.T) {
	require.Equal(t, "arithmetic", KindOf(ErrDivisionByZero).String())
	require.Equal(t, "resource", KindOf(ErrInsufficientFunds).String())
	require.Equal(t, "auth", KindOf(ErrInvalidNonce).String())
	require.Equal(t, "validation", KindOf(ErrUnknownIdentity).String())
}
