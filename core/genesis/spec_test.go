package genesis

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"vinechain/core/types"
	"vinechain/crypto"
	"vinechain/native/content"
)

type memAllocator struct {
	order    [][20]byte
	balances map[[20]byte]*big.Int
}

func (m *memAllocator) Deposit(asset types.AssetID, addr [20]byte, amount *big.Int) error {
	if m.balances == nil {
		m.balances = make(map[[20]byte]*big.Int)
	}
	m.order = append(m.order, addr)
	m.balances[addr] = new(big.Int).Set(amount)
	return nil
}

type memRegistrar struct {
	names map[[20]byte]string
}

func (m *memRegistrar) Register(caller [20]byte, name, _ string) error {
	if m.names == nil {
		m.names = make(map[[20]byte]string)
	}
	m.names[caller] = name
	return nil
}

func TestLoadSpecAndApply(t *testing.T) {
	alice := crypto.FormatAddress([20]byte{0x02})
	bob := crypto.FormatAddress([20]byte{0x01})
	doc := "genesisTime: \"2024-01-02T03:04:05Z\"\n" +
		"rewardsReserve: \"1_000_000\"\n" +
		"alloc:\n" +
		"  " + alice + ": \"500\"\n" +
		"  " + bob + ": \"7\"\n" +
		"users:\n" +
		"  - address: " + alice + "\n" +
		"    name: alice\n"
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	spec, err := LoadSpec(path)
	require.NoError(t, err)
	require.Equal(t, int64(1704164645), spec.GenesisTimestamp().Unix())

	alloc := &memAllocator{}
	users := &memRegistrar{}
	require.NoError(t, Apply(spec, alloc, users))
	require.Equal(t, [][20]byte{content.RewardsAccount(), {0x01}, {0x02}}, alloc.order)
	require.Equal(t, int64(1_000_000), alloc.balances[content.RewardsAccount()].Int64())
	require.Equal(t, int64(500), alloc.balances[[20]byte{0x02}].Int64())
	require.Equal(t, "alice", users.names[[20]byte{0x02}])
}

func TestParseSpecRejectsUnknownFields(t *testing.T) {
	_, err := ParseSpec([]byte("validators: []\n"))
	require.Error(t, err)
}

func TestParseSpecRejectsBadAddress(t *testing.T) {
	_, err := ParseSpec([]byte("alloc:\n  cosmos1qqqq: \"1\"\n"))
	require.Error(t, err)
}

func TestParseSpecRejectsNegativeAmount(t *testing.T) {
	addr := crypto.FormatAddress([20]byte{0x05})
	_, err := ParseSpec([]byte("alloc:\n  " + addr + ": \"-5\"\n"))
	require.Error(t, err)
}
