package genesis

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"vinechain/core/state"
	"vinechain/core/types"
	"vinechain/native/content"
)

// Allocator is the slice of the state manager genesis writes through.
type Allocator interface {
	Deposit(asset types.AssetID, addr [20]byte, amount *big.Int) error
}

// Registrar pre-registers genesis users.
type Registrar interface {
	Register(caller [20]byte, name, profileImage string) error
}

// RegistrarFunc adapts a function to Registrar.
type RegistrarFunc func(caller [20]byte, name, profileImage string) error

func (f RegistrarFunc) Register(caller [20]byte, name, profileImage string) error {
	return f(caller, name, profileImage)
}

// Apply writes the allocations of spec into manager in a deterministic order:
// the rewards reserve first, then accounts sorted by address, then users in
// file order.
func Apply(spec *Spec, manager Allocator, users Registrar) error {
	if spec == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	if manager == nil {
		return fmt.Errorf("state must not be nil")
	}
	if spec.rewards != nil && spec.rewards.Sign() > 0 {
		if err := manager.Deposit(types.NativeAsset, content.RewardsAccount(), spec.rewards); err != nil {
			return fmt.Errorf("fund rewards reserve: %w", err)
		}
	}

	accounts := make([][20]byte, 0, len(spec.alloc))
	for account := range spec.alloc {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i][:], accounts[j][:]) < 0
	})
	for _, account := range accounts {
		if err := manager.Deposit(types.NativeAsset, account, spec.alloc[account]); err != nil {
			return fmt.Errorf("alloc %x: %w", account, err)
		}
	}

	if len(spec.Users) > 0 && users == nil {
		return fmt.Errorf("genesis users require an identity registry")
	}
	for _, user := range spec.Users {
		if err := users.Register(user.account, user.Name, user.ProfileImage); err != nil {
			return fmt.Errorf("register user %s: %w", user.Address, err)
		}
	}
	return nil
}

var _ Allocator = (*state.Manager)(nil)
