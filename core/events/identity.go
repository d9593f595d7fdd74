package events

import "vinechain/core/types"

const TypeIdentityRegistered = "identity.registered"

type IdentityRegistered struct {
	UserID  uint64
	Account [20]byte
	Name    string
}

func (IdentityRegistered) EventType() string { return TypeIdentityRegistered }

func (e IdentityRegistered) Event() *types.Event {
	return &types.Event{
		Type: TypeIdentityRegistered,
		Attributes: map[string]string{
			"userId":  uintToString(e.UserID),
			"account": addr(e.Account),
			"name":    e.Name,
		},
	}
}
