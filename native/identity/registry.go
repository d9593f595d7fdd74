package identity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	vineerrors "vinechain/core/errors"
	"vinechain/core/events"
	coreidentity "vinechain/core/identity"
	"vinechain/core/state"
)

var (
	errNilState = errors.New("identity registry: state not configured")

	userPrefix    = []byte("identity/user/")
	accountPrefix = []byte("identity/account/")
)

type registryState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	NextSequence(name string) (uint64, error)
}

// Registry owns user profiles and the account to user index.
type Registry struct {
	state   registryState
	emitter events.Emitter
	nowFn   func() int64
}

// NewRegistry constructs a registry with default dependencies.
func NewRegistry() *Registry {
	return &Registry{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(s registryState) { r.state = s }

// SetEmitter configures the event emitter used by the registry.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

func userKey(id uint64) []byte {
	buf := make([]byte, len(userPrefix)+8)
	copy(buf, userPrefix)
	binary.BigEndian.PutUint64(buf[len(userPrefix):], id)
	return buf
}

func accountKey(addr [20]byte) []byte {
	return append(append([]byte{}, accountPrefix...), addr[:]...)
}

// Register creates a user for caller. Each account may register once.
func (r *Registry) Register(caller [20]byte, name, profileImage string) (*User, error) {
	if r == nil || r.state == nil {
		return nil, errNilState
	}
	normalized, err := coreidentity.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	image, err := coreidentity.NormalizeProfileImage(profileImage)
	if err != nil {
		return nil, err
	}
	registered, err := r.IsRegistered(caller)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, vineerrors.ErrIdentityExists
	}
	id, err := r.state.NextSequence(state.SeqUser)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           id,
		Name:         normalized,
		ProfileImage: image,
		Accounts:     [][20]byte{caller},
		CreatedAt:    uint64(r.nowFn()),
	}
	if err := r.put(user); err != nil {
		return nil, err
	}
	if err := r.state.KVPut(accountKey(caller), id); err != nil {
		return nil, err
	}
	r.emitter.Emit(events.IdentityRegistered{UserID: id, Account: caller, Name: normalized})
	return user.Clone(), nil
}

// User loads a user by id.
func (r *Registry) User(id uint64) (*User, bool, error) {
	if r == nil || r.state == nil {
		return nil, false, errNilState
	}
	var user User
	ok, err := r.state.KVGet(userKey(id), &user)
	if err != nil || !ok {
		return nil, false, err
	}
	return &user, true, nil
}

// Resolve loads the user owning addr.
func (r *Registry) Resolve(addr [20]byte) (*User, bool, error) {
	if r == nil || r.state == nil {
		return nil, false, errNilState
	}
	var id uint64
	ok, err := r.state.KVGet(accountKey(addr), &id)
	if err != nil || !ok {
		return nil, false, err
	}
	return r.User(id)
}

// IsRegistered reports whether addr belongs to a user.
func (r *Registry) IsRegistered(addr [20]byte) (bool, error) {
	if r == nil || r.state == nil {
		return false, errNilState
	}
	var id uint64
	return r.state.KVGet(accountKey(addr), &id)
}

// AttachAsset links a newly created creator token to the owner's profile.
// Accounts without a profile are left alone.
func (r *Registry) AttachAsset(owner [20]byte, assetID uint64) error {
	return r.mutate(owner, func(u *User) {
		u.HasAsset = true
		u.AssetID = assetID
	})
}

// IncrementContent bumps the published content counter of owner.
func (r *Registry) IncrementContent(owner [20]byte) error {
	return r.mutate(owner, func(u *User) { u.ContentCount++ })
}

func (r *Registry) mutate(owner [20]byte, fn func(*User)) error {
	user, ok, err := r.Resolve(owner)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	fn(user)
	return r.put(user)
}

func (r *Registry) put(user *User) error {
	if err := r.state.KVPut(userKey(user.ID), user); err != nil {
		return fmt.Errorf("identity registry: store user %d: %w", user.ID, err)
	}
	return nil
}
