package identity

// User is a registered creator or viewer profile. One account maps to at most
// one user.
type User struct {
	ID           uint64
	Name         string
	ProfileImage string
	Accounts     [][20]byte
	HasAsset     bool
	AssetID      uint64
	ContentCount uint64
	CreatedAt    uint64
}

// Primary returns the account the user registered with.
func (u *User) Primary() [20]byte {
	if u == nil || len(u.Accounts) == 0 {
		return [20]byte{}
	}
	return u.Accounts[0]
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Accounts = append([][20]byte(nil), u.Accounts...)
	return &out
}
