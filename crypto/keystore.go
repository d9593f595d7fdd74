package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// Scrypt cost parameters used when encrypting new keystore files.
var (
	ScryptN = keystore.StandardScryptN
	ScryptP = keystore.StandardScryptP
)

// ErrKeystoreExists is returned by SaveToKeystore when the target file is
// already present and overwriting was not requested.
var ErrKeystoreExists = errors.New("crypto: keystore file already exists")

// SaveOptions controls how SaveToKeystore treats the target path.
type SaveOptions struct {
	Overwrite bool
}

// SaveToKeystore encrypts key into a v3 keystore file at path and returns the
// vine address it controls. The file is written to a sibling temp file and
// renamed into place so a crash never leaves a truncated keystore behind.
func SaveToKeystore(path string, key *PrivateKey, passphrase string, opts SaveOptions) (Address, error) {
	if key == nil || key.PrivateKey == nil {
		return Address{}, errors.New("crypto: nil private key")
	}
	if path == "" {
		return Address{}, errors.New("crypto: empty keystore path")
	}
	if !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return Address{}, fmt.Errorf("%w: %s", ErrKeystoreExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return Address{}, err
		}
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return Address{}, err
	}
	encoded, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    ethcrypto.PubkeyToAddress(key.PrivateKey.PublicKey),
		PrivateKey: key.PrivateKey,
	}, passphrase, ScryptN, ScryptP)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: encrypt key: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Address{}, err
	}
	tmp, err := os.CreateTemp(dir, ".keystore-*")
	if err != nil {
		return Address{}, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return Address{}, err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return Address{}, err
	}
	if err := tmp.Close(); err != nil {
		return Address{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Address{}, err
	}
	return key.PubKey().Address(), nil
}

// LoadFromKeystore decrypts a v3 keystore file using the supplied passphrase.
func LoadFromKeystore(path, passphrase string) (*PrivateKey, error) {
	if path == "" {
		return nil, errors.New("crypto: empty keystore path")
	}
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	decrypted, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{PrivateKey: decrypted.PrivateKey}, nil
}

// KeystoreAddress reads the plaintext address field of a keystore file
// without decrypting it.
func KeystoreAddress(path string) (Address, error) {
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return Address{}, err
	}
	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(keyJSON, &header); err != nil {
		return Address{}, fmt.Errorf("crypto: decode keystore: %w", err)
	}
	if !common.IsHexAddress(header.Address) {
		return Address{}, fmt.Errorf("crypto: keystore has no valid address field")
	}
	return NewAddress(VinePrefix, common.HexToAddress(header.Address).Bytes())
}
