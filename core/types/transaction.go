package types

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	vineerrors "vinechain/core/errors"
)

// TxType defines the purpose of a transaction.
type TxType byte

const (
	TxTypeRegisterUser TxType = 0x01 // Register a user profile for the signer
	TxTypeCreateAsset  TxType = 0x02 // Create a creator token on a bonding curve
	TxTypeBuy          TxType = 0x03 // Mint creator tokens against the reserve currency
	TxTypeSell         TxType = 0x04 // Burn creator tokens for a refund
	TxTypeSpotPrice    TxType = 0x05 // Recompute and cache the spot price
	TxTypeAirdrop      TxType = 0x06 // Creator-funded mint to many beneficiaries
	TxTypePostContent  TxType = 0x07 // Publish a content item
	TxTypeViewContent  TxType = 0x08 // Register a rewarded view
)

var txTypeNames = map[TxType]string{
	TxTypeRegisterUser: "register_user",
	TxTypeCreateAsset:  "create_asset",
	TxTypeBuy:          "buy",
	TxTypeSell:         "sell",
	TxTypeSpotPrice:    "spot_price",
	TxTypeAirdrop:      "airdrop",
	TxTypePostContent:  "post_content",
	TxTypeViewContent:  "view_content",
}

func (t TxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%02x)", byte(t))
}

// Transaction is a signed request to run one state-mutating operation. The
// payload is the RLP encoding of the type-specific struct below.
type Transaction struct {
	Type    TxType        `json:"type"`
	Nonce   uint64        `json:"nonce"`
	Payload hexutil.Bytes `json:"payload"`

	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
	V *big.Int `json:"v"`

	from *[20]byte
}

// NewTransaction RLP-encodes payload into an unsigned transaction.
func NewTransaction(txType TxType, nonce uint64, payload interface{}) (*Transaction, error) {
	encoded, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return &Transaction{Type: txType, Nonce: nonce, Payload: encoded}, nil
}

// Hash returns the Keccak-256 signing hash over (Type, Nonce, Payload).
func (tx *Transaction) Hash() ([]byte, error) {
	encoded, err := rlp.EncodeToBytes([]interface{}{tx.Type, tx.Nonce, []byte(tx.Payload)})
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(encoded), nil
}

// Sign signs the transaction hash with the supplied secp256k1 key.
func (tx *Transaction) Sign(privKey *ecdsa.PrivateKey) error {
	hash, err := tx.Hash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash, privKey)
	if err != nil {
		return err
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetBytes([]byte{sig[64] + 27})
	tx.from = nil
	return nil
}

// From recovers the signer address. Unsigned or malformed signatures fail
// with ErrUnauthenticated.
func (tx *Transaction) From() ([20]byte, error) {
	var addr [20]byte
	if tx.from != nil {
		return *tx.from, nil
	}
	if tx.R == nil || tx.S == nil || tx.V == nil {
		return addr, vineerrors.ErrUnauthenticated
	}
	if tx.R.BitLen() > 256 || tx.S.BitLen() > 256 || !tx.V.IsUint64() {
		return addr, fmt.Errorf("%w: signature out of range", vineerrors.ErrUnauthenticated)
	}
	v := tx.V.Uint64()
	if v != 27 && v != 28 {
		return addr, fmt.Errorf("%w: bad recovery id %d", vineerrors.ErrUnauthenticated, v)
	}
	hash, err := tx.Hash()
	if err != nil {
		return addr, err
	}
	sig := make([]byte, 65)
	tx.R.FillBytes(sig[:32])
	tx.S.FillBytes(sig[32:64])
	sig[64] = byte(v - 27)
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return addr, fmt.Errorf("%w: %v", vineerrors.ErrUnauthenticated, err)
	}
	addr = crypto.PubkeyToAddress(*pubKey)
	tx.from = &addr
	return addr, nil
}

// DecodePayload decodes the RLP payload into out.
func (tx *Transaction) DecodePayload(out interface{}) error {
	if err := rlp.DecodeBytes(tx.Payload, out); err != nil {
		return fmt.Errorf("%w: %v", vineerrors.ErrMalformedPayload, err)
	}
	return nil
}

// RegisterUserPayload registers the signer as a user.
type RegisterUserPayload struct {
	Name         string
	ProfileImage string
}

// CreateAssetPayload creates a creator token.
type CreateAssetPayload struct {
	AssetID   uint64
	Curve     uint8
	MaxSupply *big.Int
	Name      string
	Symbol    string
	Decimals  uint8
}

// TradePayload is shared by buy and sell.
type TradePayload struct {
	AssetID uint64
	Amount  *big.Int
}

// SpotPricePayload refreshes the cached spot price of an asset.
type SpotPricePayload struct {
	AssetID uint64
}

// AirdropPayload mints Amount to every beneficiary.
type AirdropPayload struct {
	AssetID       uint64
	Amount        *big.Int
	Beneficiaries [][20]byte
}

// PostContentPayload publishes content. A zero ContentID asks the ledger to
// allocate the next id.
type PostContentPayload struct {
	ContentID uint64
	Metadata  string
}

// ViewContentPayload registers a view of ContentID by the signer.
type ViewContentPayload struct {
	ContentID uint64
}
