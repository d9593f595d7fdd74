package errors

import stderrors "errors"

// Kind classifies a failure so callers can decide how to surface it.
type Kind uint8

const (
	// KindInternal covers storage and codec failures that carry no domain meaning.
	KindInternal Kind = iota
	// KindValidation is returned for unknown assets, content or identities and malformed input.
	KindValidation
	// KindInvariant signals a caller-side logic error or an abuse attempt.
	KindInvariant
	// KindResource means the caller lacks the funds, reserve or balance required.
	KindResource
	// KindArithmetic is an overflow or division by zero; fatal to the operation.
	KindArithmetic
	// KindAuth covers unsigned transactions and bad nonces.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvariant:
		return "invariant"
	case KindResource:
		return "resource"
	case KindArithmetic:
		return "arithmetic"
	case KindAuth:
		return "auth"
	default:
		return "internal"
	}
}

// Error is a classified sentinel. Engines wrap it with fmt.Errorf("%w: ...")
// and callers match it with errors.Is.
type Error struct {
	Kind Kind
	Code string
	msg  string
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, msg: msg}
}

func (e *Error) Error() string { return e.msg }

var (
	ErrAssetDoesNotExist   = newError(KindValidation, "ASSET_DOES_NOT_EXIST", "issuance: asset does not exist")
	ErrAssetAlreadyExists  = newError(KindValidation, "ASSET_ALREADY_EXISTS", "issuance: asset already exists")
	ErrInvalidAsset        = newError(KindValidation, "INVALID_ASSET", "issuance: asset id reserved")
	ErrInvalidAmount       = newError(KindValidation, "INVALID_AMOUNT", "amount must be positive")
	ErrInvalidCurve        = newError(KindValidation, "INVALID_CURVE", "curve: unknown curve variant")
	ErrContentDoesNotExist = newError(KindValidation, "CONTENT_DOES_NOT_EXIST", "content: content does not exist")
	ErrContentExists       = newError(KindValidation, "CONTENT_ALREADY_EXISTS", "content: content already exists")
	ErrUnknownIdentity     = newError(KindValidation, "UNKNOWN_IDENTITY", "identity: unknown identity")
	ErrIdentityExists      = newError(KindValidation, "IDENTITY_EXISTS", "identity: account already registered")
	ErrInvalidName         = newError(KindValidation, "INVALID_NAME", "identity: invalid name")
	ErrUnknownTxType       = newError(KindValidation, "UNKNOWN_TX_TYPE", "tx: unknown transaction type")
	ErrMalformedPayload    = newError(KindValidation, "MALFORMED_PAYLOAD", "tx: malformed payload")

	ErrSupplyCapExceeded   = newError(KindInvariant, "SUPPLY_CAP_EXCEEDED", "issuance: max supply exceeded")
	ErrNotAssetCreator     = newError(KindInvariant, "NOT_ASSET_CREATOR", "issuance: caller is not the asset creator")
	ErrAlreadyRewarded     = newError(KindInvariant, "ALREADY_REWARDED", "content: view already rewarded")
	ErrSelfViewNotRewarded = newError(KindInvariant, "SELF_VIEW_NOT_REWARDED", "content: creators are not rewarded for their own views")

	ErrInsufficientFunds   = newError(KindResource, "INSUFFICIENT_FUNDS", "currency: insufficient funds")
	ErrInsufficientReserve = newError(KindResource, "INSUFFICIENT_RESERVE", "currency: insufficient balance to reserve")
	ErrInsufficientBalance = newError(KindResource, "INSUFFICIENT_BALANCE", "currency: insufficient balance to withdraw")

	ErrOverflow       = newError(KindArithmetic, "OVERFLOW", "arithmetic overflow")
	ErrDivisionByZero = newError(KindArithmetic, "DIVISION_BY_ZERO", "division by zero")

	ErrUnauthenticated = newError(KindAuth, "UNAUTHENTICATED", "tx: unsigned or invalid signature")
	ErrInvalidNonce    = newError(KindAuth, "INVALID_NONCE", "tx: invalid nonce")
)

// Classify returns the sentinel wrapped by err, if any.
func Classify(err error) (*Error, bool) {
	var target *Error
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf reports the kind of err. Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	if e, ok := Classify(err); ok {
		return e.Kind
	}
	return KindInternal
}

// CodeOf reports the machine code of err, or "INTERNAL" when unclassified.
func CodeOf(err error) string {
	if e, ok := Classify(err); ok {
		return e.Code
	}
	return "INTERNAL"
}
