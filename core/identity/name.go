package identity

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	vineerrors "vinechain/core/errors"
)

const (
	nameMinLength = 3
	nameMaxLength = 32
	// profileImageMaxLength bounds the stored image reference (URI or CID).
	profileImageMaxLength = 256
)

// NormalizeName trims the supplied display name and validates its length and
// characters. Display names keep their case; uniqueness is enforced per
// account, not per name.
func NormalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	length := utf8.RuneCountInString(trimmed)
	if length < nameMinLength || length > nameMaxLength {
		return "", fmt.Errorf("%w: must be between %d and %d characters", vineerrors.ErrInvalidName, nameMinLength, nameMaxLength)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: control characters are not allowed", vineerrors.ErrInvalidName)
		}
	}
	return trimmed, nil
}

// NormalizeProfileImage trims the image reference and bounds its size.
func NormalizeProfileImage(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if len(trimmed) > profileImageMaxLength {
		return "", fmt.Errorf("%w: profile image reference exceeds %d bytes", vineerrors.ErrMalformedPayload, profileImageMaxLength)
	}
	return trimmed, nil
}
