// Package field converts between hex byte strings and elements of the
// BN254 scalar field. Decoding is strict: any input that would not
// round-trip through field reduction is rejected, so two distinct raw
// inputs can never silently alias to the same element.
package field

import (
	"encoding/hex"
	"math/big"

	"github.com/iden3/go-iden3-crypto/constants"
	"github.com/pkg/errors"
)

// ElementSize is the serialized size of a field element in bytes.
const ElementSize = 32

// MinSecretSize is the minimum accepted input length in bytes. Anything
// shorter is treated as accidental low-entropy input.
const MinSecretSize = 16

// ErrInvalidHex is returned for malformed or out-of-range hex input.
var ErrInvalidHex = errors.New("invalid field element hex")

// DecodeFieldHex decodes a hex string into a canonical field element.
// The byte length must be in [MinSecretSize, ElementSize]. The decoded
// value is reduced modulo the field prime and re-encoded; if the
// canonical encoding differs from the zero-padded input the value was at
// or above the modulus and is rejected.
func DecodeFieldHex(s string) (*big.Int, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.WithMessage(ErrInvalidHex, err.Error())
	}
	if len(b) < MinSecretSize || len(b) > ElementSize {
		return nil, errors.WithMessagef(ErrInvalidHex, "length %d bytes, want %d..%d", len(b), MinSecretSize, ElementSize)
	}

	el := new(big.Int).SetBytes(b)
	el.Mod(el, constants.Q)

	padded := make([]byte, ElementSize)
	copy(padded[ElementSize-len(b):], b)
	if EncodeFieldBE(el) != hex.EncodeToString(padded) {
		return nil, errors.WithMessage(ErrInvalidHex, "value not canonical under field reduction")
	}
	return el, nil
}

// EncodeFieldBE serializes a field element as a 32-byte big-endian
// lowercase hex string.
func EncodeFieldBE(el *big.Int) string {
	var buf [ElementSize]byte
	el.FillBytes(buf[:])
	return hex.EncodeToString(buf[:])
}
