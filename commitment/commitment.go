// Package commitment derives public identity commitments from private
// secrets. A commitment is Poseidon(secret, roleCode, nodeId) serialized
// as a 32-byte big-endian hex string; it is publicly shareable and does
// not reveal the secret.
package commitment

import (
	"crypto/sha256"
	"math/big"

	"github.com/iden3/go-iden3-crypto/constants"
	"github.com/pkg/errors"

	"github.com/veilchat/zkregistry/field"
	"github.com/veilchat/zkregistry/hashing"
)

// Generate derives the identity commitment for a secret, role and node.
// It is a pure function: identical inputs always produce the identical
// commitment. Secret validation failures propagate field.ErrInvalidHex.
func Generate(secretHex string, role Role, nodeID string) (string, error) {
	secret, err := field.DecodeFieldHex(secretHex)
	if err != nil {
		return "", errors.WithMessage(err, "secret")
	}

	code, err := role.Code()
	if err != nil {
		return "", err
	}

	out, err := hashing.Hash([]*big.Int{secret, big.NewInt(code), nodeIDElement(nodeID)})
	if err != nil {
		return "", err
	}
	return field.EncodeFieldBE(out), nil
}

// nodeIDElement maps an arbitrary node identifier string into the scalar
// field by hashing and reducing. Reduction is safe here: node ids are
// public routing names, not secrets, so aliasing carries no risk.
func nodeIDElement(nodeID string) *big.Int {
	sum := sha256.Sum256([]byte(nodeID))
	el := new(big.Int).SetBytes(sum[:])
	return el.Mod(el, constants.Q)
}
