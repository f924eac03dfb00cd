// Package hashing binds the registry to the circomlib-compatible
// Poseidon permutation from go-iden3-crypto. Commitments hash three
// elements, Merkle nodes hash two; no other arity is meaningful here.
package hashing

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
	"github.com/pkg/errors"
)

const (
	// NodeArity is the input count for Merkle node combination.
	NodeArity = 2
	// CommitmentArity is the input count for commitment derivation.
	CommitmentArity = 3
)

// ErrUnsupportedArity indicates a programmer error: the registry never
// hashes anything but 2 or 3 elements.
var ErrUnsupportedArity = errors.New("hashing: unsupported poseidon arity")

// Hash computes the Poseidon hash of the given field elements.
func Hash(inputs []*big.Int) (*big.Int, error) {
	switch len(inputs) {
	case NodeArity, CommitmentArity:
	default:
		return nil, errors.WithMessagef(ErrUnsupportedArity, "%d inputs", len(inputs))
	}
	out, err := poseidon.Hash(inputs)
	if err != nil {
		return nil, errors.Wrap(err, "poseidon")
	}
	return out, nil
}
