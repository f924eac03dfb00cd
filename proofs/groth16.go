package proofs

import (
	"math/big"

	bn256 "github.com/ethereum/go-ethereum/crypto/bn256/cloudflare"
	"github.com/pkg/errors"
)

// ErrMalformedInput is returned when the proof machinery cannot run at
// all: wrong IC arity or a public signal outside the field. It is
// distinct from a proof that simply verifies false.
var ErrMalformedInput = errors.New("proofs: malformed verification input")

// VerifyGroth16 runs the pairing-based Groth16 check. It returns
// (false, nil) for a well-formed but invalid proof — tampered points or
// wrong public inputs — and an error only when the inputs are
// structurally unusable. Callers must not conflate the two.
func VerifyGroth16(vk *VerificationKey, proof *Proof, signals []*big.Int) (bool, error) {
	if len(signals)+1 != len(vk.IC) {
		return false, errors.WithMessagef(ErrMalformedInput,
			"%d public signals, verification key expects %d", len(signals), len(vk.IC)-1)
	}

	vkX := new(bn256.G1).ScalarBaseMult(big.NewInt(0))
	for i, signal := range signals {
		if !inField(signal) {
			return false, errors.WithMessagef(ErrMalformedInput, "public signal %d not in field", i)
		}
		vkX = new(bn256.G1).Add(vkX, new(bn256.G1).ScalarMult(vk.IC[i+1], signal))
	}
	vkX = new(bn256.G1).Add(vkX, vk.IC[0])

	g1 := []*bn256.G1{
		proof.A,
		new(bn256.G1).Neg(vk.Alpha),
		vkX.Neg(vkX),
		new(bn256.G1).Neg(proof.C),
	}
	g2 := []*bn256.G2{proof.B, vk.Beta, vk.Gamma, vk.Delta}

	return bn256.PairingCheck(g1, g2), nil
}
