// Package proofs verifies externally generated Groth16 membership
// proofs. The wire format is the JSON layout emitted by the external
// circuit-compilation toolchain: G1 points as [x, y, "1"] and G2 points
// as [[x_c0, x_c1], [y_c0, y_c1], ["1", "0"]] decimal strings. All
// coordinate reassembly lives here and nowhere else.
package proofs

import (
	"encoding/json"
	"math/big"
	"strings"

	bn256 "github.com/ethereum/go-ethereum/crypto/bn256/cloudflare"
	"github.com/iden3/go-iden3-crypto/constants"
	"github.com/pkg/errors"
)

var (
	// ErrParse is returned for malformed proof/key/signal JSON.
	ErrParse = errors.New("proofs: malformed proof data")
	// ErrInvalidPoint is returned for coordinates that do not describe a
	// point on the curve.
	ErrInvalidPoint = errors.New("proofs: invalid curve point")
)

const coordBytes = 32

// Proof is a parsed proof bundle in native curve types.
type Proof struct {
	A *bn256.G1
	B *bn256.G2
	C *bn256.G1
}

// VerificationKey holds the public parameters of one circuit. Loaded
// once, immutable, shared read-only across verification calls.
type VerificationKey struct {
	Alpha *bn256.G1
	Beta  *bn256.G2
	Gamma *bn256.G2
	Delta *bn256.G2
	IC    []*bn256.G1
}

// proofJSON is the toolchain's proof layout.
type proofJSON struct {
	A        []string   `json:"pi_a"`
	B        [][]string `json:"pi_b"`
	C        []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
}

// vkJSON is the toolchain's verification key layout.
type vkJSON struct {
	Alpha []string   `json:"vk_alpha_1"`
	Beta  [][]string `json:"vk_beta_2"`
	Gamma [][]string `json:"vk_gamma_2"`
	Delta [][]string `json:"vk_delta_2"`
	IC    [][]string `json:"IC"`
}

// ParseProof parses a toolchain proof JSON document.
func ParseProof(data []byte) (*Proof, error) {
	var pj proofJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, errors.WithMessage(ErrParse, err.Error())
	}
	if pj.Protocol != "" && pj.Protocol != "groth16" {
		return nil, errors.WithMessagef(ErrParse, "unsupported protocol %q", pj.Protocol)
	}

	var (
		p   Proof
		err error
	)
	if p.A, err = stringToG1(pj.A); err != nil {
		return nil, errors.WithMessage(err, "pi_a")
	}
	if p.B, err = stringToG2(pj.B); err != nil {
		return nil, errors.WithMessage(err, "pi_b")
	}
	if p.C, err = stringToG1(pj.C); err != nil {
		return nil, errors.WithMessage(err, "pi_c")
	}
	return &p, nil
}

// ParseVerificationKey parses a toolchain verification key JSON
// document.
func ParseVerificationKey(data []byte) (*VerificationKey, error) {
	var vj vkJSON
	if err := json.Unmarshal(data, &vj); err != nil {
		return nil, errors.WithMessage(ErrParse, err.Error())
	}

	var (
		vk  VerificationKey
		err error
	)
	if vk.Alpha, err = stringToG1(vj.Alpha); err != nil {
		return nil, errors.WithMessage(err, "vk_alpha_1")
	}
	if vk.Beta, err = stringToG2(vj.Beta); err != nil {
		return nil, errors.WithMessage(err, "vk_beta_2")
	}
	if vk.Gamma, err = stringToG2(vj.Gamma); err != nil {
		return nil, errors.WithMessage(err, "vk_gamma_2")
	}
	if vk.Delta, err = stringToG2(vj.Delta); err != nil {
		return nil, errors.WithMessage(err, "vk_delta_2")
	}
	if len(vj.IC) == 0 {
		return nil, errors.WithMessage(ErrParse, "empty IC vector")
	}
	for i, ic := range vj.IC {
		p, err := stringToG1(ic)
		if err != nil {
			return nil, errors.WithMessagef(err, "IC[%d]", i)
		}
		vk.IC = append(vk.IC, p)
	}
	return &vk, nil
}

// ParsePublicSignals parses a JSON array of field element strings.
func ParsePublicSignals(data []byte) ([]*big.Int, error) {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WithMessage(ErrParse, err.Error())
	}

	signals := make([]*big.Int, 0, len(raw))
	for i, s := range raw {
		n, err := stringToBigInt(s)
		if err != nil {
			return nil, errors.WithMessagef(err, "signal %d", i)
		}
		signals = append(signals, n)
	}
	return signals, nil
}

// stringToG1 assembles a G1 point from [x, y] or [x, y, z] strings. The
// toolchain exports affine points, so a present z must be one.
func stringToG1(coords []string) (*bn256.G1, error) {
	if len(coords) < 2 || len(coords) > 3 {
		return nil, errors.WithMessagef(ErrParse, "G1 point has %d coordinates", len(coords))
	}
	if len(coords) == 3 && coords[2] != "1" {
		return nil, errors.WithMessagef(ErrParse, "G1 point not affine, z=%q", coords[2])
	}

	buf := make([]byte, 0, 2*coordBytes)
	for _, c := range coords[:2] {
		b, err := coordinateBytes(c)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}

	p := new(bn256.G1)
	if _, err := p.Unmarshal(buf); err != nil {
		return nil, errors.WithMessage(ErrInvalidPoint, err.Error())
	}
	return p, nil
}

// stringToG2 assembles a G2 point from [[x_c0, x_c1], [y_c0, y_c1]]
// (optionally with a trailing ["1", "0"] z). The toolchain lists the
// real component first, while the pairing library wants the imaginary
// component first; the reassembly here is the one place that ordering is
// reconciled.
func stringToG2(coords [][]string) (*bn256.G2, error) {
	if len(coords) < 2 || len(coords) > 3 {
		return nil, errors.WithMessagef(ErrParse, "G2 point has %d coordinate pairs", len(coords))
	}
	if len(coords) == 3 {
		if len(coords[2]) != 2 || coords[2][0] != "1" || coords[2][1] != "0" {
			return nil, errors.WithMessage(ErrParse, "G2 point not affine")
		}
	}

	buf := make([]byte, 0, 4*coordBytes)
	for _, pair := range coords[:2] {
		if len(pair) != 2 {
			return nil, errors.WithMessagef(ErrParse, "G2 coordinate has %d components", len(pair))
		}
		// imaginary first
		for _, c := range []string{pair[1], pair[0]} {
			b, err := coordinateBytes(c)
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
	}

	p := new(bn256.G2)
	if _, err := p.Unmarshal(buf); err != nil {
		return nil, errors.WithMessage(ErrInvalidPoint, err.Error())
	}
	return p, nil
}

func coordinateBytes(s string) ([]byte, error) {
	n, err := stringToBigInt(s)
	if err != nil {
		return nil, err
	}
	if n.Sign() < 0 || n.BitLen() > 8*coordBytes {
		return nil, errors.WithMessagef(ErrParse, "coordinate out of range: %s", s)
	}
	buf := make([]byte, coordBytes)
	n.FillBytes(buf)
	return buf, nil
}

func stringToBigInt(s string) (*big.Int, error) {
	base := 10
	if strings.HasPrefix(s, "0x") {
		base = 16
		s = strings.TrimPrefix(s, "0x")
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, errors.WithMessagef(ErrParse, "not a number: %q", s)
	}
	return n, nil
}

// inField reports whether a public signal is a canonical scalar field
// element.
func inField(n *big.Int) bool {
	return n.Sign() >= 0 && n.Cmp(constants.Q) < 0
}
