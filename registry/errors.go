package registry

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/veilchat/zkregistry/commitment"
	"github.com/veilchat/zkregistry/field"
	"github.com/veilchat/zkregistry/merkle"
	"github.com/veilchat/zkregistry/nullifier"
	"github.com/veilchat/zkregistry/proofs"
)

// Kind classifies registry errors for callers.
type Kind int

const (
	// KindInternal covers storage connectivity and everything
	// unclassified. Not retried here; callers may retry.
	KindInternal Kind = iota
	// KindInvalid is caller error: malformed hex, proof JSON or role.
	KindInvalid
	// KindConflict is a double-registration attempt.
	KindConflict
	// KindNotFound is a proof request for a non-existent leaf.
	KindNotFound
	// KindCapacity means the accumulator is full; operator intervention
	// (a deeper tree) is required.
	KindCapacity
)

// Classify maps a registry error to its caller-facing kind.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, field.ErrInvalidHex),
		errors.Is(err, proofs.ErrParse),
		errors.Is(err, proofs.ErrInvalidPoint),
		errors.Is(err, proofs.ErrMalformedInput),
		errors.Is(err, commitment.ErrUnknownRole):
		return KindInvalid
	case errors.Is(err, nullifier.ErrDuplicate):
		return KindConflict
	case errors.Is(err, merkle.ErrIndexOutOfRange):
		return KindNotFound
	case errors.Is(err, merkle.ErrTreeFull):
		return KindCapacity
	default:
		return KindInternal
	}
}

// HTTPStatus maps a kind to its HTTP status class.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalid:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindCapacity:
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}
