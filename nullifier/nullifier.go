// Package nullifier enforces at most one registration per (topic,
// identity) pair. A nullifier is a one-time token derived from a
// commitment and a topic; uniqueness is enforced by a storage-level
// constraint so concurrent check-and-insert cannot race.
package nullifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

// ErrDuplicate is returned when a (topic, nullifier) pair already has a
// row: a double-registration attempt.
var ErrDuplicate = errors.New("nullifier: duplicate for topic")

// Store is the durable constraint-bearing table behind the registry.
// InsertNullifier must be a single atomic insert relying on a
// UNIQUE(topic, nullifierHex) constraint, mapping violations to
// ErrDuplicate. Implemented by storage.Store.
type Store interface {
	InsertNullifier(ctx context.Context, topic, nullifierHex string, pseudonymID, commitmentHex *string) error
	NullifierExists(ctx context.Context, topic, nullifierHex string) (bool, error)
	CommitmentByPseudonym(ctx context.Context, pseudonymID string) (commitmentHex, topic string, ok bool, err error)
}

// Compute derives the nullifier for a commitment under a topic.
func Compute(commitmentHex, topic string) string {
	sum := sha256.Sum256([]byte(commitmentHex + ":" + topic))
	return hex.EncodeToString(sum[:])
}

// Registry tracks spent nullifiers per topic.
type Registry struct {
	store Store
}

// NewRegistry creates a registry over a durable store.
func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Insert records a nullifier for a topic. The pseudonym id and
// commitment are optional index columns; rows created without them are
// still valid and simply not reverse-lookupable. Fails with ErrDuplicate
// when the (topic, nullifier) pair is already spent.
func (r *Registry) Insert(ctx context.Context, topic, nullifierHex string, pseudonymID, commitmentHex *string) error {
	return r.store.InsertNullifier(ctx, topic, nullifierHex, pseudonymID, commitmentHex)
}

// Exists reports whether a nullifier is already spent for a topic.
func (r *Registry) Exists(ctx context.Context, topic, nullifierHex string) (bool, error) {
	return r.store.NullifierExists(ctx, topic, nullifierHex)
}

// LookupCommitmentByPseudonym resolves a pseudonym id to its commitment
// and topic. ok is false, with no error, when the row is absent or was
// created before the index columns existed.
func (r *Registry) LookupCommitmentByPseudonym(ctx context.Context, pseudonymID string) (commitmentHex, topic string, ok bool, err error) {
	return r.store.CommitmentByPseudonym(ctx, pseudonymID)
}
