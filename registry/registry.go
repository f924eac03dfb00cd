// Package registry is the registration orchestrator: the only component
// with write access to the accumulator, the nullifier registry and the
// durable store. One registration composes commitment validation,
// nullifier check-and-insert, accumulator insertion and persistence.
package registry

import (
	"context"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/veilchat/zkregistry/field"
	"github.com/veilchat/zkregistry/logger"
	"github.com/veilchat/zkregistry/merkle"
	"github.com/veilchat/zkregistry/nullifier"
	"github.com/veilchat/zkregistry/proofs"
)

// RegistrationTopic is the fixed nullifier topic for joining the
// registry. Other topics (polls, governance) spend their own
// nullifiers against the same table.
const RegistrationTopic = "registration"

// Registration is the result handed back to a newly registered
// identity: everything needed to later prove membership against the
// returned root.
type Registration struct {
	IdentityID    string   `json:"identity_id"`
	LeafIndex     uint64   `json:"leaf_index"`
	RootHex       string   `json:"root"`
	PathElements  []string `json:"path_elements"`
	PathIndexBits []int    `json:"path_index_bits"`
}

// MembershipPath is a leaf's Merkle path, sufficient for an external
// prover to re-derive the root.
type MembershipPath struct {
	PathElements  []string `json:"path_elements"`
	PathIndexBits []int    `json:"path_index_bits"`
}

// RootInfo is the current accumulator snapshot.
type RootInfo struct {
	RootHex   string `json:"root"`
	LeafCount uint64 `json:"leaf_count"`
}

// Registry owns the process's single accumulator. All access, reads
// included, goes through one mutex: the tree is small and registration
// rare, so a read/write split buys nothing. Never a hidden singleton;
// construct one and pass the handle around.
type Registry struct {
	mu         sync.Mutex
	tree       *merkle.Tree
	store      merkle.Store
	nullifiers *nullifier.Registry
	log        zerolog.Logger
}

// New creates a registry around a restored (or fresh) accumulator.
func New(tree *merkle.Tree, store merkle.Store, nullifiers *nullifier.Registry) *Registry {
	return &Registry{
		tree:       tree,
		store:      store,
		nullifiers: nullifiers,
		log:        logger.Logger().With().Str("component", "registry").Logger(),
	}
}

// RegisterIdentity registers a commitment under the registration topic.
// Nullifier insertion strictly precedes any accumulator mutation: a
// duplicate registration fails there and never touches the tree. Two
// concurrent attempts for the same identity race only at the storage
// uniqueness constraint; exactly one wins.
func (r *Registry) RegisterIdentity(ctx context.Context, commitmentHex string) (*Registration, error) {
	if _, err := field.DecodeFieldHex(commitmentHex); err != nil {
		return nil, errors.WithMessage(err, "commitment")
	}

	identityID := uuid.NewString()
	nullifierHex := nullifier.Compute(commitmentHex, RegistrationTopic)
	if err := r.nullifiers.Insert(ctx, RegistrationTopic, nullifierHex, &identityID, &commitmentHex); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	index, err := r.tree.InsertAndPersist(ctx, r.store, commitmentHex)
	if err != nil {
		return nil, err
	}
	elements, bits, err := r.tree.Proof(index)
	if err != nil {
		return nil, err
	}

	rootHex := field.EncodeFieldBE(r.tree.Root())
	r.log.Info().
		Str("identity", identityID).
		Uint64("leaf_index", index).
		Str("root", rootHex).
		Msg("identity registered")

	return &Registration{
		IdentityID:    identityID,
		LeafIndex:     index,
		RootHex:       rootHex,
		PathElements:  encodeElements(elements),
		PathIndexBits: bits,
	}, nil
}

// MembershipPath returns the Merkle path for an existing leaf.
func (r *Registry) MembershipPath(index uint64) (*MembershipPath, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elements, bits, err := r.tree.Proof(index)
	if err != nil {
		return nil, err
	}
	return &MembershipPath{
		PathElements:  encodeElements(elements),
		PathIndexBits: bits,
	}, nil
}

// CurrentRoot returns the active root and leaf count.
func (r *Registry) CurrentRoot() RootInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RootInfo{
		RootHex:   field.EncodeFieldBE(r.tree.Root()),
		LeafCount: r.tree.LeafCount(),
	}
}

// VerifyMembershipProof parses and verifies an externally generated
// proof against a verification key. Pure computation, no locking: it
// runs fully in parallel across unrelated requests.
func (r *Registry) VerifyMembershipProof(vk *proofs.VerificationKey, proofJSON, signalsJSON []byte) (bool, error) {
	proof, err := proofs.ParseProof(proofJSON)
	if err != nil {
		return false, err
	}
	signals, err := proofs.ParsePublicSignals(signalsJSON)
	if err != nil {
		return false, err
	}
	return proofs.VerifyGroth16(vk, proof, signals)
}

func encodeElements(elements []*big.Int) []string {
	out := make([]string, len(elements))
	for i, el := range elements {
		out[i] = field.EncodeFieldBE(el)
	}
	return out
}
