package merkle

import (
	"context"

	"github.com/pkg/errors"

	"github.com/veilchat/zkregistry/field"
)

// Store is the durable log the accumulator persists into. Leaves are an
// append-only row set keyed by dense indices; exactly one root row is
// active at a time. Implemented by storage.Store.
type Store interface {
	// AppendLeaf durably records a leaf at an index.
	AppendLeaf(ctx context.Context, index uint64, leafHex string) error
	// AppendLeafWithRoot records a leaf and supersedes the active root
	// in a single transaction: both commit or neither does.
	AppendLeafWithRoot(ctx context.Context, index uint64, leafHex, rootHex string) error
	// LeafLog returns all persisted leaves in index order.
	LeafLog(ctx context.Context) ([]string, error)
	// ActiveRoot returns the active root hex, or "" when no root row
	// exists.
	ActiveRoot(ctx context.Context) (string, error)
	// ReplaceActiveRoot marks rootHex active, superseding any prior row.
	ReplaceActiveRoot(ctx context.Context, rootHex string) error
}

// PersistLeaf appends a durable record for an already-inserted leaf.
func (t *Tree) PersistLeaf(ctx context.Context, store Store, index uint64, leaf string) error {
	return store.AppendLeaf(ctx, index, leaf)
}

// PersistRoot marks the current in-memory root as the durable active
// root.
func (t *Tree) PersistRoot(ctx context.Context, store Store) error {
	return store.ReplaceActiveRoot(ctx, field.EncodeFieldBE(t.root))
}

// InsertAndPersist inserts a leaf and durably records the leaf and the
// new active root as one transaction. If persistence fails the in-memory
// insert is rolled back, so the tree never diverges from what Restore
// would rebuild: the registration is simply lost and safe to retry.
func (t *Tree) InsertAndPersist(ctx context.Context, store Store, leaf string) (uint64, error) {
	el, err := field.DecodeFieldHex(leaf)
	if err != nil {
		return 0, err
	}

	index, undo, err := t.insert(el)
	if err != nil {
		return 0, err
	}

	if err := store.AppendLeafWithRoot(ctx, index, leaf, field.EncodeFieldBE(t.root)); err != nil {
		t.rollback(undo)
		return 0, errors.WithMessage(err, "persist leaf and root")
	}
	return index, nil
}

// Restore rebuilds a tree of the given depth by replaying the durable
// leaf log in index order. The replayed log is authoritative: if the
// stored active root is missing or differs from the recomputed root, the
// recomputed root is re-persisted as active rather than surfaced as an
// error. A leaf log larger than the tree capacity is corruption and
// fails with ErrTreeFull.
func Restore(ctx context.Context, store Store, depth int) (*Tree, error) {
	tree, err := New(depth)
	if err != nil {
		return nil, err
	}

	leaves, err := store.LeafLog(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "load leaf log")
	}
	if uint64(len(leaves)) > tree.Capacity() {
		return nil, errors.WithMessagef(ErrTreeFull, "leaf log holds %d rows, capacity %d", len(leaves), tree.Capacity())
	}

	for i, leafHex := range leaves {
		el, err := field.DecodeFieldHex(leafHex)
		if err != nil {
			return nil, errors.WithMessagef(err, "leaf %d", i)
		}
		if _, err := tree.Insert(el); err != nil {
			return nil, errors.WithMessagef(err, "replay leaf %d", i)
		}
	}

	stored, err := store.ActiveRoot(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "load active root")
	}
	recomputed := field.EncodeFieldBE(tree.root)
	if stored != recomputed {
		// torn or stale root row: the leaf log wins
		if err := store.ReplaceActiveRoot(ctx, recomputed); err != nil {
			return nil, errors.WithMessage(err, "re-persist recomputed root")
		}
	}
	return tree, nil
}
