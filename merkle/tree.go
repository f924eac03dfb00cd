// Package merkle implements the incremental membership accumulator: a
// fixed-depth binary Poseidon tree whose leaves are registered identity
// commitments. Leaves are appended sequentially and never removed; the
// root is a monotonically changing fingerprint of the registered set.
package merkle

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/veilchat/zkregistry/hashing"
)

// DefaultDepth supports 2^20 registered identities.
const DefaultDepth = 20

var (
	// ErrTreeFull is returned when the accumulator is at capacity.
	ErrTreeFull = errors.New("merkle: tree is full")
	// ErrIndexOutOfRange is returned for proofs of non-existent leaves.
	ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")
	// ErrBadDepth is returned for a non-positive or oversized depth.
	ErrBadDepth = errors.New("merkle: invalid tree depth")
)

const maxDepth = 32

// Tree is an append-only incremental Merkle accumulator. It is not safe
// for concurrent use; callers serialize access (see registry.Registry).
type Tree struct {
	depth     int
	nextIndex uint64

	// zero[i] is the hash of an empty subtree at level i, zero[0] = 0.
	zero []*big.Int

	// levels[i] holds the populated nodes of level i, index-addressed;
	// levels[0] are the leaves. Positions right of the append frontier
	// are implicitly zero[i].
	levels [][]*big.Int

	root *big.Int
}

// New creates an empty tree of the given depth. The zero-hash table is
// built bottom-up, so the empty root is zero[depth].
func New(depth int) (*Tree, error) {
	if depth <= 0 || depth > maxDepth {
		return nil, errors.WithMessagef(ErrBadDepth, "%d", depth)
	}

	zero := make([]*big.Int, depth+1)
	zero[0] = big.NewInt(0)
	for i := 1; i <= depth; i++ {
		h, err := hashing.Hash([]*big.Int{zero[i-1], zero[i-1]})
		if err != nil {
			return nil, err
		}
		zero[i] = h
	}

	return &Tree{
		depth:  depth,
		zero:   zero,
		levels: make([][]*big.Int, depth),
		root:   zero[depth],
	}, nil
}

// Depth returns the fixed tree depth.
func (t *Tree) Depth() int { return t.depth }

// LeafCount returns the number of inserted leaves.
func (t *Tree) LeafCount() uint64 { return t.nextIndex }

// Root returns the current root. O(1).
func (t *Tree) Root() *big.Int { return new(big.Int).Set(t.root) }

// Capacity returns the maximum number of leaves.
func (t *Tree) Capacity() uint64 { return 1 << uint(t.depth) }

// Insert appends a leaf at the next free index and recomputes the D
// ancestor hashes up to the root. Returns the assigned index.
func (t *Tree) Insert(leaf *big.Int) (uint64, error) {
	index, _, err := t.insert(leaf)
	return index, err
}

// undoRecord captures the node values overwritten by one insert so a
// failed persistence can roll the in-memory state back.
type undoRecord struct {
	nextIndex uint64
	root      *big.Int
	// one entry per level: the prior value at the touched position, nil
	// if the position did not exist before.
	prior []*big.Int
	index uint64
}

func (t *Tree) insert(leaf *big.Int) (uint64, *undoRecord, error) {
	if t.nextIndex >= t.Capacity() {
		return 0, nil, errors.WithMessagef(ErrTreeFull, "capacity %d", t.Capacity())
	}

	undo := &undoRecord{
		nextIndex: t.nextIndex,
		root:      t.root,
		prior:     make([]*big.Int, t.depth),
		index:     t.nextIndex,
	}

	cur := new(big.Int).Set(leaf)
	idx := t.nextIndex
	for lvl := 0; lvl < t.depth; lvl++ {
		undo.prior[lvl] = t.nodeAt(lvl, idx)
		t.setNode(lvl, idx, cur)

		var left, right *big.Int
		if idx%2 == 0 {
			left, right = cur, t.sibling(lvl, idx)
		} else {
			left, right = t.sibling(lvl, idx), cur
		}
		h, err := hashing.Hash([]*big.Int{left, right})
		if err != nil {
			t.rollback(undo)
			return 0, nil, err
		}
		cur = h
		idx >>= 1
	}

	t.root = cur
	assigned := t.nextIndex
	t.nextIndex++
	return assigned, undo, nil
}

// rollback restores the state captured before an insert.
func (t *Tree) rollback(u *undoRecord) {
	idx := u.index
	for lvl := 0; lvl < t.depth; lvl++ {
		if u.prior[lvl] == nil {
			// position was past the frontier; shrink the level back
			if int(idx) < len(t.levels[lvl]) {
				t.levels[lvl] = t.levels[lvl][:idx]
			}
		} else {
			t.levels[lvl][idx] = u.prior[lvl]
		}
		idx >>= 1
	}
	t.nextIndex = u.nextIndex
	t.root = u.root
}

// Proof returns the sibling hash at each level from leaf to root and, at
// each level, whether the leaf's path node is the left (0) or right (1)
// child. The pair is sufficient to recompute the root from the leaf.
func (t *Tree) Proof(index uint64) ([]*big.Int, []int, error) {
	if index >= t.nextIndex {
		return nil, nil, errors.WithMessagef(ErrIndexOutOfRange, "index %d, leaves %d", index, t.nextIndex)
	}

	elements := make([]*big.Int, t.depth)
	bits := make([]int, t.depth)
	idx := index
	for lvl := 0; lvl < t.depth; lvl++ {
		elements[lvl] = new(big.Int).Set(t.sibling(lvl, idx))
		bits[lvl] = int(idx % 2)
		idx >>= 1
	}
	return elements, bits, nil
}

// Leaf returns the leaf value at index.
func (t *Tree) Leaf(index uint64) (*big.Int, error) {
	if index >= t.nextIndex {
		return nil, errors.WithMessagef(ErrIndexOutOfRange, "index %d, leaves %d", index, t.nextIndex)
	}
	return new(big.Int).Set(t.levels[0][index]), nil
}

func (t *Tree) sibling(lvl int, idx uint64) *big.Int {
	if n := t.nodeAt(lvl, idx^1); n != nil {
		return n
	}
	return t.zero[lvl]
}

func (t *Tree) nodeAt(lvl int, idx uint64) *big.Int {
	if idx < uint64(len(t.levels[lvl])) {
		return t.levels[lvl][idx]
	}
	return nil
}

func (t *Tree) setNode(lvl int, idx uint64, v *big.Int) {
	for uint64(len(t.levels[lvl])) <= idx {
		t.levels[lvl] = append(t.levels[lvl], nil)
	}
	t.levels[lvl][idx] = v
}
