package merkle_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/veilchat/zkregistry/field"
	"github.com/veilchat/zkregistry/merkle"
)

// memStore is an in-memory merkle.Store for unit tests; the SQL-backed
// implementation is covered in the storage package.
type memStore struct {
	leaves     []string
	root       string
	failAppend bool
}

func (s *memStore) AppendLeaf(_ context.Context, index uint64, leafHex string) error {
	if s.failAppend {
		return errors.New("append failed")
	}
	if index != uint64(len(s.leaves)) {
		return errors.Errorf("non-contiguous index %d", index)
	}
	s.leaves = append(s.leaves, leafHex)
	return nil
}

func (s *memStore) AppendLeafWithRoot(ctx context.Context, index uint64, leafHex, rootHex string) error {
	if err := s.AppendLeaf(ctx, index, leafHex); err != nil {
		return err
	}
	s.root = rootHex
	return nil
}

func (s *memStore) LeafLog(_ context.Context) ([]string, error) {
	return append([]string(nil), s.leaves...), nil
}

func (s *memStore) ActiveRoot(_ context.Context) (string, error) {
	return s.root, nil
}

func (s *memStore) ReplaceActiveRoot(_ context.Context, rootHex string) error {
	s.root = rootHex
	return nil
}

func leafHex(v int64) string {
	return field.EncodeFieldBE(big.NewInt(v))
}

func TestInsertAndPersistRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}

	tree, err := merkle.New(merkle.DefaultDepth)
	require.NoError(t, err)

	for i, v := range []int64{100, 200, 300} {
		index, err := tree.InsertAndPersist(ctx, store, leafHex(v))
		require.NoError(t, err)
		require.Equal(t, uint64(i), index)
	}
	require.Equal(t, field.EncodeFieldBE(tree.Root()), store.root)

	restored, err := merkle.Restore(ctx, store, merkle.DefaultDepth)
	require.NoError(t, err)
	require.Equal(t, uint64(3), restored.LeafCount())
	require.Zero(t, restored.Root().Cmp(tree.Root()))

	elements, bits, err := restored.Proof(0)
	require.NoError(t, err)
	require.Len(t, elements, 20)
	require.Len(t, bits, 20)
	root := recomputeRoot(t, big.NewInt(100), elements, bits)
	require.Zero(t, root.Cmp(restored.Root()))

	// the restored tree keeps accumulating
	before := restored.Root()
	_, err = restored.InsertAndPersist(ctx, store, leafHex(400))
	require.NoError(t, err)
	require.NotZero(t, before.Cmp(restored.Root()))
	require.Equal(t, uint64(4), restored.LeafCount())
}

func TestRestoreSelfHealsTamperedRoot(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}

	tree, err := merkle.New(8)
	require.NoError(t, err)
	for _, v := range []int64{1, 2, 3} {
		_, err := tree.InsertAndPersist(ctx, store, leafHex(v))
		require.NoError(t, err)
	}

	store.root = leafHex(0xdead)

	restored, err := merkle.Restore(ctx, store, 8)
	require.NoError(t, err)
	require.Zero(t, restored.Root().Cmp(tree.Root()))
	require.Equal(t, field.EncodeFieldBE(tree.Root()), store.root, "recomputed root must be re-persisted as active")
}

func TestRestoreWithMissingRootRow(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}

	tree, err := merkle.New(8)
	require.NoError(t, err)
	for _, v := range []int64{5, 6} {
		index, err := tree.Insert(big.NewInt(v))
		require.NoError(t, err)
		require.NoError(t, tree.PersistLeaf(ctx, store, index, leafHex(v)))
	}
	// no PersistRoot call: the root row is absent

	restored, err := merkle.Restore(ctx, store, 8)
	require.NoError(t, err)
	require.Zero(t, restored.Root().Cmp(tree.Root()))
	require.Equal(t, field.EncodeFieldBE(tree.Root()), store.root)
}

func TestPersistRootMarksActive(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}

	tree, err := merkle.New(8)
	require.NoError(t, err)
	_, err = tree.Insert(big.NewInt(1))
	require.NoError(t, err)

	require.NoError(t, tree.PersistRoot(ctx, store))
	require.Equal(t, field.EncodeFieldBE(tree.Root()), store.root)
}

func TestRestoreEmptyStore(t *testing.T) {
	ctx := context.Background()
	restored, err := merkle.Restore(ctx, &memStore{}, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(0), restored.LeafCount())

	fresh, err := merkle.New(8)
	require.NoError(t, err)
	require.Zero(t, restored.Root().Cmp(fresh.Root()))
}

func TestRestoreRejectsOversizedLeafLog(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	for i := int64(0); i < 5; i++ {
		store.leaves = append(store.leaves, leafHex(i+1))
	}

	_, err := merkle.Restore(ctx, store, 2)
	require.Error(t, err)
	require.True(t, errors.Is(err, merkle.ErrTreeFull))
}

func TestInsertAndPersistRollsBackOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}

	tree, err := merkle.New(8)
	require.NoError(t, err)
	_, err = tree.InsertAndPersist(ctx, store, leafHex(1))
	require.NoError(t, err)

	rootBefore := tree.Root()

	store.failAppend = true
	_, err = tree.InsertAndPersist(ctx, store, leafHex(2))
	require.Error(t, err)
	require.Equal(t, uint64(1), tree.LeafCount(), "failed persist must not advance the tree")
	require.Zero(t, rootBefore.Cmp(tree.Root()))

	// retry succeeds once storage recovers, at the same index
	store.failAppend = false
	index, err := tree.InsertAndPersist(ctx, store, leafHex(2))
	require.NoError(t, err)
	require.Equal(t, uint64(1), index)

	restored, err := merkle.Restore(ctx, store, 8)
	require.NoError(t, err)
	require.Zero(t, restored.Root().Cmp(tree.Root()))
}

func TestInsertAndPersistRejectsBadLeafHex(t *testing.T) {
	ctx := context.Background()
	tree, err := merkle.New(8)
	require.NoError(t, err)

	_, err = tree.InsertAndPersist(ctx, &memStore{}, "zzzz")
	require.Error(t, err)
	require.True(t, errors.Is(err, field.ErrInvalidHex))
	require.Equal(t, uint64(0), tree.LeafCount())
}
