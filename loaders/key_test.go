package loaders_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/veilchat/zkregistry/loaders"
	"github.com/veilchat/zkregistry/proofs"
)

func writeKeyFile(t *testing.T, dir string, id loaders.CircuitID) {
	t.Helper()
	data, err := os.ReadFile("../proofs/testdata/membership_verification_key.json")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, string(id)+".json"), data, 0o600))
}

func TestFSKeyLoader(t *testing.T) {
	dir := t.TempDir()
	writeKeyFile(t, dir, loaders.MembershipCircuit)

	vk, err := loaders.FSKeyLoader{Dir: dir}.Load(loaders.MembershipCircuit)
	require.NoError(t, err)
	require.Len(t, vk.IC, 2)
}

func TestFSKeyLoaderMissingKey(t *testing.T) {
	_, err := loaders.FSKeyLoader{Dir: t.TempDir()}.Load("unknown-circuit")
	require.Error(t, err)
	require.True(t, errors.Is(err, loaders.ErrKeyNotFound))
}

func TestFSKeyLoaderMalformedKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "membership.json"), []byte("{"), 0o600))

	_, err := loaders.FSKeyLoader{Dir: dir}.Load(loaders.MembershipCircuit)
	require.Error(t, err)
	require.True(t, errors.Is(err, proofs.ErrParse))
}

type countingLoader struct {
	inner loaders.VerificationKeyLoader
	calls int
}

func (c *countingLoader) Load(id loaders.CircuitID) (*proofs.VerificationKey, error) {
	c.calls++
	return c.inner.Load(id)
}

func TestCachedKeyLoaderLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	writeKeyFile(t, dir, loaders.MembershipCircuit)

	counting := &countingLoader{inner: loaders.FSKeyLoader{Dir: dir}}
	cached := loaders.NewCachedKeyLoader(counting)

	for i := 0; i < 3; i++ {
		vk, err := cached.Load(loaders.MembershipCircuit)
		require.NoError(t, err)
		require.NotNil(t, vk)
	}
	require.Equal(t, 1, counting.calls)
}

func TestCachedKeyLoaderDoesNotCacheErrors(t *testing.T) {
	counting := &countingLoader{inner: loaders.FSKeyLoader{Dir: t.TempDir()}}
	cached := loaders.NewCachedKeyLoader(counting)

	for i := 0; i < 2; i++ {
		_, err := cached.Load(loaders.MembershipCircuit)
		require.Error(t, err)
	}
	require.Equal(t, 2, counting.calls)
}
