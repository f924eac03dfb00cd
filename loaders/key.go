// Package loaders resolves verification keys for the circuits the
// registry accepts proofs from. Keys are parsed once and shared
// read-only across all verification calls.
package loaders

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/veilchat/zkregistry/cache"
	"github.com/veilchat/zkregistry/proofs"
)

// CircuitID names a circuit whose proofs the registry accepts.
type CircuitID string

// MembershipCircuit is the registry's membership circuit.
const MembershipCircuit CircuitID = "membership"

// ErrKeyNotFound is returned when no key exists for a circuit.
var ErrKeyNotFound = errors.New("verification key not found")

// VerificationKeyLoader loads the verification key for a circuit.
type VerificationKeyLoader interface {
	Load(id CircuitID) (*proofs.VerificationKey, error)
}

// FSKeyLoader reads keys from <Dir>/<circuit>.json.
type FSKeyLoader struct {
	Dir string
}

// Load reads and parses the key for a circuit from the filesystem.
func (m FSKeyLoader) Load(id CircuitID) (*proofs.VerificationKey, error) {
	data, err := os.ReadFile(fmt.Sprintf("%s/%v.json", m.Dir, id))
	if os.IsNotExist(err) {
		return nil, errors.WithMessagef(ErrKeyNotFound, "circuit %v", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read key for circuit %v", id)
	}
	return proofs.ParseVerificationKey(data)
}

// CachedKeyLoader wraps another loader with an in-memory cache. Keys are
// immutable per circuit, so the TTL only bounds memory, not staleness.
type CachedKeyLoader struct {
	inner VerificationKeyLoader
	keys  *cache.Cache[*proofs.VerificationKey]
}

// NewCachedKeyLoader creates a caching wrapper around a loader.
func NewCachedKeyLoader(inner VerificationKeyLoader) *CachedKeyLoader {
	return &CachedKeyLoader{
		inner: inner,
		keys:  cache.New[*proofs.VerificationKey](16, 24*time.Hour),
	}
}

// Load returns the cached key for a circuit, loading it on first use.
func (c *CachedKeyLoader) Load(id CircuitID) (*proofs.VerificationKey, error) {
	if vk, ok := c.keys.Get(string(id)); ok {
		return vk, nil
	}
	vk, err := c.inner.Load(id)
	if err != nil {
		return nil, err
	}
	c.keys.Set(string(id), vk)
	return vk, nil
}
