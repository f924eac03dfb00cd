// Package cache is a small typed wrapper around ccache used for
// read-mostly registry data: parsed verification keys and root
// snapshots.
package cache

import (
	"time"

	"github.com/karlseguin/ccache/v3"
)

// Cache is a bounded in-memory cache with per-entry TTL.
type Cache[T any] struct {
	inner      *ccache.Cache[T]
	defaultTTL time.Duration
}

// Option overrides per-call cache behavior.
type Option func(*callOptions)

type callOptions struct {
	ttl time.Duration
}

// WithTTL sets a per-entry TTL instead of the cache default.
func WithTTL(ttl time.Duration) Option {
	return func(o *callOptions) { o.ttl = ttl }
}

// New creates a cache bounded to size entries with a default TTL.
func New[T any](size int64, defaultTTL time.Duration) *Cache[T] {
	return &Cache[T]{
		inner:      ccache.New(ccache.Configure[T]().MaxSize(size)),
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[T]) Get(key string) (T, bool) {
	item := c.inner.Get(key)
	if item == nil || item.Expired() {
		var zero T
		return zero, false
	}
	return item.Value(), true
}

// Set stores a value under key.
func (c *Cache[T]) Set(key string, value T, opts ...Option) {
	co := callOptions{ttl: c.defaultTTL}
	for _, opt := range opts {
		opt(&co)
	}
	c.inner.Set(key, value, co.ttl)
}

// Delete removes key from the cache.
func (c *Cache[T]) Delete(key string) {
	c.inner.Delete(key)
}

// Len returns the number of cached entries.
func (c *Cache[T]) Len() int {
	return c.inner.ItemCount()
}

// Clear drops all entries.
func (c *Cache[T]) Clear() {
	c.inner.Clear()
}
