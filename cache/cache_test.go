package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veilchat/zkregistry/cache"
)

func TestSetAndGet(t *testing.T) {
	c := cache.New[string](10, 2*time.Second)

	c.Set("root", "abc123")

	val, ok := c.Get("root")
	require.True(t, ok)
	require.Equal(t, "abc123", val)
}

func TestGetMissing(t *testing.T) {
	c := cache.New[int](10, time.Second)

	_, ok := c.Get("absent")
	require.False(t, ok)
}

func TestPerEntryTTL(t *testing.T) {
	c := cache.New[string](10, 10*time.Second)

	c.Set("short", "lived", cache.WithTTL(50*time.Millisecond))
	time.Sleep(120 * time.Millisecond)

	_, ok := c.Get("short")
	require.False(t, ok)
}

func TestDelete(t *testing.T) {
	c := cache.New[string](10, time.Second)

	c.Set("k", "v")
	c.Delete("k")

	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestClear(t *testing.T) {
	c := cache.New[string](10, time.Second)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Clear()

	require.Equal(t, 0, c.Len())
}
