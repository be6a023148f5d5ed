package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_SetGet(t *testing.T) {
	c := NewLRU[string](4, time.Minute)

	c.Set("a", "one")
	c.Set("b", "two")

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "one", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRU_Overwrite(t *testing.T) {
	c := NewLRU[int](4, time.Minute)

	c.Set("k", 1)
	c.Set("k", 2)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := NewLRU[string](4, 10*time.Millisecond)

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLRU_Delete(t *testing.T) {
	c := NewLRU[string](4, time.Minute)

	c.Set("k", "v")
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
	c.Delete("k")
}

func BenchmarkLRU_Set(b *testing.B) {
	c := NewLRU[string](1000, 5*time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key-%d", i%2000), "value")
	}
}

func BenchmarkLRU_Get(b *testing.B) {
	c := NewLRU[string](1000, 5*time.Minute)
	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("key-%d", i), "value")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(fmt.Sprintf("key-%d", i%100))
	}
}
