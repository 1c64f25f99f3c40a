package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMissReturnsFalse(t *testing.T) {
	c := NewLFU[string](10)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestPutGet(t *testing.T) {
	c := NewLFU[string](10)
	c.Put("a", "one")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "one", v)
	assert.Equal(t, 1, c.Len())
}

func TestReplaceUpdatesValue(t *testing.T) {
	c := NewLFU[string](10)
	c.Put("a", "one")
	c.Put("a", "two")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "two", v)
	assert.Equal(t, 1, c.Len())
}

func TestEvictsFIFOAtUniformFrequency(t *testing.T) {
	// capacity+1 inserts with no Get calls: exactly one eviction, and the
	// victim is the first key inserted.
	c := NewLFU[int](3)
	c.Put("k0", 0)
	c.Put("k1", 1)
	c.Put("k2", 2)
	c.Put("k3", 3)

	assert.Equal(t, 3, c.Len())
	assert.False(t, c.Contains("k0"))
	assert.True(t, c.Contains("k1"))
	assert.True(t, c.Contains("k2"))
	assert.True(t, c.Contains("k3"))
}

func TestFrequentKeySurvivesEviction(t *testing.T) {
	c := NewLFU[int](2)
	c.Put("s1", 1)
	c.Put("s2", 2)

	_, ok := c.Get("s1")
	require.True(t, ok)

	// s2 has the lower frequency, so it is the one evicted.
	c.Put("s3", 3)

	assert.True(t, c.Contains("s1"))
	assert.False(t, c.Contains("s2"))
	assert.True(t, c.Contains("s3"))
}

func TestHotKeySurvivesSustainedPressure(t *testing.T) {
	c := NewLFU[int](4)
	c.Put("hot", 0)
	for i := 0; i < 10; i++ {
		c.Get("hot")
	}

	for i := 0; i < 20; i++ {
		c.Put(fmt.Sprintf("cold%d", i), i)
	}

	assert.True(t, c.Contains("hot"))
	assert.Equal(t, 4, c.Len())
}

func TestReplaceBumpsFrequency(t *testing.T) {
	c := NewLFU[int](2)
	c.Put("a", 1)
	c.Put("a", 2) // bumps a to frequency 2
	c.Put("b", 1)
	c.Put("c", 1) // b is the min-frequency FIFO head

	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))
}

func TestRemove(t *testing.T) {
	c := NewLFU[int](2)
	c.Put("a", 1)
	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.False(t, c.Contains("a"))
	assert.Equal(t, 0, c.Len())

	// cache stays usable after removing the last entry
	c.Put("b", 2)
	c.Put("c", 3)
	c.Put("d", 4)
	assert.Equal(t, 2, c.Len())
}

func TestClear(t *testing.T) {
	c := NewLFU[int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()
	assert.Equal(t, 0, c.Len())
	c.Put("c", 3)
	assert.True(t, c.Contains("c"))
}

func TestCapacityOneCycles(t *testing.T) {
	c := NewLFU[int](1)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Contains("c"))
}

func TestConcurrentAccess(t *testing.T) {
	c := NewLFU[int](32)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*31+i)%64)
				c.Put(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 32)
}
