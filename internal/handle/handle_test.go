package handle

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	created, destroyed atomic.Int64
}

func (o *countingObserver) RuntimeCreated(int64)   { o.created.Add(1) }
func (o *countingObserver) RuntimeDestroyed(int64) { o.destroyed.Add(1) }

func TestPutGetRemove(t *testing.T) {
	tab := NewTable[string](nil)
	c := tab.Put("a")
	require.True(t, c.Valid())
	assert.Len(t, c, Size)

	v, ok := tab.Get(c)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = tab.Remove(c)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = tab.Get(c)
	assert.False(t, ok)
	_, ok = tab.Remove(c)
	assert.False(t, ok, "second remove is a no-op")
}

func TestMalformedCapabilities(t *testing.T) {
	tab := NewTable[int](nil)
	tab.Put(1)

	for _, c := range []Capability{nil, {}, {1, 2, 3}, make(Capability, Size)} {
		_, ok := tab.Get(c)
		assert.False(t, ok)
		_, ok = tab.Remove(c)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, tab.Len())
}

func TestTamperedCapabilityMisses(t *testing.T) {
	tab := NewTable[int](nil)
	c := tab.Put(7)
	forged := append(Capability(nil), c...)
	forged[0] ^= 0xff
	_, ok := tab.Get(forged)
	assert.False(t, ok)
}

func TestLiveCounterUnderConcurrency(t *testing.T) {
	obs := &countingObserver{}
	tab := NewTable[int](obs)
	before := Live()

	const n, m = 64, 40
	caps := make([]Capability, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caps[i] = tab.Put(i)
		}(i)
	}
	wg.Wait()

	for i := 0; i < m; i++ {
		wg.Add(1)
		go func(c Capability) {
			defer wg.Done()
			tab.Remove(c)
		}(caps[i])
	}
	wg.Wait()

	assert.Equal(t, before+n-m, Live())
	assert.Equal(t, n-m, tab.Len())
	assert.EqualValues(t, n, obs.created.Load())
	assert.EqualValues(t, m, obs.destroyed.Load())

	assert.Len(t, tab.Drain(), n-m)
	assert.Equal(t, before, Live())
}
