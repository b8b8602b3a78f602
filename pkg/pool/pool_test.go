package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolGetPut(t *testing.T) {
	type item struct{ n int }
	p := New(func() *item { return &item{} }, func(i *item) { i.n = 0 })

	a := p.Get()
	a.n = 5
	p.Put(a)

	s := p.Stats()
	assert.Equal(t, int64(0), s.InUse)
	assert.GreaterOrEqual(t, s.Allocated, int64(1))
	assert.Equal(t, s.Allocated, s.Misses)
}

func TestBufferPoolBuckets(t *testing.T) {
	p := NewBufferPool()

	buf := p.Get(100)
	require.Len(t, buf, 100)
	assert.Equal(t, 512, cap(buf))
	assert.Equal(t, 512, p.BucketSize(100))

	big := p.Get(32 << 20)
	assert.Len(t, big, 32<<20)
	assert.Equal(t, 32<<20, p.BucketSize(32<<20))
}

func TestBufferPoolReturnsZeroed(t *testing.T) {
	p := NewBufferPoolWithSizes([]int{16})
	buf := p.Get(16)
	for i := range buf {
		buf[i] = 0xff
	}
	p.Put(buf)

	again := p.Get(8)
	for _, b := range again[:cap(again)] {
		assert.Equal(t, byte(0), b)
	}
}

func TestBufferPoolIgnoresForeignCapacity(t *testing.T) {
	p := NewBufferPoolWithSizes([]int{16, 32})
	p.Put(make([]byte, 20))
	stats := p.Stats()
	assert.Equal(t, int64(0), stats[16].Allocated)
	assert.Equal(t, int64(0), stats[32].Allocated)
}
