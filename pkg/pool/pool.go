// Package pool provides generic object pooling and size-bucketed byte buffer
// pooling for colwire.
//
// Builders and the IPC writer allocate many short-lived byte buffers whose
// sizes cluster around powers of two. BufferPool hands out buffers from
// fixed size buckets and takes them back when their owning allocation is
// released, which keeps steady-state streaming allocation-free.
//
// Example usage:
//
//	buf := pool.GlobalBufferPool.Get(4096)
//	defer pool.GlobalBufferPool.Put(buf)
//
//	fbPool := pool.New(
//	    func() *flatbuffers.Builder { return flatbuffers.NewBuilder(1024) },
//	    func(b *flatbuffers.Builder) { b.Reset() },
//	)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with statistics tracking and an optional reset hook.
// The pool is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		hits      int64
		misses    int64
	}
}

// New creates a new typed pool with custom allocation and reset functions.
// The new function is called when the pool is empty. The reset function, if
// non-nil, is called before an object goes back into the pool.
func New[T any](new func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{
		new:   new,
		reset: reset,
	}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		atomic.AddInt64(&p.stats.misses, 1)
		return new()
	}
	return p
}

// Get retrieves an object from the pool, creating one if the pool is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	before := atomic.LoadInt64(&p.stats.misses)
	obj := p.pool.Get().(T)
	if atomic.LoadInt64(&p.stats.misses) == before {
		atomic.AddInt64(&p.stats.hits, 1)
	}
	return obj
}

// Put returns an object to the pool for reuse.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns current pool statistics.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Allocated: atomic.LoadInt64(&p.stats.allocated),
		InUse:     atomic.LoadInt64(&p.stats.inUse),
		Hits:      atomic.LoadInt64(&p.stats.hits),
		Misses:    atomic.LoadInt64(&p.stats.misses),
	}
}

// BufferPool manages byte buffer pooling with size-based buckets.
// It maintains one pool per bucket and selects the smallest bucket that
// fits a request.
type BufferPool struct {
	pools []*Pool[[]byte]
	sizes []int
}

// DefaultBucketSizes are the bucket sizes used by NewBufferPool:
// 64B, 512B, 4KB, 16KB, 64KB, 256KB, 1MB, 4MB, 16MB.
var DefaultBucketSizes = []int{
	64,
	512,
	4096,
	16384,
	65536,
	262144,
	1048576,
	4194304,
	16777216,
}

// NewBufferPool creates a buffer pool with DefaultBucketSizes. Requests
// larger than the biggest bucket are allocated directly.
func NewBufferPool() *BufferPool {
	return NewBufferPoolWithSizes(DefaultBucketSizes)
}

// NewBufferPoolWithSizes creates a buffer pool with the given ascending
// bucket sizes.
func NewBufferPoolWithSizes(sizes []int) *BufferPool {
	pools := make([]*Pool[[]byte], len(sizes))
	for i, size := range sizes {
		size := size // capture loop variable
		pools[i] = New(
			func() []byte {
				return make([]byte, size)
			},
			nil,
		)
	}

	return &BufferPool{
		pools: pools,
		sizes: append([]int(nil), sizes...),
	}
}

// Get returns a zeroed buffer of exactly size bytes whose capacity is the
// bucket size.
func (p *BufferPool) Get(size int) []byte {
	for i, s := range p.sizes {
		if s >= size {
			buf := p.pools[i].Get()[:s]
			clear(buf)
			return buf[:size]
		}
	}

	// Fallback to allocation for very large buffers
	return make([]byte, size)
}

// Put returns a buffer to the pool for reuse. Buffers whose capacity does
// not match a bucket are left to the garbage collector.
func (p *BufferPool) Put(buf []byte) {
	size := cap(buf)

	for i, s := range p.sizes {
		if s == size {
			p.pools[i].Put(buf[:0])
			return
		}
	}
}

// BucketSize returns the capacity Get would return for a request of size
// bytes.
func (p *BufferPool) BucketSize(size int) int {
	for _, s := range p.sizes {
		if s >= size {
			return s
		}
	}
	return size
}

// Stats returns per-bucket statistics keyed by bucket size.
func (p *BufferPool) Stats() map[int]Stats {
	out := make(map[int]Stats, len(p.sizes))
	for i, s := range p.sizes {
		out[s] = p.pools[i].Stats()
	}
	return out
}

// GlobalBufferPool provides size-based byte buffer pooling shared by
// allocators that do not bring their own.
var GlobalBufferPool = NewBufferPool()

// Stats represents pool statistics for monitoring and optimization.
type Stats struct {
	// Allocated is the total number of objects created by the pool
	Allocated int64
	// InUse is the current number of objects checked out from the pool
	InUse int64
	// Hits is the number of retrievals served from the pool
	Hits int64
	// Misses is the number of times a new object had to be created
	Misses int64
}
