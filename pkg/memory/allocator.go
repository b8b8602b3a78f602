// Package memory provides the byte storage underneath every column: owning
// allocations with a reference count, zero-copy views over them, growable
// buffers for builders, and LSB-first bitmap helpers.
//
// An Allocation owns bytes. A Buffer is a view (allocation, byte range)
// that never copies; slicing a Buffer produces another view over the same
// allocation and takes a reference on it. When the last reference is
// released, pool-backed allocations return their bytes to the pool.
package memory

import (
	"sync/atomic"

	"github.com/ajitpratap0/colwire/pkg/pool"
)

// Alignment is the byte alignment of every buffer written to the wire.
const Alignment = 8

// Allocator hands out and takes back raw byte slices.
type Allocator interface {
	Allocate(size int) []byte
	Free(b []byte)
}

// GoAllocator allocates from the Go heap and leaves freeing to the GC.
type GoAllocator struct{}

// Allocate returns a zeroed slice of size bytes.
func (GoAllocator) Allocate(size int) []byte { return make([]byte, size) }

// Free is a no-op.
func (GoAllocator) Free([]byte) {}

// PoolAllocator serves allocations from a size-bucketed BufferPool.
type PoolAllocator struct {
	pool      *pool.BufferPool
	allocated int64
}

// NewPoolAllocator creates an allocator backed by p, or by
// pool.GlobalBufferPool when p is nil.
func NewPoolAllocator(p *pool.BufferPool) *PoolAllocator {
	if p == nil {
		p = pool.GlobalBufferPool
	}
	return &PoolAllocator{pool: p}
}

// Allocate returns a zeroed slice of size bytes.
func (a *PoolAllocator) Allocate(size int) []byte {
	b := a.pool.Get(size)
	atomic.AddInt64(&a.allocated, int64(cap(b)))
	return b
}

// Free returns b to the pool.
func (a *PoolAllocator) Free(b []byte) {
	atomic.AddInt64(&a.allocated, -int64(cap(b)))
	a.pool.Put(b)
}

// Allocated reports the bytes currently checked out of the pool.
func (a *PoolAllocator) Allocated() int64 {
	return atomic.LoadInt64(&a.allocated)
}

// DefaultAllocator is used wherever no allocator is configured.
var DefaultAllocator Allocator = NewPoolAllocator(nil)

// Allocation is a reference-counted owning byte slice.
type Allocation struct {
	refs int64
	buf  []byte
	mem  Allocator
}

// NewAllocation allocates size bytes from mem with a reference count of one.
func NewAllocation(mem Allocator, size int) *Allocation {
	if mem == nil {
		mem = DefaultAllocator
	}
	return &Allocation{refs: 1, buf: mem.Allocate(size), mem: mem}
}

// WrapAllocation adopts foreign memory such as an IPC message body or a
// memory-mapped region. Releasing it never frees b.
func WrapAllocation(b []byte) *Allocation {
	return &Allocation{refs: 1, buf: b}
}

// Bytes returns the full allocation.
func (a *Allocation) Bytes() []byte { return a.buf }

// Refs returns the current reference count.
func (a *Allocation) Refs() int64 { return atomic.LoadInt64(&a.refs) }

// Retain takes a reference.
func (a *Allocation) Retain() {
	if a != nil {
		atomic.AddInt64(&a.refs, 1)
	}
}

// Release drops a reference and frees the bytes when it was the last one.
func (a *Allocation) Release() {
	if a == nil {
		return
	}
	if atomic.AddInt64(&a.refs, -1) == 0 {
		if a.mem != nil {
			a.mem.Free(a.buf)
		}
		a.buf = nil
	}
}
