package memory

import (
	"github.com/ajitpratap0/colwire/pkg/colerrors"
)

// Buffer is an immutable-by-convention view over an Allocation. A nil
// *Buffer is a valid absent buffer of length zero.
type Buffer struct {
	alloc *Allocation
	buf   []byte
}

// NewBuffer returns a view over the whole allocation, taking ownership of
// the caller's reference.
func NewBuffer(a *Allocation) *Buffer {
	return &Buffer{alloc: a, buf: a.buf}
}

// NewBufferBytes wraps foreign bytes without copying.
func NewBufferBytes(b []byte) *Buffer {
	return &Buffer{alloc: WrapAllocation(b), buf: b}
}

// Bytes returns the viewed bytes. Callers must not mutate a shared buffer.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.buf
}

// Len returns the number of viewed bytes.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.buf)
}

// Allocation returns the owning allocation.
func (b *Buffer) Allocation() *Allocation {
	if b == nil {
		return nil
	}
	return b.alloc
}

// Slice returns a view of n bytes starting at off. The returned buffer holds
// its own reference on the allocation.
func (b *Buffer) Slice(off, n int) (*Buffer, error) {
	if off < 0 || n < 0 || off+n > b.Len() {
		return nil, colerrors.Newf(colerrors.ErrorTypeInvalid,
			"buffer slice [%d:%d] out of range for length %d", off, off+n, b.Len())
	}
	b.alloc.Retain()
	return &Buffer{alloc: b.alloc, buf: b.buf[off : off+n : off+n]}, nil
}

// Retain takes a reference on the underlying allocation.
func (b *Buffer) Retain() {
	if b != nil {
		b.alloc.Retain()
	}
}

// Release drops a reference on the underlying allocation.
func (b *Buffer) Release() {
	if b != nil {
		b.alloc.Release()
	}
}

// ResizableBuffer is the growable byte store behind a builder. Its capacity
// doubles when a write would exceed it and never shrinks; Reset keeps the
// capacity for the next batch.
type ResizableBuffer struct {
	mem Allocator
	buf []byte
	n   int
}

// NewResizableBuffer creates an empty buffer drawing from mem.
func NewResizableBuffer(mem Allocator) *ResizableBuffer {
	if mem == nil {
		mem = DefaultAllocator
	}
	return &ResizableBuffer{mem: mem}
}

// Len returns the logical length.
func (r *ResizableBuffer) Len() int { return r.n }

// Cap returns the reserved capacity.
func (r *ResizableBuffer) Cap() int { return len(r.buf) }

// Bytes returns the logical contents. The slice is invalidated by any call
// that grows the buffer.
func (r *ResizableBuffer) Bytes() []byte { return r.buf[:r.n] }

// Reserve ensures room for extra more bytes past the current length.
func (r *ResizableBuffer) Reserve(extra int) {
	r.grow(r.n + extra)
}

// Resize sets the logical length, growing capacity as needed. Bytes exposed
// by growing the length are zero.
func (r *ResizableBuffer) Resize(n int) {
	r.grow(n)
	if n > r.n {
		clear(r.buf[r.n:n])
	}
	r.n = n
}

// Append copies p onto the end of the buffer.
func (r *ResizableBuffer) Append(p []byte) {
	r.grow(r.n + len(p))
	copy(r.buf[r.n:], p)
	r.n += len(p)
}

// Reset sets the length to zero and keeps the capacity.
func (r *ResizableBuffer) Reset() { r.n = 0 }

// Free releases the reserved capacity back to the allocator.
func (r *ResizableBuffer) Free() {
	if r.buf != nil {
		r.mem.Free(r.buf)
	}
	r.buf, r.n = nil, 0
}

// Finish snapshots the logical contents into a new owning Buffer. The
// resizable buffer stays usable and keeps its capacity.
func (r *ResizableBuffer) Finish() *Buffer {
	a := NewAllocation(r.mem, r.n)
	copy(a.buf, r.buf[:r.n])
	return &Buffer{alloc: a, buf: a.buf[:r.n]}
}

func (r *ResizableBuffer) grow(need int) {
	if need <= len(r.buf) {
		return
	}
	newCap := len(r.buf)
	if newCap < 64 {
		newCap = 64
	}
	for newCap < need {
		newCap *= 2
	}
	nb := r.mem.Allocate(newCap)
	copy(nb, r.buf[:r.n])
	if r.buf != nil {
		r.mem.Free(r.buf)
	}
	r.buf = nb[:cap(nb)]
}
