package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/pool"
)

func TestResizableBufferDoublesAndPreserves(t *testing.T) {
	r := NewResizableBuffer(GoAllocator{})
	for i := 0; i < 1000; i++ {
		r.Append([]byte{byte(i)})
	}
	require.Equal(t, 1000, r.Len())
	assert.Equal(t, 1024, r.Cap())
	for i, b := range r.Bytes() {
		require.Equal(t, byte(i), b, "index %d", i)
	}

	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 1024, r.Cap())
}

func TestResizableBufferResizeZeroes(t *testing.T) {
	r := NewResizableBuffer(GoAllocator{})
	r.Append([]byte{1, 2, 3})
	r.Reset()
	r.Resize(3)
	assert.Equal(t, []byte{0, 0, 0}, r.Bytes())
}

func TestFinishSnapshotsContents(t *testing.T) {
	r := NewResizableBuffer(nil)
	r.Append([]byte("hello"))
	buf := r.Finish()
	r.Reset()
	r.Append([]byte("world"))
	assert.Equal(t, "hello", string(buf.Bytes()))
	buf.Release()
}

func TestBufferSliceSharesAllocation(t *testing.T) {
	buf := NewBufferBytes([]byte("abcdef"))
	s, err := buf.Slice(2, 3)
	require.NoError(t, err)
	assert.Equal(t, "cde", string(s.Bytes()))
	assert.Equal(t, int64(2), buf.Allocation().Refs())
	s.Release()
	assert.Equal(t, int64(1), buf.Allocation().Refs())

	_, err = buf.Slice(4, 5)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeInvalid))
}

func TestPoolAllocatorReturnsOnRelease(t *testing.T) {
	mem := NewPoolAllocator(pool.NewBufferPool())
	a := NewAllocation(mem, 100)
	assert.Equal(t, int64(512), mem.Allocated())
	a.Retain()
	a.Release()
	assert.Equal(t, int64(512), mem.Allocated())
	a.Release()
	assert.Equal(t, int64(0), mem.Allocated())
}

func TestNilBuffer(t *testing.T) {
	var b *Buffer
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Bytes())
	b.Retain()
	b.Release()
}

func TestBitmapHelpers(t *testing.T) {
	b := make([]byte, BytesForBits(130))
	for _, i := range []int{0, 3, 8, 64, 65, 127, 129} {
		SetBit(b, i)
	}
	assert.True(t, BitIsSet(b, 3))
	assert.False(t, BitIsSet(b, 4))
	assert.Equal(t, 7, CountSetBits(b, 0, 130))
	assert.Equal(t, 5, CountSetBits(b, 4, 126))
	assert.Equal(t, 2, CountSetBits(b, 64, 2))

	ClearBit(b, 0)
	assert.Equal(t, 6, CountSetBits(b, 0, 130))

	c := CopyBitmap(b, 3, 10)
	assert.True(t, BitIsSet(c, 0))
	assert.True(t, BitIsSet(c, 5))
	assert.Equal(t, 2, CountSetBits(c, 0, 10))
}

func TestPaddedLength(t *testing.T) {
	assert.Equal(t, 0, PaddedLength(0, 8))
	assert.Equal(t, 8, PaddedLength(1, 8))
	assert.Equal(t, 16, PaddedLength(16, 8))
	assert.Equal(t, 24, PaddedLength(17, 8))
}
