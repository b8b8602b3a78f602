package ipc

import (
	"encoding/binary"
	"math"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/compression"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
)

var le = binary.LittleEndian

// FieldNode summarizes one node of a column tree on the wire.
type FieldNode struct {
	Length    int64
	NullCount int64
}

// BufferRegion locates one buffer inside a message body.
type BufferRegion struct {
	Offset int64
	Length int64
}

// Assembly is a column tree flattened for the wire. Bodies[i] holds the bytes
// of Buffers[i]; region lengths exclude padding, BodyLength includes it.
type Assembly struct {
	FieldNodes []FieldNode
	Buffers    []BufferRegion
	Bodies     [][]byte
	BodyLength int64
}

// Assemble flattens columns in pre-order. Buffers are emitted per node in the
// order the layout declares them: validity first, then offsets or type ids,
// then values. This is the Arrow buffer order, so validity never comes after
// the offsets and bodies interoperate byte for byte with other Arrow
// readers. The null layout emits a field node and no buffers. Sliced
// nodes are rebased so every emitted offsets buffer starts at zero and only
// the referenced part of each values buffer is sent.
//
// Bodies alias the columns' memory wherever no rebasing was needed, so the
// columns must stay alive until the assembly has been written.
func Assemble(columns ...*data.Data) (*Assembly, error) {
	a := &Assembly{}
	for _, c := range columns {
		if err := a.visit(c); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Assembly) addBuffer(b []byte) {
	a.Buffers = append(a.Buffers, BufferRegion{Offset: a.BodyLength, Length: int64(len(b))})
	a.Bodies = append(a.Bodies, b)
	a.BodyLength += paddedLength(int64(len(b)))
}

func (a *Assembly) visit(d *data.Data) error {
	dt := d.Type()
	a.FieldNodes = append(a.FieldNodes, FieldNode{Length: int64(d.Len()), NullCount: int64(d.NullN())})

	switch dt.Layout() {
	case datatype.LayoutNull:
		return nil

	case datatype.LayoutBool:
		a.addValidity(d)
		a.addBuffer(bitmapRange(bufferBytes(d, 1), d.Offset(), d.Len()))
		return nil

	case datatype.LayoutFixedWidth:
		a.addValidity(d)
		w := dt.ByteSize()
		a.addBuffer(byteRange(bufferBytes(d, 1), d.Offset()*w, d.Len()*w))
		return nil

	case datatype.LayoutDictionary:
		a.addValidity(d)
		w := dt.Index.ByteSize()
		a.addBuffer(byteRange(bufferBytes(d, 1), d.Offset()*w, d.Len()*w))
		return nil

	case datatype.LayoutVariableWidth:
		a.addValidity(d)
		offsets, begin, end := rebaseOffsets(d)
		a.addBuffer(offsets)
		a.addBuffer(byteRange(bufferBytes(d, 2), begin, end-begin))
		return nil

	case datatype.LayoutList:
		a.addValidity(d)
		offsets, begin, end := rebaseOffsets(d)
		a.addBuffer(offsets)
		return a.visitSlice(d.Children()[0], begin, end-begin)

	case datatype.LayoutFixedSizeList, datatype.LayoutStruct:
		a.addValidity(d)
		for c := range d.Children() {
			begin, n := d.ChildRange(c)
			if err := a.visitSlice(d.Children()[c], begin, n); err != nil {
				return err
			}
		}
		return nil

	case datatype.LayoutUnion:
		a.addBuffer(byteRange(bufferBytes(d, 0), d.Offset(), d.Len()))
		if dt.ID == datatype.SPARSE_UNION {
			for c := range d.Children() {
				if err := a.visitSlice(d.Children()[c], d.Offset(), d.Len()); err != nil {
					return err
				}
			}
			return nil
		}
		offsets, ranges, err := rebaseDenseUnion(d)
		if err != nil {
			return err
		}
		a.addBuffer(offsets)
		for c := range d.Children() {
			if err := a.visitSlice(d.Children()[c], ranges[c][0], ranges[c][1]); err != nil {
				return err
			}
		}
		return nil
	}
	return colerrors.Newf(colerrors.ErrorTypeUnsupported, "cannot assemble %s", dt)
}

func (a *Assembly) visitSlice(child *data.Data, begin, n int) error {
	s, err := child.Slice(begin, n)
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeInvalid, "child range outside child")
	}
	defer s.Release()
	return a.visit(s)
}

// addValidity emits an empty region when the node has no nulls.
func (a *Assembly) addValidity(d *data.Data) {
	v := d.Validity()
	if d.NullN() == 0 || v == nil {
		a.addBuffer(nil)
		return
	}
	a.addBuffer(bitmapRange(v, d.Offset(), d.Len()))
}

func bufferBytes(d *data.Data, i int) []byte {
	bufs := d.Buffers()
	if i >= len(bufs) {
		return nil
	}
	return bufs[i].Bytes()
}

func byteRange(b []byte, off, n int) []byte {
	if n == 0 {
		return nil
	}
	return b[off : off+n]
}

// bitmapRange returns n bits starting at bit offset, copying only when the
// offset is not byte aligned.
func bitmapRange(b []byte, offset, n int) []byte {
	if n == 0 {
		return nil
	}
	if offset%8 == 0 {
		start := offset / 8
		return b[start : start+memory.BytesForBits(n)]
	}
	return memory.CopyBitmap(b, offset, n)
}

// rebaseOffsets returns the n+1 offsets of d's logical range shifted to start
// at zero, and the range of the values (or child) they address.
func rebaseOffsets(d *data.Data) (offsets []byte, begin, end int) {
	n := d.Len()
	raw := bufferBytes(d, 1)
	if n == 0 || len(raw) == 0 {
		return make([]byte, 4), 0, 0
	}
	start := d.Offset() * 4
	raw = raw[start : start+(n+1)*4]
	first := int32(le.Uint32(raw))
	last := int32(le.Uint32(raw[n*4:]))
	if first == 0 {
		return raw, 0, int(last)
	}
	offsets = make([]byte, len(raw))
	for i := 0; i <= n; i++ {
		le.PutUint32(offsets[i*4:], uint32(int32(le.Uint32(raw[i*4:]))-first))
	}
	return offsets, int(first), int(last)
}

// rebaseDenseUnion shifts each slot's child offset by the smallest offset
// used for that child, and returns the [begin, length] range of every child.
func rebaseDenseUnion(d *data.Data) ([]byte, [][2]int, error) {
	dt := d.Type()
	n := d.Len()
	ids := bufferBytes(d, 0)
	raw := bufferBytes(d, 1)

	lo := make([]int32, len(dt.Children))
	hi := make([]int32, len(dt.Children))
	for c := range lo {
		lo[c], hi[c] = math.MaxInt32, -1
	}
	children := make([]int, n)
	for i := 0; i < n; i++ {
		slot := d.Offset() + i
		c := dt.ChildIndex(int8(ids[slot]))
		if c < 0 {
			return nil, nil, colerrors.Newf(colerrors.ErrorTypeInvalid,
				"union slot %d has unknown type code %d", i, int8(ids[slot]))
		}
		children[i] = c
		off := int32(le.Uint32(raw[slot*4:]))
		lo[c] = min(lo[c], off)
		hi[c] = max(hi[c], off)
	}

	offsets := make([]byte, 4*n)
	for i := 0; i < n; i++ {
		c := children[i]
		off := int32(le.Uint32(raw[(d.Offset()+i)*4:]))
		le.PutUint32(offsets[i*4:], uint32(off-lo[c]))
	}
	ranges := make([][2]int, len(dt.Children))
	for c := range ranges {
		if hi[c] >= 0 {
			ranges[c] = [2]int{int(lo[c]), int(hi[c]-lo[c]) + 1}
		}
	}
	return offsets, ranges, nil
}

// compress rewrites every non-empty buffer as an int64 uncompressed length
// followed by the compressed bytes, or -1 followed by the raw bytes when
// compression does not shrink the buffer.
func (a *Assembly) compress(c compression.Compressor) (*Assembly, error) {
	out := &Assembly{
		FieldNodes: a.FieldNodes,
		Buffers:    make([]BufferRegion, 0, len(a.Buffers)),
		Bodies:     make([][]byte, 0, len(a.Bodies)),
	}
	for _, raw := range a.Bodies {
		if len(raw) == 0 {
			out.addBuffer(nil)
			continue
		}
		packed, err := c.Compress(make([]byte, 8, 8+len(raw)), raw)
		if err != nil {
			return nil, err
		}
		if len(packed)-8 >= len(raw) {
			packed = append(packed[:8], raw...)
			le.PutUint64(packed, uint64(math.MaxUint64)) // -1
		} else {
			le.PutUint64(packed, uint64(len(raw)))
		}
		out.addBuffer(packed)
	}
	return out, nil
}
