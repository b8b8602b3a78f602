// Package data defines Data, the physical representation of one column:
// a logical type bound to its buffers, child nodes and an optional
// dictionary, viewed over the half-open logical range [offset, offset+length).
//
// Buffer slots by layout family:
//
//	null                   none
//	bool, fixed width      [validity, values]
//	variable width         [validity, offsets, values]
//	list, map              [validity, offsets]           children: 1
//	fixed size list        [validity]                    children: 1
//	struct                 [validity]                    children: N
//	sparse union           [type ids]                    children: N
//	dense union            [type ids, offsets]           children: N
//	dictionary             layout of the index type      dictionary: values
//
// A nil validity buffer means every slot is valid. Children of struct,
// fixed-size list and sparse union nodes are addressed through the parent
// offset, so slicing a parent never touches its children.
package data

import (
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
)

// UnknownNullCount asks NullN to compute the count from the validity bitmap.
const UnknownNullCount = -1

// Data is one node of a column tree. It is immutable by convention: the
// null count is cached on first use, so a node must not be shared across
// goroutines before NullN has been called once.
type Data struct {
	dtype      *datatype.DataType
	offset     int
	length     int
	nullCount  int
	buffers    []*memory.Buffer
	children   []*Data
	dictionary *Data
}

// New creates a node and takes ownership of the caller's references to
// buffers and children.
func New(dt *datatype.DataType, length int, buffers []*memory.Buffer, children []*Data, nullCount, offset int) *Data {
	if dt.ID == datatype.NULL {
		nullCount = length
	}
	return &Data{
		dtype:     dt,
		offset:    offset,
		length:    length,
		nullCount: nullCount,
		buffers:   buffers,
		children:  children,
	}
}

// NewDictionary creates a dictionary-encoded node whose buffers hold
// indices into dict.
func NewDictionary(dt *datatype.DataType, length int, buffers []*memory.Buffer, nullCount, offset int, dict *Data) *Data {
	d := New(dt, length, buffers, nil, nullCount, offset)
	d.dictionary = dict
	return d
}

func (d *Data) Type() *datatype.DataType  { return d.dtype }
func (d *Data) Len() int                  { return d.length }
func (d *Data) Offset() int               { return d.offset }
func (d *Data) Buffers() []*memory.Buffer { return d.buffers }
func (d *Data) Children() []*Data         { return d.children }
func (d *Data) Dictionary() *Data         { return d.dictionary }

// RawNullCount returns the stored count, possibly UnknownNullCount.
func (d *Data) RawNullCount() int { return d.nullCount }

// NullN returns the number of nulls in the logical range.
func (d *Data) NullN() int {
	if d.nullCount != UnknownNullCount {
		return d.nullCount
	}
	switch d.dtype.Layout() {
	case datatype.LayoutNull:
		d.nullCount = d.length
	case datatype.LayoutUnion:
		d.nullCount = 0
	default:
		v := d.validity()
		if v == nil {
			d.nullCount = 0
		} else {
			d.nullCount = d.length - memory.CountSetBits(v, d.offset, d.length)
		}
	}
	return d.nullCount
}

func (d *Data) validity() []byte {
	if len(d.buffers) == 0 || d.dtype.Layout() == datatype.LayoutUnion {
		return nil
	}
	return d.buffers[0].Bytes()
}

// Validity returns the validity bitmap bytes, or nil when all slots are
// valid.
func (d *Data) Validity() []byte { return d.validity() }

// IsValid reports whether slot i holds a value. Union slots are valid when
// the selected child slot is.
func (d *Data) IsValid(i int) bool {
	switch d.dtype.Layout() {
	case datatype.LayoutNull:
		return false
	case datatype.LayoutUnion:
		c, j := d.UnionChild(i)
		return d.children[c].IsValid(j)
	}
	if d.nullCount == 0 {
		return true
	}
	v := d.validity()
	return v == nil || memory.BitIsSet(v, d.offset+i)
}

// IsNull is !IsValid.
func (d *Data) IsNull(i int) bool { return !d.IsValid(i) }

// Slice returns a zero-copy view of n slots starting at begin.
func (d *Data) Slice(begin, n int) (*Data, error) {
	if begin < 0 || n < 0 || begin+n > d.length {
		return nil, colerrors.Newf(colerrors.ErrorTypeInvalid,
			"slice [%d:%d] out of range for length %d", begin, begin+n, d.length)
	}
	nulls := UnknownNullCount
	switch {
	case d.nullCount == 0:
		nulls = 0
	case begin == 0 && n == d.length:
		nulls = d.nullCount
	case d.dtype.ID == datatype.NULL:
		nulls = n
	}
	for _, b := range d.buffers {
		b.Retain()
	}
	for _, c := range d.children {
		c.Retain()
	}
	if d.dictionary != nil {
		d.dictionary.Retain()
	}
	return &Data{
		dtype:      d.dtype,
		offset:     d.offset + begin,
		length:     n,
		nullCount:  nulls,
		buffers:    d.buffers,
		children:   d.children,
		dictionary: d.dictionary,
	}, nil
}

// MustSlice is Slice that panics on a bad range.
func (d *Data) MustSlice(begin, n int) *Data {
	s, err := d.Slice(begin, n)
	if err != nil {
		panic(err)
	}
	return s
}

// Retain takes a reference on every buffer in the tree.
func (d *Data) Retain() {
	for _, b := range d.buffers {
		b.Retain()
	}
	for _, c := range d.children {
		c.Retain()
	}
	if d.dictionary != nil {
		d.dictionary.Retain()
	}
}

// Release drops a reference on every buffer in the tree.
func (d *Data) Release() {
	for _, b := range d.buffers {
		b.Release()
	}
	for _, c := range d.children {
		c.Release()
	}
	if d.dictionary != nil {
		d.dictionary.Release()
	}
}

// ValueOffsets returns the start and end entries of the offsets buffer for
// slot i of a variable-width or list node.
func (d *Data) ValueOffsets(i int) (int, int) {
	b := d.buffers[1].Bytes()
	j := (d.offset + i) * 4
	return int(int32(le.Uint32(b[j:]))), int(int32(le.Uint32(b[j+4:])))
}

// ChildRange returns the slot range of child c that backs this node's
// logical range. It is not defined for dense unions.
func (d *Data) ChildRange(c int) (begin, n int) {
	switch d.dtype.Layout() {
	case datatype.LayoutList:
		if d.length == 0 {
			return 0, 0
		}
		start, _ := d.ValueOffsets(0)
		_, end := d.ValueOffsets(d.length - 1)
		return start, end - start
	case datatype.LayoutFixedSizeList:
		size := d.dtype.ListSize
		return d.offset * size, d.length * size
	default:
		return d.offset, d.length
	}
}

// LogicalChild returns child c sliced to ChildRange(c).
func (d *Data) LogicalChild(c int) (*Data, error) {
	begin, n := d.ChildRange(c)
	return d.children[c].Slice(begin, n)
}

// UnionChild returns the child index and child slot selected by slot i of a
// union node.
func (d *Data) UnionChild(i int) (child, slot int) {
	code := int8(d.buffers[0].Bytes()[d.offset+i])
	child = d.dtype.ChildIndex(code)
	if d.dtype.ID == datatype.DENSE_UNION {
		b := d.buffers[1].Bytes()
		return child, int(int32(le.Uint32(b[(d.offset+i)*4:])))
	}
	return child, d.offset + i
}

// DictionaryIndex returns the dictionary index stored at slot i.
func (d *Data) DictionaryIndex(i int) int {
	return int(readInt(d.dtype.Index, d.buffers[1].Bytes(), d.offset+i))
}
