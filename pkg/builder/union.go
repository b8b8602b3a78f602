package builder

import (
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
)

// UnionBuilder builds sparse and dense unions. A union has no validity
// bitmap of its own: a null slot is a null in the first child.
//
// Append needs to know which child a value belongs to. Either call
// AppendChild with an explicit type code or configure Options.Discriminant.
type UnionBuilder struct {
	*base
	typeIDs *memory.ResizableBuffer
	offsets *memory.ResizableBuffer
	dense   bool
}

func newUnionBuilder(base *base) *UnionBuilder {
	return &UnionBuilder{
		base:    base,
		typeIDs: memory.NewResizableBuffer(base.opts.Allocator),
		offsets: memory.NewResizableBuffer(base.opts.Allocator),
		dense:   base.dtype.ID == datatype.DENSE_UNION,
	}
}

// NullN is always zero; nulls live in the children.
func (b *UnionBuilder) NullN() int { return 0 }

func (b *UnionBuilder) Append(v any) error { return b.Set(b.length, v) }

// AppendChild appends v to the child with the given type code.
func (b *UnionBuilder) AppendChild(code int8, v any) error { return b.SetChild(b.length, code, v) }

func (b *UnionBuilder) AppendNull() error { return b.SetNull(b.length) }

func (b *UnionBuilder) AppendValues(vs []any) error { return appendValues(b, vs) }

func (b *UnionBuilder) SetNull(i int) error {
	return b.SetChild(i, b.dtype.TypeCodes[0], nil)
}

func (b *UnionBuilder) Set(i int, v any) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if !b.IsValid(v) {
		return b.SetNull(i)
	}
	if b.opts.Discriminant == nil {
		return colerrors.Newf(colerrors.ErrorTypeConstruction,
			"%s builder cannot choose a child for %T: use AppendChild or set a Discriminant", b.dtype, v)
	}
	code, err := b.opts.Discriminant(v)
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeConstruction, "union discriminant failed")
	}
	return b.SetChild(i, code, v)
}

// SetChild writes v into the child with the given type code at slot i. A
// nil v writes a null into that child.
func (b *UnionBuilder) SetChild(i int, code int8, v any) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if err := b.checkChildren(); err != nil {
		return err
	}
	c := b.dtype.ChildIndex(code)
	if c < 0 {
		return colerrors.Newf(colerrors.ErrorTypeConstruction, "%s has no type code %d", b.dtype, code)
	}
	// Gap slots become nulls in the first child.
	for j := b.length; j < i; j++ {
		if err := b.write(j, 0, nil); err != nil {
			return err
		}
	}
	return b.write(i, c, v)
}

func (b *UnionBuilder) write(i, c int, v any) error {
	child := b.children[c]
	var err error
	if b.dense {
		// Overwrites append a fresh child slot; the old one is orphaned.
		slot := child.Len()
		if v == nil {
			err = child.AppendNull()
		} else {
			err = child.Append(v)
		}
		if err != nil {
			return err
		}
		if n := 4 * (i + 1); n > b.offsets.Len() {
			b.offsets.Resize(n)
		}
		le.PutUint32(b.offsets.Bytes()[4*i:], uint32(slot))
	} else {
		for k, other := range b.children {
			switch {
			case k == c && v != nil:
				err = other.Set(i, v)
			default:
				err = other.SetNull(i)
			}
			if err != nil {
				return err
			}
		}
	}
	if i+1 > b.typeIDs.Len() {
		b.typeIDs.Resize(i + 1)
	}
	b.typeIDs.Bytes()[i] = byte(b.dtype.TypeCodes[c])
	if i >= b.length {
		b.length = i + 1
	}
	return nil
}

func (b *UnionBuilder) Flush() (*data.Data, error) {
	if err := b.checkChildren(); err != nil {
		return nil, err
	}
	children := make([]*data.Data, len(b.children))
	for c, child := range b.children {
		d, err := child.Flush()
		if err != nil {
			return nil, err
		}
		children[c] = d
	}
	b.typeIDs.Resize(b.length)
	buffers := []*memory.Buffer{b.typeIDs.Finish()}
	if b.dense {
		b.offsets.Resize(4 * b.length)
		buffers = append(buffers, b.offsets.Finish())
	}
	d := data.New(b.dtype, b.length, buffers, children, 0, 0)
	b.recordFlush()
	b.Clear()
	return d, nil
}

func (b *UnionBuilder) Clear() {
	b.clearBase()
	b.typeIDs.Reset()
	b.offsets.Reset()
	for _, c := range b.children {
		c.Clear()
	}
}

func (b *UnionBuilder) ByteLength() int {
	return b.baseByteLength() + b.typeIDs.Len() + b.offsets.Len()
}

func (b *UnionBuilder) ReservedByteLength() int {
	return b.baseReservedByteLength() + b.typeIDs.Cap() + b.offsets.Cap()
}

func (b *UnionBuilder) AddChild(child Builder) error {
	return b.addChild(child, len(b.dtype.Children))
}
