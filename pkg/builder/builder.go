// Package builder turns sequences of Go values into columnar data.
//
// A Builder is a mutable, append-only accumulator for one column. Values are
// appended (or written at an index with Set), then Flush snapshots them into
// an immutable *data.Data and resets the builder to length zero while
// keeping its reserved capacity. Finish is a one-way switch after which no
// further appends are accepted.
//
//	b, _ := builder.New(datatype.Int32(), builder.Options{})
//	_ = b.Append(int32(1))
//	_ = b.AppendNull()
//	_ = b.Append(3)
//	col, _ := b.Flush() // [1, null, 3], NullN() == 1
//
// Which values count as null is configurable through Options.NullValues.
// The default treats only nil (and nil pointers) as null; adding math.NaN()
// makes every NaN null even though NaN never equals itself.
package builder

import (
	"bytes"
	"math"
	"reflect"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
	"github.com/ajitpratap0/colwire/pkg/metrics"
)

// Builder accumulates values of one logical type.
type Builder interface {
	// Type returns the logical type being built.
	Type() *datatype.DataType
	// Len returns the number of slots appended since the last flush.
	Len() int
	// NullN returns the number of null slots since the last flush.
	NullN() int

	// Append adds v, or a null when v matches a null sentinel.
	Append(v any) error
	// AppendNull adds a null slot.
	AppendNull() error
	// AppendValues appends each element of vs.
	AppendValues(vs []any) error
	// Set writes v at index i, extending the builder with nulls if i is
	// past the end.
	Set(i int, v any) error
	// SetNull writes a null at index i.
	SetNull(i int) error
	// IsValid reports whether v is a value rather than a null sentinel.
	IsValid(v any) bool

	// Flush commits all pending writes into a new Data and resets the
	// length to zero, keeping reserved capacity.
	Flush() (*data.Data, error)
	// Finish marks the builder and its children as accepting no more values.
	Finish()
	// Finished reports whether Finish was called.
	Finished() bool
	// Clear resets the length to zero without releasing capacity.
	Clear()

	// ByteLength returns the bytes currently used.
	ByteLength() int
	// ReservedByteLength returns the bytes currently allocated.
	ReservedByteLength() int

	// Children returns the child builders of nested types.
	Children() []Builder
	// AddChild attaches a child builder to a nested builder that was
	// created without its children.
	AddChild(child Builder) error
}

// Options configures a builder and, except for Discriminant, its children.
type Options struct {
	// NullValues lists the sentinels treated as null. Nil means {nil}.
	// Matching is exact equality except NaN, which matches any NaN.
	NullValues []any
	// Discriminant picks the union type code for a value. Union builders
	// without one only accept AppendChild.
	Discriminant func(v any) (int8, error)
	// InitialCapacity reserves room for this many slots.
	InitialCapacity int
	// Allocator backs the growable buffers. Nil means memory.DefaultAllocator.
	Allocator memory.Allocator
}

func (o Options) child() Options {
	c := o
	c.Discriminant = nil
	return c
}

// New creates a builder for dt, including builders for all children.
func New(dt *datatype.DataType, opts Options) (Builder, error) {
	return newBuilder(dt, opts, true)
}

// NewEmpty creates a builder for dt whose child builders must be attached
// with AddChild before use.
func NewEmpty(dt *datatype.DataType, opts Options) (Builder, error) {
	return newBuilder(dt, opts, false)
}

func newBuilder(dt *datatype.DataType, opts Options, withChildren bool) (Builder, error) {
	if opts.Allocator == nil {
		opts.Allocator = memory.DefaultAllocator
	}
	base := newBase(dt, opts)

	var b Builder
	switch dt.Layout() {
	case datatype.LayoutNull:
		b = &NullBuilder{base: base}
	case datatype.LayoutBool:
		b = newBoolBuilder(base)
	case datatype.LayoutFixedWidth:
		fb, err := newFixedWidthBuilder(base)
		if err != nil {
			return nil, err
		}
		b = fb
	case datatype.LayoutVariableWidth:
		b = newVariableWidthBuilder(base)
	case datatype.LayoutList:
		b = newListBuilder(base)
	case datatype.LayoutFixedSizeList:
		if dt.ListSize <= 0 {
			return nil, colerrors.Newf(colerrors.ErrorTypeConstruction, "fixed size list size must be positive, got %d", dt.ListSize)
		}
		b = newFixedSizeListBuilder(base)
	case datatype.LayoutStruct:
		b = newStructBuilder(base)
	case datatype.LayoutUnion:
		b = newUnionBuilder(base)
	case datatype.LayoutDictionary:
		db, err := newDictionaryBuilder(base)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported, "no builder for %s", dt)
	}

	if withChildren {
		for _, f := range dt.Children {
			c, err := newBuilder(f.Type, opts.child(), true)
			if err != nil {
				return nil, err
			}
			if err := b.AddChild(c); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

// base holds the state every builder shares: length, validity bitmap and
// null bookkeeping.
type base struct {
	dtype    *datatype.DataType
	opts     Options
	nulls    nullSet
	length   int
	nullN    int
	validity *memory.ResizableBuffer
	finished bool
	children []Builder
}

func newBase(dt *datatype.DataType, opts Options) *base {
	b := &base{
		dtype:    dt,
		opts:     opts,
		nulls:    newNullSet(opts.NullValues),
		validity: memory.NewResizableBuffer(opts.Allocator),
	}
	if opts.InitialCapacity > 0 {
		b.validity.Reserve(memory.BytesForBits(opts.InitialCapacity))
	}
	return b
}

func (b *base) Type() *datatype.DataType { return b.dtype }
func (b *base) Len() int                 { return b.length }
func (b *base) NullN() int               { return b.nullN }
func (b *base) Finished() bool           { return b.finished }
func (b *base) Children() []Builder      { return b.children }
func (b *base) IsValid(v any) bool       { return b.nulls.isValid(v) }

func (b *base) Finish() {
	b.finished = true
	for _, c := range b.children {
		c.Finish()
	}
}

func (b *base) clearBase() {
	b.length = 0
	b.nullN = 0
	b.validity.Reset()
}

func (b *base) checkOpen() error {
	if b.finished {
		return colerrors.Newf(colerrors.ErrorTypeConstruction, "%s builder is finished", b.dtype)
	}
	return nil
}

func (b *base) checkIndex(i int) error {
	if i < 0 {
		return colerrors.Newf(colerrors.ErrorTypeInvalid, "negative index %d", i)
	}
	return b.checkOpen()
}

// setValidity records the validity of slot i. Slots between the old end and
// i become nulls.
func (b *base) setValidity(i int, valid bool) {
	if i >= b.length {
		n := i + 1
		b.validity.Resize(memory.BytesForBits(n))
		b.nullN += n - b.length
		b.length = n
		if valid {
			memory.SetBit(b.validity.Bytes(), i)
			b.nullN--
		}
		return
	}
	bits := b.validity.Bytes()
	if memory.BitIsSet(bits, i) != valid {
		memory.SetBitTo(bits, i, valid)
		if valid {
			b.nullN--
		} else {
			b.nullN++
		}
	}
}

// flushValidity returns the validity buffer for the committed slots, or nil
// when none is null.
func (b *base) flushValidity() *memory.Buffer {
	if b.nullN == 0 {
		return nil
	}
	return b.validity.Finish()
}

func (b *base) baseByteLength() int {
	n := b.validity.Len()
	for _, c := range b.children {
		n += c.ByteLength()
	}
	return n
}

func (b *base) baseReservedByteLength() int {
	n := b.validity.Cap()
	for _, c := range b.children {
		n += c.ReservedByteLength()
	}
	return n
}

func (b *base) addChild(child Builder, max int) error {
	if len(b.children) >= max {
		return colerrors.Newf(colerrors.ErrorTypeConstruction,
			"%s builder already has %d child builder(s)", b.dtype, len(b.children)).
			WithDetail("child_type", child.Type().String())
	}
	want := b.dtype.Children[len(b.children)].Type
	if !datatype.Equal(want, child.Type()) {
		return colerrors.Newf(colerrors.ErrorTypeConstruction,
			"child builder type %s does not match %s", child.Type(), want)
	}
	b.children = append(b.children, child)
	return nil
}

func (b *base) checkChildren() error {
	if len(b.children) != len(b.dtype.Children) {
		return colerrors.Newf(colerrors.ErrorTypeConstruction,
			"%s builder has %d of %d child builders", b.dtype, len(b.children), len(b.dtype.Children))
	}
	return nil
}

func (b *base) recordFlush() {
	metrics.BuilderFlushes.WithLabelValues(b.dtype.Layout().String()).Inc()
}

func appendValues(b Builder, vs []any) error {
	for _, v := range vs {
		if err := b.Append(v); err != nil {
			return err
		}
	}
	return nil
}

func mismatch(dt *datatype.DataType, v any) error {
	return colerrors.Newf(colerrors.ErrorTypeConstruction, "cannot append %T to %s builder", v, dt).
		WithDetail("value", v)
}

// nullSet matches values against the configured null sentinels.
type nullSet struct {
	values []any
	nilOK  bool
	nanOK  bool
}

func newNullSet(values []any) nullSet {
	if values == nil {
		values = []any{nil}
	}
	s := nullSet{}
	for _, v := range values {
		switch {
		case v == nil:
			s.nilOK = true
		case isNaN(v):
			s.nanOK = true
		default:
			s.values = append(s.values, v)
		}
	}
	return s
}

func (s nullSet) isValid(v any) bool {
	if isNil(v) {
		return !s.nilOK
	}
	if s.nanOK && isNaN(v) {
		return false
	}
	for _, sentinel := range s.values {
		if sentinelEqual(sentinel, v) {
			return false
		}
	}
	return true
}

func sentinelEqual(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	if ab, ok := a.([]byte); ok {
		return bytes.Equal(ab, b.([]byte))
	}
	return reflect.DeepEqual(a, b)
}

func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
