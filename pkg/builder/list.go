package builder

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
)

// ListBuilder builds list and map columns. Like the variable-width builder
// it keeps writes pending until flush, when child values are appended to
// the child builder in slot order and offsets are computed in one pass.
//
// List slots accept []any or any Go slice. Map slots accept a Go map or
// []data.MapEntry; Go maps are written in ascending key order.
type ListBuilder struct {
	*base
	pending      pendingWrites[[]any]
	pendingElems int
	offsets      *memory.ResizableBuffer
}

func newListBuilder(base *base) *ListBuilder {
	return &ListBuilder{
		base:    base,
		pending: newPendingWrites[[]any](),
		offsets: memory.NewResizableBuffer(base.opts.Allocator),
	}
}

func (b *ListBuilder) Append(v any) error { return b.Set(b.length, v) }

func (b *ListBuilder) AppendNull() error { return b.SetNull(b.length) }

func (b *ListBuilder) AppendValues(vs []any) error { return appendValues(b, vs) }

func (b *ListBuilder) SetNull(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if old, ok := b.pending.drop(i); ok {
		b.pendingElems -= len(old)
	}
	b.setValidity(i, false)
	return nil
}

func (b *ListBuilder) Set(i int, v any) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if !b.IsValid(v) {
		return b.SetNull(i)
	}
	v = deref(v)
	var elems []any
	var ok bool
	if b.dtype.ID == datatype.MAP {
		elems, ok = mapEntries(v)
	} else {
		elems, ok = toSlice(v)
	}
	if !ok {
		return mismatch(b.dtype, v)
	}
	if old, replaced := b.pending.put(i, elems); replaced {
		b.pendingElems -= len(old)
	}
	b.pendingElems += len(elems)
	b.setValidity(i, true)
	return nil
}

// mapEntries converts a map value to struct rows of {key, value}.
func mapEntries(v any) ([]any, bool) {
	if entries, ok := v.([]data.MapEntry); ok {
		out := make([]any, len(entries))
		for i, e := range entries {
			out[i] = []any{e.Key, e.Value}
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	keys := rv.MapKeys()
	slices.SortFunc(keys, compareKeys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = []any{k.Interface(), rv.MapIndex(k).Interface()}
	}
	return out, true
}

func compareKeys(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	}
	return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
}

func (b *ListBuilder) Flush() (*data.Data, error) {
	if err := b.checkChildren(); err != nil {
		return nil, err
	}
	child := b.children[0]
	if child.Len() != 0 {
		return nil, colerrors.Newf(colerrors.ErrorTypeConstruction,
			"%s child builder was written directly", b.dtype)
	}

	b.offsets.Resize(4 * (b.length + 1))
	offs := b.offsets.Bytes()
	entries := b.pending.ordered()
	next := 0
	for slot := 0; slot < b.length; slot++ {
		le.PutUint32(offs[4*slot:], uint32(child.Len()))
		if next < len(entries) && entries[next].slot == slot {
			for _, e := range entries[next].value {
				if err := child.Append(e); err != nil {
					child.Clear()
					b.Clear()
					return nil, colerrors.Wrapf(err, colerrors.ErrorTypeConstruction,
						"%s slot %d", b.dtype, slot)
				}
			}
			next++
		}
	}
	le.PutUint32(offs[4*b.length:], uint32(child.Len()))

	childData, err := child.Flush()
	if err != nil {
		return nil, err
	}
	d := data.New(b.dtype, b.length, []*memory.Buffer{b.flushValidity(), b.offsets.Finish()},
		[]*data.Data{childData}, b.nullN, 0)
	b.recordFlush()
	b.Clear()
	return d, nil
}

func (b *ListBuilder) Clear() {
	b.clearBase()
	b.pending.reset()
	b.pendingElems = 0
	b.offsets.Reset()
	for _, c := range b.children {
		c.Clear()
	}
}

// ByteLength estimates pending child bytes from the element width, since
// child values are only written at flush.
func (b *ListBuilder) ByteLength() int {
	width := 1
	if len(b.dtype.Children) > 0 {
		if w := b.dtype.Children[0].Type.ByteSize(); w > 0 {
			width = w
		}
	}
	return b.baseByteLength() + 4*(b.length+1) + b.pendingElems*width
}

func (b *ListBuilder) ReservedByteLength() int {
	return b.baseReservedByteLength() + b.offsets.Cap()
}

func (b *ListBuilder) AddChild(child Builder) error { return b.addChild(child, 1) }

// FixedSizeListBuilder builds fixed-size lists. Every slot, null or not,
// occupies exactly ListSize child slots, so values go straight to the child.
type FixedSizeListBuilder struct {
	*base
}

func newFixedSizeListBuilder(base *base) *FixedSizeListBuilder {
	return &FixedSizeListBuilder{base: base}
}

func (b *FixedSizeListBuilder) Append(v any) error { return b.Set(b.length, v) }

func (b *FixedSizeListBuilder) AppendNull() error { return b.SetNull(b.length) }

func (b *FixedSizeListBuilder) AppendValues(vs []any) error { return appendValues(b, vs) }

func (b *FixedSizeListBuilder) SetNull(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if err := b.checkChildren(); err != nil {
		return err
	}
	size := b.dtype.ListSize
	for k := 0; k < size; k++ {
		if err := b.children[0].SetNull(i*size + k); err != nil {
			return err
		}
	}
	b.setValidity(i, false)
	return nil
}

func (b *FixedSizeListBuilder) Set(i int, v any) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if err := b.checkChildren(); err != nil {
		return err
	}
	if !b.IsValid(v) {
		return b.SetNull(i)
	}
	elems, ok := toSlice(deref(v))
	if !ok {
		return mismatch(b.dtype, v)
	}
	size := b.dtype.ListSize
	if len(elems) != size {
		return colerrors.Newf(colerrors.ErrorTypeConstruction,
			"%s expects %d values, got %d", b.dtype, size, len(elems))
	}
	// Gap slots still own size child slots each.
	child := b.children[0]
	for j := child.Len(); j < i*size; j++ {
		if err := child.SetNull(j); err != nil {
			return err
		}
	}
	for k, e := range elems {
		if err := child.Set(i*size+k, e); err != nil {
			return err
		}
	}
	b.setValidity(i, true)
	return nil
}

func (b *FixedSizeListBuilder) Flush() (*data.Data, error) {
	if err := b.checkChildren(); err != nil {
		return nil, err
	}
	child := b.children[0]
	for j := child.Len(); j < b.length*b.dtype.ListSize; j++ {
		if err := child.SetNull(j); err != nil {
			return nil, err
		}
	}
	childData, err := child.Flush()
	if err != nil {
		return nil, err
	}
	d := data.New(b.dtype, b.length, []*memory.Buffer{b.flushValidity()}, []*data.Data{childData}, b.nullN, 0)
	b.recordFlush()
	b.Clear()
	return d, nil
}

func (b *FixedSizeListBuilder) Clear() {
	b.clearBase()
	for _, c := range b.children {
		c.Clear()
	}
}

func (b *FixedSizeListBuilder) ByteLength() int         { return b.baseByteLength() }
func (b *FixedSizeListBuilder) ReservedByteLength() int { return b.baseReservedByteLength() }
func (b *FixedSizeListBuilder) AddChild(child Builder) error {
	return b.addChild(child, 1)
}
