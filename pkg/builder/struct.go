package builder

import (
	"reflect"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/memory"
)

// StructBuilder builds struct columns. A slot accepts map[string]any (or any
// map keyed by string) with missing keys written as nulls, or []any with one
// value per field in order. Every child always has the parent's length.
type StructBuilder struct {
	*base
	names map[string]int
}

func newStructBuilder(base *base) *StructBuilder {
	names := make(map[string]int, len(base.dtype.Children))
	for i, f := range base.dtype.Children {
		names[f.Name] = i
	}
	return &StructBuilder{base: base, names: names}
}

func (b *StructBuilder) Append(v any) error { return b.Set(b.length, v) }

func (b *StructBuilder) AppendNull() error { return b.SetNull(b.length) }

func (b *StructBuilder) AppendValues(vs []any) error { return appendValues(b, vs) }

func (b *StructBuilder) SetNull(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if err := b.checkChildren(); err != nil {
		return err
	}
	for _, c := range b.children {
		if err := c.SetNull(i); err != nil {
			return err
		}
	}
	b.setValidity(i, false)
	return nil
}

func (b *StructBuilder) Set(i int, v any) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if err := b.checkChildren(); err != nil {
		return err
	}
	if !b.IsValid(v) {
		return b.SetNull(i)
	}
	fields, err := b.fieldValues(deref(v))
	if err != nil {
		return err
	}
	for c, fv := range fields {
		if fv.missing {
			err = b.children[c].SetNull(i)
		} else {
			err = b.children[c].Set(i, fv.value)
		}
		if err != nil {
			return colerrors.Wrapf(err, colerrors.ErrorTypeConstruction,
				"field %q", b.dtype.Children[c].Name)
		}
	}
	b.setValidity(i, true)
	return nil
}

type fieldValue struct {
	value   any
	missing bool
}

func (b *StructBuilder) fieldValues(v any) ([]fieldValue, error) {
	out := make([]fieldValue, len(b.children))
	switch x := v.(type) {
	case map[string]any:
		for c, f := range b.dtype.Children {
			fv, ok := x[f.Name]
			out[c] = fieldValue{value: fv, missing: !ok}
		}
		return out, nil
	case []any:
		if len(x) != len(out) {
			return nil, colerrors.Newf(colerrors.ErrorTypeConstruction,
				"%s expects %d values, got %d", b.dtype, len(out), len(x))
		}
		for c := range out {
			out[c] = fieldValue{value: x[c]}
		}
		return out, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		for c := range out {
			out[c].missing = true
		}
		iter := rv.MapRange()
		for iter.Next() {
			if c, ok := b.names[iter.Key().String()]; ok {
				out[c] = fieldValue{value: iter.Value().Interface()}
			}
		}
		return out, nil
	}
	return nil, mismatch(b.dtype, v)
}

func (b *StructBuilder) Flush() (*data.Data, error) {
	if err := b.checkChildren(); err != nil {
		return nil, err
	}
	children := make([]*data.Data, len(b.children))
	for c, child := range b.children {
		for j := child.Len(); j < b.length; j++ {
			if err := child.SetNull(j); err != nil {
				return nil, err
			}
		}
		d, err := child.Flush()
		if err != nil {
			return nil, err
		}
		children[c] = d
	}
	d := data.New(b.dtype, b.length, []*memory.Buffer{b.flushValidity()}, children, b.nullN, 0)
	b.recordFlush()
	b.Clear()
	return d, nil
}

func (b *StructBuilder) Clear() {
	b.clearBase()
	for _, c := range b.children {
		c.Clear()
	}
}

func (b *StructBuilder) ByteLength() int         { return b.baseByteLength() }
func (b *StructBuilder) ReservedByteLength() int { return b.baseReservedByteLength() }
func (b *StructBuilder) AddChild(child Builder) error {
	return b.addChild(child, len(b.dtype.Children))
}

// Field returns the child builder for the named field.
func (b *StructBuilder) Field(name string) (Builder, bool) {
	c, ok := b.names[name]
	if !ok || c >= len(b.children) {
		return nil, false
	}
	return b.children[c], true
}
