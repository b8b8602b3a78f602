package builder

import (
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
)

// DictionaryBuilder builds dictionary-encoded columns. Each distinct value
// is stored once; slots hold integer indices into the dictionary.
//
// The dictionary is cumulative: it survives Flush and Clear, so a later
// batch's dictionary always extends the earlier one. Writers rely on this
// to send only the new tail as a delta.
type DictionaryBuilder struct {
	*base
	indices   *FixedWidthBuilder
	valueType *datatype.DataType
	keyOf     func(v any) (string, error)
	memo      map[string]int
	values    []any
	dict      *data.Data
	dictLen   int
}

func newDictionaryBuilder(base *base) (*DictionaryBuilder, error) {
	dt := base.dtype
	if dt.Index == nil || !dt.Index.IsInteger() {
		return nil, colerrors.Newf(colerrors.ErrorTypeConstruction, "dictionary index type must be an integer, got %v", dt.Index)
	}
	idxBase := newBase(dt.Index, base.opts.child())
	indices, err := newFixedWidthBuilder(idxBase)
	if err != nil {
		return nil, err
	}
	keyOf, err := dictionaryKey(dt.Value)
	if err != nil {
		return nil, err
	}
	return &DictionaryBuilder{
		base:      base,
		indices:   indices,
		valueType: dt.Value,
		keyOf:     keyOf,
		memo:      make(map[string]int),
	}, nil
}

// dictionaryKey returns a function mapping a value to its canonical bytes,
// so that int(1) and int32(1) share a dictionary entry.
func dictionaryKey(dt *datatype.DataType) (func(v any) (string, error), error) {
	switch dt.Layout() {
	case datatype.LayoutFixedWidth:
		encode := encoderFor(dt)
		width := dt.ByteSize()
		return func(v any) (string, error) {
			buf := make([]byte, width)
			if err := encode(buf, v); err != nil {
				return "", err
			}
			return string(buf), nil
		}, nil
	case datatype.LayoutVariableWidth:
		return func(v any) (string, error) {
			p, ok := toBytes(v)
			if !ok {
				return "", mismatch(dt, v)
			}
			return string(p), nil
		}, nil
	case datatype.LayoutBool:
		return func(v any) (string, error) {
			x, ok := v.(bool)
			if !ok {
				return "", mismatch(dt, v)
			}
			if x {
				return "1", nil
			}
			return "0", nil
		}, nil
	}
	return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported, "dictionary values of type %s", dt)
}

func (b *DictionaryBuilder) NullN() int { return b.indices.NullN() }
func (b *DictionaryBuilder) Len() int   { return b.indices.Len() }

func (b *DictionaryBuilder) Append(v any) error { return b.Set(b.indices.Len(), v) }

func (b *DictionaryBuilder) AppendNull() error { return b.SetNull(b.indices.Len()) }

func (b *DictionaryBuilder) AppendValues(vs []any) error { return appendValues(b, vs) }

func (b *DictionaryBuilder) SetNull(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	return b.indices.SetNull(i)
}

func (b *DictionaryBuilder) Set(i int, v any) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if !b.IsValid(v) {
		return b.SetNull(i)
	}
	v = deref(v)
	key, err := b.keyOf(v)
	if err != nil {
		return err
	}
	idx, ok := b.memo[key]
	if !ok {
		idx = len(b.values)
		if !indexFits(b.dtype.Index, idx) {
			return colerrors.Newf(colerrors.ErrorTypeConstruction,
				"dictionary %d is full for index type %s", b.dtype.DictID, b.dtype.Index)
		}
		b.memo[key] = idx
		b.values = append(b.values, v)
	}
	return b.indices.Set(i, idx)
}

func indexFits(dt *datatype.DataType, idx int) bool {
	if dt.IsSigned() {
		return checkRange(dt, idx, int64(idx)) == nil
	}
	return checkURange(dt, idx, uint64(idx)) == nil
}

// DictionaryLen returns the number of distinct values seen so far.
func (b *DictionaryBuilder) DictionaryLen() int { return len(b.values) }

// Dictionary returns the dictionary as of the last flush, or builds it now.
func (b *DictionaryBuilder) Dictionary() (*data.Data, error) {
	if b.dict != nil && b.dictLen == len(b.values) {
		return b.dict, nil
	}
	vb, err := New(b.valueType, b.opts.child())
	if err != nil {
		return nil, err
	}
	if err := vb.AppendValues(b.values); err != nil {
		return nil, err
	}
	dict, err := vb.Flush()
	if err != nil {
		return nil, err
	}
	if b.dict != nil {
		b.dict.Release()
	}
	b.dict, b.dictLen = dict, len(b.values)
	return dict, nil
}

func (b *DictionaryBuilder) Flush() (*data.Data, error) {
	dict, err := b.Dictionary()
	if err != nil {
		return nil, err
	}
	idx, err := b.indices.Flush()
	if err != nil {
		return nil, err
	}
	dict.Retain()
	d := data.NewDictionary(b.dtype, idx.Len(), idx.Buffers(), idx.RawNullCount(), 0, dict)
	b.recordFlush()
	b.Clear()
	return d, nil
}

// Clear resets the indices. The dictionary is kept.
func (b *DictionaryBuilder) Clear() {
	b.clearBase()
	b.indices.Clear()
}

// ResetDictionary forgets every dictionary value. The next flush starts a
// new dictionary, which writers must send as a replacement.
func (b *DictionaryBuilder) ResetDictionary() {
	clear(b.memo)
	b.values = b.values[:0]
	if b.dict != nil {
		b.dict.Release()
	}
	b.dict, b.dictLen = nil, 0
}

func (b *DictionaryBuilder) Finish() {
	b.base.Finish()
	b.indices.Finish()
}

func (b *DictionaryBuilder) ByteLength() int {
	return b.indices.ByteLength()
}

func (b *DictionaryBuilder) ReservedByteLength() int {
	return b.indices.ReservedByteLength()
}

func (b *DictionaryBuilder) AddChild(child Builder) error { return b.addChild(child, 0) }
