package builder

import (
	"encoding/binary"
	"math"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
)

var le = binary.LittleEndian

// NullBuilder builds the null type, which stores no buffers at all.
type NullBuilder struct {
	*base
}

func (b *NullBuilder) NullN() int { return b.length }

func (b *NullBuilder) Append(v any) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if b.IsValid(v) {
		return mismatch(b.dtype, v)
	}
	b.length++
	return nil
}

func (b *NullBuilder) AppendNull() error { return b.SetNull(b.length) }

func (b *NullBuilder) AppendValues(vs []any) error { return appendValues(b, vs) }

func (b *NullBuilder) Set(i int, v any) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if b.IsValid(v) {
		return mismatch(b.dtype, v)
	}
	return b.SetNull(i)
}

func (b *NullBuilder) SetNull(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if i >= b.length {
		b.length = i + 1
	}
	return nil
}

func (b *NullBuilder) Flush() (*data.Data, error) {
	d := data.New(b.dtype, b.length, nil, nil, b.length, 0)
	b.recordFlush()
	b.Clear()
	return d, nil
}

func (b *NullBuilder) Clear()                       { b.length = 0 }
func (b *NullBuilder) ByteLength() int              { return 0 }
func (b *NullBuilder) ReservedByteLength() int      { return 0 }
func (b *NullBuilder) AddChild(child Builder) error { return b.addChild(child, 0) }

// BoolBuilder packs booleans one bit per slot.
type BoolBuilder struct {
	*base
	values *memory.ResizableBuffer
}

func newBoolBuilder(base *base) *BoolBuilder {
	b := &BoolBuilder{base: base, values: memory.NewResizableBuffer(base.opts.Allocator)}
	if base.opts.InitialCapacity > 0 {
		b.values.Reserve(memory.BytesForBits(base.opts.InitialCapacity))
	}
	return b
}

func (b *BoolBuilder) Append(v any) error { return b.Set(b.length, v) }

func (b *BoolBuilder) AppendNull() error { return b.SetNull(b.length) }

func (b *BoolBuilder) SetNull(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if n := memory.BytesForBits(i + 1); n > b.values.Len() {
		b.values.Resize(n)
	}
	memory.ClearBit(b.values.Bytes(), i)
	b.setValidity(i, false)
	return nil
}

func (b *BoolBuilder) AppendValues(vs []any) error { return appendValues(b, vs) }

func (b *BoolBuilder) Set(i int, v any) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if !b.IsValid(v) {
		return b.SetNull(i)
	}
	bit, ok := deref(v).(bool)
	if !ok {
		return mismatch(b.dtype, v)
	}
	if n := memory.BytesForBits(i + 1); n > b.values.Len() {
		b.values.Resize(n)
	}
	memory.SetBitTo(b.values.Bytes(), i, bit)
	b.setValidity(i, true)
	return nil
}

func (b *BoolBuilder) Flush() (*data.Data, error) {
	b.values.Resize(memory.BytesForBits(b.length))
	d := data.New(b.dtype, b.length, []*memory.Buffer{b.flushValidity(), b.values.Finish()}, nil, b.nullN, 0)
	b.recordFlush()
	b.Clear()
	return d, nil
}

func (b *BoolBuilder) Clear() {
	b.clearBase()
	b.values.Reset()
}

func (b *BoolBuilder) ByteLength() int              { return b.baseByteLength() + b.values.Len() }
func (b *BoolBuilder) ReservedByteLength() int      { return b.baseReservedByteLength() + b.values.Cap() }
func (b *BoolBuilder) AddChild(child Builder) error { return b.addChild(child, 0) }

// FixedWidthBuilder builds every type whose values have a fixed byte width:
// integers, floats, temporal types, decimals and fixed-size binary.
type FixedWidthBuilder struct {
	*base
	width   int
	values  *memory.ResizableBuffer
	scratch []byte
	encode  func(dst []byte, v any) error
}

func newFixedWidthBuilder(base *base) (*FixedWidthBuilder, error) {
	dt := base.dtype
	b := &FixedWidthBuilder{
		base:    base,
		width:   dt.ByteSize(),
		values:  memory.NewResizableBuffer(base.opts.Allocator),
		scratch: make([]byte, dt.ByteSize()),
	}
	if b.width <= 0 {
		return nil, colerrors.Newf(colerrors.ErrorTypeConstruction, "%s has no positive byte width", dt)
	}
	if base.opts.InitialCapacity > 0 {
		b.values.Reserve(base.opts.InitialCapacity * b.width)
	}
	b.encode = encoderFor(dt)
	return b, nil
}

func encoderFor(dt *datatype.DataType) func(dst []byte, v any) error {
	switch dt.ID {
	case datatype.INT8, datatype.INT16, datatype.INT32, datatype.INT64:
		return func(dst []byte, v any) error {
			n, ok := toInt64(v)
			if !ok {
				return mismatch(dt, v)
			}
			if err := checkRange(dt, v, n); err != nil {
				return err
			}
			putUint(dst, uint64(n))
			return nil
		}
	case datatype.UINT8, datatype.UINT16, datatype.UINT32, datatype.UINT64:
		return func(dst []byte, v any) error {
			n, ok := toUint64(v)
			if !ok {
				return mismatch(dt, v)
			}
			if err := checkURange(dt, v, n); err != nil {
				return err
			}
			putUint(dst, n)
			return nil
		}
	case datatype.FLOAT32:
		return func(dst []byte, v any) error {
			f, ok := toFloat64(v)
			if !ok {
				return mismatch(dt, v)
			}
			le.PutUint32(dst, math.Float32bits(float32(f)))
			return nil
		}
	case datatype.FLOAT64:
		return func(dst []byte, v any) error {
			f, ok := toFloat64(v)
			if !ok {
				return mismatch(dt, v)
			}
			le.PutUint64(dst, math.Float64bits(f))
			return nil
		}
	case datatype.DATE32, datatype.DATE64, datatype.TIME32, datatype.TIME64,
		datatype.TIMESTAMP, datatype.DURATION:
		return func(dst []byte, v any) error {
			n, ok := toTemporal(dt, v)
			if !ok {
				return mismatch(dt, v)
			}
			if err := checkRange(dt, v, n); err != nil {
				return err
			}
			putUint(dst, uint64(n))
			return nil
		}
	case datatype.DECIMAL128:
		return func(dst []byte, v any) error {
			d, ok := toDecimal(v)
			if !ok {
				return mismatch(dt, v)
			}
			if !data.EncodeDecimal128(dst, d, dt.Scale) {
				return colerrors.Newf(colerrors.ErrorTypeConstruction, "value %s overflows %s", d, dt)
			}
			return nil
		}
	case datatype.FIXED_SIZE_BINARY:
		return func(dst []byte, v any) error {
			p, ok := toBytes(v)
			if !ok {
				return mismatch(dt, v)
			}
			if len(p) != len(dst) {
				return colerrors.Newf(colerrors.ErrorTypeConstruction,
					"%s value has %d bytes", dt, len(p))
			}
			copy(dst, p)
			return nil
		}
	}
	return func(dst []byte, v any) error { return mismatch(dt, v) }
}

func putUint(dst []byte, n uint64) {
	switch len(dst) {
	case 1:
		dst[0] = byte(n)
	case 2:
		le.PutUint16(dst, uint16(n))
	case 4:
		le.PutUint32(dst, uint32(n))
	case 8:
		le.PutUint64(dst, n)
	}
}

func (b *FixedWidthBuilder) Append(v any) error { return b.Set(b.length, v) }

func (b *FixedWidthBuilder) AppendNull() error { return b.SetNull(b.length) }

func (b *FixedWidthBuilder) SetNull(i int) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if n := (i + 1) * b.width; n > b.values.Len() {
		b.values.Resize(n)
	}
	clear(b.values.Bytes()[i*b.width : (i+1)*b.width])
	b.setValidity(i, false)
	return nil
}

func (b *FixedWidthBuilder) AppendValues(vs []any) error { return appendValues(b, vs) }

func (b *FixedWidthBuilder) Set(i int, v any) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if !b.IsValid(v) {
		return b.SetNull(i)
	}
	clear(b.scratch)
	if err := b.encode(b.scratch, deref(v)); err != nil {
		return err
	}
	if n := (i + 1) * b.width; n > b.values.Len() {
		b.values.Resize(n)
	}
	copy(b.values.Bytes()[i*b.width:], b.scratch)
	b.setValidity(i, true)
	return nil
}

func (b *FixedWidthBuilder) Flush() (*data.Data, error) {
	b.values.Resize(b.length * b.width)
	d := data.New(b.dtype, b.length, []*memory.Buffer{b.flushValidity(), b.values.Finish()}, nil, b.nullN, 0)
	b.recordFlush()
	b.Clear()
	return d, nil
}

func (b *FixedWidthBuilder) Clear() {
	b.clearBase()
	b.values.Reset()
}

func (b *FixedWidthBuilder) ByteLength() int         { return b.baseByteLength() + b.values.Len() }
func (b *FixedWidthBuilder) ReservedByteLength() int { return b.baseReservedByteLength() + b.values.Cap() }
func (b *FixedWidthBuilder) AddChild(child Builder) error {
	return b.addChild(child, 0)
}
