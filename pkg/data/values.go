package data

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
)

var le = binary.LittleEndian

// MapEntry is one key/value pair of a map slot.
type MapEntry struct {
	Key   any
	Value any
}

// Value returns the logical value of slot i, or nil for a null slot.
//
//	bool, int8..uint64, float32, float64   Go scalars
//	date32, time32                         int32
//	date64, time64, timestamp, duration    int64
//	decimal128                             decimal.Decimal
//	binary, fixed_size_binary              []byte (a view)
//	utf8                                   string
//	list, fixed_size_list                  []any
//	map                                    []MapEntry
//	struct                                 map[string]any
//	union                                  value of the selected child
//	dictionary                             dictionary value at the index
func (d *Data) Value(i int) any {
	if d.IsNull(i) {
		return nil
	}
	dt := d.dtype
	j := d.offset + i

	switch dt.Layout() {
	case datatype.LayoutNull:
		return nil

	case datatype.LayoutBool:
		return memory.BitIsSet(d.buffers[1].Bytes(), j)

	case datatype.LayoutFixedWidth:
		return fixedValue(dt, d.buffers[1].Bytes(), j)

	case datatype.LayoutVariableWidth:
		start, end := d.ValueOffsets(i)
		b := d.buffers[2].Bytes()[start:end]
		if dt.ID == datatype.STRING {
			return string(b)
		}
		return b

	case datatype.LayoutList:
		start, end := d.ValueOffsets(i)
		child := d.children[0]
		if dt.ID == datatype.MAP {
			entries := make([]MapEntry, 0, end-start)
			keys, vals := child.children[0], child.children[1]
			for k := start; k < end; k++ {
				s := child.offset + k
				entries = append(entries, MapEntry{Key: keys.Value(s), Value: vals.Value(s)})
			}
			return entries
		}
		out := make([]any, 0, end-start)
		for k := start; k < end; k++ {
			out = append(out, child.Value(k))
		}
		return out

	case datatype.LayoutFixedSizeList:
		size := dt.ListSize
		out := make([]any, size)
		for k := 0; k < size; k++ {
			out[k] = d.children[0].Value(j*size + k)
		}
		return out

	case datatype.LayoutStruct:
		out := make(map[string]any, len(d.children))
		for c, f := range dt.Children {
			out[f.Name] = d.children[c].Value(j)
		}
		return out

	case datatype.LayoutUnion:
		c, slot := d.UnionChild(i)
		return d.children[c].Value(slot)

	case datatype.LayoutDictionary:
		return d.dictionary.Value(d.DictionaryIndex(i))
	}
	return nil
}

// Values returns Value(i) for every slot.
func (d *Data) Values() []any {
	out := make([]any, d.length)
	for i := range out {
		out[i] = d.Value(i)
	}
	return out
}

func fixedValue(dt *datatype.DataType, b []byte, j int) any {
	switch dt.ID {
	case datatype.INT8:
		return int8(b[j])
	case datatype.UINT8:
		return b[j]
	case datatype.INT16:
		return int16(le.Uint16(b[j*2:]))
	case datatype.UINT16:
		return le.Uint16(b[j*2:])
	case datatype.INT32, datatype.DATE32, datatype.TIME32:
		return int32(le.Uint32(b[j*4:]))
	case datatype.UINT32:
		return le.Uint32(b[j*4:])
	case datatype.INT64, datatype.DATE64, datatype.TIME64, datatype.TIMESTAMP, datatype.DURATION:
		return int64(le.Uint64(b[j*8:]))
	case datatype.UINT64:
		return le.Uint64(b[j*8:])
	case datatype.FLOAT32:
		return math.Float32frombits(le.Uint32(b[j*4:]))
	case datatype.FLOAT64:
		return math.Float64frombits(le.Uint64(b[j*8:]))
	case datatype.DECIMAL128:
		return DecodeDecimal128(b[j*16:j*16+16], dt.Scale)
	case datatype.FIXED_SIZE_BINARY:
		w := dt.ByteWidth
		return b[j*w : j*w+w]
	}
	return nil
}

// readInt reads slot j of an integer buffer as int64.
func readInt(dt *datatype.DataType, b []byte, j int) int64 {
	switch dt.ID {
	case datatype.INT8:
		return int64(int8(b[j]))
	case datatype.UINT8:
		return int64(b[j])
	case datatype.INT16:
		return int64(int16(le.Uint16(b[j*2:])))
	case datatype.UINT16:
		return int64(le.Uint16(b[j*2:]))
	case datatype.INT32:
		return int64(int32(le.Uint32(b[j*4:])))
	case datatype.UINT32:
		return int64(le.Uint32(b[j*4:]))
	case datatype.INT64:
		return int64(le.Uint64(b[j*8:]))
	case datatype.UINT64:
		return int64(le.Uint64(b[j*8:]))
	}
	panic("data: not an integer type: " + dt.String())
}

// DecodeDecimal128 converts 16 little-endian two's complement bytes into a
// decimal with the given scale.
func DecodeDecimal128(b []byte, scale int32) decimal.Decimal {
	lo := le.Uint64(b[0:8])
	hi := le.Uint64(b[8:16])

	be := make([]byte, 16)
	binary.BigEndian.PutUint64(be[0:8], hi)
	binary.BigEndian.PutUint64(be[8:16], lo)
	n := new(big.Int).SetBytes(be)
	if int64(hi) < 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	return decimal.NewFromBigInt(n, -scale)
}

// EncodeDecimal128 writes v rescaled to scale as 16 little-endian two's
// complement bytes into dst. It reports false when v does not fit.
func EncodeDecimal128(dst []byte, v decimal.Decimal, scale int32) bool {
	n := v.Shift(scale).BigInt()
	if n.BitLen() > 127 {
		return false
	}
	if n.Sign() < 0 {
		n = new(big.Int).Add(n, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	be := n.FillBytes(make([]byte, 16))
	le.PutUint64(dst[0:8], binary.BigEndian.Uint64(be[8:16]))
	le.PutUint64(dst[8:16], binary.BigEndian.Uint64(be[0:8]))
	return true
}
