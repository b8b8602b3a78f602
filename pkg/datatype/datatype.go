// Package datatype defines the closed set of logical column types, fields
// and schemas understood by colwire.
//
// Every type maps to exactly one physical Layout family. Builders, the
// assembler and the loader switch exhaustively on Layout (or on ID where a
// family needs per-type detail), so adding a type means touching every
// switch on purpose.
package datatype

import (
	"fmt"
	"strings"
)

// ID identifies a logical type.
type ID int

const (
	NULL ID = iota
	BOOL
	INT8
	INT16
	INT32
	INT64
	UINT8
	UINT16
	UINT32
	UINT64
	FLOAT32
	FLOAT64
	BINARY
	STRING
	FIXED_SIZE_BINARY
	DATE32
	DATE64
	TIME32
	TIME64
	TIMESTAMP
	DURATION
	DECIMAL128
	LIST
	FIXED_SIZE_LIST
	STRUCT
	MAP
	SPARSE_UNION
	DENSE_UNION
	DICTIONARY
)

var idNames = [...]string{
	NULL:              "null",
	BOOL:              "bool",
	INT8:              "int8",
	INT16:             "int16",
	INT32:             "int32",
	INT64:             "int64",
	UINT8:             "uint8",
	UINT16:            "uint16",
	UINT32:            "uint32",
	UINT64:            "uint64",
	FLOAT32:           "float32",
	FLOAT64:           "float64",
	BINARY:            "binary",
	STRING:            "utf8",
	FIXED_SIZE_BINARY: "fixed_size_binary",
	DATE32:            "date32",
	DATE64:            "date64",
	TIME32:            "time32",
	TIME64:            "time64",
	TIMESTAMP:         "timestamp",
	DURATION:          "duration",
	DECIMAL128:        "decimal128",
	LIST:              "list",
	FIXED_SIZE_LIST:   "fixed_size_list",
	STRUCT:            "struct",
	MAP:               "map",
	SPARSE_UNION:      "sparse_union",
	DENSE_UNION:       "dense_union",
	DICTIONARY:        "dictionary",
}

func (id ID) String() string {
	if id >= 0 && int(id) < len(idNames) {
		return idNames[id]
	}
	return fmt.Sprintf("ID(%d)", int(id))
}

// Layout is the physical layout family of a type.
type Layout int

const (
	LayoutNull Layout = iota
	LayoutBool
	LayoutFixedWidth
	LayoutVariableWidth
	LayoutList
	LayoutFixedSizeList
	LayoutStruct
	LayoutUnion
	LayoutDictionary
)

var layoutNames = [...]string{
	LayoutNull:          "null",
	LayoutBool:          "bool",
	LayoutFixedWidth:    "fixed_width",
	LayoutVariableWidth: "variable_width",
	LayoutList:          "list",
	LayoutFixedSizeList: "fixed_size_list",
	LayoutStruct:        "struct",
	LayoutUnion:         "union",
	LayoutDictionary:    "dictionary",
}

func (l Layout) String() string {
	if l >= 0 && int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// TimeUnit is the resolution of temporal types.
type TimeUnit int

const (
	Second TimeUnit = iota
	Millisecond
	Microsecond
	Nanosecond
)

func (u TimeUnit) String() string {
	switch u {
	case Second:
		return "s"
	case Millisecond:
		return "ms"
	case Microsecond:
		return "us"
	case Nanosecond:
		return "ns"
	}
	return fmt.Sprintf("TimeUnit(%d)", int(u))
}

// DataType is a logical type. Only the parameters relevant to ID are set.
type DataType struct {
	ID ID

	// FIXED_SIZE_BINARY
	ByteWidth int
	// FIXED_SIZE_LIST
	ListSize int
	// TIME32, TIME64, TIMESTAMP, DURATION
	Unit     TimeUnit
	TimeZone string
	// DECIMAL128
	Precision int32
	Scale     int32
	// MAP
	KeysSorted bool
	// SPARSE_UNION, DENSE_UNION: type code of each child, parallel to Children
	TypeCodes []int8

	// LIST, FIXED_SIZE_LIST, MAP (one child), STRUCT and unions (N children)
	Children []Field

	// DICTIONARY
	DictID  int64
	Index   *DataType
	Value   *DataType
	Ordered bool
}

func Null() *DataType    { return &DataType{ID: NULL} }
func Bool() *DataType    { return &DataType{ID: BOOL} }
func Int8() *DataType    { return &DataType{ID: INT8} }
func Int16() *DataType   { return &DataType{ID: INT16} }
func Int32() *DataType   { return &DataType{ID: INT32} }
func Int64() *DataType   { return &DataType{ID: INT64} }
func Uint8() *DataType   { return &DataType{ID: UINT8} }
func Uint16() *DataType  { return &DataType{ID: UINT16} }
func Uint32() *DataType  { return &DataType{ID: UINT32} }
func Uint64() *DataType  { return &DataType{ID: UINT64} }
func Float32() *DataType { return &DataType{ID: FLOAT32} }
func Float64() *DataType { return &DataType{ID: FLOAT64} }
func Binary() *DataType  { return &DataType{ID: BINARY} }
func Utf8() *DataType    { return &DataType{ID: STRING} }
func Date32() *DataType  { return &DataType{ID: DATE32} }
func Date64() *DataType  { return &DataType{ID: DATE64} }

// FixedSizeBinary returns a binary type of width bytes per value.
func FixedSizeBinary(width int) *DataType {
	return &DataType{ID: FIXED_SIZE_BINARY, ByteWidth: width}
}

// Time32 accepts Second or Millisecond.
func Time32(unit TimeUnit) *DataType { return &DataType{ID: TIME32, Unit: unit} }

// Time64 accepts Microsecond or Nanosecond.
func Time64(unit TimeUnit) *DataType { return &DataType{ID: TIME64, Unit: unit} }

// Timestamp returns a 64-bit timestamp since the epoch. An empty tz means
// wall-clock time with no zone.
func Timestamp(unit TimeUnit, tz string) *DataType {
	return &DataType{ID: TIMESTAMP, Unit: unit, TimeZone: tz}
}

func Duration(unit TimeUnit) *DataType { return &DataType{ID: DURATION, Unit: unit} }

// Decimal128 returns a 128-bit decimal with the given precision and scale.
func Decimal128(precision, scale int32) *DataType {
	return &DataType{ID: DECIMAL128, Precision: precision, Scale: scale}
}

// ListOf returns a variable-length list of elem.
func ListOf(elem Field) *DataType {
	return &DataType{ID: LIST, Children: []Field{elem}}
}

// FixedSizeListOf returns a list of exactly n elem values per slot.
func FixedSizeListOf(elem Field, n int) *DataType {
	return &DataType{ID: FIXED_SIZE_LIST, ListSize: n, Children: []Field{elem}}
}

// StructOf returns a struct with the given fields.
func StructOf(fields ...Field) *DataType {
	return &DataType{ID: STRUCT, Children: fields}
}

// MapOf returns a map, physically a list of non-null struct{key, value}.
func MapOf(key, value *DataType, keysSorted bool) *DataType {
	entries := Field{
		Name: "entries",
		Type: StructOf(
			Field{Name: "key", Type: key},
			Field{Name: "value", Type: value, Nullable: true},
		),
	}
	return &DataType{ID: MAP, KeysSorted: keysSorted, Children: []Field{entries}}
}

// SparseUnionOf returns a sparse union. When codes is nil, child i gets code i.
func SparseUnionOf(fields []Field, codes []int8) *DataType {
	return &DataType{ID: SPARSE_UNION, Children: fields, TypeCodes: unionCodes(fields, codes)}
}

// DenseUnionOf returns a dense union. When codes is nil, child i gets code i.
func DenseUnionOf(fields []Field, codes []int8) *DataType {
	return &DataType{ID: DENSE_UNION, Children: fields, TypeCodes: unionCodes(fields, codes)}
}

func unionCodes(fields []Field, codes []int8) []int8 {
	if codes != nil {
		return codes
	}
	codes = make([]int8, len(fields))
	for i := range fields {
		codes[i] = int8(i)
	}
	return codes
}

// DictionaryOf returns a dictionary-encoded type. index must be an integer
// type.
func DictionaryOf(id int64, index, value *DataType, ordered bool) *DataType {
	return &DataType{ID: DICTIONARY, DictID: id, Index: index, Value: value, Ordered: ordered}
}

// Layout returns the physical layout family.
func (t *DataType) Layout() Layout {
	switch t.ID {
	case NULL:
		return LayoutNull
	case BOOL:
		return LayoutBool
	case INT8, INT16, INT32, INT64, UINT8, UINT16, UINT32, UINT64,
		FLOAT32, FLOAT64, FIXED_SIZE_BINARY, DATE32, DATE64, TIME32, TIME64,
		TIMESTAMP, DURATION, DECIMAL128:
		return LayoutFixedWidth
	case BINARY, STRING:
		return LayoutVariableWidth
	case LIST, MAP:
		return LayoutList
	case FIXED_SIZE_LIST:
		return LayoutFixedSizeList
	case STRUCT:
		return LayoutStruct
	case SPARSE_UNION, DENSE_UNION:
		return LayoutUnion
	case DICTIONARY:
		return LayoutDictionary
	}
	panic(fmt.Sprintf("datatype: unknown type id %d", int(t.ID)))
}

// BitWidth returns the width of one value in bits for bool and fixed-width
// types, and 0 otherwise.
func (t *DataType) BitWidth() int {
	switch t.ID {
	case BOOL:
		return 1
	case INT8, UINT8:
		return 8
	case INT16, UINT16:
		return 16
	case INT32, UINT32, FLOAT32, DATE32, TIME32:
		return 32
	case INT64, UINT64, FLOAT64, DATE64, TIME64, TIMESTAMP, DURATION:
		return 64
	case DECIMAL128:
		return 128
	case FIXED_SIZE_BINARY:
		return t.ByteWidth * 8
	}
	return 0
}

// ByteSize returns BitWidth/8 for fixed-width types.
func (t *DataType) ByteSize() int { return t.BitWidth() / 8 }

// IsInteger reports whether t is a signed or unsigned integer type.
func (t *DataType) IsInteger() bool {
	switch t.ID {
	case INT8, INT16, INT32, INT64, UINT8, UINT16, UINT32, UINT64:
		return true
	}
	return false
}

// IsSigned reports whether t is a signed integer type.
func (t *DataType) IsSigned() bool {
	switch t.ID {
	case INT8, INT16, INT32, INT64:
		return true
	}
	return false
}

// NumChildren returns the declared arity. Dictionary value types are not
// children.
func (t *DataType) NumChildren() int { return len(t.Children) }

// ChildIndex maps a union type code to its child index, or -1.
func (t *DataType) ChildIndex(code int8) int {
	for i, c := range t.TypeCodes {
		if c == code {
			return i
		}
	}
	return -1
}

// Elem returns the element field of a list-like type.
func (t *DataType) Elem() Field { return t.Children[0] }

// String renders the type, e.g. "list<item: int32>".
func (t *DataType) String() string {
	switch t.ID {
	case FIXED_SIZE_BINARY:
		return fmt.Sprintf("fixed_size_binary[%d]", t.ByteWidth)
	case TIME32, TIME64, DURATION:
		return fmt.Sprintf("%s[%s]", t.ID, t.Unit)
	case TIMESTAMP:
		if t.TimeZone != "" {
			return fmt.Sprintf("timestamp[%s, tz=%s]", t.Unit, t.TimeZone)
		}
		return fmt.Sprintf("timestamp[%s]", t.Unit)
	case DECIMAL128:
		return fmt.Sprintf("decimal128(%d, %d)", t.Precision, t.Scale)
	case LIST:
		return fmt.Sprintf("list<%s>", t.Children[0])
	case FIXED_SIZE_LIST:
		return fmt.Sprintf("fixed_size_list<%s>[%d]", t.Children[0], t.ListSize)
	case MAP:
		kv := t.Children[0].Type.Children
		return fmt.Sprintf("map<%s, %s>", kv[0].Type, kv[1].Type)
	case STRUCT, SPARSE_UNION, DENSE_UNION:
		parts := make([]string, len(t.Children))
		for i, f := range t.Children {
			parts[i] = f.String()
		}
		return fmt.Sprintf("%s<%s>", t.ID, strings.Join(parts, ", "))
	case DICTIONARY:
		return fmt.Sprintf("dictionary<id=%d, values=%s, indices=%s, ordered=%t>", t.DictID, t.Value, t.Index, t.Ordered)
	}
	return t.ID.String()
}

// Equal reports structural equality, including child names and nullability.
func Equal(a, b *DataType) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.ID != b.ID {
		return false
	}
	switch a.ID {
	case FIXED_SIZE_BINARY:
		return a.ByteWidth == b.ByteWidth
	case TIME32, TIME64, DURATION:
		return a.Unit == b.Unit
	case TIMESTAMP:
		return a.Unit == b.Unit && a.TimeZone == b.TimeZone
	case DECIMAL128:
		return a.Precision == b.Precision && a.Scale == b.Scale
	case DICTIONARY:
		return a.DictID == b.DictID && a.Ordered == b.Ordered &&
			Equal(a.Index, b.Index) && Equal(a.Value, b.Value)
	case FIXED_SIZE_LIST:
		if a.ListSize != b.ListSize {
			return false
		}
	case MAP:
		if a.KeysSorted != b.KeysSorted {
			return false
		}
	case SPARSE_UNION, DENSE_UNION:
		if len(a.TypeCodes) != len(b.TypeCodes) {
			return false
		}
		for i := range a.TypeCodes {
			if a.TypeCodes[i] != b.TypeCodes[i] {
				return false
			}
		}
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !a.Children[i].Equal(b.Children[i]) {
			return false
		}
	}
	return true
}
