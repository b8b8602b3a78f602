package flatbuf

import flatbuffers "github.com/google/flatbuffers/go"

// Empty type tables: Null, Binary, Utf8, Bool, List, Struct_.

func EmptyTable(builder *flatbuffers.Builder) flatbuffers.UOffsetT {
	builder.StartObject(0)
	return builder.EndObject()
}

// Int

type Int struct{ _tab flatbuffers.Table }

func (rcv *Int) Init(buf []byte, i flatbuffers.UOffsetT) { rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i} }
func (rcv *Int) BitWidth() int32                         { return rcv._tab.GetInt32Slot(slot(0), 0) }
func (rcv *Int) IsSigned() bool                          { return rcv._tab.GetBoolSlot(slot(1), false) }

func CreateInt(builder *flatbuffers.Builder, bitWidth int32, signed bool) flatbuffers.UOffsetT {
	builder.StartObject(2)
	builder.PrependBoolSlot(1, signed, false)
	builder.PrependInt32Slot(0, bitWidth, 0)
	return builder.EndObject()
}

// FloatingPoint

type FloatingPoint struct{ _tab flatbuffers.Table }

func (rcv *FloatingPoint) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i}
}
func (rcv *FloatingPoint) Precision() Precision {
	return Precision(rcv._tab.GetInt16Slot(slot(0), 0))
}

func CreateFloatingPoint(builder *flatbuffers.Builder, p Precision) flatbuffers.UOffsetT {
	builder.StartObject(1)
	builder.PrependInt16Slot(0, int16(p), 0)
	return builder.EndObject()
}

// Decimal

type Decimal struct{ _tab flatbuffers.Table }

func (rcv *Decimal) Init(buf []byte, i flatbuffers.UOffsetT) { rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i} }
func (rcv *Decimal) Precision() int32                        { return rcv._tab.GetInt32Slot(slot(0), 0) }
func (rcv *Decimal) Scale() int32                            { return rcv._tab.GetInt32Slot(slot(1), 0) }
func (rcv *Decimal) BitWidth() int32                         { return rcv._tab.GetInt32Slot(slot(2), 128) }

func CreateDecimal(builder *flatbuffers.Builder, precision, scale, bitWidth int32) flatbuffers.UOffsetT {
	builder.StartObject(3)
	builder.PrependInt32Slot(2, bitWidth, 128)
	builder.PrependInt32Slot(1, scale, 0)
	builder.PrependInt32Slot(0, precision, 0)
	return builder.EndObject()
}

// Date

type Date struct{ _tab flatbuffers.Table }

func (rcv *Date) Init(buf []byte, i flatbuffers.UOffsetT) { rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i} }
func (rcv *Date) Unit() DateUnit {
	return DateUnit(rcv._tab.GetInt16Slot(slot(0), int16(DateUnitMILLISECOND)))
}

func CreateDate(builder *flatbuffers.Builder, unit DateUnit) flatbuffers.UOffsetT {
	builder.StartObject(1)
	builder.PrependInt16Slot(0, int16(unit), int16(DateUnitMILLISECOND))
	return builder.EndObject()
}

// Time

type Time struct{ _tab flatbuffers.Table }

func (rcv *Time) Init(buf []byte, i flatbuffers.UOffsetT) { rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i} }
func (rcv *Time) Unit() TimeUnit {
	return TimeUnit(rcv._tab.GetInt16Slot(slot(0), int16(TimeUnitMILLISECOND)))
}
func (rcv *Time) BitWidth() int32 { return rcv._tab.GetInt32Slot(slot(1), 32) }

func CreateTime(builder *flatbuffers.Builder, unit TimeUnit, bitWidth int32) flatbuffers.UOffsetT {
	builder.StartObject(2)
	builder.PrependInt32Slot(1, bitWidth, 32)
	builder.PrependInt16Slot(0, int16(unit), int16(TimeUnitMILLISECOND))
	return builder.EndObject()
}

// Timestamp

type Timestamp struct{ _tab flatbuffers.Table }

func (rcv *Timestamp) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i}
}
func (rcv *Timestamp) Unit() TimeUnit { return TimeUnit(rcv._tab.GetInt16Slot(slot(0), 0)) }
func (rcv *Timestamp) Timezone() []byte {
	if o := tableField(&rcv._tab, 1); o != 0 {
		return rcv._tab.ByteVector(o + rcv._tab.Pos)
	}
	return nil
}

func CreateTimestamp(builder *flatbuffers.Builder, unit TimeUnit, tz string) flatbuffers.UOffsetT {
	var tzOff flatbuffers.UOffsetT
	if tz != "" {
		tzOff = builder.CreateString(tz)
	}
	builder.StartObject(2)
	builder.PrependUOffsetTSlot(1, tzOff, 0)
	builder.PrependInt16Slot(0, int16(unit), 0)
	return builder.EndObject()
}

// Duration

type Duration struct{ _tab flatbuffers.Table }

func (rcv *Duration) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i}
}
func (rcv *Duration) Unit() TimeUnit {
	return TimeUnit(rcv._tab.GetInt16Slot(slot(0), int16(TimeUnitMILLISECOND)))
}

func CreateDuration(builder *flatbuffers.Builder, unit TimeUnit) flatbuffers.UOffsetT {
	builder.StartObject(1)
	builder.PrependInt16Slot(0, int16(unit), int16(TimeUnitMILLISECOND))
	return builder.EndObject()
}

// FixedSizeBinary

type FixedSizeBinary struct{ _tab flatbuffers.Table }

func (rcv *FixedSizeBinary) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i}
}
func (rcv *FixedSizeBinary) ByteWidth() int32 { return rcv._tab.GetInt32Slot(slot(0), 0) }

func CreateFixedSizeBinary(builder *flatbuffers.Builder, width int32) flatbuffers.UOffsetT {
	builder.StartObject(1)
	builder.PrependInt32Slot(0, width, 0)
	return builder.EndObject()
}

// FixedSizeList

type FixedSizeList struct{ _tab flatbuffers.Table }

func (rcv *FixedSizeList) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i}
}
func (rcv *FixedSizeList) ListSize() int32 { return rcv._tab.GetInt32Slot(slot(0), 0) }

func CreateFixedSizeList(builder *flatbuffers.Builder, size int32) flatbuffers.UOffsetT {
	builder.StartObject(1)
	builder.PrependInt32Slot(0, size, 0)
	return builder.EndObject()
}

// Map

type Map struct{ _tab flatbuffers.Table }

func (rcv *Map) Init(buf []byte, i flatbuffers.UOffsetT) { rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i} }
func (rcv *Map) KeysSorted() bool                        { return rcv._tab.GetBoolSlot(slot(0), false) }

func CreateMap(builder *flatbuffers.Builder, keysSorted bool) flatbuffers.UOffsetT {
	builder.StartObject(1)
	builder.PrependBoolSlot(0, keysSorted, false)
	return builder.EndObject()
}

// Union

type Union struct{ _tab flatbuffers.Table }

func (rcv *Union) Init(buf []byte, i flatbuffers.UOffsetT) { rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i} }
func (rcv *Union) Mode() UnionMode                         { return UnionMode(rcv._tab.GetInt16Slot(slot(0), 0)) }

func (rcv *Union) TypeIdsLength() int {
	if o := tableField(&rcv._tab, 1); o != 0 {
		return rcv._tab.VectorLen(o)
	}
	return 0
}

func (rcv *Union) TypeIds(j int) int32 {
	if o := tableField(&rcv._tab, 1); o != 0 {
		a := rcv._tab.Vector(o)
		return rcv._tab.GetInt32(a + flatbuffers.UOffsetT(j*4))
	}
	return 0
}

func CreateUnion(builder *flatbuffers.Builder, mode UnionMode, typeIDs []int32) flatbuffers.UOffsetT {
	builder.StartVector(4, len(typeIDs), 4)
	for i := len(typeIDs) - 1; i >= 0; i-- {
		builder.PrependInt32(typeIDs[i])
	}
	ids := builder.EndVector(len(typeIDs))
	builder.StartObject(2)
	builder.PrependUOffsetTSlot(1, ids, 0)
	builder.PrependInt16Slot(0, int16(mode), 0)
	return builder.EndObject()
}

// KeyValue

type KeyValue struct{ _tab flatbuffers.Table }

func (rcv *KeyValue) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i}
}

func (rcv *KeyValue) Key() []byte {
	if o := tableField(&rcv._tab, 0); o != 0 {
		return rcv._tab.ByteVector(o + rcv._tab.Pos)
	}
	return nil
}

func (rcv *KeyValue) Value() []byte {
	if o := tableField(&rcv._tab, 1); o != 0 {
		return rcv._tab.ByteVector(o + rcv._tab.Pos)
	}
	return nil
}

func CreateKeyValue(builder *flatbuffers.Builder, key, value string) flatbuffers.UOffsetT {
	k := builder.CreateString(key)
	v := builder.CreateString(value)
	builder.StartObject(2)
	builder.PrependUOffsetTSlot(1, v, 0)
	builder.PrependUOffsetTSlot(0, k, 0)
	return builder.EndObject()
}

// DictionaryEncoding

type DictionaryEncoding struct{ _tab flatbuffers.Table }

func (rcv *DictionaryEncoding) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i}
}
func (rcv *DictionaryEncoding) Id() int64 { return rcv._tab.GetInt64Slot(slot(0), 0) }

func (rcv *DictionaryEncoding) IndexType(obj *Int) *Int {
	if o := tableField(&rcv._tab, 1); o != 0 {
		x := rcv._tab.Indirect(o + rcv._tab.Pos)
		if obj == nil {
			obj = new(Int)
		}
		obj.Init(rcv._tab.Bytes, x)
		return obj
	}
	return nil
}

func (rcv *DictionaryEncoding) IsOrdered() bool { return rcv._tab.GetBoolSlot(slot(2), false) }

func CreateDictionaryEncoding(builder *flatbuffers.Builder, id int64, indexType flatbuffers.UOffsetT, ordered bool) flatbuffers.UOffsetT {
	builder.StartObject(4)
	builder.PrependInt64Slot(0, id, 0)
	builder.PrependUOffsetTSlot(1, indexType, 0)
	builder.PrependBoolSlot(2, ordered, false)
	return builder.EndObject()
}

// Field

type Field struct{ _tab flatbuffers.Table }

func (rcv *Field) Init(buf []byte, i flatbuffers.UOffsetT) { rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i} }

func (rcv *Field) Name() []byte {
	if o := tableField(&rcv._tab, 0); o != 0 {
		return rcv._tab.ByteVector(o + rcv._tab.Pos)
	}
	return nil
}

func (rcv *Field) Nullable() bool { return rcv._tab.GetBoolSlot(slot(1), false) }
func (rcv *Field) TypeType() Type { return Type(rcv._tab.GetByteSlot(slot(2), 0)) }

func (rcv *Field) Type(obj *flatbuffers.Table) bool {
	if o := tableField(&rcv._tab, 3); o != 0 {
		rcv._tab.Union(obj, o)
		return true
	}
	return false
}

func (rcv *Field) Dictionary(obj *DictionaryEncoding) *DictionaryEncoding {
	if o := tableField(&rcv._tab, 4); o != 0 {
		x := rcv._tab.Indirect(o + rcv._tab.Pos)
		if obj == nil {
			obj = new(DictionaryEncoding)
		}
		obj.Init(rcv._tab.Bytes, x)
		return obj
	}
	return nil
}

func (rcv *Field) ChildrenLength() int { return vectorLen(&rcv._tab, 5) }

func (rcv *Field) Children(obj *Field, j int) bool {
	return tableAt(&rcv._tab, 5, j, func(buf []byte, x flatbuffers.UOffsetT) { obj.Init(buf, x) })
}

func (rcv *Field) CustomMetadataLength() int { return vectorLen(&rcv._tab, 6) }

func (rcv *Field) CustomMetadata(obj *KeyValue, j int) bool {
	return tableAt(&rcv._tab, 6, j, func(buf []byte, x flatbuffers.UOffsetT) { obj.Init(buf, x) })
}

func FieldStart(builder *flatbuffers.Builder) { builder.StartObject(7) }
func FieldAddName(builder *flatbuffers.Builder, name flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(0, name, 0)
}
func FieldAddNullable(builder *flatbuffers.Builder, nullable bool) {
	builder.PrependBoolSlot(1, nullable, false)
}
func FieldAddTypeType(builder *flatbuffers.Builder, t Type) {
	builder.PrependByteSlot(2, byte(t), 0)
}
func FieldAddType(builder *flatbuffers.Builder, t flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(3, t, 0)
}
func FieldAddDictionary(builder *flatbuffers.Builder, d flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(4, d, 0)
}
func FieldAddChildren(builder *flatbuffers.Builder, children flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(5, children, 0)
}
func FieldAddCustomMetadata(builder *flatbuffers.Builder, md flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(6, md, 0)
}
func FieldEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT { return builder.EndObject() }

// Schema

type Schema struct{ _tab flatbuffers.Table }

func GetRootAsSchema(buf []byte, offset flatbuffers.UOffsetT) *Schema {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &Schema{}
	x.Init(buf, n+offset)
	return x
}

func (rcv *Schema) Init(buf []byte, i flatbuffers.UOffsetT) { rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i} }

func (rcv *Schema) Endianness() Endianness {
	return Endianness(rcv._tab.GetInt16Slot(slot(0), 0))
}

func (rcv *Schema) FieldsLength() int { return vectorLen(&rcv._tab, 1) }

func (rcv *Schema) Fields(obj *Field, j int) bool {
	return tableAt(&rcv._tab, 1, j, func(buf []byte, x flatbuffers.UOffsetT) { obj.Init(buf, x) })
}

func (rcv *Schema) CustomMetadataLength() int { return vectorLen(&rcv._tab, 2) }

func (rcv *Schema) CustomMetadata(obj *KeyValue, j int) bool {
	return tableAt(&rcv._tab, 2, j, func(buf []byte, x flatbuffers.UOffsetT) { obj.Init(buf, x) })
}

func SchemaStart(builder *flatbuffers.Builder) { builder.StartObject(4) }
func SchemaAddEndianness(builder *flatbuffers.Builder, e Endianness) {
	builder.PrependInt16Slot(0, int16(e), 0)
}
func SchemaAddFields(builder *flatbuffers.Builder, fields flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(1, fields, 0)
}
func SchemaAddCustomMetadata(builder *flatbuffers.Builder, md flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(2, md, 0)
}
func SchemaEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT { return builder.EndObject() }

// Buffer is the 16-byte struct {offset: long, length: long}.
type Buffer struct{ _tab flatbuffers.Struct }

func (rcv *Buffer) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}
func (rcv *Buffer) Offset() int64 { return rcv._tab.GetInt64(rcv._tab.Pos) }
func (rcv *Buffer) Length() int64 { return rcv._tab.GetInt64(rcv._tab.Pos + 8) }

func CreateBuffer(builder *flatbuffers.Builder, offset, length int64) flatbuffers.UOffsetT {
	builder.Prep(8, 16)
	builder.PrependInt64(length)
	builder.PrependInt64(offset)
	return builder.Offset()
}

// OffsetVector writes a vector of already built tables.
func OffsetVector(builder *flatbuffers.Builder, offs []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	builder.StartVector(4, len(offs), 4)
	for i := len(offs) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offs[i])
	}
	return builder.EndVector(len(offs))
}

func vectorLen(t *flatbuffers.Table, n int) int {
	if o := tableField(t, n); o != 0 {
		return t.VectorLen(o)
	}
	return 0
}

func tableAt(t *flatbuffers.Table, n, j int, init func([]byte, flatbuffers.UOffsetT)) bool {
	o := tableField(t, n)
	if o == 0 {
		return false
	}
	x := t.Vector(o) + flatbuffers.UOffsetT(j*4)
	init(t.Bytes, t.Indirect(x))
	return true
}

func structAt(t *flatbuffers.Table, n, j, size int, init func([]byte, flatbuffers.UOffsetT)) bool {
	o := tableField(t, n)
	if o == 0 {
		return false
	}
	init(t.Bytes, t.Vector(o)+flatbuffers.UOffsetT(j*size))
	return true
}
