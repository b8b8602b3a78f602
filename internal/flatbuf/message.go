package flatbuf

import flatbuffers "github.com/google/flatbuffers/go"

// FieldNode is the 16-byte struct {length: long, null_count: long}.
type FieldNode struct{ _tab flatbuffers.Struct }

func (rcv *FieldNode) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}
func (rcv *FieldNode) Length() int64    { return rcv._tab.GetInt64(rcv._tab.Pos) }
func (rcv *FieldNode) NullCount() int64 { return rcv._tab.GetInt64(rcv._tab.Pos + 8) }

func CreateFieldNode(builder *flatbuffers.Builder, length, nullCount int64) flatbuffers.UOffsetT {
	builder.Prep(8, 16)
	builder.PrependInt64(nullCount)
	builder.PrependInt64(length)
	return builder.Offset()
}

// BodyCompression

type BodyCompression struct{ _tab flatbuffers.Table }

func (rcv *BodyCompression) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i}
}
func (rcv *BodyCompression) Codec() CompressionType {
	return CompressionType(rcv._tab.GetInt8Slot(slot(0), 0))
}
func (rcv *BodyCompression) Method() BodyCompressionMethod {
	return BodyCompressionMethod(rcv._tab.GetInt8Slot(slot(1), 0))
}

func CreateBodyCompression(builder *flatbuffers.Builder, codec CompressionType) flatbuffers.UOffsetT {
	builder.StartObject(2)
	builder.PrependInt8Slot(1, int8(BodyCompressionMethodBUFFER), 0)
	builder.PrependInt8Slot(0, int8(codec), 0)
	return builder.EndObject()
}

// RecordBatch

type RecordBatch struct{ _tab flatbuffers.Table }

func (rcv *RecordBatch) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i}
}
func (rcv *RecordBatch) Length() int64 { return rcv._tab.GetInt64Slot(slot(0), 0) }

func (rcv *RecordBatch) NodesLength() int { return vectorLen(&rcv._tab, 1) }

func (rcv *RecordBatch) Nodes(obj *FieldNode, j int) bool {
	return structAt(&rcv._tab, 1, j, 16, func(buf []byte, x flatbuffers.UOffsetT) { obj.Init(buf, x) })
}

func (rcv *RecordBatch) BuffersLength() int { return vectorLen(&rcv._tab, 2) }

func (rcv *RecordBatch) Buffers(obj *Buffer, j int) bool {
	return structAt(&rcv._tab, 2, j, 16, func(buf []byte, x flatbuffers.UOffsetT) { obj.Init(buf, x) })
}

func (rcv *RecordBatch) Compression(obj *BodyCompression) *BodyCompression {
	if o := tableField(&rcv._tab, 3); o != 0 {
		x := rcv._tab.Indirect(o + rcv._tab.Pos)
		if obj == nil {
			obj = new(BodyCompression)
		}
		obj.Init(rcv._tab.Bytes, x)
		return obj
	}
	return nil
}

func RecordBatchStart(builder *flatbuffers.Builder) { builder.StartObject(5) }
func RecordBatchAddLength(builder *flatbuffers.Builder, length int64) {
	builder.PrependInt64Slot(0, length, 0)
}
func RecordBatchAddNodes(builder *flatbuffers.Builder, nodes flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(1, nodes, 0)
}
func RecordBatchAddBuffers(builder *flatbuffers.Builder, buffers flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(2, buffers, 0)
}
func RecordBatchAddCompression(builder *flatbuffers.Builder, c flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(3, c, 0)
}
func RecordBatchStartNodesVector(builder *flatbuffers.Builder, n int) flatbuffers.UOffsetT {
	return builder.StartVector(16, n, 8)
}
func RecordBatchStartBuffersVector(builder *flatbuffers.Builder, n int) flatbuffers.UOffsetT {
	return builder.StartVector(16, n, 8)
}
func RecordBatchEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT { return builder.EndObject() }

// DictionaryBatch

type DictionaryBatch struct{ _tab flatbuffers.Table }

func (rcv *DictionaryBatch) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i}
}
func (rcv *DictionaryBatch) Id() int64 { return rcv._tab.GetInt64Slot(slot(0), 0) }

func (rcv *DictionaryBatch) Data(obj *RecordBatch) *RecordBatch {
	if o := tableField(&rcv._tab, 1); o != 0 {
		x := rcv._tab.Indirect(o + rcv._tab.Pos)
		if obj == nil {
			obj = new(RecordBatch)
		}
		obj.Init(rcv._tab.Bytes, x)
		return obj
	}
	return nil
}

func (rcv *DictionaryBatch) IsDelta() bool { return rcv._tab.GetBoolSlot(slot(2), false) }

func CreateDictionaryBatch(builder *flatbuffers.Builder, id int64, batch flatbuffers.UOffsetT, delta bool) flatbuffers.UOffsetT {
	builder.StartObject(3)
	builder.PrependInt64Slot(0, id, 0)
	builder.PrependUOffsetTSlot(1, batch, 0)
	builder.PrependBoolSlot(2, delta, false)
	return builder.EndObject()
}

// Message

type Message struct{ _tab flatbuffers.Table }

func GetRootAsMessage(buf []byte, offset flatbuffers.UOffsetT) *Message {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &Message{}
	x.Init(buf, n+offset)
	return x
}

func (rcv *Message) Init(buf []byte, i flatbuffers.UOffsetT) { rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i} }

func (rcv *Message) Version() MetadataVersion {
	return MetadataVersion(rcv._tab.GetInt16Slot(slot(0), 0))
}
func (rcv *Message) HeaderType() MessageHeader {
	return MessageHeader(rcv._tab.GetByteSlot(slot(1), 0))
}

func (rcv *Message) Header(obj *flatbuffers.Table) bool {
	if o := tableField(&rcv._tab, 2); o != 0 {
		rcv._tab.Union(obj, o)
		return true
	}
	return false
}

func (rcv *Message) BodyLength() int64 { return rcv._tab.GetInt64Slot(slot(3), 0) }

func (rcv *Message) CustomMetadataLength() int { return vectorLen(&rcv._tab, 4) }

func (rcv *Message) CustomMetadata(obj *KeyValue, j int) bool {
	return tableAt(&rcv._tab, 4, j, func(buf []byte, x flatbuffers.UOffsetT) { obj.Init(buf, x) })
}

func MessageStart(builder *flatbuffers.Builder) { builder.StartObject(5) }
func MessageAddVersion(builder *flatbuffers.Builder, v MetadataVersion) {
	builder.PrependInt16Slot(0, int16(v), 0)
}
func MessageAddHeaderType(builder *flatbuffers.Builder, h MessageHeader) {
	builder.PrependByteSlot(1, byte(h), 0)
}
func MessageAddHeader(builder *flatbuffers.Builder, header flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(2, header, 0)
}
func MessageAddBodyLength(builder *flatbuffers.Builder, n int64) {
	builder.PrependInt64Slot(3, n, 0)
}
func MessageAddCustomMetadata(builder *flatbuffers.Builder, md flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(4, md, 0)
}
func MessageEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT { return builder.EndObject() }
