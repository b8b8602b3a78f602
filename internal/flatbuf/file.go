package flatbuf

import flatbuffers "github.com/google/flatbuffers/go"

// Block is the 24-byte struct {offset: long, metaDataLength: int, bodyLength: long}.
type Block struct{ _tab flatbuffers.Struct }

func (rcv *Block) Init(buf []byte, i flatbuffers.UOffsetT) {
	rcv._tab.Bytes = buf
	rcv._tab.Pos = i
}
func (rcv *Block) Offset() int64         { return rcv._tab.GetInt64(rcv._tab.Pos) }
func (rcv *Block) MetaDataLength() int32 { return rcv._tab.GetInt32(rcv._tab.Pos + 8) }
func (rcv *Block) BodyLength() int64     { return rcv._tab.GetInt64(rcv._tab.Pos + 16) }

func CreateBlock(builder *flatbuffers.Builder, offset int64, metaDataLength int32, bodyLength int64) flatbuffers.UOffsetT {
	builder.Prep(8, 24)
	builder.PrependInt64(bodyLength)
	builder.Pad(4)
	builder.PrependInt32(metaDataLength)
	builder.PrependInt64(offset)
	return builder.Offset()
}

// Footer

type Footer struct{ _tab flatbuffers.Table }

func GetRootAsFooter(buf []byte, offset flatbuffers.UOffsetT) *Footer {
	n := flatbuffers.GetUOffsetT(buf[offset:])
	x := &Footer{}
	x.Init(buf, n+offset)
	return x
}

func (rcv *Footer) Init(buf []byte, i flatbuffers.UOffsetT) { rcv._tab = flatbuffers.Table{Bytes: buf, Pos: i} }

func (rcv *Footer) Version() MetadataVersion {
	return MetadataVersion(rcv._tab.GetInt16Slot(slot(0), 0))
}

func (rcv *Footer) Schema(obj *Schema) *Schema {
	if o := tableField(&rcv._tab, 1); o != 0 {
		x := rcv._tab.Indirect(o + rcv._tab.Pos)
		if obj == nil {
			obj = new(Schema)
		}
		obj.Init(rcv._tab.Bytes, x)
		return obj
	}
	return nil
}

func (rcv *Footer) DictionariesLength() int { return vectorLen(&rcv._tab, 2) }

func (rcv *Footer) Dictionaries(obj *Block, j int) bool {
	return structAt(&rcv._tab, 2, j, 24, func(buf []byte, x flatbuffers.UOffsetT) { obj.Init(buf, x) })
}

func (rcv *Footer) RecordBatchesLength() int { return vectorLen(&rcv._tab, 3) }

func (rcv *Footer) RecordBatches(obj *Block, j int) bool {
	return structAt(&rcv._tab, 3, j, 24, func(buf []byte, x flatbuffers.UOffsetT) { obj.Init(buf, x) })
}

func FooterStart(builder *flatbuffers.Builder) { builder.StartObject(5) }
func FooterAddVersion(builder *flatbuffers.Builder, v MetadataVersion) {
	builder.PrependInt16Slot(0, int16(v), 0)
}
func FooterAddSchema(builder *flatbuffers.Builder, schema flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(1, schema, 0)
}
func FooterAddDictionaries(builder *flatbuffers.Builder, blocks flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(2, blocks, 0)
}
func FooterAddRecordBatches(builder *flatbuffers.Builder, blocks flatbuffers.UOffsetT) {
	builder.PrependUOffsetTSlot(3, blocks, 0)
}
func FooterStartBlocksVector(builder *flatbuffers.Builder, n int) flatbuffers.UOffsetT {
	return builder.StartVector(24, n, 8)
}
func FooterEnd(builder *flatbuffers.Builder) flatbuffers.UOffsetT { return builder.EndObject() }
