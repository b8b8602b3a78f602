package flatbuf

import (
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordBatchMessage(t *testing.T) {
	b := flatbuffers.NewBuilder(256)

	RecordBatchStartNodesVector(b, 2)
	// struct vectors are built back to front
	CreateFieldNode(b, 3, 1)
	CreateFieldNode(b, 3, 0)
	nodes := b.EndVector(2)

	RecordBatchStartBuffersVector(b, 3)
	CreateBuffer(b, 16, 8)
	CreateBuffer(b, 8, 8)
	CreateBuffer(b, 0, 8)
	buffers := b.EndVector(3)

	comp := CreateBodyCompression(b, CompressionTypeZSTD)

	RecordBatchStart(b)
	RecordBatchAddLength(b, 3)
	RecordBatchAddNodes(b, nodes)
	RecordBatchAddBuffers(b, buffers)
	RecordBatchAddCompression(b, comp)
	rb := RecordBatchEnd(b)

	MessageStart(b)
	MessageAddVersion(b, MetadataVersionV5)
	MessageAddHeaderType(b, MessageHeaderRecordBatch)
	MessageAddHeader(b, rb)
	MessageAddBodyLength(b, 24)
	b.Finish(MessageEnd(b))

	msg := GetRootAsMessage(b.FinishedBytes(), 0)
	assert.Equal(t, MetadataVersionV5, msg.Version())
	assert.Equal(t, MessageHeaderRecordBatch, msg.HeaderType())
	assert.Equal(t, int64(24), msg.BodyLength())

	var tab flatbuffers.Table
	require.True(t, msg.Header(&tab))
	var batch RecordBatch
	batch.Init(tab.Bytes, tab.Pos)
	assert.Equal(t, int64(3), batch.Length())
	require.Equal(t, 2, batch.NodesLength())

	var node FieldNode
	require.True(t, batch.Nodes(&node, 1))
	assert.Equal(t, int64(3), node.Length())
	assert.Equal(t, int64(1), node.NullCount())

	require.Equal(t, 3, batch.BuffersLength())
	var buf Buffer
	for j, want := range []int64{0, 8, 16} {
		require.True(t, batch.Buffers(&buf, j))
		assert.Equal(t, want, buf.Offset())
		assert.Equal(t, int64(8), buf.Length())
	}
	require.NotNil(t, batch.Compression(nil))
	assert.Equal(t, CompressionTypeZSTD, batch.Compression(nil).Codec())
}

func TestSchemaFields(t *testing.T) {
	b := flatbuffers.NewBuilder(256)

	name := b.CreateString("ts")
	typ := CreateTimestamp(b, TimeUnitMICROSECOND, "UTC")
	kv := CreateKeyValue(b, "origin", "sensor")
	md := OffsetVector(b, []flatbuffers.UOffsetT{kv})
	FieldStart(b)
	FieldAddName(b, name)
	FieldAddNullable(b, true)
	FieldAddTypeType(b, TypeTimestamp)
	FieldAddType(b, typ)
	FieldAddCustomMetadata(b, md)
	field := FieldEnd(b)

	fields := OffsetVector(b, []flatbuffers.UOffsetT{field})
	SchemaStart(b)
	SchemaAddFields(b, fields)
	b.Finish(SchemaEnd(b))

	s := GetRootAsSchema(b.FinishedBytes(), 0)
	assert.Equal(t, EndiannessLittle, s.Endianness())
	require.Equal(t, 1, s.FieldsLength())

	var f Field
	require.True(t, s.Fields(&f, 0))
	assert.Equal(t, "ts", string(f.Name()))
	assert.True(t, f.Nullable())
	assert.Equal(t, TypeTimestamp, f.TypeType())
	assert.Nil(t, f.Dictionary(nil))

	var tab flatbuffers.Table
	require.True(t, f.Type(&tab))
	var ts Timestamp
	ts.Init(tab.Bytes, tab.Pos)
	assert.Equal(t, TimeUnitMICROSECOND, ts.Unit())
	assert.Equal(t, "UTC", string(ts.Timezone()))

	var kvOut KeyValue
	require.True(t, f.CustomMetadata(&kvOut, 0))
	assert.Equal(t, "origin", string(kvOut.Key()))
	assert.Equal(t, "sensor", string(kvOut.Value()))
}

func TestFooterBlocks(t *testing.T) {
	b := flatbuffers.NewBuilder(256)
	SchemaStart(b)
	schema := SchemaEnd(b)

	FooterStartBlocksVector(b, 2)
	CreateBlock(b, 400, 136, 64)
	CreateBlock(b, 8, 120, 32)
	batches := b.EndVector(2)

	FooterStart(b)
	FooterAddVersion(b, MetadataVersionV5)
	FooterAddSchema(b, schema)
	FooterAddRecordBatches(b, batches)
	b.Finish(FooterEnd(b))

	footer := GetRootAsFooter(b.FinishedBytes(), 0)
	assert.Equal(t, MetadataVersionV5, footer.Version())
	assert.NotNil(t, footer.Schema(nil))
	assert.Equal(t, 0, footer.DictionariesLength())
	require.Equal(t, 2, footer.RecordBatchesLength())

	var blk Block
	require.True(t, footer.RecordBatches(&blk, 0))
	assert.Equal(t, int64(8), blk.Offset())
	assert.Equal(t, int32(120), blk.MetaDataLength())
	assert.Equal(t, int64(32), blk.BodyLength())
	require.True(t, footer.RecordBatches(&blk, 1))
	assert.Equal(t, int64(400), blk.Offset())
}

func TestEnumNames(t *testing.T) {
	assert.Equal(t, "V5", MetadataVersionV5.String())
	assert.Equal(t, "DictionaryBatch", MessageHeaderDictionaryBatch.String())
	assert.Equal(t, "Struct_", TypeStruct_.String())
	assert.Equal(t, "Type(99)", Type(99).String())
	assert.Equal(t, "LZ4_FRAME", CompressionTypeLZ4_FRAME.String())
}
