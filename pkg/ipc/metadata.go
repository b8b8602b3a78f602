package ipc

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/ajitpratap0/colwire/internal/flatbuf"
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/pool"
)

// builders recycles flatbuffer builders across messages. Finished bytes are
// copied out before a builder goes back.
var builders = pool.New(
	func() *flatbuffers.Builder { return flatbuffers.NewBuilder(1024) },
	func(b *flatbuffers.Builder) { b.Reset() },
)

// Schema to flatbuffer

func schemaToFB(b *flatbuffers.Builder, s *datatype.Schema) (flatbuffers.UOffsetT, error) {
	fields := make([]flatbuffers.UOffsetT, s.NumFields())
	for i, f := range s.Fields() {
		off, err := fieldToFB(b, f)
		if err != nil {
			return 0, err
		}
		fields[i] = off
	}
	fv := flatbuf.OffsetVector(b, fields)
	md := metadataToFB(b, s.Metadata())

	flatbuf.SchemaStart(b)
	if s.Endianness() == datatype.BigEndian {
		flatbuf.SchemaAddEndianness(b, flatbuf.EndiannessBig)
	}
	flatbuf.SchemaAddFields(b, fv)
	if md != 0 {
		flatbuf.SchemaAddCustomMetadata(b, md)
	}
	return flatbuf.SchemaEnd(b), nil
}

func fieldToFB(b *flatbuffers.Builder, f datatype.Field) (flatbuffers.UOffsetT, error) {
	name := b.CreateString(f.Name)
	dt := f.Type

	var dict flatbuffers.UOffsetT
	if dt.ID == datatype.DICTIONARY {
		idx := flatbuf.CreateInt(b, int32(dt.Index.BitWidth()), dt.Index.IsSigned())
		dict = flatbuf.CreateDictionaryEncoding(b, dt.DictID, idx, dt.Ordered)
		dt = dt.Value
	}

	children := make([]flatbuffers.UOffsetT, len(dt.Children))
	for i, c := range dt.Children {
		off, err := fieldToFB(b, c)
		if err != nil {
			return 0, err
		}
		children[i] = off
	}
	cv := flatbuf.OffsetVector(b, children)

	tag, typ, err := typeToFB(b, dt)
	if err != nil {
		return 0, colerrors.Wrapf(err, colerrors.ErrorTypeUnsupported, "field %q", f.Name)
	}
	md := metadataToFB(b, f.Metadata)

	flatbuf.FieldStart(b)
	flatbuf.FieldAddName(b, name)
	flatbuf.FieldAddNullable(b, f.Nullable)
	flatbuf.FieldAddTypeType(b, tag)
	flatbuf.FieldAddType(b, typ)
	if dict != 0 {
		flatbuf.FieldAddDictionary(b, dict)
	}
	flatbuf.FieldAddChildren(b, cv)
	if md != 0 {
		flatbuf.FieldAddCustomMetadata(b, md)
	}
	return flatbuf.FieldEnd(b), nil
}

func typeToFB(b *flatbuffers.Builder, dt *datatype.DataType) (flatbuf.Type, flatbuffers.UOffsetT, error) {
	switch dt.ID {
	case datatype.NULL:
		return flatbuf.TypeNull, flatbuf.EmptyTable(b), nil
	case datatype.BOOL:
		return flatbuf.TypeBool, flatbuf.EmptyTable(b), nil
	case datatype.INT8, datatype.INT16, datatype.INT32, datatype.INT64,
		datatype.UINT8, datatype.UINT16, datatype.UINT32, datatype.UINT64:
		return flatbuf.TypeInt, flatbuf.CreateInt(b, int32(dt.BitWidth()), dt.IsSigned()), nil
	case datatype.FLOAT32:
		return flatbuf.TypeFloatingPoint, flatbuf.CreateFloatingPoint(b, flatbuf.PrecisionSINGLE), nil
	case datatype.FLOAT64:
		return flatbuf.TypeFloatingPoint, flatbuf.CreateFloatingPoint(b, flatbuf.PrecisionDOUBLE), nil
	case datatype.BINARY:
		return flatbuf.TypeBinary, flatbuf.EmptyTable(b), nil
	case datatype.STRING:
		return flatbuf.TypeUtf8, flatbuf.EmptyTable(b), nil
	case datatype.FIXED_SIZE_BINARY:
		return flatbuf.TypeFixedSizeBinary, flatbuf.CreateFixedSizeBinary(b, int32(dt.ByteWidth)), nil
	case datatype.DATE32:
		return flatbuf.TypeDate, flatbuf.CreateDate(b, flatbuf.DateUnitDAY), nil
	case datatype.DATE64:
		return flatbuf.TypeDate, flatbuf.CreateDate(b, flatbuf.DateUnitMILLISECOND), nil
	case datatype.TIME32:
		return flatbuf.TypeTime, flatbuf.CreateTime(b, flatbuf.TimeUnit(dt.Unit), 32), nil
	case datatype.TIME64:
		return flatbuf.TypeTime, flatbuf.CreateTime(b, flatbuf.TimeUnit(dt.Unit), 64), nil
	case datatype.TIMESTAMP:
		return flatbuf.TypeTimestamp, flatbuf.CreateTimestamp(b, flatbuf.TimeUnit(dt.Unit), dt.TimeZone), nil
	case datatype.DURATION:
		return flatbuf.TypeDuration, flatbuf.CreateDuration(b, flatbuf.TimeUnit(dt.Unit)), nil
	case datatype.DECIMAL128:
		return flatbuf.TypeDecimal, flatbuf.CreateDecimal(b, dt.Precision, dt.Scale, 128), nil
	case datatype.LIST:
		return flatbuf.TypeList, flatbuf.EmptyTable(b), nil
	case datatype.FIXED_SIZE_LIST:
		return flatbuf.TypeFixedSizeList, flatbuf.CreateFixedSizeList(b, int32(dt.ListSize)), nil
	case datatype.STRUCT:
		return flatbuf.TypeStruct_, flatbuf.EmptyTable(b), nil
	case datatype.MAP:
		return flatbuf.TypeMap, flatbuf.CreateMap(b, dt.KeysSorted), nil
	case datatype.SPARSE_UNION, datatype.DENSE_UNION:
		mode := flatbuf.UnionModeSparse
		if dt.ID == datatype.DENSE_UNION {
			mode = flatbuf.UnionModeDense
		}
		codes := make([]int32, len(dt.TypeCodes))
		for i, c := range dt.TypeCodes {
			codes[i] = int32(c)
		}
		return flatbuf.TypeUnion, flatbuf.CreateUnion(b, mode, codes), nil
	}
	return flatbuf.TypeNONE, 0, colerrors.Newf(colerrors.ErrorTypeUnsupported, "no wire type for %s", dt)
}

func metadataToFB(b *flatbuffers.Builder, md datatype.Metadata) flatbuffers.UOffsetT {
	if md.Len() == 0 {
		return 0
	}
	kvs := make([]flatbuffers.UOffsetT, md.Len())
	for i := range md.Keys {
		kvs[i] = flatbuf.CreateKeyValue(b, md.Keys[i], md.Values[i])
	}
	return flatbuf.OffsetVector(b, kvs)
}

// Flatbuffer to schema

func schemaFromFB(s *flatbuf.Schema) (*datatype.Schema, error) {
	fields := make([]datatype.Field, s.FieldsLength())
	var fb flatbuf.Field
	for i := range fields {
		if !s.Fields(&fb, i) {
			return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "schema field %d missing", i)
		}
		f, err := fieldFromFB(&fb)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}

	md := make(map[string]string, s.CustomMetadataLength())
	var kv flatbuf.KeyValue
	keys := make([]string, 0, s.CustomMetadataLength())
	for i := 0; i < s.CustomMetadataLength(); i++ {
		if s.CustomMetadata(&kv, i) {
			keys = append(keys, string(kv.Key()))
			md[string(kv.Key())] = string(kv.Value())
		}
	}
	meta := orderedMetadata(keys, md)

	endianness := datatype.LittleEndian
	if s.Endianness() == flatbuf.EndiannessBig {
		endianness = datatype.BigEndian
	}
	schema, err := datatype.NewSchemaWithEndianness(fields, &meta, endianness)
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeProtocol, "invalid schema in message")
	}
	return schema, nil
}

// orderedMetadata keeps the wire order of keys.
func orderedMetadata(keys []string, m map[string]string) datatype.Metadata {
	md := datatype.Metadata{}
	for _, k := range keys {
		md.Keys = append(md.Keys, k)
		md.Values = append(md.Values, m[k])
	}
	return md
}

func fieldFromFB(f *flatbuf.Field) (datatype.Field, error) {
	out := datatype.Field{Name: string(f.Name()), Nullable: f.Nullable()}

	children := make([]datatype.Field, f.ChildrenLength())
	var cf flatbuf.Field
	for i := range children {
		if !f.Children(&cf, i) {
			return out, colerrors.Newf(colerrors.ErrorTypeProtocol, "field %q child %d missing", out.Name, i)
		}
		c, err := fieldFromFB(&cf)
		if err != nil {
			return out, err
		}
		children[i] = c
	}

	dt, err := typeFromFB(f, children)
	if err != nil {
		return out, colerrors.Wrapf(err, colerrors.GetType(err), "field %q", out.Name)
	}

	if enc := f.Dictionary(nil); enc != nil {
		index := datatype.Int32()
		if it := enc.IndexType(nil); it != nil {
			if index, err = intType(it.BitWidth(), it.IsSigned()); err != nil {
				return out, err
			}
		}
		dt = datatype.DictionaryOf(enc.Id(), index, dt, enc.IsOrdered())
	}
	out.Type = dt

	var kv flatbuf.KeyValue
	for i := 0; i < f.CustomMetadataLength(); i++ {
		if f.CustomMetadata(&kv, i) {
			out.Metadata.Keys = append(out.Metadata.Keys, string(kv.Key()))
			out.Metadata.Values = append(out.Metadata.Values, string(kv.Value()))
		}
	}
	return out, nil
}

func typeFromFB(f *flatbuf.Field, children []datatype.Field) (*datatype.DataType, error) {
	var tab flatbuffers.Table
	tag := f.TypeType()
	if tag != flatbuf.TypeNONE && !f.Type(&tab) {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "%s type table missing", tag)
	}

	switch tag {
	case flatbuf.TypeNull:
		return datatype.Null(), nil
	case flatbuf.TypeBool:
		return datatype.Bool(), nil
	case flatbuf.TypeInt:
		var t flatbuf.Int
		t.Init(tab.Bytes, tab.Pos)
		return intType(t.BitWidth(), t.IsSigned())
	case flatbuf.TypeFloatingPoint:
		var t flatbuf.FloatingPoint
		t.Init(tab.Bytes, tab.Pos)
		switch t.Precision() {
		case flatbuf.PrecisionSINGLE:
			return datatype.Float32(), nil
		case flatbuf.PrecisionDOUBLE:
			return datatype.Float64(), nil
		}
		return nil, colerrors.New(colerrors.ErrorTypeUnsupported, "half precision floats")
	case flatbuf.TypeBinary:
		return datatype.Binary(), nil
	case flatbuf.TypeUtf8:
		return datatype.Utf8(), nil
	case flatbuf.TypeFixedSizeBinary:
		var t flatbuf.FixedSizeBinary
		t.Init(tab.Bytes, tab.Pos)
		return datatype.FixedSizeBinary(int(t.ByteWidth())), nil
	case flatbuf.TypeDate:
		var t flatbuf.Date
		t.Init(tab.Bytes, tab.Pos)
		if t.Unit() == flatbuf.DateUnitDAY {
			return datatype.Date32(), nil
		}
		return datatype.Date64(), nil
	case flatbuf.TypeTime:
		var t flatbuf.Time
		t.Init(tab.Bytes, tab.Pos)
		unit, err := timeUnit(t.Unit())
		if err != nil {
			return nil, err
		}
		if t.BitWidth() == 32 {
			return datatype.Time32(unit), nil
		}
		return datatype.Time64(unit), nil
	case flatbuf.TypeTimestamp:
		var t flatbuf.Timestamp
		t.Init(tab.Bytes, tab.Pos)
		unit, err := timeUnit(t.Unit())
		if err != nil {
			return nil, err
		}
		return datatype.Timestamp(unit, string(t.Timezone())), nil
	case flatbuf.TypeDuration:
		var t flatbuf.Duration
		t.Init(tab.Bytes, tab.Pos)
		unit, err := timeUnit(t.Unit())
		if err != nil {
			return nil, err
		}
		return datatype.Duration(unit), nil
	case flatbuf.TypeDecimal:
		var t flatbuf.Decimal
		t.Init(tab.Bytes, tab.Pos)
		if t.BitWidth() != 128 {
			return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported, "decimal bit width %d", t.BitWidth())
		}
		return datatype.Decimal128(t.Precision(), t.Scale()), nil
	case flatbuf.TypeList:
		if len(children) != 1 {
			return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "list needs 1 child, got %d", len(children))
		}
		return datatype.ListOf(children[0]), nil
	case flatbuf.TypeFixedSizeList:
		if len(children) != 1 {
			return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "fixed size list needs 1 child, got %d", len(children))
		}
		var t flatbuf.FixedSizeList
		t.Init(tab.Bytes, tab.Pos)
		return datatype.FixedSizeListOf(children[0], int(t.ListSize())), nil
	case flatbuf.TypeStruct_:
		return datatype.StructOf(children...), nil
	case flatbuf.TypeMap:
		if len(children) != 1 || children[0].Type.ID != datatype.STRUCT || len(children[0].Type.Children) != 2 {
			return nil, colerrors.New(colerrors.ErrorTypeProtocol, "map needs one struct child with key and value")
		}
		var t flatbuf.Map
		t.Init(tab.Bytes, tab.Pos)
		return &datatype.DataType{ID: datatype.MAP, KeysSorted: t.KeysSorted(), Children: children}, nil
	case flatbuf.TypeUnion:
		var t flatbuf.Union
		t.Init(tab.Bytes, tab.Pos)
		var codes []int8
		if n := t.TypeIdsLength(); n > 0 {
			if n != len(children) {
				return nil, colerrors.Newf(colerrors.ErrorTypeProtocol,
					"union has %d type ids for %d children", n, len(children))
			}
			codes = make([]int8, n)
			for i := range codes {
				codes[i] = int8(t.TypeIds(i))
			}
		}
		if t.Mode() == flatbuf.UnionModeDense {
			return datatype.DenseUnionOf(children, codes), nil
		}
		return datatype.SparseUnionOf(children, codes), nil
	}
	return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported, "wire type %s", tag)
}

func intType(bitWidth int32, signed bool) (*datatype.DataType, error) {
	switch {
	case bitWidth == 8 && signed:
		return datatype.Int8(), nil
	case bitWidth == 16 && signed:
		return datatype.Int16(), nil
	case bitWidth == 32 && signed:
		return datatype.Int32(), nil
	case bitWidth == 64 && signed:
		return datatype.Int64(), nil
	case bitWidth == 8:
		return datatype.Uint8(), nil
	case bitWidth == 16:
		return datatype.Uint16(), nil
	case bitWidth == 32:
		return datatype.Uint32(), nil
	case bitWidth == 64:
		return datatype.Uint64(), nil
	}
	return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "integer bit width %d", bitWidth)
}

func timeUnit(u flatbuf.TimeUnit) (datatype.TimeUnit, error) {
	if u < flatbuf.TimeUnitSECOND || u > flatbuf.TimeUnitNANOSECOND {
		return 0, colerrors.Newf(colerrors.ErrorTypeProtocol, "time unit %d", u)
	}
	return datatype.TimeUnit(u), nil
}

// Message envelopes

func finishMessage(b *flatbuffers.Builder, kind flatbuf.MessageHeader, header flatbuffers.UOffsetT, bodyLength int64) []byte {
	flatbuf.MessageStart(b)
	flatbuf.MessageAddVersion(b, currentVersion)
	flatbuf.MessageAddHeaderType(b, kind)
	flatbuf.MessageAddHeader(b, header)
	flatbuf.MessageAddBodyLength(b, bodyLength)
	b.Finish(flatbuf.MessageEnd(b))
	return append([]byte(nil), b.FinishedBytes()...)
}

func schemaMessage(s *datatype.Schema) ([]byte, error) {
	b := builders.Get()
	defer builders.Put(b)
	off, err := schemaToFB(b, s)
	if err != nil {
		return nil, err
	}
	return finishMessage(b, flatbuf.MessageHeaderSchema, off, 0), nil
}

// recordBatchToFB writes a RecordBatch table. codec is nil for an
// uncompressed body.
func recordBatchToFB(b *flatbuffers.Builder, length int64, a *Assembly, codec *flatbuf.CompressionType) flatbuffers.UOffsetT {
	// struct vectors are built back to front
	flatbuf.RecordBatchStartNodesVector(b, len(a.FieldNodes))
	for i := len(a.FieldNodes) - 1; i >= 0; i-- {
		flatbuf.CreateFieldNode(b, a.FieldNodes[i].Length, a.FieldNodes[i].NullCount)
	}
	nodes := b.EndVector(len(a.FieldNodes))

	flatbuf.RecordBatchStartBuffersVector(b, len(a.Buffers))
	for i := len(a.Buffers) - 1; i >= 0; i-- {
		flatbuf.CreateBuffer(b, a.Buffers[i].Offset, a.Buffers[i].Length)
	}
	buffers := b.EndVector(len(a.Buffers))

	var comp flatbuffers.UOffsetT
	if codec != nil {
		comp = flatbuf.CreateBodyCompression(b, *codec)
	}

	flatbuf.RecordBatchStart(b)
	flatbuf.RecordBatchAddLength(b, length)
	flatbuf.RecordBatchAddNodes(b, nodes)
	flatbuf.RecordBatchAddBuffers(b, buffers)
	if comp != 0 {
		flatbuf.RecordBatchAddCompression(b, comp)
	}
	return flatbuf.RecordBatchEnd(b)
}

func recordBatchMessage(length int64, a *Assembly, codec *flatbuf.CompressionType) []byte {
	b := builders.Get()
	defer builders.Put(b)
	rb := recordBatchToFB(b, length, a, codec)
	return finishMessage(b, flatbuf.MessageHeaderRecordBatch, rb, a.BodyLength)
}

func dictionaryBatchMessage(id int64, delta bool, length int64, a *Assembly, codec *flatbuf.CompressionType) []byte {
	b := builders.Get()
	defer builders.Put(b)
	rb := recordBatchToFB(b, length, a, codec)
	db := flatbuf.CreateDictionaryBatch(b, id, rb, delta)
	return finishMessage(b, flatbuf.MessageHeaderDictionaryBatch, db, a.BodyLength)
}

// parseMessage validates the root of a Message flatbuffer. Accessors on a
// corrupt buffer panic, so the header fields are read here under recover.
func parseMessage(meta []byte) (msg *flatbuf.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg, err = nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "corrupt message metadata: %v", r)
		}
	}()
	if len(meta) < 8 {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "message metadata of %d bytes is too short", len(meta))
	}
	msg = flatbuf.GetRootAsMessage(meta, 0)
	if msg.Version() < flatbuf.MetadataVersionV4 {
		return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported, "metadata version %s", msg.Version())
	}
	if msg.BodyLength() < 0 {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "negative body length %d", msg.BodyLength())
	}
	var tab flatbuffers.Table
	if msg.HeaderType() != flatbuf.MessageHeaderNONE && !msg.Header(&tab) {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "%s message has no header", msg.HeaderType())
	}
	return msg, nil
}

func headerTable(msg *flatbuf.Message) flatbuffers.Table {
	var tab flatbuffers.Table
	msg.Header(&tab)
	return tab
}

func schemaFromMessage(msg *flatbuf.Message) (s *datatype.Schema, err error) {
	defer recoverProtocol(&err, "schema")
	tab := headerTable(msg)
	var fs flatbuf.Schema
	fs.Init(tab.Bytes, tab.Pos)
	return schemaFromFB(&fs)
}

func recoverProtocol(err *error, what string) {
	if r := recover(); r != nil {
		*err = colerrors.Newf(colerrors.ErrorTypeProtocol, "corrupt %s metadata: %v", what, r)
	}
}

// batchHeader is the decoded part of a RecordBatch table the loader needs.
type batchHeader struct {
	length  int64
	nodes   []FieldNode
	regions []BufferRegion
	codec   *flatbuf.CompressionType
}

func decodeBatchHeader(rb *flatbuf.RecordBatch) (h batchHeader, err error) {
	defer recoverProtocol(&err, "record batch")
	h.length = rb.Length()
	h.nodes = make([]FieldNode, rb.NodesLength())
	var n flatbuf.FieldNode
	for i := range h.nodes {
		rb.Nodes(&n, i)
		h.nodes[i] = FieldNode{Length: n.Length(), NullCount: n.NullCount()}
	}
	h.regions = make([]BufferRegion, rb.BuffersLength())
	var buf flatbuf.Buffer
	for i := range h.regions {
		rb.Buffers(&buf, i)
		h.regions[i] = BufferRegion{Offset: buf.Offset(), Length: buf.Length()}
	}
	if c := rb.Compression(nil); c != nil {
		if c.Method() != flatbuf.BodyCompressionMethodBUFFER {
			return h, colerrors.Newf(colerrors.ErrorTypeUnsupported, "body compression method %d", c.Method())
		}
		codec := c.Codec()
		h.codec = &codec
	}
	return h, nil
}

func recordBatchHeader(msg *flatbuf.Message) (batchHeader, error) {
	tab := headerTable(msg)
	var rb flatbuf.RecordBatch
	rb.Init(tab.Bytes, tab.Pos)
	return decodeBatchHeader(&rb)
}

func dictionaryBatchHeader(msg *flatbuf.Message) (id int64, delta bool, h batchHeader, err error) {
	defer recoverProtocol(&err, "dictionary batch")
	tab := headerTable(msg)
	var db flatbuf.DictionaryBatch
	db.Init(tab.Bytes, tab.Pos)
	rb := db.Data(nil)
	if rb == nil {
		return 0, false, h, colerrors.Newf(colerrors.ErrorTypeProtocol, "dictionary batch %d has no data", db.Id())
	}
	h, err = decodeBatchHeader(rb)
	return db.Id(), db.IsDelta(), h, err
}

func (h batchHeader) String() string {
	return fmt.Sprintf("length=%d nodes=%d buffers=%d", h.length, len(h.nodes), len(h.regions))
}
