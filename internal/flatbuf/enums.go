package flatbuf

import "strconv"

type MetadataVersion int16

const (
	MetadataVersionV1 MetadataVersion = 0
	MetadataVersionV2 MetadataVersion = 1
	MetadataVersionV3 MetadataVersion = 2
	MetadataVersionV4 MetadataVersion = 3
	MetadataVersionV5 MetadataVersion = 4
)

func (v MetadataVersion) String() string { return "V" + strconv.Itoa(int(v)+1) }

type Endianness int16

const (
	EndiannessLittle Endianness = 0
	EndiannessBig    Endianness = 1
)

// Type tags the Field.type union.
type Type byte

const (
	TypeNONE            Type = 0
	TypeNull            Type = 1
	TypeInt             Type = 2
	TypeFloatingPoint   Type = 3
	TypeBinary          Type = 4
	TypeUtf8            Type = 5
	TypeBool            Type = 6
	TypeDecimal         Type = 7
	TypeDate            Type = 8
	TypeTime            Type = 9
	TypeTimestamp       Type = 10
	TypeInterval        Type = 11
	TypeList            Type = 12
	TypeStruct_         Type = 13
	TypeUnion           Type = 14
	TypeFixedSizeBinary Type = 15
	TypeFixedSizeList   Type = 16
	TypeMap             Type = 17
	TypeDuration        Type = 18
	TypeLargeBinary     Type = 19
	TypeLargeUtf8       Type = 20
	TypeLargeList       Type = 21
	TypeRunEndEncoded   Type = 22
	TypeBinaryView      Type = 23
	TypeUtf8View        Type = 24
	TypeListView        Type = 25
	TypeLargeListView   Type = 26
)

var typeNames = map[Type]string{
	TypeNONE: "NONE", TypeNull: "Null", TypeInt: "Int", TypeFloatingPoint: "FloatingPoint",
	TypeBinary: "Binary", TypeUtf8: "Utf8", TypeBool: "Bool", TypeDecimal: "Decimal",
	TypeDate: "Date", TypeTime: "Time", TypeTimestamp: "Timestamp", TypeInterval: "Interval",
	TypeList: "List", TypeStruct_: "Struct_", TypeUnion: "Union", TypeFixedSizeBinary: "FixedSizeBinary",
	TypeFixedSizeList: "FixedSizeList", TypeMap: "Map", TypeDuration: "Duration",
	TypeLargeBinary: "LargeBinary", TypeLargeUtf8: "LargeUtf8", TypeLargeList: "LargeList",
	TypeRunEndEncoded: "RunEndEncoded", TypeBinaryView: "BinaryView", TypeUtf8View: "Utf8View",
	TypeListView: "ListView", TypeLargeListView: "LargeListView",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

type Precision int16

const (
	PrecisionHALF   Precision = 0
	PrecisionSINGLE Precision = 1
	PrecisionDOUBLE Precision = 2
)

type DateUnit int16

const (
	DateUnitDAY         DateUnit = 0
	DateUnitMILLISECOND DateUnit = 1
)

type TimeUnit int16

const (
	TimeUnitSECOND      TimeUnit = 0
	TimeUnitMILLISECOND TimeUnit = 1
	TimeUnitMICROSECOND TimeUnit = 2
	TimeUnitNANOSECOND  TimeUnit = 3
)

type UnionMode int16

const (
	UnionModeSparse UnionMode = 0
	UnionModeDense  UnionMode = 1
)

type DictionaryKind int16

const DictionaryKindDenseArray DictionaryKind = 0

// MessageHeader tags the Message.header union.
type MessageHeader byte

const (
	MessageHeaderNONE            MessageHeader = 0
	MessageHeaderSchema          MessageHeader = 1
	MessageHeaderDictionaryBatch MessageHeader = 2
	MessageHeaderRecordBatch     MessageHeader = 3
	MessageHeaderTensor          MessageHeader = 4
	MessageHeaderSparseTensor    MessageHeader = 5
)

var messageHeaderNames = map[MessageHeader]string{
	MessageHeaderNONE: "NONE", MessageHeaderSchema: "Schema", MessageHeaderDictionaryBatch: "DictionaryBatch",
	MessageHeaderRecordBatch: "RecordBatch", MessageHeaderTensor: "Tensor", MessageHeaderSparseTensor: "SparseTensor",
}

func (h MessageHeader) String() string {
	if s, ok := messageHeaderNames[h]; ok {
		return s
	}
	return "MessageHeader(" + strconv.Itoa(int(h)) + ")"
}

type CompressionType int8

const (
	CompressionTypeLZ4_FRAME CompressionType = 0
	CompressionTypeZSTD      CompressionType = 1
)

func (c CompressionType) String() string {
	switch c {
	case CompressionTypeLZ4_FRAME:
		return "LZ4_FRAME"
	case CompressionTypeZSTD:
		return "ZSTD"
	}
	return "CompressionType(" + strconv.Itoa(int(c)) + ")"
}

type BodyCompressionMethod int8

const BodyCompressionMethodBUFFER BodyCompressionMethod = 0
