package main

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/datatype"
)

// fieldSpec is one field of a schema file:
//
//	fields:
//	  - name: id
//	    type: int64
//	  - name: tags
//	    type: list
//	    nullable: true
//	    item: {type: utf8, nullable: true}
//	  - name: country
//	    type: dictionary
//	    id: 1
//	    index: int16
//	    value: {type: utf8}
type fieldSpec struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"`
	Nullable bool              `yaml:"nullable"`
	Metadata map[string]string `yaml:"metadata"`

	Unit      string `yaml:"unit"`
	Timezone  string `yaml:"timezone"`
	Width     int    `yaml:"width"`
	Precision int32  `yaml:"precision"`
	Scale     int32  `yaml:"scale"`
	Size      int    `yaml:"size"`

	Item   *fieldSpec  `yaml:"item"`
	Fields []fieldSpec `yaml:"fields"`
	Key    *fieldSpec  `yaml:"key"`
	Value  *fieldSpec  `yaml:"value"`

	ID      int64  `yaml:"id"`
	Index   string `yaml:"index"`
	Ordered bool   `yaml:"ordered"`
}

type schemaSpec struct {
	Fields   []fieldSpec       `yaml:"fields"`
	Metadata map[string]string `yaml:"metadata"`
}

var primitiveTypes = map[string]func() *datatype.DataType{
	"null":    datatype.Null,
	"bool":    datatype.Bool,
	"int8":    datatype.Int8,
	"int16":   datatype.Int16,
	"int32":   datatype.Int32,
	"int64":   datatype.Int64,
	"uint8":   datatype.Uint8,
	"uint16":  datatype.Uint16,
	"uint32":  datatype.Uint32,
	"uint64":  datatype.Uint64,
	"float32": datatype.Float32,
	"float64": datatype.Float64,
	"binary":  datatype.Binary,
	"utf8":    datatype.Utf8,
	"string":  datatype.Utf8,
	"date32":  datatype.Date32,
	"date64":  datatype.Date64,
}

var timeUnits = map[string]datatype.TimeUnit{
	"s":  datatype.Second,
	"ms": datatype.Millisecond,
	"us": datatype.Microsecond,
	"ns": datatype.Nanosecond,
}

func loadSchemaFile(path string) (*datatype.Schema, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: path is a CLI argument
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "read schema file").WithDetail("path", path)
	}
	return parseSchema(raw)
}

func parseSchema(raw []byte) (*datatype.Schema, error) {
	var doc schemaSpec
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeInvalid, "parse schema file")
	}
	if len(doc.Fields) == 0 {
		return nil, colerrors.New(colerrors.ErrorTypeInvalid, "schema file has no fields")
	}
	fields := make([]datatype.Field, len(doc.Fields))
	for i := range doc.Fields {
		f, err := doc.Fields[i].field("item")
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	var md *datatype.Metadata
	if len(doc.Metadata) > 0 {
		m := datatype.NewMetadata(doc.Metadata)
		md = &m
	}
	return datatype.NewSchema(fields, md)
}

func (s *fieldSpec) field(defaultName string) (datatype.Field, error) {
	dt, err := s.dataType()
	if err != nil {
		return datatype.Field{}, err
	}
	name := s.Name
	if name == "" {
		name = defaultName
	}
	f := datatype.Field{Name: name, Type: dt, Nullable: s.Nullable}
	if len(s.Metadata) > 0 {
		f.Metadata = datatype.NewMetadata(s.Metadata)
	}
	return f, nil
}

func (s *fieldSpec) dataType() (*datatype.DataType, error) {
	kind := strings.ToLower(s.Type)
	if ctor, ok := primitiveTypes[kind]; ok {
		return ctor(), nil
	}

	invalid := func(format string, args ...any) error {
		return colerrors.Newf(colerrors.ErrorTypeInvalid, format, args...).WithDetail("field", s.Name)
	}
	unit := func() (datatype.TimeUnit, error) {
		u, ok := timeUnits[s.Unit]
		if !ok {
			return 0, invalid("%s needs unit s, ms, us or ns, got %q", kind, s.Unit)
		}
		return u, nil
	}
	child := func(c *fieldSpec, what string) (datatype.Field, error) {
		if c == nil {
			return datatype.Field{}, invalid("%s needs %s", kind, what)
		}
		return c.field(what)
	}

	switch kind {
	case "fixed_size_binary":
		if s.Width <= 0 {
			return nil, invalid("fixed_size_binary needs a positive width")
		}
		return datatype.FixedSizeBinary(s.Width), nil
	case "time32", "time64", "timestamp", "duration":
		u, err := unit()
		if err != nil {
			return nil, err
		}
		switch kind {
		case "time32":
			return datatype.Time32(u), nil
		case "time64":
			return datatype.Time64(u), nil
		case "timestamp":
			return datatype.Timestamp(u, s.Timezone), nil
		}
		return datatype.Duration(u), nil
	case "decimal", "decimal128":
		if s.Precision <= 0 || s.Precision > 38 || s.Scale < 0 || s.Scale > s.Precision {
			return nil, invalid("decimal128(%d, %d) is out of range", s.Precision, s.Scale)
		}
		return datatype.Decimal128(s.Precision, s.Scale), nil
	case "list":
		elem, err := child(s.Item, "item")
		if err != nil {
			return nil, err
		}
		return datatype.ListOf(elem), nil
	case "fixed_size_list":
		elem, err := child(s.Item, "item")
		if err != nil {
			return nil, err
		}
		if s.Size <= 0 {
			return nil, invalid("fixed_size_list needs a positive size")
		}
		return datatype.FixedSizeListOf(elem, s.Size), nil
	case "struct":
		fields := make([]datatype.Field, len(s.Fields))
		for i := range s.Fields {
			f, err := s.Fields[i].field("")
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return datatype.StructOf(fields...), nil
	case "map":
		key, err := child(s.Key, "key")
		if err != nil {
			return nil, err
		}
		value, err := child(s.Value, "value")
		if err != nil {
			return nil, err
		}
		return datatype.MapOf(key.Type, value.Type, s.Ordered), nil
	case "dictionary":
		index, ok := primitiveTypes[strings.ToLower(s.Index)]
		if !ok {
			return nil, invalid("dictionary index type %q is not an integer type", s.Index)
		}
		value, err := child(s.Value, "value")
		if err != nil {
			return nil, err
		}
		dt := datatype.DictionaryOf(s.ID, index(), value.Type, s.Ordered)
		if !dt.Index.IsInteger() {
			return nil, invalid("dictionary index type %q is not an integer type", s.Index)
		}
		return dt, nil
	}
	return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported, "unsupported type %q", s.Type).WithDetail("field", s.Name)
}
