package datatype

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
)

// Metadata is an ordered list of key/value pairs attached to a field or
// schema.
type Metadata struct {
	Keys   []string
	Values []string
}

// NewMetadata builds Metadata from a map with keys in sorted order.
func NewMetadata(m map[string]string) Metadata {
	md := Metadata{}
	for k := range m {
		md.Keys = append(md.Keys, k)
	}
	sort.Strings(md.Keys)
	for _, k := range md.Keys {
		md.Values = append(md.Values, m[k])
	}
	return md
}

// Len returns the number of pairs.
func (md Metadata) Len() int { return len(md.Keys) }

// Get returns the value for key.
func (md Metadata) Get(key string) (string, bool) {
	for i, k := range md.Keys {
		if k == key {
			return md.Values[i], true
		}
	}
	return "", false
}

// Equal compares pairs in order.
func (md Metadata) Equal(o Metadata) bool {
	if len(md.Keys) != len(o.Keys) {
		return false
	}
	for i := range md.Keys {
		if md.Keys[i] != o.Keys[i] || md.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

// Field is a named, typed, possibly nullable column or child.
type Field struct {
	Name     string
	Type     *DataType
	Nullable bool
	Metadata Metadata
}

// Equal compares name, nullability and type.
func (f Field) Equal(o Field) bool {
	return f.Name == o.Name && f.Nullable == o.Nullable && Equal(f.Type, o.Type)
}

func (f Field) String() string {
	s := fmt.Sprintf("%s: %s", f.Name, f.Type)
	if f.Nullable {
		s += " nullable"
	}
	return s
}

// Endianness of the buffers described by a schema.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

// Schema is an ordered list of top-level fields.
type Schema struct {
	fields     []Field
	metadata   Metadata
	endianness Endianness
	index      map[string]int
	dicts      []DictionaryField
}

// DictionaryField describes one dictionary-encoded position in a schema.
type DictionaryField struct {
	ID   int64
	Path []int
	Type *DataType
}

// NewSchema validates fields and returns a schema. Two dictionary-encoded
// fields may share an id only if their value types are equal.
func NewSchema(fields []Field, md *Metadata) (*Schema, error) {
	return NewSchemaWithEndianness(fields, md, LittleEndian)
}

// NewSchemaWithEndianness is NewSchema with an explicit byte order.
func NewSchemaWithEndianness(fields []Field, md *Metadata, e Endianness) (*Schema, error) {
	s := &Schema{
		fields:     append([]Field(nil), fields...),
		endianness: e,
		index:      make(map[string]int, len(fields)),
	}
	if md != nil {
		s.metadata = *md
	}
	for i, f := range fields {
		if f.Type == nil {
			return nil, colerrors.Newf(colerrors.ErrorTypeConstruction, "field %q has no type", f.Name)
		}
		if _, dup := s.index[f.Name]; !dup {
			s.index[f.Name] = i
		}
	}

	seen := make(map[int64]*DataType)
	var walk func(path []int, t *DataType) error
	walk = func(path []int, t *DataType) error {
		if t.ID == DICTIONARY {
			if t.Index == nil || !t.Index.IsInteger() {
				return colerrors.Newf(colerrors.ErrorTypeConstruction,
					"dictionary %d index type must be an integer, got %v", t.DictID, t.Index)
			}
			if prev, ok := seen[t.DictID]; ok {
				if !Equal(prev.Value, t.Value) {
					return colerrors.Newf(colerrors.ErrorTypeConstruction,
						"dictionary id %d maps to both %s and %s", t.DictID, prev.Value, t.Value).
						WithDetail("path", path)
				}
			} else {
				seen[t.DictID] = t
			}
			s.dicts = append(s.dicts, DictionaryField{ID: t.DictID, Path: append([]int(nil), path...), Type: t})
			return walk(path, t.Value)
		}
		for i, c := range t.Children {
			if c.Type == nil {
				return colerrors.Newf(colerrors.ErrorTypeConstruction, "child %q has no type", c.Name)
			}
			if err := walk(append(path, i), c.Type); err != nil {
				return err
			}
		}
		return nil
	}
	for i, f := range fields {
		if err := walk([]int{i}, f.Type); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustSchema is NewSchema that panics on error, for literals in tests and
// examples.
func MustSchema(fields []Field, md *Metadata) *Schema {
	s, err := NewSchema(fields, md)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Fields() []Field        { return s.fields }
func (s *Schema) Field(i int) Field      { return s.fields[i] }
func (s *Schema) NumFields() int         { return len(s.fields) }
func (s *Schema) Metadata() Metadata     { return s.metadata }
func (s *Schema) Endianness() Endianness { return s.endianness }

// FieldIndex returns the index of the first field named name, or -1.
func (s *Schema) FieldIndex(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Dictionaries lists every dictionary-encoded position in pre-order. An id
// shared by several fields appears once per field.
func (s *Schema) Dictionaries() []DictionaryField { return s.dicts }

// DictionaryType returns the dictionary type registered for id.
func (s *Schema) DictionaryType(id int64) (*DataType, bool) {
	for _, d := range s.dicts {
		if d.ID == id {
			return d.Type, true
		}
	}
	return nil, false
}

// Equal compares fields and endianness. Metadata is ignored.
func (s *Schema) Equal(o *Schema) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || len(s.fields) != len(o.fields) || s.endianness != o.endianness {
		return false
	}
	for i := range s.fields {
		if !s.fields[i].Equal(o.fields[i]) {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString("schema:\n")
	for _, f := range s.fields {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	return b.String()
}
