package builder

import (
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
)

// RecordBuilder builds record batches for a schema, one builder per field.
//
//	rb, _ := builder.NewRecordBuilder(schema, builder.Options{})
//	for _, row := range rows {
//	    if err := rb.AppendRow(row); err != nil { ... }
//	    if rb.Len() >= 64*1024 || rb.ByteLength() >= 8<<20 {
//	        batch, _ := rb.Flush()
//	        ...
//	    }
//	}
type RecordBuilder struct {
	schema *datatype.Schema
	fields []Builder
}

// NewRecordBuilder creates builders for every field of schema.
func NewRecordBuilder(schema *datatype.Schema, opts Options) (*RecordBuilder, error) {
	rb := &RecordBuilder{schema: schema, fields: make([]Builder, schema.NumFields())}
	for i, f := range schema.Fields() {
		b, err := New(f.Type, opts)
		if err != nil {
			return nil, colerrors.Wrapf(err, colerrors.ErrorTypeConstruction, "field %q", f.Name)
		}
		rb.fields[i] = b
	}
	return rb, nil
}

func (rb *RecordBuilder) Schema() *datatype.Schema { return rb.schema }
func (rb *RecordBuilder) Field(i int) Builder      { return rb.fields[i] }
func (rb *RecordBuilder) Fields() []Builder        { return rb.fields }

// Len returns the number of rows appended since the last flush.
func (rb *RecordBuilder) Len() int {
	if len(rb.fields) == 0 {
		return 0
	}
	return rb.fields[0].Len()
}

// ByteLength sums ByteLength over all field builders.
func (rb *RecordBuilder) ByteLength() int {
	n := 0
	for _, b := range rb.fields {
		n += b.ByteLength()
	}
	return n
}

// AppendRow appends one row keyed by field name. Missing fields are null.
func (rb *RecordBuilder) AppendRow(row map[string]any) error {
	for i, f := range rb.schema.Fields() {
		v, ok := row[f.Name]
		var err error
		if !ok {
			err = rb.fields[i].AppendNull()
		} else {
			err = rb.fields[i].Append(v)
		}
		if err != nil {
			return colerrors.Wrapf(err, colerrors.ErrorTypeConstruction, "field %q", f.Name)
		}
	}
	return nil
}

// AppendValues appends one row given positionally.
func (rb *RecordBuilder) AppendValues(row []any) error {
	if len(row) != len(rb.fields) {
		return colerrors.Newf(colerrors.ErrorTypeConstruction,
			"row has %d values, schema has %d fields", len(row), len(rb.fields))
	}
	for i, v := range row {
		if err := rb.fields[i].Append(v); err != nil {
			return colerrors.Wrapf(err, colerrors.ErrorTypeConstruction, "field %q", rb.schema.Field(i).Name)
		}
	}
	return nil
}

// Flush emits a record batch of the rows appended since the last flush.
func (rb *RecordBuilder) Flush() (*data.RecordBatch, error) {
	rows := rb.Len()
	cols := make([]*data.Data, len(rb.fields))
	for i, b := range rb.fields {
		d, err := b.Flush()
		if err != nil {
			for _, c := range cols[:i] {
				c.Release()
			}
			return nil, err
		}
		cols[i] = d
	}
	return data.NewRecordBatch(rb.schema, cols, rows)
}

// Finish finishes every field builder.
func (rb *RecordBuilder) Finish() {
	for _, b := range rb.fields {
		b.Finish()
	}
}

// Clear discards rows appended since the last flush.
func (rb *RecordBuilder) Clear() {
	for _, b := range rb.fields {
		b.Clear()
	}
}
