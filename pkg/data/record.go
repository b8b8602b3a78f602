package data

import (
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/datatype"
)

// RecordBatch is a set of equal-length columns described by a schema.
type RecordBatch struct {
	schema  *datatype.Schema
	numRows int
	columns []*Data
}

// NewRecordBatch validates that there is one column per field, each of the
// field's type and numRows long.
func NewRecordBatch(schema *datatype.Schema, columns []*Data, numRows int) (*RecordBatch, error) {
	if len(columns) != schema.NumFields() {
		return nil, colerrors.Newf(colerrors.ErrorTypeInvalid,
			"record batch has %d columns, schema has %d fields", len(columns), schema.NumFields())
	}
	for i, c := range columns {
		f := schema.Field(i)
		if c.Len() != numRows {
			return nil, colerrors.Newf(colerrors.ErrorTypeInvalid,
				"column %q has %d rows, want %d", f.Name, c.Len(), numRows)
		}
		if !datatype.Equal(c.Type(), f.Type) {
			return nil, colerrors.Newf(colerrors.ErrorTypeInvalid,
				"column %q has type %s, schema says %s", f.Name, c.Type(), f.Type)
		}
	}
	return &RecordBatch{schema: schema, numRows: numRows, columns: columns}, nil
}

func (r *RecordBatch) Schema() *datatype.Schema { return r.schema }
func (r *RecordBatch) NumRows() int             { return r.numRows }
func (r *RecordBatch) NumCols() int             { return len(r.columns) }
func (r *RecordBatch) Column(i int) *Data       { return r.columns[i] }
func (r *RecordBatch) Columns() []*Data         { return r.columns }

// ColumnByName returns the first column named name.
func (r *RecordBatch) ColumnByName(name string) (*Data, bool) {
	i := r.schema.FieldIndex(name)
	if i < 0 {
		return nil, false
	}
	return r.columns[i], true
}

// Slice returns rows [begin, begin+n) without copying.
func (r *RecordBatch) Slice(begin, n int) (*RecordBatch, error) {
	cols := make([]*Data, len(r.columns))
	for i, c := range r.columns {
		s, err := c.Slice(begin, n)
		if err != nil {
			for _, done := range cols[:i] {
				done.Release()
			}
			return nil, err
		}
		cols[i] = s
	}
	return &RecordBatch{schema: r.schema, numRows: n, columns: cols}, nil
}

// Row returns row i keyed by field name.
func (r *RecordBatch) Row(i int) map[string]any {
	row := make(map[string]any, len(r.columns))
	for c, col := range r.columns {
		row[r.schema.Field(c).Name] = col.Value(i)
	}
	return row
}

// Retain takes a reference on every column.
func (r *RecordBatch) Retain() {
	for _, c := range r.columns {
		c.Retain()
	}
}

// Release drops a reference on every column.
func (r *RecordBatch) Release() {
	for _, c := range r.columns {
		c.Release()
	}
}
