package ipc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colwire/pkg/builder"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
)

func column(t *testing.T, dt *datatype.DataType, values ...any) *data.Data {
	t.Helper()
	b, err := builder.New(dt, builder.Options{})
	require.NoError(t, err)
	require.NoError(t, b.AppendValues(values))
	d, err := b.Flush()
	require.NoError(t, err)
	return d
}

func record(t *testing.T, fields []datatype.Field, cols ...*data.Data) *data.RecordBatch {
	t.Helper()
	schema, err := datatype.NewSchema(fields, nil)
	require.NoError(t, err)
	rec, err := data.NewRecordBatch(schema, cols, cols[0].Len())
	require.NoError(t, err)
	return rec
}

// simpleBatch is the Int32 [1,null,3] / Utf8 ["a","bb",null] batch.
func simpleBatch(t *testing.T) *data.RecordBatch {
	return record(t,
		[]datatype.Field{
			{Name: "id", Type: datatype.Int32(), Nullable: true},
			{Name: "name", Type: datatype.Utf8(), Nullable: true},
		},
		column(t, datatype.Int32(), int32(1), nil, int32(3)),
		column(t, datatype.Utf8(), "a", "bb", nil),
	)
}

func writeStream(t *testing.T, cfg *WriterConfig, recs ...*data.RecordBatch) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewWriter(&buf, recs[0].Schema(), cfg)
	require.NoError(t, err)
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, cfg *WriterConfig, recs ...*data.RecordBatch) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewFileWriter(&buf, recs[0].Schema(), cfg)
	require.NoError(t, err)
	for _, rec := range recs {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// readAll drains r and returns every batch; the caller owns them.
func readAll(t *testing.T, r RecordReader) []*data.RecordBatch {
	t.Helper()
	var out []*data.RecordBatch
	for r.Next() {
		rec := r.Record()
		rec.Retain()
		out = append(out, rec)
	}
	require.NoError(t, r.Err())
	require.NoError(t, r.Close())
	return out
}

func readStream(t *testing.T, b []byte) []*data.RecordBatch {
	t.Helper()
	return readAll(t, NewStreamReader(NewReaderSource(bytes.NewReader(b)), nil))
}

func requireSameBatch(t *testing.T, want, got *data.RecordBatch) {
	t.Helper()
	require.True(t, want.Schema().Equal(got.Schema()), "schema %s != %s", want.Schema(), got.Schema())
	require.Equal(t, want.NumRows(), got.NumRows())
	for i := 0; i < want.NumCols(); i++ {
		name := want.Schema().Field(i).Name
		require.Equal(t, want.Column(i).NullN(), got.Column(i).NullN(), "column %s nulls", name)
		require.Equal(t, want.Column(i).Values(), got.Column(i).Values(), "column %s", name)
	}
}

// rawMessage is one framed message cut out of a stream.
type rawMessage struct {
	offset int
	meta   []byte
	body   []byte
	msg    *Message
}

// splitStream cuts a stream written with continuation markers into its
// messages, stopping at the end-of-stream marker.
func splitStream(t *testing.T, b []byte) []rawMessage {
	t.Helper()
	var out []rawMessage
	pos := 0
	for {
		require.GreaterOrEqual(t, len(b)-pos, 8)
		require.Equal(t, continuationMarker, le.Uint32(b[pos:]))
		n := int(le.Uint32(b[pos+4:]))
		if n == 0 {
			require.Equal(t, len(b), pos+8, "bytes after end-of-stream")
			return out
		}
		meta := b[pos+8 : pos+8+n]
		msg, err := newMessage(meta, nil)
		require.NoError(t, err)
		start := pos + 8 + n
		body := b[start : start+int(msg.BodyLength())]
		out = append(out, rawMessage{offset: pos, meta: meta, body: body, msg: msg})
		pos = start + len(body)
	}
}
