package ipc_test

import (
	"bytes"
	"fmt"

	"github.com/ajitpratap0/colwire/pkg/builder"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/ipc"
)

func ExampleNewWriter() {
	schema := datatype.MustSchema([]datatype.Field{
		{Name: "id", Type: datatype.Int32(), Nullable: true},
		{Name: "name", Type: datatype.Utf8(), Nullable: true},
	}, nil)
	rb, _ := builder.NewRecordBuilder(schema, builder.Options{})
	_ = rb.AppendRow(map[string]any{"id": 1, "name": "a"})
	_ = rb.AppendRow(map[string]any{"name": "bb"})
	_ = rb.AppendRow(map[string]any{"id": 3})
	batch, _ := rb.Flush()

	var buf bytes.Buffer
	w, _ := ipc.NewWriter(&buf, schema, nil)
	_ = w.Write(batch)
	_ = w.Close()

	r := ipc.NewStreamReader(ipc.NewReaderSource(&buf), nil)
	defer r.Close()
	for r.Next() {
		rec := r.Record()
		for i := 0; i < rec.NumRows(); i++ {
			row := rec.Row(i)
			fmt.Println(row["id"], row["name"])
		}
	}
	fmt.Println(r.Err())
	// Output:
	// 1 a
	// <nil> bb
	// 3 <nil>
	// <nil>
}

func ExampleFileReader_ReadRecordBatch() {
	schema := datatype.MustSchema([]datatype.Field{{Name: "n", Type: datatype.Int64()}}, nil)
	rb, _ := builder.NewRecordBuilder(schema, builder.Options{})

	var buf bytes.Buffer
	w, _ := ipc.NewFileWriter(&buf, schema, nil)
	for i := 0; i < 3; i++ {
		_ = rb.AppendRow(map[string]any{"n": i * 10})
		batch, _ := rb.Flush()
		_ = w.Write(batch)
	}
	_ = w.Close()

	fr, _ := ipc.NewFileReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()), nil)
	defer fr.Close()
	rec, _ := fr.ReadRecordBatch(2)
	defer rec.Release()
	fmt.Println(fr.NumRecords(), rec.Column(0).Values())
	// Output: 3 [20]
}
