// Package colwire is a columnar in-memory format with the Arrow IPC stream
// and file protocols on top.
//
// Columns are immutable trees of buffers described by a logical type. They
// are built with typed builders, shared by reference counting and sliced
// without copying. The IPC layer flattens a column tree into a flat message
// body, frames it behind a flatbuffer header, and turns received bodies back
// into zero-copy views.
//
// # Quick Start
//
//	import (
//	    "github.com/ajitpratap0/colwire/pkg/builder"
//	    "github.com/ajitpratap0/colwire/pkg/datatype"
//	    "github.com/ajitpratap0/colwire/pkg/ipc"
//	)
//
//	schema := datatype.MustSchema([]datatype.Field{
//	    {Name: "id", Type: datatype.Int64()},
//	    {Name: "name", Type: datatype.Utf8(), Nullable: true},
//	}, nil)
//
//	rb, _ := builder.NewRecordBuilder(schema, builder.Options{})
//	_ = rb.AppendRow(map[string]any{"id": 1, "name": "a"})
//	batch, _ := rb.Flush()
//
//	w, _ := ipc.NewFileWriter(out, schema, nil)
//	_ = w.Write(batch)
//	_ = w.Close()
//
//	fr, _ := ipc.OpenFile("batches.arrow", &ipc.ReaderConfig{UseMmap: true})
//	defer fr.Close()
//	rec, _ := fr.ReadRecordBatch(0)
//
// # Key Packages
//
//	pkg/datatype     - Logical types, fields and schemas
//	pkg/memory       - Reference-counted buffers, allocators and bit utilities
//	pkg/data         - Column trees (Data) and record batches
//	pkg/builder      - Typed builders for every layout, including dictionaries and unions
//	pkg/ipc          - IPC stream and file readers and writers
//	pkg/compression  - LZ4 frame and Zstandard body compression
//	pkg/mmap         - Memory-mapped file access for zero-copy reading
//	pkg/config       - YAML and viper configuration
//	pkg/colerrors    - Typed errors
//	pkg/logger       - Structured logging with zap
//	pkg/metrics      - Prometheus metrics
//	pkg/observability - OpenTelemetry tracing
//
// The colwire command in cmd/colwire builds batches from JSON lines and
// prints, converts and inspects IPC data.
package colwire
