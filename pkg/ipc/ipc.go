// Package ipc implements the Arrow IPC stream and file formats for colwire
// column trees.
//
// # Overview
//
// A record batch travels as a flatbuffer metadata header followed by a flat
// body. The Assembler flattens a column tree into field nodes and buffer
// regions in pre-order; the Loader walks a schema in the same order and turns
// regions of a received body back into zero-copy views. Dictionaries travel
// out of band in dictionary batches, optionally as deltas that extend a
// dictionary already sent.
//
// # Basic Usage
//
//	w, err := ipc.NewWriter(out, schema, &ipc.WriterConfig{Compression: compression.Zstd})
//	if err != nil {
//	    return err
//	}
//	if err := w.Write(batch); err != nil {
//	    return err
//	}
//	if err := w.Close(); err != nil {
//	    return err
//	}
//
//	r := ipc.NewStreamReader(ipc.NewReaderSource(in), nil)
//	defer r.Close()
//	for r.Next() {
//	    rec := r.Record() // valid until the next call to Next
//	}
//	if err := r.Err(); err != nil {
//	    return err
//	}
//
// The file format wraps the same stream in magic bytes and a footer; use
// NewFileWriter and OpenFile or NewFileReader for random access, or
// NewReader to detect the format.
//
// Every message is written with the continuation marker. Readers also accept
// the legacy framing without a marker and every historical end-of-stream
// form.
package ipc

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colwire/internal/flatbuf"
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/compression"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/logger"
	"github.com/ajitpratap0/colwire/pkg/memory"
	"github.com/ajitpratap0/colwire/pkg/metrics"
)

const (
	continuationMarker uint32 = 0xFFFFFFFF
	alignment                 = 8

	currentVersion = flatbuf.MetadataVersionV5
)

var (
	magic       = []byte("ARROW1")
	paddedMagic = []byte("ARROW1\x00\x00")
	eosMarker   = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00}
)

// WriterConfig configures stream and file writers. The zero value writes
// uncompressed bodies and sends dictionary replacements instead of deltas.
type WriterConfig struct {
	Compression          compression.Algorithm
	Level                compression.Level
	EmitDictionaryDeltas bool
	Logger               *zap.Logger
}

func (c *WriterConfig) withDefaults() WriterConfig {
	var out WriterConfig
	if c != nil {
		out = *c
	}
	if out.Compression == "" {
		out.Compression = compression.None
	}
	if out.Logger == nil {
		out.Logger = logger.Named("ipc")
	}
	return out
}

// ReaderConfig configures stream and file readers.
type ReaderConfig struct {
	// EnsureNativeEndian rejects big-endian schemas.
	EnsureNativeEndian bool
	// UseMmap makes OpenFile map the file instead of reading it.
	UseMmap   bool
	Allocator memory.Allocator
	Logger    *zap.Logger
}

func (c *ReaderConfig) withDefaults() ReaderConfig {
	var out ReaderConfig
	if c != nil {
		out = *c
	}
	if out.Allocator == nil {
		out.Allocator = memory.DefaultAllocator
	}
	if out.Logger == nil {
		out.Logger = logger.Named("ipc")
	}
	return out
}

// RecordReader iterates record batches. A batch returned by Record is owned
// by the reader and released by the next call to Next or by Close; callers
// that keep it must Retain it.
type RecordReader interface {
	Schema() *datatype.Schema
	Next() bool
	NextContext(ctx context.Context) bool
	Record() *data.RecordBatch
	Err() error
	Close() error
}

func paddedLength(n int64) int64 {
	return (n + alignment - 1) &^ (alignment - 1)
}

func messageKind(h flatbuf.MessageHeader) string {
	switch h {
	case flatbuf.MessageHeaderSchema:
		return "schema"
	case flatbuf.MessageHeaderRecordBatch:
		return "record_batch"
	case flatbuf.MessageHeaderDictionaryBatch:
		return "dictionary_batch"
	}
	return h.String()
}

func countError(err error) {
	if err == nil {
		return
	}
	t := colerrors.GetType(err)
	if t == "" {
		t = colerrors.ErrorTypeIO
	}
	metrics.ErrorsTotal.WithLabelValues(string(t)).Inc()
}
