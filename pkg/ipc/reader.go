package ipc

import (
	"bytes"
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colwire/internal/flatbuf"
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/compression"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
	"github.com/ajitpratap0/colwire/pkg/metrics"
	"github.com/ajitpratap0/colwire/pkg/observability"
)

// decoder turns record and dictionary messages into column trees for one
// schema.
type decoder struct {
	schema *datatype.Schema
	memo   *dictionaryMemo
	mem    memory.Allocator
	codecs map[flatbuf.CompressionType]compression.Compressor
	file   bool
}

func newDecoder(schema *datatype.Schema, cfg ReaderConfig, file bool) *decoder {
	return &decoder{
		schema: schema,
		memo:   newDictionaryMemo(schema),
		mem:    cfg.Allocator,
		codecs: make(map[flatbuf.CompressionType]compression.Compressor),
		file:   file,
	}
}

func (d *decoder) codec(t *flatbuf.CompressionType) (compression.Compressor, error) {
	if t == nil {
		return nil, nil
	}
	if c, ok := d.codecs[*t]; ok {
		return c, nil
	}
	var alg compression.Algorithm
	switch *t {
	case flatbuf.CompressionTypeLZ4_FRAME:
		alg = compression.LZ4
	case flatbuf.CompressionTypeZSTD:
		alg = compression.Zstd
	default:
		return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported, "compression codec %s", *t)
	}
	c, err := compression.NewCompressor(&compression.Config{Algorithm: alg})
	if err != nil {
		return nil, err
	}
	d.codecs[*t] = c
	return c, nil
}

func (d *decoder) loader(msg *Message, h batchHeader) (*loader, error) {
	c, err := d.codec(h.codec)
	if err != nil {
		return nil, err
	}
	return &loader{
		version: msg.Version,
		nodes:   h.nodes,
		regions: h.regions,
		body:    msg.Body,
		codec:   c,
		dicts:   d.memo.dicts,
		mem:     d.mem,
	}, nil
}

// record decodes a RecordBatch message. The caller owns the result.
func (d *decoder) record(msg *Message) (*data.RecordBatch, error) {
	h, err := recordBatchHeader(msg.Meta)
	if err != nil {
		return nil, err
	}
	if h.length < 0 {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "record batch length %d", h.length)
	}
	l, err := d.loader(msg, h)
	if err != nil {
		return nil, err
	}
	cols := make([]*data.Data, d.schema.NumFields())
	for i, f := range d.schema.Fields() {
		c, err := l.load(f.Type)
		if err != nil {
			releaseData(cols)
			return nil, colerrors.Wrapf(err, colerrors.GetType(err), "load column %q", f.Name)
		}
		cols[i] = c
	}
	if err := l.done(); err != nil {
		releaseData(cols)
		return nil, err
	}
	rec, err := data.NewRecordBatch(d.schema, cols, int(h.length))
	if err != nil {
		releaseData(cols)
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeProtocol, "record batch does not match its schema")
	}
	return rec, nil
}

// dictionary decodes a DictionaryBatch message into the memo and returns
// whether it was an initial batch, a delta or a replacement.
func (d *decoder) dictionary(msg *Message) (string, error) {
	id, delta, h, err := dictionaryBatchHeader(msg.Meta)
	if err != nil {
		return "", err
	}
	vt, err := d.memo.valueType(id)
	if err != nil {
		return "", err
	}
	_, exists := d.memo.dicts[id]
	if exists && !delta && d.file {
		return "", colerrors.Newf(colerrors.ErrorTypeProtocol,
			"dictionary %d replaced; the file format only allows deltas", id)
	}
	l, err := d.loader(msg, h)
	if err != nil {
		return "", err
	}
	dict, err := l.load(vt)
	if err != nil {
		return "", colerrors.Wrapf(err, colerrors.GetType(err), "load dictionary %d", id)
	}
	if err := l.done(); err != nil {
		dict.Release()
		return "", err
	}
	if int64(dict.Len()) != h.length {
		dict.Release()
		return "", colerrors.Newf(colerrors.ErrorTypeProtocol,
			"dictionary %d declares %d values, body holds %d", id, h.length, dict.Len())
	}
	if err := d.memo.add(id, dict, delta); err != nil {
		return "", err
	}
	return dictionaryUpdate{delta: delta, replaced: exists && !delta}.kind(), nil
}

func (d *decoder) release() { d.memo.release() }

type readerState int

const (
	stateUnopened readerState = iota
	stateStreaming
	stateClosed
)

// StreamReader reads the IPC stream format. It opens lazily: the schema is
// read by ReadSchema or by the first call to Schema or Next.
type StreamReader struct {
	src  ByteSource
	msgs *MessageReader
	cfg  ReaderConfig
	log  *zap.Logger

	state    readerState
	eos      bool
	schema   *datatype.Schema
	dec      *decoder
	rec      *data.RecordBatch
	err      error
	closeErr error
	closed   bool
}

// NewStreamReader returns a reader over src. The reader closes src when the
// stream ends, fails, or the reader is closed.
func NewStreamReader(src ByteSource, cfg *ReaderConfig) *StreamReader {
	c := cfg.withDefaults()
	log := c.Logger.With(zap.String("format", "stream"))
	return &StreamReader{src: src, msgs: NewMessageReader(src, log), cfg: c, log: log}
}

// ReadSchema reads the schema message if it has not been read yet. An input
// that ends before any message is an empty stream: the schema is nil and
// Next returns false without an error.
func (r *StreamReader) ReadSchema(ctx context.Context) (*datatype.Schema, error) {
	switch r.state {
	case stateUnopened:
		r.open(ctx)
	case stateClosed:
		if r.schema == nil && r.err == nil && !r.eos {
			return nil, colerrors.New(colerrors.ErrorTypeClosed, "stream reader is closed")
		}
	}
	return r.schema, r.err
}

func (r *StreamReader) open(ctx context.Context) {
	msg, err := r.msgs.ReadMessage(ctx)
	if err == io.EOF {
		r.log.Debug("empty stream")
		r.eos = true
		r.shutdown()
		return
	}
	if err != nil {
		r.fail(err)
		return
	}
	defer msg.Release()
	if msg.Header != flatbuf.MessageHeaderSchema {
		r.fail(colerrors.Newf(colerrors.ErrorTypeProtocol, "stream starts with a %s message, want schema", messageKind(msg.Header)))
		return
	}
	schema, err := schemaFromMessage(msg.Meta)
	if err != nil {
		r.fail(err)
		return
	}
	if r.cfg.EnsureNativeEndian && schema.Endianness() != datatype.LittleEndian {
		r.fail(colerrors.New(colerrors.ErrorTypeUnsupported, "stream is big-endian"))
		return
	}
	r.schema = schema
	r.dec = newDecoder(schema, r.cfg, false)
	r.state = stateStreaming
	r.log.Debug("opened stream", zap.Int("fields", schema.NumFields()), zap.Int("dictionaries", len(schema.Dictionaries())))
}

func (r *StreamReader) fail(err error) {
	r.err = err
	countError(err)
	r.log.Debug("stream failed", zap.Error(err))
	r.shutdown()
}

func (r *StreamReader) shutdown() {
	if r.state == stateClosed {
		return
	}
	r.state = stateClosed
	if r.dec != nil {
		r.dec.release()
	}
	r.closeErr = r.src.Close()
}

// Schema returns the stream schema, reading it first if needed. It is nil
// for an empty stream or when opening failed; see Err.
func (r *StreamReader) Schema() *datatype.Schema {
	s, _ := r.ReadSchema(context.Background())
	return s
}

// Next advances to the next record batch.
func (r *StreamReader) Next() bool { return r.NextContext(context.Background()) }

// NextContext is Next with a context. Dictionary batches are applied as they
// arrive; Next only stops on record batches.
func (r *StreamReader) NextContext(ctx context.Context) bool {
	if r.rec != nil {
		r.rec.Release()
		r.rec = nil
	}
	if r.state == stateUnopened {
		r.open(ctx)
	}
	if r.state != stateStreaming {
		return false
	}

	timer := metrics.NewTimer()
	ctx, span := observability.StartSpan(ctx, "ipc.read", attribute.String("format", "stream"))
	for {
		msg, err := r.msgs.ReadMessage(ctx)
		if err == io.EOF {
			r.eos = true
			r.shutdown()
			span.End(nil)
			return false
		}
		if err != nil {
			r.fail(err)
			span.End(err)
			return false
		}

		switch msg.Header {
		case flatbuf.MessageHeaderDictionaryBatch:
			kind, err := r.dec.dictionary(msg)
			msg.Release()
			if err != nil {
				r.fail(err)
				span.End(err)
				return false
			}
			metrics.DictionaryDeltasTotal.WithLabelValues(metrics.DirectionRead, kind).Inc()
			span.AddEvent("dictionary", attribute.String("kind", kind))

		case flatbuf.MessageHeaderRecordBatch:
			rec, err := r.dec.record(msg)
			msg.Release()
			if err != nil {
				r.fail(err)
				span.End(err)
				return false
			}
			r.rec = rec
			metrics.ReadLatency.WithLabelValues("stream").Observe(timer.Stop().Seconds())
			span.SetAttribute("rows", rec.NumRows())
			span.End(nil)
			return true

		case flatbuf.MessageHeaderSchema:
			msg.Release()
			err := colerrors.New(colerrors.ErrorTypeProtocol, "unexpected schema message after stream start")
			r.fail(err)
			span.End(err)
			return false

		default:
			kind := messageKind(msg.Header)
			msg.Release()
			err := colerrors.Newf(colerrors.ErrorTypeUnsupported, "%s messages", kind)
			r.fail(err)
			span.End(err)
			return false
		}
	}
}

// Record returns the current batch. It is owned by the reader.
func (r *StreamReader) Record() *data.RecordBatch { return r.rec }

// Err returns the error that stopped iteration, if any.
func (r *StreamReader) Err() error { return r.err }

// Close releases the current batch and the dictionaries and closes the
// source. Closing twice is a no-op.
func (r *StreamReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.rec != nil {
		r.rec.Release()
		r.rec = nil
	}
	r.shutdown()
	return r.closeErr
}

// Open detects the format of src. An input starting with the file magic is
// read in full and opened as a file; anything else is read as a stream.
func Open(ctx context.Context, src ByteSource, cfg *ReaderConfig) (RecordReader, error) {
	head, err := src.Peek(ctx, len(magic))
	if err != nil && !isShortRead(err) {
		src.Close()
		return nil, err
	}
	if !bytes.Equal(head, magic) {
		return NewStreamReader(src, cfg), nil
	}

	var all []byte
	for {
		b, err := src.Read(ctx, asyncChunkSize)
		all = append(all, b...)
		if err == nil {
			continue
		}
		if isShortRead(err) {
			break
		}
		src.Close()
		return nil, err
	}
	if err := src.Close(); err != nil {
		return nil, wrapIO(err, "close source")
	}
	fr, err := NewFileReader(bytesReaderAt(all), int64(len(all)), cfg)
	if err != nil {
		return nil, err
	}
	return fr, nil
}

// NewReader detects the format of r and returns a reader for it.
func NewReader(r io.Reader, cfg *ReaderConfig) (RecordReader, error) {
	return Open(context.Background(), NewReaderSource(r), cfg)
}
