package ipc

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colwire/internal/flatbuf"
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/compression"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/metrics"
	"github.com/ajitpratap0/colwire/pkg/observability"
)

// encoder turns a schema and its batches into payloads.
type encoder struct {
	schema    *datatype.Schema
	codec     compression.Compressor
	codecType *flatbuf.CompressionType
	tracker   *dictionaryTracker
}

func newEncoder(schema *datatype.Schema, cfg WriterConfig, file bool) (*encoder, error) {
	e := &encoder{
		schema:  schema,
		tracker: newDictionaryTracker(cfg.EmitDictionaryDeltas, file),
	}
	var t flatbuf.CompressionType
	switch cfg.Compression {
	case compression.None:
		return e, nil
	case compression.LZ4:
		t = flatbuf.CompressionTypeLZ4_FRAME
	case compression.Zstd:
		t = flatbuf.CompressionTypeZSTD
	default:
		return nil, colerrors.Newf(colerrors.ErrorTypeConfig, "unknown compression %q", cfg.Compression)
	}
	c, err := compression.NewCompressor(&compression.Config{Algorithm: cfg.Compression, Level: cfg.Level})
	if err != nil {
		return nil, err
	}
	e.codec, e.codecType = c, &t
	return e, nil
}

func (e *encoder) schemaPayload() (*Payload, error) {
	meta, err := schemaMessage(e.schema)
	if err != nil {
		return nil, err
	}
	return &Payload{Kind: flatbuf.MessageHeaderSchema, Metadata: meta}, nil
}

func (e *encoder) assemble(columns ...*data.Data) (*Assembly, error) {
	a, err := Assemble(columns...)
	if err != nil || e.codec == nil {
		return a, err
	}
	return a.compress(e.codec)
}

func (e *encoder) recordPayload(rec *data.RecordBatch) (*Payload, error) {
	a, err := e.assemble(rec.Columns()...)
	if err != nil {
		return nil, err
	}
	return &Payload{
		Kind:       flatbuf.MessageHeaderRecordBatch,
		Metadata:   recordBatchMessage(int64(rec.NumRows()), a, e.codecType),
		Bodies:     a.Bodies,
		BodyLength: a.BodyLength,
	}, nil
}

func (e *encoder) dictionaryPayload(u dictionaryUpdate) (*Payload, error) {
	a, err := e.assemble(u.dict)
	if err != nil {
		return nil, err
	}
	return &Payload{
		Kind:       flatbuf.MessageHeaderDictionaryBatch,
		Metadata:   dictionaryBatchMessage(u.id, u.delta, int64(u.dict.Len()), a, e.codecType),
		Bodies:     a.Bodies,
		BodyLength: a.BodyLength,
	}, nil
}

// writerCore is the part of the stream and file writers that frames the
// schema, dictionaries and batches.
type writerCore struct {
	mw      *MessageWriter
	enc     *encoder
	schema  *datatype.Schema
	log     *zap.Logger
	format  string
	leading []byte
	started bool
	closed  bool
	err     error
	onBlock func(kind flatbuf.MessageHeader, blk Block)
}

func newWriterCore(w io.Writer, schema *datatype.Schema, cfg *WriterConfig, format string) (*writerCore, error) {
	c := cfg.withDefaults()
	enc, err := newEncoder(schema, c, format == "file")
	if err != nil {
		return nil, err
	}
	log := c.Logger.With(zap.String("format", format))
	return &writerCore{
		mw:      NewMessageWriter(w, log),
		enc:     enc,
		schema:  schema,
		log:     log,
		format:  format,
		onBlock: func(flatbuf.MessageHeader, Block) {},
	}, nil
}

// start writes the leading bytes and the schema message once.
func (c *writerCore) start() error {
	if c.started {
		return nil
	}
	c.started = true
	if len(c.leading) > 0 {
		if err := c.mw.write(c.leading); err != nil {
			return c.abort(err)
		}
	}
	p, err := c.enc.schemaPayload()
	if err != nil {
		return c.abort(err)
	}
	if _, err := c.mw.WritePayload(p); err != nil {
		return c.abort(err)
	}
	return nil
}

// abort closes the writer after err may have left part of a message on the
// sink. Every later Write fails and Close reports err.
func (c *writerCore) abort(err error) error {
	if c.closed {
		return err
	}
	c.closed = true
	c.err = err
	c.enc.tracker.release()
	c.log.Warn("writer closed after failure",
		zap.Int64("position", c.mw.Position()),
		zap.Error(err))
	return err
}

func (c *writerCore) write(ctx context.Context, rec *data.RecordBatch) (err error) {
	if c.closed {
		if c.err != nil {
			return colerrors.Wrap(c.err, colerrors.ErrorTypeClosed, "write to writer closed by an earlier failure")
		}
		return colerrors.New(colerrors.ErrorTypeClosed, "write to closed writer")
	}
	_, span := observability.StartSpan(ctx, "ipc.write",
		attribute.String("format", c.format),
		attribute.Int("rows", rec.NumRows()))
	defer func() {
		countError(err)
		span.End(err)
	}()

	if !rec.Schema().Equal(c.schema) {
		return colerrors.New(colerrors.ErrorTypeInvalid, "record batch schema does not match writer schema").
			WithDetail("writer", c.schema.String()).
			WithDetail("batch", rec.Schema().String())
	}
	if err := c.start(); err != nil {
		return err
	}

	updates, err := c.enc.tracker.collect(rec.Columns())
	if err != nil {
		return err
	}
	defer func() {
		for _, u := range updates {
			u.dict.Release()
		}
	}()
	for _, u := range updates {
		p, err := c.enc.dictionaryPayload(u)
		if err != nil {
			return c.abort(err)
		}
		blk, err := c.mw.WritePayload(p)
		if err != nil {
			return c.abort(err)
		}
		c.onBlock(flatbuf.MessageHeaderDictionaryBatch, blk)
		metrics.DictionaryDeltasTotal.WithLabelValues(metrics.DirectionWrite, u.kind()).Inc()
		span.AddEvent("dictionary", attribute.Int64("id", u.id), attribute.String("kind", u.kind()))
	}

	p, err := c.enc.recordPayload(rec)
	if err != nil {
		return c.abort(err)
	}
	blk, err := c.mw.WritePayload(p)
	if err != nil {
		return c.abort(err)
	}
	c.onBlock(flatbuf.MessageHeaderRecordBatch, blk)
	span.SetAttribute("body_bytes", blk.BodyLength)
	return nil
}

// finish writes the schema if nothing was written yet, then the
// end-of-stream marker.
func (c *writerCore) finish() error {
	if err := c.start(); err != nil {
		return err
	}
	c.closed = true
	c.enc.tracker.release()
	if err := c.mw.WriteEOS(); err != nil {
		c.err = err
		return err
	}
	return nil
}

// Writer writes the IPC stream format. It does not close the underlying
// io.Writer.
type Writer struct {
	core *writerCore
}

// NewWriter returns a stream writer for batches of schema. The schema
// message is written with the first batch, or by Close for an empty stream.
func NewWriter(w io.Writer, schema *datatype.Schema, cfg *WriterConfig) (*Writer, error) {
	core, err := newWriterCore(w, schema, cfg, "stream")
	if err != nil {
		return nil, err
	}
	return &Writer{core: core}, nil
}

// Schema returns the writer's schema.
func (w *Writer) Schema() *datatype.Schema { return w.core.schema }

// Write sends the dictionaries rec needs and then rec itself.
func (w *Writer) Write(rec *data.RecordBatch) error {
	return w.core.write(context.Background(), rec)
}

// WriteContext is Write with a context for tracing.
func (w *Writer) WriteContext(ctx context.Context, rec *data.RecordBatch) error {
	return w.core.write(ctx, rec)
}

// Close writes the end-of-stream marker. Closing again returns the error
// that closed the writer, if any.
func (w *Writer) Close() error {
	if w.core.closed {
		return w.core.err
	}
	err := w.core.finish()
	countError(err)
	return err
}
