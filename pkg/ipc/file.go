package ipc

import (
	"bytes"
	"context"
	"io"
	"os"

	flatbuffers "github.com/google/flatbuffers/go"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colwire/internal/flatbuf"
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
	"github.com/ajitpratap0/colwire/pkg/metrics"
	"github.com/ajitpratap0/colwire/pkg/mmap"
	"github.com/ajitpratap0/colwire/pkg/observability"
)

// FileWriter writes the IPC file format: magic, a stream, a footer indexing
// every dictionary and record batch, then the footer length and magic again.
// It does not close the underlying io.Writer.
type FileWriter struct {
	core    *writerCore
	dicts   []Block
	records []Block
}

// NewFileWriter returns a file writer for batches of schema.
func NewFileWriter(w io.Writer, schema *datatype.Schema, cfg *WriterConfig) (*FileWriter, error) {
	core, err := newWriterCore(w, schema, cfg, "file")
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{core: core}
	core.leading = paddedMagic
	core.onBlock = func(kind flatbuf.MessageHeader, blk Block) {
		if kind == flatbuf.MessageHeaderDictionaryBatch {
			fw.dicts = append(fw.dicts, blk)
		} else {
			fw.records = append(fw.records, blk)
		}
	}
	return fw, nil
}

// Schema returns the writer's schema.
func (fw *FileWriter) Schema() *datatype.Schema { return fw.core.schema }

// Write appends rec and any dictionary batches it needs. A dictionary that
// changes other than by appending values cannot be written to a file.
func (fw *FileWriter) Write(rec *data.RecordBatch) error {
	return fw.core.write(context.Background(), rec)
}

// WriteContext is Write with a context for tracing.
func (fw *FileWriter) WriteContext(ctx context.Context, rec *data.RecordBatch) error {
	return fw.core.write(ctx, rec)
}

// Close writes the end-of-stream marker and the footer. Closing again
// returns the error that closed the writer, if any.
func (fw *FileWriter) Close() (err error) {
	if fw.core.closed {
		return fw.core.err
	}
	defer func() {
		if err != nil && fw.core.err == nil {
			fw.core.err = err
		}
		countError(err)
	}()
	if err := fw.core.finish(); err != nil {
		return err
	}

	footer, err := footerBytes(fw.core.schema, fw.dicts, fw.records)
	if err != nil {
		return err
	}
	mw := fw.core.mw
	if err := mw.write(footer); err != nil {
		return err
	}
	var trailer [4]byte
	le.PutUint32(trailer[:], uint32(len(footer)))
	if err := mw.write(trailer[:]); err != nil {
		return err
	}
	if err := mw.write(magic); err != nil {
		return err
	}
	fw.core.log.Debug("wrote file footer",
		zap.Int("dictionaries", len(fw.dicts)),
		zap.Int("records", len(fw.records)),
		zap.Int64("size", mw.Position()))
	return nil
}

func footerBytes(schema *datatype.Schema, dicts, records []Block) ([]byte, error) {
	b := builders.Get()
	defer builders.Put(b)
	s, err := schemaToFB(b, schema)
	if err != nil {
		return nil, err
	}
	dv := blockVector(b, dicts)
	rv := blockVector(b, records)
	flatbuf.FooterStart(b)
	flatbuf.FooterAddVersion(b, currentVersion)
	flatbuf.FooterAddSchema(b, s)
	flatbuf.FooterAddDictionaries(b, dv)
	flatbuf.FooterAddRecordBatches(b, rv)
	b.Finish(flatbuf.FooterEnd(b))
	return append([]byte(nil), b.FinishedBytes()...), nil
}

func blockVector(b *flatbuffers.Builder, blocks []Block) flatbuffers.UOffsetT {
	flatbuf.FooterStartBlocksVector(b, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		flatbuf.CreateBlock(b, blocks[i].Offset, blocks[i].MetaDataLength, blocks[i].BodyLength)
	}
	return b.EndVector(len(blocks))
}

// bytesReaderAt is a file image held in memory.
type bytesReaderAt []byte

func (b bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b bytesReaderAt) Bytes() []byte { return b }

// FileReader reads the IPC file format with random access to record batches.
// Every dictionary batch is applied when the file is opened.
type FileReader struct {
	r      io.ReaderAt
	raw    []byte
	size   int64
	closer io.Closer
	cfg    ReaderConfig
	log    *zap.Logger

	version flatbuf.MetadataVersion
	schema  *datatype.Schema
	dec     *decoder
	dicts   []Block
	records []Block

	cur    int
	rec    *data.RecordBatch
	err    error
	closed bool
}

// NewFileReader opens the file image of size bytes behind r. When r also has
// a Bytes() []byte method, buffers are views of those bytes and nothing is
// copied.
func NewFileReader(r io.ReaderAt, size int64, cfg *ReaderConfig) (*FileReader, error) {
	return newFileReader(r, size, cfg.withDefaults(), nil)
}

// OpenFile opens the file at path, mapping it into memory when UseMmap is
// set. Close closes the file.
func OpenFile(path string, cfg *ReaderConfig) (*FileReader, error) {
	c := cfg.withDefaults()
	if c.UseMmap {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, err
		}
		fr, err := newFileReader(m, int64(m.Len()), c, m)
		if err != nil {
			m.Close()
			return nil, err
		}
		return fr, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, colerrors.Wrapf(err, colerrors.ErrorTypeIO, "open %s", path)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, colerrors.Wrapf(err, colerrors.ErrorTypeIO, "stat %s", path)
	}
	fr, err := newFileReader(f, st.Size(), c, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return fr, nil
}

func newFileReader(r io.ReaderAt, size int64, cfg ReaderConfig, closer io.Closer) (_ *FileReader, err error) {
	defer func() { countError(err) }()
	fr := &FileReader{
		r:      r,
		size:   size,
		closer: closer,
		cfg:    cfg,
		log:    cfg.Logger.With(zap.String("format", "file")),
	}
	if b, ok := r.(interface{ Bytes() []byte }); ok {
		fr.raw = b.Bytes()
	}

	minSize := int64(len(paddedMagic) + 4 + len(magic))
	if size < minSize {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "file of %d bytes is shorter than the %d byte minimum", size, minSize)
	}
	head, err := fr.readAt(0, int64(len(magic)), "magic")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(head, magic) {
		return nil, colerrors.New(colerrors.ErrorTypeProtocol, "missing leading file magic")
	}
	trailer, err := fr.readAt(size-int64(4+len(magic)), int64(4+len(magic)), "trailer")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(trailer[4:], magic) {
		return nil, colerrors.New(colerrors.ErrorTypeProtocol, "missing trailing file magic")
	}
	footerLen := int64(int32(le.Uint32(trailer)))
	if footerLen <= 0 || footerLen > size-minSize {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "footer length %d in a file of %d bytes", footerLen, size)
	}
	footer, err := fr.readAt(size-int64(4+len(magic))-footerLen, footerLen, "footer")
	if err != nil {
		return nil, err
	}
	if err := fr.parseFooter(footer); err != nil {
		return nil, err
	}
	if cfg.EnsureNativeEndian && fr.schema.Endianness() != datatype.LittleEndian {
		return nil, colerrors.New(colerrors.ErrorTypeUnsupported, "file is big-endian")
	}

	fr.dec = newDecoder(fr.schema, cfg, true)
	for i, blk := range fr.dicts {
		if err := fr.applyDictionary(blk); err != nil {
			fr.dec.release()
			return nil, colerrors.Wrapf(err, colerrors.GetType(err), "dictionary block %d", i)
		}
	}
	fr.log.Debug("opened file",
		zap.Int64("size", size),
		zap.Int("dictionaries", len(fr.dicts)),
		zap.Int("records", len(fr.records)))
	return fr, nil
}

func (fr *FileReader) parseFooter(b []byte) (err error) {
	defer recoverProtocol(&err, "footer")
	footer := flatbuf.GetRootAsFooter(b, 0)
	fr.version = footer.Version()
	if fr.version < flatbuf.MetadataVersionV4 {
		return colerrors.Newf(colerrors.ErrorTypeUnsupported, "metadata version %s", fr.version)
	}
	fs := footer.Schema(nil)
	if fs == nil {
		return colerrors.New(colerrors.ErrorTypeProtocol, "footer has no schema")
	}
	if fr.schema, err = schemaFromFB(fs); err != nil {
		return err
	}
	var blk flatbuf.Block
	fr.dicts = make([]Block, footer.DictionariesLength())
	for i := range fr.dicts {
		footer.Dictionaries(&blk, i)
		fr.dicts[i] = Block{Offset: blk.Offset(), MetaDataLength: blk.MetaDataLength(), BodyLength: blk.BodyLength()}
	}
	fr.records = make([]Block, footer.RecordBatchesLength())
	for i := range fr.records {
		footer.RecordBatches(&blk, i)
		fr.records[i] = Block{Offset: blk.Offset(), MetaDataLength: blk.MetaDataLength(), BodyLength: blk.BodyLength()}
	}
	return nil
}

// readAt returns n bytes at off, as a view when the image is in memory.
func (fr *FileReader) readAt(off, n int64, what string) ([]byte, error) {
	if off < 0 || n < 0 || off > fr.size || n > fr.size-off {
		avail := fr.size - off
		if avail < 0 || off < 0 {
			avail = 0
		}
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "expected %d %s bytes, got %d", n, what, min(avail, n))
	}
	if fr.raw != nil {
		return fr.raw[off : off+n : off+n], nil
	}
	buf := make([]byte, n)
	k, err := fr.r.ReadAt(buf, off)
	if int64(k) < n {
		if err == nil || err == io.EOF {
			return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "expected %d %s bytes, got %d", n, what, k)
		}
		return nil, colerrors.Wrapf(err, colerrors.ErrorTypeIO, "read %s at %d", what, off)
	}
	return buf, nil
}

// readBlock reads the framed message at blk.
func (fr *FileReader) readBlock(blk Block) (*Message, error) {
	if blk.MetaDataLength < 8 {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "block at %d has metadata length %d", blk.Offset, blk.MetaDataLength)
	}
	frame, err := fr.readAt(blk.Offset, int64(blk.MetaDataLength), "metadata")
	if err != nil {
		return nil, err
	}
	var length int32
	var meta []byte
	if le.Uint32(frame) == continuationMarker {
		length, meta = int32(le.Uint32(frame[4:])), frame[8:]
	} else {
		length, meta = int32(le.Uint32(frame)), frame[4:]
	}
	if length <= 0 || int(length) > len(meta) {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol,
			"block at %d: expected %d metadata bytes, got %d", blk.Offset, length, len(meta))
	}
	msg, err := newMessage(meta[:length], nil)
	if err != nil {
		return nil, err
	}
	if msg.BodyLength() != blk.BodyLength {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol,
			"block at %d declares a %d byte body, message declares %d", blk.Offset, blk.BodyLength, msg.BodyLength())
	}
	body, err := fr.readAt(blk.Offset+int64(blk.MetaDataLength), blk.BodyLength, "body")
	if err != nil {
		return nil, err
	}
	msg.Body = memory.NewBufferBytes(body)

	kind := messageKind(msg.Header)
	metrics.MessagesTotal.WithLabelValues(metrics.DirectionRead, kind).Inc()
	metrics.BodyBytesTotal.WithLabelValues(metrics.DirectionRead).Add(float64(blk.BodyLength))
	return msg, nil
}

func (fr *FileReader) applyDictionary(blk Block) error {
	msg, err := fr.readBlock(blk)
	if err != nil {
		return err
	}
	defer msg.Release()
	if msg.Header != flatbuf.MessageHeaderDictionaryBatch {
		return colerrors.Newf(colerrors.ErrorTypeProtocol, "dictionary block holds a %s message", messageKind(msg.Header))
	}
	kind, err := fr.dec.dictionary(msg)
	if err != nil {
		return err
	}
	metrics.DictionaryDeltasTotal.WithLabelValues(metrics.DirectionRead, kind).Inc()
	return nil
}

// Schema returns the schema stored in the footer.
func (fr *FileReader) Schema() *datatype.Schema { return fr.schema }

// Version returns the footer's metadata version.
func (fr *FileReader) Version() flatbuf.MetadataVersion { return fr.version }

// NumRecords returns the number of record batches in the file.
func (fr *FileReader) NumRecords() int { return len(fr.records) }

// NumDictionaries returns the number of dictionary batches in the file.
func (fr *FileReader) NumDictionaries() int { return len(fr.dicts) }

// RecordBlock returns the location of record batch i.
func (fr *FileReader) RecordBlock(i int) (Block, error) {
	return blockAt(fr.records, i, "record batch")
}

// DictionaryBlock returns the location of dictionary batch i.
func (fr *FileReader) DictionaryBlock(i int) (Block, error) {
	return blockAt(fr.dicts, i, "dictionary batch")
}

func blockAt(blocks []Block, i int, what string) (Block, error) {
	if i < 0 || i >= len(blocks) {
		return Block{}, colerrors.Newf(colerrors.ErrorTypeInvalid, "%s %d out of range [0, %d)", what, i, len(blocks))
	}
	return blocks[i], nil
}

// ReadRecordBatch reads record batch i. Only that block is read. The caller
// owns the result and must Release it.
func (fr *FileReader) ReadRecordBatch(i int) (rec *data.RecordBatch, err error) {
	defer func() { countError(err) }()
	if fr.closed {
		return nil, colerrors.New(colerrors.ErrorTypeClosed, "file reader is closed")
	}
	blk, err := fr.RecordBlock(i)
	if err != nil {
		return nil, err
	}
	timer := metrics.NewTimer()
	msg, err := fr.readBlock(blk)
	if err != nil {
		return nil, err
	}
	defer msg.Release()
	if msg.Header != flatbuf.MessageHeaderRecordBatch {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "record block %d holds a %s message", i, messageKind(msg.Header))
	}
	rec, err = fr.dec.record(msg)
	if err != nil {
		return nil, err
	}
	metrics.ReadLatency.WithLabelValues("file").Observe(timer.Stop().Seconds())
	return rec, nil
}

// Next advances to the next record batch in file order.
func (fr *FileReader) Next() bool { return fr.NextContext(context.Background()) }

// NextContext is Next with a context for tracing.
func (fr *FileReader) NextContext(ctx context.Context) bool {
	if fr.rec != nil {
		fr.rec.Release()
		fr.rec = nil
	}
	if fr.closed || fr.err != nil || fr.cur >= len(fr.records) {
		return false
	}
	_, span := observability.StartSpan(ctx, "ipc.read",
		attribute.String("format", "file"),
		attribute.Int("index", fr.cur))
	rec, err := fr.ReadRecordBatch(fr.cur)
	span.End(err)
	if err != nil {
		fr.err = err
		return false
	}
	fr.cur++
	fr.rec = rec
	return true
}

// Record returns the current batch. It is owned by the reader.
func (fr *FileReader) Record() *data.RecordBatch { return fr.rec }

// Err returns the error that stopped iteration, if any.
func (fr *FileReader) Err() error { return fr.err }

// Close releases the dictionaries and closes the file when the reader opened
// it. Closing twice is a no-op.
func (fr *FileReader) Close() error {
	if fr.closed {
		return nil
	}
	fr.closed = true
	if fr.rec != nil {
		fr.rec.Release()
		fr.rec = nil
	}
	fr.dec.release()
	if fr.closer != nil {
		if err := fr.closer.Close(); err != nil {
			return colerrors.Wrap(err, colerrors.ErrorTypeIO, "close file")
		}
	}
	return nil
}
