package ipc

import (
	"context"
	"errors"
	"io"
	"math"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colwire/internal/flatbuf"
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/memory"
	"github.com/ajitpratap0/colwire/pkg/metrics"
)

// Message is one unframed IPC message. The caller owns Body and must Release
// the message when done.
type Message struct {
	Header  flatbuf.MessageHeader
	Version flatbuf.MetadataVersion
	Meta    *flatbuf.Message
	Body    *memory.Buffer
}

// BodyLength is the declared body length, padding included.
func (m *Message) BodyLength() int64 { return m.Meta.BodyLength() }

// Release drops the message's reference on its body.
func (m *Message) Release() {
	if m != nil {
		m.Body.Release()
		m.Body = nil
	}
}

func newMessage(meta []byte, body *memory.Buffer) (*Message, error) {
	fb, err := parseMessage(meta)
	if err != nil {
		return nil, err
	}
	return &Message{Header: fb.HeaderType(), Version: fb.Version(), Meta: fb, Body: body}, nil
}

// MessageReader unframes messages from a ByteSource.
type MessageReader struct {
	src    ByteSource
	log    *zap.Logger
	legacy bool
}

// NewMessageReader reads framed messages from src.
func NewMessageReader(src ByteSource, log *zap.Logger) *MessageReader {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageReader{src: src, log: log}
}

// ReadMessage returns the next message, or io.EOF at end of stream. A zero
// length with or without the continuation marker and a clean end of input at
// a message boundary all end the stream.
func (r *MessageReader) ReadMessage(ctx context.Context) (*Message, error) {
	length, err := r.readLength(ctx)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		metrics.MessagesTotal.WithLabelValues(metrics.DirectionRead, "eos").Inc()
		return nil, io.EOF
	}

	meta, err := r.src.Read(ctx, int(length))
	if err != nil {
		if isShortRead(err) {
			return nil, colerrors.Newf(colerrors.ErrorTypeProtocol,
				"expected %d metadata bytes, got %d", length, len(meta))
		}
		return nil, wrapIO(err, "read message metadata")
	}
	msg, err := newMessage(meta, nil)
	if err != nil {
		return nil, err
	}

	bodyLen := msg.BodyLength()
	if bodyLen < 0 || bodyLen > math.MaxInt {
		return nil, colerrors.Newf(colerrors.ErrorTypeProtocol, "invalid body length %d", bodyLen).
			WithDetail("message", messageKind(msg.Header))
	}
	if bodyLen > 0 {
		body, err := r.src.Read(ctx, int(bodyLen))
		if err != nil {
			if isShortRead(err) {
				return nil, colerrors.Newf(colerrors.ErrorTypeProtocol,
					"expected %d body bytes, got %d", bodyLen, len(body)).
					WithDetail("message", messageKind(msg.Header))
			}
			return nil, wrapIO(err, "read message body")
		}
		msg.Body = memory.NewBufferBytes(body)
	} else {
		msg.Body = memory.NewBufferBytes(nil)
	}

	metrics.MessagesTotal.WithLabelValues(metrics.DirectionRead, messageKind(msg.Header)).Inc()
	metrics.BodyBytesTotal.WithLabelValues(metrics.DirectionRead).Add(float64(bodyLen))
	r.log.Debug("read message",
		zap.String("kind", messageKind(msg.Header)),
		zap.Int32("metadata_length", length),
		zap.Int64("body_length", bodyLen))
	return msg, nil
}

// readLength reads the message prefix and returns the metadata length.
func (r *MessageReader) readLength(ctx context.Context) (int32, error) {
	b, err := r.src.Read(ctx, 4)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		if isShortRead(err) {
			return 0, colerrors.Newf(colerrors.ErrorTypeProtocol,
				"expected 4 message prefix bytes, got %d", len(b))
		}
		return 0, wrapIO(err, "read message prefix")
	}
	v := le.Uint32(b)
	if v == continuationMarker {
		b, err = r.src.Read(ctx, 4)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// a bare marker at the end of input
				return 0, io.EOF
			}
			if isShortRead(err) {
				return 0, colerrors.Newf(colerrors.ErrorTypeProtocol,
					"expected 4 metadata length bytes, got %d", len(b))
			}
			return 0, wrapIO(err, "read metadata length")
		}
		v = le.Uint32(b)
	} else if v != 0 && !r.legacy {
		r.legacy = true
		r.log.Warn("reading legacy message framing without continuation marker")
	}
	length := int32(v)
	if length < 0 {
		return 0, colerrors.Newf(colerrors.ErrorTypeProtocol, "negative metadata length %d", length)
	}
	return length, nil
}

func isShortRead(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

func wrapIO(err error, msg string) error {
	var ce *colerrors.Error
	if errors.As(err, &ce) {
		return err
	}
	return colerrors.Wrap(err, colerrors.ErrorTypeIO, msg)
}

// Payload is one message ready for framing.
type Payload struct {
	Kind       flatbuf.MessageHeader
	Metadata   []byte
	Bodies     [][]byte
	BodyLength int64
}

// Block locates a framed message; MetaDataLength includes the 8-byte prefix
// and padding.
type Block struct {
	Offset         int64
	MetaDataLength int32
	BodyLength     int64
}

// MessageWriter frames messages onto an io.Writer, always with the
// continuation marker.
type MessageWriter struct {
	w   io.Writer
	pos int64
	log *zap.Logger
}

// NewMessageWriter frames messages onto w, counting positions from zero.
func NewMessageWriter(w io.Writer, log *zap.Logger) *MessageWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageWriter{w: w, log: log}
}

// Position returns the number of bytes written so far.
func (mw *MessageWriter) Position() int64 { return mw.pos }

func (mw *MessageWriter) write(b []byte) error {
	n, err := mw.w.Write(b)
	mw.pos += int64(n)
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to write message")
	}
	return nil
}

var zeros [alignment]byte

func (mw *MessageWriter) pad(n int64) error {
	if p := paddedLength(n) - n; p > 0 {
		return mw.write(zeros[:p])
	}
	return nil
}

// WritePayload writes marker, padded metadata length, metadata, padding and
// the 8-byte aligned body.
func (mw *MessageWriter) WritePayload(p *Payload) (Block, error) {
	blk := Block{Offset: mw.pos}

	metaLen := paddedLength(int64(8+len(p.Metadata))) - 8
	var prefix [8]byte
	le.PutUint32(prefix[:], continuationMarker)
	le.PutUint32(prefix[4:], uint32(metaLen))
	if err := mw.write(prefix[:]); err != nil {
		return blk, err
	}
	if err := mw.write(p.Metadata); err != nil {
		return blk, err
	}
	if err := mw.pad(int64(8 + len(p.Metadata))); err != nil {
		return blk, err
	}
	blk.MetaDataLength = int32(8 + metaLen)

	var written int64
	for _, b := range p.Bodies {
		if len(b) == 0 {
			continue
		}
		if err := mw.write(b); err != nil {
			return blk, err
		}
		if err := mw.pad(int64(len(b))); err != nil {
			return blk, err
		}
		written += paddedLength(int64(len(b)))
	}
	if written != p.BodyLength {
		return blk, colerrors.Newf(colerrors.ErrorTypeInvalid,
			"wrote %d body bytes, metadata declares %d", written, p.BodyLength)
	}
	blk.BodyLength = written

	kind := messageKind(p.Kind)
	metrics.MessagesTotal.WithLabelValues(metrics.DirectionWrite, kind).Inc()
	metrics.BodyBytesTotal.WithLabelValues(metrics.DirectionWrite).Add(float64(written))
	mw.log.Debug("wrote message",
		zap.String("kind", kind),
		zap.Int32("metadata_length", blk.MetaDataLength),
		zap.Int64("body_length", written))
	return blk, nil
}

// WriteEOS writes the end-of-stream marker: continuation marker, zero length.
func (mw *MessageWriter) WriteEOS() error {
	if err := mw.write(eosMarker); err != nil {
		return err
	}
	metrics.MessagesTotal.WithLabelValues(metrics.DirectionWrite, "eos").Inc()
	return nil
}
