// Package compression provides the buffer codecs used for IPC body
// compression: LZ4 frame format and Zstandard.
//
// Each IPC buffer is compressed independently, and the uncompressed length
// is always known to the reader, so the API is block oriented:
//
//	c, _ := compression.NewCompressor(&compression.Config{Algorithm: compression.Zstd})
//	packed, _ := c.Compress(nil, raw)
//	raw2 := make([]byte, len(raw))
//	_, _ = c.Decompress(raw2, packed)
//
// Encoders and decoders are pooled per compressor, and every Compressor is
// safe for concurrent use.
package compression

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
)

// Algorithm names a codec.
type Algorithm string

const (
	// None disables compression.
	None Algorithm = "none"
	// LZ4 is the LZ4 frame format.
	LZ4 Algorithm = "lz4"
	// Zstd is Zstandard.
	Zstd Algorithm = "zstd"
)

// ParseAlgorithm maps a configuration string to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case "", None:
		return None, nil
	case LZ4, "lz4_frame":
		return LZ4, nil
	case Zstd:
		return Zstd, nil
	}
	return None, colerrors.Newf(colerrors.ErrorTypeConfig, "unknown compression %q", s)
}

// Level trades speed for ratio.
type Level int

const (
	Fastest Level = 1
	Default Level = 5
	Better  Level = 7
	Best    Level = 9
)

func (l Level) String() string {
	switch l {
	case Fastest:
		return "fastest"
	case Default:
		return "default"
	case Better:
		return "better"
	case Best:
		return "best"
	}
	return "unknown"
}

// Compressor compresses whole buffers.
type Compressor interface {
	// Compress appends the compressed form of src to dst.
	Compress(dst, src []byte) ([]byte, error)
	// Decompress fills dst, whose length is the expected uncompressed size,
	// and returns the number of bytes written.
	Decompress(dst, src []byte) (int, error)
	Algorithm() Algorithm
	Level() Level
}

// Config selects the codec.
type Config struct {
	Algorithm Algorithm
	Level     Level
}

// DefaultConfig returns LZ4 at the default level.
func DefaultConfig() *Config {
	return &Config{Algorithm: LZ4, Level: Default}
}

// NewCompressor builds the compressor for config, or the default when nil.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Level == 0 {
		config = &Config{Algorithm: config.Algorithm, Level: Default}
	}
	switch config.Algorithm {
	case LZ4:
		return newLZ4Compressor(config), nil
	case Zstd:
		return newZstdCompressor(config), nil
	case None:
		return nil, colerrors.New(colerrors.ErrorTypeInvalid, "no compressor for algorithm none")
	}
	return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported, "compression algorithm %q", config.Algorithm)
}

type baseCompressor struct {
	algorithm Algorithm
	level     Level
}

func (bc *baseCompressor) Algorithm() Algorithm { return bc.algorithm }
func (bc *baseCompressor) Level() Level         { return bc.level }

// LZ4 frame

type lz4Compressor struct {
	baseCompressor
	compressionLevel lz4.CompressionLevel
	writerPool       sync.Pool
	readerPool       sync.Pool
}

func newLZ4Compressor(config *Config) *lz4Compressor {
	lc := &lz4Compressor{
		baseCompressor:   baseCompressor{algorithm: LZ4, level: config.Level},
		compressionLevel: mapLZ4Level(config.Level),
	}
	lc.writerPool.New = func() interface{} { return lz4.NewWriter(nil) }
	lc.readerPool.New = func() interface{} { return lz4.NewReader(nil) }
	return lc
}

func (lc *lz4Compressor) Compress(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w := lc.writerPool.Get().(*lz4.Writer)
	defer lc.writerPool.Put(w)

	w.Reset(buf)
	if err := w.Apply(lz4.CompressionLevelOption(lc.compressionLevel)); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeInvalid, "lz4 options")
	}
	if _, err := w.Write(src); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "lz4 compress")
	}
	if err := w.Close(); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "lz4 compress")
	}
	return buf.Bytes(), nil
}

func (lc *lz4Compressor) Decompress(dst, src []byte) (int, error) {
	r := lc.readerPool.Get().(*lz4.Reader)
	defer lc.readerPool.Put(r)

	r.Reset(bytes.NewReader(src))
	n, err := io.ReadFull(r, dst)
	if err != nil {
		return n, colerrors.Wrapf(err, colerrors.ErrorTypeProtocol,
			"lz4 buffer decompressed to %d bytes, want %d", n, len(dst))
	}
	return n, nil
}

// Zstandard

type zstdCompressor struct {
	baseCompressor
	encoderPool sync.Pool
	decoderPool sync.Pool
}

func newZstdCompressor(config *Config) *zstdCompressor {
	level := mapZstdLevel(config.Level)
	zc := &zstdCompressor{baseCompressor: baseCompressor{algorithm: Zstd, level: config.Level}}
	zc.encoderPool.New = func() interface{} {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
		return enc
	}
	zc.decoderPool.New = func() interface{} {
		dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		return dec
	}
	return zc
}

func (zc *zstdCompressor) Compress(dst, src []byte) ([]byte, error) {
	enc := zc.encoderPool.Get().(*zstd.Encoder)
	defer zc.encoderPool.Put(enc)
	return enc.EncodeAll(src, dst), nil
}

func (zc *zstdCompressor) Decompress(dst, src []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	dec := zc.decoderPool.Get().(*zstd.Decoder)
	defer zc.decoderPool.Put(dec)

	out, err := dec.DecodeAll(src, dst[:0])
	if err != nil {
		return 0, colerrors.Wrap(err, colerrors.ErrorTypeProtocol, "zstd decompress")
	}
	if len(out) != len(dst) {
		return len(out), colerrors.Newf(colerrors.ErrorTypeProtocol,
			"zstd buffer decompressed to %d bytes, want %d", len(out), len(dst))
	}
	if &out[0] != &dst[0] {
		copy(dst, out)
	}
	return len(out), nil
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Better:
		return lz4.Level7
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
