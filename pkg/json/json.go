// Package json reads and writes JSON lines with goccy/go-json.
//
// The CLI uses it to turn JSON rows into record batches and batches back
// into rows:
//
//	dec := json.NewDecoder(in)
//	for {
//	    var row map[string]any
//	    if err := dec.Decode(&row); err == io.EOF {
//	        break
//	    }
//	}
//
//	lw := json.NewLineWriter(out)
//	_ = lw.Write(rec.Row(i))
//	_ = lw.Flush()
package json

import (
	"bufio"
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/colwire/pkg/pool"
)

// maxPooledBuffer keeps very large rows from pinning memory in the pool.
const maxPooledBuffer = 1 << 20

var buffers = pool.New(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
	func(b *bytes.Buffer) { b.Reset() },
)

// Marshal is gojson.Marshal.
func Marshal(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is gojson.Unmarshal.
func Unmarshal(data []byte, v any) error {
	return gojson.Unmarshal(data, v)
}

// NewDecoder returns a decoder that keeps numbers as json.Number, so integer
// columns wider than 53 bits survive the trip.
func NewDecoder(r io.Reader) *gojson.Decoder {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// LineWriter writes one JSON document per line. It is not safe for
// concurrent use.
type LineWriter struct {
	w *bufio.Writer
}

// NewLineWriter buffers output to w until Flush.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriter(w)}
}

// Write encodes v followed by a newline. HTML characters are not escaped.
func (lw *LineWriter) Write(v any) error {
	buf := buffers.Get()
	defer func() {
		if buf.Cap() <= maxPooledBuffer {
			buffers.Put(buf)
		}
	}()

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := lw.w.Write(buf.Bytes())
	return err
}

// Flush writes buffered lines to the underlying writer.
func (lw *LineWriter) Flush() error {
	return lw.w.Flush()
}
