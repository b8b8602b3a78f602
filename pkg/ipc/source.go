package ipc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
)

// ByteSource is the read side of a transport. Read returns exactly n bytes,
// or what was available with io.ErrUnexpectedEOF, or nil with io.EOF when
// the source ended before the first byte. Peek does not consume.
type ByteSource interface {
	Read(ctx context.Context, n int) ([]byte, error)
	Peek(ctx context.Context, n int) ([]byte, error)
	Close() error
}

const asyncChunkSize = 64 * 1024

func closerOf(r any) func() error {
	if c, ok := r.(io.Closer); ok {
		return c.Close
	}
	return func() error { return nil }
}

// readerSource blocks the caller on every read.
type readerSource struct {
	br     *bufio.Reader
	closer func() error
	once   sync.Once
	err    error
}

// NewReaderSource adapts a blocking io.Reader. Close closes r when it is an
// io.Closer.
func NewReaderSource(r io.Reader) ByteSource {
	return &readerSource{br: bufio.NewReaderSize(r, asyncChunkSize), closer: closerOf(r)}
}

func (s *readerSource) Read(ctx context.Context, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "read cancelled")
	}
	if n <= asyncChunkSize {
		buf := make([]byte, n)
		k, err := io.ReadFull(s.br, buf)
		switch {
		case err == nil:
			return buf, nil
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return buf[:k], err
		}
		return buf[:k], colerrors.Wrap(err, colerrors.ErrorTypeIO, "source read failed")
	}

	// A declared length is untrusted; grow with the data actually read.
	var buf bytes.Buffer
	k, err := io.CopyN(&buf, s.br, int64(n))
	switch {
	case err == nil:
		return buf.Bytes(), nil
	case errors.Is(err, io.EOF):
		if k == 0 {
			return nil, io.EOF
		}
		return buf.Bytes(), io.ErrUnexpectedEOF
	}
	return buf.Bytes(), colerrors.Wrap(err, colerrors.ErrorTypeIO, "source read failed")
}

func (s *readerSource) Peek(ctx context.Context, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "peek cancelled")
	}
	b, err := s.br.Peek(n)
	out := append([]byte(nil), b...)
	if err != nil && !errors.Is(err, io.EOF) {
		return out, colerrors.Wrap(err, colerrors.ErrorTypeIO, "source peek failed")
	}
	return out, err
}

func (s *readerSource) Close() error {
	s.once.Do(func() { s.err = s.closer() })
	return s.err
}

type chunk struct {
	data []byte
	err  error
}

// asyncSource suspends the reading goroutine on a channel fed by a producer,
// so a cancelled context or Close wakes it immediately.
type asyncSource struct {
	ch      <-chan chunk
	buf     []byte
	err     error
	done    chan struct{}
	once    sync.Once
	closeFn func() error
	cerr    error
}

// NewAsyncSource reads r on a background goroutine. Read and Peek wait for
// data without blocking on r itself and honour ctx cancellation.
func NewAsyncSource(r io.Reader) ByteSource {
	ch := make(chan chunk, 4)
	s := &asyncSource{ch: ch, done: make(chan struct{}), closeFn: closerOf(r)}
	go func() {
		defer close(ch)
		for {
			b := make([]byte, asyncChunkSize)
			n, err := r.Read(b)
			if n > 0 {
				select {
				case ch <- chunk{data: b[:n]}:
				case <-s.done:
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					select {
					case ch <- chunk{err: colerrors.Wrap(err, colerrors.ErrorTypeIO, "source read failed")}:
					case <-s.done:
					}
				}
				return
			}
		}
	}()
	return s
}

// NewChunkSource reads the concatenation of the chunks received on in. The
// stream ends when in is closed.
func NewChunkSource(in <-chan []byte) ByteSource {
	ch := make(chan chunk)
	s := &asyncSource{ch: ch, done: make(chan struct{}), closeFn: func() error { return nil }}
	go func() {
		defer close(ch)
		for {
			select {
			case b, ok := <-in:
				if !ok {
					return
				}
				select {
				case ch <- chunk{data: b}:
				case <-s.done:
					return
				}
			case <-s.done:
				return
			}
		}
	}()
	return s
}

// fill waits until at least n bytes are buffered or the source ends.
func (s *asyncSource) fill(ctx context.Context, n int) error {
	for len(s.buf) < n {
		if s.err != nil {
			return s.err
		}
		select {
		case <-ctx.Done():
			return colerrors.Wrap(ctx.Err(), colerrors.ErrorTypeIO, "read cancelled")
		case <-s.done:
			return colerrors.New(colerrors.ErrorTypeClosed, "source is closed")
		case c, ok := <-s.ch:
			switch {
			case !ok:
				s.err = io.EOF
			case c.err != nil:
				s.err = c.err
			default:
				s.buf = append(s.buf, c.data...)
			}
		}
	}
	return nil
}

func (s *asyncSource) Read(ctx context.Context, n int) ([]byte, error) {
	err := s.fill(ctx, n)
	if len(s.buf) >= n {
		out := s.buf[:n:n]
		s.buf = s.buf[n:]
		return out, nil
	}
	if errors.Is(err, io.EOF) {
		if len(s.buf) == 0 {
			return nil, io.EOF
		}
		out := s.buf
		s.buf = nil
		return out, io.ErrUnexpectedEOF
	}
	return nil, err
}

func (s *asyncSource) Peek(ctx context.Context, n int) ([]byte, error) {
	err := s.fill(ctx, n)
	k := min(n, len(s.buf))
	out := append([]byte(nil), s.buf[:k]...)
	if k == n {
		return out, nil
	}
	return out, err
}

func (s *asyncSource) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.cerr = s.closeFn()
	})
	return s.cerr
}
