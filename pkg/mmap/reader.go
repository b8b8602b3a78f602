// Package mmap maps files read-only so IPC file readers can hand out buffers
// that point straight into the page cache.
package mmap

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/logger"
)

// Reader is a read-only memory-mapped file. Bytes returns the mapping
// itself; slices of it are invalid after Close.
type Reader struct {
	file *os.File
	data []byte

	mu     sync.RWMutex
	closed bool
}

// Open maps the whole file at path. An empty file yields an empty Reader.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, colerrors.Wrapf(err, colerrors.ErrorTypeIO, "open %s", path)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, colerrors.Wrapf(err, colerrors.ErrorTypeIO, "stat %s", path)
	}
	size := stat.Size()
	if size == 0 {
		return &Reader{file: file}, nil
	}
	if int64(int(size)) != size {
		file.Close()
		return nil, colerrors.Newf(colerrors.ErrorTypeUnsupported, "%s is too large to map (%d bytes)", path, size)
	}

	data, err := mmap(int(file.Fd()), int(size))
	if err != nil {
		file.Close()
		return nil, colerrors.Wrapf(err, colerrors.ErrorTypeIO, "mmap %s", path)
	}
	// file readers jump between footer, dictionaries and batches
	if err := advise(data, true); err != nil {
		logger.Get().Debug("madvise failed", zap.String("path", path), zap.Error(err))
	}
	return &Reader{file: file, data: data}, nil
}

// Len returns the file size.
func (r *Reader) Len() int { return len(r.data) }

// Bytes returns the mapped file.
func (r *Reader) Bytes() []byte { return r.data }

// ReadAt copies from the mapping into p.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, colerrors.New(colerrors.ErrorTypeClosed, "mmap reader is closed")
	}
	if off < 0 {
		return 0, colerrors.Newf(colerrors.ErrorTypeInvalid, "negative offset %d", off)
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the file and closes it. Closing twice is a no-op.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if r.data != nil {
		err = munmap(r.data)
		r.data = nil
	}
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "close mapped file")
	}
	return nil
}
