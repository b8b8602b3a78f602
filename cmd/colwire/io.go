package main

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/ipc"
)

const (
	formatStream = "stream"
	formatFile   = "file"
)

// recordWriter is satisfied by ipc.Writer and ipc.FileWriter.
type recordWriter interface {
	WriteContext(ctx context.Context, rec *data.RecordBatch) error
	Close() error
}

func checkFormat(format string) error {
	if format != formatStream && format != formatFile {
		return colerrors.Newf(colerrors.ErrorTypeInvalid, "unknown format %q, want stream or file", format)
	}
	return nil
}

// openInput opens path, or stdin for "-", in whichever IPC format it holds.
// Files on disk go through ipc.OpenFile so they can be memory-mapped.
func openInput(ctx context.Context, path string, in io.Reader, cfg *ipc.ReaderConfig) (ipc.RecordReader, error) {
	if path == "-" {
		return ipc.Open(ctx, ipc.NewReaderSource(in), cfg)
	}
	isFile, err := hasFileMagic(path)
	if err != nil {
		return nil, err
	}
	if isFile {
		return ipc.OpenFile(path, cfg)
	}
	f, err := os.Open(path) //nolint:gosec // G304: path is a CLI argument
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "open input").WithDetail("path", path)
	}
	return ipc.NewStreamReader(ipc.NewReaderSource(f), cfg), nil
}

func hasFileMagic(path string) (bool, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is a CLI argument
	if err != nil {
		return false, colerrors.Wrap(err, colerrors.ErrorTypeIO, "open input").WithDetail("path", path)
	}
	defer f.Close()
	head := make([]byte, 6)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, colerrors.Wrap(err, colerrors.ErrorTypeIO, "read input").WithDetail("path", path)
	}
	return bytes.Equal(head[:n], []byte("ARROW1")), nil
}

// output is where a command writes IPC data. The file is closed after the
// writer so the footer lands before the descriptor goes away.
type output struct {
	w    recordWriter
	file *os.File
}

func createOutput(path, format string, stdout io.Writer, schema *datatype.Schema, cfg *ipc.WriterConfig) (*output, error) {
	if err := checkFormat(format); err != nil {
		return nil, err
	}
	out := &output{}
	sink := stdout
	if path != "-" {
		f, err := os.Create(path) //nolint:gosec // G304: path is a CLI argument
		if err != nil {
			return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "create output").WithDetail("path", path)
		}
		out.file = f
		sink = f
	}

	var err error
	if format == formatFile {
		out.w, err = ipc.NewFileWriter(sink, schema, cfg)
	} else {
		out.w, err = ipc.NewWriter(sink, schema, cfg)
	}
	if err != nil {
		if out.file != nil {
			out.file.Close()
		}
		return nil, err
	}
	return out, nil
}

func (o *output) Close() error {
	err := o.w.Close()
	if o.file != nil {
		if cerr := o.file.Close(); cerr != nil && err == nil {
			err = colerrors.Wrap(cerr, colerrors.ErrorTypeIO, "close output")
		}
	}
	return err
}
