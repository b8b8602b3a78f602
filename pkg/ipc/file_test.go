package ipc

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/compression"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
)

// countingReaderAt records every range read through it and has no Bytes
// method, so the file reader must copy.
type countingReaderAt struct {
	r      *bytes.Reader
	mu     sync.Mutex
	ranges [][2]int64
}

func (c *countingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	c.mu.Lock()
	c.ranges = append(c.ranges, [2]int64{off, off + int64(len(p))})
	c.mu.Unlock()
	return c.r.ReadAt(p, off)
}

func (c *countingReaderAt) reset() {
	c.mu.Lock()
	c.ranges = nil
	c.mu.Unlock()
}

// fileBatches returns three batches with an int64 column and a dictionary
// column whose dictionary grows by one value per batch.
func fileBatches(t *testing.T) []*data.RecordBatch {
	t.Helper()
	tags := tagBatches(t, nil, []any{"a", nil}, []any{"b", "a"}, []any{"c"})
	fields := []datatype.Field{
		{Name: "n", Type: datatype.Int64()},
		{Name: "tag", Type: tagType, Nullable: true},
	}
	var out []*data.RecordBatch
	next := int64(0)
	for _, tag := range tags {
		col := tag.Column(0)
		vals := make([]any, col.Len())
		for i := range vals {
			vals[i] = next
			next++
		}
		col.Retain()
		out = append(out, record(t, fields, column(t, datatype.Int64(), vals...), col))
	}
	return out
}

func TestFileLayout(t *testing.T) {
	file := writeFile(t, nil, fileBatches(t)...)
	assert.True(t, bytes.HasPrefix(file, paddedMagic))
	assert.True(t, bytes.HasSuffix(file, magic))

	footerLen := int(le.Uint32(file[len(file)-10:]))
	assert.Greater(t, footerLen, 0)
	// the stream between the magic and the footer ends with end-of-stream
	stream := file[len(paddedMagic) : len(file)-10-footerLen]
	assert.True(t, bytes.HasSuffix(stream, eosMarker))

	fr, err := NewFileReader(bytes.NewReader(file), int64(len(file)), nil)
	require.NoError(t, err)
	defer fr.Close()
	assert.Equal(t, 3, fr.NumRecords())
	assert.Equal(t, 3, fr.NumDictionaries())
	assert.Equal(t, currentVersion, fr.Version())
	for i := 0; i < fr.NumRecords(); i++ {
		blk, err := fr.RecordBlock(i)
		require.NoError(t, err)
		assert.Zero(t, blk.Offset%alignment)
		assert.Zero(t, blk.MetaDataLength%alignment)
		assert.Zero(t, blk.BodyLength%alignment)
	}
}

func TestFileRandomAccess(t *testing.T) {
	recs := fileBatches(t)
	file := writeFile(t, nil, recs...)

	src := &countingReaderAt{r: bytes.NewReader(file)}
	fr, err := NewFileReader(src, int64(len(file)), nil)
	require.NoError(t, err)
	defer fr.Close()

	src.reset()
	got, err := fr.ReadRecordBatch(2)
	require.NoError(t, err)
	defer got.Release()
	requireSameBatch(t, recs[2], got)
	assert.Equal(t, "c", got.Column(1).Value(0))
	assert.Equal(t, 2, got.Column(1).DictionaryIndex(0))

	blk, err := fr.RecordBlock(2)
	require.NoError(t, err)
	end := blk.Offset + int64(blk.MetaDataLength) + blk.BodyLength
	require.NotEmpty(t, src.ranges)
	for _, r := range src.ranges {
		assert.GreaterOrEqual(t, r[0], blk.Offset)
		assert.LessOrEqual(t, r[1], end)
	}

	// dictionaries were applied at open: the first batch sees all of them
	first, err := fr.ReadRecordBatch(0)
	require.NoError(t, err)
	defer first.Release()
	assert.Equal(t, []any{"a", nil}, first.Column(1).Values())
	assert.Equal(t, 3, first.Column(1).Dictionary().Len())

	_, err = fr.ReadRecordBatch(3)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeInvalid))
	_, err = fr.RecordBlock(-1)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeInvalid))
	_, err = fr.DictionaryBlock(fr.NumDictionaries())
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeInvalid))
}

func TestFileIteration(t *testing.T) {
	recs := fileBatches(t)
	file := writeFile(t, &WriterConfig{Compression: compression.LZ4}, recs...)

	fr, err := NewFileReader(bytes.NewReader(file), int64(len(file)), nil)
	require.NoError(t, err)
	got := readAll(t, fr)
	require.Len(t, got, 3)
	for i := range recs {
		requireSameBatch(t, recs[i], got[i])
	}
	assert.NoError(t, fr.Close())

	_, err = fr.ReadRecordBatch(0)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeClosed))
}

func TestOpenFile(t *testing.T) {
	recs := fileBatches(t)
	path := filepath.Join(t.TempDir(), "batches.arrow")
	require.NoError(t, os.WriteFile(path, writeFile(t, nil, recs...), 0o644))

	for _, useMmap := range []bool{false, true} {
		fr, err := OpenFile(path, &ReaderConfig{UseMmap: useMmap})
		require.NoError(t, err, "mmap=%t", useMmap)
		// mapped buffers are only valid until Close
		n := 0
		for fr.Next() {
			requireSameBatch(t, recs[n], fr.Record())
			n++
		}
		require.NoError(t, fr.Err())
		assert.Equal(t, 3, n)
		require.NoError(t, fr.Close())
	}
}

func TestEmptyFile(t *testing.T) {
	schema := fileBatches(t)[0].Schema()
	var buf bytes.Buffer
	w, err := NewFileWriter(&buf, schema, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	fr, err := NewFileReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()), nil)
	require.NoError(t, err)
	assert.True(t, schema.Equal(fr.Schema()))
	assert.Zero(t, fr.NumRecords())
	assert.False(t, fr.Next())
	assert.NoError(t, fr.Err())
	assert.NoError(t, fr.Close())
	assert.NoError(t, fr.Close())
}

func TestCorruptFiles(t *testing.T) {
	file := writeFile(t, nil, simpleBatch(t))

	badFooterLen := append([]byte(nil), file...)
	le.PutUint32(badFooterLen[len(file)-10:], uint32(len(file)))

	tests := []struct {
		name string
		data []byte
	}{
		{"too short", file[:10]},
		{"no leading magic", append([]byte("ARROW2"), file[6:]...)},
		{"no trailing magic", file[:len(file)-1]},
		{"footer longer than file", badFooterLen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileReader(bytes.NewReader(tt.data), int64(len(tt.data)), nil)
			require.Error(t, err)
			assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeProtocol), "got %v", err)
		})
	}
}

func TestFileBlockBodyOutsideFile(t *testing.T) {
	file := writeFile(t, nil, simpleBatch(t))
	fr, err := NewFileReader(bytesReaderAt(file), int64(len(file)), nil)
	require.NoError(t, err)
	defer fr.Close()

	// point the only record block past the end of the file
	fr.records[0].Offset = int64(len(file)) - 16
	_, err = fr.ReadRecordBatch(0)
	require.Error(t, err)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeProtocol))
}
