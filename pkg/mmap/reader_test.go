package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
)

func writeTemp(t *testing.T, b []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestReadAt(t *testing.T) {
	r, err := Open(writeTemp(t, []byte("hello, mapped world")))
	require.NoError(t, err)

	assert.Equal(t, 19, r.Len())
	assert.Equal(t, []byte("hello"), r.Bytes()[:5])

	p := make([]byte, 6)
	n, err := r.ReadAt(p, 7)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "mapped", string(p))

	n, err = r.ReadAt(p, 16)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 3, n)

	_, err = r.ReadAt(p, 100)
	assert.Equal(t, io.EOF, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	_, err = r.ReadAt(p, 0)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeClosed))
}

func TestEmptyFile(t *testing.T) {
	r, err := Open(writeTemp(t, nil))
	require.NoError(t, err)
	assert.Zero(t, r.Len())
	assert.Nil(t, r.Bytes())
	require.NoError(t, r.Close())
}

func TestMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeIO))
}
