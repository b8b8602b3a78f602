package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
)

func TestRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("columnar buffers compress well "), 200)
	for _, alg := range []Algorithm{LZ4, Zstd} {
		for _, level := range []Level{Fastest, Default, Better, Best} {
			t.Run(string(alg)+"/"+level.String(), func(t *testing.T) {
				c, err := NewCompressor(&Config{Algorithm: alg, Level: level})
				require.NoError(t, err)
				assert.Equal(t, alg, c.Algorithm())

				packed, err := c.Compress(nil, original)
				require.NoError(t, err)
				assert.Less(t, len(packed), len(original))

				out := make([]byte, len(original))
				n, err := c.Decompress(out, packed)
				require.NoError(t, err)
				assert.Equal(t, len(original), n)
				assert.Equal(t, original, out)
			})
		}
	}
}

func TestCompressAppends(t *testing.T) {
	c, err := NewCompressor(&Config{Algorithm: Zstd})
	require.NoError(t, err)
	prefix := []byte{1, 2, 3}
	packed, err := c.Compress(append([]byte(nil), prefix...), []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, prefix, packed[:3])

	out := make([]byte, 7)
	_, err = c.Decompress(out, packed[3:])
	require.NoError(t, err)
	assert.Equal(t, "payload", string(out))
}

func TestDecompressWrongLength(t *testing.T) {
	for _, alg := range []Algorithm{LZ4, Zstd} {
		c, err := NewCompressor(&Config{Algorithm: alg})
		require.NoError(t, err)
		packed, err := c.Compress(nil, []byte("short"))
		require.NoError(t, err)

		_, err = c.Decompress(make([]byte, 10), packed)
		require.Error(t, err, alg)
		assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeProtocol), alg)
	}
}

func TestParseAlgorithm(t *testing.T) {
	for in, want := range map[string]Algorithm{"": None, "none": None, "lz4": LZ4, "lz4_frame": LZ4, "zstd": Zstd} {
		got, err := ParseAlgorithm(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAlgorithm("brotli")
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConfig))

	_, err = NewCompressor(&Config{Algorithm: None})
	assert.Error(t, err)
}

func TestConcurrentUse(t *testing.T) {
	c, err := NewCompressor(&Config{Algorithm: LZ4})
	require.NoError(t, err)
	data := bytes.Repeat([]byte{7, 7, 7, 1}, 1024)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			packed, err := c.Compress(nil, data)
			if err != nil {
				done <- err
				return
			}
			out := make([]byte, len(data))
			_, err = c.Decompress(out, packed)
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-done)
	}
}

func BenchmarkCompress(b *testing.B) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 64*1024)
	for _, alg := range []Algorithm{LZ4, Zstd} {
		c, _ := NewCompressor(&Config{Algorithm: alg})
		b.Run(string(alg), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			var dst []byte
			for i := 0; i < b.N; i++ {
				dst, _ = c.Compress(dst[:0], data)
			}
		})
	}
}
