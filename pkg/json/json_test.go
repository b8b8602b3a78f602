package json

import (
	"bytes"
	"io"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderKeepsNumbers(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`{"big": 9007199254740993, "f": 1.5}` + "\n" + `{"big": null}`))

	var row map[string]any
	require.NoError(t, dec.Decode(&row))
	n, ok := row["big"].(gojson.Number)
	require.True(t, ok, "got %T", row["big"])
	i, err := n.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), i)
	assert.Equal(t, gojson.Number("1.5"), row["f"])

	row = nil
	require.NoError(t, dec.Decode(&row))
	assert.Nil(t, row["big"])
	assert.Equal(t, io.EOF, dec.Decode(&row))
}

func TestLineWriter(t *testing.T) {
	var out bytes.Buffer
	lw := NewLineWriter(&out)
	require.NoError(t, lw.Write(map[string]any{"b": "<x>", "a": 1}))
	require.NoError(t, lw.Write(nil))
	require.NoError(t, lw.Write([]byte("hi")))
	assert.Zero(t, out.Len(), "nothing is written before Flush")
	require.NoError(t, lw.Flush())
	assert.Equal(t, "{\"a\":1,\"b\":\"<x>\"}\nnull\n\"aGk=\"\n", out.String())
}

func TestLineWriterReportsEncodeErrors(t *testing.T) {
	lw := NewLineWriter(io.Discard)
	assert.Error(t, lw.Write(make(chan int)))
}

func TestMarshalRoundTrip(t *testing.T) {
	in := map[string]any{"id": "test-123", "tags": []any{"a", "b"}}
	b, err := Marshal(in)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, Unmarshal(b, &out))
	assert.Equal(t, in, out)
}
