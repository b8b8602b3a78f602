package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/datatype"
)

const testSchema = `
metadata:
  source: test
fields:
  - name: id
    type: int64
  - name: name
    type: utf8
    nullable: true
  - name: tag
    type: dictionary
    id: 1
    index: int8
    nullable: true
    value: {type: utf8}
`

const testRows = `{"id": 1, "name": "a", "tag": "x"}
{"id": 2, "tag": "y"}
{"id": 3, "name": "c", "tag": "x"}
`

const testRowsJSON = `{"id":1,"name":"a","tag":"x"}
{"id":2,"name":null,"tag":"y"}
{"id":3,"name":"c","tag":"x"}
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeInputs(t *testing.T) (dir, schema, rows string) {
	t.Helper()
	dir = t.TempDir()
	schema = filepath.Join(dir, "schema.yaml")
	rows = filepath.Join(dir, "rows.jsonl")
	require.NoError(t, os.WriteFile(schema, []byte(testSchema), 0o644))
	require.NoError(t, os.WriteFile(rows, []byte(testRows), 0o644))
	return dir, schema, rows
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "colwire v"+version)
}

func TestGenCatInspect(t *testing.T) {
	t.Setenv("COLWIRE_WRITER_BATCH_ROWS", "2")
	dir, schema, rows := writeInputs(t)
	arrow := filepath.Join(dir, "rows.arrow")

	_, err := run(t, "", "gen", "--schema", schema, "--in", rows, "--out", arrow, "--format", "file", "--compression", "zstd")
	require.NoError(t, err)

	for _, mmap := range []string{"--mmap=false", "--mmap=true"} {
		out, err := run(t, "", mmap, "cat", arrow)
		require.NoError(t, err)
		assert.Equal(t, testRowsJSON, out)
	}

	out, err := run(t, "", "inspect", arrow)
	require.NoError(t, err)
	assert.Contains(t, out, "format: file (metadata V5)")
	assert.Contains(t, out, "source = test")
	assert.Contains(t, out, "id=1 path=[2] values=utf8")
	assert.Contains(t, out, "record block 1:")
	assert.Contains(t, out, "total: 2 batches, 3 rows")

	out, err = run(t, "", "cat", "--limit", "1", arrow)
	require.NoError(t, err)
	assert.Equal(t, strings.SplitAfter(testRowsJSON, "\n")[0], out)
}

func TestGenFromStdinToStdout(t *testing.T) {
	_, schema, _ := writeInputs(t)
	stream, err := run(t, testRows, "gen", "--schema", schema)
	require.NoError(t, err)

	out, err := run(t, stream, "cat", "-")
	require.NoError(t, err)
	assert.Equal(t, testRowsJSON, out)

	out, err = run(t, stream, "inspect", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "format: stream")
	assert.Contains(t, out, "total: 1 batches, 3 rows")
}

func TestConvert(t *testing.T) {
	dir, schema, rows := writeInputs(t)
	stream := filepath.Join(dir, "rows.stream")
	file := filepath.Join(dir, "rows.arrow")
	back := filepath.Join(dir, "back.stream")

	_, err := run(t, "", "gen", "-s", schema, "-i", rows, "-o", stream)
	require.NoError(t, err)
	_, err = run(t, "", "--compression", "lz4", "convert", "--to", "file", stream, file)
	require.NoError(t, err)
	_, err = run(t, "", "--dictionary-deltas", "convert", "--to", "stream", file, back)
	require.NoError(t, err)

	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("ARROW1\x00\x00")))

	for _, p := range []string{file, back} {
		out, err := run(t, "", "cat", p)
		require.NoError(t, err)
		assert.Equal(t, testRowsJSON, out)
	}

	_, err = run(t, "", "convert", "--to", "parquet", stream, file)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeInvalid))
}

func TestGenRejectsBadRows(t *testing.T) {
	_, schema, _ := writeInputs(t)
	_, err := run(t, `{"id": "not a number"}`, "gen", "--schema", schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")

	_, err = run(t, "{\"id\": 1}\n{\"id\": }\n", "gen", "--schema", schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode row 2")
}

func TestBadConfigIsRejected(t *testing.T) {
	_, err := run(t, "", "--compression", "snappy", "version")
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConfig))
}

func TestParseSchema(t *testing.T) {
	schema, err := parseSchema([]byte(`
fields:
  - name: ts
    type: timestamp
    unit: ms
    timezone: UTC
  - name: price
    type: decimal
    precision: 10
    scale: 2
  - name: point
    type: fixed_size_list
    size: 2
    item: {type: float64}
  - name: attrs
    type: map
    key: {type: utf8}
    value: {type: int32, nullable: true}
  - name: nested
    type: struct
    nullable: true
    fields:
      - {name: a, type: bool}
      - {name: b, type: list, item: {type: binary, nullable: true}}
`))
	require.NoError(t, err)
	require.Equal(t, 5, schema.NumFields())
	assert.True(t, datatype.Equal(datatype.Timestamp(datatype.Millisecond, "UTC"), schema.Field(0).Type))
	assert.True(t, datatype.Equal(datatype.Decimal128(10, 2), schema.Field(1).Type))
	assert.Equal(t, 2, schema.Field(2).Type.ListSize)
	assert.Equal(t, datatype.MAP, schema.Field(3).Type.ID)
	nested := schema.Field(4)
	assert.True(t, nested.Nullable)
	assert.Equal(t, "b", nested.Type.Children[1].Name)
	assert.Equal(t, datatype.BINARY, nested.Type.Children[1].Type.Elem().Type.ID)

	tests := []struct {
		name string
		yaml string
		want colerrors.ErrorType
	}{
		{"no fields", "fields: []", colerrors.ErrorTypeInvalid},
		{"bad unit", "fields: [{name: t, type: time32, unit: days}]", colerrors.ErrorTypeInvalid},
		{"list without item", "fields: [{name: l, type: list}]", colerrors.ErrorTypeInvalid},
		{"float index", "fields: [{name: d, type: dictionary, index: float32, value: {type: utf8}}]", colerrors.ErrorTypeInvalid},
		{"unknown type", "fields: [{name: u, type: sparse_union}]", colerrors.ErrorTypeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSchema([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, colerrors.IsType(err, tt.want), "got %v", err)
		})
	}
}
