package data_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colwire/pkg/builder"
	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
	"github.com/ajitpratap0/colwire/pkg/memory"
)

func column(t *testing.T, dt *datatype.DataType, opts builder.Options, values ...any) *data.Data {
	t.Helper()
	b, err := builder.New(dt, opts)
	require.NoError(t, err)
	require.NoError(t, b.AppendValues(values))
	d, err := b.Flush()
	require.NoError(t, err)
	return d
}

func TestNullCountIsLazy(t *testing.T) {
	validity := []byte{0b00000101}
	values := make([]byte, 12)
	d := data.New(datatype.Int32(), 3,
		[]*memory.Buffer{memory.NewBufferBytes(validity), memory.NewBufferBytes(values)},
		nil, data.UnknownNullCount, 0)

	assert.Equal(t, data.UnknownNullCount, d.RawNullCount())
	assert.Equal(t, 1, d.NullN())
	assert.Equal(t, 1, d.RawNullCount())
	assert.True(t, d.IsNull(1))
	assert.True(t, d.IsValid(2))
}

func TestNullTypeNode(t *testing.T) {
	d := data.New(datatype.Null(), 4, nil, nil, 0, 0)
	assert.Equal(t, 4, d.NullN())
	assert.True(t, d.IsNull(0))
	assert.Nil(t, d.Value(3))
}

func TestSliceKeepsValues(t *testing.T) {
	cases := []struct {
		name   string
		dt     *datatype.DataType
		opts   builder.Options
		values []any
	}{
		{"int64", datatype.Int64(), builder.Options{}, []any{int64(1), nil, int64(3), int64(4), nil}},
		{"bool", datatype.Bool(), builder.Options{}, []any{true, nil, false, true, true, false, nil, true, false, true}},
		{"utf8", datatype.Utf8(), builder.Options{}, []any{"a", "", nil, "dddd", "e"}},
		{"list", datatype.ListOf(datatype.Field{Name: "item", Type: datatype.Int16(), Nullable: true}), builder.Options{},
			[]any{[]any{int16(1)}, nil, []any{}, []any{int16(2), nil, int16(3)}, []any{int16(4)}}},
		{"fixed_size_list", datatype.FixedSizeListOf(datatype.Field{Name: "item", Type: datatype.Utf8()}, 2), builder.Options{},
			[]any{[]any{"a", "b"}, nil, []any{"c", "d"}, []any{"e", "f"}}},
		{"struct", datatype.StructOf(
			datatype.Field{Name: "a", Type: datatype.Int8(), Nullable: true},
			datatype.Field{Name: "b", Type: datatype.Binary(), Nullable: true}), builder.Options{},
			[]any{map[string]any{"a": int8(1), "b": []byte("x")}, nil, map[string]any{"a": nil, "b": []byte("z")}}},
		{"dictionary", datatype.DictionaryOf(3, datatype.Int32(), datatype.Utf8(), false), builder.Options{},
			[]any{"p", "q", nil, "p", "r"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := column(t, tc.dt, tc.opts, tc.values...)
			require.Equal(t, tc.values, d.Values())

			for begin := 0; begin <= len(tc.values); begin++ {
				for n := 0; begin+n <= len(tc.values); n++ {
					s, err := d.Slice(begin, n)
					require.NoError(t, err)
					assert.Equal(t, tc.values[begin:begin+n], s.Values(), "slice [%d:%d]", begin, begin+n)

					nulls := 0
					for _, v := range tc.values[begin : begin+n] {
						if v == nil {
							nulls++
						}
					}
					assert.Equal(t, nulls, s.NullN(), "slice [%d:%d]", begin, begin+n)
				}
			}
		})
	}
}

func TestSliceOfSlice(t *testing.T) {
	d := column(t, datatype.Utf8(), builder.Options{}, "a", "b", "c", "d", "e")
	s := d.MustSlice(1, 4).MustSlice(2, 2)
	assert.Equal(t, 3, s.Offset())
	assert.Equal(t, []any{"d", "e"}, s.Values())
}

func TestSliceOutOfRange(t *testing.T) {
	d := column(t, datatype.Int8(), builder.Options{}, 1, 2)
	_, err := d.Slice(1, 2)
	require.Error(t, err)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeInvalid))
	assert.Panics(t, func() { d.MustSlice(-1, 1) })
}

func TestSliceRetainsBuffers(t *testing.T) {
	d := column(t, datatype.Int32(), builder.Options{}, 1, nil, 3)
	before := d.Buffers()[1].Allocation().Refs()
	s := d.MustSlice(1, 2)
	assert.Equal(t, before+1, d.Buffers()[1].Allocation().Refs())
	s.Release()
	assert.Equal(t, before, d.Buffers()[1].Allocation().Refs())
}

func TestUnionValidity(t *testing.T) {
	fields := []datatype.Field{
		{Name: "i", Type: datatype.Int32(), Nullable: true},
		{Name: "s", Type: datatype.Utf8(), Nullable: true},
	}
	b, err := builder.New(datatype.DenseUnionOf(fields, nil), builder.Options{})
	require.NoError(t, err)
	ub := b.(*builder.UnionBuilder)
	require.NoError(t, ub.AppendChild(1, "a"))
	require.NoError(t, ub.AppendNull())
	require.NoError(t, ub.AppendChild(0, 9))
	d, err := ub.Flush()
	require.NoError(t, err)

	assert.Equal(t, 0, d.NullN())
	assert.True(t, d.IsNull(1))
	assert.False(t, d.IsNull(2))
	c, slot := d.UnionChild(2)
	assert.Equal(t, 0, c)
	assert.Equal(t, 1, slot)
	assert.Equal(t, []any{"a", nil, int32(9)}, d.Values())
}

func TestConcat(t *testing.T) {
	cases := []struct {
		name        string
		dt          *datatype.DataType
		left, right []any
	}{
		{"int32", datatype.Int32(), []any{int32(1), nil}, []any{int32(3)}},
		{"bool", datatype.Bool(), []any{true, false, true}, []any{nil, true}},
		{"utf8", datatype.Utf8(), []any{"x", "y"}, []any{"z"}},
		{"binary", datatype.Binary(), []any{[]byte("x")}, []any{nil, []byte("yy")}},
		{"list", datatype.ListOf(datatype.Field{Name: "item", Type: datatype.Utf8()}),
			[]any{[]any{"a", "b"}, nil}, []any{[]any{"c"}, []any{}}},
		{"struct", datatype.StructOf(datatype.Field{Name: "n", Type: datatype.Int64(), Nullable: true}),
			[]any{map[string]any{"n": int64(1)}}, []any{nil, map[string]any{"n": int64(2)}}},
		{"fixed_size_list", datatype.FixedSizeListOf(datatype.Field{Name: "item", Type: datatype.Int8()}, 1),
			[]any{[]any{int8(1)}}, []any{[]any{int8(2)}, nil}},
		{"null", datatype.Null(), []any{nil}, []any{nil, nil}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := column(t, tc.dt, builder.Options{}, tc.left...)
			r := column(t, tc.dt, builder.Options{}, tc.right...)
			out, err := data.Concat(l, r)
			require.NoError(t, err)
			assert.Equal(t, 0, out.Offset())
			assert.Equal(t, append(append([]any{}, tc.left...), tc.right...), out.Values())
		})
	}
}

func TestConcatSlices(t *testing.T) {
	d := column(t, datatype.Utf8(), builder.Options{}, "a", "b", "c", "d")
	out, err := data.Concat(d.MustSlice(1, 2), d.MustSlice(3, 1), d.MustSlice(0, 1))
	require.NoError(t, err)
	assert.Equal(t, []any{"b", "c", "d", "a"}, out.Values())
}

func TestConcatUnions(t *testing.T) {
	fields := []datatype.Field{
		{Name: "i", Type: datatype.Int32(), Nullable: true},
		{Name: "s", Type: datatype.Utf8(), Nullable: true},
	}
	for _, dt := range []*datatype.DataType{datatype.SparseUnionOf(fields, nil), datatype.DenseUnionOf(fields, nil)} {
		build := func(code int8, v any) *data.Data {
			b, err := builder.New(dt, builder.Options{})
			require.NoError(t, err)
			require.NoError(t, b.(*builder.UnionBuilder).AppendChild(code, v))
			require.NoError(t, b.(*builder.UnionBuilder).AppendChild(0, 5))
			d, err := b.Flush()
			require.NoError(t, err)
			return d
		}
		out, err := data.Concat(build(1, "a"), build(1, "b"))
		require.NoError(t, err)
		assert.Equal(t, []any{"a", int32(5), "b", int32(5)}, out.Values(), dt.String())
	}
}

func TestConcatErrors(t *testing.T) {
	_, err := data.Concat()
	assert.Error(t, err)

	a := column(t, datatype.Int8(), builder.Options{}, 1)
	b := column(t, datatype.Int16(), builder.Options{}, 1)
	_, err = data.Concat(a, b)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeInvalid))

	dt := datatype.DictionaryOf(1, datatype.Int8(), datatype.Utf8(), false)
	x := column(t, dt, builder.Options{}, "x")
	y := column(t, dt, builder.Options{}, "y")
	_, err = data.Concat(x, y)
	assert.Error(t, err)
}

func TestConcatReleasesPartsOnError(t *testing.T) {
	listType := datatype.ListOf(datatype.Field{Name: "item", Type: datatype.Int32()})
	good := column(t, listType, builder.Options{}, []any{int32(1), int32(2)}, []any{int32(3)})
	values := good.Children()[0].Buffers()[1].Allocation()
	before := values.Refs()

	// one slot whose offsets run past its single child value
	offsets := make([]byte, 8)
	offsets[4] = 100
	short := column(t, datatype.Int32(), builder.Options{}, int32(9))
	broken := data.New(listType, 1, []*memory.Buffer{nil, memory.NewBufferBytes(offsets)}, []*data.Data{short}, 0, 0)

	_, err := data.Concat(good, broken)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeInvalid))
	assert.Equal(t, before, values.Refs())

	structType := datatype.StructOf(datatype.Field{Name: "n", Type: datatype.Int32()})
	ok := column(t, structType, builder.Options{}, map[string]any{"n": int32(1)})
	fields := ok.Children()[0].Buffers()[1].Allocation()
	before = fields.Refs()
	bad := data.New(structType, 2, []*memory.Buffer{nil}, []*data.Data{short}, 0, 0)
	_, err = data.Concat(ok, bad)
	assert.Error(t, err)
	assert.Equal(t, before, fields.Refs())
}

func TestDictionaryConcatForDelta(t *testing.T) {
	base := column(t, datatype.Utf8(), builder.Options{}, "x", "y")
	delta := column(t, datatype.Utf8(), builder.Options{}, "z")
	merged, err := data.Concat(base, delta)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y", "z"}, merged.Values())
}

func TestDecimalRoundTrip(t *testing.T) {
	d := column(t, datatype.Decimal128(38, 4), builder.Options{}, "-1.5", "123456789.0001", "0")
	assert.Equal(t, "-1.5", d.Value(0).(interface{ String() string }).String())
	assert.Equal(t, "123456789.0001", d.Value(1).(interface{ String() string }).String())
	assert.Equal(t, "0", d.Value(2).(interface{ String() string }).String())
}

func TestRecordBatch(t *testing.T) {
	schema := datatype.MustSchema([]datatype.Field{
		{Name: "id", Type: datatype.Int32()},
		{Name: "name", Type: datatype.Utf8(), Nullable: true},
	}, nil)
	ids := column(t, datatype.Int32(), builder.Options{}, 1, 2, 3)
	names := column(t, datatype.Utf8(), builder.Options{}, "a", nil, "c")

	rb, err := data.NewRecordBatch(schema, []*data.Data{ids, names}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, rb.NumCols())
	assert.Equal(t, map[string]any{"id": int32(2), "name": nil}, rb.Row(1))

	col, ok := rb.ColumnByName("name")
	require.True(t, ok)
	assert.Equal(t, "c", col.Value(2))
	_, ok = rb.ColumnByName("missing")
	assert.False(t, ok)

	s, err := rb.Slice(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.NumRows())
	assert.Equal(t, map[string]any{"id": int32(3), "name": "c"}, s.Row(1))

	_, err = data.NewRecordBatch(schema, []*data.Data{ids}, 3)
	assert.Error(t, err)
	_, err = data.NewRecordBatch(schema, []*data.Data{ids, names}, 2)
	assert.Error(t, err)
	_, err = data.NewRecordBatch(schema, []*data.Data{names, ids}, 3)
	assert.Error(t, err)
}
