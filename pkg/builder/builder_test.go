package builder

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/data"
	"github.com/ajitpratap0/colwire/pkg/datatype"
)

func build(t *testing.T, dt *datatype.DataType, opts Options, values ...any) *data.Data {
	t.Helper()
	b, err := New(dt, opts)
	require.NoError(t, err)
	require.NoError(t, b.AppendValues(values))
	d, err := b.Flush()
	require.NoError(t, err)
	return d
}

func TestInt32WithNulls(t *testing.T) {
	d := build(t, datatype.Int32(), Options{}, int32(1), nil, 3)
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, 1, d.NullN())
	assert.Equal(t, []any{int32(1), nil, int32(3)}, d.Values())
}

func TestNullSentinels(t *testing.T) {
	opts := Options{NullValues: []any{nil, math.NaN(), -1.0}}
	b, err := New(datatype.Float64(), opts)
	require.NoError(t, err)

	assert.False(t, b.IsValid(nil))
	assert.False(t, b.IsValid(math.NaN()))
	assert.False(t, b.IsValid(-1.0))
	assert.True(t, b.IsValid(-1))
	assert.True(t, b.IsValid(0.0))
	assert.True(t, b.IsValid(math.Inf(1)))

	require.NoError(t, b.AppendValues([]any{1.5, math.NaN(), -1.0, nil, 2.5}))
	d, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, 3, d.NullN())
	assert.Equal(t, []any{1.5, nil, nil, nil, 2.5}, d.Values())
}

func TestNaNIsValueByDefault(t *testing.T) {
	d := build(t, datatype.Float32(), Options{}, float32(math.NaN()))
	assert.Equal(t, 0, d.NullN())
	assert.True(t, math.IsNaN(float64(d.Value(0).(float32))))
}

func TestByteSliceSentinel(t *testing.T) {
	b, err := New(datatype.Binary(), Options{NullValues: []any{[]byte("NA")}})
	require.NoError(t, err)
	assert.False(t, b.IsValid([]byte("NA")))
	assert.True(t, b.IsValid([]byte("ok")))
	assert.True(t, b.IsValid(nil))
}

func TestGrowthPreservesValues(t *testing.T) {
	b, err := New(datatype.Int64(), Options{InitialCapacity: 4})
	require.NoError(t, err)
	const n = 10000
	for i := 0; i < n; i++ {
		if i%7 == 0 {
			require.NoError(t, b.AppendNull())
			continue
		}
		require.NoError(t, b.Append(int64(i)))
	}
	d, err := b.Flush()
	require.NoError(t, err)
	require.Equal(t, n, d.Len())
	for i := 0; i < n; i++ {
		if i%7 == 0 {
			require.Nil(t, d.Value(i), "index %d", i)
		} else {
			require.Equal(t, int64(i), d.Value(i), "index %d", i)
		}
	}
}

func TestStringGrowth(t *testing.T) {
	b, err := New(datatype.Utf8(), Options{})
	require.NoError(t, err)
	for i := 0; i < 2000; i++ {
		require.NoError(t, b.Append(string(rune('a'+i%26))+"xyz"))
	}
	d, err := b.Flush()
	require.NoError(t, err)
	for i := 0; i < 2000; i++ {
		require.Equal(t, string(rune('a'+i%26))+"xyz", d.Value(i))
	}
}

func TestFlushResetsButKeepsCapacity(t *testing.T) {
	b, err := New(datatype.Int32(), Options{})
	require.NoError(t, err)
	require.NoError(t, b.AppendValues([]any{1, 2, 3}))
	reserved := b.ReservedByteLength()
	_, err = b.Flush()
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, reserved, b.ReservedByteLength())

	require.NoError(t, b.Append(4))
	d, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, []any{int32(4)}, d.Values())
}

func TestClearKeepsCapacity(t *testing.T) {
	b, err := New(datatype.Utf8(), Options{})
	require.NoError(t, err)
	require.NoError(t, b.AppendValues([]any{"a", "b"}))
	_, err = b.Flush()
	require.NoError(t, err)
	reserved := b.ReservedByteLength()
	require.NoError(t, b.Append("c"))
	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.NullN())
	assert.Equal(t, reserved, b.ReservedByteLength())
}

func TestSetOverwritesPendingAndExtends(t *testing.T) {
	b, err := New(datatype.Utf8(), Options{})
	require.NoError(t, err)
	require.NoError(t, b.Append("a"))
	require.NoError(t, b.Append("bb"))
	require.NoError(t, b.Set(0, "zzz"))
	require.NoError(t, b.Set(4, "e"))
	require.NoError(t, b.Set(1, nil))
	assert.Equal(t, 5, b.Len())
	assert.Equal(t, 3, b.NullN())

	d, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, []any{"zzz", nil, nil, nil, "e"}, d.Values())
}

func TestSetOutOfOrder(t *testing.T) {
	b, err := New(datatype.Binary(), Options{})
	require.NoError(t, err)
	require.NoError(t, b.Set(2, []byte("c")))
	require.NoError(t, b.Set(0, []byte("a")))
	require.NoError(t, b.Set(1, "b"))
	d, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, []any{[]byte("a"), []byte("b"), []byte("c")}, d.Values())
	assert.Equal(t, 0, d.NullN())
}

func TestFinishIsOneWay(t *testing.T) {
	b, err := New(datatype.StructOf(datatype.Field{Name: "a", Type: datatype.Int8()}), Options{})
	require.NoError(t, err)
	b.Finish()
	b.Finish()
	assert.True(t, b.Finished())
	assert.True(t, b.Children()[0].Finished())

	err = b.Append(map[string]any{"a": 1})
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConstruction))
	assert.Error(t, b.AppendNull())
}

func TestTypeMismatch(t *testing.T) {
	b, err := New(datatype.Int16(), Options{})
	require.NoError(t, err)
	assert.True(t, colerrors.IsType(b.Append("nope"), colerrors.ErrorTypeConstruction))
	assert.True(t, colerrors.IsType(b.Append(1<<20), colerrors.ErrorTypeConstruction))
	assert.True(t, colerrors.IsType(b.Append(1.5), colerrors.ErrorTypeConstruction))
	assert.NoError(t, b.Append(2.0))
	assert.Equal(t, 1, b.Len())

	u, err := New(datatype.Uint8(), Options{})
	require.NoError(t, err)
	assert.Error(t, u.Append(-1))
	assert.Error(t, u.Append(256))
}

func TestPointersAreDereferenced(t *testing.T) {
	x := int32(7)
	var missing *int32
	d := build(t, datatype.Int32(), Options{}, &x, missing)
	assert.Equal(t, []any{int32(7), nil}, d.Values())
}

func TestBool(t *testing.T) {
	d := build(t, datatype.Bool(), Options{}, true, false, nil, true)
	assert.Equal(t, []any{true, false, nil, true}, d.Values())
	assert.Equal(t, 1, d.NullN())
}

func TestNullType(t *testing.T) {
	b, err := New(datatype.Null(), Options{})
	require.NoError(t, err)
	require.NoError(t, b.AppendValues([]any{nil, nil}))
	assert.Error(t, b.Append(1))
	d, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, 2, d.NullN())
	assert.Nil(t, d.Buffers())
}

func TestTemporalAndDecimal(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	d := build(t, datatype.Timestamp(datatype.Millisecond, "UTC"), Options{}, ts, int64(5))
	assert.Equal(t, []any{ts.UnixMilli(), int64(5)}, d.Values())

	d = build(t, datatype.Date32(), Options{}, ts)
	assert.Equal(t, int32(ts.Unix()/86400), d.Value(0))

	d = build(t, datatype.Duration(datatype.Microsecond), Options{}, 1500*time.Microsecond)
	assert.Equal(t, int64(1500), d.Value(0))

	d = build(t, datatype.Time32(datatype.Second), Options{}, ts)
	assert.Equal(t, int32(12*3600), d.Value(0))

	d = build(t, datatype.Decimal128(10, 2), Options{}, "12.34", decimal.NewFromInt(-5), nil)
	assert.True(t, decimal.RequireFromString("12.34").Equal(d.Value(0).(decimal.Decimal)))
	assert.True(t, decimal.NewFromInt(-5).Equal(d.Value(1).(decimal.Decimal)))
	assert.Nil(t, d.Value(2))
}

func TestFixedSizeBinary(t *testing.T) {
	b, err := New(datatype.FixedSizeBinary(3), Options{})
	require.NoError(t, err)
	require.NoError(t, b.Append([]byte("abc")))
	assert.Error(t, b.Append([]byte("ab")))
	require.NoError(t, b.AppendNull())
	d, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, []any{[]byte("abc"), nil}, d.Values())
}

func TestList(t *testing.T) {
	dt := datatype.ListOf(datatype.Field{Name: "item", Type: datatype.Int32(), Nullable: true})
	d := build(t, dt, Options{}, []any{1, 2}, nil, []int32{}, []int{3, -1})
	assert.Equal(t, 1, d.NullN())
	assert.Equal(t, []any{
		[]any{int32(1), int32(2)},
		nil,
		[]any{},
		[]any{int32(3), int32(-1)},
	}, d.Values())
	assert.Equal(t, 4, d.Children()[0].Len())
}

func TestListSetBeforeFlush(t *testing.T) {
	dt := datatype.ListOf(datatype.Field{Name: "item", Type: datatype.Utf8()})
	b, err := New(dt, Options{})
	require.NoError(t, err)
	require.NoError(t, b.Append([]string{"a"}))
	require.NoError(t, b.Append([]string{"b", "c"}))
	require.NoError(t, b.Set(0, []string{"x", "y", "z"}))
	d, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{"x", "y", "z"}, []any{"b", "c"}}, d.Values())
}

func TestMap(t *testing.T) {
	dt := datatype.MapOf(datatype.Utf8(), datatype.Int64(), true)
	d := build(t, dt, Options{}, map[string]int64{"b": 2, "a": 1}, nil, []data.MapEntry{{Key: "z", Value: nil}})
	assert.Equal(t, []data.MapEntry{{Key: "a", Value: int64(1)}, {Key: "b", Value: int64(2)}}, d.Value(0))
	assert.Nil(t, d.Value(1))
	assert.Equal(t, []data.MapEntry{{Key: "z", Value: nil}}, d.Value(2))
}

func TestFixedSizeList(t *testing.T) {
	dt := datatype.FixedSizeListOf(datatype.Field{Name: "item", Type: datatype.Float64()}, 2)
	b, err := New(dt, Options{})
	require.NoError(t, err)
	require.NoError(t, b.Append([]float64{1, 2}))
	require.NoError(t, b.AppendNull())
	err = b.Append([]float64{1, 2, 3})
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConstruction))
	require.NoError(t, b.Set(3, []any{5.0, 6.0}))
	d, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, 4, d.Len())
	assert.Equal(t, 8, d.Children()[0].Len())
	assert.Equal(t, []any{[]any{1.0, 2.0}, nil, nil, []any{5.0, 6.0}}, d.Values())
}

func TestStruct(t *testing.T) {
	dt := datatype.StructOf(
		datatype.Field{Name: "id", Type: datatype.Int32()},
		datatype.Field{Name: "name", Type: datatype.Utf8(), Nullable: true},
	)
	d := build(t, dt, Options{},
		map[string]any{"id": 1, "name": "a"},
		[]any{2, nil},
		nil,
		map[string]any{"id": 4},
		map[string]string{"name": "e"},
	)
	assert.Equal(t, 1, d.NullN())
	assert.Equal(t, map[string]any{"id": int32(1), "name": "a"}, d.Value(0))
	assert.Equal(t, map[string]any{"id": int32(2), "name": nil}, d.Value(1))
	assert.Nil(t, d.Value(2))
	assert.Equal(t, map[string]any{"id": int32(4), "name": nil}, d.Value(3))
	assert.Equal(t, map[string]any{"id": nil, "name": "e"}, d.Value(4))
	for _, c := range d.Children() {
		assert.Equal(t, 5, c.Len())
	}
}

func TestAddChild(t *testing.T) {
	dt := datatype.ListOf(datatype.Field{Name: "item", Type: datatype.Int32()})
	b, err := NewEmpty(dt, Options{})
	require.NoError(t, err)

	_, err = b.Flush()
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConstruction))

	wrong, _ := New(datatype.Utf8(), Options{})
	assert.Error(t, b.AddChild(wrong))

	child, _ := New(datatype.Int32(), Options{})
	require.NoError(t, b.AddChild(child))
	second, _ := New(datatype.Int32(), Options{})
	err = b.AddChild(second)
	require.Error(t, err)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConstruction))

	require.NoError(t, b.Append([]int32{1}))
	d, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{int32(1)}}, d.Values())
}

func unionType(dense bool) *datatype.DataType {
	fields := []datatype.Field{
		{Name: "i", Type: datatype.Int32(), Nullable: true},
		{Name: "s", Type: datatype.Utf8(), Nullable: true},
	}
	if dense {
		return datatype.DenseUnionOf(fields, []int8{5, 7})
	}
	return datatype.SparseUnionOf(fields, []int8{5, 7})
}

func TestUnionRequiresDiscriminant(t *testing.T) {
	b, err := New(unionType(false), Options{})
	require.NoError(t, err)
	err = b.Append(1)
	require.Error(t, err)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConstruction))
}

func TestUnions(t *testing.T) {
	discriminant := func(v any) (int8, error) {
		if _, ok := v.(string); ok {
			return 7, nil
		}
		return 5, nil
	}
	for _, dense := range []bool{false, true} {
		b, err := New(unionType(dense), Options{Discriminant: discriminant})
		require.NoError(t, err)
		require.NoError(t, b.Append(1))
		require.NoError(t, b.Append("two"))
		require.NoError(t, b.AppendNull())
		require.NoError(t, b.(*UnionBuilder).AppendChild(7, "four"))
		assert.Error(t, b.(*UnionBuilder).AppendChild(9, "x"))

		d, err := b.Flush()
		require.NoError(t, err)
		assert.Equal(t, 0, d.NullN())
		assert.Equal(t, []any{int32(1), "two", nil, "four"}, d.Values(), "dense=%t", dense)
		if dense {
			assert.Equal(t, 2, d.Children()[0].Len())
			assert.Equal(t, 2, d.Children()[1].Len())
		} else {
			assert.Equal(t, 4, d.Children()[0].Len())
			assert.Equal(t, 4, d.Children()[1].Len())
		}
	}
}

func TestDictionaryIsCumulative(t *testing.T) {
	dt := datatype.DictionaryOf(7, datatype.Int8(), datatype.Utf8(), false)
	b, err := New(dt, Options{})
	require.NoError(t, err)
	db := b.(*DictionaryBuilder)

	require.NoError(t, b.AppendValues([]any{"x", "y", "x", nil}))
	first, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y", "x", nil}, first.Values())
	assert.Equal(t, 2, first.Dictionary().Len())
	assert.Equal(t, 1, first.NullN())

	require.NoError(t, b.AppendValues([]any{"z", "x"}))
	second, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, []any{"z", "x"}, second.Values())
	assert.Equal(t, []any{"x", "y", "z"}, second.Dictionary().Values())
	assert.Equal(t, 2, second.DictionaryIndex(0))

	db.ResetDictionary()
	require.NoError(t, b.Append("q"))
	third, err := b.Flush()
	require.NoError(t, err)
	assert.Equal(t, []any{"q"}, third.Dictionary().Values())
}

func TestDictionaryNormalizesKeys(t *testing.T) {
	dt := datatype.DictionaryOf(1, datatype.Int16(), datatype.Int64(), false)
	d := build(t, dt, Options{}, 1, int64(1), int8(1), 2)
	assert.Equal(t, 2, d.Dictionary().Len())
}

func TestDictionaryOverflow(t *testing.T) {
	dt := datatype.DictionaryOf(1, datatype.Uint8(), datatype.Int32(), false)
	b, err := New(dt, Options{})
	require.NoError(t, err)
	for i := 0; i < 256; i++ {
		require.NoError(t, b.Append(i))
	}
	assert.Error(t, b.Append(256))
	require.NoError(t, b.Append(255))
}

func TestRecordBuilder(t *testing.T) {
	schema := datatype.MustSchema([]datatype.Field{
		{Name: "a", Type: datatype.Int32(), Nullable: true},
		{Name: "b", Type: datatype.Utf8(), Nullable: true},
	}, nil)
	rb, err := NewRecordBuilder(schema, Options{})
	require.NoError(t, err)

	require.NoError(t, rb.AppendRow(map[string]any{"a": 1, "b": "a"}))
	require.NoError(t, rb.AppendRow(map[string]any{"b": "bb"}))
	require.NoError(t, rb.AppendValues([]any{3, nil}))
	assert.Error(t, rb.AppendValues([]any{1}))
	assert.Equal(t, 3, rb.Len())
	assert.Greater(t, rb.ByteLength(), 0)

	batch, err := rb.Flush()
	require.NoError(t, err)
	assert.Equal(t, 3, batch.NumRows())
	assert.Equal(t, []any{int32(1), nil, int32(3)}, batch.Column(0).Values())
	assert.Equal(t, []any{"a", "bb", nil}, batch.Column(1).Values())
	assert.Equal(t, 0, rb.Len())
}

func TestNestedListOfStruct(t *testing.T) {
	point := datatype.StructOf(
		datatype.Field{Name: "x", Type: datatype.Int16()},
		datatype.Field{Name: "tags", Type: datatype.ListOf(datatype.Field{Name: "item", Type: datatype.Utf8()}), Nullable: true},
	)
	dt := datatype.ListOf(datatype.Field{Name: "item", Type: point, Nullable: true})
	d := build(t, dt, Options{},
		[]any{map[string]any{"x": 1, "tags": []string{"a"}}, nil},
		[]any{map[string]any{"x": 2}},
	)
	assert.Equal(t, []any{
		[]any{map[string]any{"x": int16(1), "tags": []any{"a"}}, nil},
		[]any{map[string]any{"x": int16(2), "tags": nil}},
	}, d.Values())
}
