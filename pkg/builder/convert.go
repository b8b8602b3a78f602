package builder

import (
	"math"
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/colwire/pkg/colerrors"
	"github.com/ajitpratap0/colwire/pkg/datatype"
)

// number is satisfied by json.Number from both encoding/json and go-json.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// deref follows non-nil pointers to their element.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.IsValid() && rv.Kind() != reflect.Ptr {
		return rv.Interface()
	}
	return v
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), x <= math.MaxInt64
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), x <= math.MaxInt64
	case float32:
		f := float64(x)
		return int64(f), f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64
	case float64:
		return int64(x), x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64
	case number:
		n, err := x.Int64()
		return n, err == nil
	}
	return 0, false
}

func toUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	}
	n, ok := toInt64(v)
	return uint64(n), ok && n >= 0
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case number:
		f, err := x.Float64()
		return f, err == nil
	}
	n, ok := toInt64(v)
	return float64(n), ok
}

func toBytes(v any) ([]byte, bool) {
	switch x := v.(type) {
	case []byte:
		return x, true
	case string:
		return []byte(x), true
	}
	return nil, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case string:
		d, err := decimal.NewFromString(x)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(x), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	}
	if n, ok := toInt64(v); ok {
		return decimal.NewFromInt(n), true
	}
	return decimal.Decimal{}, false
}

func unitDuration(u datatype.TimeUnit) time.Duration {
	switch u {
	case datatype.Second:
		return time.Second
	case datatype.Millisecond:
		return time.Millisecond
	case datatype.Microsecond:
		return time.Microsecond
	}
	return time.Nanosecond
}

// toTemporal converts time.Time and time.Duration to the integer encoding
// of dt. Plain integers pass through unchanged.
func toTemporal(dt *datatype.DataType, v any) (int64, bool) {
	switch x := v.(type) {
	case time.Time:
		switch dt.ID {
		case datatype.DATE32:
			return floorDiv(x.Unix(), 86400), true
		case datatype.DATE64:
			return floorDiv(x.UnixMilli(), 86400000) * 86400000, true
		case datatype.TIMESTAMP:
			switch dt.Unit {
			case datatype.Second:
				return x.Unix(), true
			case datatype.Millisecond:
				return x.UnixMilli(), true
			case datatype.Microsecond:
				return x.UnixMicro(), true
			}
			return x.UnixNano(), true
		case datatype.TIME32, datatype.TIME64:
			h, m, s := x.Clock()
			d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
				time.Duration(s)*time.Second + time.Duration(x.Nanosecond())
			return int64(d / unitDuration(dt.Unit)), true
		}
		return 0, false
	case time.Duration:
		switch dt.ID {
		case datatype.TIME32, datatype.TIME64, datatype.DURATION:
			return int64(x / unitDuration(dt.Unit)), true
		}
		return 0, false
	}
	return toInt64(v)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func checkRange(dt *datatype.DataType, v any, n int64) error {
	var lo, hi int64
	switch dt.ID {
	case datatype.INT8:
		lo, hi = math.MinInt8, math.MaxInt8
	case datatype.INT16:
		lo, hi = math.MinInt16, math.MaxInt16
	case datatype.INT32, datatype.DATE32, datatype.TIME32:
		lo, hi = math.MinInt32, math.MaxInt32
	default:
		return nil
	}
	if n < lo || n > hi {
		return colerrors.Newf(colerrors.ErrorTypeConstruction, "value %v overflows %s", v, dt)
	}
	return nil
}

func checkURange(dt *datatype.DataType, v any, n uint64) error {
	var hi uint64
	switch dt.ID {
	case datatype.UINT8:
		hi = math.MaxUint8
	case datatype.UINT16:
		hi = math.MaxUint16
	case datatype.UINT32:
		hi = math.MaxUint32
	default:
		return nil
	}
	if n > hi {
		return colerrors.Newf(colerrors.ErrorTypeConstruction, "value %v overflows %s", v, dt)
	}
	return nil
}

// toSlice converts any slice or array to []any.
func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
