package bridge

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/VanDung-dev/parquet-core/pqerr"
	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

// Values decodes every slot of arr. Decoded values never alias Arrow
// buffers, so arr may be released afterwards.
func (c *Column) Values(arr arrow.Array) ([]value.Value, error) {
	out := make([]value.Value, arr.Len())
	for i := range out {
		v, err := c.Value(arr, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Values decodes arr as values of node n.
func Values(n schema.Node, arr arrow.Array) ([]value.Value, error) {
	c, err := NewColumn(n)
	if err != nil {
		return nil, err
	}
	return c.Values(arr)
}

func (c *Column) unexpected(arr arrow.Array) error {
	return pqerr.Newf(pqerr.Conversion, "column %q: cannot decode %s array as %s",
		c.path, arr.DataType(), c.node.TypeString())
}

// Value decodes slot i of arr.
func (c *Column) Value(arr arrow.Array, i int) (value.Value, error) {
	if arr.IsNull(i) {
		return value.Null{}, nil
	}
	switch c.node.Kind {
	case schema.KindList:
		return c.listValue(arr, i)
	case schema.KindMap:
		return c.mapValue(arr, i)
	case schema.KindStruct:
		return c.structValue(arr, i)
	}
	return c.primitiveValue(arr, i)
}

func (c *Column) listValue(arr arrow.Array, i int) (value.Value, error) {
	a, ok := arr.(array.ListLike)
	if !ok {
		return nil, c.unexpected(arr)
	}
	start, end := a.ValueOffsets(i)
	items := a.ListValues()
	out := make(value.List, 0, end-start)
	for j := start; j < end; j++ {
		v, err := c.children[0].Value(items, int(j))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Column) mapValue(arr arrow.Array, i int) (value.Value, error) {
	a, ok := arr.(*array.Map)
	if !ok {
		return nil, c.unexpected(arr)
	}
	start, end := a.ValueOffsets(i)
	keys, items := a.Keys(), a.Items()
	out := make(value.Map, 0, end-start)
	for j := start; j < end; j++ {
		k, err := c.children[0].Value(keys, int(j))
		if err != nil {
			return nil, err
		}
		v, err := c.children[1].Value(items, int(j))
		if err != nil {
			return nil, err
		}
		out = append(out, value.MapEntry{Key: k, Value: v})
	}
	return out, nil
}

func (c *Column) structValue(arr arrow.Array, i int) (value.Value, error) {
	a, ok := arr.(*array.Struct)
	if !ok || a.NumField() != len(c.children) {
		return nil, c.unexpected(arr)
	}
	out := make(value.Record, len(c.children))
	for j, child := range c.children {
		v, err := child.Value(a.Field(j), i)
		if err != nil {
			return nil, err
		}
		out[j] = value.Field{Name: child.node.Name, Value: v}
	}
	return out, nil
}

func signedAt(arr arrow.Array, i int) (int64, bool) {
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(i)), true
	case *array.Int16:
		return int64(a.Value(i)), true
	case *array.Int32:
		return int64(a.Value(i)), true
	case *array.Int64:
		return a.Value(i), true
	}
	return 0, false
}

func unsignedAt(arr arrow.Array, i int) (uint64, bool) {
	switch a := arr.(type) {
	case *array.Uint8:
		return uint64(a.Value(i)), true
	case *array.Uint16:
		return uint64(a.Value(i)), true
	case *array.Uint32:
		return uint64(a.Value(i)), true
	case *array.Uint64:
		return a.Value(i), true
	}
	return 0, false
}

func (c *Column) signedValue(arr arrow.Array, i int, lo, hi int64) (int64, error) {
	x, ok := signedAt(arr, i)
	if !ok {
		u, uok := unsignedAt(arr, i)
		if !uok {
			return 0, c.unexpected(arr)
		}
		if u > math.MaxInt64 {
			return 0, pqerr.Newf(pqerr.Conversion, "column %q: stored value %d overflows %s", c.path, u, c.node.Type)
		}
		x = int64(u)
	}
	if x < lo || x > hi {
		return 0, pqerr.Newf(pqerr.Conversion, "column %q: stored value %d overflows %s", c.path, x, c.node.Type)
	}
	return x, nil
}

func (c *Column) unsignedValue(arr arrow.Array, i int, hi uint64) (uint64, error) {
	x, ok := unsignedAt(arr, i)
	if !ok {
		s, sok := signedAt(arr, i)
		if !sok {
			return 0, c.unexpected(arr)
		}
		if s < 0 {
			return 0, pqerr.Newf(pqerr.Conversion, "column %q: stored value %d overflows %s", c.path, s, c.node.Type)
		}
		x = uint64(s)
	}
	if x > hi {
		return 0, pqerr.Newf(pqerr.Conversion, "column %q: stored value %d overflows %s", c.path, x, c.node.Type)
	}
	return x, nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c *Column) primitiveValue(arr arrow.Array, i int) (value.Value, error) {
	t := c.node.Type
	switch t.ID {
	case schema.TypeInt8:
		x, err := c.signedValue(arr, i, math.MinInt8, math.MaxInt8)
		return value.Int8(x), err
	case schema.TypeInt16:
		x, err := c.signedValue(arr, i, math.MinInt16, math.MaxInt16)
		return value.Int16(x), err
	case schema.TypeInt32:
		x, err := c.signedValue(arr, i, math.MinInt32, math.MaxInt32)
		return value.Int32(x), err
	case schema.TypeInt64:
		x, err := c.signedValue(arr, i, math.MinInt64, math.MaxInt64)
		return value.Int64(x), err
	case schema.TypeUint8:
		x, err := c.unsignedValue(arr, i, math.MaxUint8)
		return value.Uint8(x), err
	case schema.TypeUint16:
		x, err := c.unsignedValue(arr, i, math.MaxUint16)
		return value.Uint16(x), err
	case schema.TypeUint32:
		x, err := c.unsignedValue(arr, i, math.MaxUint32)
		return value.Uint32(x), err
	case schema.TypeUint64:
		x, err := c.unsignedValue(arr, i, math.MaxUint64)
		return value.Uint64(x), err
	case schema.TypeFloat32:
		switch a := arr.(type) {
		case *array.Float32:
			return value.Float32(a.Value(i)), nil
		case *array.Float16:
			return value.Float16(a.Value(i).Float32()), nil
		}
	case schema.TypeFloat64:
		switch a := arr.(type) {
		case *array.Float64:
			return value.Float64(a.Value(i)), nil
		case *array.Float32:
			return value.Float64(a.Value(i)), nil
		}
	case schema.TypeBoolean:
		if a, ok := arr.(*array.Boolean); ok {
			return value.Boolean(a.Value(i)), nil
		}
	case schema.TypeString:
		var s string
		switch a := arr.(type) {
		case *array.String:
			s = a.Value(i)
		case *array.LargeString:
			s = a.Value(i)
		case *array.Binary:
			s = string(a.Value(i))
		default:
			return nil, c.unexpected(arr)
		}
		if !utf8.ValidString(s) {
			return nil, pqerr.Newf(pqerr.Conversion, "column %q: stored string is not valid UTF-8", c.path)
		}
		return value.String(strings.Clone(s)), nil
	case schema.TypeBinary:
		switch a := arr.(type) {
		case *array.Binary:
			return value.Bytes(cloneBytes(a.Value(i))), nil
		case *array.LargeBinary:
			return value.Bytes(cloneBytes(a.Value(i))), nil
		case *array.String:
			return value.Bytes(cloneBytes([]byte(a.Value(i)))), nil
		}
	case schema.TypeFixedLenByteArray:
		if a, ok := arr.(*array.FixedSizeBinary); ok {
			return value.Bytes(cloneBytes(a.Value(i))), nil
		}
	case schema.TypeDate32:
		switch a := arr.(type) {
		case *array.Date32:
			return value.Date32(a.Value(i)), nil
		case *array.Date64:
			return value.Date32(int64(a.Value(i)) / msPerDay), nil
		}
	case schema.TypeDate64:
		switch a := arr.(type) {
		case *array.Date64:
			return value.Date64(a.Value(i)), nil
		case *array.Date32:
			return value.Date64(int64(a.Value(i)) * msPerDay), nil
		}
	case schema.TypeDecimal128, schema.TypeDecimal256:
		return c.decimalValue(arr, i)
	case schema.TypeTimestampSecond, schema.TypeTimestampMillis, schema.TypeTimestampMicros, schema.TypeTimestampNanos:
		a, ok := arr.(*array.Timestamp)
		if !ok {
			break
		}
		from := valueUnit(a.DataType().(*arrow.TimestampType).Unit)
		unit := valueUnits[t.ID]
		epoch, ok := value.ConvertEpoch(int64(a.Value(i)), from, unit)
		if !ok {
			return nil, pqerr.Newf(pqerr.Conversion, "column %q: stored timestamp overflows unit %s", c.path, unit)
		}
		return value.Timestamp{Epoch: epoch, Unit: unit, TZ: t.Timezone}, nil
	case schema.TypeTimeMillis:
		switch a := arr.(type) {
		case *array.Time32:
			x := int64(a.Value(i))
			if a.DataType().(*arrow.Time32Type).Unit == arrow.Second {
				x *= 1000
			}
			return value.TimeMillis(x), nil
		case *array.Time64:
			x := int64(a.Value(i)) / 1000
			if a.DataType().(*arrow.Time64Type).Unit == arrow.Nanosecond {
				x /= 1000
			}
			return value.TimeMillis(x), nil
		}
	case schema.TypeTimeMicros:
		switch a := arr.(type) {
		case *array.Time64:
			x := int64(a.Value(i))
			if a.DataType().(*arrow.Time64Type).Unit == arrow.Nanosecond {
				x /= 1000
			}
			return value.TimeMicros(x), nil
		case *array.Time32:
			x := int64(a.Value(i))
			if a.DataType().(*arrow.Time32Type).Unit == arrow.Second {
				x *= 1000
			}
			return value.TimeMicros(x * 1000), nil
		}
	}
	return nil, c.unexpected(arr)
}

func (c *Column) decimalValue(arr arrow.Array, i int) (value.Value, error) {
	t := c.node.Type
	var d value.Decimal256
	switch a := arr.(type) {
	case *array.Decimal128:
		if a.DataType().(*arrow.Decimal128Type).Scale != t.Scale {
			return nil, c.unexpected(arr)
		}
		n := a.Value(i)
		if t.ID == schema.TypeDecimal128 {
			return value.Decimal128{Hi: n.HighBits(), Lo: n.LowBits(), Scale: t.Scale}, nil
		}
		d = value.Decimal256{Mantissa: n.BigInt(), Scale: t.Scale}
	case *array.Decimal256:
		if a.DataType().(*arrow.Decimal256Type).Scale != t.Scale {
			return nil, c.unexpected(arr)
		}
		d = value.Decimal256{Mantissa: a.Value(i).BigInt(), Scale: t.Scale}
	default:
		return nil, c.unexpected(arr)
	}
	if t.ID == schema.TypeDecimal256 {
		return d, nil
	}
	n, ok := d.Narrow()
	if !ok {
		return nil, pqerr.Newf(pqerr.Conversion, "column %q: stored decimal overflows %s", c.path, t)
	}
	return n, nil
}

func valueUnit(u arrow.TimeUnit) value.TimeUnit {
	switch u {
	case arrow.Second:
		return value.Second
	case arrow.Millisecond:
		return value.Millisecond
	case arrow.Microsecond:
		return value.Microsecond
	}
	return value.Nanosecond
}
