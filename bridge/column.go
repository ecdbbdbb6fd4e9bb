package bridge

import (
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/VanDung-dev/parquet-core/pqerr"
	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

const msPerDay = 86_400_000

// Column converts the values of one schema node to and from Arrow arrays.
// A Column is immutable and safe for concurrent use.
type Column struct {
	node     schema.Node
	path     string
	dt       arrow.DataType
	children []*Column
	maxMant  *big.Int
}

// NewColumn compiles the conversion plan of n. The node name is used as the
// path in error messages.
func NewColumn(n schema.Node) (*Column, error) {
	return newColumn(n, n.Name)
}

func newColumn(n schema.Node, path string) (*Column, error) {
	dt, err := DataType(n)
	if err != nil {
		return nil, err
	}
	c := &Column{node: n, path: path, dt: dt}
	if n.Kind == schema.KindPrimitive && n.Type.ID == schema.TypeDecimal256 {
		c.maxMant = value.MaxDecimalMantissa(n.Type.Precision)
	}
	for _, child := range n.Children {
		cc, err := newColumn(child, path+"."+child.Name)
		if err != nil {
			return nil, err
		}
		c.children = append(c.children, cc)
	}
	return c, nil
}

// Node returns the schema node the column was compiled from.
func (c *Column) Node() schema.Node { return c.node }

// DataType returns the Arrow type of the column.
func (c *Column) DataType() arrow.DataType { return c.dt }

// Validate checks that v can be stored in the column without building
// anything.
func (c *Column) Validate(v value.Value) error {
	return c.append(nil, v)
}

// Append converts v and appends it to b, which must be a builder for
// DataType. On error b may hold a partial value and should be discarded.
func (c *Column) Append(b array.Builder, v value.Value) error {
	return c.append(b, v)
}

// BuildArray converts values into a new array. The caller owns the result.
func (c *Column) BuildArray(mem memory.Allocator, values []value.Value) (arrow.Array, error) {
	b := array.NewBuilder(mem, c.dt)
	defer b.Release()
	b.Reserve(len(values))
	for _, v := range values {
		if err := c.append(b, v); err != nil {
			return nil, err
		}
	}
	return b.NewArray(), nil
}

// BuildArray converts values of node n into a new array.
func BuildArray(mem memory.Allocator, n schema.Node, values []value.Value) (arrow.Array, error) {
	c, err := NewColumn(n)
	if err != nil {
		return nil, err
	}
	return c.BuildArray(mem, values)
}

func (c *Column) mismatch(v value.Value) error {
	return pqerr.Newf(pqerr.Conversion, "column %q: cannot store %s in %s",
		c.path, value.TypeName(v), c.node.TypeString())
}

func (c *Column) overflow(v value.Value) error {
	return pqerr.Newf(pqerr.Conversion, "column %q: %s value %s overflows %s",
		c.path, value.TypeName(v), value.Format(v), c.node.TypeString())
}

func (c *Column) append(b array.Builder, v value.Value) error {
	if value.IsNull(v) {
		if !c.node.Nullable {
			return pqerr.Newf(pqerr.Validation, "column %q: null in non-nullable field", c.path)
		}
		if b != nil {
			b.AppendNull()
		}
		return nil
	}
	switch c.node.Kind {
	case schema.KindList:
		return c.appendList(b, v)
	case schema.KindMap:
		return c.appendMap(b, v)
	case schema.KindStruct:
		return c.appendStruct(b, v)
	}
	return c.appendPrimitive(b, v)
}

func (c *Column) appendList(b array.Builder, v value.Value) error {
	l, ok := v.(value.List)
	if !ok {
		return c.mismatch(v)
	}
	var vb array.Builder
	if b != nil {
		lb := b.(*array.ListBuilder)
		lb.Append(true)
		vb = lb.ValueBuilder()
	}
	item := c.children[0]
	for _, x := range l {
		if err := item.append(vb, x); err != nil {
			return err
		}
	}
	return nil
}

func (c *Column) appendMap(b array.Builder, v value.Value) error {
	m, ok := v.(value.Map)
	if !ok {
		return c.mismatch(v)
	}
	var kb, ib array.Builder
	if b != nil {
		mb := b.(*array.MapBuilder)
		mb.Append(true)
		kb, ib = mb.KeyBuilder(), mb.ItemBuilder()
	}
	key, item := c.children[0], c.children[1]
	for _, e := range m {
		if err := key.append(kb, e.Key); err != nil {
			return err
		}
		if err := item.append(ib, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (c *Column) appendStruct(b array.Builder, v value.Value) error {
	r, ok := v.(value.Record)
	if !ok {
		return c.mismatch(v)
	}
	if err := c.checkFields(r); err != nil {
		return err
	}
	var sb *array.StructBuilder
	if b != nil {
		sb = b.(*array.StructBuilder)
		sb.Append(true)
	}
	for i, child := range c.children {
		var fb array.Builder
		if sb != nil {
			fb = sb.FieldBuilder(i)
		}
		if err := child.append(fb, r[i].Value); err != nil {
			return err
		}
	}
	return nil
}

// checkFields requires the record to name exactly the struct's fields in
// schema order, so that the decoded record equals the one written.
func (c *Column) checkFields(r value.Record) error {
	for i, f := range r {
		if i >= len(c.children) {
			return pqerr.Newf(pqerr.Conversion, "column %q: record has extra field %q", c.path, f.Name)
		}
		if want := c.children[i].node.Name; f.Name != want {
			if _, known := c.node.Child(f.Name); !known {
				return pqerr.Newf(pqerr.Conversion, "column %q: record has unknown field %q", c.path, f.Name)
			}
			return pqerr.Newf(pqerr.Conversion, "column %q: record field %d is %q, want %q", c.path, i, f.Name, want)
		}
	}
	if len(r) < len(c.children) {
		return pqerr.Newf(pqerr.Conversion, "column %q: record is missing field %q",
			c.path, c.children[len(r)].node.Name)
	}
	return nil
}

func (c *Column) signed(v value.Value, lo, hi int64) (int64, error) {
	if !v.Kind().IsInteger() {
		return 0, c.mismatch(v)
	}
	x, ok := value.AsInt64(v)
	if !ok || x < lo || x > hi {
		return 0, c.overflow(v)
	}
	return x, nil
}

func (c *Column) unsigned(v value.Value, hi uint64) (uint64, error) {
	if !v.Kind().IsInteger() {
		return 0, c.mismatch(v)
	}
	x, ok := value.AsUint64(v)
	if !ok || x > hi {
		return 0, c.overflow(v)
	}
	return x, nil
}

func (c *Column) float(v value.Value) (float64, error) {
	if !v.Kind().IsInteger() && !v.Kind().IsFloat() {
		return 0, c.mismatch(v)
	}
	f, _ := value.AsFloat64(v)
	return f, nil
}

func (c *Column) bytes(v value.Value) ([]byte, error) {
	switch x := v.(type) {
	case value.Bytes:
		return x, nil
	case value.String:
		return []byte(x), nil
	}
	return nil, c.mismatch(v)
}

func (c *Column) appendPrimitive(b array.Builder, v value.Value) error {
	t := c.node.Type
	switch t.ID {
	case schema.TypeInt8:
		x, err := c.signed(v, math.MinInt8, math.MaxInt8)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Int8Builder).Append(int8(x))
		}
	case schema.TypeInt16:
		x, err := c.signed(v, math.MinInt16, math.MaxInt16)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Int16Builder).Append(int16(x))
		}
	case schema.TypeInt32:
		x, err := c.signed(v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Int32Builder).Append(int32(x))
		}
	case schema.TypeInt64:
		x, err := c.signed(v, math.MinInt64, math.MaxInt64)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Int64Builder).Append(x)
		}
	case schema.TypeUint8:
		x, err := c.unsigned(v, math.MaxUint8)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Uint8Builder).Append(uint8(x))
		}
	case schema.TypeUint16:
		x, err := c.unsigned(v, math.MaxUint16)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Uint16Builder).Append(uint16(x))
		}
	case schema.TypeUint32:
		x, err := c.unsigned(v, math.MaxUint32)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Uint32Builder).Append(uint32(x))
		}
	case schema.TypeUint64:
		x, err := c.unsigned(v, math.MaxUint64)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Uint64Builder).Append(x)
		}
	case schema.TypeFloat32:
		f, err := c.float(v)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Float32Builder).Append(float32(f))
		}
	case schema.TypeFloat64:
		f, err := c.float(v)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Float64Builder).Append(f)
		}
	case schema.TypeBoolean:
		x, ok := v.(value.Boolean)
		if !ok {
			return c.mismatch(v)
		}
		if b != nil {
			b.(*array.BooleanBuilder).Append(bool(x))
		}
	case schema.TypeString:
		var s string
		switch x := v.(type) {
		case value.String:
			s = string(x)
		case value.Bytes:
			s = string(x)
		default:
			return c.mismatch(v)
		}
		if !utf8.ValidString(s) {
			return pqerr.Newf(pqerr.Conversion, "column %q: string is not valid UTF-8", c.path)
		}
		if b != nil {
			b.(*array.StringBuilder).Append(s)
		}
	case schema.TypeBinary:
		x, err := c.bytes(v)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.BinaryBuilder).Append(x)
		}
	case schema.TypeFixedLenByteArray:
		x, err := c.bytes(v)
		if err != nil {
			return err
		}
		if len(x) != int(t.Length) {
			return pqerr.Newf(pqerr.Conversion, "column %q: got %d bytes, want exactly %d",
				c.path, len(x), t.Length)
		}
		if b != nil {
			b.(*array.FixedSizeBinaryBuilder).Append(x)
		}
	case schema.TypeDate32:
		x, ok := v.(value.Date32)
		if !ok {
			return c.mismatch(v)
		}
		if b != nil {
			b.(*array.Date32Builder).Append(arrow.Date32(x))
		}
	case schema.TypeDate64:
		var ms int64
		switch x := v.(type) {
		case value.Date64:
			ms = int64(x)
		case value.Date32:
			ms = int64(x) * msPerDay
		default:
			return c.mismatch(v)
		}
		if ms%msPerDay != 0 {
			return pqerr.Newf(pqerr.Conversion, "column %q: Date64 value %d is not a whole number of days",
				c.path, ms)
		}
		if b != nil {
			b.(*array.Date64Builder).Append(arrow.Date64(ms))
		}
	case schema.TypeDecimal128:
		n, err := c.decimal128(v)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Decimal128Builder).Append(n)
		}
	case schema.TypeDecimal256:
		n, err := c.decimal256(v)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.Decimal256Builder).Append(n)
		}
	case schema.TypeTimestampSecond, schema.TypeTimestampMillis, schema.TypeTimestampMicros, schema.TypeTimestampNanos:
		x, err := c.timestamp(v)
		if err != nil {
			return err
		}
		if b != nil {
			b.(*array.TimestampBuilder).Append(arrow.Timestamp(x))
		}
	case schema.TypeTimeMillis:
		x, ok := v.(value.TimeMillis)
		if !ok {
			return c.mismatch(v)
		}
		if b != nil {
			b.(*array.Time32Builder).Append(arrow.Time32(x))
		}
	case schema.TypeTimeMicros:
		var us int64
		switch x := v.(type) {
		case value.TimeMicros:
			us = int64(x)
		case value.TimeMillis:
			us = int64(x) * 1000
		default:
			return c.mismatch(v)
		}
		if b != nil {
			b.(*array.Time64Builder).Append(arrow.Time64(us))
		}
	default:
		return pqerr.Newf(pqerr.Unsupported, "column %q: type %s cannot be written", c.path, t)
	}
	return nil
}

func (c *Column) decimalMantissa(v value.Value) (*big.Int, error) {
	scale := c.node.Type.Scale
	switch x := v.(type) {
	case value.Decimal128:
		if x.Scale != scale {
			return nil, c.scaleMismatch(x.Scale)
		}
		return x.BigInt(), nil
	case value.Decimal256:
		if x.Scale != scale {
			return nil, c.scaleMismatch(x.Scale)
		}
		if x.Mantissa == nil {
			return new(big.Int), nil
		}
		return x.Mantissa, nil
	}
	if v.Kind().IsInteger() {
		m := new(big.Int)
		if i, ok := value.AsInt64(v); ok {
			m.SetInt64(i)
		} else {
			u, _ := value.AsUint64(v)
			m.SetUint64(u)
		}
		return m.Mul(m, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)), nil
	}
	return nil, c.mismatch(v)
}

func (c *Column) scaleMismatch(got int32) error {
	return pqerr.Newf(pqerr.Conversion, "column %q: decimal scale %d does not match column scale %d",
		c.path, got, c.node.Type.Scale)
}

func (c *Column) decimal128(v value.Value) (decimal128.Num, error) {
	if d, ok := v.(value.Decimal128); ok && d.Scale == c.node.Type.Scale {
		n := decimal128.New(d.Hi, d.Lo)
		if !n.FitsInPrecision(c.node.Type.Precision) {
			return decimal128.Num{}, c.overflow(v)
		}
		return n, nil
	}
	m, err := c.decimalMantissa(v)
	if err != nil {
		return decimal128.Num{}, err
	}
	if m.BitLen() > 127 {
		return decimal128.Num{}, c.overflow(v)
	}
	n := decimal128.FromBigInt(m)
	if !n.FitsInPrecision(c.node.Type.Precision) {
		return decimal128.Num{}, c.overflow(v)
	}
	return n, nil
}

func (c *Column) decimal256(v value.Value) (decimal256.Num, error) {
	m, err := c.decimalMantissa(v)
	if err != nil {
		return decimal256.Num{}, err
	}
	if new(big.Int).Abs(m).Cmp(c.maxMant) > 0 {
		return decimal256.Num{}, c.overflow(v)
	}
	return decimal256.FromBigInt(m), nil
}

var valueUnits = map[schema.TypeID]value.TimeUnit{
	schema.TypeTimestampSecond: value.Second,
	schema.TypeTimestampMillis: value.Millisecond,
	schema.TypeTimestampMicros: value.Microsecond,
	schema.TypeTimestampNanos:  value.Nanosecond,
}

// timestamp returns the epoch of v in the column unit. Integers are taken as
// epochs in the column unit already; timestamps of another unit are rescaled
// when that is exact. A timestamp must carry the column's zone annotation.
func (c *Column) timestamp(v value.Value) (int64, error) {
	unit := valueUnits[c.node.Type.ID]
	if v.Kind().IsInteger() {
		x, ok := value.AsInt64(v)
		if !ok {
			return 0, c.overflow(v)
		}
		return x, nil
	}
	ts, ok := v.(value.Timestamp)
	if !ok {
		return 0, c.mismatch(v)
	}
	if tz := c.node.Type.Timezone; ts.TZ != tz {
		return 0, pqerr.Newf(pqerr.Conversion, "column %q: timestamp zone %q does not match column zone %q",
			c.path, ts.TZ, tz)
	}
	x, ok := ts.Convert(unit)
	if !ok {
		return 0, c.overflow(v)
	}
	if back, _ := value.ConvertEpoch(x, unit, ts.Unit); back != ts.Epoch {
		return 0, pqerr.Newf(pqerr.Conversion, "column %q: timestamp %d%s loses precision in unit %s",
			c.path, ts.Epoch, ts.Unit, unit)
	}
	return x, nil
}
