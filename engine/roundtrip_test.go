package engine

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

func TestIDAndDataScenario(t *testing.T) {
	s := mustSchema(t,
		schema.Primitive("id", schema.Int32, false),
		schema.Primitive("data", schema.Binary, true),
	)
	rows := [][]value.Value{
		{value.Int32(1), value.Bytes{0x00, 0x01}},
		{value.Int32(2), value.Null{}},
		{value.Int32(3), value.Bytes{}},
	}
	data := writeFile(t, s, DefaultWriterProperties(), rows)

	got := readRows(t, NewReader(NewBytesSource(data)).ReadRows())
	requireRowsEqual(t, rows, got)
	require.True(t, value.IsNull(got[1][1]))
	b, ok := got[2][1].(value.Bytes)
	require.True(t, ok, "empty binary must not read back as null")
	require.Len(t, b, 0)
}

func TestBatchSizeDoesNotChangeContent(t *testing.T) {
	s := mustSchema(t, schema.Primitive("value", schema.Int32, false))
	rows := int32Rows(1000)

	for _, batch := range []int{1, 1000} {
		props := DefaultWriterProperties()
		props.BatchSize = batch
		data := writeFile(t, s, props, rows)

		r := NewReader(NewBytesSource(data))
		requireRowsEqual(t, rows, readRows(t, r.ReadRows()))

		md, err := r.Metadata()
		require.NoError(t, err)
		require.EqualValues(t, 1000, md.NumRows)
		require.Len(t, md.RowGroups, 1000/batch)
	}
}

func allTypesSchema(t *testing.T) *schema.Schema {
	return mustSchema(t,
		schema.Primitive("i8", schema.Int8, true),
		schema.Primitive("i16", schema.Int16, true),
		schema.Primitive("i32", schema.Int32, true),
		schema.Primitive("i64", schema.Int64, true),
		schema.Primitive("u8", schema.Uint8, true),
		schema.Primitive("u16", schema.Uint16, true),
		schema.Primitive("u32", schema.Uint32, true),
		schema.Primitive("u64", schema.Uint64, true),
		schema.Primitive("f32", schema.Float32, true),
		schema.Primitive("f64", schema.Float64, true),
		schema.Primitive("b", schema.Boolean, true),
		schema.Primitive("s", schema.String, true),
		schema.Primitive("bin", schema.Binary, true),
		schema.Primitive("d32", schema.Date32, true),
		schema.Primitive("d64", schema.Date64, true),
		schema.Primitive("dec", schema.Decimal128(20, 4), true),
		schema.Primitive("dec256", schema.Decimal256(60, 6), true),
		schema.Primitive("dec256s", schema.Decimal256(10, 2), true),
		schema.Primitive("ts_s", schema.TimestampSecond("Asia/Ho_Chi_Minh"), true),
		schema.Primitive("ts_ms", schema.TimestampMillis("UTC"), true),
		schema.Primitive("ts_us", schema.TimestampMicros("+05:30"), true),
		schema.Primitive("ts_ns", schema.TimestampNanos(""), true),
		schema.Primitive("t_ms", schema.TimeMillis, true),
		schema.Primitive("t_us", schema.TimeMicros, true),
		schema.Primitive("fixed", schema.FixedLenByteArray(4), true),
	)
}

func TestAllPrimitiveTypesRoundTrip(t *testing.T) {
	s := allTypesSchema(t)
	wide, _ := new(big.Int).SetString("-999999999999999999999999999999999999999999999999999999", 10)
	full := []value.Value{
		value.Int8(math.MinInt8),
		value.Int16(math.MaxInt16),
		value.Int32(math.MinInt32),
		value.Int64(math.MaxInt64),
		value.Uint8(math.MaxUint8),
		value.Uint16(math.MaxUint16),
		value.Uint32(math.MaxUint32),
		value.Uint64(math.MaxUint64),
		value.Float32(-1.25),
		value.Float64(math.Inf(1)),
		value.Boolean(true),
		value.String("日本語"),
		value.Bytes{0xde, 0xad, 0xbe, 0xef},
		value.Date32(-719162),
		value.Date64(20000 * 86_400_000),
		value.NewDecimal128FromInt64(-123456789, 4),
		value.Decimal256{Mantissa: wide, Scale: 6},
		value.Decimal256{Mantissa: big.NewInt(12345), Scale: 2},
		value.Timestamp{Epoch: 1700000000, Unit: value.Second, TZ: "Asia/Ho_Chi_Minh"},
		value.Timestamp{Epoch: -1, Unit: value.Millisecond, TZ: "UTC"},
		value.Timestamp{Epoch: 1700000000123456, Unit: value.Microsecond, TZ: "+05:30"},
		value.Timestamp{Epoch: 1700000000123456789, Unit: value.Nanosecond},
		value.TimeMillis(86_399_999),
		value.TimeMicros(43_200_000_000),
		value.Bytes("abcd"),
	}
	nulls := make([]value.Value, len(full))
	for i := range nulls {
		nulls[i] = value.Null{}
	}
	rows := [][]value.Value{full, nulls, full}

	for _, c := range []Compression{{Codec: Uncompressed}, {Codec: Snappy}, {Codec: Zstd, Level: 3}, {Codec: Gzip}} {
		t.Run(c.String(), func(t *testing.T) {
			props := DefaultWriterProperties()
			props.Compression = c
			data := writeFile(t, s, props, rows)
			r := NewReader(NewBytesSource(data))
			requireRowsEqual(t, rows, readRows(t, r.ReadRows()))

			md, err := r.Metadata()
			require.NoError(t, err)
			require.True(t, md.Schema.Equal(s))
		})
	}
}

func ownerSchema(t *testing.T) *schema.Schema {
	return mustSchema(t,
		schema.Primitive("id", schema.Int64, false),
		schema.Struct("owner", true,
			schema.Primitive("name", schema.String, false),
			schema.List("emails", true, schema.Struct("item", true,
				schema.Primitive("address", schema.String, false),
				schema.List("labels", true, schema.Primitive("item", schema.String, true)),
			)),
		),
		schema.Map("attrs", true,
			schema.Primitive("key", schema.String, false),
			schema.List("value", true, schema.Primitive("item", schema.Int32, true)),
		),
	)
}

func TestNestedRoundTrip(t *testing.T) {
	s := ownerSchema(t)
	email := func(addr string, labels value.Value) value.Value {
		return value.NewRecord(
			value.Field{Name: "address", Value: value.String(addr)},
			value.Field{Name: "labels", Value: labels},
		)
	}
	rows := [][]value.Value{
		{
			value.Int64(1),
			value.NewRecord(
				value.Field{Name: "name", Value: value.String("ann")},
				value.Field{Name: "emails", Value: value.List{
					email("a@x", value.List{value.String("work"), value.Null{}}),
					value.Null{},
					email("b@x", value.List{}),
				}},
			),
			value.Map{
				{Key: value.String("dup"), Value: value.List{value.Int32(1)}},
				{Key: value.String("dup"), Value: value.Null{}},
				{Key: value.String("a"), Value: value.List{}},
			},
		},
		{value.Int64(2), value.Null{}, value.Null{}},
		{
			value.Int64(3),
			value.NewRecord(
				value.Field{Name: "name", Value: value.String("")},
				value.Field{Name: "emails", Value: value.Null{}},
			),
			value.Map{},
		},
	}
	props := DefaultWriterProperties()
	props.BatchSize = 2
	data := writeFile(t, s, props, rows)
	requireRowsEqual(t, rows, readRows(t, NewReader(NewBytesSource(data)).ReadRows()))
}

func TestMapDuplicateKeysKeepOrder(t *testing.T) {
	s := mustSchema(t, schema.Map("m", false,
		schema.Primitive("key", schema.Int32, false),
		schema.Primitive("value", schema.String, true),
	))
	m := value.Map{
		{Key: value.Int32(2), Value: value.String("b")},
		{Key: value.Int32(1), Value: value.String("a")},
		{Key: value.Int32(2), Value: value.String("c")},
		{Key: value.Int32(2), Value: value.Null{}},
	}
	data := writeFile(t, s, DefaultWriterProperties(), [][]value.Value{{m}})
	got := readRows(t, NewReader(NewBytesSource(data)).ReadRows())
	require.Len(t, got, 1)
	require.True(t, value.Equal(m, got[0][0]))
	require.Len(t, got[0][0].(value.Map), 4)
}

func TestDecimalBoundariesRoundTrip(t *testing.T) {
	for _, tc := range []struct{ precision, scale int32 }{{1, 0}, {9, 2}, {18, 18}, {38, 10}} {
		maxM := value.MaxDecimalMantissa(tc.precision)
		hi, ok := value.NewDecimal128FromBig(maxM, tc.scale)
		require.True(t, ok)
		lo, ok := value.NewDecimal128FromBig(new(big.Int).Neg(maxM), tc.scale)
		require.True(t, ok)
		zero := value.NewDecimal128FromInt64(0, tc.scale)

		s := mustSchema(t, schema.Primitive("d", schema.Decimal128(tc.precision, tc.scale), false))
		rows := [][]value.Value{{hi}, {lo}, {zero}}
		data := writeFile(t, s, DefaultWriterProperties(), rows)
		requireRowsEqual(t, rows, readRows(t, NewReader(NewBytesSource(data)).ReadRows()))
	}
}

func TestNullPatterns(t *testing.T) {
	s := mustSchema(t,
		schema.Primitive("n", schema.Int64, true),
		schema.List("l", true, schema.Primitive("item", schema.String, true)),
	)
	const n = 300
	patterns := map[string]func(i int) bool{
		"all_null":    func(int) bool { return true },
		"all_present": func(int) bool { return false },
		"alternating": func(i int) bool { return i%2 == 0 },
		"sparse":      func(i int) bool { return i%37 == 0 },
		"dense":       func(i int) bool { return i%37 != 0 },
		"blocks":      func(i int) bool { return (i/50)%2 == 1 },
	}
	for name, isNull := range patterns {
		t.Run(name, func(t *testing.T) {
			rows := make([][]value.Value, n)
			for i := range rows {
				if isNull(i) {
					rows[i] = []value.Value{value.Null{}, value.Null{}}
				} else {
					rows[i] = []value.Value{value.Int64(i), value.List{value.String("x"), value.Null{}}}
				}
			}
			props := DefaultWriterProperties()
			props.BatchSize = 64 // nulls span row groups
			data := writeFile(t, s, props, rows)
			got := readRows(t, NewReader(NewBytesSource(data)).ReadRows())
			requireRowsEqual(t, rows, got)
		})
	}
}
