package value

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/VanDung-dev/parquet-core/pqerr"
)

func TestIsNullAndTypeName(t *testing.T) {
	require.True(t, IsNull(Null{}))
	require.True(t, IsNull(nil))
	require.False(t, IsNull(Int32(0)))
	require.False(t, IsNull(Bytes{}))

	require.Equal(t, "Int32", TypeName(Int32(1)))
	require.Equal(t, "Null", TypeName(nil))
	require.Equal(t, "TimestampMicros", TypeName(Timestamp{Epoch: 1, Unit: Microsecond, TZ: "UTC"}))
	require.Equal(t, "Map", TypeName(Map{}))
}

func TestEqualStructural(t *testing.T) {
	a := Record{
		{Name: "id", Value: Int64(7)},
		{Name: "tags", Value: List{String("x"), Null{}, String("y")}},
		{Name: "attrs", Value: Map{{Key: String("k"), Value: Int32(1)}}},
	}
	b := Record{
		{Name: "id", Value: Int64(7)},
		{Name: "tags", Value: List{String("x"), nil, String("y")}},
		{Name: "attrs", Value: Map{{Key: String("k"), Value: Int32(1)}}},
	}
	require.True(t, Equal(a, b))
	require.Equal(t, Hash(a), Hash(b))

	require.False(t, Equal(Int32(1), Int64(1)), "kinds must match")
	require.False(t, Equal(Bytes{}, Null{}), "empty bytes are not null")
	require.False(t, Equal(
		Record{{Name: "a", Value: Int8(1)}},
		Record{{Name: "b", Value: Int8(1)}},
	))
}

func TestMapOrderAndDuplicatesMatter(t *testing.T) {
	m1 := Map{{Key: String("a"), Value: Int32(1)}, {Key: String("a"), Value: Int32(2)}}
	m2 := Map{{Key: String("a"), Value: Int32(2)}, {Key: String("a"), Value: Int32(1)}}
	m3 := Map{{Key: String("a"), Value: Int32(1)}}

	require.True(t, Equal(m1, m1))
	require.False(t, Equal(m1, m2))
	require.False(t, Equal(m1, m3))
	require.Equal(t, []Value{String("a"), String("a")}, m1.Keys())
}

func TestFloatTotalEquality(t *testing.T) {
	nan1 := Float64(math.NaN())
	nan2 := Float64(math.Float64frombits(0x7ff0000000000abc))
	require.True(t, Equal(nan1, nan2))
	require.Equal(t, Hash(nan1), Hash(nan2))

	negZero := Float64(math.Copysign(0, -1))
	require.True(t, Equal(negZero, Float64(0)))
	require.Equal(t, Hash(negZero), Hash(Float64(0)))

	require.True(t, Equal(Float32(float32(math.NaN())), Float32(float32(math.NaN()))))
	require.False(t, Equal(Float32(1.5), Float16(1.5)))
	require.False(t, Equal(Float64(1), Float64(math.Nextafter(1, 2))))
}

func TestHashDistinguishesShapes(t *testing.T) {
	seen := map[uint64]Value{}
	values := []Value{
		Null{}, Int32(0), Int64(0), String(""), Bytes{}, List{}, Map{}, Record{},
		List{Int32(1), Int32(2)}, List{Int32(2), Int32(1)},
		String("ab"), List{String("a"), String("b")},
		Timestamp{Epoch: 1, Unit: Second}, Timestamp{Epoch: 1, Unit: Second, TZ: "UTC"},
	}
	for _, v := range values {
		h := Hash(v)
		prev, dup := seen[h]
		require.False(t, dup, "%s collides with %s", Format(v), Format(prev))
		seen[h] = v
	}
}

func TestDecimal128BigRoundTrip(t *testing.T) {
	cases := []*big.Int{
		big.NewInt(0),
		big.NewInt(-1),
		big.NewInt(123456789),
		maxInt128,
		minInt128,
		MaxDecimalMantissa(38),
		new(big.Int).Neg(MaxDecimalMantissa(38)),
	}
	for _, m := range cases {
		d, ok := NewDecimal128FromBig(m, 4)
		require.True(t, ok, m.String())
		require.Zero(t, d.BigInt().Cmp(m), m.String())
		require.Equal(t, int32(4), d.Scale)
	}

	_, ok := NewDecimal128FromBig(new(big.Int).Add(maxInt128, big.NewInt(1)), 0)
	require.False(t, ok)

	require.Equal(t, NewDecimal128FromInt64(-5, 2), mustDecimal128(t, big.NewInt(-5), 2))
}

func mustDecimal128(t *testing.T, m *big.Int, scale int32) Decimal128 {
	d, ok := NewDecimal128FromBig(m, scale)
	require.True(t, ok)
	return d
}

func TestDecimalText(t *testing.T) {
	require.Equal(t, "-1.05", NewDecimal128FromInt64(-105, 2).String())
	require.Equal(t, "0.000", NewDecimal128FromInt64(0, 3).String())

	d, err := ParseDecimal("-12.340")
	require.NoError(t, err)
	require.Equal(t, int32(3), d.Scale)
	require.Zero(t, d.Mantissa.Cmp(big.NewInt(-12340)))
	require.Equal(t, "-12.340", d.String())
	require.Equal(t, int32(5), d.Precision())

	d, err = ParseDecimal("1E+2")
	require.NoError(t, err)
	require.Equal(t, int32(0), d.Scale)
	require.Zero(t, d.Mantissa.Cmp(big.NewInt(100)))

	_, err = ParseDecimal("NaN")
	require.True(t, pqerr.Is(err, pqerr.InvalidArgument), "%v", err)
	_, err = ParseDecimal("12.x")
	require.True(t, pqerr.Is(err, pqerr.InvalidArgument), "%v", err)

	require.True(t, Equal(Decimal256{Scale: 2}, Decimal256{Mantissa: big.NewInt(0), Scale: 2}))
	narrow, ok := d.Narrow()
	require.True(t, ok)
	require.True(t, Equal(narrow.Widen(), d))
}

func TestTimestampTime(t *testing.T) {
	ts := Timestamp{Epoch: 1_700_000_000_123, Unit: Millisecond}
	got, err := ts.Time()
	require.NoError(t, err)
	require.True(t, got.Equal(time.UnixMilli(1_700_000_000_123)))
	require.Equal(t, time.UTC, got.Location())

	ts.TZ = "+05:30"
	got, err = ts.Time()
	require.NoError(t, err)
	_, offset := got.Zone()
	require.Equal(t, 5*3600+30*60, offset)
	require.True(t, got.Equal(time.UnixMilli(1_700_000_000_123)))

	ts.TZ = "-0945"
	got, err = ts.Time()
	require.NoError(t, err)
	_, offset = got.Zone()
	require.Equal(t, -(9*3600 + 45*60), offset)

	ts.TZ = "+25:00"
	_, err = ts.Time()
	require.True(t, pqerr.Is(err, pqerr.InvalidArgument), "%v", err)

	ts.TZ = "Nowhere/Atlantis"
	_, err = ts.Time()
	require.True(t, pqerr.Is(err, pqerr.InvalidArgument), "%v", err)
}

func TestConvertEpoch(t *testing.T) {
	v, ok := ConvertEpoch(3, Second, Nanosecond)
	require.True(t, ok)
	require.Equal(t, int64(3_000_000_000), v)

	v, ok = ConvertEpoch(-1, Millisecond, Second)
	require.True(t, ok)
	require.Equal(t, int64(-1), v)

	v, ok = ConvertEpoch(1999, Microsecond, Millisecond)
	require.True(t, ok)
	require.Equal(t, int64(1), v)

	_, ok = ConvertEpoch(math.MaxInt64/10, Second, Nanosecond)
	require.False(t, ok)
}

func TestFormat(t *testing.T) {
	v := Record{
		{Name: "id", Value: Int32(1)},
		{Name: "data", Value: Bytes{0x00, 0x01}},
		{Name: "m", Value: Map{{Key: String("k"), Value: Null{}}}},
		{Name: "l", Value: List{Boolean(true), Float64(1.5)}},
	}
	require.Equal(t, `{id: 1, data: 0x0001, m: map{"k": null}, l: [true, 1.5]}`, Format(v))
}

func TestEstimateSizeGrowsWithContent(t *testing.T) {
	small := EstimateSize(String("a"))
	large := EstimateSize(String("a much longer string value"))
	require.Less(t, small, large)
	require.Greater(t, EstimateSize(List{Int64(1), Int64(2)}), EstimateSize(List{}))
}

func TestNumericAccessors(t *testing.T) {
	i, ok := AsInt64(Uint32(7))
	require.True(t, ok)
	require.Equal(t, int64(7), i)
	_, ok = AsInt64(Uint64(math.MaxUint64))
	require.False(t, ok)
	_, ok = AsUint64(Int8(-1))
	require.False(t, ok)
	f, ok := AsFloat64(Int16(-3))
	require.True(t, ok)
	require.Equal(t, -3.0, f)
	_, ok = AsFloat64(String("1"))
	require.False(t, ok)
}
