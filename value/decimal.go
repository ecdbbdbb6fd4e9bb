package value

import (
	"math/big"

	"github.com/cockroachdb/apd/v3"

	"github.com/VanDung-dev/parquet-core/pqerr"
)

var (
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	two128    = new(big.Int).Lsh(big.NewInt(1), 128)
	mask64    = new(big.Int).SetUint64(^uint64(0))
)

// NewDecimal128FromInt64 returns v * 10^-scale.
func NewDecimal128FromInt64(v int64, scale int32) Decimal128 {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	return Decimal128{Hi: hi, Lo: uint64(v), Scale: scale}
}

// NewDecimal128FromBig returns m * 10^-scale. ok is false when m does not fit
// in 128 bits.
func NewDecimal128FromBig(m *big.Int, scale int32) (d Decimal128, ok bool) {
	if m.Cmp(minInt128) < 0 || m.Cmp(maxInt128) > 0 {
		return Decimal128{}, false
	}
	u := new(big.Int).Set(m)
	if u.Sign() < 0 {
		u.Add(u, two128)
	}
	lo := new(big.Int).And(u, mask64).Uint64()
	hi := new(big.Int).Rsh(u, 64).Uint64()
	return Decimal128{Hi: int64(hi), Lo: lo, Scale: scale}, true
}

// BigInt returns the mantissa.
func (d Decimal128) BigInt() *big.Int {
	b := big.NewInt(d.Hi)
	b.Lsh(b, 64)
	return b.Add(b, new(big.Int).SetUint64(d.Lo))
}

// Widen returns d as a Decimal256 with the same scale.
func (d Decimal128) Widen() Decimal256 {
	return Decimal256{Mantissa: d.BigInt(), Scale: d.Scale}
}

// Narrow returns d as a Decimal128. ok is false when the mantissa needs more
// than 128 bits.
func (d Decimal256) Narrow() (Decimal128, bool) {
	return NewDecimal128FromBig(mantissa(d), d.Scale)
}

// Precision returns the number of decimal digits of the mantissa.
func (d Decimal256) Precision() int32 {
	m := new(big.Int).Abs(mantissa(d))
	if m.Sign() == 0 {
		return 1
	}
	return int32(len(m.Text(10)))
}

func (d Decimal128) String() string { return decimalText(d.BigInt(), d.Scale) }
func (d Decimal256) String() string { return decimalText(mantissa(d), d.Scale) }

func decimalText(m *big.Int, scale int32) string {
	d := apd.Decimal{Exponent: -scale, Negative: m.Sign() < 0}
	d.Coeff.SetMathBigInt(new(big.Int).Abs(m))
	return d.Text('f')
}

// ParseDecimal parses a finite decimal literal such as "-12.340". The scale
// is the number of digits after the point, trailing zeros included.
func ParseDecimal(s string) (Decimal256, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Decimal256{}, pqerr.Wrapf(pqerr.InvalidArgument, err, "failed to parse decimal %q", s)
	}
	if d.Form != apd.Finite {
		return Decimal256{}, pqerr.Newf(pqerr.InvalidArgument, "decimal %q is not finite", s)
	}
	m := d.Coeff.MathBigInt()
	if d.Negative {
		m.Neg(m)
	}
	scale := -d.Exponent
	if scale < 0 {
		// positive exponents are folded into the mantissa
		m.Mul(m, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-scale)), nil))
		scale = 0
	}
	return Decimal256{Mantissa: m, Scale: scale}, nil
}

// MaxDecimalMantissa returns the largest mantissa with the given number of
// digits, 10^precision - 1.
func MaxDecimalMantissa(precision int32) *big.Int {
	m := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(precision)), nil)
	return m.Sub(m, big.NewInt(1))
}
