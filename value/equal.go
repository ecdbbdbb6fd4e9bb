package value

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/big"

	"github.com/cespare/xxhash/v2"
)

const (
	canonicalNaN64 = 0x7ff8000000000001
	canonicalNaN32 = 0x7fc00001
)

// floatBits64 maps every NaN to one pattern and both zeros to +0, giving a
// total equality that Hash can agree with.
func floatBits64(f float64) uint64 {
	switch {
	case math.IsNaN(f):
		return canonicalNaN64
	case f == 0:
		return 0
	}
	return math.Float64bits(f)
}

func floatBits32(f float32) uint32 {
	switch {
	case f != f:
		return canonicalNaN32
	case f == 0:
		return 0
	}
	return math.Float32bits(f)
}

func mantissa(d Decimal256) *big.Int {
	if d.Mantissa == nil {
		return new(big.Int)
	}
	return d.Mantissa
}

// Equal reports whether a and b are structurally equal. Lists and Records
// compare element by element in order; Maps compare as ordered sequences of
// entries, so the same entries in a different order are not equal.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Null:
		return true
	case Int8:
		return x == b.(Int8)
	case Int16:
		return x == b.(Int16)
	case Int32:
		return x == b.(Int32)
	case Int64:
		return x == b.(Int64)
	case Uint8:
		return x == b.(Uint8)
	case Uint16:
		return x == b.(Uint16)
	case Uint32:
		return x == b.(Uint32)
	case Uint64:
		return x == b.(Uint64)
	case Float16:
		return floatBits32(float32(x)) == floatBits32(float32(b.(Float16)))
	case Float32:
		return floatBits32(float32(x)) == floatBits32(float32(b.(Float32)))
	case Float64:
		return floatBits64(float64(x)) == floatBits64(float64(b.(Float64)))
	case Boolean:
		return x == b.(Boolean)
	case String:
		return x == b.(String)
	case Bytes:
		return bytes.Equal(x, b.(Bytes))
	case Date32:
		return x == b.(Date32)
	case Date64:
		return x == b.(Date64)
	case Decimal128:
		return x == b.(Decimal128)
	case Decimal256:
		y := b.(Decimal256)
		return x.Scale == y.Scale && mantissa(x).Cmp(mantissa(y)) == 0
	case Timestamp:
		return x == b.(Timestamp)
	case TimeMillis:
		return x == b.(TimeMillis)
	case TimeMicros:
		return x == b.(TimeMicros)
	case List:
		y := b.(List)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Map:
		y := b.(Map)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i].Key, y[i].Key) || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	case Record:
		y := b.(Record)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i].Name != y[i].Name || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Hash returns a structural hash of v. Equal values hash equally.
func Hash(v Value) uint64 {
	d := xxhash.New()
	h := hasher{d: d}
	h.value(v)
	return d.Sum64()
}

type hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func (h *hasher) u8(b byte) { _, _ = h.d.Write([]byte{b}) }

func (h *hasher) u64(x uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], x)
	_, _ = h.d.Write(h.buf[:])
}

func (h *hasher) bytes(b []byte) {
	h.u64(uint64(len(b)))
	_, _ = h.d.Write(b)
}

func (h *hasher) value(v Value) {
	if v == nil {
		v = Null{}
	}
	h.u8(byte(v.Kind()))
	switch x := v.(type) {
	case Null:
	case Int8:
		h.u64(uint64(x))
	case Int16:
		h.u64(uint64(x))
	case Int32:
		h.u64(uint64(x))
	case Int64:
		h.u64(uint64(x))
	case Uint8:
		h.u64(uint64(x))
	case Uint16:
		h.u64(uint64(x))
	case Uint32:
		h.u64(uint64(x))
	case Uint64:
		h.u64(uint64(x))
	case Float16:
		h.u64(uint64(floatBits32(float32(x))))
	case Float32:
		h.u64(uint64(floatBits32(float32(x))))
	case Float64:
		h.u64(floatBits64(float64(x)))
	case Boolean:
		if x {
			h.u8(1)
		} else {
			h.u8(0)
		}
	case String:
		h.u64(uint64(len(x)))
		_, _ = h.d.WriteString(string(x))
	case Bytes:
		h.bytes(x)
	case Date32:
		h.u64(uint64(x))
	case Date64:
		h.u64(uint64(x))
	case Decimal128:
		h.u64(uint64(x.Hi))
		h.u64(x.Lo)
		h.u64(uint64(x.Scale))
	case Decimal256:
		m := mantissa(x)
		h.u64(uint64(m.Sign() + 1))
		h.bytes(m.Bytes())
		h.u64(uint64(x.Scale))
	case Timestamp:
		h.u64(uint64(x.Epoch))
		h.u64(uint64(len(x.TZ)))
		_, _ = h.d.WriteString(x.TZ)
	case TimeMillis:
		h.u64(uint64(x))
	case TimeMicros:
		h.u64(uint64(x))
	case List:
		h.u64(uint64(len(x)))
		for _, e := range x {
			h.value(e)
		}
	case Map:
		h.u64(uint64(len(x)))
		for _, e := range x {
			h.value(e.Key)
			h.value(e.Value)
		}
	case Record:
		h.u64(uint64(len(x)))
		for _, f := range x {
			h.u64(uint64(len(f.Name)))
			_, _ = h.d.WriteString(f.Name)
			h.value(f.Value)
		}
	}
}
