package value

import (
	"math/big"
)

// Kind identifies the concrete type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat16
	KindFloat32
	KindFloat64
	KindBoolean
	KindString
	KindBytes
	KindDate32
	KindDate64
	KindDecimal128
	KindDecimal256
	KindTimestampSecond
	KindTimestampMillis
	KindTimestampMicros
	KindTimestampNanos
	KindTimeMillis
	KindTimeMicros
	KindList
	KindMap
	KindRecord
)

var kindNames = [...]string{
	KindNull:            "Null",
	KindInt8:            "Int8",
	KindInt16:           "Int16",
	KindInt32:           "Int32",
	KindInt64:           "Int64",
	KindUint8:           "UInt8",
	KindUint16:          "UInt16",
	KindUint32:          "UInt32",
	KindUint64:          "UInt64",
	KindFloat16:         "Float16",
	KindFloat32:         "Float32",
	KindFloat64:         "Float64",
	KindBoolean:         "Boolean",
	KindString:          "String",
	KindBytes:           "Bytes",
	KindDate32:          "Date32",
	KindDate64:          "Date64",
	KindDecimal128:      "Decimal128",
	KindDecimal256:      "Decimal256",
	KindTimestampSecond: "TimestampSecond",
	KindTimestampMillis: "TimestampMillis",
	KindTimestampMicros: "TimestampMicros",
	KindTimestampNanos:  "TimestampNanos",
	KindTimeMillis:      "TimeMillis",
	KindTimeMicros:      "TimeMicros",
	KindList:            "List",
	KindMap:             "Map",
	KindRecord:          "Record",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// IsInteger reports whether k is one of the signed or unsigned integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUint64
}

// IsFloat reports whether k is a floating point kind.
func (k Kind) IsFloat() bool {
	return k >= KindFloat16 && k <= KindFloat64
}

// IsTimestamp reports whether k is one of the four timestamp kinds.
func (k Kind) IsTimestamp() bool {
	return k >= KindTimestampSecond && k <= KindTimestampNanos
}

// Value is a single datum. The set of implementations is closed.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	Int8    int8
	Int16   int16
	Int32   int32
	Int64   int64
	Uint8   uint8
	Uint16  uint16
	Uint32  uint32
	Uint64  uint64
	Float32 float32
	Float64 float64
	Boolean bool
	String  string
	Bytes   []byte

	// Float16 is a half precision float widened to 32 bits.
	Float16 float32

	// Date32 counts days since the Unix epoch.
	Date32 int32
	// Date64 counts milliseconds since the Unix epoch.
	Date64 int64

	// TimeMillis counts milliseconds since midnight.
	TimeMillis int32
	// TimeMicros counts microseconds since midnight.
	TimeMicros int64

	// List is an ordered sequence of values.
	List []Value
	// Map is an ordered sequence of entries. Keys may repeat; neither order
	// nor duplicates are ever collapsed.
	Map []MapEntry
	// Record is a struct value whose fields keep their insertion order.
	Record []Field
)

// Null is the explicit absence of a value.
type Null struct{}

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   Value
	Value Value
}

// Field is one named member of a Record.
type Field struct {
	Name  string
	Value Value
}

// Decimal128 is a fixed point number with a two's complement 128-bit
// mantissa split in a signed high word and an unsigned low word. The number
// is Mantissa * 10^-Scale.
type Decimal128 struct {
	Hi    int64
	Lo    uint64
	Scale int32
}

// Decimal256 is a fixed point number with an arbitrary precision mantissa.
// A nil Mantissa is zero.
type Decimal256 struct {
	Mantissa *big.Int
	Scale    int32
}

// TimeUnit is the resolution of a Timestamp.
type TimeUnit uint8

const (
	Second TimeUnit = iota
	Millisecond
	Microsecond
	Nanosecond
)

func (u TimeUnit) String() string {
	switch u {
	case Second:
		return "s"
	case Millisecond:
		return "ms"
	case Microsecond:
		return "us"
	case Nanosecond:
		return "ns"
	}
	return "unknown"
}

// PerSecond returns how many units make one second.
func (u TimeUnit) PerSecond() int64 {
	switch u {
	case Millisecond:
		return 1e3
	case Microsecond:
		return 1e6
	case Nanosecond:
		return 1e9
	}
	return 1
}

// Timestamp is an instant counted in Unit since the Unix epoch. TZ is an
// optional time zone annotation (IANA name or fixed offset); the epoch count
// is always UTC based.
type Timestamp struct {
	Epoch int64
	Unit  TimeUnit
	TZ    string
}

// NewRecord returns a Record with the fields in the given order.
func NewRecord(fields ...Field) Record { return Record(fields) }

// Get returns the value of the first field named name.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Keys returns every key of the map in order, duplicates included.
func (m Map) Keys() []Value {
	keys := make([]Value, len(m))
	for i, e := range m {
		keys[i] = e.Key
	}
	return keys
}

func (Null) Kind() Kind       { return KindNull }
func (Int8) Kind() Kind       { return KindInt8 }
func (Int16) Kind() Kind      { return KindInt16 }
func (Int32) Kind() Kind      { return KindInt32 }
func (Int64) Kind() Kind      { return KindInt64 }
func (Uint8) Kind() Kind      { return KindUint8 }
func (Uint16) Kind() Kind     { return KindUint16 }
func (Uint32) Kind() Kind     { return KindUint32 }
func (Uint64) Kind() Kind     { return KindUint64 }
func (Float16) Kind() Kind    { return KindFloat16 }
func (Float32) Kind() Kind    { return KindFloat32 }
func (Float64) Kind() Kind    { return KindFloat64 }
func (Boolean) Kind() Kind    { return KindBoolean }
func (String) Kind() Kind     { return KindString }
func (Bytes) Kind() Kind      { return KindBytes }
func (Date32) Kind() Kind     { return KindDate32 }
func (Date64) Kind() Kind     { return KindDate64 }
func (Decimal128) Kind() Kind { return KindDecimal128 }
func (Decimal256) Kind() Kind { return KindDecimal256 }
func (TimeMillis) Kind() Kind { return KindTimeMillis }
func (TimeMicros) Kind() Kind { return KindTimeMicros }
func (List) Kind() Kind       { return KindList }
func (Map) Kind() Kind        { return KindMap }
func (Record) Kind() Kind     { return KindRecord }

func (t Timestamp) Kind() Kind {
	switch t.Unit {
	case Second:
		return KindTimestampSecond
	case Millisecond:
		return KindTimestampMillis
	case Microsecond:
		return KindTimestampMicros
	default:
		return KindTimestampNanos
	}
}

func (Null) isValue()       {}
func (Int8) isValue()       {}
func (Int16) isValue()      {}
func (Int32) isValue()      {}
func (Int64) isValue()      {}
func (Uint8) isValue()      {}
func (Uint16) isValue()     {}
func (Uint32) isValue()     {}
func (Uint64) isValue()     {}
func (Float16) isValue()    {}
func (Float32) isValue()    {}
func (Float64) isValue()    {}
func (Boolean) isValue()    {}
func (String) isValue()     {}
func (Bytes) isValue()      {}
func (Date32) isValue()     {}
func (Date64) isValue()     {}
func (Decimal128) isValue() {}
func (Decimal256) isValue() {}
func (Timestamp) isValue()  {}
func (TimeMillis) isValue() {}
func (TimeMicros) isValue() {}
func (List) isValue()       {}
func (Map) isValue()        {}
func (Record) isValue()     {}

// IsNull reports whether v is Null. A nil interface counts as Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// TypeName returns the name of the concrete type of v.
func TypeName(v Value) string {
	if v == nil {
		return KindNull.String()
	}
	return v.Kind().String()
}

// AsInt64 returns the value of any signed integer kind, and of unsigned
// kinds that fit in an int64.
func AsInt64(v Value) (int64, bool) {
	switch x := v.(type) {
	case Int8:
		return int64(x), true
	case Int16:
		return int64(x), true
	case Int32:
		return int64(x), true
	case Int64:
		return int64(x), true
	case Uint8:
		return int64(x), true
	case Uint16:
		return int64(x), true
	case Uint32:
		return int64(x), true
	case Uint64:
		if uint64(x) > 1<<63-1 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

// AsUint64 returns the value of any unsigned integer kind, and of signed
// kinds that are not negative.
func AsUint64(v Value) (uint64, bool) {
	switch x := v.(type) {
	case Uint8:
		return uint64(x), true
	case Uint16:
		return uint64(x), true
	case Uint32:
		return uint64(x), true
	case Uint64:
		return uint64(x), true
	}
	if i, ok := AsInt64(v); ok && i >= 0 {
		return uint64(i), true
	}
	return 0, false
}

// AsFloat64 widens any float or integer kind.
func AsFloat64(v Value) (float64, bool) {
	switch x := v.(type) {
	case Float16:
		return float64(x), true
	case Float32:
		return float64(x), true
	case Float64:
		return float64(x), true
	case Uint64:
		return float64(x), true
	}
	if i, ok := AsInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
