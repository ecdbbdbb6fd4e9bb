package schema

import (
	"fmt"
)

// TypeID enumerates the primitive types.
type TypeID uint8

const (
	TypeInvalid TypeID = iota
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeBoolean
	TypeString
	TypeBinary
	TypeDate32
	TypeDate64
	TypeDecimal128
	TypeDecimal256
	TypeTimestampSecond
	TypeTimestampMillis
	TypeTimestampMicros
	TypeTimestampNanos
	TypeTimeMillis
	TypeTimeMicros
	TypeFixedLenByteArray
)

var typeNames = map[TypeID]string{
	TypeInt8:              "Int8",
	TypeInt16:             "Int16",
	TypeInt32:             "Int32",
	TypeInt64:             "Int64",
	TypeUint8:             "UInt8",
	TypeUint16:            "UInt16",
	TypeUint32:            "UInt32",
	TypeUint64:            "UInt64",
	TypeFloat32:           "Float32",
	TypeFloat64:           "Float64",
	TypeBoolean:           "Boolean",
	TypeString:            "String",
	TypeBinary:            "Binary",
	TypeDate32:            "Date32",
	TypeDate64:            "Date64",
	TypeDecimal128:        "Decimal128",
	TypeDecimal256:        "Decimal256",
	TypeTimestampSecond:   "TimestampSecond",
	TypeTimestampMillis:   "TimestampMillis",
	TypeTimestampMicros:   "TimestampMicros",
	TypeTimestampNanos:    "TimestampNanos",
	TypeTimeMillis:        "TimeMillis",
	TypeTimeMicros:        "TimeMicros",
	TypeFixedLenByteArray: "FixedLenByteArray",
}

var typesByName = func() map[string]TypeID {
	m := make(map[string]TypeID, len(typeNames))
	for id, name := range typeNames {
		m[name] = id
	}
	return m
}()

func (id TypeID) String() string {
	if name, ok := typeNames[id]; ok {
		return name
	}
	return fmt.Sprintf("TypeID(%d)", uint8(id))
}

// ParseTypeID returns the TypeID named name.
func ParseTypeID(name string) (TypeID, bool) {
	id, ok := typesByName[name]
	return id, ok
}

// PrimitiveType is a leaf type. Precision and Scale apply to decimals,
// Timezone to timestamps and Length to fixed length byte arrays; the other
// fields are zero.
type PrimitiveType struct {
	ID        TypeID
	Precision int32
	Scale     int32
	Timezone  string
	Length    int32
}

var (
	Int8    = PrimitiveType{ID: TypeInt8}
	Int16   = PrimitiveType{ID: TypeInt16}
	Int32   = PrimitiveType{ID: TypeInt32}
	Int64   = PrimitiveType{ID: TypeInt64}
	Uint8   = PrimitiveType{ID: TypeUint8}
	Uint16  = PrimitiveType{ID: TypeUint16}
	Uint32  = PrimitiveType{ID: TypeUint32}
	Uint64  = PrimitiveType{ID: TypeUint64}
	Float32 = PrimitiveType{ID: TypeFloat32}
	Float64 = PrimitiveType{ID: TypeFloat64}
	Boolean = PrimitiveType{ID: TypeBoolean}
	String  = PrimitiveType{ID: TypeString}
	Binary  = PrimitiveType{ID: TypeBinary}
	Date32  = PrimitiveType{ID: TypeDate32}
	Date64  = PrimitiveType{ID: TypeDate64}

	TimeMillis = PrimitiveType{ID: TypeTimeMillis}
	TimeMicros = PrimitiveType{ID: TypeTimeMicros}
)

func Decimal128(precision, scale int32) PrimitiveType {
	return PrimitiveType{ID: TypeDecimal128, Precision: precision, Scale: scale}
}

func Decimal256(precision, scale int32) PrimitiveType {
	return PrimitiveType{ID: TypeDecimal256, Precision: precision, Scale: scale}
}

func TimestampSecond(tz string) PrimitiveType {
	return PrimitiveType{ID: TypeTimestampSecond, Timezone: tz}
}

func TimestampMillis(tz string) PrimitiveType {
	return PrimitiveType{ID: TypeTimestampMillis, Timezone: tz}
}

func TimestampMicros(tz string) PrimitiveType {
	return PrimitiveType{ID: TypeTimestampMicros, Timezone: tz}
}

func TimestampNanos(tz string) PrimitiveType {
	return PrimitiveType{ID: TypeTimestampNanos, Timezone: tz}
}

func FixedLenByteArray(length int32) PrimitiveType {
	return PrimitiveType{ID: TypeFixedLenByteArray, Length: length}
}

// IsTimestamp reports whether t is one of the timestamp types.
func (t PrimitiveType) IsTimestamp() bool {
	return t.ID >= TypeTimestampSecond && t.ID <= TypeTimestampNanos
}

// IsDecimal reports whether t is a decimal type.
func (t PrimitiveType) IsDecimal() bool {
	return t.ID == TypeDecimal128 || t.ID == TypeDecimal256
}

// RequiresFormat reports whether the type carries unit or time zone metadata
// that a textual front-end needs a format hint for: dates, timestamps and
// times of day.
func (t PrimitiveType) RequiresFormat() bool {
	switch t.ID {
	case TypeDate32, TypeDate64, TypeTimeMillis, TypeTimeMicros:
		return true
	}
	return t.IsTimestamp()
}

// MaxPrecision returns the largest precision a decimal type supports.
func (t PrimitiveType) MaxPrecision() int32 {
	switch t.ID {
	case TypeDecimal128:
		return 38
	case TypeDecimal256:
		return 76
	}
	return 0
}

func (t PrimitiveType) String() string {
	switch {
	case t.IsDecimal():
		return fmt.Sprintf("%s(%d,%d)", t.ID, t.Precision, t.Scale)
	case t.IsTimestamp():
		if t.Timezone == "" {
			return t.ID.String()
		}
		return fmt.Sprintf("%s(%s)", t.ID, t.Timezone)
	case t.ID == TypeFixedLenByteArray:
		return fmt.Sprintf("%s(%d)", t.ID, t.Length)
	}
	return t.ID.String()
}
