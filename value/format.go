package value

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Format renders v as human readable text. The output is for diagnostics and
// is not meant to be parsed back.
func Format(v Value) string {
	var sb strings.Builder
	format(&sb, v)
	return sb.String()
}

func format(sb *strings.Builder, v Value) {
	if v == nil {
		v = Null{}
	}
	switch x := v.(type) {
	case Null:
		sb.WriteString("null")
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32:
		i, _ := AsInt64(x)
		sb.WriteString(strconv.FormatInt(i, 10))
	case Uint64:
		sb.WriteString(strconv.FormatUint(uint64(x), 10))
	case Float16:
		sb.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	case Float32:
		sb.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	case Float64:
		sb.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 64))
	case Boolean:
		sb.WriteString(strconv.FormatBool(bool(x)))
	case String:
		sb.WriteString(strconv.Quote(string(x)))
	case Bytes:
		sb.WriteString("0x")
		sb.WriteString(hex.EncodeToString(x))
	case Date32:
		sb.WriteString("date32(")
		sb.WriteString(strconv.FormatInt(int64(x), 10))
		sb.WriteByte(')')
	case Date64:
		sb.WriteString("date64(")
		sb.WriteString(strconv.FormatInt(int64(x), 10))
		sb.WriteByte(')')
	case Decimal128:
		sb.WriteString(x.String())
	case Decimal256:
		sb.WriteString(x.String())
	case Timestamp:
		sb.WriteString("ts(")
		sb.WriteString(strconv.FormatInt(x.Epoch, 10))
		sb.WriteString(x.Unit.String())
		if x.TZ != "" {
			sb.WriteByte(' ')
			sb.WriteString(x.TZ)
		}
		sb.WriteByte(')')
	case TimeMillis:
		sb.WriteString("time(")
		sb.WriteString(strconv.FormatInt(int64(x), 10))
		sb.WriteString("ms)")
	case TimeMicros:
		sb.WriteString("time(")
		sb.WriteString(strconv.FormatInt(int64(x), 10))
		sb.WriteString("us)")
	case List:
		sb.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, e)
		}
		sb.WriteByte(']')
	case Map:
		sb.WriteString("map{")
		for i, e := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, e.Key)
			sb.WriteString(": ")
			format(sb, e.Value)
		}
		sb.WriteByte('}')
	case Record:
		sb.WriteByte('{')
		for i, f := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			format(sb, f.Value)
		}
		sb.WriteByte('}')
	}
}

// EstimateSize approximates the in-memory footprint of v in bytes.
func EstimateSize(v Value) int64 {
	const header = 16
	switch x := v.(type) {
	case nil, Null:
		return 1
	case Int8, Uint8, Boolean:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32, Float16, Date32, TimeMillis:
		return 4
	case Int64, Uint64, Float64, Date64, TimeMicros:
		return 8
	case Timestamp:
		return 8 + int64(len(x.TZ))
	case Decimal128:
		return 16
	case Decimal256:
		return 32
	case String:
		return header + int64(len(x))
	case Bytes:
		return header + int64(len(x))
	case List:
		n := int64(header)
		for _, e := range x {
			n += EstimateSize(e)
		}
		return n
	case Map:
		n := int64(header)
		for _, e := range x {
			n += EstimateSize(e.Key) + EstimateSize(e.Value)
		}
		return n
	case Record:
		n := int64(header)
		for _, f := range x {
			n += int64(len(f.Name)) + EstimateSize(f.Value)
		}
		return n
	}
	return header
}
