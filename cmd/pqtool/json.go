package main

import (
	"bytes"
	"encoding/base64"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/VanDung-dev/parquet-core/value"
)

// member is one key of an object that keeps its key order when encoded.
type member struct {
	Key   string
	Value any
}

type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonValue maps a value onto plain JSON. Decimals, dates and timestamps
// become strings; bytes are base64.
func jsonValue(v value.Value) any {
	switch v := v.(type) {
	case value.Null, nil:
		return nil
	case value.Boolean:
		return bool(v)
	case value.Int8, value.Int16, value.Int32, value.Int64,
		value.Uint8, value.Uint16, value.Uint32, value.Uint64:
		return v
	case value.Float16:
		return float(float64(v))
	case value.Float32:
		return float(float64(v))
	case value.Float64:
		return float(float64(v))
	case value.String:
		return string(v)
	case value.Bytes:
		return base64.StdEncoding.EncodeToString(v)
	case value.List:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = jsonValue(e)
		}
		return out
	case value.Map:
		out := make([]object, len(v))
		for i, e := range v {
			out[i] = object{{Key: "key", Value: jsonValue(e.Key)}, {Key: "value", Value: jsonValue(e.Value)}}
		}
		return out
	case value.Decimal128:
		return v.String()
	case value.Decimal256:
		return v.String()
	case value.Date32:
		return time.Unix(int64(v)*86400, 0).UTC().Format(time.DateOnly)
	case value.Date64:
		return time.UnixMilli(int64(v)).UTC().Format(time.DateOnly)
	case value.Timestamp:
		if t, err := v.Time(); err == nil {
			return t.Format(time.RFC3339Nano)
		}
	case value.Record:
		out := make(object, len(v))
		for i, f := range v {
			out[i] = member{Key: f.Name, Value: jsonValue(f.Value)}
		}
		return out
	}
	return value.Format(v)
}

// float keeps NaN and infinities printable.
func float(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return value.Format(value.Float64(f))
	}
	return f
}
