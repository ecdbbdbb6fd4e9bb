package bridge

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/VanDung-dev/parquet-core/pqerr"
	"github.com/VanDung-dev/parquet-core/schema"
)

// SchemaMetadataKey is the Arrow schema metadata key (and Parquet key/value
// metadata key) holding the canonical schema tree as JSON.
const SchemaMetadataKey = "parquet-core.schema"

var timeUnits = map[schema.TypeID]arrow.TimeUnit{
	schema.TypeTimestampSecond: arrow.Second,
	schema.TypeTimestampMillis: arrow.Millisecond,
	schema.TypeTimestampMicros: arrow.Microsecond,
	schema.TypeTimestampNanos:  arrow.Nanosecond,
}

func primitiveDataType(t schema.PrimitiveType) (arrow.DataType, error) {
	switch t.ID {
	case schema.TypeInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case schema.TypeInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case schema.TypeInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case schema.TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case schema.TypeUint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case schema.TypeUint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case schema.TypeUint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case schema.TypeUint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case schema.TypeFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case schema.TypeFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case schema.TypeBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case schema.TypeString:
		return arrow.BinaryTypes.String, nil
	case schema.TypeBinary:
		return arrow.BinaryTypes.Binary, nil
	case schema.TypeDate32:
		return arrow.FixedWidthTypes.Date32, nil
	case schema.TypeDate64:
		return arrow.FixedWidthTypes.Date64, nil
	case schema.TypeDecimal128:
		return &arrow.Decimal128Type{Precision: t.Precision, Scale: t.Scale}, nil
	case schema.TypeDecimal256:
		return &arrow.Decimal256Type{Precision: t.Precision, Scale: t.Scale}, nil
	case schema.TypeTimestampSecond, schema.TypeTimestampMillis, schema.TypeTimestampMicros, schema.TypeTimestampNanos:
		return &arrow.TimestampType{Unit: timeUnits[t.ID], TimeZone: t.Timezone}, nil
	case schema.TypeTimeMillis:
		return arrow.FixedWidthTypes.Time32ms, nil
	case schema.TypeTimeMicros:
		return arrow.FixedWidthTypes.Time64us, nil
	case schema.TypeFixedLenByteArray:
		return &arrow.FixedSizeBinaryType{ByteWidth: int(t.Length)}, nil
	}
	return nil, pqerr.Newf(pqerr.Unsupported, "primitive type %s has no columnar mapping", t)
}

// DataType returns the Arrow type of a schema node.
func DataType(n schema.Node) (arrow.DataType, error) {
	switch n.Kind {
	case schema.KindPrimitive:
		return primitiveDataType(n.Type)
	case schema.KindList:
		item, err := Field(n.Item())
		if err != nil {
			return nil, err
		}
		return arrow.ListOfField(item), nil
	case schema.KindMap:
		kt, err := DataType(n.Key())
		if err != nil {
			return nil, err
		}
		vt, err := DataType(n.Value())
		if err != nil {
			return nil, err
		}
		mt := arrow.MapOf(kt, vt)
		mt.SetItemNullable(n.Value().Nullable)
		return mt, nil
	case schema.KindStruct:
		fields := make([]arrow.Field, len(n.Children))
		for i, c := range n.Children {
			f, err := Field(c)
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return arrow.StructOf(fields...), nil
	}
	return nil, pqerr.Newf(pqerr.Unsupported, "field %q has unknown kind %s", n.Name, n.Kind)
}

// Field returns the Arrow field of a schema node.
func Field(n schema.Node) (arrow.Field, error) {
	dt, err := DataType(n)
	if err != nil {
		return arrow.Field{}, err
	}
	return arrow.Field{Name: n.Name, Type: dt, Nullable: n.Nullable}, nil
}

// ArrowSchema returns the Arrow schema for the top-level fields of s. The
// given metadata is attached to the schema as is.
func ArrowSchema(s *schema.Schema, md map[string]string) (*arrow.Schema, error) {
	fields := make([]arrow.Field, s.NumColumns())
	for i, n := range s.Fields() {
		f, err := Field(n)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	var meta *arrow.Metadata
	if len(md) > 0 {
		m := arrow.MetadataFrom(md)
		meta = &m
	}
	return arrow.NewSchema(fields, meta), nil
}

// FromArrowSchema derives a schema from an Arrow schema, for files that do
// not carry a canonical schema. Half floats map to Float32 and the large
// string, binary and list layouts to their regular counterparts.
func FromArrowSchema(sc *arrow.Schema) (*schema.Schema, error) {
	b := schema.NewBuilder()
	for _, f := range sc.Fields() {
		n, err := fromArrowField(f)
		if err != nil {
			return nil, err
		}
		b.Field(n)
	}
	return b.Build()
}

func fromArrowField(f arrow.Field) (schema.Node, error) {
	t, err := fromArrowType(f.Name, f.Type)
	if err != nil {
		return schema.Node{}, err
	}
	t.Name = f.Name
	t.Nullable = f.Nullable
	return t, nil
}

func fromArrowType(name string, dt arrow.DataType) (schema.Node, error) {
	prim := func(t schema.PrimitiveType) (schema.Node, error) {
		return schema.Primitive(name, t, true), nil
	}
	switch t := dt.(type) {
	case *arrow.Int8Type:
		return prim(schema.Int8)
	case *arrow.Int16Type:
		return prim(schema.Int16)
	case *arrow.Int32Type:
		return prim(schema.Int32)
	case *arrow.Int64Type:
		return prim(schema.Int64)
	case *arrow.Uint8Type:
		return prim(schema.Uint8)
	case *arrow.Uint16Type:
		return prim(schema.Uint16)
	case *arrow.Uint32Type:
		return prim(schema.Uint32)
	case *arrow.Uint64Type:
		return prim(schema.Uint64)
	case *arrow.Float16Type, *arrow.Float32Type:
		return prim(schema.Float32)
	case *arrow.Float64Type:
		return prim(schema.Float64)
	case *arrow.BooleanType:
		return prim(schema.Boolean)
	case *arrow.StringType, *arrow.LargeStringType:
		return prim(schema.String)
	case *arrow.BinaryType, *arrow.LargeBinaryType:
		return prim(schema.Binary)
	case *arrow.Date32Type:
		return prim(schema.Date32)
	case *arrow.Date64Type:
		return prim(schema.Date64)
	case *arrow.Decimal128Type:
		return prim(schema.Decimal128(t.Precision, t.Scale))
	case *arrow.Decimal256Type:
		return prim(schema.Decimal256(t.Precision, t.Scale))
	case *arrow.FixedSizeBinaryType:
		return prim(schema.FixedLenByteArray(int32(t.ByteWidth)))
	case *arrow.TimestampType:
		switch t.Unit {
		case arrow.Second:
			return prim(schema.TimestampSecond(t.TimeZone))
		case arrow.Millisecond:
			return prim(schema.TimestampMillis(t.TimeZone))
		case arrow.Microsecond:
			return prim(schema.TimestampMicros(t.TimeZone))
		default:
			return prim(schema.TimestampNanos(t.TimeZone))
		}
	case *arrow.Time32Type:
		if t.Unit == arrow.Millisecond {
			return prim(schema.TimeMillis)
		}
	case *arrow.Time64Type:
		if t.Unit == arrow.Microsecond {
			return prim(schema.TimeMicros)
		}
	case *arrow.MapType:
		key, err := fromArrowField(t.KeyField())
		if err != nil {
			return schema.Node{}, err
		}
		key.Nullable = false
		item, err := fromArrowField(t.ItemField())
		if err != nil {
			return schema.Node{}, err
		}
		return schema.Map(name, true, key, item), nil
	case arrow.ListLikeType:
		if _, fixed := t.(*arrow.FixedSizeListType); fixed {
			break
		}
		item, err := fromArrowField(t.ElemField())
		if err != nil {
			return schema.Node{}, err
		}
		return schema.List(name, true, item), nil
	case *arrow.StructType:
		children := make([]schema.Node, t.NumFields())
		for i := range children {
			c, err := fromArrowField(t.Field(i))
			if err != nil {
				return schema.Node{}, err
			}
			children[i] = c
		}
		return schema.Struct(name, true, children...), nil
	case *arrow.DictionaryType:
		return fromArrowType(name, t.ValueType)
	}
	return schema.Node{}, pqerr.Newf(pqerr.Unsupported, "column %q has unsupported columnar type %s", name, dt)
}
