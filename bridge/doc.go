// Package bridge converts between the value model and Arrow columnar arrays.
//
// A Column is a conversion plan compiled once from a schema node. It builds
// Arrow arrays from value slices, validating nullability, types and numeric
// ranges as it goes, and decodes arrays back into values. Nested lists, maps
// and structs are decomposed into child arrays with offset and validity
// buffers and recomposed on the way back. RecordCodec applies a Column per
// top-level field of a schema.
//
// Decoding tolerates the coercions the Parquet format applies on write:
// seconds stored as milliseconds, Date64 stored as days, Decimal256 read back
// as Decimal128, half floats, and large string or list layouts.
package bridge
