// Package engine reads and writes Parquet files in terms of the value and
// schema model.
//
// A Writer buffers rows, converts them to columnar arrays when its batch
// policy says so and flushes each batch as one row group. A Reader opens a
// Source lazily, exposes footer metadata and streams rows or column batches
// with optional projection. Every failure carries a pqerr kind.
package engine
