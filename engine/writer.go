package engine

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.uber.org/zap"

	"github.com/VanDung-dev/parquet-core/bridge"
	"github.com/VanDung-dev/parquet-core/pqerr"
	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

// Writer encodes rows of a fixed schema into a Parquet file. Rows are
// validated when written, buffered per column and flushed as one row group
// whenever the batch policy says so. Close must be called to write the
// footer; without it the output is not a readable file.
//
// A Writer is not safe for concurrent use. After any error the writer is
// poisoned: every later call returns that error and Close writes no footer.
type Writer struct {
	sink   Sink
	out    *sinkWriter
	schema *schema.Schema
	codec  *bridge.RecordCodec
	fw     *pqarrow.FileWriter

	props   WriterProperties
	policy  BatchPolicy
	log     *zap.Logger
	metrics *Metrics
	mem     memory.Allocator

	cols      [][]value.Value
	rows      int
	bytes     int64
	total     int64
	rowGroups int

	err      error
	closed   bool
	closeErr error
}

// NewWriter returns a writer with DefaultWriterProperties.
func NewWriter(sink Sink, s *schema.Schema) (*Writer, error) {
	return NewWriterWithProperties(sink, s, DefaultWriterProperties())
}

// NewWriterWithProperties returns a writer for s that appends to sink.
func NewWriterWithProperties(sink Sink, s *schema.Schema, props WriterProperties) (*Writer, error) {
	if sink == nil {
		return nil, pqerr.Newf(pqerr.InvalidArgument, "sink is required")
	}
	if s == nil {
		return nil, pqerr.Newf(pqerr.InvalidArgument, "schema is required")
	}
	if err := props.validate(); err != nil {
		return nil, err
	}

	canonical, err := s.MarshalJSON()
	if err != nil {
		return nil, pqerr.Wrapf(pqerr.Schema, err, "failed to encode schema")
	}
	md := make(map[string]string, len(props.KeyValue)+1)
	for k, v := range props.KeyValue {
		md[k] = v
	}
	md[bridge.SchemaMetadataKey] = string(canonical)

	codec, err := bridge.NewRecordCodec(s, md)
	if err != nil {
		return nil, err
	}

	mem := props.Allocator
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	log := props.Logger
	if log == nil {
		log = zap.NewNop()
	}

	out := &sinkWriter{sink: sink}
	fw, err := pqarrow.NewFileWriter(codec.ArrowSchema(), out, props.parquetProperties(mem),
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema(), pqarrow.WithAllocator(mem)))
	if err != nil {
		return nil, writeError(out, err, "failed to start file")
	}

	w := &Writer{
		sink:    sink,
		out:     out,
		schema:  s,
		codec:   codec,
		fw:      fw,
		props:   props,
		policy:  props.policy(),
		log:     log,
		metrics: props.Metrics,
		mem:     mem,
		cols:    make([][]value.Value, s.NumColumns()),
	}
	log.Debug("writer opened",
		zap.Int("columns", s.NumColumns()),
		zap.Stringer("compression", props.Compression))
	return w, nil
}

// writeError classifies an encoder failure: sink failures are IO errors,
// everything else is a format library error.
func writeError(out *sinkWriter, err error, msg string) error {
	if out.err != nil {
		return pqerr.Wrapf(pqerr.IO, out.err, "%s", msg)
	}
	return pqerr.Wrapf(pqerr.Format, err, "%s", msg)
}

// Schema returns the schema rows are written against.
func (w *Writer) Schema() *schema.Schema { return w.schema }

// NumRows returns the number of rows accepted so far.
func (w *Writer) NumRows() int64 { return w.total }

// NumRowGroups returns the number of row groups flushed so far.
func (w *Writer) NumRowGroups() int { return w.rowGroups }

// BytesWritten returns the number of bytes handed to the sink.
func (w *Writer) BytesWritten() int64 { return w.out.n }

// Err returns the error that poisoned the writer, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) usable() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return pqerr.Newf(pqerr.InvalidArgument, "writer is closed")
	}
	return nil
}

func (w *Writer) fail(err error) error {
	w.err = err
	w.metrics.recordWriteError(err)
	w.log.Debug("writer failed", zap.Error(err))
	return err
}

// WriteRow validates row and buffers it. row must hold one value per
// top-level field in schema order.
func (w *Writer) WriteRow(row []value.Value) error {
	if err := w.usable(); err != nil {
		return err
	}
	if err := w.codec.ValidateRow(row); err != nil {
		return w.fail(err)
	}
	for i, v := range row {
		w.cols[i] = append(w.cols[i], v)
		w.bytes += value.EstimateSize(v)
	}
	return w.rowAdded()
}

func (w *Writer) rowAdded() error {
	w.rows++
	w.total++
	w.metrics.recordRows(1)
	if w.policy.ShouldFlush(w.rows, w.bytes) {
		return w.flush()
	}
	return nil
}

// WriteRows writes each row in turn and stops at the first error.
func (w *Writer) WriteRows(rows [][]value.Value) error {
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteColumns writes a column-major batch: one value slice per top-level
// field, all of the same length. The whole batch is validated before any of
// it is buffered.
func (w *Writer) WriteColumns(columns [][]value.Value) error {
	if err := w.usable(); err != nil {
		return err
	}
	if len(columns) != w.schema.NumColumns() {
		return w.fail(pqerr.Newf(pqerr.Validation, "batch has %d columns, schema has %d",
			len(columns), w.schema.NumColumns()))
	}
	n := 0
	for i, c := range w.codec.Columns() {
		if i == 0 {
			n = len(columns[0])
		} else if len(columns[i]) != n {
			return w.fail(pqerr.Newf(pqerr.Validation, "column %q has %d values, want %d",
				c.Node().Name, len(columns[i]), n))
		}
		for _, v := range columns[i] {
			if err := c.Validate(v); err != nil {
				return w.fail(err)
			}
		}
	}
	for r := 0; r < n; r++ {
		for i := range columns {
			v := columns[i][r]
			w.cols[i] = append(w.cols[i], v)
			w.bytes += value.EstimateSize(v)
		}
		if err := w.rowAdded(); err != nil {
			return err
		}
	}
	return nil
}

// Flush encodes the buffered rows as a row group now.
func (w *Writer) Flush() error {
	if err := w.usable(); err != nil {
		return err
	}
	return w.flush()
}

func (w *Writer) flush() error {
	if w.rows == 0 {
		return nil
	}
	start := time.Now()
	rec, err := w.codec.BuildRecord(w.mem, w.cols)
	if err != nil {
		return w.fail(err)
	}
	defer rec.Release()
	if err := w.fw.Write(rec); err != nil {
		return w.fail(writeError(w.out, err, "failed to write row group"))
	}
	w.rowGroups++
	w.metrics.recordFlush(w.rows, time.Since(start))
	w.log.Debug("row group flushed",
		zap.Int("row_group", w.rowGroups-1),
		zap.Int("rows", w.rows),
		zap.Int64("estimated_bytes", w.bytes))

	for i := range w.cols {
		clear(w.cols[i])
		w.cols[i] = w.cols[i][:0]
	}
	w.rows, w.bytes = 0, 0
	return nil
}

// Close flushes buffered rows, writes the footer and flushes the sink. It
// does not close the sink. On a poisoned writer Close returns the original
// error and writes nothing further. Calling Close again returns the result
// of the first call.
func (w *Writer) Close() error {
	if w.closed {
		return w.closeErr
	}
	w.closed = true
	if w.err != nil {
		w.closeErr = w.err
		return w.closeErr
	}
	if err := w.flush(); err != nil {
		w.closeErr = err
		return err
	}
	if err := w.fw.Close(); err != nil {
		w.closeErr = w.fail(writeError(w.out, err, "failed to write footer"))
		return w.closeErr
	}
	if err := w.sink.Flush(); err != nil {
		w.closeErr = w.fail(pqerr.Wrapf(pqerr.IO, err, "failed to flush sink"))
		return w.closeErr
	}
	w.log.Debug("writer closed",
		zap.Int64("rows", w.total),
		zap.Int("row_groups", w.rowGroups),
		zap.Int64("bytes", w.out.n))
	return nil
}
