package bridge

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/VanDung-dev/parquet-core/pqerr"
	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

// RecordCodec converts rows and column batches of a schema to and from
// Arrow records.
type RecordCodec struct {
	schema  *schema.Schema
	arrow   *arrow.Schema
	columns []*Column
}

// NewRecordCodec compiles a codec for s. md is attached to the Arrow schema
// of every record the codec builds.
func NewRecordCodec(s *schema.Schema, md map[string]string) (*RecordCodec, error) {
	sc, err := ArrowSchema(s, md)
	if err != nil {
		return nil, err
	}
	cols := make([]*Column, s.NumColumns())
	for i, n := range s.Fields() {
		if cols[i], err = NewColumn(n); err != nil {
			return nil, err
		}
	}
	return &RecordCodec{schema: s, arrow: sc, columns: cols}, nil
}

func (rc *RecordCodec) Schema() *schema.Schema     { return rc.schema }
func (rc *RecordCodec) ArrowSchema() *arrow.Schema { return rc.arrow }
func (rc *RecordCodec) Columns() []*Column         { return rc.columns }

// ValidateRow checks that row has one value per top-level field and that
// every value fits its column.
func (rc *RecordCodec) ValidateRow(row []value.Value) error {
	if len(row) != len(rc.columns) {
		return pqerr.Newf(pqerr.Validation, "row has %d values, schema has %d columns",
			len(row), len(rc.columns))
	}
	for i, c := range rc.columns {
		if err := c.Validate(row[i]); err != nil {
			return err
		}
	}
	return nil
}

// BuildRecord converts one value slice per column into a record. Every
// slice must have the same length. The caller owns the result.
func (rc *RecordCodec) BuildRecord(mem memory.Allocator, columns [][]value.Value) (arrow.Record, error) {
	if len(columns) != len(rc.columns) {
		return nil, pqerr.Newf(pqerr.Validation, "got %d columns, schema has %d",
			len(columns), len(rc.columns))
	}
	rows := -1
	arrs := make([]arrow.Array, 0, len(columns))
	defer func() {
		for _, a := range arrs {
			a.Release()
		}
	}()
	for i, c := range rc.columns {
		if rows >= 0 && len(columns[i]) != rows {
			return nil, pqerr.Newf(pqerr.Validation, "column %q has %d values, want %d",
				c.node.Name, len(columns[i]), rows)
		}
		rows = len(columns[i])
		arr, err := c.BuildArray(mem, columns[i])
		if err != nil {
			return nil, err
		}
		arrs = append(arrs, arr)
	}
	if rows < 0 {
		rows = 0
	}
	return array.NewRecord(rc.arrow, arrs, int64(rows)), nil
}

// DecodeRecord converts rec into one value slice per column. The record
// must have the codec's columns in order.
func (rc *RecordCodec) DecodeRecord(rec arrow.Record) ([][]value.Value, error) {
	if int(rec.NumCols()) != len(rc.columns) {
		return nil, pqerr.Newf(pqerr.Format, "record has %d columns, schema has %d",
			rec.NumCols(), len(rc.columns))
	}
	out := make([][]value.Value, len(rc.columns))
	for i, c := range rc.columns {
		vals, err := c.Values(rec.Column(i))
		if err != nil {
			return nil, err
		}
		out[i] = vals
	}
	return out, nil
}

// Rows converts column slices of equal length into rows.
func Rows(columns [][]value.Value, n int) [][]value.Value {
	rows := make([][]value.Value, n)
	for r := range rows {
		row := make([]value.Value, len(columns))
		for c := range columns {
			row[c] = columns[c][r]
		}
		rows[r] = row
	}
	return rows
}
