package engine

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/VanDung-dev/parquet-core/pqerr"
	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

func idDataSchema(t *testing.T) *schema.Schema {
	return mustSchema(t,
		schema.Primitive("id", schema.Int32, false),
		schema.Primitive("data", schema.Binary, true),
	)
}

func TestWriteRowValidation(t *testing.T) {
	cases := map[string]struct {
		row  []value.Value
		kind pqerr.Kind
	}{
		"too few":       {[]value.Value{value.Int32(1)}, pqerr.Validation},
		"too many":      {[]value.Value{value.Int32(1), value.Null{}, value.Null{}}, pqerr.Validation},
		"null required": {[]value.Value{value.Null{}, value.Bytes{}}, pqerr.Validation},
		"nil required":  {[]value.Value{nil, value.Bytes{}}, pqerr.Validation},
		"wrong type":    {[]value.Value{value.String("1"), value.Null{}}, pqerr.Conversion},
		"overflow":      {[]value.Value{value.Int64(1 << 40), value.Null{}}, pqerr.Conversion},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w, err := NewWriter(&BufferSink{}, idDataSchema(t))
			require.NoError(t, err)
			err = w.WriteRow(tc.row)
			require.Error(t, err)
			require.Equal(t, tc.kind, pqerr.KindOf(err), "%v", err)
		})
	}
}

func TestWriteRejectsValuesThatWouldNotRoundTrip(t *testing.T) {
	s := mustSchema(t,
		schema.Primitive("at", schema.TimestampMicros("UTC"), true),
		schema.Struct("pt", true,
			schema.Primitive("x", schema.Int32, true),
			schema.Primitive("y", schema.Int32, true),
		),
	)
	pt := func(fields ...value.Field) value.Value { return value.NewRecord(fields...) }
	x := value.Field{Name: "x", Value: value.Int32(1)}
	y := value.Field{Name: "y", Value: value.Int32(2)}
	cases := map[string][]value.Value{
		"other zone": {value.Timestamp{Epoch: 5, Unit: value.Microsecond, TZ: "America/New_York"}, value.Null{}},
		"reordered":  {value.Null{}, pt(y, x)},
		"missing":    {value.Null{}, pt(x)},
		"repeated":   {value.Null{}, pt(x, x)},
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			w, err := NewWriter(&BufferSink{}, s)
			require.NoError(t, err)
			err = w.WriteRow(row)
			require.True(t, pqerr.Is(err, pqerr.Conversion), "%v", err)
		})
	}

	row := []value.Value{value.Timestamp{Epoch: 5, Unit: value.Microsecond, TZ: "UTC"}, pt(x, y)}
	data := writeFile(t, s, DefaultWriterProperties(), [][]value.Value{row})
	requireRowsEqual(t, [][]value.Value{row}, readRows(t, NewReader(NewBytesSource(data)).ReadRows()))
}

func TestWriterPoisoning(t *testing.T) {
	sink := &BufferSink{}
	props := DefaultWriterProperties()
	props.BatchSize = 2
	w, err := NewWriterWithProperties(sink, idDataSchema(t), props)
	require.NoError(t, err)

	require.NoError(t, w.WriteRow([]value.Value{value.Int32(1), value.Null{}}))
	require.NoError(t, w.WriteRow([]value.Value{value.Int32(2), value.Null{}}))
	require.Equal(t, 1, w.NumRowGroups())

	bad := w.WriteRow([]value.Value{value.Null{}, value.Null{}})
	require.True(t, pqerr.Is(bad, pqerr.Validation))

	// Every later call reports the original error.
	err = w.WriteRow([]value.Value{value.Int32(3), value.Null{}})
	require.Equal(t, bad, err)
	require.Equal(t, bad, w.WriteColumns([][]value.Value{{value.Int32(4)}, {value.Null{}}}))
	require.Equal(t, bad, w.Flush())

	before := sink.Len()
	require.Equal(t, bad, w.Close())
	require.Equal(t, bad, w.Close())
	require.Equal(t, before, sink.Len(), "no footer after an error")

	_, err = NewReader(NewBytesSource(sink.Bytes())).Metadata()
	require.True(t, pqerr.Is(err, pqerr.Format))
}

func TestWriteAfterClose(t *testing.T) {
	w, err := NewWriter(&BufferSink{}, idDataSchema(t))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	err = w.WriteRow([]value.Value{value.Int32(1), value.Null{}})
	require.True(t, pqerr.Is(err, pqerr.InvalidArgument))
}

func TestWriteColumns(t *testing.T) {
	s := idDataSchema(t)
	sink := &BufferSink{}
	props := DefaultWriterProperties()
	props.BatchSize = 3
	w, err := NewWriterWithProperties(sink, s, props)
	require.NoError(t, err)

	require.NoError(t, w.WriteColumns([][]value.Value{
		{value.Int32(1), value.Int32(2), value.Int32(3), value.Int32(4)},
		{value.Bytes{1}, value.Null{}, value.Bytes{}, value.Bytes{4, 4}},
	}))
	require.NoError(t, w.WriteRow([]value.Value{value.Int32(5), value.Null{}}))
	require.EqualValues(t, 5, w.NumRows())
	require.NoError(t, w.Close())
	require.Equal(t, 2, w.NumRowGroups())

	got := readRows(t, NewReader(NewBytesSource(sink.Bytes())).ReadRows())
	requireRowsEqual(t, [][]value.Value{
		{value.Int32(1), value.Bytes{1}},
		{value.Int32(2), value.Null{}},
		{value.Int32(3), value.Bytes{}},
		{value.Int32(4), value.Bytes{4, 4}},
		{value.Int32(5), value.Null{}},
	}, got)
}

func TestWriteColumnsRejectsRaggedBatch(t *testing.T) {
	w, err := NewWriter(&BufferSink{}, idDataSchema(t))
	require.NoError(t, err)
	err = w.WriteColumns([][]value.Value{{value.Int32(1), value.Int32(2)}, {value.Null{}}})
	require.True(t, pqerr.Is(err, pqerr.Validation))
	require.Zero(t, w.NumRows())

	w, err = NewWriter(&BufferSink{}, idDataSchema(t))
	require.NoError(t, err)
	err = w.WriteColumns([][]value.Value{{value.Int32(1)}})
	require.True(t, pqerr.Is(err, pqerr.Validation))
}

func TestNewWriterArguments(t *testing.T) {
	s := idDataSchema(t)
	_, err := NewWriter(nil, s)
	require.True(t, pqerr.Is(err, pqerr.InvalidArgument))
	_, err = NewWriter(&BufferSink{}, nil)
	require.True(t, pqerr.Is(err, pqerr.InvalidArgument))

	props := DefaultWriterProperties()
	props.Compression = Compression{Codec: Zstd, Level: 40}
	_, err = NewWriterWithProperties(&BufferSink{}, s, props)
	require.True(t, pqerr.Is(err, pqerr.InvalidArgument))

	props = DefaultWriterProperties()
	props.BatchSize = -1
	_, err = NewWriterWithProperties(&BufferSink{}, s, props)
	require.True(t, pqerr.Is(err, pqerr.InvalidArgument))
}

type brokenSink struct{ fail bool }

var errSinkGone = errors.New("sink gone")

func (s *brokenSink) Write(p []byte) (int, error) {
	if s.fail {
		return 0, errSinkGone
	}
	return len(p), nil
}

func (s *brokenSink) Flush() error { return nil }

func TestSinkFailureIsIOError(t *testing.T) {
	sink := &brokenSink{}
	w, err := NewWriter(sink, idDataSchema(t))
	require.NoError(t, err)
	require.NoError(t, w.WriteRow([]value.Value{value.Int32(1), value.Null{}}))
	sink.fail = true
	err = w.Close()
	require.True(t, pqerr.Is(err, pqerr.IO), "%v", err)
	require.ErrorIs(t, err, errSinkGone)
}

func TestWriterLogsAndMetrics(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reg := prometheus.NewRegistry()
	m := NewMetrics("pqcore", reg)

	props := DefaultWriterProperties()
	props.BatchSize = 4
	props.Logger = zap.New(core)
	props.Metrics = m
	data := writeFile(t, idDataSchema(t), props, [][]value.Value{
		{value.Int32(1), value.Null{}},
		{value.Int32(2), value.Null{}},
		{value.Int32(3), value.Null{}},
		{value.Int32(4), value.Null{}},
		{value.Int32(5), value.Null{}},
	})

	assert.Equal(t, 5.0, testutil.ToFloat64(m.RowsWritten))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RowGroupsWritten))
	assert.Equal(t, 2, logs.FilterMessage("row group flushed").Len())
	assert.Equal(t, 1, logs.FilterMessage("writer closed").Len())

	r := NewReader(NewBytesSource(data), WithReaderMetrics(m))
	readRows(t, r.ReadRows())
	assert.Equal(t, 5.0, testutil.ToFloat64(m.RowsRead))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveIterators))

	w, err := NewWriterWithProperties(&BufferSink{}, idDataSchema(t), props)
	require.NoError(t, err)
	_ = w.WriteRow([]value.Value{value.Null{}, value.Null{}})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WriteErrors.WithLabelValues("validation")))
}

func TestLockedSinkSharedByWriters(t *testing.T) {
	shared := NewLockedSink(&BufferSink{})
	w, err := NewWriter(shared, idDataSchema(t))
	require.NoError(t, err)
	require.NoError(t, w.WriteRow([]value.Value{value.Int32(1), value.Null{}}))
	require.NoError(t, w.Close())
	require.Positive(t, w.BytesWritten())
}
