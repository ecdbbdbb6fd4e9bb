package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

func mustSchema(t testing.TB, fields ...schema.Node) *schema.Schema {
	t.Helper()
	s, err := schema.New(fields...)
	require.NoError(t, err)
	return s
}

func writeFile(t testing.TB, s *schema.Schema, props WriterProperties, rows [][]value.Value) []byte {
	t.Helper()
	sink := &BufferSink{}
	w, err := NewWriterWithProperties(sink, s, props)
	require.NoError(t, err)
	require.NoError(t, w.WriteRows(rows))
	require.NoError(t, w.Close())
	return sink.Bytes()
}

func readRows(t testing.TB, it *RowIterator) [][]value.Value {
	t.Helper()
	defer it.Close()
	var rows [][]value.Value
	for it.Next() {
		rows = append(rows, it.Row())
	}
	require.NoError(t, it.Err())
	return rows
}

func requireRowsEqual(t testing.TB, want, got [][]value.Value) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Lenf(t, got[i], len(want[i]), "row %d", i)
		for j := range want[i] {
			require.Truef(t, value.Equal(want[i][j], got[i][j]), "row %d column %d: want %s, got %s",
				i, j, value.Format(want[i][j]), value.Format(got[i][j]))
		}
	}
}

func int32Rows(n int) [][]value.Value {
	rows := make([][]value.Value, n)
	for i := range rows {
		rows[i] = []value.Value{value.Int32(i)}
	}
	return rows
}
