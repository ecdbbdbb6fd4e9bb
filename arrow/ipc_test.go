package arrow

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VanDung-dev/parquet-core/pqerr"
	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

func eventsSchema(t *testing.T) *schema.Schema {
	s, err := schema.New(
		schema.Primitive("id", schema.Int64, false),
		schema.Primitive("at", schema.TimestampSecond("Europe/Berlin"), true),
		schema.List("tags", true, schema.Primitive("item", schema.String, false)),
	)
	require.NoError(t, err)
	return s
}

func TestEncodeDecode(t *testing.T) {
	s := eventsSchema(t)
	b1 := [][]value.Value{
		{value.Int64(1), value.Int64(2)},
		{value.Timestamp{Epoch: 10, Unit: value.Second, TZ: "Europe/Berlin"}, value.Null{}},
		{value.List{value.String("a")}, value.List{}},
	}
	b2 := [][]value.Value{{value.Int64(3)}, {value.Null{}}, {value.Null{}}}

	data, err := Encode(s, b1, b2)
	require.NoError(t, err)

	got, batches, err := Decode(data)
	require.NoError(t, err)
	require.True(t, got.Equal(s))
	require.Len(t, batches, 2)
	for c := range b1 {
		for r := range b1[c] {
			require.True(t, value.Equal(b1[c][r], batches[0][c][r]))
		}
	}
	require.Equal(t, value.Int64(3), batches[1][0][0])
}

func TestCompressedStream(t *testing.T) {
	s := eventsSchema(t)
	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		var buf bytes.Buffer
		sw, err := NewStreamWriter(&buf, s, Options{Compression: c})
		require.NoError(t, err)
		require.NoError(t, sw.WriteBatch([][]value.Value{{value.Int64(7)}, {value.Null{}}, {value.List{}}}))
		require.NoError(t, sw.Close())

		sr, err := NewStreamReader(&buf, Options{})
		require.NoError(t, err)
		require.True(t, sr.Next())
		require.Equal(t, 1, sr.NumRows())
		require.Equal(t, value.Int64(7), sr.Batch()[0][0])
		require.False(t, sr.Next())
		require.NoError(t, sr.Err())
		sr.Close()
	}
}

func TestStreamErrors(t *testing.T) {
	_, err := NewStreamWriter(&bytes.Buffer{}, eventsSchema(t), Options{Compression: "bzip"})
	require.True(t, pqerr.Is(err, pqerr.InvalidArgument))

	_, _, err = Decode([]byte("not arrow"))
	require.True(t, pqerr.Is(err, pqerr.Format))

	_, err = Encode(eventsSchema(t), [][]value.Value{{value.Null{}}, {value.Null{}}, {value.Null{}}})
	require.True(t, pqerr.Is(err, pqerr.Validation))
}
