package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VanDung-dev/parquet-core/engine"
	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

func fixture(t *testing.T, rows int) string {
	t.Helper()
	s, err := schema.New(
		schema.Primitive("id", schema.Int64, false),
		schema.Primitive("name", schema.String, true),
		schema.List("tags", true, schema.Primitive("item", schema.String, false)),
	)
	require.NoError(t, err)

	sink := &engine.BufferSink{}
	props := engine.DefaultWriterProperties()
	props.BatchSize = 10
	w, err := engine.NewWriterWithProperties(sink, s, props)
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		var name value.Value = value.Null{}
		if i%3 != 0 {
			name = value.String("n" + strings.Repeat("x", i%4))
		}
		require.NoError(t, w.WriteRow([]value.Value{
			value.Int64(i), name, value.List{value.String("a"), value.String("b")},
		}))
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "in.parquet")
	require.NoError(t, os.WriteFile(path, sink.Bytes(), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestCount(t *testing.T) {
	out, err := run(t, "count", fixture(t, 25))
	require.NoError(t, err)
	assert.Equal(t, "25\n", out)
}

func TestCat(t *testing.T) {
	path := fixture(t, 25)

	out, err := run(t, "cat", "--limit", "2", path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`{"id":0,"name":null,"tags":["a","b"]}`,
		`{"id":1,"name":"nx","tags":["a","b"]}`,
	}, lines(out))

	out, err = run(t, "cat", "-c", "name,id", "--batch-size", "4", path)
	require.NoError(t, err)
	got := lines(out)
	require.Len(t, got, 25)
	assert.Equal(t, `{"id":24,"name":null}`, got[24])
}

func TestCatUnknownColumn(t *testing.T) {
	_, err := run(t, "cat", "-c", "missing", fixture(t, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestMeta(t *testing.T) {
	out, err := run(t, "meta", fixture(t, 25))
	require.NoError(t, err)

	var md metaOutput
	require.NoError(t, json.Unmarshal([]byte(out), &md))
	assert.EqualValues(t, 25, md.NumRows)
	assert.Equal(t, []string{"id", "name", "tags"}, md.Columns)
	require.Len(t, md.RowGroups, 3)
	assert.EqualValues(t, 5, md.RowGroups[2].NumRows)
	assert.Nil(t, md.KeyValue)
}

func TestSchema(t *testing.T) {
	path := fixture(t, 1)
	out, err := run(t, "schema", path)
	require.NoError(t, err)
	s, err := schema.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "tags"}, s.FieldNames())

	out, err = run(t, "schema", "--tree", path)
	require.NoError(t, err)
	assert.Contains(t, out, "tags")
}

func TestConvert(t *testing.T) {
	in := fixture(t, 25)
	dst := filepath.Join(t.TempDir(), "out.parquet")

	_, err := run(t, "convert", "--compression", "zstd:3", "--row-group-size", "100", "-c", "id", in, dst)
	require.NoError(t, err)

	out, err := run(t, "meta", dst)
	require.NoError(t, err)
	var md metaOutput
	require.NoError(t, json.Unmarshal([]byte(out), &md))
	assert.Equal(t, []string{"id"}, md.Columns)
	require.Len(t, md.RowGroups, 1)
	assert.True(t, strings.EqualFold("zstd", md.RowGroups[0].Columns[0].Codec), md.RowGroups[0].Columns[0].Codec)

	_, err = run(t, "convert", "--compression", "gzip:42", in, dst)
	require.Error(t, err)
}

func TestExportImport(t *testing.T) {
	in := fixture(t, 25)
	dir := t.TempDir()
	stream := filepath.Join(dir, "rows.arrows")
	back := filepath.Join(dir, "back.parquet")

	_, err := run(t, "export", "--compression", "zstd", "--batch-size", "7", in, stream)
	require.NoError(t, err)
	_, err = run(t, "import", stream, back)
	require.NoError(t, err)

	want, err := run(t, "cat", in)
	require.NoError(t, err)
	got, err := run(t, "cat", back)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMissingFile(t *testing.T) {
	_, err := run(t, "count", filepath.Join(t.TempDir(), "nope.parquet"))
	require.Error(t, err)
}

func TestJSONValue(t *testing.T) {
	ts := value.Timestamp{Epoch: 1_700_000_000_000, Unit: value.Millisecond, TZ: "+01:00"}
	obj := object{
		{Key: "b", Value: jsonValue(value.Bytes{0xde, 0xad})},
		{Key: "d", Value: jsonValue(value.Date32(1))},
		{Key: "ts", Value: jsonValue(ts)},
		{Key: "dec", Value: jsonValue(value.NewDecimal128FromInt64(-12345, 2))},
		{Key: "m", Value: jsonValue(value.Map{{Key: value.String("k"), Value: value.Int32(1)}})},
		{Key: "r", Value: jsonValue(value.NewRecord(value.Field{Name: "z", Value: value.Null{}}))},
	}
	b, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t,
		`{"b":"3q0=","d":"1970-01-02","ts":"2023-11-14T23:13:20+01:00","dec":"-123.45",`+
			`"m":[{"key":"k","value":1}],"r":{"z":null}}`,
		string(b))
}
