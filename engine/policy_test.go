package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VanDung-dev/parquet-core/schema"
)

func TestFixedPolicy(t *testing.T) {
	p := FixedPolicy{Rows: 3, Bytes: 100}
	assert.False(t, p.ShouldFlush(0, 1000))
	assert.False(t, p.ShouldFlush(2, 99))
	assert.True(t, p.ShouldFlush(3, 0))
	assert.True(t, p.ShouldFlush(1, 100))

	assert.False(t, FixedPolicy{}.ShouldFlush(1<<30, 1<<40))
}

func TestAdaptivePolicyTracksRowSize(t *testing.T) {
	p := &AdaptivePolicy{Budget: 1000, MinRows: 2, MaxRows: 1000}
	assert.Equal(t, 1000, p.TargetRows())

	// 100 byte rows: ten fit in the budget.
	rows, bytes := 0, int64(0)
	flushedAt := 0
	for i := 0; i < 50 && flushedAt == 0; i++ {
		rows++
		bytes += 100
		if p.ShouldFlush(rows, bytes) {
			flushedAt = rows
		}
	}
	assert.Equal(t, 10, flushedAt)
	assert.Equal(t, 10, p.TargetRows())

	// After the flush rows shrink to 10 bytes; the target grows with the
	// window.
	rows, bytes = 0, 0
	for i := 0; i < adaptiveWindow; i++ {
		rows++
		bytes += 10
		p.ShouldFlush(rows, bytes)
	}
	assert.Equal(t, 100, p.TargetRows())
}

func TestAdaptivePolicyClamp(t *testing.T) {
	p := &AdaptivePolicy{Budget: 10, MinRows: 5, MaxRows: 8}
	p.ShouldFlush(1, 1000)
	assert.Equal(t, 5, p.TargetRows())

	p = &AdaptivePolicy{Budget: 1 << 30, MinRows: 1, MaxRows: 8}
	p.ShouldFlush(1, 1)
	assert.Equal(t, 8, p.TargetRows())
}

func TestAdaptivePolicyWriterContent(t *testing.T) {
	s := mustSchema(t, schema.Primitive("value", schema.Int32, false))
	props := DefaultWriterProperties()
	props.BatchPolicy = &AdaptivePolicy{Budget: 4096, MinRows: 16, MaxRows: 256}
	rows := int32Rows(1000)
	data := writeFile(t, s, props, rows)

	r := NewReader(NewBytesSource(data))
	requireRowsEqual(t, rows, readRows(t, r.ReadRows()))
	md, err := r.Metadata()
	require.NoError(t, err)
	require.Greater(t, len(md.RowGroups), 1)
	for _, g := range md.RowGroups[:len(md.RowGroups)-1] {
		require.GreaterOrEqual(t, g.NumRows, int64(16))
		require.LessOrEqual(t, g.NumRows, int64(256))
	}
}
