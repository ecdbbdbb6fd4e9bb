package engine

// BatchPolicy decides when buffered rows are flushed as a row group. It is
// consulted after every buffered row. Policies only affect how rows are
// grouped, never the logical content of the file.
type BatchPolicy interface {
	ShouldFlush(rowsBuffered int, bytesBuffered int64) bool
}

// FixedPolicy flushes when either threshold is reached. A zero threshold is
// ignored.
type FixedPolicy struct {
	Rows  int
	Bytes int64
}

// DefaultFixedPolicy returns 64Ki rows or 64 MiB, whichever comes first.
func DefaultFixedPolicy() FixedPolicy {
	return FixedPolicy{Rows: 64 << 10, Bytes: 64 << 20}
}

func (p FixedPolicy) ShouldFlush(rows int, bytes int64) bool {
	if rows <= 0 {
		return false
	}
	return (p.Rows > 0 && rows >= p.Rows) || (p.Bytes > 0 && bytes >= p.Bytes)
}

const adaptiveWindow = 64

// AdaptivePolicy targets a memory budget per row group. It samples the sizes
// of recently buffered rows and flushes once the buffered row count reaches
// budget divided by the average sample, clamped to [MinRows, MaxRows].
//
// An AdaptivePolicy keeps state and must not be shared between writers.
type AdaptivePolicy struct {
	Budget  int64
	MinRows int
	MaxRows int

	samples   [adaptiveWindow]int64
	n, next   int
	sum       int64
	lastRows  int
	lastBytes int64
}

// NewAdaptivePolicy returns a policy for budget bytes per row group.
func NewAdaptivePolicy(budget int64) *AdaptivePolicy {
	return &AdaptivePolicy{Budget: budget, MinRows: 1024, MaxRows: 1 << 20}
}

func (p *AdaptivePolicy) observe(rows int, bytes int64) {
	if rows < p.lastRows {
		p.lastRows, p.lastBytes = 0, 0
	}
	added := rows - p.lastRows
	if added > 0 {
		size := (bytes - p.lastBytes) / int64(added)
		if p.n == adaptiveWindow {
			p.sum -= p.samples[p.next]
		} else {
			p.n++
		}
		p.samples[p.next] = size
		p.sum += size
		p.next = (p.next + 1) % adaptiveWindow
	}
	p.lastRows, p.lastBytes = rows, bytes
}

// TargetRows returns the current row target.
func (p *AdaptivePolicy) TargetRows() int {
	target := p.MaxRows
	if p.n > 0 && p.sum > 0 {
		avg := p.sum / int64(p.n)
		if avg < 1 {
			avg = 1
		}
		if t := p.Budget / avg; t < int64(target) {
			target = int(t)
		}
	}
	if target < p.MinRows {
		target = p.MinRows
	}
	if target < 1 {
		target = 1
	}
	return target
}

func (p *AdaptivePolicy) ShouldFlush(rows int, bytes int64) bool {
	p.observe(rows, bytes)
	if rows <= 0 {
		return false
	}
	return rows >= p.TargetRows() || (p.Budget > 0 && bytes >= p.Budget && rows >= p.MinRows)
}
