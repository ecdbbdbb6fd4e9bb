package engine

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.uber.org/zap"

	"github.com/VanDung-dev/parquet-core/bridge"
	"github.com/VanDung-dev/parquet-core/pqerr"
	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

// DefaultBatchSize is the number of rows per column batch when none is set.
const DefaultBatchSize = 1024

type readerOptions struct {
	log       *zap.Logger
	mem       memory.Allocator
	metrics   *Metrics
	batchSize int
}

// ReaderOption configures a Reader.
type ReaderOption func(*readerOptions)

func WithReaderLogger(l *zap.Logger) ReaderOption {
	return func(o *readerOptions) { o.log = l }
}

func WithReaderAllocator(mem memory.Allocator) ReaderOption {
	return func(o *readerOptions) { o.mem = mem }
}

func WithReaderMetrics(m *Metrics) ReaderOption {
	return func(o *readerOptions) { o.metrics = m }
}

// WithDefaultBatchSize sets the batch size used when a read asks for none.
func WithDefaultBatchSize(n int) ReaderOption {
	return func(o *readerOptions) { o.batchSize = n }
}

// Reader decodes a Parquet file from a Source. Construction does no I/O;
// malformed content is reported by Metadata or by the first pull of an
// iterator. Every iterator opens the file on its own, so iterators of one
// Reader, or of several Readers over one Source, share no state and may be
// consumed from different goroutines.
type Reader struct {
	src  Source
	opts readerOptions

	metaOnce sync.Once
	meta     *Metadata
	metaErr  error
}

// NewReader returns a reader over src.
func NewReader(src Source, opts ...ReaderOption) *Reader {
	o := readerOptions{
		log:       zap.NewNop(),
		mem:       memory.DefaultAllocator,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.batchSize <= 0 {
		o.batchSize = DefaultBatchSize
	}
	return &Reader{src: src, opts: o}
}

// Close closes the source when it is an io.Closer.
func (r *Reader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return pqerr.Wrapf(pqerr.IO, err, "failed to close source")
		}
	}
	return nil
}

// openFile is one independent view of the file.
type openFile struct {
	src    *trackedSource
	pf     *file.Reader
	fr     *pqarrow.FileReader
	schema *schema.Schema
}

func (of *openFile) close() {
	if of.pf != nil {
		_ = of.pf.Close()
	}
}

// classify turns a decoder failure into an IO error when the source
// misbehaved and into a format error otherwise. Errors that already carry a
// kind keep it.
func (of *openFile) classify(err error, msg string) error {
	if pqerr.KindOf(err) != pqerr.Unknown {
		return err
	}
	if ioErr := of.src.failure(); ioErr != nil {
		return pqerr.Wrapf(pqerr.IO, ioErr, "%s", msg)
	}
	return pqerr.Wrapf(pqerr.Format, err, "%s", msg)
}

// recoverFormat converts a panic of the decoder on malformed input into a
// format error.
func recoverFormat(err *error) {
	if p := recover(); p != nil {
		*err = pqerr.Newf(pqerr.Format, "malformed file: %v", p)
	}
}

func (r *Reader) open(batchSize int) (of *openFile, err error) {
	defer recoverFormat(&err)

	of = &openFile{src: &trackedSource{Source: r.src}}
	props := parquet.NewReaderProperties(r.opts.mem)
	pf, err := file.NewParquetReader(io.NewSectionReader(of.src, 0, r.src.Size()), file.WithReadProps(props))
	if err != nil {
		return nil, of.classify(err, "failed to read footer")
	}
	of.pf = pf

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: int64(batchSize)}, r.opts.mem)
	if err != nil {
		of.close()
		return nil, of.classify(err, "failed to map file schema")
	}
	of.fr = fr

	s, err := of.resolveSchema()
	if err != nil {
		of.close()
		return nil, err
	}
	of.schema = s
	return of, nil
}

// resolveSchema prefers the canonical schema stored by the writer and falls
// back to the schema derived from the columnar layout.
func (of *openFile) resolveSchema() (*schema.Schema, error) {
	asc, err := of.fr.Schema()
	if err != nil {
		return nil, of.classify(err, "failed to derive columnar schema")
	}
	if v := of.pf.MetaData().KeyValueMetadata().FindValue(bridge.SchemaMetadataKey); v != nil {
		s, err := schema.Parse([]byte(*v))
		if err != nil {
			return nil, pqerr.Newf(pqerr.Format, "stored schema is invalid: %v", err)
		}
		if s.NumColumns() != asc.NumFields() {
			return nil, pqerr.Newf(pqerr.Format, "stored schema has %d columns, file has %d",
				s.NumColumns(), asc.NumFields())
		}
		return s, nil
	}
	s, err := bridge.FromArrowSchema(asc)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Metadata is the decoded footer of a file.
type Metadata struct {
	Schema    *schema.Schema
	NumRows   int64
	RowGroups []RowGroup
	CreatedBy string
	Version   string
	KeyValue  map[string]string
}

// RowGroup describes one row group.
type RowGroup struct {
	NumRows       int64
	TotalByteSize int64
	Columns       []ColumnChunk
}

// ColumnChunk describes one leaf column of a row group.
type ColumnChunk struct {
	Path             string
	Codec            string
	Offset           int64
	NumValues        int64
	CompressedSize   int64
	UncompressedSize int64
}

// Metadata parses the footer on first use and returns the same result on
// every later call. It never interferes with iterators.
func (r *Reader) Metadata() (*Metadata, error) {
	r.metaOnce.Do(func() {
		r.meta, r.metaErr = r.readMetadata()
		if r.metaErr != nil {
			r.opts.metrics.recordReadError(r.metaErr)
		}
	})
	return r.meta, r.metaErr
}

func (r *Reader) readMetadata() (md *Metadata, err error) {
	of, err := r.open(r.opts.batchSize)
	if err != nil {
		return nil, err
	}
	defer of.close()
	defer recoverFormat(&err)

	fmd := of.pf.MetaData()
	md = &Metadata{
		Schema:    of.schema,
		NumRows:   of.pf.NumRows(),
		CreatedBy: fmd.GetCreatedBy(),
		Version:   fmd.Version().String(),
		KeyValue:  map[string]string{},
	}
	kv := fmd.KeyValueMetadata()
	keys, vals := kv.Keys(), kv.Values()
	for i := range keys {
		md.KeyValue[keys[i]] = vals[i]
	}
	for i := 0; i < of.pf.NumRowGroups(); i++ {
		rg := fmd.RowGroup(i)
		g := RowGroup{NumRows: rg.NumRows(), TotalByteSize: rg.TotalByteSize()}
		for j := 0; j < rg.NumColumns(); j++ {
			cc, err := rg.ColumnChunk(j)
			if err != nil {
				return nil, of.classify(err, fmt.Sprintf("failed to read column chunk %d of row group %d", j, i))
			}
			g.Columns = append(g.Columns, ColumnChunk{
				Path:             cc.PathInSchema().String(),
				Codec:            cc.Compression().String(),
				Offset:           cc.DataPageOffset(),
				NumValues:        cc.NumValues(),
				CompressedSize:   cc.TotalCompressedSize(),
				UncompressedSize: cc.TotalUncompressedSize(),
			})
		}
		md.RowGroups = append(md.RowGroups, g)
	}
	r.opts.log.Debug("metadata read",
		zap.Int64("rows", md.NumRows),
		zap.Int("row_groups", len(md.RowGroups)),
		zap.String("created_by", md.CreatedBy))
	return md, nil
}

// ReadRows iterates every row in file order.
func (r *Reader) ReadRows() *RowIterator {
	return newRowIterator(r.newStream(nil, false, 0))
}

// ReadRowsWithProjection iterates rows restricted to the named top-level
// columns. Values keep schema order whatever the order of columns. An empty
// projection yields one empty row per row of the file.
func (r *Reader) ReadRowsWithProjection(columns []string) *RowIterator {
	return newRowIterator(r.newStream(columns, true, 0))
}

// ReadColumns iterates column batches of up to batchSize rows. A batch size
// of zero selects the reader default.
func (r *Reader) ReadColumns(batchSize int) *BatchIterator {
	return newBatchIterator(r.newStream(nil, false, batchSize))
}

// ReadColumnsWithProjection is ReadColumns restricted to the named columns.
func (r *Reader) ReadColumnsWithProjection(columns []string, batchSize int) *BatchIterator {
	return newBatchIterator(r.newStream(columns, true, batchSize))
}

// ColumnBatch is a contiguous slice of rows stored column by column.
type ColumnBatch struct {
	Names   []string
	Columns [][]value.Value
	NumRows int
}

// Column returns the values of the named column.
func (b ColumnBatch) Column(name string) ([]value.Value, bool) {
	for i, n := range b.Names {
		if n == name {
			return b.Columns[i], true
		}
	}
	return nil, false
}

// stream produces column batches. Setup happens on the first pull so that
// every failure, including an unknown projection, surfaces from the
// iterator.
type stream struct {
	r         *Reader
	project   bool
	columns   []string
	batchSize int

	started bool
	done    bool
	err     error
	emitted bool
	closed  bool

	of        *openFile
	rr        pqarrow.RecordReader
	codec     *bridge.RecordCodec
	names     []string
	remaining int64
}

func (r *Reader) newStream(columns []string, project bool, batchSize int) *stream {
	if batchSize <= 0 {
		batchSize = r.opts.batchSize
	}
	r.opts.metrics.iteratorOpened()
	return &stream{r: r, project: project, columns: columns, batchSize: batchSize}
}

func (s *stream) start() (err error) {
	of, err := s.r.open(s.batchSize)
	if err != nil {
		return err
	}
	s.of = of
	defer recoverFormat(&err)

	sch := of.schema
	var kept []int
	if s.project {
		sch, kept, err = of.schema.Project(s.columns)
		if err != nil {
			return err
		}
	}
	s.names = sch.FieldNames()
	if s.project && len(kept) == 0 {
		s.remaining = of.pf.NumRows()
		return nil
	}
	if s.codec, err = bridge.NewRecordCodec(sch, nil); err != nil {
		return err
	}

	var leaves []int
	if s.project {
		for _, idx := range kept {
			leaves = appendLeaves(leaves, of.fr.Manifest.Fields[idx])
		}
	}
	rr, err := of.fr.GetRecordReader(context.Background(), leaves, nil)
	if err != nil {
		return of.classify(err, "failed to open record reader")
	}
	s.rr = rr
	s.r.opts.log.Debug("iterator opened",
		zap.Strings("columns", s.names),
		zap.Int("batch_size", s.batchSize),
		zap.Int64("rows", of.pf.NumRows()))
	return nil
}

func appendLeaves(dst []int, f pqarrow.SchemaField) []int {
	if len(f.Children) == 0 {
		return append(dst, f.ColIndex)
	}
	for _, c := range f.Children {
		dst = appendLeaves(dst, c)
	}
	return dst
}

func (s *stream) fail(err error) {
	s.err = err
	s.done = true
	s.r.opts.metrics.recordReadError(err)
	s.release()
}

// next returns the following batch. ok is false at the end of the stream or
// on failure.
func (s *stream) next() (b ColumnBatch, ok bool) {
	if s.done {
		return ColumnBatch{}, false
	}
	if !s.started {
		s.started = true
		if err := s.start(); err != nil {
			s.fail(err)
			return ColumnBatch{}, false
		}
	}
	b, ok, err := s.pull()
	if err != nil {
		s.fail(err)
		return ColumnBatch{}, false
	}
	if !ok {
		if s.emitted {
			s.finish()
			return ColumnBatch{}, false
		}
		// An empty dataset still yields one batch carrying the column names.
		b = ColumnBatch{Names: s.names, Columns: make([][]value.Value, len(s.names))}
		for i := range b.Columns {
			b.Columns[i] = []value.Value{}
		}
		s.finish()
	}
	s.emitted = true
	s.r.opts.metrics.recordBatch(b.NumRows)
	return b, true
}

func (s *stream) pull() (b ColumnBatch, ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = s.of.classify(fmt.Errorf("%v", p), "failed to read row group")
		}
	}()

	if s.rr == nil {
		if s.remaining <= 0 {
			return ColumnBatch{}, false, nil
		}
		n := s.remaining
		if n > int64(s.batchSize) {
			n = int64(s.batchSize)
		}
		s.remaining -= n
		return ColumnBatch{Names: s.names, Columns: [][]value.Value{}, NumRows: int(n)}, true, nil
	}
	for s.rr.Next() {
		rec := s.rr.Record()
		if rec.NumRows() == 0 {
			continue
		}
		cols, err := s.codec.DecodeRecord(rec)
		if err != nil {
			return ColumnBatch{}, false, err
		}
		return ColumnBatch{Names: s.names, Columns: cols, NumRows: int(rec.NumRows())}, true, nil
	}
	if err := s.rr.Err(); err != nil && err != io.EOF {
		return ColumnBatch{}, false, s.of.classify(err, "failed to read row group")
	}
	return ColumnBatch{}, false, nil
}

func (s *stream) finish() {
	s.done = true
	s.release()
}

func (s *stream) release() {
	if s.rr != nil {
		s.rr.Release()
		s.rr = nil
	}
	if s.of != nil {
		s.of.close()
		s.of = nil
	}
}

func (s *stream) close() {
	s.done = true
	s.release()
	if !s.closed {
		s.closed = true
		s.r.opts.metrics.iteratorClosed()
	}
}

// BatchIterator is a single pass iterator over column batches.
type BatchIterator struct {
	s   *stream
	cur ColumnBatch
}

func newBatchIterator(s *stream) *BatchIterator { return &BatchIterator{s: s} }

// Next advances to the next batch.
func (it *BatchIterator) Next() bool {
	b, ok := it.s.next()
	it.cur = b
	return ok
}

// Batch returns the current batch.
func (it *BatchIterator) Batch() ColumnBatch { return it.cur }

// Err returns the error that ended the iteration, if any.
func (it *BatchIterator) Err() error { return it.s.err }

// Close releases the iterator. It is safe to stop early and to call Close
// more than once.
func (it *BatchIterator) Close() error {
	it.s.close()
	return nil
}

// All adapts the iterator for range loops. An error is yielded as the last
// element. The iterator is closed when the loop ends.
func (it *BatchIterator) All() iter.Seq2[ColumnBatch, error] {
	return func(yield func(ColumnBatch, error) bool) {
		defer it.Close()
		for it.Next() {
			if !yield(it.Batch(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(ColumnBatch{}, err)
		}
	}
}

// RowIterator is a single pass iterator over rows.
type RowIterator struct {
	s   *stream
	b   ColumnBatch
	pos int
	row []value.Value
}

func newRowIterator(s *stream) *RowIterator { return &RowIterator{s: s} }

// Next advances to the next row.
func (it *RowIterator) Next() bool {
	for it.pos >= it.b.NumRows {
		b, ok := it.s.next()
		if !ok {
			it.row = nil
			return false
		}
		it.b, it.pos = b, 0
	}
	row := make([]value.Value, len(it.b.Columns))
	for i, c := range it.b.Columns {
		row[i] = c[it.pos]
	}
	it.pos++
	it.row = row
	return true
}

// Row returns the current row. The slice is not reused.
func (it *RowIterator) Row() []value.Value { return it.row }

// Names returns the column names of the rows. It is empty before the first
// successful Next.
func (it *RowIterator) Names() []string { return it.b.Names }

// Err returns the error that ended the iteration, if any.
func (it *RowIterator) Err() error { return it.s.err }

// Close releases the iterator.
func (it *RowIterator) Close() error {
	it.s.close()
	return nil
}

// All adapts the iterator for range loops. An error is yielded as the last
// element.
func (it *RowIterator) All() iter.Seq2[[]value.Value, error] {
	return func(yield func([]value.Value, error) bool) {
		defer it.Close()
		for it.Next() {
			if !yield(it.Row(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}
