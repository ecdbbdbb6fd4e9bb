package arrow

import (
	"bytes"
	"io"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/VanDung-dev/parquet-core/bridge"
	"github.com/VanDung-dev/parquet-core/pqerr"
	"github.com/VanDung-dev/parquet-core/schema"
	"github.com/VanDung-dev/parquet-core/value"
)

// Compression of IPC record bodies.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionLZ4  Compression = "lz4"
	CompressionZstd Compression = "zstd"
)

// Options configures stream writers and readers.
type Options struct {
	Allocator   memory.Allocator
	Compression Compression
}

func (o Options) allocator() memory.Allocator {
	if o.Allocator == nil {
		return memory.DefaultAllocator
	}
	return o.Allocator
}

// StreamWriter writes column batches of one schema as an IPC stream.
type StreamWriter struct {
	w     *ipc.Writer
	codec *bridge.RecordCodec
	mem   memory.Allocator
}

// NewStreamWriter starts a stream for s on w.
func NewStreamWriter(w io.Writer, s *schema.Schema, opts Options) (*StreamWriter, error) {
	canonical, err := s.MarshalJSON()
	if err != nil {
		return nil, pqerr.Wrapf(pqerr.Schema, err, "failed to encode schema")
	}
	codec, err := bridge.NewRecordCodec(s, map[string]string{bridge.SchemaMetadataKey: string(canonical)})
	if err != nil {
		return nil, err
	}
	mem := opts.allocator()
	ipcOpts := []ipc.Option{ipc.WithSchema(codec.ArrowSchema()), ipc.WithAllocator(mem)}
	switch opts.Compression {
	case CompressionNone:
	case CompressionLZ4:
		ipcOpts = append(ipcOpts, ipc.WithLZ4())
	case CompressionZstd:
		ipcOpts = append(ipcOpts, ipc.WithZstd())
	default:
		return nil, pqerr.Newf(pqerr.InvalidArgument, "unknown IPC compression %q", opts.Compression)
	}
	return &StreamWriter{w: ipc.NewWriter(w, ipcOpts...), codec: codec, mem: mem}, nil
}

// WriteBatch writes one value slice per column as a record batch.
func (sw *StreamWriter) WriteBatch(columns [][]value.Value) error {
	rec, err := sw.codec.BuildRecord(sw.mem, columns)
	if err != nil {
		return err
	}
	defer rec.Release()
	if err := sw.w.Write(rec); err != nil {
		return pqerr.Wrapf(pqerr.IO, err, "failed to write record")
	}
	return nil
}

// Close ends the stream.
func (sw *StreamWriter) Close() error {
	if err := sw.w.Close(); err != nil {
		return pqerr.Wrapf(pqerr.IO, err, "failed to close writer")
	}
	return nil
}

// StreamReader decodes the record batches of an IPC stream.
type StreamReader struct {
	r      *ipc.Reader
	codec  *bridge.RecordCodec
	schema *schema.Schema

	cols [][]value.Value
	rows int
	err  error
}

// NewStreamReader reads the stream schema from r.
func NewStreamReader(r io.Reader, opts Options) (*StreamReader, error) {
	reader, err := ipc.NewReader(r, ipc.WithAllocator(opts.allocator()))
	if err != nil {
		return nil, pqerr.Wrapf(pqerr.Format, err, "failed to create reader")
	}
	sc := reader.Schema()

	var s *schema.Schema
	md := sc.Metadata()
	if i := md.FindKey(bridge.SchemaMetadataKey); i >= 0 {
		s, err = schema.Parse([]byte(md.Values()[i]))
	} else {
		s, err = bridge.FromArrowSchema(sc)
	}
	if err != nil {
		reader.Release()
		return nil, err
	}
	codec, err := bridge.NewRecordCodec(s, nil)
	if err != nil {
		reader.Release()
		return nil, err
	}
	return &StreamReader{r: reader, codec: codec, schema: s}, nil
}

// Schema returns the schema of the stream.
func (sr *StreamReader) Schema() *schema.Schema { return sr.schema }

// Next decodes the next record batch.
func (sr *StreamReader) Next() bool {
	if sr.err != nil || !sr.r.Next() {
		if sr.err == nil {
			if err := sr.r.Err(); err != nil && err != io.EOF {
				sr.err = pqerr.Wrapf(pqerr.Format, err, "failed to read record")
			}
		}
		sr.cols, sr.rows = nil, 0
		return false
	}
	rec := sr.r.Record()
	cols, err := sr.codec.DecodeRecord(rec)
	if err != nil {
		sr.err = err
		return false
	}
	sr.cols, sr.rows = cols, int(rec.NumRows())
	return true
}

// Batch returns the columns of the current batch.
func (sr *StreamReader) Batch() [][]value.Value { return sr.cols }

// NumRows returns the row count of the current batch.
func (sr *StreamReader) NumRows() int { return sr.rows }

func (sr *StreamReader) Err() error { return sr.err }

// Close releases the reader.
func (sr *StreamReader) Close() {
	sr.r.Release()
}

// Encode serializes a whole dataset given as column batches to IPC bytes.
func Encode(s *schema.Schema, batches ...[][]value.Value) ([]byte, error) {
	var buf bytes.Buffer
	sw, err := NewStreamWriter(&buf, s, Options{})
	if err != nil {
		return nil, err
	}
	for _, b := range batches {
		if err := sw.WriteBatch(b); err != nil {
			return nil, err
		}
	}
	if err := sw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes IPC bytes into the schema and every batch.
func Decode(data []byte) (*schema.Schema, [][][]value.Value, error) {
	sr, err := NewStreamReader(bytes.NewReader(data), Options{})
	if err != nil {
		return nil, nil, err
	}
	defer sr.Close()

	var batches [][][]value.Value
	for sr.Next() {
		batches = append(batches, sr.Batch())
	}
	if sr.Err() != nil {
		return nil, nil, sr.Err()
	}
	return sr.Schema(), batches, nil
}
