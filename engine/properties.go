package engine

import (
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"go.uber.org/zap"

	"github.com/VanDung-dev/parquet-core/pqerr"
)

// Codec selects the page compression of a file.
type Codec uint8

const (
	Uncompressed Codec = iota
	Snappy
	LZ4Raw
	Gzip
	Brotli
	Zstd
)

type codecInfo struct {
	name     string
	codec    compress.Compression
	min, max int
}

// Levels of zero select the codec default and are not range checked.
var codecs = map[Codec]codecInfo{
	Uncompressed: {name: "uncompressed", codec: compress.Codecs.Uncompressed},
	Snappy:       {name: "snappy", codec: compress.Codecs.Snappy},
	LZ4Raw:       {name: "lz4_raw", codec: compress.Codecs.Lz4Raw},
	Gzip:         {name: "gzip", codec: compress.Codecs.Gzip, min: 1, max: 9},
	Brotli:       {name: "brotli", codec: compress.Codecs.Brotli, min: 1, max: 11},
	Zstd:         {name: "zstd", codec: compress.Codecs.Zstd, min: 1, max: 22},
}

var codecAliases = map[string]Codec{
	"none":         Uncompressed,
	"uncompressed": Uncompressed,
	"snappy":       Snappy,
	"lz4":          LZ4Raw,
	"lz4_raw":      LZ4Raw,
	"lz4raw":       LZ4Raw,
	"gzip":         Gzip,
	"gz":           Gzip,
	"brotli":       Brotli,
	"zstd":         Zstd,
}

func (c Codec) String() string {
	if info, ok := codecs[c]; ok {
		return info.name
	}
	return "unknown"
}

// Compression is a codec with an optional level.
type Compression struct {
	Codec Codec
	Level int
}

// ParseCompression parses "codec" or "codec:level", e.g. "zstd:3".
func ParseCompression(s string) (Compression, error) {
	name, level, hasLevel := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	codec, ok := codecAliases[name]
	if !ok {
		return Compression{}, pqerr.Newf(pqerr.InvalidArgument, "unknown compression codec %q", name)
	}
	c := Compression{Codec: codec}
	if hasLevel {
		n, err := strconv.Atoi(level)
		if err != nil {
			return Compression{}, pqerr.Newf(pqerr.InvalidArgument, "invalid compression level %q", level)
		}
		c.Level = n
	}
	return c, c.Validate()
}

// Validate checks the level against the codec's range.
func (c Compression) Validate() error {
	info, ok := codecs[c.Codec]
	if !ok {
		return pqerr.Newf(pqerr.InvalidArgument, "unknown compression codec %d", c.Codec)
	}
	if c.Level == 0 {
		return nil
	}
	if info.max == 0 {
		return pqerr.Newf(pqerr.InvalidArgument, "codec %s takes no compression level", info.name)
	}
	if c.Level < info.min || c.Level > info.max {
		return pqerr.Newf(pqerr.InvalidArgument, "%s level %d out of range [%d, %d]",
			info.name, c.Level, info.min, info.max)
	}
	return nil
}

func (c Compression) String() string {
	if c.Level == 0 {
		return c.Codec.String()
	}
	return c.Codec.String() + ":" + strconv.Itoa(c.Level)
}

// WriterProperties configures a Writer.
type WriterProperties struct {
	Compression Compression

	// BatchSize, when positive, flushes a row group every BatchSize rows and
	// takes precedence over BatchPolicy.
	BatchSize   int
	BatchPolicy BatchPolicy

	// Dictionary enables dictionary encoding of every column.
	Dictionary bool
	CreatedBy  string

	// KeyValue is stored in the file footer next to the schema.
	KeyValue map[string]string

	Logger    *zap.Logger
	Metrics   *Metrics
	Allocator memory.Allocator
}

const defaultCreatedBy = "parquet-core"

// DefaultWriterProperties returns snappy compression with the default fixed
// batch policy.
func DefaultWriterProperties() WriterProperties {
	return WriterProperties{
		Compression: Compression{Codec: Snappy},
		BatchPolicy: DefaultFixedPolicy(),
		Dictionary:  true,
		CreatedBy:   defaultCreatedBy,
	}
}

func (p WriterProperties) validate() error {
	if p.BatchSize < 0 {
		return pqerr.Newf(pqerr.InvalidArgument, "batch size must not be negative, got %d", p.BatchSize)
	}
	return p.Compression.Validate()
}

func (p WriterProperties) policy() BatchPolicy {
	if p.BatchSize > 0 {
		return FixedPolicy{Rows: p.BatchSize}
	}
	if p.BatchPolicy == nil {
		return DefaultFixedPolicy()
	}
	return p.BatchPolicy
}

func (p WriterProperties) parquetProperties(mem memory.Allocator) *parquet.WriterProperties {
	createdBy := p.CreatedBy
	if createdBy == "" {
		createdBy = defaultCreatedBy
	}
	opts := []parquet.WriterProperty{
		parquet.WithAllocator(mem),
		parquet.WithVersion(parquet.V2_LATEST),
		parquet.WithCompression(codecs[p.Compression.Codec].codec),
		parquet.WithDictionaryDefault(p.Dictionary),
		parquet.WithCreatedBy(createdBy),
	}
	if p.Compression.Level != 0 {
		opts = append(opts, parquet.WithCompressionLevel(p.Compression.Level))
	}
	return parquet.NewWriterProperties(opts...)
}
