package pqerr

import (
	"github.com/cockroachdb/errors"
)

// Kind classifies a failure. The kinds do not overlap.
type Kind uint8

const (
	// Unknown is reported for errors that carry no kind marker, such as
	// errors returned by a caller-supplied sink.
	Unknown Kind = iota
	// IO is a source or sink malfunction.
	IO
	// Format is a malformed or unsupported low-level encoding.
	Format
	// Schema is an invalid schema construction or path lookup.
	Schema
	// Conversion is a value/columnar mismatch, numeric overflow or invalid UTF-8.
	Conversion
	// InvalidArgument is an inconsistent parameter supplied by the caller.
	InvalidArgument
	// Validation is a null where disallowed or a row arity mismatch.
	Validation
	// Unsupported is a feature not implemented for a type combination.
	Unsupported
	// Internal is an invariant violation.
	Internal
)

var kindNames = [...]string{
	Unknown:         "unknown",
	IO:              "io",
	Format:          "format",
	Schema:          "schema",
	Conversion:      "conversion",
	InvalidArgument: "invalid argument",
	Validation:      "validation",
	Unsupported:     "unsupported",
	Internal:        "internal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Kind markers. They are never returned directly; errors.Is reports whether
// an error was marked with one of them.
var (
	ErrIO              = errors.New("i/o failure")
	ErrFormat          = errors.New("parquet format error")
	ErrSchema          = errors.New("schema error")
	ErrConversion      = errors.New("conversion error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("data validation error")
	ErrUnsupported     = errors.New("unsupported operation")
	ErrInternal        = errors.New("internal error")
)

var markers = map[Kind]error{
	IO:              ErrIO,
	Format:          ErrFormat,
	Schema:          ErrSchema,
	Conversion:      ErrConversion,
	InvalidArgument: ErrInvalidArgument,
	Validation:      ErrValidation,
	Unsupported:     ErrUnsupported,
	Internal:        ErrInternal,
}

// checked in order; the first marker found wins.
var kindOrder = []Kind{IO, Format, Schema, Conversion, InvalidArgument, Validation, Unsupported, Internal}

func mark(kind Kind, err error) error {
	m, ok := markers[kind]
	if !ok {
		return err
	}
	return errors.Mark(err, m)
}

// Newf returns a new error of the given kind.
func Newf(kind Kind, format string, args ...interface{}) error {
	return mark(kind, errors.NewWithDepthf(1, format, args...))
}

// Wrapf wraps err with a message and marks it with kind. When err already
// carries a kind, that kind is kept and the kind argument is ignored. A nil
// err yields nil.
func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != Unknown {
		return errors.WrapWithDepthf(1, err, format, args...)
	}
	return mark(kind, errors.WrapWithDepthf(1, err, format, args...))
}

// Internalf reports an invariant violation.
func Internalf(format string, args ...interface{}) error {
	return mark(Internal, errors.AssertionFailedWithDepthf(1, format, args...))
}

// KindOf returns the kind carried by err, or Unknown.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	for _, k := range kindOrder {
		if errors.Is(err, markers[k]) {
			return k
		}
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	m, ok := markers[kind]
	if !ok {
		return false
	}
	return errors.Is(err, m)
}
