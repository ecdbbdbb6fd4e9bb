// Package pqerr defines the failure kinds raised by the value, schema, bridge
// and engine packages.
//
// Every error produced by those packages carries exactly one Kind. Kinds are
// attached as markers, so callers may wrap an error with more context and
// still recover the kind with KindOf or Is.
package pqerr
