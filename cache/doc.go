// Package cache provides caller-side caching with concurrent access.
// This package implements:
// - Reference counted interning of column names
// - Explicit release and teardown, with no process wide state
package cache
