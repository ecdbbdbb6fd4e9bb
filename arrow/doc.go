// Package arrow moves column batches in and out of Arrow IPC streams.
// This package implements:
// - a streaming writer and reader of value batches over ipc
// - one shot Encode/Decode helpers for whole datasets
// The canonical schema travels in the stream schema metadata, so a decoded
// stream keeps the exact schema it was written with.
package arrow
