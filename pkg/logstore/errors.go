// Package logstore implements an append-only segmented log store for version records
package logstore

import "errors"

var (
	// ErrCorrupted indicates a corrupted log record (CRC mismatch)
	ErrCorrupted = errors.New("logstore: corrupted record")

	// ErrTruncated indicates a truncated log record
	ErrTruncated = errors.New("logstore: truncated record")

	// ErrClosed indicates an operation on a closed store
	ErrClosed = errors.New("logstore: store closed")

	// ErrInvalidRecord indicates an invalid record format
	ErrInvalidRecord = errors.New("logstore: invalid record")
)
