// ABOUTME: Typed error taxonomy shared by all version store implementations
// ABOUTME: Callers branch on error kind with errors.As or the Is helpers

package version

import (
	"errors"
	"fmt"
)

// ValidationError reports a missing or out-of-bounds input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown document, or an unknown version of a
// known document when Ref is set.
type NotFoundError struct {
	DocumentID string
	Ref        string
}

func (e *NotFoundError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("document %q not found", e.DocumentID)
	}
	return fmt.Sprintf("version %q of document %q not found", e.Ref, e.DocumentID)
}

// ConflictError reports that a (document, version number) pair was already
// claimed by another write. It marks exactly one losing attempt; the service
// layer decides whether to retry.
type ConflictError struct {
	DocumentID    string
	VersionNumber uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version %d of document %q already exists", e.VersionNumber, e.DocumentID)
}

// StorageError wraps an infrastructure failure in a store backend. These are
// never retried by the service layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
