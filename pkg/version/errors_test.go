// ABOUTME: Tests for the store error taxonomy
// ABOUTME: Verifies messages, kind helpers, and unwrapping through wrappers

package version

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			"validation",
			&ValidationError{Field: "documentId", Reason: "is required"},
			`invalid documentId: is required`,
		},
		{
			"document not found",
			&NotFoundError{DocumentID: "doc-1"},
			`document "doc-1" not found`,
		},
		{
			"version not found",
			&NotFoundError{DocumentID: "doc-1", Ref: "7"},
			`version "7" of document "doc-1" not found`,
		},
		{
			"conflict",
			&ConflictError{DocumentID: "doc-1", VersionNumber: 3},
			`version 3 of document "doc-1" already exists`,
		},
		{
			"storage",
			&StorageError{Op: "put", Err: errors.New("disk full")},
			`storage put: disk full`,
		},
	}

	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestErrorKindHelpers(t *testing.T) {
	validation := &ValidationError{Field: "content", Reason: "is required"}
	notFound := &NotFoundError{DocumentID: "doc-1"}
	conflict := &ConflictError{DocumentID: "doc-1", VersionNumber: 2}
	storage := &StorageError{Op: "list", Err: errors.New("timeout")}

	checks := []struct {
		name string
		fn   func(error) bool
		hit  error
	}{
		{"IsValidation", IsValidation, validation},
		{"IsNotFound", IsNotFound, notFound},
		{"IsConflict", IsConflict, conflict},
		{"IsStorage", IsStorage, storage},
	}
	all := []error{validation, notFound, conflict, storage}

	for _, c := range checks {
		if !c.fn(c.hit) {
			t.Errorf("%s rejected its own kind", c.name)
		}
		// Helpers see through wrapping.
		if !c.fn(fmt.Errorf("create version: %w", c.hit)) {
			t.Errorf("%s does not match through wrapping", c.name)
		}
		for _, other := range all {
			if other != c.hit && c.fn(other) {
				t.Errorf("%s matched %T", c.name, other)
			}
		}
		if c.fn(nil) {
			t.Errorf("%s matched nil", c.name)
		}
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &StorageError{Op: "get", Err: cause}

	if !errors.Is(err, cause) {
		t.Errorf("Expected storage error to unwrap to its cause")
	}
}
