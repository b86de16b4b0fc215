// ABOUTME: Core data model for immutable document versions
// ABOUTME: Defines Version, Author, and bounded Metadata with their wire shape

package version

import (
	"fmt"
	"time"

	"github.com/nainya/docvault/pkg/diff"
)

// Metadata bounds enforced by Validate.
const (
	MaxMetadataKeys     = 32
	MaxMetadataKeyLen   = 256
	MaxMetadataValueLen = 4096
)

// Author identifies who created a version. The identity is supplied by the
// caller and never authenticated here.
type Author struct {
	ID          string `json:"id" validate:"required"`
	DisplayName string `json:"displayName"`
}

// Metadata is a bounded set of caller-supplied annotations on a version.
type Metadata map[string]string

// Validate checks the metadata bounds.
func (m Metadata) Validate() error {
	if len(m) > MaxMetadataKeys {
		return &ValidationError{
			Field:  "metadata",
			Reason: fmt.Sprintf("has %d keys, limit is %d", len(m), MaxMetadataKeys),
		}
	}
	for k, v := range m {
		if k == "" {
			return &ValidationError{Field: "metadata", Reason: "contains an empty key"}
		}
		if len(k) > MaxMetadataKeyLen {
			return &ValidationError{
				Field:  "metadata",
				Reason: fmt.Sprintf("key %q exceeds %d bytes", truncate(k, 32), MaxMetadataKeyLen),
			}
		}
		if len(v) > MaxMetadataValueLen {
			return &ValidationError{
				Field:  "metadata",
				Reason: fmt.Sprintf("value for key %q exceeds %d bytes", truncate(k, 32), MaxMetadataValueLen),
			}
		}
	}
	return nil
}

// Clone returns an independent copy of the metadata map.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	cp := make(Metadata, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Version is one immutable snapshot of a document's content.
//
// VersionNumber is 1-based and strictly increasing per document. Numbers are
// assigned once and never reused, so the history stays gapless at creation
// time even though retention pruning may later remove old records.
// DiffFromPrevious is nil for the first version of a document.
type Version struct {
	ID               string     `json:"id"`
	DocumentID       string     `json:"documentId"`
	VersionNumber    uint64     `json:"versionNumber"`
	Timestamp        time.Time  `json:"timestamp"`
	Author           Author     `json:"author"`
	Comment          string     `json:"comment"`
	Content          string     `json:"content"`
	Metadata         Metadata   `json:"metadata"`
	DiffFromPrevious *diff.Diff `json:"diff"`
}

// Clone returns a deep copy of v. Stores hand out clones so callers cannot
// mutate retained records.
func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	cp := *v
	cp.Metadata = v.Metadata.Clone()
	if v.DiffFromPrevious != nil {
		d := diff.Diff{Changes: append([]diff.Change(nil), v.DiffFromPrevious.Changes...)}
		cp.DiffFromPrevious = &d
	}
	return &cp
}
