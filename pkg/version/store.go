// ABOUTME: Storage contract for durable version persistence
// ABOUTME: Implementations enforce at-most-once numbering via conditional Put

package version

import "context"

// Store persists immutable version records grouped by document.
//
// Put must fail with *ConflictError when a version with the same
// (DocumentID, VersionNumber) already exists. That conditional write is the
// only concurrency primitive the service layer relies on; the store needs no
// other coordination.
//
// List returns an empty slice, not an error, for a document with no retained
// versions. Get and GetByID return *NotFoundError for missing records.
// Delete exists for retention pruning only and never renumbers survivors.
// Failures outside the taxonomy are wrapped in *StorageError.
type Store interface {
	Put(ctx context.Context, v *Version) error
	List(ctx context.Context, documentID string) ([]*Version, error)
	Get(ctx context.Context, documentID string, number uint64) (*Version, error)
	GetByID(ctx context.Context, documentID, versionID string) (*Version, error)
	Delete(ctx context.Context, documentID, versionID string) error
	Close() error
}
