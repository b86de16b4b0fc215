// ABOUTME: In-memory reference implementation of the version store
// ABOUTME: Mutex-guarded per-document logs with copy-on-read-and-write semantics

package version

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore is the in-process reference Store. It is safe for concurrent
// use and keeps no state outside the process.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]*Version
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]*Version)}
}

// Put appends v to the document's history. The duplicate-number check and
// the append happen under one lock, which is what makes Put conditional.
func (s *MemoryStore) Put(ctx context.Context, v *Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.docs[v.DocumentID] {
		if existing.VersionNumber == v.VersionNumber {
			return &ConflictError{DocumentID: v.DocumentID, VersionNumber: v.VersionNumber}
		}
	}

	s.docs[v.DocumentID] = append(s.docs[v.DocumentID], v.Clone())
	return nil
}

// List returns copies of all retained versions in insertion order.
func (s *MemoryStore) List(ctx context.Context, documentID string) ([]*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.docs[documentID]
	versions := make([]*Version, 0, len(stored))
	for _, v := range stored {
		versions = append(versions, v.Clone())
	}
	return versions, nil
}

// Get returns the version with the given number.
func (s *MemoryStore) Get(ctx context.Context, documentID string, number uint64) (*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.docs[documentID] {
		if v.VersionNumber == number {
			return v.Clone(), nil
		}
	}
	return nil, &NotFoundError{DocumentID: documentID, Ref: strconv.FormatUint(number, 10)}
}

// GetByID returns the version with the given opaque ID.
func (s *MemoryStore) GetByID(ctx context.Context, documentID, versionID string) (*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.docs[documentID] {
		if v.ID == versionID {
			return v.Clone(), nil
		}
	}
	return nil, &NotFoundError{DocumentID: documentID, Ref: versionID}
}

// Delete removes the version with the given ID. Remaining versions keep
// their numbers.
func (s *MemoryStore) Delete(ctx context.Context, documentID, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.docs[documentID]
	for i, v := range stored {
		if v.ID == versionID {
			s.docs[documentID] = append(stored[:i:i], stored[i+1:]...)
			if len(s.docs[documentID]) == 0 {
				delete(s.docs, documentID)
			}
			return nil
		}
	}
	return &NotFoundError{DocumentID: documentID, Ref: versionID}
}

// Close releases nothing; it exists to satisfy Store.
func (s *MemoryStore) Close() error {
	return nil
}
