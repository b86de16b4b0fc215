package logstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/nainya/docvault/pkg/version"
)

// Compact rewrites all live records into a fresh segment and removes the
// older segments, reclaiming the space held by tombstones and dead versions.
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &version.StorageError{Op: "compact", Err: ErrClosed}
	}
	if err := s.compactLocked(); err != nil {
		return &version.StorageError{Op: "compact", Err: err}
	}
	s.deleted = 0
	return nil
}

// compactLocked writes the snapshot segment before touching the old ones, so
// a crash at any point leaves a replayable sequence (caller must hold mu).
func (s *Store) compactLocked() error {
	live := s.liveVersions()

	newSegment := s.segment + 1
	path := s.segmentPath(newSegment)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create compaction segment: %w", err)
	}

	var written int64
	for _, v := range live {
		value, err := json.Marshal(v)
		if err != nil {
			file.Close()
			os.Remove(path)
			return fmt.Errorf("encode version %s: %w", v.ID, err)
		}
		s.seq++
		rec := &record{
			Seq:       s.seq,
			Op:        opPut,
			Key:       recordKey(v.DocumentID, v.ID),
			Value:     value,
			Timestamp: time.Now().UTC(),
		}
		n, err := file.Write(rec.encode())
		if err != nil {
			file.Close()
			os.Remove(path)
			return fmt.Errorf("write compaction segment: %w", err)
		}
		written += int64(n)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("sync compaction segment: %w", err)
	}

	// The snapshot is durable; switch appends to it and drop the history.
	oldSegment := s.segment
	oldFile := s.file
	s.file = file
	s.size = written
	s.segment = newSegment

	oldFile.Close()
	for idx := 0; idx <= oldSegment; idx++ {
		os.Remove(s.segmentPath(idx)) // already superseded, errors ignorable
	}
	return nil
}

// liveVersions snapshots the index in deterministic order (caller must hold mu)
func (s *Store) liveVersions() []*version.Version {
	var live []*version.Version
	for _, numbers := range s.byNumber {
		for _, v := range numbers {
			live = append(live, v)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].DocumentID != live[j].DocumentID {
			return live[i].DocumentID < live[j].DocumentID
		}
		return live[i].VersionNumber < live[j].VersionNumber
	})
	return live
}
