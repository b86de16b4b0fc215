package logstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nainya/docvault/pkg/version"
)

const (
	// DefaultMaxSegmentSize is the rotation threshold for segment files (64MB)
	DefaultMaxSegmentSize = 64 << 20

	// segmentPrefix is the file name prefix for segment files
	segmentPrefix = "versions.log"

	// compactThreshold is the tombstone count that triggers compaction
	compactThreshold = 256
)

// Store is a log-structured file implementation of version.Store.
//
// Every write appends a framed record to the active segment file; the full
// index lives in memory and is rebuilt by replaying segments on Open. The
// conditional Put contract is enforced against that index under the store
// lock. Retention tombstones accumulate until compaction rewrites the live
// records into a fresh segment.
type Store struct {
	mu sync.Mutex

	dir     string
	file    *os.File
	size    int64
	segment int
	seq     uint64
	closed  bool

	maxSegmentSize int64
	syncOnPut      bool

	deleted  int // tombstones since the last compaction
	recovery replayStats

	byNumber map[string]map[uint64]*version.Version
	byID     map[string]map[string]uint64
}

// Option configures a Store
type Option func(*Store)

// WithSyncOnPut fsyncs the active segment after every write. Slower, but a
// crash can then never lose an acknowledged version.
func WithSyncOnPut() Option {
	return func(s *Store) { s.syncOnPut = true }
}

// WithMaxSegmentSize overrides the segment rotation threshold
func WithMaxSegmentSize(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSegmentSize = n
		}
	}
}

// Open opens or creates a log store rooted at dir and replays its segments
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:            dir,
		maxSegmentSize: DefaultMaxSegmentSize,
		byNumber:       make(map[string]map[uint64]*version.Version),
		byID:           make(map[string]map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	if err := s.replay(); err != nil {
		return nil, err
	}
	if err := s.openActive(); err != nil {
		return nil, err
	}
	return s, nil
}

// replay rebuilds the in-memory index from all segment files
func (s *Store) replay() error {
	files, err := s.findSegments()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	stats, err := replaySegments(files, s.apply)
	if err != nil {
		return fmt.Errorf("replay %s: %w", s.dir, err)
	}
	s.recovery = stats

	// Parse the index of the newest segment; appends continue there.
	last := files[len(files)-1]
	if _, err := fmt.Sscanf(filepath.Base(last), segmentPrefix+".%d", &s.segment); err != nil {
		s.segment = 0
	}

	// A torn tail is discarded so the next append starts at a valid record
	// boundary.
	if stats.DroppedTail {
		if err := os.Truncate(last, stats.LastSegmentValidBytes); err != nil {
			return fmt.Errorf("truncate torn tail of %s: %w", last, err)
		}
	}
	return nil
}

// apply replays a single record into the index
func (s *Store) apply(rec *record) error {
	switch rec.Op {
	case opPut:
		var v version.Version
		if err := json.Unmarshal(rec.Value, &v); err != nil {
			return fmt.Errorf("decode version record at seq %d: %w", rec.Seq, err)
		}
		s.indexPut(&v)
	case opDelete:
		documentID, versionID, err := splitKey(rec.Key)
		if err != nil {
			return err
		}
		s.indexDelete(documentID, versionID)
	default:
		return ErrInvalidRecord
	}
	if rec.Seq > s.seq {
		s.seq = rec.Seq
	}
	return nil
}

func (s *Store) indexPut(v *version.Version) {
	numbers := s.byNumber[v.DocumentID]
	if numbers == nil {
		numbers = make(map[uint64]*version.Version)
		s.byNumber[v.DocumentID] = numbers
	}
	ids := s.byID[v.DocumentID]
	if ids == nil {
		ids = make(map[string]uint64)
		s.byID[v.DocumentID] = ids
	}

	// A crash between compaction and cleanup can replay the same version
	// twice; the newer record wins.
	if old, ok := numbers[v.VersionNumber]; ok {
		delete(ids, old.ID)
	}
	numbers[v.VersionNumber] = v
	ids[v.ID] = v.VersionNumber
}

func (s *Store) indexDelete(documentID, versionID string) {
	ids := s.byID[documentID]
	number, ok := ids[versionID]
	if !ok {
		return
	}
	delete(ids, versionID)
	delete(s.byNumber[documentID], number)
	if len(ids) == 0 {
		delete(s.byID, documentID)
		delete(s.byNumber, documentID)
	}
}

// openActive opens the newest segment for appending, creating it if needed
func (s *Store) openActive() error {
	path := s.segmentPath(s.segment)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open segment: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat segment: %w", err)
	}
	s.file = file
	s.size = stat.Size()
	return nil
}

// Put appends v when its (document, number) slot is free
func (s *Store) Put(ctx context.Context, v *version.Version) error {
	if strings.ContainsRune(v.DocumentID, 0) {
		return &version.ValidationError{Field: "documentId", Reason: "contains NUL byte"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &version.StorageError{Op: "put", Err: ErrClosed}
	}
	if numbers := s.byNumber[v.DocumentID]; numbers != nil {
		if _, exists := numbers[v.VersionNumber]; exists {
			return &version.ConflictError{DocumentID: v.DocumentID, VersionNumber: v.VersionNumber}
		}
	}

	stored := v.Clone()
	value, err := json.Marshal(stored)
	if err != nil {
		return &version.StorageError{Op: "put", Err: err}
	}

	s.seq++
	rec := &record{
		Seq:       s.seq,
		Op:        opPut,
		Key:       recordKey(stored.DocumentID, stored.ID),
		Value:     value,
		Timestamp: time.Now().UTC(),
	}
	if err := s.append(rec); err != nil {
		return &version.StorageError{Op: "put", Err: err}
	}

	s.indexPut(stored)
	return nil
}

// List returns copies of all retained versions of a document
func (s *Store) List(ctx context.Context, documentID string) ([]*version.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &version.StorageError{Op: "list", Err: ErrClosed}
	}

	numbers := s.byNumber[documentID]
	versions := make([]*version.Version, 0, len(numbers))
	for _, v := range numbers {
		versions = append(versions, v.Clone())
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].VersionNumber < versions[j].VersionNumber
	})
	return versions, nil
}

// Get returns the version with the given number
func (s *Store) Get(ctx context.Context, documentID string, number uint64) (*version.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &version.StorageError{Op: "get", Err: ErrClosed}
	}
	if v, ok := s.byNumber[documentID][number]; ok {
		return v.Clone(), nil
	}
	return nil, &version.NotFoundError{DocumentID: documentID, Ref: strconv.FormatUint(number, 10)}
}

// GetByID returns the version with the given opaque ID
func (s *Store) GetByID(ctx context.Context, documentID, versionID string) (*version.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &version.StorageError{Op: "get_by_id", Err: ErrClosed}
	}
	if number, ok := s.byID[documentID][versionID]; ok {
		return s.byNumber[documentID][number].Clone(), nil
	}
	return nil, &version.NotFoundError{DocumentID: documentID, Ref: versionID}
}

// Delete appends a tombstone for the version with the given ID
func (s *Store) Delete(ctx context.Context, documentID, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &version.StorageError{Op: "delete", Err: ErrClosed}
	}
	if _, ok := s.byID[documentID][versionID]; !ok {
		return &version.NotFoundError{DocumentID: documentID, Ref: versionID}
	}

	s.seq++
	rec := &record{
		Seq:       s.seq,
		Op:        opDelete,
		Key:       recordKey(documentID, versionID),
		Timestamp: time.Now().UTC(),
	}
	if err := s.append(rec); err != nil {
		return &version.StorageError{Op: "delete", Err: err}
	}

	s.indexDelete(documentID, versionID)
	s.deleted++

	if s.deleted >= compactThreshold {
		// Failed compaction leaves the old segments intact and is retried
		// on a later delete.
		if err := s.compactLocked(); err == nil {
			s.deleted = 0
		}
	}
	return nil
}

// Close syncs and closes the active segment
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// append writes an encoded record to the active segment, rotating first when
// the segment is full (caller must hold mu)
func (s *Store) append(rec *record) error {
	data := rec.encode()

	if s.size+int64(len(data)) > s.maxSegmentSize {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	n, err := s.file.Write(data)
	if err != nil {
		return err
	}
	s.size += int64(n)

	if s.syncOnPut {
		return s.file.Sync()
	}
	return nil
}

// rotate switches appends to a new segment file (caller must hold mu)
func (s *Store) rotate() error {
	if err := s.file.Sync(); err != nil {
		return err
	}
	if err := s.file.Close(); err != nil {
		return err
	}

	s.segment++
	file, err := os.OpenFile(s.segmentPath(s.segment), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	s.file = file
	s.size = 0
	return nil
}

// segmentPath returns the path for a segment file with the given index
func (s *Store) segmentPath(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.%03d", segmentPrefix, index))
}

// findSegments returns all segment files sorted by index
func (s *Store) findSegments() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var index int
		if _, err := fmt.Sscanf(entry.Name(), segmentPrefix+".%d", &index); err == nil {
			files = append(files, filepath.Join(s.dir, entry.Name()))
		}
	}

	sort.Slice(files, func(i, j int) bool {
		var idxI, idxJ int
		fmt.Sscanf(filepath.Base(files[i]), segmentPrefix+".%d", &idxI)
		fmt.Sscanf(filepath.Base(files[j]), segmentPrefix+".%d", &idxJ)
		return idxI < idxJ
	})
	return files, nil
}

// Stats describes the store's current shape
type Stats struct {
	LiveRecords      int   // versions currently retained
	Documents        int   // documents with at least one version
	Segments         int   // segment files present at open
	RecoveredRecords int   // records replayed at open
	DroppedTail      bool  // a torn tail was discarded at open
	ActiveSize       int64 // bytes in the active segment
}

// Stats reports recovery and index statistics
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := 0
	for _, ids := range s.byID {
		live += len(ids)
	}
	return Stats{
		LiveRecords:      live,
		Documents:        len(s.byID),
		Segments:         s.recovery.Segments,
		RecoveredRecords: s.recovery.Records,
		DroppedTail:      s.recovery.DroppedTail,
		ActiveSize:       s.size,
	}
}
