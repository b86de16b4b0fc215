// ABOUTME: Store call wrappers carrying metrics instrumentation
// ABOUTME: All counters are nil-safe so instrumentation stays optional

package versioning

import (
	"context"
	"time"

	"github.com/nainya/docvault/pkg/diff"
	"github.com/nainya/docvault/pkg/version"
)

func (s *Service) storePut(ctx context.Context, v *version.Version) error {
	start := time.Now()
	err := s.store.Put(ctx, v)
	s.recordStore("put", start, err)
	return err
}

func (s *Service) storeList(ctx context.Context, documentID string) ([]*version.Version, error) {
	start := time.Now()
	versions, err := s.store.List(ctx, documentID)
	s.recordStore("list", start, err)
	return versions, err
}

func (s *Service) storeGet(ctx context.Context, documentID string, number uint64) (*version.Version, error) {
	start := time.Now()
	v, err := s.store.Get(ctx, documentID, number)
	s.recordStore("get", start, err)
	return v, err
}

func (s *Service) storeGetByID(ctx context.Context, documentID, versionID string) (*version.Version, error) {
	start := time.Now()
	v, err := s.store.GetByID(ctx, documentID, versionID)
	s.recordStore("get_by_id", start, err)
	return v, err
}

func (s *Service) storeDelete(ctx context.Context, documentID, versionID string) error {
	start := time.Now()
	err := s.store.Delete(ctx, documentID, versionID)
	s.recordStore("delete", start, err)
	return err
}

func (s *Service) recordStore(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordStoreOperation(operation, status, time.Since(start))
}

func (s *Service) recordDiff(duration time.Duration, d *diff.Diff) {
	if s.metrics == nil {
		return
	}
	sum := d.Summarize()
	s.metrics.RecordDiff(duration, sum.Added, sum.Removed, sum.Modified)
}

func (s *Service) countCreated() {
	if s.metrics != nil {
		s.metrics.VersionsCreatedTotal.Inc()
	}
}

func (s *Service) countConflict() {
	if s.metrics != nil {
		s.metrics.VersionConflictsTotal.Inc()
	}
}

func (s *Service) countWriteConflict() {
	if s.metrics != nil {
		s.metrics.WriteConflictsTotal.Inc()
	}
}

func (s *Service) countPruned() {
	if s.metrics != nil {
		s.metrics.VersionsPrunedTotal.Inc()
	}
}

func (s *Service) countPruneFailure() {
	if s.metrics != nil {
		s.metrics.PruneFailuresTotal.Inc()
	}
}

func (s *Service) countRestore() {
	if s.metrics != nil {
		s.metrics.RestoresTotal.Inc()
	}
}

func (s *Service) countExport() {
	if s.metrics != nil {
		s.metrics.ExportsTotal.Inc()
	}
}
