// ABOUTME: Versioning service orchestrating creation, numbering, and retention
// ABOUTME: Retries numbering conflicts with fresh reads and prunes best-effort

package versioning

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nainya/docvault/internal/metrics"
	"github.com/nainya/docvault/pkg/audit"
	"github.com/nainya/docvault/pkg/diff"
	"github.com/nainya/docvault/pkg/version"
)

// defaultMaxRetries bounds how many times a create re-reads and retries
// after losing a numbering race.
const defaultMaxRetries = 3

// Service owns the versioning business rules on top of a version.Store.
// It is safe for concurrent use when the underlying store is.
type Service struct {
	store     version.Store
	log       zerolog.Logger
	metrics   *metrics.Metrics
	validate  *validator.Validate
	retention int
	retries   int
}

// Option configures a Service.
type Option func(*Service)

// WithRetentionLimit keeps only the most recent k versions per document,
// pruning older ones after each successful create. Zero disables pruning.
func WithRetentionLimit(k int) Option {
	return func(s *Service) { s.retention = k }
}

// WithMaxRetries bounds numbering-conflict retries per create. Negative
// values mean no retries.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n < 0 {
			n = 0
		}
		s.retries = n
	}
}

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a versioning service on top of store.
func New(store version.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		log:      zerolog.Nop(),
		validate: newValidator(),
		retries:  defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateVersionParams carries the inputs for CreateVersion.
type CreateVersionParams struct {
	DocumentID string           `json:"documentId" validate:"required"`
	Content    string           `json:"content" validate:"required"`
	Author     version.Author   `json:"author"`
	Comment    string           `json:"comment"`
	Metadata   version.Metadata `json:"metadata"`
}

// CreateVersion appends the next numbered version of a document.
//
// The version number is claimed with a conditional Put; on a numbering
// conflict the create re-reads the latest version, recomputes the number and
// diff, and tries again up to the retry bound. Storage failures are returned
// immediately and never retried.
func (s *Service) CreateVersion(ctx context.Context, p CreateVersionParams) (*version.Version, error) {
	if err := s.validateParams(p); err != nil {
		return nil, err
	}

	attempts := 0
	for {
		attempts++
		v, err := s.tryCreate(ctx, p)
		if err == nil {
			s.countCreated()
			s.log.Debug().
				Str("document_id", v.DocumentID).
				Uint64("version_number", v.VersionNumber).
				Str("version_id", v.ID).
				Int("attempts", attempts).
				Msg("version created")
			s.prune(ctx, p.DocumentID)
			return v, nil
		}
		if !version.IsConflict(err) {
			return nil, err
		}

		s.countConflict()
		if attempts > s.retries {
			s.countWriteConflict()
			s.log.Warn().
				Str("document_id", p.DocumentID).
				Int("attempts", attempts).
				Msg("version create abandoned after conflict retries")
			return nil, &WriteConflictError{
				DocumentID: p.DocumentID,
				Attempts:   attempts,
				Last:       err,
			}
		}
		s.log.Debug().
			Str("document_id", p.DocumentID).
			Int("attempt", attempts).
			Msg("version number conflict, retrying")
	}
}

// tryCreate performs one optimistic attempt: read latest, compute the next
// number and diff, and conditionally put.
func (s *Service) tryCreate(ctx context.Context, p CreateVersionParams) (*version.Version, error) {
	existing, err := s.storeList(ctx, p.DocumentID)
	if err != nil {
		return nil, err
	}

	var latest *version.Version
	for _, v := range existing {
		if latest == nil || v.VersionNumber > latest.VersionNumber {
			latest = v
		}
	}

	next := uint64(1)
	var d *diff.Diff
	if latest != nil {
		next = latest.VersionNumber + 1
		start := time.Now()
		d, err = diff.Compute(latest.Content, p.Content)
		if err != nil {
			return nil, err
		}
		s.recordDiff(time.Since(start), d)
	}

	v := &version.Version{
		ID:               uuid.NewString(),
		DocumentID:       p.DocumentID,
		VersionNumber:    next,
		Timestamp:        time.Now().UTC(),
		Author:           p.Author,
		Comment:          p.Comment,
		Content:          p.Content,
		Metadata:         p.Metadata.Clone(),
		DiffFromPrevious: d,
	}

	if err := s.storePut(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetVersions returns the document's retained versions, newest first.
// A limit of zero means all; offset skips from the newest end.
func (s *Service) GetVersions(ctx context.Context, documentID string, limit, offset int) ([]*version.Version, error) {
	versions, err := s.requireVersions(ctx, documentID)
	if err != nil {
		return nil, err
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].VersionNumber > versions[j].VersionNumber
	})

	if offset > 0 {
		if offset >= len(versions) {
			return []*version.Version{}, nil
		}
		versions = versions[offset:]
	}
	if limit > 0 && limit < len(versions) {
		versions = versions[:limit]
	}
	return versions, nil
}

// GetVersion resolves ref as a version number when it parses as a positive
// integer, and as a version ID otherwise.
func (s *Service) GetVersion(ctx context.Context, documentID, ref string) (*version.Version, error) {
	if documentID == "" {
		return nil, &version.ValidationError{Field: "documentId", Reason: "must not be empty"}
	}
	if ref == "" {
		return nil, &version.ValidationError{Field: "ref", Reason: "must not be empty"}
	}
	if number, err := strconv.ParseUint(ref, 10, 64); err == nil && number > 0 {
		return s.storeGet(ctx, documentID, number)
	}
	return s.storeGetByID(ctx, documentID, ref)
}

// VersionInfo is the identifying metadata of a compared version.
type VersionInfo struct {
	ID            string         `json:"id"`
	VersionNumber uint64         `json:"versionNumber"`
	Timestamp     time.Time      `json:"timestamp"`
	Author        version.Author `json:"author"`
	Comment       string         `json:"comment,omitempty"`
}

// Comparison pairs two versions with a diff computed on demand from their
// full contents. Stored diffs are never chained to produce it.
type Comparison struct {
	DocumentID string       `json:"documentId"`
	From       VersionInfo  `json:"from"`
	To         VersionInfo  `json:"to"`
	Diff       *diff.Diff   `json:"diff"`
	Summary    diff.Summary `json:"summary"`
}

// CompareVersions diffs two retained versions of a document in the given
// direction. Comparing a version against itself yields an empty diff.
func (s *Service) CompareVersions(ctx context.Context, documentID, refA, refB string) (*Comparison, error) {
	from, err := s.GetVersion(ctx, documentID, refA)
	if err != nil {
		return nil, err
	}
	to, err := s.GetVersion(ctx, documentID, refB)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	d, err := diff.Compute(from.Content, to.Content)
	if err != nil {
		return nil, err
	}
	s.recordDiff(time.Since(start), d)

	return &Comparison{
		DocumentID: documentID,
		From:       infoOf(from),
		To:         infoOf(to),
		Diff:       d,
		Summary:    d.Summarize(),
	}, nil
}

// RestoreVersion creates a new version whose content is copied from the
// referenced one. History stays append-only: nothing is rolled back, and the
// new version's metadata records where its content came from.
func (s *Service) RestoreVersion(ctx context.Context, documentID, ref string, author version.Author, comment string) (*version.Version, error) {
	target, err := s.GetVersion(ctx, documentID, ref)
	if err != nil {
		return nil, err
	}

	if comment == "" {
		comment = fmt.Sprintf("Restored from version %d", target.VersionNumber)
	}

	restored, err := s.CreateVersion(ctx, CreateVersionParams{
		DocumentID: documentID,
		Content:    target.Content,
		Author:     author,
		Comment:    comment,
		Metadata: version.Metadata{
			"restoredFrom":       fmt.Sprintf("%s#%d", target.ID, target.VersionNumber),
			"restoredFromId":     target.ID,
			"restoredFromNumber": strconv.FormatUint(target.VersionNumber, 10),
		},
	})
	if err != nil {
		return nil, err
	}
	s.countRestore()
	return restored, nil
}

// GetAuditTrail projects the document's retained versions into audit
// entries, newest first.
func (s *Service) GetAuditTrail(ctx context.Context, documentID string) ([]audit.Entry, error) {
	versions, err := s.GetVersions(ctx, documentID, 0, 0)
	if err != nil {
		return nil, err
	}
	return audit.Project(versions), nil
}

// HistoryExport is a portable snapshot of a document's retained history.
// FirstVersion is the oldest retained number, which exceeds 1 once retention
// pruning has removed early versions.
type HistoryExport struct {
	DocumentID    string             `json:"documentId"`
	VersionCount  int                `json:"versionCount"`
	FirstVersion  uint64             `json:"firstVersion"`
	LatestVersion uint64             `json:"latestVersion"`
	Versions      []*version.Version `json:"versions"`
}

// ExportHistory assembles the document's retained versions in chronological
// order. The assembly checks ctx between versions so large exports can be
// cancelled.
func (s *Service) ExportHistory(ctx context.Context, documentID string) (*HistoryExport, error) {
	versions, err := s.GetVersions(ctx, documentID, 0, 0)
	if err != nil {
		return nil, err
	}

	out := &HistoryExport{
		DocumentID:    documentID,
		VersionCount:  len(versions),
		FirstVersion:  versions[len(versions)-1].VersionNumber,
		LatestVersion: versions[0].VersionNumber,
		Versions:      make([]*version.Version, 0, len(versions)),
	}
	for i := len(versions) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Versions = append(out.Versions, versions[i])
	}
	s.countExport()
	return out, nil
}

// prune enforces the retention limit after a successful create. Pruning is
// best-effort: failures are logged and counted, never returned, and the most
// recent version is never a candidate.
func (s *Service) prune(ctx context.Context, documentID string) {
	if s.retention <= 0 {
		return
	}

	versions, err := s.storeList(ctx, documentID)
	if err != nil {
		s.countPruneFailure()
		s.log.Error().Err(err).
			Str("document_id", documentID).
			Msg("retention prune could not list versions")
		return
	}
	if len(versions) <= s.retention {
		return
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].VersionNumber < versions[j].VersionNumber
	})

	for _, v := range versions[:len(versions)-s.retention] {
		err := s.storeDelete(ctx, v.DocumentID, v.ID)
		if version.IsNotFound(err) {
			// A concurrent prune already removed it.
			continue
		}
		if err != nil {
			s.countPruneFailure()
			s.log.Error().Err(err).
				Str("document_id", documentID).
				Uint64("version_number", v.VersionNumber).
				Msg("retention prune failed")
			continue
		}
		s.countPruned()
		s.log.Debug().
			Str("document_id", documentID).
			Uint64("version_number", v.VersionNumber).
			Msg("version pruned")
	}
}

// requireVersions lists a document's versions and maps an empty history to
// NotFoundError for the read paths.
func (s *Service) requireVersions(ctx context.Context, documentID string) ([]*version.Version, error) {
	if documentID == "" {
		return nil, &version.ValidationError{Field: "documentId", Reason: "must not be empty"}
	}
	versions, err := s.storeList(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, &version.NotFoundError{DocumentID: documentID}
	}
	return versions, nil
}

func (s *Service) validateParams(p CreateVersionParams) error {
	if err := s.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			field := strings.TrimPrefix(fe.Namespace(), "CreateVersionParams.")
			return &version.ValidationError{
				Field:  field,
				Reason: "failed " + fe.Tag() + " check",
			}
		}
		return &version.ValidationError{Field: "params", Reason: err.Error()}
	}
	return p.Metadata.Validate()
}

// newValidator builds a validator that reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func infoOf(v *version.Version) VersionInfo {
	return VersionInfo{
		ID:            v.ID,
		VersionNumber: v.VersionNumber,
		Timestamp:     v.Timestamp,
		Author:        v.Author,
		Comment:       v.Comment,
	}
}
