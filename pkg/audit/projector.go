// ABOUTME: Audit trail projection over stored version history
// ABOUTME: Derives created/modified events without any storage of its own

package audit

import (
	"time"

	"github.com/nainya/docvault/pkg/diff"
	"github.com/nainya/docvault/pkg/version"
)

// Action classifies an audit entry.
type Action string

const (
	ActionCreated  Action = "created"
	ActionModified Action = "modified"
)

// Entry is one audit record derived from a version. The trail is a pure
// projection; it holds no state beyond what the versions carry.
type Entry struct {
	Action        Action         `json:"action"`
	Timestamp     time.Time      `json:"timestamp"`
	Author        version.Author `json:"author"`
	VersionNumber uint64         `json:"versionNumber"`
	VersionID     string         `json:"versionId"`
	Comment       string         `json:"comment,omitempty"`
	Changes       diff.Summary   `json:"changes"`
}

// Project derives one audit entry per version, preserving input order.
// Version number 1 is the document's creation event; every other version is
// a modification carrying the summary of its stored diff.
func Project(versions []*version.Version) []Entry {
	entries := make([]Entry, 0, len(versions))
	for _, v := range versions {
		action := ActionModified
		if v.VersionNumber == 1 {
			action = ActionCreated
		}
		entries = append(entries, Entry{
			Action:        action,
			Timestamp:     v.Timestamp,
			Author:        v.Author,
			VersionNumber: v.VersionNumber,
			VersionID:     v.ID,
			Comment:       v.Comment,
			Changes:       v.DiffFromPrevious.Summarize(),
		})
	}
	return entries
}
