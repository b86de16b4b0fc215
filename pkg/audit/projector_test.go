// ABOUTME: Tests for audit projection and export
// ABOUTME: Verifies action classification, change summaries, and output formats

package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nainya/docvault/pkg/diff"
	"github.com/nainya/docvault/pkg/version"
)

func testHistory() []*version.Version {
	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	return []*version.Version{
		{
			ID:            "ver-2",
			DocumentID:    "doc-1",
			VersionNumber: 2,
			Timestamp:     base.Add(time.Hour),
			Author:        version.Author{ID: "user-2", DisplayName: "Grace"},
			Comment:       "fix typo",
			Content:       "a\nx\nc",
			DiffFromPrevious: &diff.Diff{Changes: []diff.Change{
				{Type: diff.Modified, OldLine: 2, NewLine: 2, OldText: "b", NewText: "x"},
			}},
		},
		{
			ID:            "ver-1",
			DocumentID:    "doc-1",
			VersionNumber: 1,
			Timestamp:     base,
			Author:        version.Author{ID: "user-1", DisplayName: "Ada"},
			Comment:       "initial",
			Content:       "a\nb\nc",
		},
	}
}

func TestProjectClassifiesActions(t *testing.T) {
	entries := Project(testHistory())
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	// Input order (newest first) is preserved.
	if entries[0].Action != ActionModified {
		t.Errorf("Expected version 2 to be modified, got %s", entries[0].Action)
	}
	if entries[0].VersionNumber != 2 {
		t.Errorf("Expected version number 2 first, got %d", entries[0].VersionNumber)
	}
	if entries[1].Action != ActionCreated {
		t.Errorf("Expected version 1 to be created, got %s", entries[1].Action)
	}

	if entries[0].Changes.Modified != 1 || entries[0].Changes.Total != 1 {
		t.Errorf("Expected change summary {0 0 1 1}, got %+v", entries[0].Changes)
	}
	if entries[1].Changes.Total != 0 {
		t.Errorf("Expected zero summary for creation, got %+v", entries[1].Changes)
	}
	if entries[0].Author.ID != "user-2" {
		t.Errorf("Expected author user-2, got %s", entries[0].Author.ID)
	}
}

func TestProjectEmptyHistory(t *testing.T) {
	entries := Project(nil)
	if len(entries) != 0 {
		t.Errorf("Expected no entries for empty history, got %d", len(entries))
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Project(testHistory())); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d records", len(records))
	}

	if records[0][0] != "action" || records[0][4] != "version_number" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	if records[1][0] != "modified" || records[1][4] != "2" {
		t.Errorf("Unexpected first row: %v", records[1])
	}
	if records[2][0] != "created" || records[2][2] != "user-1" {
		t.Errorf("Unexpected second row: %v", records[2])
	}
	if records[1][1] != "2026-05-02T11:00:00Z" {
		t.Errorf("Expected RFC3339 timestamp, got %q", records[1][1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Project(testHistory())); err != nil {
		t.Fatalf("Failed to write JSON: %v", err)
	}

	var decoded []Entry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(decoded))
	}
	if decoded[0].Action != ActionModified || decoded[1].Action != ActionCreated {
		t.Errorf("Actions did not survive the round trip: %+v", decoded)
	}
	if decoded[0].Changes.Modified != 1 {
		t.Errorf("Change summary did not survive the round trip: %+v", decoded[0].Changes)
	}
}
