// ABOUTME: Tests for the version data model
// ABOUTME: Covers metadata bounds, cloning depth, and wire serialization

package version

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nainya/docvault/pkg/diff"
)

func TestMetadataValidateBounds(t *testing.T) {
	ok := Metadata{"editor": "vim", "origin": "import"}
	if err := ok.Validate(); err != nil {
		t.Errorf("Expected valid metadata, got %v", err)
	}

	var nilMeta Metadata
	if err := nilMeta.Validate(); err != nil {
		t.Errorf("Expected nil metadata to validate, got %v", err)
	}

	tooMany := make(Metadata)
	for i := 0; i < MaxMetadataKeys+1; i++ {
		tooMany[strings.Repeat("k", i+1)] = "v"
	}
	if err := tooMany.Validate(); !IsValidation(err) {
		t.Errorf("Expected validation error for too many keys, got %v", err)
	}

	longKey := Metadata{strings.Repeat("k", MaxMetadataKeyLen+1): "v"}
	if err := longKey.Validate(); !IsValidation(err) {
		t.Errorf("Expected validation error for oversized key, got %v", err)
	}

	longValue := Metadata{"k": strings.Repeat("v", MaxMetadataValueLen+1)}
	if err := longValue.Validate(); !IsValidation(err) {
		t.Errorf("Expected validation error for oversized value, got %v", err)
	}

	emptyKey := Metadata{"": "v"}
	if err := emptyKey.Validate(); !IsValidation(err) {
		t.Errorf("Expected validation error for empty key, got %v", err)
	}
}

func TestVersionCloneIsDeep(t *testing.T) {
	v := &Version{
		ID:            "ver-1",
		DocumentID:    "doc-1",
		VersionNumber: 2,
		Timestamp:     time.Now().UTC(),
		Author:        Author{ID: "user-1"},
		Content:       "hello",
		Metadata:      Metadata{"k": "v"},
		DiffFromPrevious: &diff.Diff{Changes: []diff.Change{
			{Type: diff.Added, NewLine: 1, NewText: "hello"},
		}},
	}

	cp := v.Clone()
	cp.Metadata["k"] = "changed"
	cp.DiffFromPrevious.Changes[0].NewText = "changed"

	if v.Metadata["k"] != "v" {
		t.Errorf("Clone shares metadata with original")
	}
	if v.DiffFromPrevious.Changes[0].NewText != "hello" {
		t.Errorf("Clone shares diff changes with original")
	}
}

func TestVersionWireShape(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	v := &Version{
		ID:            "ver-1",
		DocumentID:    "doc-1",
		VersionNumber: 1,
		Timestamp:     ts,
		Author:        Author{ID: "user-1", DisplayName: "Ada"},
		Comment:       "initial",
		Content:       "hello",
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal version: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Failed to unmarshal wire form: %v", err)
	}

	if wire["versionNumber"] != float64(1) {
		t.Errorf("Expected versionNumber 1, got %v", wire["versionNumber"])
	}
	if wire["timestamp"] != "2026-03-14T09:26:53Z" {
		t.Errorf("Expected RFC3339 timestamp, got %v", wire["timestamp"])
	}
	if wire["diff"] != nil {
		t.Errorf("Expected null diff for first version, got %v", wire["diff"])
	}
	author, ok := wire["author"].(map[string]any)
	if !ok || author["id"] != "user-1" {
		t.Errorf("Expected nested author object, got %v", wire["author"])
	}
}
