// ABOUTME: Tests for greedy line diff computation
// ABOUTME: Covers classification rules, line numbering, summaries, and input checks

package diff

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestComputeIdenticalContent(t *testing.T) {
	d, err := Compute("a\nb\nc", "a\nb\nc")
	if err != nil {
		t.Fatalf("Failed to compute diff: %v", err)
	}
	if len(d.Changes) != 0 {
		t.Errorf("Expected no changes for identical content, got %d", len(d.Changes))
	}

	s := d.Summarize()
	if s.Total != 0 || s.Added != 0 || s.Removed != 0 || s.Modified != 0 {
		t.Errorf("Expected zero summary, got %+v", s)
	}
}

func TestComputeModifiedLine(t *testing.T) {
	d, err := Compute("a\nb\nc", "a\nx\nc")
	if err != nil {
		t.Fatalf("Failed to compute diff: %v", err)
	}
	if len(d.Changes) != 1 {
		t.Fatalf("Expected exactly 1 change, got %d: %+v", len(d.Changes), d.Changes)
	}

	c := d.Changes[0]
	if c.Type != Modified {
		t.Errorf("Expected modified change, got %s", c.Type)
	}
	if c.OldLine != 2 || c.NewLine != 2 {
		t.Errorf("Expected line 2 -> 2, got %d -> %d", c.OldLine, c.NewLine)
	}
	if c.OldText != "b" || c.NewText != "x" {
		t.Errorf("Expected b -> x, got %q -> %q", c.OldText, c.NewText)
	}

	s := d.Summarize()
	if s.Added != 0 || s.Removed != 0 || s.Modified != 1 || s.Total != 1 {
		t.Errorf("Expected summary {0 0 1 1}, got %+v", s)
	}
}

func TestComputeAddedLine(t *testing.T) {
	d, err := Compute("a\nc", "a\nb\nc")
	if err != nil {
		t.Fatalf("Failed to compute diff: %v", err)
	}
	if len(d.Changes) != 1 {
		t.Fatalf("Expected exactly 1 change, got %d: %+v", len(d.Changes), d.Changes)
	}

	c := d.Changes[0]
	if c.Type != Added {
		t.Errorf("Expected added change, got %s", c.Type)
	}
	if c.NewLine != 2 {
		t.Errorf("Expected addition at new line 2, got %d", c.NewLine)
	}
	if c.OldLine != 0 {
		t.Errorf("Expected no old line for addition, got %d", c.OldLine)
	}
	if c.NewText != "b" {
		t.Errorf("Expected added text b, got %q", c.NewText)
	}
}

func TestComputeRemovedLine(t *testing.T) {
	d, err := Compute("a\nb\nc", "a\nc")
	if err != nil {
		t.Fatalf("Failed to compute diff: %v", err)
	}
	if len(d.Changes) != 1 {
		t.Fatalf("Expected exactly 1 change, got %d: %+v", len(d.Changes), d.Changes)
	}

	c := d.Changes[0]
	if c.Type != Removed {
		t.Errorf("Expected removed change, got %s", c.Type)
	}
	if c.OldLine != 2 {
		t.Errorf("Expected removal at old line 2, got %d", c.OldLine)
	}
	if c.NewLine != 0 {
		t.Errorf("Expected no new line for removal, got %d", c.NewLine)
	}
	if c.OldText != "b" {
		t.Errorf("Expected removed text b, got %q", c.OldText)
	}
}

func TestComputeTrailingAdditions(t *testing.T) {
	d, err := Compute("a", "a\nb\nc")
	if err != nil {
		t.Fatalf("Failed to compute diff: %v", err)
	}
	if len(d.Changes) != 2 {
		t.Fatalf("Expected 2 changes, got %d", len(d.Changes))
	}
	for i, c := range d.Changes {
		if c.Type != Added {
			t.Errorf("Change %d: expected added, got %s", i, c.Type)
		}
	}
	if d.Changes[0].NewLine != 2 || d.Changes[1].NewLine != 3 {
		t.Errorf("Expected additions at new lines 2 and 3, got %d and %d",
			d.Changes[0].NewLine, d.Changes[1].NewLine)
	}
}

func TestComputeTrailingRemovals(t *testing.T) {
	d, err := Compute("a\nb\nc", "a")
	if err != nil {
		t.Fatalf("Failed to compute diff: %v", err)
	}
	if len(d.Changes) != 2 {
		t.Fatalf("Expected 2 changes, got %d", len(d.Changes))
	}
	for i, c := range d.Changes {
		if c.Type != Removed {
			t.Errorf("Change %d: expected removed, got %s", i, c.Type)
		}
	}
	if d.Changes[0].OldLine != 2 || d.Changes[1].OldLine != 3 {
		t.Errorf("Expected removals at old lines 2 and 3, got %d and %d",
			d.Changes[0].OldLine, d.Changes[1].OldLine)
	}
}

func TestComputeMixedChanges(t *testing.T) {
	oldText := "alpha\nbeta\ngamma\ndelta"
	newText := "alpha\nbeta2\ngamma\nepsilon\ndelta"

	d, err := Compute(oldText, newText)
	if err != nil {
		t.Fatalf("Failed to compute diff: %v", err)
	}
	if len(d.Changes) != 2 {
		t.Fatalf("Expected 2 changes, got %d: %+v", len(d.Changes), d.Changes)
	}

	if d.Changes[0].Type != Modified || d.Changes[0].OldLine != 2 || d.Changes[0].NewLine != 2 {
		t.Errorf("Expected modified at 2 -> 2, got %+v", d.Changes[0])
	}
	if d.Changes[1].Type != Added || d.Changes[1].NewLine != 4 || d.Changes[1].NewText != "epsilon" {
		t.Errorf("Expected epsilon added at new line 4, got %+v", d.Changes[1])
	}
}

func TestComputePrefersAdditionOnTie(t *testing.T) {
	// Both lines reappear one position ahead; the tie classifies as added.
	d, err := Compute("x\ny", "y\nx")
	if err != nil {
		t.Fatalf("Failed to compute diff: %v", err)
	}
	if len(d.Changes) != 2 {
		t.Fatalf("Expected 2 changes, got %d: %+v", len(d.Changes), d.Changes)
	}
	if d.Changes[0].Type != Added || d.Changes[0].NewText != "y" {
		t.Errorf("Expected y added first, got %+v", d.Changes[0])
	}
	if d.Changes[1].Type != Removed || d.Changes[1].OldText != "y" {
		t.Errorf("Expected y removed second, got %+v", d.Changes[1])
	}
}

func TestComputeDeterministic(t *testing.T) {
	oldText := "one\ntwo\nthree\nfour\nfive"
	newText := "one\n2\nthree\nsix\nfour"

	first, err := Compute(oldText, newText)
	if err != nil {
		t.Fatalf("Failed to compute diff: %v", err)
	}
	second, err := Compute(oldText, newText)
	if err != nil {
		t.Fatalf("Failed to compute diff again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Diff is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestSummarizeSumsToTotal(t *testing.T) {
	cases := []struct {
		oldText string
		newText string
	}{
		{"", ""},
		{"", "a"},
		{"a\nb\nc", "a\nx\nc"},
		{"a\nb\nc\nd", "d\nc\nb\na"},
		{"one\ntwo\nthree", "one\ntwo\nthree\nfour\nfive"},
		{"x\ny\nz", ""},
	}

	for i, tc := range cases {
		d, err := Compute(tc.oldText, tc.newText)
		if err != nil {
			t.Fatalf("Case %d: failed to compute diff: %v", i, err)
		}
		s := d.Summarize()
		if s.Added+s.Removed+s.Modified != s.Total {
			t.Errorf("Case %d: summary counts %d+%d+%d do not sum to total %d",
				i, s.Added, s.Removed, s.Modified, s.Total)
		}
		if s.Total != len(d.Changes) {
			t.Errorf("Case %d: total %d does not match %d changes", i, s.Total, len(d.Changes))
		}
	}
}

func TestSummarizeNilDiff(t *testing.T) {
	var d *Diff
	s := d.Summarize()
	if s.Total != 0 {
		t.Errorf("Expected zero summary for nil diff, got %+v", s)
	}
}

func TestComputeRejectsNulBytes(t *testing.T) {
	if _, err := Compute("plain", "binary\x00data"); !IsInputError(err) {
		t.Errorf("Expected input error for NUL bytes, got %v", err)
	}
	if _, err := Compute("bin\x00", "plain"); !IsInputError(err) {
		t.Errorf("Expected input error for NUL bytes in old content, got %v", err)
	}
}

func TestComputeRejectsInvalidUTF8(t *testing.T) {
	if _, err := Compute("plain", "bad\xff\xfe"); !IsInputError(err) {
		t.Errorf("Expected input error for invalid UTF-8, got %v", err)
	}
}

func BenchmarkCompute(b *testing.B) {
	var oldLines, newLines []string
	for i := 0; i < 200; i++ {
		oldLines = append(oldLines, fmt.Sprintf("line number %d", i))
		if i%10 == 5 {
			newLines = append(newLines, fmt.Sprintf("edited line %d", i))
		} else {
			newLines = append(newLines, fmt.Sprintf("line number %d", i))
		}
	}
	oldText := strings.Join(oldLines, "\n")
	newText := strings.Join(newLines, "\n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Compute(oldText, newText); err != nil {
			b.Fatalf("Failed to compute diff: %v", err)
		}
	}
}
