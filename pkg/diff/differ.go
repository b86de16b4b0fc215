// ABOUTME: Line-level diff computation between document snapshots
// ABOUTME: Greedy cursor alignment classifying added, removed, and modified lines

package diff

import (
	"strings"
	"unicode/utf8"
)

// ChangeType classifies a single line change.
type ChangeType string

const (
	Added    ChangeType = "added"
	Removed  ChangeType = "removed"
	Modified ChangeType = "modified"
)

// Change records one line-level difference. Line numbers are 1-based;
// OldLine is zero for additions and NewLine is zero for removals.
type Change struct {
	Type    ChangeType `json:"type"`
	OldLine int        `json:"oldLine,omitempty"`
	NewLine int        `json:"newLine,omitempty"`
	OldText string     `json:"oldText,omitempty"`
	NewText string     `json:"newText,omitempty"`
}

// Diff is the ordered sequence of changes transforming one snapshot into
// another.
type Diff struct {
	Changes []Change `json:"changes"`
}

// Summary counts changes by type. Added+Removed+Modified always equals Total.
type Summary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// Summarize counts the diff's changes by type. A nil diff summarizes to zero.
func (d *Diff) Summarize() Summary {
	var s Summary
	if d == nil {
		return s
	}
	for _, c := range d.Changes {
		switch c.Type {
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		case Modified:
			s.Modified++
		}
	}
	s.Total = len(d.Changes)
	return s
}

// Compute returns the line-level diff transforming oldText into newText.
//
// The alignment is greedy and deterministic, not minimal: equal lines
// advance both cursors, and a mismatched pair is classified by scanning
// forward for the nearest reappearance of either line. Inputs must be text;
// content with NUL bytes or invalid UTF-8 fails with *Error.
func Compute(oldText, newText string) (*Diff, error) {
	if err := checkText("old content", oldText); err != nil {
		return nil, err
	}
	if err := checkText("new content", newText); err != nil {
		return nil, err
	}

	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")

	var changes []Change
	i, j := 0, 0
	for i < len(oldLines) && j < len(newLines) {
		if oldLines[i] == newLines[j] {
			i++
			j++
			continue
		}

		// dB: how far ahead old[i] reappears in new; dA: how far ahead
		// new[j] reappears in old. -1 means never.
		dB := scanDistance(newLines, oldLines[i], j)
		dA := scanDistance(oldLines, newLines[j], i)

		switch {
		case dB >= 0 && (dA < 0 || dB <= dA):
			changes = append(changes, Change{
				Type:    Added,
				NewLine: j + 1,
				NewText: newLines[j],
			})
			j++
		case dA >= 0:
			changes = append(changes, Change{
				Type:    Removed,
				OldLine: i + 1,
				OldText: oldLines[i],
			})
			i++
		default:
			changes = append(changes, Change{
				Type:    Modified,
				OldLine: i + 1,
				NewLine: j + 1,
				OldText: oldLines[i],
				NewText: newLines[j],
			})
			i++
			j++
		}
	}

	// Exhausted tails are pure removals or additions.
	for ; i < len(oldLines); i++ {
		changes = append(changes, Change{
			Type:    Removed,
			OldLine: i + 1,
			OldText: oldLines[i],
		})
	}
	for ; j < len(newLines); j++ {
		changes = append(changes, Change{
			Type:    Added,
			NewLine: j + 1,
			NewText: newLines[j],
		})
	}

	return &Diff{Changes: changes}, nil
}

// scanDistance returns how many lines past from the target next occurs,
// or -1 when the target never reappears.
func scanDistance(lines []string, target string, from int) int {
	for k := from; k < len(lines); k++ {
		if lines[k] == target {
			return k - from
		}
	}
	return -1
}

func checkText(name, text string) error {
	if strings.IndexByte(text, 0) >= 0 {
		return &Error{Input: name, Reason: "contains NUL bytes"}
	}
	if !utf8.ValidString(text) {
		return &Error{Input: name, Reason: "is not valid UTF-8"}
	}
	return nil
}
