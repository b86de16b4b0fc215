// ABOUTME: Audit trail export as CSV or JSON
// ABOUTME: Stable column order and RFC3339 timestamps for external tooling

package audit

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"action", "timestamp", "author_id", "author_name",
	"version_number", "version_id", "comment",
	"added", "removed", "modified",
}

// WriteCSV writes entries as CSV with a header row.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			string(e.Action),
			e.Timestamp.UTC().Format(time.RFC3339),
			e.Author.ID,
			e.Author.DisplayName,
			strconv.FormatUint(e.VersionNumber, 10),
			e.VersionID,
			e.Comment,
			strconv.Itoa(e.Changes.Added),
			strconv.Itoa(e.Changes.Removed),
			strconv.Itoa(e.Changes.Modified),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
