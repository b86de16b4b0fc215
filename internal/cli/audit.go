package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nainya/docvault/pkg/audit"
)

// AuditOptions holds flags for the audit command.
type AuditOptions struct {
	*RootOptions
	Out string
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit <document-id>",
		Short: "Show the audit trail of a document",
		Long: `Show who changed a document, when, and how much, newest first.

With --out the trail is written to a file instead; a .json extension
selects JSON, anything else CSV.

Example:
  docvault audit specs/api
  docvault audit specs/api --out trail.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write the trail to this file (.json for JSON, otherwise CSV)")

	return cmd
}

func runAudit(opts *AuditOptions, documentID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := cmd.Context()
	app, err := newApp(ctx, opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "initialize", err)
	}
	defer app.Close()

	entries, err := app.service.GetAuditTrail(ctx, documentID)
	if err != nil {
		return reportError(formatter, err)
	}

	if opts.Out != "" {
		if err := writeAuditFile(opts.Out, entries); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitFailure, "write audit trail", err)
		}
		fmt.Fprintf(formatter.Writer, "✓ Wrote audit trail for %s to %s (%d entries)\n",
			documentID, opts.Out, len(entries))
		return nil
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	fmt.Fprintf(formatter.Writer, "%s: %d audit entr%s\n", documentID, len(entries), plural(len(entries), "y", "ies"))
	for _, e := range entries {
		line := fmt.Sprintf("  v%-4d %-8s %s  %s",
			e.VersionNumber,
			e.Action,
			e.Timestamp.UTC().Format(time.RFC3339),
			formatAuthor(e.Author.ID, e.Author.DisplayName),
		)
		if e.Action == audit.ActionModified {
			line += fmt.Sprintf("  (+%d -%d ~%d)", e.Changes.Added, e.Changes.Removed, e.Changes.Modified)
		}
		if e.Comment != "" {
			line += fmt.Sprintf("  %q", e.Comment)
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}

// writeAuditFile writes the trail in the format picked by the file extension.
func writeAuditFile(path string, entries []audit.Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if filepath.Ext(path) == ".json" {
		return audit.WriteJSON(f, entries)
	}
	return audit.WriteCSV(f, entries)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
