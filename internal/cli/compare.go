package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nainya/docvault/pkg/diff"
)

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <document-id> <from-ref> <to-ref>",
		Short: "Compare two versions of a document",
		Long: `Compare two versions of a document and print the line changes.

The diff is computed fresh from the two full contents, in the direction
from -> to. Refs are version numbers or version ids.

Example:
  docvault compare specs/api 1 3`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(rootOpts, args[0], args[1], args[2], cmd)
		},
	}

	return cmd
}

func runCompare(opts *RootOptions, documentID, fromRef, toRef string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ctx := cmd.Context()
	app, err := newApp(ctx, opts)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "initialize", err)
	}
	defer app.Close()

	comparison, err := app.service.CompareVersions(ctx, documentID, fromRef, toRef)
	if err != nil {
		return reportError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(comparison)
	}

	fmt.Fprintf(formatter.Writer, "%s: version %d -> version %d\n",
		comparison.DocumentID, comparison.From.VersionNumber, comparison.To.VersionNumber)
	s := comparison.Summary
	fmt.Fprintf(formatter.Writer, "  +%d added  -%d removed  ~%d modified\n", s.Added, s.Removed, s.Modified)

	if len(comparison.Diff.Changes) > 0 {
		fmt.Fprintln(formatter.Writer)
	}
	for _, change := range comparison.Diff.Changes {
		fmt.Fprintln(formatter.Writer, formatChange(change))
	}
	return nil
}

// formatChange renders one line change with its line number in the side of
// the diff it applies to.
func formatChange(c diff.Change) string {
	switch c.Type {
	case diff.Added:
		return fmt.Sprintf("  line %d: + %q", c.NewLine, c.NewText)
	case diff.Removed:
		return fmt.Sprintf("  line %d: - %q", c.OldLine, c.OldText)
	default:
		return fmt.Sprintf("  line %d: ~ %q -> %q", c.NewLine, c.OldText, c.NewText)
	}
}
