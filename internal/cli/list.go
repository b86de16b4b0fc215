package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Limit  int
	Offset int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <document-id>",
		Short: "List versions of a document, newest first",
		Long: `List the retained versions of a document, newest first.

Example:
  docvault list specs/api --limit 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "maximum versions to show (0 = all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "versions to skip from the newest end")

	return cmd
}

func runList(opts *ListOptions, documentID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := cmd.Context()
	app, err := newApp(ctx, opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "initialize", err)
	}
	defer app.Close()

	versions, err := app.service.GetVersions(ctx, documentID, opts.Limit, opts.Offset)
	if err != nil {
		return reportError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(versions)
	}

	fmt.Fprintf(formatter.Writer, "%s: %d version(s)\n", documentID, len(versions))
	for _, v := range versions {
		line := fmt.Sprintf("  v%-4d %s  %-12s %s",
			v.VersionNumber,
			v.Timestamp.UTC().Format(time.RFC3339),
			v.Author.ID,
			v.ID,
		)
		if v.Comment != "" {
			line += fmt.Sprintf("  %q", v.Comment)
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}
