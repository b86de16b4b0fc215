package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Raw bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <document-id> <ref>",
		Short: "Show one version of a document",
		Long: `Show one version of a document.

The ref is a version number or a version id. Numbers are tried first, so
a ref of "3" resolves to version number 3.

Example:
  docvault show specs/api 3
  docvault show specs/api 3 --raw > restored.md`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print only the version content")

	return cmd
}

func runShow(opts *ShowOptions, documentID, ref string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := cmd.Context()
	app, err := newApp(ctx, opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "initialize", err)
	}
	defer app.Close()

	v, err := app.service.GetVersion(ctx, documentID, ref)
	if err != nil {
		return reportError(formatter, err)
	}

	if opts.Raw {
		fmt.Fprint(formatter.Writer, v.Content)
		return nil
	}

	if formatter.Format == "json" {
		return formatter.Success(v)
	}

	fmt.Fprintf(formatter.Writer, "document:  %s\n", v.DocumentID)
	fmt.Fprintf(formatter.Writer, "version:   %d\n", v.VersionNumber)
	fmt.Fprintf(formatter.Writer, "id:        %s\n", v.ID)
	fmt.Fprintf(formatter.Writer, "author:    %s\n", formatAuthor(v.Author.ID, v.Author.DisplayName))
	fmt.Fprintf(formatter.Writer, "timestamp: %s\n", v.Timestamp.UTC().Format(time.RFC3339))
	if v.Comment != "" {
		fmt.Fprintf(formatter.Writer, "comment:   %s\n", v.Comment)
	}
	if len(v.Metadata) > 0 {
		keys := make([]string, 0, len(v.Metadata))
		for k := range v.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(formatter.Writer, "metadata:\n")
		for _, k := range keys {
			fmt.Fprintf(formatter.Writer, "  %s = %s\n", k, v.Metadata[k])
		}
	}
	if v.DiffFromPrevious != nil {
		s := v.DiffFromPrevious.Summarize()
		fmt.Fprintf(formatter.Writer, "changes:   +%d -%d ~%d\n", s.Added, s.Removed, s.Modified)
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintln(formatter.Writer, v.Content)
	return nil
}

func formatAuthor(id, displayName string) string {
	if displayName == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", id, displayName)
}
