package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nainya/docvault/pkg/version"
)

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	Author     string
	AuthorName string
	Comment    string
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore <document-id> <ref>",
		Short: "Restore an earlier version as a new version",
		Long: `Restore an earlier version by creating a new version with its content.

History stays append-only: the restored content becomes the next version
number and records which version it came from in its metadata.

Example:
  docvault restore specs/api 2 --author alice`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Author, "author", "", "author identifier (required)")
	cmd.Flags().StringVar(&opts.AuthorName, "author-name", "", "author display name")
	cmd.Flags().StringVarP(&opts.Comment, "comment", "m", "", "version comment (default notes the source version)")
	cmd.MarkFlagRequired("author")

	return cmd
}

func runRestore(opts *RestoreOptions, documentID, ref string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := cmd.Context()
	app, err := newApp(ctx, opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "initialize", err)
	}
	defer app.Close()

	author := version.Author{ID: opts.Author, DisplayName: opts.AuthorName}
	restored, err := app.service.RestoreVersion(ctx, documentID, ref, author, opts.Comment)
	if err != nil {
		return reportError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(restored)
	}

	fmt.Fprintf(formatter.Writer, "✓ Restored %s from version %s as version %d\n",
		documentID, restored.Metadata["restoredFromNumber"], restored.VersionNumber)
	fmt.Fprintf(formatter.Writer, "  id: %s\n", restored.ID)
	return nil
}
