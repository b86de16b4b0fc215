package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <document-id>",
		Short: "Export a document's full retained history as JSON",
		Long: `Export a document's retained history as a portable JSON snapshot.

Versions are exported oldest first with their contents, diffs, and
metadata, so the snapshot can be archived or inspected elsewhere.

Example:
  docvault export specs/api -o api-history.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the snapshot to this file (default stdout)")

	return cmd
}

func runExport(opts *ExportOptions, documentID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := cmd.Context()
	app, err := newApp(ctx, opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "initialize", err)
	}
	defer app.Close()

	export, err := app.service.ExportHistory(ctx, documentID)
	if err != nil {
		return reportError(formatter, err)
	}

	if opts.Output == "" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(export)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "create export file", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "write export file", err)
	}

	fmt.Fprintf(formatter.Writer, "✓ Exported %d version(s) of %s to %s\n",
		export.VersionCount, documentID, opts.Output)
	return nil
}
