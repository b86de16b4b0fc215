package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nainya/docvault/pkg/version"
	"github.com/nainya/docvault/pkg/versioning"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Author     string
	AuthorName string
	Comment    string
	Meta       []string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <document-id> [file]",
		Short: "Create a new version of a document",
		Long: `Create a new version of a document from a file or stdin.

The content becomes the next numbered version. The first version of a
document gets number 1; every later version carries a line diff against
its predecessor.

Example:
  docvault create specs/api draft.md --author alice --comment "tighten intro"
  cat draft.md | docvault create specs/api --author alice`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Author, "author", "", "author identifier (required)")
	cmd.Flags().StringVar(&opts.AuthorName, "author-name", "", "author display name")
	cmd.Flags().StringVarP(&opts.Comment, "comment", "m", "", "version comment")
	cmd.Flags().StringArrayVar(&opts.Meta, "meta", nil, "metadata entry as key=value (repeatable)")
	cmd.MarkFlagRequired("author")

	return cmd
}

func runCreate(opts *CreateOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	content, err := readContent(args, cmd.InOrStdin())
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read content", err)
	}

	metadata, err := parseMetadata(opts.Meta)
	if err != nil {
		_ = formatter.Error(ErrCodeValidation, err.Error(), nil)
		return WrapExitError(ExitCommandError, "parse metadata", err)
	}

	ctx := cmd.Context()
	app, err := newApp(ctx, opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "initialize", err)
	}
	defer app.Close()

	v, err := app.service.CreateVersion(ctx, versioning.CreateVersionParams{
		DocumentID: args[0],
		Content:    content,
		Author:     version.Author{ID: opts.Author, DisplayName: opts.AuthorName},
		Comment:    opts.Comment,
		Metadata:   metadata,
	})
	if err != nil {
		return reportError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(v)
	}

	fmt.Fprintf(formatter.Writer, "✓ Created version %d of %s\n", v.VersionNumber, v.DocumentID)
	fmt.Fprintf(formatter.Writer, "  id: %s\n", v.ID)
	if v.DiffFromPrevious != nil {
		s := v.DiffFromPrevious.Summarize()
		fmt.Fprintf(formatter.Writer, "  changes: +%d -%d ~%d\n", s.Added, s.Removed, s.Modified)
	}
	return nil
}

// readContent reads the new version content from the file argument, or from
// stdin when no file is given.
func readContent(args []string, stdin io.Reader) (string, error) {
	if len(args) == 2 {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", args[1], err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// parseMetadata converts repeated key=value flags into version metadata.
func parseMetadata(pairs []string) (version.Metadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(version.Metadata, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q (want key=value)", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}
