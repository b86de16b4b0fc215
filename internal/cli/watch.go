package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nainya/docvault/internal/observe"
	"github.com/nainya/docvault/internal/watch"
	"github.com/nainya/docvault/pkg/version"
	"github.com/nainya/docvault/pkg/versioning"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Document    string
	Author      string
	AuthorName  string
	MetricsAddr string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Watch a file and capture a version on every stable save",
		Long: `Watch a file and create a new version each time its content settles.

Saves are debounced (watch.debounce_ms in the config file), and snapshots
whose content matches the latest stored version are skipped. The file's
current content is captured once at startup unless it already matches.
With --metrics-addr (or metrics.addr in the config), Prometheus and health
endpoints are served for the lifetime of the watch. Stop with Ctrl-C.

Example:
  docvault watch notes.md --author alice
  docvault watch draft.md --document specs/api --author alice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Document, "document", "", "document id (default: file base name)")
	cmd.Flags().StringVar(&opts.Author, "author", "", "author identifier (required)")
	cmd.Flags().StringVar(&opts.AuthorName, "author-name", "", "author display name")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve metrics/health on this address (overrides config)")
	cmd.MarkFlagRequired("author")

	return cmd
}

func runWatch(opts *WatchOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := cmd.Context()
	app, err := newApp(ctx, opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "initialize", err)
	}
	defer app.Close()

	documentID := opts.Document
	if documentID == "" {
		documentID = filepath.Base(path)
	}
	author := version.Author{ID: opts.Author, DisplayName: opts.AuthorName}

	// Serve metrics and health endpoints for the lifetime of the watch.
	addr := opts.MetricsAddr
	if addr == "" {
		addr = app.cfg.Metrics.Addr
	}
	if addr != "" {
		obs := observe.NewServer(addr, app.registry, app.log)
		go func() {
			if err := obs.Start(); err != nil {
				app.log.Error("Observability server stopped").Err(err).Send()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = obs.Shutdown(shutdownCtx)
		}()
	}

	debounce := time.Duration(app.cfg.Watch.DebounceMs) * time.Millisecond
	watcher, err := watch.New(path, debounce)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "create watcher", err)
	}
	if err := watcher.Start(); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "start watcher", err)
	}

	app.log.LogWatchStart(watcher.Path(), documentID)
	fmt.Fprintf(formatter.Writer, "Watching %s as %s (Ctrl-C to stop)\n", path, documentID)

	lastContent, err := captureInitial(ctx, app, formatter, watcher.Path(), documentID, author)
	if err != nil {
		_ = watcher.Stop()
		return reportError(formatter, err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			app.log.LogWatchStop()
			fmt.Fprintln(formatter.Writer, "Stopped.")
			return watcher.Stop()

		case <-ctx.Done():
			app.log.LogWatchStop()
			_ = watcher.Stop()
			return ctx.Err()

		case err := <-watcher.Errors():
			app.metrics.RecordWatchEvent("error")
			app.log.Error("Watch error").Err(err).Send()

		case snapshot := <-watcher.Snapshots():
			if snapshot.Content == lastContent {
				app.metrics.RecordWatchEvent("skipped")
				app.log.Debug("Snapshot matches latest version, skipping").
					Str("document_id", documentID).Send()
				continue
			}

			v, err := app.service.CreateVersion(ctx, versioning.CreateVersionParams{
				DocumentID: documentID,
				Content:    snapshot.Content,
				Author:     author,
				Comment:    fmt.Sprintf("Captured from %s", filepath.Base(snapshot.Path)),
			})
			if err != nil {
				app.metrics.RecordWatchEvent("error")
				app.log.Error("Failed to capture version").
					Str("document_id", documentID).Err(err).Send()
				continue
			}

			lastContent = snapshot.Content
			app.metrics.RecordWatchEvent("created")
			fmt.Fprintf(formatter.Writer, "✓ Captured version %d of %s\n", v.VersionNumber, documentID)
		}
	}
}

// captureInitial versions the file's current content unless it already
// matches the latest stored version. It returns the content now considered
// current, which later snapshots are deduplicated against.
func captureInitial(ctx context.Context, app *app, formatter *OutputFormatter, path, documentID string, author version.Author) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	content := string(data)

	latest, err := app.service.GetVersions(ctx, documentID, 1, 0)
	if err != nil && !version.IsNotFound(err) {
		return "", err
	}
	if err == nil && latest[0].Content == content {
		app.metrics.RecordWatchEvent("skipped")
		return content, nil
	}

	v, err := app.service.CreateVersion(ctx, versioning.CreateVersionParams{
		DocumentID: documentID,
		Content:    content,
		Author:     author,
		Comment:    fmt.Sprintf("Captured from %s", filepath.Base(path)),
	})
	if err != nil {
		return "", err
	}

	app.metrics.RecordWatchEvent("created")
	fmt.Fprintf(formatter.Writer, "✓ Captured version %d of %s\n", v.VersionNumber, documentID)
	return content, nil
}
