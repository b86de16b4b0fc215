package cli

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nainya/docvault/internal/config"
	"github.com/nainya/docvault/internal/logger"
	"github.com/nainya/docvault/internal/metrics"
	"github.com/nainya/docvault/pkg/dynamostore"
	"github.com/nainya/docvault/pkg/logstore"
	"github.com/nainya/docvault/pkg/sqlitestore"
	"github.com/nainya/docvault/pkg/version"
	"github.com/nainya/docvault/pkg/versioning"
)

// app bundles the wired service and its dependencies for one command run.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	store    version.Store
	service  *versioning.Service
}

// newApp loads configuration and wires the versioning service with the
// configured store backend.
func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	log := logger.NewLogger(logger.Config{Level: level, Pretty: cfg.Log.Pretty})

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	service := versioning.New(store,
		versioning.WithRetentionLimit(cfg.Retention.Limit),
		versioning.WithMaxRetries(cfg.Retention.MaxRetries),
		versioning.WithLogger(*log.GetZerolog()),
		versioning.WithMetrics(m),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  m,
		store:    store,
		service:  service,
	}, nil
}

// Close releases the store.
func (a *app) Close() error {
	return a.store.Close()
}

// openStore constructs the version store named by the configuration.
func openStore(ctx context.Context, cfg *config.Config) (version.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return version.NewMemoryStore(), nil
	case "file":
		return logstore.Open(cfg.Store.Dir)
	case "sqlite":
		return sqlitestore.Open(cfg.Store.Path)
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return dynamostore.NewStore(dynamodb.NewFromConfig(awsCfg), cfg.Store.Table), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

// newFormatter builds the output formatter for one command invocation.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
