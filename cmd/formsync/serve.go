package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsync/internal/config"
	"github.com/goliatone/go-formsync/internal/logging"
	"github.com/goliatone/go-formsync/internal/metrics"
	"github.com/goliatone/go-formsync/internal/page"
	"github.com/goliatone/go-formsync/internal/server"
	"github.com/goliatone/go-formsync/internal/store"
	"github.com/goliatone/go-formsync/pkg/formtree"
	"github.com/goliatone/go-formsync/pkg/values"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the form over HTTP",
		Long: `Serve the form document, accept value files and store submissions.

The server will:
  - Load configuration from formsync.yaml (or --config)
  - Or load configuration from FORMSYNC_* environment variables
  - Reload the form document when it changes on disk
  - Expose Prometheus metrics on /metrics

Environment variables:
  FORMSYNC_FORM_DOCUMENT    - Form document path (required without a config file)
  FORMSYNC_SERVER_PORT      - Server port (default: 8080)
  FORMSYNC_STORE_DIR        - Submission directory (default: submissions)
  FORMSYNC_FORM_TEMPLATES_DIR - Directory of page templates overriding the built-in ones
  FORMSYNC_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  formsync serve
  formsync serve --config /etc/formsync/config.yaml
  FORMSYNC_FORM_DOCUMENT=form.html formsync serve`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	policy, err := values.ParseMergePolicy(cfg.Form.MergePolicy)
	if err != nil {
		return err
	}

	m := metrics.New()
	holder, err := server.NewDocumentHolder(cfg.Form.Document, logger, m)
	if err != nil {
		return fmt.Errorf("load form document: %w", err)
	}
	if cfg.Form.Watch {
		if err := holder.WatchFile(); err != nil {
			logger.Warn().Err(err).Msg("document watching disabled")
		}
	}
	defer holder.Stop()

	st, err := store.New(cfg.Store.Dir, logger)
	if err != nil {
		return err
	}
	pages, err := page.New(
		page.WithBaseDir(cfg.Form.TemplatesDir),
		page.WithGlobalData(map[string]any{"version": version}),
	)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Deps{
		Config: cfg,
		Holder: holder,
		Engine: formtree.New(
			formtree.WithMergePolicy(policy),
			formtree.WithSanitizer(cfg.Form.Sanitize),
			formtree.WithNotifier(formtree.LogNotifier{Logger: logger}),
			formtree.WithLogger(logger),
		),
		Store:   st,
		Pages:   pages,
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
