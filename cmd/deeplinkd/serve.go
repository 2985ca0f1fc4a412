package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goliatone/go-deeplink/adapters/gojob"
	"github.com/goliatone/go-deeplink/adapters/gologger"
	promadapter "github.com/goliatone/go-deeplink/adapters/prometheus"
	"github.com/goliatone/go-deeplink/adapters/tomlconfig"
	"github.com/goliatone/go-deeplink/core"
	"github.com/goliatone/go-deeplink/inbound"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	hostURL          string
	publicBaseURL    string
	landingPath      string
	metricsPath      string
	logLevel         string
	logFormat        string
	corsOrigins      []string
	journal          journalOptions
	journalRetention time.Duration
	summaryTTL       time.Duration
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the landing, intake and offer routes",
		Example: `  deeplinkd serve --public-base-url https://wallet.example
  deeplinkd serve -f deeplink.toml --public-base-url https://wallet.example --dsn /var/lib/deeplink/journal.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, root, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.hostURL, "host-url", "localhost:8080", "address to listen on")
	flags.StringVar(&opts.publicBaseURL, "public-base-url", "", "scheme and host app links are published under")
	flags.StringVar(&opts.landingPath, "landing-path", inbound.DefaultLandingPath, "path of the app-link landing route")
	flags.StringVar(&opts.metricsPath, "metrics-path", "/metrics", "path of the prometheus endpoint, empty disables it")
	flags.StringVar(&opts.logLevel, "log-level", "info", "trace, debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "text or json")
	flags.StringSliceVar(&opts.corsOrigins, "cors-origin", nil, "allowed CORS origin, repeatable; empty allows any")
	flags.StringVar(&opts.journal.driver, "db-driver", "sqlite3", "journal database driver (sqlite3 or postgres)")
	flags.StringVar(&opts.journal.dsn, "dsn", "", "journal database DSN, empty disables the journal")
	flags.DurationVar(&opts.journalRetention, "journal-retention", 0, "prune journal records older than this, zero keeps everything")
	flags.DurationVar(&opts.summaryTTL, "summary-ttl", time.Minute, "journal summary cache TTL")
	_ = cmd.MarkFlagRequired("public-base-url")
	return cmd
}

func newLogger(cmd *cobra.Command, opts serveOptions) (*gologger.SlogLogger, error) {
	switch strings.ToLower(opts.logFormat) {
	case "", "text":
		return gologger.NewTextLogger(cmd.ErrOrStderr(), opts.logLevel)
	case "json":
		return gologger.NewJSONLogger(cmd.ErrOrStderr(), opts.logLevel)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.logFormat)
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, root *rootOptions, opts serveOptions) error {
	logger, err := newLogger(cmd, opts)
	if err != nil {
		return err
	}

	loaded, err := loadConfig(ctx, root)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	serviceOpts := []core.Option{
		core.WithLoggerProvider(logger),
		core.WithMetricsRecorder(promadapter.NewRecorder(registry)),
		core.WithConfigProvider(core.NewCfgxConfigProvider(&tomlconfig.Loader{Path: root.configFile})),
	}

	var journal core.IngestionJournalPruner
	if opts.journal.dsn != "" {
		cached, closeJournal, err := openJournal(ctx, opts.journal, opts.summaryTTL)
		if err != nil {
			return err
		}
		defer closeJournal()
		journal = cached
		serviceOpts = append(serviceOpts, core.WithJournal(cached))
	}

	// The landing route only delivers if its absolute URL is an app-link
	// prefix, so it is appended to the configured ones at runtime.
	runtimeConfig := core.Config{}
	runtimeConfig.Classifier.AppLinkPrefixes = appendUnique(
		loaded.Classifier.AppLinkPrefixes,
		inbound.LandingURL(opts.publicBaseURL, opts.landingPath),
	)

	svc, err := core.NewService(runtimeConfig, serviceOpts...)
	if err != nil {
		return err
	}
	defer svc.Close()

	op, err := inbound.New(inbound.Config{
		Service:       svc,
		PublicBaseURL: opts.publicBaseURL,
		LandingPath:   opts.landingPath,
		Logger:        logger.GetLogger("inbound"),
	})
	if err != nil {
		return err
	}
	router := inbound.NewRouter(op)
	if opts.metricsPath != "" {
		router.Handle(opts.metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	if journal != nil && opts.journalRetention > 0 {
		pruner, err := startPruneScheduler(ctx, journal, opts.journalRetention, logger.GetLogger("journal"))
		if err != nil {
			return err
		}
		defer func() { _ = pruner.Stop(context.Background()) }()
	}

	server := newHTTPServer(opts.hostURL, inbound.WithCORS(router, opts.corsOrigins), svc)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("deeplinkd listening", "addr", opts.hostURL, "landing_url", op.LandingURL())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("deeplinkd shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newHTTPServer closes svc when shutdown starts so long-polling offer
// requests return instead of holding Shutdown open.
func newHTTPServer(addr string, handler http.Handler, svc *core.Service) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(func() {
		_ = svc.Close()
	})
	return server
}

// startPruneScheduler runs journal retention as a go-job cron schedule.
func startPruneScheduler(
	ctx context.Context,
	journal core.IngestionJournalPruner,
	retention time.Duration,
	logger core.Logger,
) (*gojob.PruneScheduler, error) {
	task, err := gojob.NewPruneTask(journal, retention, gojob.WithPruneLogger(logger))
	if err != nil {
		return nil, err
	}
	scheduler, err := gojob.NewPruneScheduler(task)
	if err != nil {
		return nil, err
	}
	if err := scheduler.Start(ctx); err != nil {
		return nil, err
	}
	logger.Info("journal retention scheduled", "retention", retention.String(), "schedule", gojob.PruneSchedule(retention))
	return scheduler, nil
}

func appendUnique(values []string, extra string) []string {
	out := append([]string(nil), values...)
	for _, value := range out {
		if value == extra {
			return out
		}
	}
	return append(out, extra)
}
