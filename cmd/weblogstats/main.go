package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/SteelMorgan/weblogstats/internal/cache"
	"github.com/SteelMorgan/weblogstats/internal/clickhouse"
	"github.com/SteelMorgan/weblogstats/internal/config"
	"github.com/SteelMorgan/weblogstats/internal/observability"
	"github.com/SteelMorgan/weblogstats/internal/report"
	"github.com/SteelMorgan/weblogstats/internal/retry"
	"github.com/SteelMorgan/weblogstats/internal/service"
	"github.com/SteelMorgan/weblogstats/internal/source"
	"github.com/SteelMorgan/weblogstats/internal/writer"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the whole program; it returns the process exit code
func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "An error occurred: %v\n", r)
			code = 1
		}
	}()

	fs := flag.NewFlagSet("weblogstats", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var path string
	fs.StringVar(&path, "file", "", "Path to the access log (local file, *.gz or s3://bucket/key)")
	fs.StringVar(&path, "f", "", "Shorthand for -file")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "weblogstats v%s: analyze web server access logs\n\n", version)
		fmt.Fprintf(stderr, "Usage:\n  weblogstats -f <access.log>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if path == "" {
		fmt.Fprintln(stderr, "Error: the -f/-file flag is required")
		fs.Usage()
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    "weblogstats",
		ServiceVersion: version,
		Endpoint:       cfg.TracingEndpoint,
		Protocol:       cfg.TracingProtocol,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer shutdown(context.Background())
	}

	svc, err := newService(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "An error occurred: %v\n", err)
		return 1
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn().Err(err).Msg("Error during shutdown")
		}
	}()

	res, err := svc.Analyze(ctx, path)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			fmt.Fprintf(stderr, "Error: File not found: %s\n", path)
		} else {
			fmt.Fprintf(stderr, "An error occurred: %v\n", err)
		}
		return 1
	}

	opts := report.Options{
		Format:    report.Format(cfg.OutputFormat),
		Precision: cfg.PercentPrecision,
	}
	if err := report.Render(stdout, res.Summary, &res.Run, opts); err != nil {
		fmt.Fprintf(stderr, "An error occurred: %v\n", err)
		return 1
	}

	return 0
}

// newService wires the analyzer with the optional cache and ClickHouse export.
// An unreachable optional sink is logged and skipped.
func newService(ctx context.Context, cfg *config.Config) (*service.AnalyzerService, error) {
	var opts []service.Option

	if cfg.CacheEnabled() {
		store, err := cache.NewBoltDBStore(cfg.CachePath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.CachePath).Msg("Summary cache disabled")
		} else {
			opts = append(opts, service.WithCache(store))
		}
	}

	if cfg.ClickHouseEnabled() {
		w, err := newClickHouseWriter(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Str("host", cfg.ClickHouseHost).Msg("ClickHouse export disabled")
		} else {
			opts = append(opts, service.WithWriter(w))
		}
	}

	return service.NewAnalyzerService(source.NewOpener(), opts...)
}

func newClickHouseWriter(ctx context.Context, cfg *config.Config) (*writer.ClickHouseWriter, error) {
	client, err := clickhouse.NewClient(ctx, clickhouse.Options{
		Host:     cfg.ClickHouseHost,
		Port:     cfg.ClickHousePort,
		Database: cfg.ClickHouseDB,
		Username: cfg.ClickHouseUser,
		Password: cfg.ClickHousePassword,
	}, retry.DefaultConfig().WithMaxAttempts(cfg.RetryMaxAttempts))
	if err != nil {
		return nil, err
	}

	w, err := writer.NewClickHouseWriter(ctx, client, cfg.ClickHouseTable)
	if err != nil {
		client.Close()
		return nil, err
	}
	return w, nil
}
