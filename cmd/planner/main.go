package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/editorial-planner/internal/app"
	"github.com/lueurxax/editorial-planner/internal/platform/config"
	db "github.com/lueurxax/editorial-planner/internal/storage"
)

const usage = "Usage: %s --mode=[worker|api|research|approve-run|generate|extend|replace|approve-strategy|validate]"

func main() {
	mode := flag.String("mode", "", "Service mode (worker, api, research, approve-run, generate, extend, replace, approve-strategy, validate)")

	var opts app.Options

	flag.StringVar(&opts.ProjectID, "project", "", "Project ID (research, generate)")
	flag.StringVar(&opts.RunID, "run", "", "Research run ID (approve-run)")
	flag.StringVar(&opts.SessionID, "session", "", "Strategy session ID (generate, replace, approve-strategy)")
	flag.StringVar(&opts.VersionID, "version", "", "Strategy version ID (extend, replace, validate)")
	flag.StringVar(&opts.Request, "request", "", "Free-text change request for regeneration (generate)")
	flag.IntVar(&opts.Days, "days", 0, "Days to add to the calendar, 30 when unset (extend)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg := cfg.DatabaseCfg()
	poolOpts := db.PoolOptions{
		MaxConns:          dbCfg.MaxConnections,
		MinConns:          dbCfg.MinConnections,
		MaxConnIdleTime:   dbCfg.MaxConnIdleTime,
		MaxConnLifetime:   dbCfg.MaxConnLifetime,
		HealthCheckPeriod: dbCfg.HealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, dbCfg.PostgresDSN, poolOpts, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application := app.New(cfg, database, &logger)

	// Long-running modes expose health and metrics
	if *mode == "worker" || *mode == "api" {
		go func() {
			if err := application.StartHealthServer(ctx); err != nil {
				logger.Error().Err(err).Msg("health check server error")
			}
		}()
	}

	if err := runMode(ctx, application, *mode, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode string, opts app.Options) error {
	switch mode {
	case "worker":
		return application.RunWorker(ctx)
	case "api":
		return application.RunAPI(ctx)
	case "research":
		return application.RunResearch(ctx, opts)
	case "approve-run":
		return application.ApproveRun(ctx, opts)
	case "generate":
		return application.Generate(ctx, opts)
	case "extend":
		return application.Extend(ctx, opts)
	case "replace":
		return application.Replace(ctx, opts)
	case "approve-strategy":
		return application.ApproveStrategy(ctx, opts)
	case "validate":
		return application.Validate(ctx, opts)
	default:
		log.Fatalf(usage, os.Args[0])

		return nil
	}
}
