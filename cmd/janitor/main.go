// Command janitor periodically reconciles a Strava account, hiding
// zero-distance rides that duplicate virtual trainer sessions.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fitglue/strava-janitor/pkg/bootstrap"
	"github.com/fitglue/strava-janitor/pkg/dedupe"
	"github.com/fitglue/strava-janitor/pkg/framework"
	"github.com/fitglue/strava-janitor/pkg/infrastructure/oauth"
	"github.com/fitglue/strava-janitor/pkg/infrastructure/sentry"
	"github.com/fitglue/strava-janitor/pkg/integrations/strava"
	"github.com/fitglue/strava-janitor/pkg/ops"
)

const serviceName = "strava-janitor"

// cycleTimeout bounds one full cleanup cycle; individual requests already
// carry the 10s client timeout.
const cycleTimeout = 10 * time.Minute

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}

func main() {
	logger := bootstrap.NewLogger(serviceName)

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	if err := sentry.Init(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		ServerName:  serviceName,
	}, logger); err != nil {
		os.Exit(1)
	}
	defer sentry.Flush(2 * time.Second)

	tokens := oauth.NewMemoryTokenSource(cfg.StravaClientID, cfg.StravaClientSecret, cfg.StravaRefreshToken, logger)
	client := strava.NewClient(oauth.NewHTTPClient(tokens), logger)
	cleaner := dedupe.NewCleaner(client, cfg.PageSize, logger)

	runCycle := framework.WrapCycle("hide-duplicate-indoor-rides", logger, func(ctx context.Context) (interface{}, error) {
		return cleaner.Run(ctx)
	})

	opsSrv := ops.NewServer(cfg.OpsAddress)
	go func() {
		logger.Info("Ops server listening", "address", cfg.OpsAddress)
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ops server failed", "error", err)
		}
	}()

	// SkipIfStillRunning guarantees at most one cycle executes at a time.
	sched := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger{logger.With("component", "cron")}),
	))
	_, err = sched.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()
		// Failures are logged and captured inside the runner; the next
		// scheduled cycle runs regardless.
		_ = runCycle(ctx)
	})
	if err != nil {
		logger.Error("Invalid schedule", "schedule", cfg.Schedule, "error", err)
		os.Exit(1)
	}

	sched.Start()
	logger.Info("Scheduler started", "schedule", cfg.Schedule)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	<-sched.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Ops server shutdown", "error", err)
	}
}
