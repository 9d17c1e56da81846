// Package framework wraps scheduled jobs with run ids, structured logging
// and error capture.
package framework

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fitglue/strava-janitor/pkg/infrastructure/sentry"
)

// RunFunc is the signature of one scheduled cycle.
type RunFunc func(ctx context.Context) (interface{}, error)

// WrapCycle returns a runner that executes fn with a fresh run id,
// start/finish logging, and Sentry capture on failure. The handler error is
// returned unmodified so the caller decides what a failed cycle means.
func WrapCycle(jobName string, logger *slog.Logger, fn RunFunc) func(context.Context) error {
	return func(ctx context.Context) error {
		runID := uuid.NewString()
		log := logger.With("job", jobName, "run_id", runID)

		log.Info("Cycle started")
		start := time.Now()

		outputs, err := fn(ctx)
		elapsed := time.Since(start)

		if err != nil {
			log.Error("Cycle failed", "error", err, "duration_ms", elapsed.Milliseconds())
			sentry.CaptureException(err, map[string]interface{}{
				"job":    jobName,
				"run_id": runID,
			}, log)
			return err
		}

		log.Info("Cycle completed", "duration_ms", elapsed.Milliseconds(), "outputs", outputs)
		return nil
	}
}
