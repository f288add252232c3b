package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fleetgrid/fleetgrid/internal/jobs"
)

// SessionSweeper prunes expired session rows.
type SessionSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// NewSessionSweepHandler builds the asynq handler for TaskSessionSweep.
func NewSessionSweepHandler(sweeper SessionSweeper, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SessionSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := metrics.Track(TaskSessionSweep)
		pruned, err := sweeper.SweepExpired(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("session sweep", slog.Any("error", err))
			return tracker.End(err)
		}
		if pruned > 0 {
			logger.Info("session sweep pruned rows", slog.Int64("pruned", pruned))
		}
		return tracker.End(nil)
	}
}
