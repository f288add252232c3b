package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fleetgrid/fleetgrid/internal/jobs"
)

// IntegrityScanner counts permission rows that break the implication rules.
type IntegrityScanner interface {
	CountInconsistent(ctx context.Context) (int64, error)
}

// NewIntegrityScanHandler builds the asynq handler for TaskIntegrityScan.
// The scan is read-only; inconsistent rows are reported, never repaired.
func NewIntegrityScanHandler(scanner IntegrityScanner, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload IntegrityScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := metrics.Track(TaskIntegrityScan)
		count, err := scanner.CountInconsistent(ctx)
		if err != nil {
			logger.Error("permission integrity scan", slog.Any("error", err))
			return tracker.End(err)
		}
		metrics.SetInconsistentRecords(count)
		if count > 0 {
			logger.Warn("permission integrity scan found violations",
				slog.Int64("inconsistent", count))
		} else {
			logger.Info("permission integrity scan clean")
		}
		return tracker.End(nil)
	}
}
