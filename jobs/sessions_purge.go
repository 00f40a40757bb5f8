package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tokobase/tokobase/internal/jobs"
)

// DefaultSessionRetention keeps deactivated sessions around for a week before
// deletion, enough for incident review.
const DefaultSessionRetention = 7 * 24 * time.Hour

// SessionPurger deletes deactivated session rows older than the cutoff.
// Expired sessions stay readable until purged; correctness never depends on
// this job running.
type SessionPurger interface {
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewSessionsPurgeHandler builds the Asynq handler for TaskSessionsPurge.
func NewSessionsPurgeHandler(purger SessionPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("sessions_purge")
		var payload SessionsPurgePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		retention := payload.Retention
		if retention <= 0 {
			retention = DefaultSessionRetention
		}
		removed, err := purger.DeleteInactiveBefore(ctx, time.Now().UTC().Add(-retention))
		if err != nil {
			if logger != nil {
				logger.Error("purge sessions", slog.Any("error", err))
			}
			return tracker.End(err)
		}
		if logger != nil {
			logger.Info("purged sessions", slog.Int64("removed", removed))
		}
		return tracker.End(nil)
	}
}
