package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/tokobase/tokobase/internal/jobs"
)

// DefaultAuditRetention keeps audit history for ninety days.
const DefaultAuditRetention = 90 * 24 * time.Hour

// NewAuditTrimHandler builds the Asynq handler for TaskAuditTrim.
func NewAuditTrimHandler(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("audit_trim")
		var payload AuditTrimPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		retention := payload.Retention
		if retention <= 0 {
			retention = DefaultAuditRetention
		}
		tag, err := pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, time.Now().UTC().Add(-retention))
		if err != nil {
			if logger != nil {
				logger.Error("trim audit logs", slog.Any("error", err))
			}
			return tracker.End(err)
		}
		if logger != nil {
			logger.Info("trimmed audit logs", slog.Int64("removed", tag.RowsAffected()))
		}
		return tracker.End(nil)
	}
}
