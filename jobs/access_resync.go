package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/aegis-admin/aegis-admin/internal/access"
	jobmetrics "github.com/aegis-admin/aegis-admin/internal/jobs"
)

// AccessResyncJob recomputes materialized permission sets after a role
// definition changes.
type AccessResyncJob struct {
	Access  *access.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAccessResyncJob initialises the resync handler.
func NewAccessResyncJob(accessSvc *access.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AccessResyncJob {
	return &AccessResyncJob{Access: accessSvc, Logger: logger, Metrics: metrics}
}

// Handle executes the resync.
func (j *AccessResyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Access == nil {
		return errors.New("access resync: handler not configured")
	}
	var payload AccessResyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskAccessResync)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("user_id", payload.UserID),
		slog.String("role_name", payload.RoleName),
	)
	switch {
	case payload.UserID != "":
		resultErr = j.Access.Resync(ctx, payload.UserID)
	case payload.RoleName != "":
		resultErr = j.Access.ResyncRole(ctx, payload.RoleName)
	default:
		logger.Warn("access resync payload names no target")
		return asynq.SkipRetry
	}
	if resultErr != nil {
		logger.Error("access resync failed", slog.Any("error", resultErr))
		return resultErr
	}
	logger.Info("completed access resync")
	return nil
}

func (j *AccessResyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
