package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/aegis-admin/aegis-admin/internal/auth"
	jobmetrics "github.com/aegis-admin/aegis-admin/internal/jobs"
	"github.com/aegis-admin/aegis-admin/internal/session"
)

// SessionPurgeJob deletes expired sessions and stale password reset tokens.
type SessionPurgeJob struct {
	Sessions *session.Service
	Auth     *auth.Service
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewSessionPurgeJob initialises the purge handler.
func NewSessionPurgeJob(sessions *session.Service, authSvc *auth.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionPurgeJob {
	return &SessionPurgeJob{Sessions: sessions, Auth: authSvc, Logger: logger, Metrics: metrics}
}

// Handle executes the purge.
func (j *SessionPurgeJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Sessions == nil {
		return errors.New("session purge: handler not configured")
	}
	tracker := j.metrics().Track(TaskSessionPurge)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	start := time.Now()
	sessions, err := j.Sessions.PurgeExpired(ctx)
	if err != nil {
		resultErr = err
		j.logger().Error("purge sessions", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddPurged("session", sessions)

	var resets int64
	if j.Auth != nil {
		resets, err = j.Auth.PurgeResetTokens(ctx)
		if err != nil {
			resultErr = err
			j.logger().Error("purge reset tokens", slog.Any("error", err))
			return resultErr
		}
		j.metrics().AddPurged("reset_token", resets)
	}

	j.logger().Info("completed session purge",
		slog.Int64("sessions", sessions),
		slog.Int64("reset_tokens", resets),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *SessionPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *SessionPurgeJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
