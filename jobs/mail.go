package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/aegis-admin/aegis-admin/internal/jobs"
)

// SMTPConfig carries mail relay settings.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// SendEmailJob delivers transactional mail through a plain SMTP relay.
type SendEmailJob struct {
	Config  SMTPConfig
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	send    func(addr, from string, to []string, msg []byte) error
}

// NewSendEmailJob initialises the mail handler.
func NewSendEmailJob(cfg SMTPConfig, logger *slog.Logger, metrics *jobmetrics.Metrics) *SendEmailJob {
	return &SendEmailJob{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// Handle executes the mail delivery.
func (j *SendEmailJob) Handle(_ context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("send email: handler not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskTypeSendEmail)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	addr := fmt.Sprintf("%s:%d", j.Config.Host, j.Config.Port)
	msg := buildMessage(j.Config.From, payload)
	if err := j.send(addr, j.Config.From, []string{payload.To}, msg); err != nil {
		resultErr = err
		j.logger().Error("send email", slog.String("to", payload.To), slog.Any("error", err))
		return resultErr
	}
	j.logger().Info("sent email", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

func buildMessage(from string, payload SendEmailPayload) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", payload.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", payload.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(payload.Body)
	return []byte(b.String())
}

func (j *SendEmailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
