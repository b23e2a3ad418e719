package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskSessionPurge removes expired sessions and reset tokens.
	TaskSessionPurge = "session:purge"
	// TaskAccessResync recomputes materialized permission sets.
	TaskAccessResync = "access:resync"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// SessionPurgePayload configures a purge run. Zero values purge everything
// that is expired.
type SessionPurgePayload struct{}

// NewSessionPurgeTask constructs an Asynq task.
func NewSessionPurgeTask() (*asynq.Task, error) {
	data, err := json.Marshal(SessionPurgePayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPurge, data), nil
}

// AccessResyncPayload targets either a single user or every user holding a
// role. Exactly one of the fields should be set.
type AccessResyncPayload struct {
	UserID   string `json:"userId,omitempty"`
	RoleName string `json:"roleName,omitempty"`
}

// NewAccessResyncTask constructs an Asynq task.
func NewAccessResyncTask(payload AccessResyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccessResync, data), nil
}
