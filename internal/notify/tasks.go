package notify

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names processed by the worker.
const (
	TaskWASend         = "wa:send"
	TaskWebhookForward = "webhook:forward"
)

// WASendPayload carries a WhatsApp notification job.
type WASendPayload struct {
	OrderID string `json:"orderId"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// WebhookForwardPayload identifies one endpoint/event delivery.
type WebhookForwardPayload struct {
	EndpointID string `json:"endpointId"`
	EventID    string `json:"eventId"`
}

// NewWASendTask builds the queue task for a WhatsApp notification. Gateway
// retries happen inside the HTTP client, so the task itself is not retried.
func NewWASendTask(p WASendPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWASend, raw, asynq.MaxRetry(0), asynq.Timeout(2*time.Minute)), nil
}

// NewWebhookForwardTask builds the queue task for one webhook delivery.
// MaxRetry covers all attempts after the first; retry delays come from the
// worker's linear RetryDelayFunc.
func NewWebhookForwardTask(p WebhookForwardPayload, maxAttempts int) (*asynq.Task, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return asynq.NewTask(TaskWebhookForward, raw,
		asynq.MaxRetry(maxAttempts-1),
		asynq.TaskID(p.EndpointID+":"+p.EventID),
		asynq.Timeout(time.Minute),
	), nil
}

// LinearRetryDelay returns an asynq RetryDelayFunc that waits base, 2x base,
// 3x base and so on between attempts.
func LinearRetryDelay(base time.Duration) func(n int, err error, task *asynq.Task) time.Duration {
	if base <= 0 {
		base = 5 * time.Second
	}
	return func(n int, _ error, _ *asynq.Task) time.Duration {
		if n < 1 {
			n = 1
		}
		return time.Duration(n) * base
	}
}
