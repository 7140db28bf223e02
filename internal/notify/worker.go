package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/atacadocell/backend-atacado/internal/lock"
	"github.com/atacadocell/backend-atacado/internal/obs"
	"github.com/atacadocell/backend-atacado/internal/store"
)

// EventGetter resolves persisted domain events for delivery.
type EventGetter interface {
	Get(ctx context.Context, id pgtype.UUID) (store.DomainEvent, error)
}

// WASender sends WhatsApp messages. Satisfied by wa.Client.
type WASender interface {
	SendText(ctx context.Context, to, text string) error
}

// Worker processes queued notification tasks.
type Worker struct {
	Forwarder *Forwarder
	Events    EventGetter
	WA        WASender
	Locker    lock.Locker
	LockTTL   time.Duration
	Logger    zerolog.Logger
}

// Register attaches the worker's handlers to the queue mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskWASend, w.HandleWASend)
	mux.HandleFunc(TaskWebhookForward, w.HandleWebhookForward)
}

// HandleWASend sends the order notification through the WhatsApp gateway.
// The gateway client retries internally, so any error returned here is final.
func (w *Worker) HandleWASend(ctx context.Context, task *asynq.Task) error {
	var payload WASendPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("wa send payload: %w: %s", asynq.SkipRetry, err)
	}
	if w.WA == nil {
		w.Logger.Warn().Str("order_id", payload.OrderID).Msg("wa gateway not configured, skipping notification")
		return nil
	}
	if err := w.WA.SendText(ctx, payload.To, payload.Message); err != nil {
		if obs.WASendTotal != nil {
			obs.WASendTotal.WithLabelValues("failed").Inc()
		}
		w.Logger.Error().Err(err).Str("order_id", payload.OrderID).Msg("whatsapp notification failed")
		return fmt.Errorf("send whatsapp for order %s: %w", payload.OrderID, err)
	}
	if obs.WASendTotal != nil {
		obs.WASendTotal.WithLabelValues("sent").Inc()
	}
	w.Logger.Info().Str("order_id", payload.OrderID).Msg("whatsapp notification sent")
	return nil
}

// HandleWebhookForward delivers one event to one endpoint. Failed attempts are
// retried by the queue; the final failure lands in the dead letter queue.
func (w *Worker) HandleWebhookForward(ctx context.Context, task *asynq.Task) error {
	var payload WebhookForwardPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("webhook forward payload: %w: %s", asynq.SkipRetry, err)
	}
	if w.Forwarder == nil || w.Events == nil {
		return errors.New("notify worker: forwarder not configured")
	}
	endpointID, err := parseUUID(payload.EndpointID)
	if err != nil {
		return fmt.Errorf("webhook forward endpoint id: %w: %s", asynq.SkipRetry, err)
	}
	eventID, err := parseUUID(payload.EventID)
	if err != nil {
		return fmt.Errorf("webhook forward event id: %w: %s", asynq.SkipRetry, err)
	}

	deliver := func(ctx context.Context) error {
		return w.deliverOnce(ctx, task, endpointID, eventID)
	}
	if w.Locker.R == nil {
		return deliver(ctx)
	}
	ttl := w.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	key := fmt.Sprintf("lock:delivery:%s:%s", payload.EndpointID, payload.EventID)
	return w.Locker.WithLock(ctx, key, ttl, deliver)
}

func (w *Worker) deliverOnce(ctx context.Context, task *asynq.Task, endpointID, eventID pgtype.UUID) error {
	if obs.WebhookDispatchAttempts != nil {
		obs.WebhookDispatchAttempts.Inc()
	}
	endpoint, err := w.Forwarder.Endpoints.Get(ctx, endpointID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("endpoint gone: %w: %s", asynq.SkipRetry, err)
		}
		return fmt.Errorf("load endpoint: %w", err)
	}
	if !endpoint.Active {
		return nil
	}
	event, err := w.Events.Get(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("event gone: %w: %s", asynq.SkipRetry, err)
		}
		return fmt.Errorf("load event: %w", err)
	}

	start := time.Now()
	status, _, deliverErr := w.Forwarder.Deliver(ctx, endpoint, event)
	if deliverErr == nil && status >= 200 && status < 300 {
		if obs.WebhookDeliveriesTotal != nil {
			obs.WebhookDeliveriesTotal.WithLabelValues("delivered").Inc()
		}
		if obs.WebhookAttemptLatency != nil {
			obs.WebhookAttemptLatency.WithLabelValues("delivered").Observe(obs.DurationMillis(time.Since(start)))
		}
		return nil
	}

	reason := fmt.Sprintf("status=%d err=%v", status, deliverErr)
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried >= maxRetry {
		if obs.WebhookDeliveriesTotal != nil {
			obs.WebhookDeliveriesTotal.WithLabelValues("dlq").Inc()
		}
		if obs.WebhookAttemptLatency != nil {
			obs.WebhookAttemptLatency.WithLabelValues("dlq").Observe(obs.DurationMillis(time.Since(start)))
		}
		if obs.WebhookDispatchDLQ != nil {
			obs.WebhookDispatchDLQ.Inc()
		}
		if dlqErr := w.Forwarder.Endpoints.PushDLQ(ctx, endpointID, eventID, reason); dlqErr != nil {
			w.Logger.Error().Err(dlqErr).Str("task", task.Type()).Msg("record webhook dead letter")
		}
	} else {
		if obs.WebhookDeliveriesTotal != nil {
			obs.WebhookDeliveriesTotal.WithLabelValues("failed").Inc()
		}
		if obs.WebhookAttemptLatency != nil {
			obs.WebhookAttemptLatency.WithLabelValues("failed").Observe(obs.DurationMillis(time.Since(start)))
		}
	}
	return errors.New(reason)
}
