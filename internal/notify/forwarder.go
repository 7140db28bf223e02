package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/atacadocell/backend-atacado/internal/store"
)

// EndpointStore lists and resolves webhook endpoint registrations.
type EndpointStore interface {
	ListActive(ctx context.Context) ([]store.WebhookEndpoint, error)
	Get(ctx context.Context, id pgtype.UUID) (store.WebhookEndpoint, error)
	PushDLQ(ctx context.Context, endpointID, eventID pgtype.UUID, lastError string) error
}

// TaskEnqueuer publishes tasks to the queue. Satisfied by asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Forwarder fans domain events out to subscribed webhook endpoints.
type Forwarder struct {
	Endpoints   EndpointStore
	Tasks       TaskEnqueuer
	Client      *http.Client
	MaxAttempts int
	Replay      ReplayProtector
	ReplayTTL   time.Duration
}

// Schedule enqueues one forward task per active endpoint subscribed to the
// event's topic. Duplicate tasks for the same endpoint and event collapse on
// the task id.
func (f *Forwarder) Schedule(ctx context.Context, event store.DomainEvent) error {
	if f == nil || f.Endpoints == nil || f.Tasks == nil {
		return nil
	}
	endpoints, err := f.Endpoints.ListActive(ctx)
	if err != nil {
		return err
	}
	var joined error
	for _, ep := range endpoints {
		if !ep.Subscribed(event.Topic) {
			continue
		}
		task, err := NewWebhookForwardTask(WebhookForwardPayload{
			EndpointID: store.UUIDString(ep.ID),
			EventID:    store.UUIDString(event.ID),
		}, f.MaxAttempts)
		if err != nil {
			joined = errors.Join(joined, err)
			continue
		}
		if _, err := f.Tasks.EnqueueContext(ctx, task); err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				continue
			}
			joined = errors.Join(joined, fmt.Errorf("enqueue delivery for %s: %w", store.UUIDString(ep.ID), err))
		}
	}
	return joined
}

// Deliver performs one delivery attempt against the endpoint.
func (f *Forwarder) Deliver(ctx context.Context, ep store.WebhookEndpoint, ev store.DomainEvent) (int, string, error) {
	if f.Client == nil {
		f.Client = HTTPClient(5 * time.Second)
	}
	ctx, span := otel.Tracer("notify.Forwarder").Start(ctx, "Forwarder.Deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("webhook.endpoint_id", store.UUIDString(ep.ID)),
		attribute.String("webhook.topic", ev.Topic),
	)
	if err := validateURL(ep.URL); err != nil {
		span.RecordError(err)
		return 0, "", err
	}
	payload := struct {
		EventID    string          `json:"eventId"`
		Topic      string          `json:"topic"`
		Data       json.RawMessage `json:"data"`
		OccurredAt time.Time       `json:"occurredAt"`
	}{
		EventID:    store.UUIDString(ev.ID),
		Topic:      ev.Topic,
		Data:       json.RawMessage(ev.Payload),
		OccurredAt: ev.CreatedAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return 0, "", err
	}
	ts := time.Now().Unix()
	claimedKey := ""
	if f.Replay != nil && f.ReplayTTL > 0 {
		key := replayKey(ep.ID, ev.ID)
		ok, err := f.Replay.Acquire(ctx, key, f.ReplayTTL)
		if err != nil {
			span.RecordError(err)
			return 0, "", err
		}
		if !ok {
			span.AddEvent("delivery replay prevented")
			return http.StatusOK, "replay-suppressed", nil
		}
		claimedKey = key
	}
	// A failed attempt must give its key back or the guard would swallow
	// the retries too.
	releaseClaim := func() {
		if claimedKey != "" {
			_ = f.Replay.Release(ctx, claimedKey)
		}
	}
	eventID := store.UUIDString(ev.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		releaseClaim()
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "atacado-api-webhooks/1.0")
	req.Header.Set("X-Event-ID", eventID)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Signature", ComputeSignature(ep.Secret, ts, eventID, body))
	resp, err := f.Client.Do(req)
	if err != nil {
		span.RecordError(err)
		releaseClaim()
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()
	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		span.RecordError(err)
		releaseClaim()
		return resp.StatusCode, "", err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		releaseClaim()
	}
	return resp.StatusCode, string(responseBody), nil
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint url: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return errors.New("webhook url must be http or https")
	}
	if parsed.Scheme == "http" {
		host := parsed.Hostname()
		if host != "localhost" && host != "127.0.0.1" {
			return errors.New("http webhook only allowed for localhost")
		}
	}
	if parsed.Host == "" {
		return errors.New("webhook url must include host")
	}
	return nil
}

// ComputeSignature calculates the webhook signature for the provided payload. The
// format is HMAC-SHA256 over "<ts>.<eventID>.<body>" using the endpoint secret.
func ComputeSignature(secret string, ts int64, eventID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(eventID))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// HTTPClient returns an HTTP client configured for webhook delivery.
func HTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// ReplayProtector guards against sending duplicate deliveries within a TTL.
type ReplayProtector interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

func replayKey(endpointID, eventID pgtype.UUID) string {
	return fmt.Sprintf("wh:%s:%s", store.UUIDString(endpointID), store.UUIDString(eventID))
}
