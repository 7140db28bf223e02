package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookEndpoint is a subscriber URL for domain event forwarding.
type WebhookEndpoint struct {
	ID        pgtype.UUID
	URL       string
	Secret    string
	Topics    []string
	Active    bool
	CreatedAt time.Time
}

// Subscribed reports whether the endpoint wants events on topic. An empty
// topic list means all topics.
func (e WebhookEndpoint) Subscribed(topic string) bool {
	if len(e.Topics) == 0 {
		return true
	}
	for _, t := range e.Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// DLQEntry records a delivery that exhausted its retries.
type DLQEntry struct {
	ID         pgtype.UUID
	EndpointID pgtype.UUID
	EventID    pgtype.UUID
	LastError  string
	CreatedAt  time.Time
}

// Webhooks manages endpoint registrations and the dead letter queue.
type Webhooks struct {
	Pool *pgxpool.Pool
}

const webhookColumns = `id, url, secret, topics, active, created_at`

func scanWebhook(row pgx.Row) (WebhookEndpoint, error) {
	var e WebhookEndpoint
	err := row.Scan(&e.ID, &e.URL, &e.Secret, &e.Topics, &e.Active, &e.CreatedAt)
	return e, err
}

// Create registers a new endpoint.
func (s Webhooks) Create(ctx context.Context, url, secret string, topics []string) (WebhookEndpoint, error) {
	if topics == nil {
		topics = []string{}
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO webhook_endpoints (id, url, secret, topics, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING `+webhookColumns, NewUUID(), url, secret, topics)
	return scanWebhook(row)
}

// Get loads one endpoint by id.
func (s Webhooks) Get(ctx context.Context, id pgtype.UUID) (WebhookEndpoint, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+webhookColumns+` FROM webhook_endpoints WHERE id = $1`, id)
	e, err := scanWebhook(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return WebhookEndpoint{}, ErrNotFound
	}
	return e, err
}

// List returns every registered endpoint.
func (s Webhooks) List(ctx context.Context) ([]WebhookEndpoint, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+webhookColumns+` FROM webhook_endpoints ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WebhookEndpoint
	for rows.Next() {
		e, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListActive returns the endpoints eligible for delivery.
func (s Webhooks) ListActive(ctx context.Context) ([]WebhookEndpoint, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+webhookColumns+` FROM webhook_endpoints WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WebhookEndpoint
	for rows.Next() {
		e, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SetActive toggles delivery for an endpoint.
func (s Webhooks) SetActive(ctx context.Context, id pgtype.UUID, active bool) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE webhook_endpoints SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an endpoint registration.
func (s Webhooks) Delete(ctx context.Context, id pgtype.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM webhook_endpoints WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PushDLQ records an exhausted delivery for later inspection.
func (s Webhooks) PushDLQ(ctx context.Context, endpointID, eventID pgtype.UUID, lastError string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO webhook_dlq (id, endpoint_id, event_id, last_error)
		VALUES ($1, $2, $3, $4)`, NewUUID(), endpointID, eventID, lastError)
	return err
}

// ListDLQ returns dead letters newest first.
func (s Webhooks) ListDLQ(ctx context.Context, limit, offset int) ([]DLQEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, endpoint_id, event_id, last_error, created_at
		FROM webhook_dlq ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DLQEntry
	for rows.Next() {
		var d DLQEntry
		if err := rows.Scan(&d.ID, &d.EndpointID, &d.EventID, &d.LastError, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
