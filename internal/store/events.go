package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DomainEvent is an append-only record of something that happened.
type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID string
	Payload     []byte
	CreatedAt   time.Time
}

// Events appends and reads the domain event log.
type Events struct {
	Pool *pgxpool.Pool
}

// Append stores an event and returns it with its assigned id.
func (s Events) Append(ctx context.Context, topic, aggregateID string, payload []byte) (DomainEvent, error) {
	ev := DomainEvent{ID: NewUUID(), Topic: topic, AggregateID: aggregateID, Payload: payload}
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO domain_events (id, topic, aggregate_id, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		ev.ID, ev.Topic, ev.AggregateID, ev.Payload).Scan(&ev.CreatedAt)
	return ev, err
}

// Get loads one event by id.
func (s Events) Get(ctx context.Context, id pgtype.UUID) (DomainEvent, error) {
	var ev DomainEvent
	err := s.Pool.QueryRow(ctx, `
		SELECT id, topic, aggregate_id, payload, created_at
		FROM domain_events WHERE id = $1`, id).
		Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return DomainEvent{}, ErrNotFound
	}
	return ev, err
}

// List returns events newest first, optionally filtered by topic.
func (s Events) List(ctx context.Context, topic string, limit, offset int) ([]DomainEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		rows pgx.Rows
		err  error
	)
	if topic != "" {
		rows, err = s.Pool.Query(ctx, `
			SELECT id, topic, aggregate_id, payload, created_at
			FROM domain_events WHERE topic = $1
			ORDER BY created_at DESC LIMIT $2 OFFSET $3`, topic, limit, offset)
	} else {
		rows, err = s.Pool.Query(ctx, `
			SELECT id, topic, aggregate_id, payload, created_at
			FROM domain_events ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DomainEvent
	for rows.Next() {
		var ev DomainEvent
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
