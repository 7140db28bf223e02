package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Lead is a captured WhatsApp contact.
type Lead struct {
	ID        pgtype.UUID
	Name      string
	Phone     string
	Source    string
	CreatedAt time.Time
}

// Leads provides access to captured contacts.
type Leads struct {
	Pool *pgxpool.Pool
}

// Create persists a lead.
func (s Leads) Create(ctx context.Context, name, phone, source string) (Lead, error) {
	l := Lead{ID: NewUUID(), Name: name, Phone: phone, Source: source}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO leads (id, name, phone, source)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		l.ID, l.Name, l.Phone, l.Source)
	if err := row.Scan(&l.CreatedAt); err != nil {
		return Lead{}, err
	}
	return l, nil
}

// Get loads a lead by id.
func (s Leads) Get(ctx context.Context, id pgtype.UUID) (Lead, error) {
	var l Lead
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, phone, source, created_at
		FROM leads WHERE id = $1`, id)
	err := row.Scan(&l.ID, &l.Name, &l.Phone, &l.Source, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

// List returns leads newest first with a total count for pagination.
func (s Leads) List(ctx context.Context, limit, offset int) ([]Lead, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM leads`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, phone, source, created_at
		FROM leads ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.Source, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}
