package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atacadocell/backend-atacado/internal/kit"
)

// Kit is a staff-curated bundle definition.
type Kit struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []kit.Item
}

// Kits provides access to kit definitions.
type Kits struct {
	Pool *pgxpool.Pool
}

const kitColumns = `id, name, slug, description, active, created_at, updated_at`

func scanKit(row pgx.Row) (Kit, error) {
	var k Kit
	err := row.Scan(&k.ID, &k.Name, &k.Slug, &k.Description, &k.Active, &k.CreatedAt, &k.UpdatedAt)
	return k, err
}

// List returns kit definitions with their items, newest first. When
// activeOnly is set, disabled kits are filtered out.
func (s Kits) List(ctx context.Context, activeOnly bool) ([]Kit, error) {
	query := `SELECT ` + kitColumns + ` FROM kits ORDER BY created_at DESC, id DESC`
	if activeOnly {
		query = `SELECT ` + kitColumns + ` FROM kits WHERE active ORDER BY created_at DESC, id DESC`
	}
	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var kits []Kit
	for rows.Next() {
		k, err := scanKit(rows)
		if err != nil {
			return nil, err
		}
		kits = append(kits, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range kits {
		items, err := s.listItems(ctx, kits[i].ID)
		if err != nil {
			return nil, err
		}
		kits[i].Items = items
	}
	return kits, nil
}

// GetBySlug loads a single kit with items.
func (s Kits) GetBySlug(ctx context.Context, slug string) (Kit, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+kitColumns+` FROM kits WHERE slug = $1`, slug)
	k, err := scanKit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Kit{}, ErrNotFound
	}
	if err != nil {
		return Kit{}, err
	}
	k.Items, err = s.listItems(ctx, k.ID)
	return k, err
}

func (s Kits) listItems(ctx context.Context, kitID int64) ([]kit.Item, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT product_id, qty FROM kit_items WHERE kit_id = $1 ORDER BY product_id`, kitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []kit.Item
	for rows.Next() {
		var it kit.Item
		if err := rows.Scan(&it.ProductID, &it.Qty); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Create inserts a kit and its items in one transaction.
func (s Kits) Create(ctx context.Context, k Kit) (Kit, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Kit{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO kits (name, slug, description, active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+kitColumns,
		k.Name, k.Slug, k.Description, k.Active)
	created, err := scanKit(row)
	if isUniqueViolation(err) {
		return Kit{}, fmt.Errorf("slug %q: %w", k.Slug, ErrConflict)
	}
	if err != nil {
		return Kit{}, err
	}
	if err := insertKitItems(ctx, tx, created.ID, k.Items); err != nil {
		return Kit{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Kit{}, err
	}
	created.Items = k.Items
	return created, nil
}

// Update rewrites a kit definition and replaces its items.
func (s Kits) Update(ctx context.Context, k Kit) (Kit, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Kit{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE kits
		SET name = $2, slug = $3, description = $4, active = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+kitColumns,
		k.ID, k.Name, k.Slug, k.Description, k.Active)
	updated, err := scanKit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Kit{}, ErrNotFound
	}
	if isUniqueViolation(err) {
		return Kit{}, fmt.Errorf("slug %q: %w", k.Slug, ErrConflict)
	}
	if err != nil {
		return Kit{}, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM kit_items WHERE kit_id = $1`, k.ID); err != nil {
		return Kit{}, err
	}
	if err := insertKitItems(ctx, tx, k.ID, k.Items); err != nil {
		return Kit{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Kit{}, err
	}
	updated.Items = k.Items
	return updated, nil
}

// Delete removes a kit definition entirely.
func (s Kits) Delete(ctx context.Context, id int64) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM kits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertKitItems(ctx context.Context, tx pgx.Tx, kitID int64, items []kit.Item) error {
	for _, it := range items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO kit_items (kit_id, product_id, qty) VALUES ($1, $2, $3)`,
			kitID, it.ProductID, it.Qty); err != nil {
			return err
		}
	}
	return nil
}
