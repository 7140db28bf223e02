package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atacadocell/backend-atacado/internal/pricing"
)

// Product is a catalog row.
type Product struct {
	ID            int64
	Name          string
	Slug          string
	Description   string
	Category      string
	ImageURL      string
	Price         int64
	SpecialPrice  int64
	SpecialMinQty int
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Pricing projects the row onto the pricing engine input.
func (p Product) Pricing() pricing.Product {
	return pricing.Product{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		SpecialPrice:  p.SpecialPrice,
		SpecialMinQty: p.SpecialMinQty,
	}
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category string
	Query    string
	Limit    int
	Offset   int
}

// Products provides access to the products table.
type Products struct {
	Pool *pgxpool.Pool
}

const productColumns = `id, name, slug, description, category, image_url, price, special_price, special_min_qty, active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Category, &p.ImageURL,
		&p.Price, &p.SpecialPrice, &p.SpecialMinQty, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns active products matching the filter, newest first.
func (s Products) List(ctx context.Context, f ProductFilter) ([]Product, error) {
	var (
		conds = []string{"active"}
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		productColumns, strings.Join(conds, " AND "), len(args)-1, len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count reports how many active products match the filter.
func (s Products) Count(ctx context.Context, f ProductFilter) (int64, error) {
	var (
		conds = []string{"active"}
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	var total int64
	err := s.Pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT count(*) FROM products WHERE %s`, strings.Join(conds, " AND ")),
		args...).Scan(&total)
	return total, err
}

// GetBySlug loads a single active product.
func (s Products) GetBySlug(ctx context.Context, slug string) (Product, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1 AND active`, slug)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// GetByIDs loads products by id, including inactive ones; absent ids are
// simply missing from the result.
func (s Products) GetByIDs(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a product and returns it with generated fields.
func (s Products) Create(ctx context.Context, p Product) (Product, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO products (name, slug, description, category, image_url, price, special_price, special_min_qty, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+productColumns,
		p.Name, p.Slug, p.Description, p.Category, p.ImageURL, p.Price, p.SpecialPrice, p.SpecialMinQty, p.Active)
	created, err := scanProduct(row)
	if isUniqueViolation(err) {
		return Product{}, fmt.Errorf("slug %q: %w", p.Slug, ErrConflict)
	}
	return created, err
}

// Update rewrites the mutable fields of a product.
func (s Products) Update(ctx context.Context, p Product) (Product, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE products
		SET name = $2, slug = $3, description = $4, category = $5, image_url = $6,
		    price = $7, special_price = $8, special_min_qty = $9, active = $10, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Slug, p.Description, p.Category, p.ImageURL, p.Price, p.SpecialPrice, p.SpecialMinQty, p.Active)
	updated, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if isUniqueViolation(err) {
		return Product{}, fmt.Errorf("slug %q: %w", p.Slug, ErrConflict)
	}
	return updated, err
}

// Delete deactivates a product; history (orders, kits) keeps referencing it.
func (s Products) Delete(ctx context.Context, id int64) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE products SET active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
