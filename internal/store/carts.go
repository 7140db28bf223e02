package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cart is an anonymous, TTL-bound shopping cart.
type Cart struct {
	ID        pgtype.UUID
	AnonID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is one product line inside a cart.
type CartItem struct {
	ID        pgtype.UUID
	CartID    pgtype.UUID
	ProductID int64
	Qty       int
}

// Carts provides access to carts and their items.
type Carts struct {
	Pool *pgxpool.Pool
}

// EnsureByAnon loads the cart for the anonymous id, creating it when absent,
// and pushes the expiry forward.
func (s Carts) EnsureByAnon(ctx context.Context, anonID string, expiresAt time.Time) (Cart, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO carts (id, anon_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (anon_id)
		DO UPDATE SET expires_at = EXCLUDED.expires_at, updated_at = now()
		RETURNING id, anon_id, expires_at, created_at, updated_at`,
		NewUUID(), anonID, expiresAt)
	var c Cart
	err := row.Scan(&c.ID, &c.AnonID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Get loads a cart by id.
func (s Carts) Get(ctx context.Context, id pgtype.UUID) (Cart, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, anon_id, expires_at, created_at, updated_at FROM carts WHERE id = $1`, id)
	var c Cart
	err := row.Scan(&c.ID, &c.AnonID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, ErrNotFound
	}
	return c, err
}

// Touch extends a cart's expiry.
func (s Carts) Touch(ctx context.Context, id pgtype.UUID, expiresAt time.Time) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1`, id, expiresAt)
	return err
}

// ListItems returns the cart lines ordered by insertion.
func (s Carts) ListItems(ctx context.Context, cartID pgtype.UUID) ([]CartItem, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, cart_id, product_id, qty FROM cart_items WHERE cart_id = $1 ORDER BY created_at, id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Qty); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpsertItem adds qty to an existing line or creates a new one.
func (s Carts) UpsertItem(ctx context.Context, cartID pgtype.UUID, productID int64, qty int) (CartItem, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, qty)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty, updated_at = now()
		RETURNING id, cart_id, product_id, qty`,
		NewUUID(), cartID, productID, qty)
	var it CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Qty)
	return it, err
}

// SetItemQty overwrites the quantity of a cart line.
func (s Carts) SetItemQty(ctx context.Context, cartID, itemID pgtype.UUID, qty int) (CartItem, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE cart_items SET qty = $3, updated_at = now()
		WHERE id = $2 AND cart_id = $1
		RETURNING id, cart_id, product_id, qty`,
		cartID, itemID, qty)
	var it CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return CartItem{}, ErrNotFound
	}
	return it, err
}

// DeleteItem removes a cart line.
func (s Carts) DeleteItem(ctx context.Context, cartID, itemID pgtype.UUID) error {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM cart_items WHERE id = $2 AND cart_id = $1`, cartID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes all lines from a cart after checkout.
func (s Carts) Clear(ctx context.Context, cartID pgtype.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
