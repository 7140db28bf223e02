package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Order lifecycle statuses.
const (
	OrderStatusReceived  = "RECEIVED"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusCancelled = "CANCELLED"
)

// ValidOrderStatus reports whether the status is one the back office accepts.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusReceived, OrderStatusConfirmed, OrderStatusShipped, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is a submitted wholesale order.
type Order struct {
	ID            pgtype.UUID
	CustomerName  string
	Phone         string
	Status        string
	TotalPrice    int64
	TotalSavings  int64
	TotalQuantity int
	Message       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Items         []OrderItem
}

// OrderItem is a priced snapshot of a cart line at checkout time.
type OrderItem struct {
	ID        pgtype.UUID
	OrderID   pgtype.UUID
	ProductID int64
	Name      string
	Qty       int
	UnitPrice int64
	Subtotal  int64
	Savings   int64
	IsSpecial bool
}

// Orders provides access to submitted orders.
type Orders struct {
	Pool *pgxpool.Pool
}

const orderColumns = `id, customer_name, phone, status, total_price, total_savings, total_quantity, message, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerName, &o.Phone, &o.Status, &o.TotalPrice,
		&o.TotalSavings, &o.TotalQuantity, &o.Message, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// Create persists the order and its item snapshots in one transaction.
func (s Orders) Create(ctx context.Context, o Order) (Order, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o.ID = NewUUID()
	if o.Status == "" {
		o.Status = OrderStatusReceived
	}
	row := tx.QueryRow(ctx, `
		INSERT INTO orders (id, customer_name, phone, status, total_price, total_savings, total_quantity, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+orderColumns,
		o.ID, o.CustomerName, o.Phone, o.Status, o.TotalPrice, o.TotalSavings, o.TotalQuantity, o.Message)
	created, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	for i := range o.Items {
		it := &o.Items[i]
		it.ID = NewUUID()
		it.OrderID = o.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, qty, unit_price, subtotal, savings, is_special)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, it.OrderID, it.ProductID, it.Name, it.Qty, it.UnitPrice, it.Subtotal, it.Savings, it.IsSpecial); err != nil {
			return Order{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	created.Items = o.Items
	return created, nil
}

// Get loads an order with its items.
func (s Orders) Get(ctx context.Context, id pgtype.UUID) (Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Items, err = s.listItems(ctx, id)
	return o, err
}

func (s Orders) listItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, product_id, name, qty, unit_price, subtotal, savings, is_special
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Qty,
			&it.UnitPrice, &it.Subtotal, &it.Savings, &it.IsSpecial); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// List returns orders newest first, optionally filtered by status, with a
// total count for pagination. Items are not loaded.
func (s Orders) List(ctx context.Context, status string, limit, offset int) ([]Order, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		total int64
		rows  pgx.Rows
		err   error
	)
	if status != "" {
		if err = s.Pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE status = $1`, status).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = s.Pool.Query(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		if err = s.Pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&total); err != nil {
			return nil, 0, err
		}
		rows, err = s.Pool.Query(ctx,
			`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// ListByPhone returns a customer's orders newest first. Items are not loaded.
func (s Orders) ListByPhone(ctx context.Context, phone string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE phone = $1 ORDER BY created_at DESC LIMIT $2`,
		phone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus transitions an order to a new status.
func (s Orders) UpdateStatus(ctx context.Context, id pgtype.UUID, status string) (Order, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns, id, status)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}
