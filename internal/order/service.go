package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/events"
	"github.com/atacadocell/backend-atacado/internal/lead"
	"github.com/atacadocell/backend-atacado/internal/notify"
	"github.com/atacadocell/backend-atacado/internal/obs"
	"github.com/atacadocell/backend-atacado/internal/pricing"
	"github.com/atacadocell/backend-atacado/internal/store"
	"github.com/atacadocell/backend-atacado/internal/wa"
)

// CartStore is the slice of the cart storage checkout needs.
type CartStore interface {
	Get(ctx context.Context, id pgtype.UUID) (store.Cart, error)
	ListItems(ctx context.Context, cartID pgtype.UUID) ([]store.CartItem, error)
	Clear(ctx context.Context, cartID pgtype.UUID) error
}

// ProductLookup resolves the products referenced by cart lines.
type ProductLookup interface {
	GetByIDs(ctx context.Context, ids []int64) ([]store.Product, error)
}

// OrderStore persists submitted orders.
type OrderStore interface {
	Create(ctx context.Context, o store.Order) (store.Order, error)
	Get(ctx context.Context, id pgtype.UUID) (store.Order, error)
	List(ctx context.Context, status string, limit, offset int) ([]store.Order, int64, error)
	ListByPhone(ctx context.Context, phone string, limit int) ([]store.Order, error)
	UpdateStatus(ctx context.Context, id pgtype.UUID, status string) (store.Order, error)
}

// LeadLookup resolves the lead behind a catalog token so a customer can see
// the orders placed with their phone number.
type LeadLookup interface {
	Get(ctx context.Context, id pgtype.UUID) (store.Lead, error)
}

// EventBus publishes domain events after state changes.
type EventBus interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (store.DomainEvent, error)
}

// Service handles order submission and back-office order management.
type Service struct {
	Carts       CartStore
	Products    ProductLookup
	Orders      OrderStore
	Leads       LeadLookup
	Bus         EventBus
	Tasks       notify.TaskEnqueuer
	WARecipient string
	Logger      zerolog.Logger
	Validate    *validator.Validate
}

// CheckoutInput is the order submission payload.
type CheckoutInput struct {
	CartID       string `json:"cartId" validate:"required,uuid"`
	CustomerName string `json:"customerName" validate:"required,min=2,max=120"`
	Phone        string `json:"phone" validate:"required,min=10,max=20"`
}

// Checkout converts a cart into a persisted order. The cart is priced line by
// line at its current tier, the WhatsApp summary is rendered once, and the
// notification jobs are enqueued after commit. Enqueue failures are logged and
// swallowed: order placement never fails on the notify path.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (store.Order, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	phone, err := lead.NormalizePhone(in.Phone)
	if err != nil {
		obs.OrdersSubmittedTotal.WithLabelValues("rejected").Inc()
		return store.Order{}, common.NewAppError("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, nil)
	}
	in.Phone = phone
	if err := s.Validate.Struct(in); err != nil {
		obs.OrdersSubmittedTotal.WithLabelValues("rejected").Inc()
		return store.Order{}, common.NewAppError("VALIDATION_ERROR", "invalid order payload", http.StatusBadRequest, err)
	}

	cartID, err := parseUUID(in.CartID)
	if err != nil {
		return store.Order{}, common.NewAppError("BAD_REQUEST", "invalid cart id", http.StatusBadRequest, err)
	}
	if _, err := s.Carts.Get(ctx, cartID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Order{}, common.NewAppError("NOT_FOUND", "cart not found", http.StatusNotFound, err)
		}
		return store.Order{}, fmt.Errorf("load cart: %w", err)
	}
	items, err := s.Carts.ListItems(ctx, cartID)
	if err != nil {
		return store.Order{}, fmt.Errorf("list cart items: %w", err)
	}
	if len(items) == 0 {
		return store.Order{}, common.NewAppError("VALIDATION_ERROR", "cart is empty", http.StatusUnprocessableEntity, nil)
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Products.GetByIDs(ctx, ids)
	if err != nil {
		return store.Order{}, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[int64]store.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	order := store.Order{CustomerName: in.CustomerName, Phone: in.Phone}
	waItems := make([]wa.OrderItem, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok || !p.Active {
			return store.Order{}, common.NewAppError("VALIDATION_ERROR",
				fmt.Sprintf("product %d is no longer available", it.ProductID), http.StatusUnprocessableEntity, nil)
		}
		pp := p.Pricing()
		q := pricing.Resolve(pp, it.Qty)
		order.Items = append(order.Items, store.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Qty:       it.Qty,
			UnitPrice: q.AppliedPrice,
			Subtotal:  q.TotalPrice,
			Savings:   q.Savings,
			IsSpecial: q.IsSpecial,
		})
		order.TotalPrice += q.TotalPrice
		order.TotalSavings += q.Savings
		order.TotalQuantity += it.Qty
		waItems = append(waItems, wa.OrderItem{Product: pp, Qty: it.Qty})
	}
	order.Message = wa.BuildOrderMessage(waItems, order.TotalPrice)

	created, err := s.Orders.Create(ctx, order)
	if err != nil {
		obs.OrdersSubmittedTotal.WithLabelValues("error").Inc()
		return store.Order{}, fmt.Errorf("create order: %w", err)
	}
	obs.OrdersSubmittedTotal.WithLabelValues("ok").Inc()

	if err := s.Carts.Clear(ctx, cartID); err != nil {
		s.Logger.Warn().Err(err).Str("cart_id", in.CartID).Msg("clear cart after checkout")
	}
	s.notifyCreated(ctx, created)
	return created, nil
}

func (s *Service) notifyCreated(ctx context.Context, o store.Order) {
	orderID := store.UUIDString(o.ID)
	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicOrderCreated, orderID, orderEventPayload(o)); err != nil {
			s.Logger.Warn().Err(err).Str("order_id", orderID).Msg("emit order.created")
		}
	}
	if s.Tasks == nil || s.WARecipient == "" {
		return
	}
	task, err := notify.NewWASendTask(notify.WASendPayload{
		OrderID: orderID,
		To:      s.WARecipient,
		Message: o.Message,
	})
	if err != nil {
		s.Logger.Warn().Err(err).Str("order_id", orderID).Msg("build wa task")
		return
	}
	if _, err := s.Tasks.EnqueueContext(ctx, task); err != nil {
		s.Logger.Warn().Err(err).Str("order_id", orderID).Msg("enqueue wa task")
	}
}

// Get loads one order with its lines.
func (s *Service) Get(ctx context.Context, id pgtype.UUID) (store.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Order{}, common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, err)
		}
		return store.Order{}, fmt.Errorf("load order: %w", err)
	}
	return o, nil
}

// ListForLead returns the orders placed with the phone number the lead left
// when they unlocked the catalog.
func (s *Service) ListForLead(ctx context.Context, leadID string) ([]store.Order, error) {
	if s.Leads == nil {
		return nil, errors.New("order: lead lookup not configured")
	}
	id, err := parseUUID(leadID)
	if err != nil {
		return nil, common.NewAppError("UNAUTHORIZED", "invalid catalog token subject", http.StatusUnauthorized, err)
	}
	l, err := s.Leads.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, common.NewAppError("UNAUTHORIZED", "unknown catalog token subject", http.StatusUnauthorized, err)
		}
		return nil, fmt.Errorf("load lead: %w", err)
	}
	orders, err := s.Orders.ListByPhone(ctx, l.Phone, 20)
	if err != nil {
		return nil, fmt.Errorf("list orders by phone: %w", err)
	}
	return orders, nil
}

// List returns orders newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]store.Order, int64, error) {
	if status != "" && !store.ValidOrderStatus(status) {
		return nil, 0, common.NewAppError("BAD_REQUEST", "unknown order status", http.StatusBadRequest, nil)
	}
	return s.Orders.List(ctx, status, limit, offset)
}

// UpdateStatus moves an order through the back-office state set and emits
// the status-change event.
func (s *Service) UpdateStatus(ctx context.Context, id pgtype.UUID, status string) (store.Order, error) {
	if !store.ValidOrderStatus(status) {
		return store.Order{}, common.NewAppError("VALIDATION_ERROR", "unknown order status", http.StatusBadRequest, nil)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return store.Order{}, err
	}
	if current.Status == status {
		return current, nil
	}
	updated, err := s.Orders.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Order{}, common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, err)
		}
		return store.Order{}, fmt.Errorf("update order status: %w", err)
	}
	if s.Bus != nil {
		orderID := store.UUIDString(updated.ID)
		payload := map[string]any{"orderId": orderID, "from": current.Status, "to": updated.Status}
		if _, err := s.Bus.Emit(ctx, events.TopicOrderStatusChanged, orderID, payload); err != nil {
			s.Logger.Warn().Err(err).Str("order_id", orderID).Msg("emit order.status_changed")
		}
	}
	return updated, nil
}

func orderEventPayload(o store.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"productId": it.ProductID,
			"name":      it.Name,
			"qty":       it.Qty,
			"unitPrice": it.UnitPrice,
			"subtotal":  it.Subtotal,
		})
	}
	return map[string]any{
		"orderId":       store.UUIDString(o.ID),
		"customerName":  o.CustomerName,
		"phone":         o.Phone,
		"totalPrice":    o.TotalPrice,
		"totalSavings":  o.TotalSavings,
		"totalQuantity": o.TotalQuantity,
		"items":         items,
	}
}
