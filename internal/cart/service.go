package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/atacadocell/backend-atacado/internal/advisor"
	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/pricing"
	"github.com/atacadocell/backend-atacado/internal/store"
)

const defaultTTL = 7 * 24 * time.Hour

// CartStore persists carts and their lines.
type CartStore interface {
	EnsureByAnon(ctx context.Context, anonID string, expiresAt time.Time) (store.Cart, error)
	Get(ctx context.Context, id pgtype.UUID) (store.Cart, error)
	Touch(ctx context.Context, id pgtype.UUID, expiresAt time.Time) error
	ListItems(ctx context.Context, cartID pgtype.UUID) ([]store.CartItem, error)
	UpsertItem(ctx context.Context, cartID pgtype.UUID, productID int64, qty int) (store.CartItem, error)
	SetItemQty(ctx context.Context, cartID, itemID pgtype.UUID, qty int) (store.CartItem, error)
	DeleteItem(ctx context.Context, cartID, itemID pgtype.UUID) error
	Clear(ctx context.Context, cartID pgtype.UUID) error
}

// ProductLookup resolves cart products for pricing.
type ProductLookup interface {
	GetByIDs(ctx context.Context, ids []int64) ([]store.Product, error)
}

// Service manages anonymous carts and their savings preview.
type Service struct {
	Carts    CartStore
	Products ProductLookup
	TTL      time.Duration
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return defaultTTL
}

// Ensure returns the cart bound to the anonymous id, creating it when absent.
func (s *Service) Ensure(ctx context.Context, anonID string) (store.Cart, error) {
	if anonID == "" {
		return store.Cart{}, common.NewAppError("BAD_REQUEST", "anonId is required", http.StatusBadRequest, nil)
	}
	cart, err := s.Carts.EnsureByAnon(ctx, anonID, s.now().Add(s.ttl()))
	if err != nil {
		return store.Cart{}, fmt.Errorf("ensure cart: %w", err)
	}
	return cart, nil
}

// AddItem adds quantity to a product line.
func (s *Service) AddItem(ctx context.Context, cartID pgtype.UUID, productID int64, qty int) (store.CartItem, error) {
	if qty < 1 {
		return store.CartItem{}, common.NewAppError("VALIDATION_ERROR", "quantity must be at least 1", http.StatusBadRequest, nil)
	}
	if _, err := s.loadCart(ctx, cartID); err != nil {
		return store.CartItem{}, err
	}
	products, err := s.Products.GetByIDs(ctx, []int64{productID})
	if err != nil {
		return store.CartItem{}, fmt.Errorf("load product: %w", err)
	}
	if len(products) == 0 || !products[0].Active {
		return store.CartItem{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, nil)
	}
	item, err := s.Carts.UpsertItem(ctx, cartID, productID, qty)
	if err != nil {
		return store.CartItem{}, fmt.Errorf("add cart item: %w", err)
	}
	_ = s.Carts.Touch(ctx, cartID, s.now().Add(s.ttl()))
	return item, nil
}

// UpdateQty overwrites a line's quantity.
func (s *Service) UpdateQty(ctx context.Context, cartID, itemID pgtype.UUID, qty int) (store.CartItem, error) {
	if qty < 1 {
		return store.CartItem{}, common.NewAppError("VALIDATION_ERROR", "quantity must be at least 1", http.StatusBadRequest, nil)
	}
	if _, err := s.loadCart(ctx, cartID); err != nil {
		return store.CartItem{}, err
	}
	item, err := s.Carts.SetItemQty(ctx, cartID, itemID, qty)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.CartItem{}, common.NewAppError("NOT_FOUND", "cart item not found", http.StatusNotFound, err)
		}
		return store.CartItem{}, fmt.Errorf("update cart item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID pgtype.UUID) error {
	if _, err := s.loadCart(ctx, cartID); err != nil {
		return err
	}
	if err := s.Carts.DeleteItem(ctx, cartID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return common.NewAppError("NOT_FOUND", "cart item not found", http.StatusNotFound, err)
		}
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

// QuoteLine is one priced cart line.
type QuoteLine struct {
	ItemID        string        `json:"itemId"`
	ProductID     int64         `json:"productId"`
	Name          string        `json:"name"`
	Qty           int           `json:"qty"`
	UnitPrice     pricing.Money `json:"unitPrice"`
	TotalPrice    pricing.Money `json:"totalPrice"`
	Savings       pricing.Money `json:"savings"`
	IsSpecial     bool          `json:"isSpecialPrice"`
	UnitsToUnlock int           `json:"unitsToSpecial,omitempty"`
}

// Quote is the savings preview for a cart.
type Quote struct {
	CartID        string         `json:"cartId"`
	Lines         []QuoteLine    `json:"items"`
	TotalPrice    pricing.Money  `json:"totalPrice"`
	TotalSavings  pricing.Money  `json:"totalSavings"`
	TotalQuantity int            `json:"totalQuantity"`
	Advisor       advisor.Result `json:"advisor"`
	Impact        advisor.Impact `json:"advisorImpact"`
}

// Quote prices every line at its current tier and runs the savings advisor.
func (s *Service) Quote(ctx context.Context, cartID pgtype.UUID) (Quote, error) {
	if _, err := s.loadCart(ctx, cartID); err != nil {
		return Quote{}, err
	}
	items, err := s.Carts.ListItems(ctx, cartID)
	if err != nil {
		return Quote{}, fmt.Errorf("list cart items: %w", err)
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Products.GetByIDs(ctx, ids)
	if err != nil {
		return Quote{}, fmt.Errorf("load cart products: %w", err)
	}
	byID := make(map[int64]store.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	quote := Quote{CartID: store.UUIDString(cartID), Lines: make([]QuoteLine, 0, len(items))}
	advisorLines := make([]advisor.Line, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		pp := p.Pricing()
		q := pricing.Resolve(pp, it.Qty)
		quote.Lines = append(quote.Lines, QuoteLine{
			ItemID:        store.UUIDString(it.ID),
			ProductID:     p.ID,
			Name:          p.Name,
			Qty:           it.Qty,
			UnitPrice:     q.AppliedPrice,
			TotalPrice:    q.TotalPrice,
			Savings:       q.Savings,
			IsSpecial:     q.IsSpecial,
			UnitsToUnlock: q.UnitsToSpecial,
		})
		quote.TotalPrice += q.TotalPrice
		quote.TotalSavings += q.Savings
		quote.TotalQuantity += it.Qty
		advisorLines = append(advisorLines, advisor.Line{Product: pp, Qty: it.Qty})
	}
	quote.Advisor = advisor.Compute(advisorLines)
	quote.Impact = advisor.Aggregate(quote.Advisor.All)
	return quote, nil
}

func (s *Service) loadCart(ctx context.Context, cartID pgtype.UUID) (store.Cart, error) {
	cart, err := s.Carts.Get(ctx, cartID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Cart{}, common.NewAppError("NOT_FOUND", "cart not found", http.StatusNotFound, err)
		}
		return store.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	if cart.ExpiresAt.Before(s.now()) {
		return store.Cart{}, common.NewAppError("NOT_FOUND", "cart expired", http.StatusNotFound, nil)
	}
	return cart, nil
}
