package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/atacadocell/backend-atacado/internal/cart"
	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/pricing"
	"github.com/atacadocell/backend-atacado/internal/store"
)

func newUUID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

type stubCarts struct {
	carts map[pgtype.UUID]store.Cart
	items map[pgtype.UUID][]store.CartItem
}

func newStubCarts() *stubCarts {
	return &stubCarts{
		carts: map[pgtype.UUID]store.Cart{},
		items: map[pgtype.UUID][]store.CartItem{},
	}
}

func (s *stubCarts) EnsureByAnon(_ context.Context, anonID string, expiresAt time.Time) (store.Cart, error) {
	for _, c := range s.carts {
		if c.AnonID == anonID {
			c.ExpiresAt = expiresAt
			s.carts[c.ID] = c
			return c, nil
		}
	}
	c := store.Cart{ID: newUUID(), AnonID: anonID, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	s.carts[c.ID] = c
	return c, nil
}

func (s *stubCarts) Get(_ context.Context, id pgtype.UUID) (store.Cart, error) {
	c, ok := s.carts[id]
	if !ok {
		return store.Cart{}, store.ErrNotFound
	}
	return c, nil
}

func (s *stubCarts) Touch(_ context.Context, id pgtype.UUID, expiresAt time.Time) error {
	c, ok := s.carts[id]
	if !ok {
		return store.ErrNotFound
	}
	c.ExpiresAt = expiresAt
	s.carts[id] = c
	return nil
}

func (s *stubCarts) ListItems(_ context.Context, cartID pgtype.UUID) ([]store.CartItem, error) {
	return s.items[cartID], nil
}

func (s *stubCarts) UpsertItem(_ context.Context, cartID pgtype.UUID, productID int64, qty int) (store.CartItem, error) {
	for i, it := range s.items[cartID] {
		if it.ProductID == productID {
			it.Qty += qty
			s.items[cartID][i] = it
			return it, nil
		}
	}
	it := store.CartItem{ID: newUUID(), CartID: cartID, ProductID: productID, Qty: qty}
	s.items[cartID] = append(s.items[cartID], it)
	return it, nil
}

func (s *stubCarts) SetItemQty(_ context.Context, cartID, itemID pgtype.UUID, qty int) (store.CartItem, error) {
	for i, it := range s.items[cartID] {
		if it.ID == itemID {
			it.Qty = qty
			s.items[cartID][i] = it
			return it, nil
		}
	}
	return store.CartItem{}, store.ErrNotFound
}

func (s *stubCarts) DeleteItem(_ context.Context, cartID, itemID pgtype.UUID) error {
	for i, it := range s.items[cartID] {
		if it.ID == itemID {
			s.items[cartID] = append(s.items[cartID][:i], s.items[cartID][i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *stubCarts) Clear(_ context.Context, cartID pgtype.UUID) error {
	delete(s.items, cartID)
	return nil
}

type stubProducts struct {
	products []store.Product
}

func (s stubProducts) GetByIDs(_ context.Context, ids []int64) ([]store.Product, error) {
	var out []store.Product
	for _, id := range ids {
		for _, p := range s.products {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func testProducts() stubProducts {
	return stubProducts{products: []store.Product{
		{ID: 1, Name: "Película 3D", Slug: "pelicula-3d", Price: 1000, SpecialPrice: 800, SpecialMinQty: 30, Active: true},
		{ID: 2, Name: "Cabo USB-C", Slug: "cabo-usb-c", Price: 1500, Active: true},
		{ID: 3, Name: "Fone Antigo", Slug: "fone-antigo", Price: 900, Active: false},
	}}
}

func newService(carts *stubCarts) *cart.Service {
	return &cart.Service{Carts: carts, Products: testProducts(), TTL: time.Hour}
}

func TestEnsureCreatesAndReuses(t *testing.T) {
	carts := newStubCarts()
	svc := newService(carts)

	first, err := svc.Ensure(context.Background(), "anon-1")
	require.NoError(t, err)
	require.True(t, first.ID.Valid)

	second, err := svc.Ensure(context.Background(), "anon-1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	_, err = svc.Ensure(context.Background(), "")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)
}

func TestAddItemValidatesQuantityAndProduct(t *testing.T) {
	carts := newStubCarts()
	svc := newService(carts)
	c, err := svc.Ensure(context.Background(), "anon-1")
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), c.ID, 1, 0)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)

	_, err = svc.AddItem(context.Background(), c.ID, 999, 5)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)

	_, err = svc.AddItem(context.Background(), c.ID, 3, 5)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)

	item, err := svc.AddItem(context.Background(), c.ID, 1, 5)
	require.NoError(t, err)
	require.Equal(t, 5, item.Qty)

	item, err = svc.AddItem(context.Background(), c.ID, 1, 3)
	require.NoError(t, err)
	require.Equal(t, 8, item.Qty)
}

func TestQuotePricesTiersAndAdvises(t *testing.T) {
	carts := newStubCarts()
	svc := newService(carts)
	c, err := svc.Ensure(context.Background(), "anon-1")
	require.NoError(t, err)

	// 25 of a tiered product: below the threshold of 30, close enough for a nudge.
	_, err = svc.AddItem(context.Background(), c.ID, 1, 25)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), c.ID, 2, 2)
	require.NoError(t, err)

	quote, err := svc.Quote(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, quote.Lines, 2)
	require.Equal(t, 27, quote.TotalQuantity)
	require.Equal(t, pricing.Money(25*1000+2*1500), quote.TotalPrice)
	require.Equal(t, pricing.Money(0), quote.TotalSavings)

	require.Len(t, quote.Advisor.All, 1)
	opp := quote.Advisor.All[0]
	require.Equal(t, int64(1), opp.ProductID)
	require.Equal(t, 5, opp.QtyNeeded)
	require.Equal(t, pricing.Money(200*30), opp.PotentialSaving)
	require.Equal(t, pricing.Money(200*30), quote.Impact.TotalPotentialSaving)

	// Crossing the threshold flips the line to the special price.
	_, err = svc.AddItem(context.Background(), c.ID, 1, 5)
	require.NoError(t, err)
	quote, err = svc.Quote(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(30*800+2*1500), quote.TotalPrice)
	require.Equal(t, pricing.Money(30*200), quote.TotalSavings)
	require.Empty(t, quote.Advisor.All)
}

func TestQuoteRejectsExpiredCart(t *testing.T) {
	carts := newStubCarts()
	svc := newService(carts)
	c, err := svc.Ensure(context.Background(), "anon-1")
	require.NoError(t, err)

	stale := carts.carts[c.ID]
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	carts.carts[c.ID] = stale

	_, err = svc.Quote(context.Background(), c.ID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	carts := newStubCarts()
	svc := newService(carts)
	c, err := svc.Ensure(context.Background(), "anon-1")
	require.NoError(t, err)

	item, err := svc.AddItem(context.Background(), c.ID, 1, 5)
	require.NoError(t, err)

	updated, err := svc.UpdateQty(context.Background(), c.ID, item.ID, 12)
	require.NoError(t, err)
	require.Equal(t, 12, updated.Qty)

	_, err = svc.UpdateQty(context.Background(), c.ID, item.ID, 0)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)

	require.NoError(t, svc.RemoveItem(context.Background(), c.ID, item.ID))
	err = svc.RemoveItem(context.Background(), c.ID, item.ID)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)

	quote, err := svc.Quote(context.Background(), c.ID)
	require.NoError(t, err)
	require.Empty(t, quote.Lines)
}
