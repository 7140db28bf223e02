package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atacadocell/backend-atacado/internal/common"
	"github.com/atacadocell/backend-atacado/internal/obs"
	"github.com/atacadocell/backend-atacado/internal/pricing"
	"github.com/atacadocell/backend-atacado/internal/ratelimit"
	"github.com/atacadocell/backend-atacado/internal/store"
)

const (
	defaultLimit = 24
	maxLimit     = 100

	viewDedupTTL = 30 * time.Minute
)

type productProvider interface {
	List(ctx context.Context, f store.ProductFilter) ([]store.Product, error)
	Count(ctx context.Context, f store.ProductFilter) (int64, error)
	GetBySlug(ctx context.Context, slug string) (store.Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]store.Product, error)
}

type kitProvider interface {
	List(ctx context.Context, activeOnly bool) ([]store.Kit, error)
	GetBySlug(ctx context.Context, slug string) (store.Kit, error)
}

// Service assembles the lead-gated catalog payloads.
type Service struct {
	Products productProvider
	Kits     kitProvider
	Cache    *Cache
	Views    ratelimit.CounterStore
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query    string
	Category string
	Page     int
	Limit    int
}

// ParseListParams extracts catalog filters from query values.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Query:    strings.TrimSpace(values.Get("q")),
		Category: strings.TrimSpace(values.Get("category")),
		Page:     1,
		Limit:    defaultLimit,
	}
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return ListParams{}, common.NewAppError("BAD_REQUEST", "invalid page", http.StatusBadRequest, err)
		}
		params.Page = page
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return ListParams{}, common.NewAppError("BAD_REQUEST", "invalid limit", http.StatusBadRequest, err)
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		params.Limit = limit
	}
	return params, nil
}

// ProductView is a catalog entry. Wholesale prices appear only for requests
// carrying a valid catalog token; everyone else sees the product with prices
// locked.
type ProductView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	Description     string `json:"description,omitempty"`
	Category        string `json:"category"`
	ImageURL        string `json:"imageUrl,omitempty"`
	PriceLocked     bool   `json:"priceLocked"`
	Price           *int64 `json:"price,omitempty"`
	SpecialPrice    *int64 `json:"specialPrice,omitempty"`
	SpecialMinQty   *int   `json:"specialMinQty,omitempty"`
	DiscountPercent *int   `json:"discountPercent,omitempty"`
}

// ListResult carries one catalog page.
type ListResult struct {
	Items []ProductView
	Total int64
	Page  int
	Limit int
}

// KitItemView is one product inside a kit suggestion.
type KitItemView struct {
	ProductID int64        `json:"productId"`
	Qty       int          `json:"qty"`
	Product   *ProductView `json:"product,omitempty"`
}

// KitView is a curated bundle shown on the catalog.
type KitView struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	Items       []KitItemView `json:"items"`
}

func toProductView(p store.Product, unlocked bool) ProductView {
	view := ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		PriceLocked: !unlocked,
	}
	if unlocked {
		price := p.Price
		view.Price = &price
		if p.SpecialPrice > 0 && p.SpecialMinQty > 0 {
			special := p.SpecialPrice
			minQty := p.SpecialMinQty
			discount := pricing.DiscountPercent(p.Pricing())
			view.SpecialPrice = &special
			view.SpecialMinQty = &minQty
			view.DiscountPercent = &discount
		}
	}
	return view
}

// ListProducts returns one page of the catalog. The cache stores the raw rows
// so locked and unlocked requests share entries.
func (s *Service) ListProducts(ctx context.Context, params ListParams, unlocked bool) (ListResult, error) {
	filter := store.ProductFilter{
		Category: params.Category,
		Query:    params.Query,
		Limit:    params.Limit,
		Offset:   (params.Page - 1) * params.Limit,
	}

	var rows []store.Product
	var total int64
	cacheKey := listCacheKey(filter)
	type cachedPage struct {
		Rows  []store.Product `json:"rows"`
		Total int64           `json:"total"`
	}
	var cached cachedPage
	if ok, err := s.Cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
		rows, total = cached.Rows, cached.Total
	} else {
		rows, err = s.Products.List(ctx, filter)
		if err != nil {
			return ListResult{}, fmt.Errorf("list products: %w", err)
		}
		total, err = s.Products.Count(ctx, filter)
		if err != nil {
			return ListResult{}, fmt.Errorf("count products: %w", err)
		}
		_ = s.Cache.SetJSON(ctx, cacheKey, cachedPage{Rows: rows, Total: total})
	}

	items := make([]ProductView, 0, len(rows))
	for _, p := range rows {
		items = append(items, toProductView(p, unlocked))
	}
	return ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// GetProduct returns one product and counts the view. Repeated views from the
// same lead within the dedup window count once.
func (s *Service) GetProduct(ctx context.Context, slug string, unlocked bool, viewerID string) (ProductView, error) {
	p, err := s.Products.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ProductView{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return ProductView{}, fmt.Errorf("get product: %w", err)
	}
	s.countView(ctx, p.ID, viewerID)
	return toProductView(p, unlocked), nil
}

func (s *Service) countView(ctx context.Context, productID int64, viewerID string) {
	if s.Views == nil || viewerID == "" {
		return
	}
	key := fmt.Sprintf("view:%d:%s", productID, viewerID)
	n, err := s.Views.Incr(ctx, key, viewDedupTTL)
	if err != nil || n != 1 {
		return
	}
	if obs.ProductViewsTotal != nil {
		obs.ProductViewsTotal.Inc()
	}
}

// ListKits returns the active kit suggestions with their products.
func (s *Service) ListKits(ctx context.Context, unlocked bool) ([]KitView, error) {
	kits, err := s.Kits.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list kits: %w", err)
	}
	out := make([]KitView, 0, len(kits))
	for _, k := range kits {
		view, err := s.toKitView(ctx, k, unlocked)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// GetKit returns one kit suggestion by slug.
func (s *Service) GetKit(ctx context.Context, slug string, unlocked bool) (KitView, error) {
	k, err := s.Kits.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return KitView{}, common.NewAppError("NOT_FOUND", "kit not found", http.StatusNotFound, err)
		}
		return KitView{}, fmt.Errorf("get kit: %w", err)
	}
	return s.toKitView(ctx, k, unlocked)
}

func (s *Service) toKitView(ctx context.Context, k store.Kit, unlocked bool) (KitView, error) {
	view := KitView{
		ID:          k.ID,
		Name:        k.Name,
		Slug:        k.Slug,
		Description: k.Description,
		Items:       make([]KitItemView, 0, len(k.Items)),
	}
	ids := make([]int64, 0, len(k.Items))
	for _, it := range k.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Products.GetByIDs(ctx, ids)
	if err != nil {
		return KitView{}, fmt.Errorf("load kit products: %w", err)
	}
	byID := make(map[int64]store.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, it := range k.Items {
		item := KitItemView{ProductID: it.ProductID, Qty: it.Qty}
		if p, ok := byID[it.ProductID]; ok {
			pv := toProductView(p, unlocked)
			item.Product = &pv
		}
		view.Items = append(view.Items, item)
	}
	return view, nil
}

func listCacheKey(f store.ProductFilter) string {
	return fmt.Sprintf("catalog:list:%s:%s:%d:%d", f.Category, f.Query, f.Limit, f.Offset)
}
