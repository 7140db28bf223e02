package common

import (
	"net/http"
	"strconv"
)

// maxPerPage keeps a single list request from dragging the whole catalog.
const maxPerPage = 100

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination extracts page and limit parameters from query values,
// clamping the page size to maxPerPage.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return
}

// ListEnvelope wraps list items with their pagination block.
func ListEnvelope(items any, page, perPage int, total int64) map[string]any {
	return map[string]any{
		"data":       items,
		"pagination": Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	}
}
