package kit

import (
	"fmt"

	"github.com/atacadocell/backend-atacado/internal/pricing"
)

// Business minimums for a wholesale kit.
const (
	MinDistinctProducts = 5
	MinTotalQuantity    = 30
)

// Item pairs a product reference with the bundled quantity.
type Item struct {
	ProductID int64 `json:"productId"`
	Qty       int   `json:"qty"`
}

// Line is a priced kit entry.
type Line struct {
	ProductID  int64         `json:"productId"`
	Name       string        `json:"name"`
	Qty        int           `json:"qty"`
	UnitPrice  pricing.Money `json:"unitPrice"`
	TotalPrice pricing.Money `json:"totalPrice"`
	Savings    pricing.Money `json:"savings"`
	IsSpecial  bool          `json:"isSpecialPrice"`
}

// Summary aggregates priced lines and validation outcome for a kit.
type Summary struct {
	Lines         []Line        `json:"items"`
	TotalPrice    pricing.Money `json:"totalPrice"`
	TotalSavings  pricing.Money `json:"totalSavings"`
	TotalQuantity int           `json:"totalQuantity"`
	IsValid       bool          `json:"isValid"`
	Errors        []string      `json:"validationErrors"`
}

// Validate prices every kit line through the shared tier resolver and checks
// the kit construction rules. Violations accumulate — the function never
// aborts on the first error. A line referencing an unknown product degrades to
// a zero-priced entry and contributes an error, so callers must check IsValid
// before trusting TotalPrice.
func Validate(products []pricing.Product, items []Item) Summary {
	byID := make(map[int64]pricing.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	s := Summary{Lines: make([]Line, 0, len(items))}
	seen := make(map[int64]bool, len(items))
	duplicated := false
	for _, it := range items {
		if seen[it.ProductID] {
			duplicated = true
		}
		seen[it.ProductID] = true

		line := Line{ProductID: it.ProductID, Qty: it.Qty}
		p, ok := byID[it.ProductID]
		if !ok {
			s.Errors = append(s.Errors, fmt.Sprintf("Produto %d não encontrado", it.ProductID))
		} else {
			q := pricing.Resolve(p, it.Qty)
			line.Name = p.Name
			line.UnitPrice = q.AppliedPrice
			line.TotalPrice = q.TotalPrice
			line.Savings = q.Savings
			line.IsSpecial = q.IsSpecial
		}
		if it.Qty < 1 {
			s.Errors = append(s.Errors, fmt.Sprintf("Produto %d deve ter quantidade de pelo menos 1", it.ProductID))
		}
		s.Lines = append(s.Lines, line)
		s.TotalPrice += line.TotalPrice
		s.TotalSavings += line.Savings
		s.TotalQuantity += it.Qty
	}

	if len(items) < MinDistinctProducts {
		s.Errors = append(s.Errors, fmt.Sprintf("Kit deve ter pelo menos %d produtos", MinDistinctProducts))
	}
	if s.TotalQuantity < MinTotalQuantity {
		s.Errors = append(s.Errors, fmt.Sprintf("Kit deve ter pelo menos %d peças no total", MinTotalQuantity))
	}
	if duplicated {
		s.Errors = append(s.Errors, "Kit não pode ter produtos duplicados")
	}

	s.IsValid = len(s.Errors) == 0
	return s
}
