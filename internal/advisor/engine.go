package advisor

import (
	"sort"

	"github.com/atacadocell/backend-atacado/internal/pricing"
)

// Tuning knobs for the nudge heuristic. A line only earns a suggestion when
// it already sits at 70% of the tier threshold, and never when the missing
// quantity would be an implausible top-up.
const (
	proximityPctNum   = 7
	proximityPctDen   = 10
	closePctNum       = 3
	closePctDen       = 10
	maxUnitsToSpecial = 100
	topLimit          = 3
)

// Line is a cart entry evaluated for tier-unlock opportunities.
type Line struct {
	Product pricing.Product
	Qty     int
}

// Opportunity describes a near-miss tier unlock for one cart line.
type Opportunity struct {
	ProductID        int64         `json:"productId"`
	ProductName      string        `json:"productName"`
	CurrentQty       int           `json:"currentQty"`
	QtyNeeded        int           `json:"qtyNeeded"`
	PotentialSaving  pricing.Money `json:"potentialSaving"`
	SavingsPercent   int           `json:"savingsPercentage"`
	IsCloseToSpecial bool          `json:"isCloseToSpecialPrice"`
}

// Result carries the full ranked opportunity list and the display subset.
// Top is capped for UX; aggregates over Top understate the real impact, so
// callers wanting a true total must aggregate over All.
type Result struct {
	All []Opportunity `json:"allOpportunities"`
	Top []Opportunity `json:"topOpportunities"`
}

// Impact sums a set of opportunities.
type Impact struct {
	TotalPotentialSaving pricing.Money `json:"totalPotentialSaving"`
	TotalItemsToAdd      int           `json:"totalItemsToAdd"`
	AverageSavingsPct    int           `json:"averageSavingsPercentage"`
}

// HasOpportunity reports whether the line qualifies for a suggestion.
func HasOpportunity(l Line) bool {
	if l.Product.SpecialPrice <= 0 || l.Product.SpecialMinQty <= 0 {
		return false
	}
	q := pricing.Resolve(l.Product, l.Qty)
	if q.IsSpecial {
		return false
	}
	if l.Qty*proximityPctDen < l.Product.SpecialMinQty*proximityPctNum {
		return false
	}
	return q.UnitsToSpecial <= maxUnitsToSpecial
}

// Compute ranks tier-unlock opportunities across the cart. Ranking is a
// stable total order: lines already close to the threshold first, then by
// descending potential saving, ties broken by the smallest top-up.
func Compute(lines []Line) Result {
	all := make([]Opportunity, 0, len(lines))
	for _, l := range lines {
		if !HasOpportunity(l) {
			continue
		}
		p := l.Product
		needed := p.SpecialMinQty - l.Qty
		all = append(all, Opportunity{
			ProductID:   p.ID,
			ProductName: p.Name,
			CurrentQty:  l.Qty,
			QtyNeeded:   needed,
			// Saving over the full future tier quantity, not just the delta:
			// converting rewards the entire line.
			PotentialSaving:  (p.Price - p.SpecialPrice) * pricing.Money(p.SpecialMinQty),
			SavingsPercent:   pricing.DiscountPercent(p),
			IsCloseToSpecial: needed*closePctDen <= p.SpecialMinQty*closePctNum,
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.IsCloseToSpecial != b.IsCloseToSpecial {
			return a.IsCloseToSpecial
		}
		if a.PotentialSaving != b.PotentialSaving {
			return a.PotentialSaving > b.PotentialSaving
		}
		return a.QtyNeeded < b.QtyNeeded
	})

	top := all
	if len(top) > topLimit {
		top = top[:topLimit]
	}
	return Result{All: all, Top: top}
}

// Aggregate sums whatever list it is given; pass Result.All for the true
// cart-wide impact.
func Aggregate(opportunities []Opportunity) Impact {
	var impact Impact
	if len(opportunities) == 0 {
		return impact
	}
	var pctSum int
	for _, o := range opportunities {
		impact.TotalPotentialSaving += o.PotentialSaving
		impact.TotalItemsToAdd += o.QtyNeeded
		pctSum += o.SavingsPercent
	}
	impact.AverageSavingsPct = pctSum / len(opportunities)
	return impact
}
