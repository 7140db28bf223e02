package pricing

import "math"

// Money represents a monetary value stored in minor units (centavos).
type Money = int64

// Product carries the price attributes needed to resolve a line.
type Product struct {
	ID            int64
	Name          string
	Price         Money
	SpecialPrice  Money
	SpecialMinQty int
}

// Quote is the resolved price for a (product, quantity) pair.
type Quote struct {
	AppliedPrice   Money
	TotalPrice     Money
	Savings        Money
	IsSpecial      bool
	UnitsToSpecial int
	SavingsPercent int
}

// Resolve applies the two-rate tier scheme: the special unit price kicks in
// once the line quantity reaches the product threshold, inclusive, and only
// then — there is no partial or prorated discount below it. Quantity is not
// validated here; callers enforce quantity >= 1.
func Resolve(p Product, qty int) Quote {
	hasSpecial := p.SpecialPrice > 0 && p.SpecialMinQty > 0
	special := hasSpecial && qty >= p.SpecialMinQty
	applied := p.Price
	if special {
		applied = p.SpecialPrice
	}
	q := Quote{
		AppliedPrice: applied,
		TotalPrice:   applied * Money(qty),
		IsSpecial:    special,
	}
	if special {
		q.Savings = (p.Price - p.SpecialPrice) * Money(qty)
		q.SavingsPercent = discountPercent(p)
	}
	if hasSpecial {
		if units := p.SpecialMinQty - qty; units > 0 {
			q.UnitsToSpecial = units
		}
	}
	return q
}

// DiscountPercent returns the rounded percentage the special price shaves off
// the normal price, independent of quantity.
func DiscountPercent(p Product) int {
	return discountPercent(p)
}

func discountPercent(p Product) int {
	if p.Price <= 0 {
		return 0
	}
	return int(math.Round(float64(p.Price-p.SpecialPrice) / float64(p.Price) * 100))
}
