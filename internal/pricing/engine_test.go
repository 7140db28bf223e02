package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atacadocell/backend-atacado/internal/pricing"
)

func capinha() pricing.Product {
	return pricing.Product{
		ID:            1,
		Name:          "Capinha Transparente",
		Price:         1000,
		SpecialPrice:  800,
		SpecialMinQty: 30,
	}
}

func TestResolveBelowThreshold(t *testing.T) {
	q := pricing.Resolve(capinha(), 29)
	require.False(t, q.IsSpecial)
	require.Equal(t, pricing.Money(1000), q.AppliedPrice)
	require.Equal(t, pricing.Money(29000), q.TotalPrice)
	require.Equal(t, pricing.Money(0), q.Savings)
	require.Equal(t, 1, q.UnitsToSpecial)
	require.Equal(t, 0, q.SavingsPercent)
}

func TestResolveAtThreshold(t *testing.T) {
	q := pricing.Resolve(capinha(), 30)
	require.True(t, q.IsSpecial)
	require.Equal(t, pricing.Money(800), q.AppliedPrice)
	require.Equal(t, pricing.Money(24000), q.TotalPrice)
	require.Equal(t, pricing.Money(6000), q.Savings)
	require.Equal(t, 0, q.UnitsToSpecial)
	require.Equal(t, 20, q.SavingsPercent)
}

func TestResolveWithoutSpecialTier(t *testing.T) {
	p := pricing.Product{ID: 2, Name: "Cabo USB-C", Price: 1500}
	q := pricing.Resolve(p, 50)
	require.False(t, q.IsSpecial)
	require.Equal(t, pricing.Money(1500), q.AppliedPrice)
	require.Equal(t, pricing.Money(75000), q.TotalPrice)
	require.Equal(t, pricing.Money(0), q.Savings)
	require.Equal(t, 0, q.UnitsToSpecial)
}

func TestSavingsGrowWithQuantity(t *testing.T) {
	p := capinha()
	prev := pricing.Resolve(p, p.SpecialMinQty).Savings
	for qty := p.SpecialMinQty + 1; qty <= p.SpecialMinQty+20; qty++ {
		cur := pricing.Resolve(p, qty).Savings
		require.Greater(t, cur, prev, "qty %d", qty)
		prev = cur
	}
}

func TestDiscountPercentRounds(t *testing.T) {
	p := pricing.Product{Price: 300, SpecialPrice: 200, SpecialMinQty: 10}
	// 100/300 = 33.33...% rounds down to 33.
	require.Equal(t, 33, pricing.DiscountPercent(p))

	p = pricing.Product{Price: 0, SpecialPrice: 0, SpecialMinQty: 10}
	require.Equal(t, 0, pricing.DiscountPercent(p))
}

func TestFormatBRL(t *testing.T) {
	require.Equal(t, "0,00", pricing.FormatBRL(0))
	require.Equal(t, "8,00", pricing.FormatBRL(800))
	require.Equal(t, "60,00", pricing.FormatBRL(6000))
	require.Equal(t, "1.234,56", pricing.FormatBRL(123456))
	require.Equal(t, "12.345.678,90", pricing.FormatBRL(1234567890))
	require.Equal(t, "-8,50", pricing.FormatBRL(-850))
}
