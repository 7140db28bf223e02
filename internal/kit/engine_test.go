package kit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atacadocell/backend-atacado/internal/kit"
	"github.com/atacadocell/backend-atacado/internal/pricing"
)

func fiveProducts() []pricing.Product {
	products := make([]pricing.Product, 0, 5)
	for i := int64(1); i <= 5; i++ {
		products = append(products, pricing.Product{
			ID:            i,
			Name:          "Produto",
			Price:         1000,
			SpecialPrice:  800,
			SpecialMinQty: 30,
		})
	}
	return products
}

func TestValidateAcceptsMinimalKit(t *testing.T) {
	items := []kit.Item{
		{ProductID: 1, Qty: 10},
		{ProductID: 2, Qty: 10},
		{ProductID: 3, Qty: 5},
		{ProductID: 4, Qty: 5},
		{ProductID: 5, Qty: 1},
	}
	s := kit.Validate(fiveProducts(), items)
	require.True(t, s.IsValid)
	require.Empty(t, s.Errors)
	require.Equal(t, 31, s.TotalQuantity)
}

func TestValidateAccumulatesErrors(t *testing.T) {
	// Both too few products and too few pieces: both errors must surface.
	items := []kit.Item{
		{ProductID: 1, Qty: 3},
		{ProductID: 2, Qty: 4},
	}
	s := kit.Validate(fiveProducts(), items)
	require.False(t, s.IsValid)
	require.Contains(t, s.Errors, "Kit deve ter pelo menos 5 produtos")
	require.Contains(t, s.Errors, "Kit deve ter pelo menos 30 peças no total")
}

func TestValidateRejectsDuplicates(t *testing.T) {
	items := []kit.Item{
		{ProductID: 1, Qty: 10},
		{ProductID: 1, Qty: 10},
		{ProductID: 2, Qty: 5},
		{ProductID: 3, Qty: 5},
		{ProductID: 4, Qty: 5},
	}
	s := kit.Validate(fiveProducts(), items)
	require.False(t, s.IsValid)
	require.Contains(t, s.Errors, "Kit não pode ter produtos duplicados")
}

func TestValidateUnknownProductBecomesZeroLine(t *testing.T) {
	items := []kit.Item{
		{ProductID: 1, Qty: 10},
		{ProductID: 2, Qty: 10},
		{ProductID: 3, Qty: 5},
		{ProductID: 4, Qty: 5},
		{ProductID: 99, Qty: 5},
	}
	s := kit.Validate(fiveProducts(), items)
	require.False(t, s.IsValid)
	require.Contains(t, s.Errors, "Produto 99 não encontrado")
	require.Len(t, s.Lines, 5)
	require.Equal(t, pricing.Money(0), s.Lines[4].UnitPrice)
	// The missing line still counts toward total quantity.
	require.Equal(t, 35, s.TotalQuantity)
}

func TestValidateRejectsNonPositiveQuantity(t *testing.T) {
	items := []kit.Item{
		{ProductID: 1, Qty: 10},
		{ProductID: 2, Qty: 10},
		{ProductID: 3, Qty: 10},
		{ProductID: 4, Qty: 10},
		{ProductID: 5, Qty: 0},
	}
	s := kit.Validate(fiveProducts(), items)
	require.False(t, s.IsValid)
	require.Contains(t, s.Errors, "Produto 5 deve ter quantidade de pelo menos 1")
}

func TestValidateTotalsAreAdditive(t *testing.T) {
	items := []kit.Item{
		{ProductID: 1, Qty: 30},
		{ProductID: 2, Qty: 10},
		{ProductID: 3, Qty: 5},
		{ProductID: 4, Qty: 5},
		{ProductID: 5, Qty: 1},
	}
	s := kit.Validate(fiveProducts(), items)
	var total, savings pricing.Money
	for _, line := range s.Lines {
		require.Equal(t, line.UnitPrice*pricing.Money(line.Qty), line.TotalPrice)
		total += line.TotalPrice
		savings += line.Savings
	}
	require.Equal(t, total, s.TotalPrice)
	require.Equal(t, savings, s.TotalSavings)
	// Line 1 crosses the tier: 30 * (1000-800) saved.
	require.Equal(t, pricing.Money(6000), s.TotalSavings)
}
