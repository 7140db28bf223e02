package wa_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atacadocell/backend-atacado/internal/pricing"
	"github.com/atacadocell/backend-atacado/internal/wa"
)

func orderItems() []wa.OrderItem {
	return []wa.OrderItem{
		{
			Product: pricing.Product{ID: 1, Name: "Capinha Transparente", Price: 1000, SpecialPrice: 800, SpecialMinQty: 30},
			Qty:     30,
		},
		{
			Product: pricing.Product{ID: 2, Name: "Película 3D", Price: 500, SpecialPrice: 400, SpecialMinQty: 50},
			Qty:     15,
		},
	}
}

func TestBuildOrderMessageLines(t *testing.T) {
	msg := wa.BuildOrderMessage(orderItems(), 31500)

	require.Contains(t, msg, "Capinha Transparente - 30 unid - R$ 240,00 (economia R$ 60,00)")
	// Tier not reached: no savings annotation on the line.
	require.Contains(t, msg, "Película 3D - 15 unid - R$ 75,00\n")
	require.NotContains(t, msg, "Película 3D - 15 unid - R$ 75,00 (")
	require.Contains(t, msg, "*Resumo:* 45 peças - Total R$ 315,00")
	require.True(t, strings.HasSuffix(msg, "_Pedido gerado pelo site_"))
}

func TestBuildOrderMessageTotalComesFromCaller(t *testing.T) {
	// The summary trusts the caller-provided total even when inconsistent.
	msg := wa.BuildOrderMessage(orderItems(), 99)
	require.Contains(t, msg, "Total R$ 0,99")
}

func TestBuildOrderMessageDeterministic(t *testing.T) {
	a := wa.BuildOrderMessage(orderItems(), 31500)
	b := wa.BuildOrderMessage(orderItems(), 31500)
	require.Equal(t, a, b)
}

func TestBuildOrderMessageEmptyOrder(t *testing.T) {
	msg := wa.BuildOrderMessage(nil, 0)
	require.Contains(t, msg, "*Resumo:* 0 peças - Total R$ 0,00")
}
