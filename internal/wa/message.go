package wa

import (
	"fmt"
	"strings"

	"github.com/atacadocell/backend-atacado/internal/pricing"
)

// OrderItem is a finalized order line handed to the formatter. Prices are
// re-resolved from the product attributes through the shared tier formula, so
// raw order payloads without derived fields work as-is.
type OrderItem struct {
	Product pricing.Product
	Qty     int
}

// BuildOrderMessage renders the fixed-template order summary sent through the
// WhatsApp channel. The function is a pure string builder: it performs no
// validation and, given identical input, returns byte-identical output. The
// total is taken from the caller and is not cross-checked against the items.
func BuildOrderMessage(items []OrderItem, total pricing.Money) string {
	var b strings.Builder
	b.WriteString("*🛒 NOVO PEDIDO - ATACADO CELL*\n\n")
	b.WriteString("*Itens:*\n")

	units := 0
	for _, it := range items {
		q := pricing.Resolve(it.Product, it.Qty)
		fmt.Fprintf(&b, "%s - %d unid - R$ %s", it.Product.Name, it.Qty, pricing.FormatBRL(q.TotalPrice))
		if q.IsSpecial {
			fmt.Fprintf(&b, " (economia R$ %s)", pricing.FormatBRL(q.Savings))
		}
		b.WriteByte('\n')
		units += it.Qty
	}

	fmt.Fprintf(&b, "\n*Resumo:* %d peças - Total R$ %s\n", units, pricing.FormatBRL(total))
	b.WriteString("\n_Pedido gerado pelo site_")
	return b.String()
}
