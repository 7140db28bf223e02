package pricing

import (
	"fmt"
	"strings"
)

// FormatBRL renders a minor-unit value as a Brazilian currency amount, comma
// decimal separator and dot thousands grouping, e.g. 123456 -> "1.234,56".
// The "R$ " prefix is left to the caller.
func FormatBRL(v Money) string {
	negative := v < 0
	if negative {
		v = -v
	}
	whole := v / 100
	cents := v % 100
	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	fmt.Fprintf(&b, ",%02d", cents)
	return b.String()
}
