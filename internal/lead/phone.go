package lead

import (
	"errors"
	"strings"
)

// NormalizePhone canonicalises Brazilian phone numbers to +55DDDNNNNNNNNN.
// Accepts local numbers with area code (10 or 11 digits) and numbers already
// carrying the country code, with or without punctuation.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// punctuation is ignored
		default:
			return "", errors.New("phone contains invalid characters")
		}
	}
	number := digits.String()
	if strings.HasPrefix(number, "55") && (len(number) == 12 || len(number) == 13) {
		return "+" + number, nil
	}
	if len(number) == 10 || len(number) == 11 {
		return "+55" + number, nil
	}
	return "", errors.New("phone must be a valid brazilian number with area code")
}
