package money

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var reNumber = regexp.MustCompile(`\d[\d.,]*\d|\d`)

// ParseAmount extracts a non-negative decimal amount from a raw total string
// as the inferencer produced it, e.g. "£9.99", "12.50", "9,99 €" or "1,234.56".
// The last separator is treated as the decimal point, except a lone comma
// followed by exactly three digits, which reads as grouping ("1,234" -> 1234).
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	num := reNumber.FindString(s)
	if num == "" {
		return decimal.Zero, fmt.Errorf("no numeric amount in %q", raw)
	}
	if i := strings.Index(s, num); i > 0 && strings.Contains(s[:i], "-") {
		return decimal.Zero, fmt.Errorf("negative amount %q", raw)
	}

	d, err := decimal.NewFromString(normalizeSeparators(num))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %q", raw)
	}
	return d, nil
}

func normalizeSeparators(num string) string {
	lastSep := strings.LastIndexAny(num, ".,")
	if lastSep == -1 {
		return num
	}

	// "1,234" with no other separator is grouping, not a decimal point
	if num[lastSep] == ',' &&
		strings.Count(num, ",") == 1 && !strings.Contains(num, ".") &&
		len(num)-lastSep-1 == 3 {
		return strings.ReplaceAll(num, ",", "")
	}

	var b strings.Builder
	for i := 0; i < len(num); i++ {
		switch num[i] {
		case '.', ',':
			if i == lastSep {
				b.WriteByte('.')
			}
		default:
			b.WriteByte(num[i])
		}
	}
	return b.String()
}
