package utils

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParsePrice reads an item price sent as a JSON number or as a string that
// may start with a currency symbol, e.g. "$5.00" or "€3".
func ParsePrice(v interface{}) (decimal.Decimal, error) {
	var price decimal.Decimal
	switch n := NormalizeNumber(v).(type) {
	case int64:
		price = decimal.NewFromInt(n)
	case float64:
		price = decimal.NewFromFloat(n)
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.Is(unicode.Sc, r) })
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid price %q", n)
		}
		price = d
	default:
		return decimal.Zero, fmt.Errorf("invalid price %v", v)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s", price)
	}
	return price, nil
}

// ParseQuantity reads a non-negative whole quantity from a JSON number or a
// numeric string.
func ParseQuantity(v interface{}) (int64, error) {
	var qty int64
	switch n := NormalizeNumber(v).(type) {
	case int64:
		qty = n
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid quantity %q", n)
		}
		qty = parsed
	default:
		return 0, fmt.Errorf("invalid quantity %v", v)
	}
	if qty < 0 {
		return 0, fmt.Errorf("negative quantity %d", qty)
	}
	return qty, nil
}

// FormatPrice renders an amount with exactly two decimals.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}
