package pricing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var leadingNumber = regexp.MustCompile(`^[0-9]*(?:\.[0-9]*)?`)

// ParseCurrency extracts a non-negative amount from free-form price text such
// as "$15.00" or "€ 1,234.50". Everything except digits and '.' is dropped,
// then the longest leading number is read. ok is false when no digit is found.
func ParseCurrency(text string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}

	whole, frac, _ := strings.Cut(leadingNumber.FindString(b.String()), ".")
	if whole == "" && frac == "" {
		return decimal.Zero, false
	}
	if whole == "" {
		whole = "0"
	}

	number := whole
	if frac != "" {
		number += "." + frac
	}

	value, err := decimal.NewFromString(number)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}
