// Package money provides currency-safe parsing and formatting for rand amounts.
// Payslip figures are carried as shopspring decimals with 2-decimal currency
// precision; go-money handles display formatting.
package money

import (
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ZAR is the ISO-4217 code for the South African rand.
const ZAR = "ZAR"

// ParseAmount parses a currency token like "R 12,345.67" or "12,345.67" to a
// decimal amount. Currency symbols, whitespace and thousands separators are
// stripped. A token that does not clean up to a valid number yields zero;
// callers never see an error here.
func ParseAmount(raw string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case 'R', 'r', ',', ' ', '\t', ' ':
			return -1
		}
		return r
	}, raw)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round2 rounds to 2 decimal places (cent precision).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundPercent rounds a percentage to 1 decimal place.
func RoundPercent(d decimal.Decimal) decimal.Decimal {
	return d.Round(1)
}

// Display formats an amount for human-readable delivery, e.g. "R12,345.67".
func Display(d decimal.Decimal) string {
	cents := d.Mul(decimal.New(1, 2)).Round(0).IntPart()
	return gomoney.New(cents, ZAR).Display()
}
