// Package format renders evaluation values for display.
package format

import (
	"strconv"
	"strings"

	"github.com/iwvelando/cashflow-evaluator/pkg/constants"
	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	rounded := decimal.NewFromFloat(amount).Round(2)
	formatted := groupThousands(rounded.Abs().StringFixed(2))
	if rounded.IsNegative() {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	rounded := decimal.NewFromFloat(amount).Round(2)
	formatted := groupThousands(rounded.Abs().StringFixed(2))
	if rounded.IsNegative() {
		return "-" + formatted
	}
	return formatted
}

// Percent renders a fraction as a percentage with two decimals (0.2186 -> "21.86%").
func Percent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Shift(2).StringFixed(2) + "%"
}

// OptionalPercent renders an optional rate, using "N/A" when it is undefined.
func OptionalPercent(fraction *float64) string {
	if fraction == nil {
		return constants.UndefinedIRR
	}
	return Percent(*fraction)
}

// OptionalPeriod renders an optional period index, using "Beyond range" when
// it is undefined.
func OptionalPeriod(period *int) string {
	if period == nil {
		return constants.UndefinedPayback
	}
	return strconv.Itoa(*period)
}

func groupThousands(fixed string) string {
	intPart, decPart, _ := strings.Cut(fixed, ".")
	if decPart == "" {
		decPart = "00"
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
