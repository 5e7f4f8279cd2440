package validation

import (
	"fmt"

	"github.com/iwvelando/cashflow-evaluator/pkg/constants"
	"github.com/iwvelando/cashflow-evaluator/pkg/format"
)

// DiscountRateWarning returns a warning when rate falls outside the range the
// interactive rate control offers. Rates outside it are still evaluated.
func DiscountRateWarning(subject string, rate float64) string {
	if rate >= constants.UIMinDiscountRate && rate <= constants.UIMaxDiscountRate {
		return ""
	}
	return fmt.Sprintf("%s discount rate %s is outside the typical range %s to %s",
		subject, format.Percent(rate),
		format.Percent(constants.UIMinDiscountRate), format.Percent(constants.UIMaxDiscountRate))
}
