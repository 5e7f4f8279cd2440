// Package output provides utilities for formatting and displaying evaluation results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/cashflow-evaluator/internal/evaluation"
	"github.com/iwvelando/cashflow-evaluator/pkg/constants"
	"github.com/iwvelando/cashflow-evaluator/pkg/format"
	"github.com/iwvelando/cashflow-evaluator/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Display holds the human-readable rendering of a result.
type Display struct {
	NPV               string `json:"npv"`
	IRR               string `json:"irr"`
	Payback           string `json:"payback"`
	DiscountedPayback string `json:"discountedPayback"`
	DiscountRate      string `json:"discountRate"`
}

// Project is the serialized form of one evaluation.
type Project struct {
	evaluation.Evaluation
	Display Display `json:"display"`
}

// NewDisplay renders the headline metrics of an evaluation.
func NewDisplay(e evaluation.Evaluation) Display {
	return Display{
		NPV:               format.Currency(e.Result.NPV),
		IRR:               format.OptionalPercent(e.Result.IRR),
		Payback:           format.OptionalPeriod(e.Result.PaybackPeriod),
		DiscountedPayback: format.OptionalPeriod(e.Result.DiscountedPaybackPeriod),
		DiscountRate:      format.Percent(e.Result.DiscountRate),
	}
}

// Projects attaches display strings to each evaluation.
func Projects(results []evaluation.Evaluation) []Project {
	projects := make([]Project, 0, len(results))
	for _, result := range results {
		projects = append(projects, Project{Evaluation: result, Display: NewDisplay(result)})
	}
	return projects
}

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, results []evaluation.Evaluation) {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		display := NewDisplay(result)
		_, _ = fmt.Fprintf(w, "--- Results for project %s ---\n", result.Name)
		_, _ = fmt.Fprintf(w, "Discount rate:             %s\n", display.DiscountRate)
		_, _ = fmt.Fprintf(w, "Net present value:         %s\n", display.NPV)
		_, _ = fmt.Fprintf(w, "Internal rate of return:   %s\n", display.IRR)
		_, _ = fmt.Fprintf(w, "Payback period:            %s\n", display.Payback)
		_, _ = fmt.Fprintf(w, "Discounted payback period: %s\n", display.DiscountedPayback)
		_, _ = fmt.Fprintf(w, "Net cash flow:             %s\n", format.Currency(mathutil.Sum(result.CashFlows)))
		_, _ = fmt.Fprintf(w, "\n")
		_, _ = fmt.Fprintf(w, "Period | Cash Flow (USD)  | Cumulative (USD)\n")
		_, _ = fmt.Fprintf(w, "______ | ________________ | ________________\n")
		for n, amount := range result.CashFlows {
			cumulative := 0.0
			if n < len(result.Result.CumulativeSeries) {
				cumulative = result.Result.CumulativeSeries[n]
			}
			_, _ = p.Fprintf(w, "%-6s | %16.2f | %16.2f\n", periodLabel(result, n), amount, cumulative)
		}

		if len(result.Profile) > 0 {
			_, _ = fmt.Fprintf(w, "\n")
			_, _ = fmt.Fprintf(w, "Rate   | NPV (USD)\n")
			_, _ = fmt.Fprintf(w, "______ | ________________\n")
			for _, point := range result.Profile {
				_, _ = p.Fprintf(w, "%-6s | %16.2f\n", format.Percent(point.Rate), point.NPV)
			}
		}

		if i < len(results)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
}

// CsvFormat writes one row per project and period in comma-separated value format.
func CsvFormat(w io.Writer, results []evaluation.Evaluation) {
	_, _ = fmt.Fprintf(w, `"project","period","cash flow","cumulative"`)
	_, _ = fmt.Fprintf(w, `,"npv","irr","payback period","discounted payback period","discount rate"`)
	_, _ = fmt.Fprintf(w, "\n")
	for _, result := range results {
		display := NewDisplay(result)
		for n, amount := range result.CashFlows {
			cumulative := 0.0
			if n < len(result.Result.CumulativeSeries) {
				cumulative = result.Result.CumulativeSeries[n]
			}
			_, _ = fmt.Fprintf(w, `"%s","%s","%.2f","%.2f"`, escape(result.Name), periodLabel(result, n), amount, cumulative)
			_, _ = fmt.Fprintf(w, `,"%.2f","%s","%s","%s","%s"`,
				result.Result.NPV, display.IRR, display.Payback, display.DiscountedPayback, display.DiscountRate)
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
}

// CsvString returns the CSV rendering as a string.
func CsvString(results []evaluation.Evaluation) string {
	var builder strings.Builder
	CsvFormat(&builder, results)
	return builder.String()
}

// JSONFormat writes the evaluations with display strings as indented JSON.
func JSONFormat(w io.Writer, results []evaluation.Evaluation) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(struct {
		Projects []Project `json:"projects"`
	}{Projects: Projects(results)}); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// Write renders results in the named output format.
func Write(w io.Writer, outputFormat string, results []evaluation.Evaluation) error {
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		PrettyFormat(w, results)
	case constants.OutputFormatCSV:
		CsvFormat(w, results)
	case constants.OutputFormatJSON:
		return JSONFormat(w, results)
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
	return nil
}

func periodLabel(result evaluation.Evaluation, n int) string {
	if n < len(result.Periods) {
		return strconv.FormatFloat(result.Periods[n], 'f', -1, 64)
	}
	return strconv.Itoa(n)
}

func escape(value string) string {
	return strings.ReplaceAll(value, `"`, `""`)
}
