// Package cashflow evaluates a project's periodic cash flows: net present
// value, internal rate of return, simple and discounted payback, and the
// cumulative series used for charting.
//
// Every function is pure. Inputs are never mutated and no state is shared
// between calls, so an Evaluator may be used from multiple goroutines.
package cashflow

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/cashflow-evaluator/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrInvalidInput is returned for an empty series, a non-finite cash flow, or
// a discount rate that is not strictly greater than -1.
var ErrInvalidInput = errors.New("invalid input")

// Series is an ordered sequence of signed amounts, one per period. Index 0 is
// the undiscounted initial period.
type Series []float64

// Clone returns a copy of the series.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Result holds everything derived from one series at one discount rate.
// Optional values are nil when undefined.
type Result struct {
	NPV                     float64   `json:"npv"`
	IRR                     *float64  `json:"irr,omitempty"`
	PaybackPeriod           *int      `json:"paybackPeriod,omitempty"`
	DiscountedPaybackPeriod *int      `json:"discountedPaybackPeriod,omitempty"`
	CumulativeSeries        []float64 `json:"cumulativeSeries"`
	DiscountRate            float64   `json:"discountRate"`
	IRRIterations           int       `json:"irrIterations"`
}

// Evaluator computes results using a fixed solver configuration.
type Evaluator struct {
	logger *zap.Logger
	solver Solver
}

var defaultEvaluator = &Evaluator{logger: zap.NewNop(), solver: DefaultSolver()}

// NewEvaluator creates an evaluator with the given solver settings.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewEvaluator(logger *zap.Logger, solver Solver) (*Evaluator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := solver.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{logger: logger, solver: solver}, nil
}

// Solver returns the solver settings in use.
func (e *Evaluator) Solver() Solver {
	return e.solver
}

// NPV computes the net present value with the default evaluator.
func NPV(flows Series, rate float64) (float64, error) {
	return defaultEvaluator.NPV(flows, rate)
}

// IRR computes the internal rate of return with the default evaluator.
func IRR(flows Series) (float64, bool, error) {
	return defaultEvaluator.IRR(flows)
}

// PaybackPeriod returns the first period whose running sum is non-negative.
// The boolean is false when payback is not reached within the series.
func PaybackPeriod(flows Series) (int, bool, error) {
	if err := validateSeries(flows); err != nil {
		return 0, false, err
	}
	period, ok := firstNonNegative(cumulativeSum(flows))
	return period, ok, nil
}

// Evaluate computes the full result with the default evaluator.
func Evaluate(flows Series, rate float64) (Result, error) {
	return defaultEvaluator.Evaluate(flows, rate)
}

// NPV computes sum(flows[i] / (1+rate)^i).
func (e *Evaluator) NPV(flows Series, rate float64) (float64, error) {
	if err := validateSeries(flows); err != nil {
		return 0, err
	}
	if err := validateRate(rate); err != nil {
		return 0, err
	}
	return presentValue(flows, rate), nil
}

// IRR returns the lowest rate in the solver domain at which NPV is zero. The
// boolean is false when the series has no sign change or no root converges.
func (e *Evaluator) IRR(flows Series) (float64, bool, error) {
	if err := validateSeries(flows); err != nil {
		return 0, false, err
	}
	rate, _, ok := e.solveIRR(flows)
	return rate, ok, nil
}

// Evaluate computes NPV, IRR, payback and the cumulative series for flows at
// the given discount rate.
func (e *Evaluator) Evaluate(flows Series, rate float64) (Result, error) {
	if err := validateSeries(flows); err != nil {
		return Result{}, err
	}
	if err := validateRate(rate); err != nil {
		return Result{}, err
	}

	cumulative := cumulativeSum(flows)
	result := Result{
		NPV:              presentValue(flows, rate),
		CumulativeSeries: cumulative,
		DiscountRate:     rate,
	}

	if period, ok := firstNonNegative(cumulative); ok {
		result.PaybackPeriod = &period
	}
	if period, ok := firstRecovered(discountedCumulativeSum(flows, rate)); ok {
		result.DiscountedPaybackPeriod = &period
	}

	irr, iterations, ok := e.solveIRR(flows)
	result.IRRIterations = iterations
	if ok {
		result.IRR = &irr
	}

	e.logger.Debug("evaluated cash flow series",
		zap.String("op", "cashflow.Evaluate"),
		zap.Int("periods", len(flows)),
		zap.Float64("rate", rate),
		zap.Float64("npv", result.NPV),
		zap.Bool("irrDefined", ok),
		zap.Bool("paybackReached", result.PaybackPeriod != nil),
	)

	return result, nil
}

// HasSignChange reports whether flows contain at least one strictly positive
// and one strictly negative amount.
func HasSignChange(flows Series) bool {
	positive, negative := false, false
	for _, cf := range flows {
		switch mathutil.Sign(cf) {
		case 1:
			positive = true
		case -1:
			negative = true
		}
		if positive && negative {
			return true
		}
	}
	return false
}

func validateSeries(flows Series) error {
	if len(flows) == 0 {
		return fmt.Errorf("%w: cash flow series is empty", ErrInvalidInput)
	}
	for i, cf := range flows {
		if !mathutil.IsFinite(cf) {
			return fmt.Errorf("%w: cash flow at period %d is not a finite number", ErrInvalidInput, i)
		}
	}
	return nil
}

func validateRate(rate float64) error {
	if !mathutil.IsFinite(rate) {
		return fmt.Errorf("%w: discount rate must be a finite number", ErrInvalidInput)
	}
	if rate <= -1 {
		return fmt.Errorf("%w: discount rate %g must be greater than -1", ErrInvalidInput, rate)
	}
	return nil
}

func presentValue(flows []float64, rate float64) float64 {
	base := 1 + rate
	total := 0.0
	for i, cf := range flows {
		total += cf / math.Pow(base, float64(i))
	}
	return total
}

func cumulativeSum(flows []float64) []float64 {
	out := make([]float64, len(flows))
	running := 0.0
	for i, cf := range flows {
		running += cf
		out[i] = running
	}
	return out
}

func discountedCumulativeSum(flows []float64, rate float64) []float64 {
	out := make([]float64, len(flows))
	base := 1 + rate
	running := 0.0
	for i, cf := range flows {
		running += cf / math.Pow(base, float64(i))
		out[i] = running
	}
	return out
}

func firstNonNegative(values []float64) (int, bool) {
	for i, v := range values {
		if v >= 0 {
			return i, true
		}
	}
	return 0, false
}

// firstRecovered is firstNonNegative for discounted amounts, where a balance
// within a cent of zero counts as recovered.
func firstRecovered(values []float64) (int, bool) {
	for i, v := range values {
		if v >= 0 || mathutil.IsZero(v) {
			return i, true
		}
	}
	return 0, false
}
