package cashflow

import (
	"fmt"

	"github.com/iwvelando/cashflow-evaluator/pkg/constants"
	"github.com/iwvelando/cashflow-evaluator/pkg/mathutil"
	"go.uber.org/zap"
)

// Solver bounds the internal rate of return search.
//
// The domain [LowerBound, UpperBound] is scanned in ascending order over
// ScanSteps intervals and the first sign change brackets the root, so for
// non-conventional series with several roots the lowest rate wins. Inside the
// bracket secant and bisection steps alternate until |NPV| <= Tolerance or the
// bracket can no longer be split.
type Solver struct {
	LowerBound    float64
	UpperBound    float64
	Tolerance     float64
	MaxIterations int
	ScanSteps     int
}

// DefaultSolver returns the standard search settings.
func DefaultSolver() Solver {
	return Solver{
		LowerBound:    constants.IRRLowerBound,
		UpperBound:    constants.IRRUpperBound,
		Tolerance:     constants.IRRTolerance,
		MaxIterations: constants.IRRMaxIterations,
		ScanSteps:     constants.IRRScanSteps,
	}
}

// Validate checks that the solver settings describe a usable search.
func (s Solver) Validate() error {
	if !mathutil.IsFinite(s.LowerBound) || !mathutil.IsFinite(s.UpperBound) {
		return fmt.Errorf("solver bounds must be finite")
	}
	if s.LowerBound <= -1 {
		return fmt.Errorf("solver lower bound %g must be greater than -1", s.LowerBound)
	}
	if s.UpperBound <= s.LowerBound {
		return fmt.Errorf("solver upper bound %g must exceed lower bound %g", s.UpperBound, s.LowerBound)
	}
	if !(s.Tolerance > 0) {
		return fmt.Errorf("solver tolerance must be positive, got %g", s.Tolerance)
	}
	if s.MaxIterations <= 0 {
		return fmt.Errorf("solver max iterations must be positive, got %d", s.MaxIterations)
	}
	if s.ScanSteps <= 0 {
		return fmt.Errorf("solver scan steps must be positive, got %d", s.ScanSteps)
	}
	return nil
}

func (s Solver) contains(rate float64) bool {
	return rate >= s.LowerBound && rate <= s.UpperBound
}

// solveIRR returns the root, the refinement iterations spent, and whether a
// root was found. flows must already be validated.
func (e *Evaluator) solveIRR(flows []float64) (float64, int, bool) {
	if !HasSignChange(flows) {
		e.logger.Debug("irr undefined: no sign change",
			zap.String("op", "cashflow.solveIRR"),
		)
		return 0, 0, false
	}

	lo, hi, flo, fhi, found := e.bracket(flows)
	if !found {
		e.logger.Debug("irr undefined: no root in search domain",
			zap.String("op", "cashflow.solveIRR"),
			zap.Float64("lowerBound", e.solver.LowerBound),
			zap.Float64("upperBound", e.solver.UpperBound),
		)
		return 0, 0, false
	}
	if lo == hi {
		return lo, 0, true
	}

	s := e.solver
	for iter := 1; iter <= s.MaxIterations; iter++ {
		mid := lo + (hi-lo)/2
		if mid <= lo || mid >= hi {
			// No float lies strictly inside the bracket; the root is here.
			return mid, iter - 1, s.contains(mid)
		}

		candidate := mid
		if iter%2 == 1 {
			secant := hi - fhi*(hi-lo)/(fhi-flo)
			if secant > lo && secant < hi {
				candidate = secant
			}
		}

		value := presentValue(flows, candidate)
		if !mathutil.IsFinite(value) {
			break
		}
		if mathutil.WithinTolerance(value, 0, s.Tolerance) {
			if !s.contains(candidate) {
				return 0, iter, false
			}
			return candidate, iter, true
		}

		if mathutil.Sign(value) == mathutil.Sign(flo) {
			lo, flo = candidate, value
		} else {
			hi, fhi = candidate, value
		}
	}

	e.logger.Debug("irr undefined: solver did not converge",
		zap.String("op", "cashflow.solveIRR"),
		zap.Int("maxIterations", s.MaxIterations),
		zap.Float64("bracketLow", lo),
		zap.Float64("bracketHigh", hi),
	)
	return 0, s.MaxIterations, false
}

// bracket scans the domain in ascending order and returns the first interval
// whose endpoints have opposite NPV signs. A grid point within tolerance of
// zero is returned as a degenerate bracket (lo == hi).
func (e *Evaluator) bracket(flows []float64) (lo, hi, flo, fhi float64, found bool) {
	s := e.solver
	step := (s.UpperBound - s.LowerBound) / float64(s.ScanSteps)

	var prevRate, prevValue float64
	havePrev := false
	for i := 0; i <= s.ScanSteps; i++ {
		rate := s.LowerBound + float64(i)*step
		if i == s.ScanSteps {
			rate = s.UpperBound
		}

		value := presentValue(flows, rate)
		if !mathutil.IsFinite(value) {
			havePrev = false
			continue
		}
		if mathutil.WithinTolerance(value, 0, s.Tolerance) {
			return rate, rate, value, value, true
		}
		if havePrev && mathutil.Sign(value) != mathutil.Sign(prevValue) {
			return prevRate, rate, prevValue, value, true
		}
		prevRate, prevValue, havePrev = rate, value, true
	}
	return 0, 0, 0, 0, false
}
