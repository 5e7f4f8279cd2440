package cashflow

import (
	"fmt"
	"math"

	"github.com/iwvelando/cashflow-evaluator/pkg/constants"
)

// ProfilePoint is the NPV of a series at one discount rate.
type ProfilePoint struct {
	Rate float64 `json:"rate"`
	NPV  float64 `json:"npv"`
}

// NPVProfile computes the NPV of flows at each rate, in the order given.
func NPVProfile(flows Series, rates []float64) ([]ProfilePoint, error) {
	if err := validateSeries(flows); err != nil {
		return nil, err
	}
	points := make([]ProfilePoint, 0, len(rates))
	for _, rate := range rates {
		if err := validateRate(rate); err != nil {
			return nil, err
		}
		points = append(points, ProfilePoint{Rate: rate, NPV: presentValue(flows, rate)})
	}
	return points, nil
}

// RateRange returns the ascending rates min, min+step, ... up to and including
// max. Rates are computed from the index rather than accumulated.
func RateRange(min, max, step float64) ([]float64, error) {
	if err := validateRate(min); err != nil {
		return nil, err
	}
	if err := validateRate(max); err != nil {
		return nil, err
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: rate step must be a positive finite number", ErrInvalidInput)
	}
	if max < min {
		return nil, fmt.Errorf("%w: maximum rate %g is below minimum rate %g", ErrInvalidInput, max, min)
	}

	// Tolerate float drift so that (0.01, 0.30, 0.01) includes 0.30.
	count := int(math.Floor((max-min)/step+1e-9)) + 1
	if count > constants.MaxProfilePoints {
		return nil, fmt.Errorf("%w: rate range produces %d points, limit is %d", ErrInvalidInput, count, constants.MaxProfilePoints)
	}

	rates := make([]float64, count)
	for i := range rates {
		rates[i] = min + float64(i)*step
	}
	if last := rates[count-1]; last > max {
		rates[count-1] = max
	}
	return rates, nil
}
