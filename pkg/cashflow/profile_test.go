package cashflow

import (
	"errors"
	"math"
	"testing"
)

func TestRateRange(t *testing.T) {
	rates, err := RateRange(0.01, 0.30, 0.01)
	if err != nil {
		t.Fatalf("RateRange() error = %v", err)
	}
	if len(rates) != 30 {
		t.Fatalf("RateRange() returned %d rates, expected 30", len(rates))
	}
	if rates[0] != 0.01 {
		t.Errorf("first rate = %v, expected 0.01", rates[0])
	}
	if math.Abs(rates[len(rates)-1]-0.30) > 1e-12 || rates[len(rates)-1] > 0.30 {
		t.Errorf("last rate = %v, expected 0.30", rates[len(rates)-1])
	}
	for i := 1; i < len(rates); i++ {
		if rates[i] <= rates[i-1] {
			t.Fatalf("rates not ascending at %d: %v <= %v", i, rates[i], rates[i-1])
		}
	}
}

func TestRateRangeSinglePoint(t *testing.T) {
	rates, err := RateRange(0.1, 0.1, 0.05)
	if err != nil {
		t.Fatalf("RateRange() error = %v", err)
	}
	if len(rates) != 1 || rates[0] != 0.1 {
		t.Errorf("RateRange() = %v, expected [0.1]", rates)
	}
}

func TestRateRangeInvalid(t *testing.T) {
	tests := []struct {
		name           string
		min, max, step float64
	}{
		{"Zero step", 0.01, 0.3, 0},
		{"Negative step", 0.01, 0.3, -0.01},
		{"Inverted range", 0.3, 0.01, 0.01},
		{"Minimum at minus one", -1, 0.3, 0.01},
		{"Too many points", 0, 100, 0.0001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RateRange(tt.min, tt.max, tt.step); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("RateRange() error = %v, expected ErrInvalidInput", err)
			}
		})
	}
}

func TestNPVProfile(t *testing.T) {
	flows := Series{-1000, 400, 400, 400, 400}
	rates := []float64{0, 0.1, 0.2186227, 0.3}

	points, err := NPVProfile(flows, rates)
	if err != nil {
		t.Fatalf("NPVProfile() error = %v", err)
	}
	if len(points) != len(rates) {
		t.Fatalf("NPVProfile() returned %d points, expected %d", len(points), len(rates))
	}
	if points[0].NPV != 600 {
		t.Errorf("NPV at 0%% = %v, expected 600", points[0].NPV)
	}
	if math.Abs(points[2].NPV) > 0.01 {
		t.Errorf("NPV at IRR = %v, expected near zero", points[2].NPV)
	}
	if points[3].NPV >= 0 {
		t.Errorf("NPV at 30%% = %v, expected negative", points[3].NPV)
	}
	for i, p := range points {
		if p.Rate != rates[i] {
			t.Errorf("point %d rate = %v, expected %v", i, p.Rate, rates[i])
		}
	}
}

func TestNPVProfileRejectsInvalidRate(t *testing.T) {
	if _, err := NPVProfile(Series{-1, 2}, []float64{0.1, -1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NPVProfile() error = %v, expected ErrInvalidInput", err)
	}
	if _, err := NPVProfile(nil, []float64{0.1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NPVProfile(nil) error = %v, expected ErrInvalidInput", err)
	}
}
