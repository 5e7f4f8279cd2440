package evaluation_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/iwvelando/cashflow-evaluator/internal/config"
	"github.com/iwvelando/cashflow-evaluator/internal/dataset"
	"github.com/iwvelando/cashflow-evaluator/internal/evaluation"
	"github.com/iwvelando/cashflow-evaluator/pkg/cashflow"
	"github.com/iwvelando/cashflow-evaluator/pkg/mathutil"
	"github.com/iwvelando/cashflow-evaluator/pkg/testutil"
	"go.uber.org/zap"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestEvaluateAllFromConfig(t *testing.T) {
	conf := config.DefaultConfiguration()
	conf.Projects = []config.Project{
		{Name: "Solar Farm", CashFlows: []float64{-1000, 400, 400, 400, 400}},
		{Name: "Pipeline Upgrade", CashFlows: []float64{-150000000, 25000000, 80000000}, DiscountRate: floatPtr(0.10)},
	}
	conf.Evaluation.DiscountRate = 0.05

	engine, err := evaluation.NewEngineFromConfig(zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("NewEngineFromConfig() error = %v", err)
	}

	results, err := engine.EvaluateAll(evaluation.InputsFromConfig(conf))
	if err != nil {
		t.Fatalf("EvaluateAll() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	solar := testutil.FindProject(results, "Solar Farm")
	if solar == nil {
		t.Fatal("Solar Farm missing from results")
	}
	if solar.Result.DiscountRate != 0.05 {
		t.Errorf("Solar Farm rate = %v, expected default 0.05", solar.Result.DiscountRate)
	}
	if solar.Result.PaybackPeriod == nil || *solar.Result.PaybackPeriod != 3 {
		t.Errorf("Solar Farm payback = %v, expected 3", solar.Result.PaybackPeriod)
	}
	if len(solar.Profile) != 30 {
		t.Errorf("expected 30 profile points, got %d", len(solar.Profile))
	}

	pipeline := testutil.FindProject(results, "Pipeline Upgrade")
	if pipeline == nil {
		t.Fatal("Pipeline Upgrade missing from results")
	}
	if !mathutil.WithinTolerance(pipeline.Result.NPV, -61157024.79, 0.01) {
		t.Errorf("Pipeline NPV = %.2f, expected -61157024.79", pipeline.Result.NPV)
	}
	if pipeline.Result.PaybackPeriod != nil {
		t.Errorf("Pipeline payback = %d, expected undefined", *pipeline.Result.PaybackPeriod)
	}
}

func TestEvaluateWrapsInvalidInput(t *testing.T) {
	engine := evaluation.NewEngine(nil, nil, nil)

	_, err := engine.EvaluateAll([]evaluation.Input{
		{Name: "Good", CashFlows: cashflow.Series{-1, 2}, DiscountRate: 0.1},
		{Name: "Empty", CashFlows: nil, DiscountRate: 0.1},
	})
	if !errors.Is(err, cashflow.ErrInvalidInput) {
		t.Fatalf("EvaluateAll() error = %v, expected ErrInvalidInput", err)
	}
	if got := err.Error(); !strings.Contains(got, "project 'Empty'") {
		t.Errorf("error %q does not name the project", got)
	}

	if _, err := engine.Evaluate(evaluation.Input{Name: "Bad rate", CashFlows: cashflow.Series{-1, 2}, DiscountRate: -1}); !errors.Is(err, cashflow.ErrInvalidInput) {
		t.Errorf("Evaluate() error = %v, expected ErrInvalidInput", err)
	}
}

func TestEvaluateWithoutProfile(t *testing.T) {
	engine := evaluation.NewEngine(zap.NewNop(), nil, nil)

	result, err := engine.Evaluate(evaluation.Input{Name: "Solar", CashFlows: cashflow.Series{-1000, 400, 400, 400, 400}, DiscountRate: 0.1})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Profile != nil {
		t.Errorf("expected no profile, got %d points", len(result.Profile))
	}
	if result.Periods != nil {
		t.Errorf("expected no periods, got %v", result.Periods)
	}
}

func TestEvaluateCopiesInput(t *testing.T) {
	flows := cashflow.Series{-1000, 400, 400, 400, 400}
	engine := evaluation.NewEngine(nil, nil, []float64{0.1})

	result, err := engine.Evaluate(evaluation.Input{Name: "Solar", CashFlows: flows, DiscountRate: 0.1})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	result.CashFlows[0] = 0
	if flows[0] != -1000 {
		t.Error("evaluation shares its cash flow slice with the input")
	}
}

func TestInputsFromDataset(t *testing.T) {
	ds := &dataset.Dataset{Projects: []dataset.Project{
		{Name: "Solar", CashFlows: cashflow.Series{-1000, 400}, Periods: []float64{2024, 2025}},
		{Name: "Wind", CashFlows: cashflow.Series{-500, 600}},
	}}

	inputs := evaluation.InputsFromDataset(ds, 0.07)
	if len(inputs) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(inputs))
	}
	for _, input := range inputs {
		if input.DiscountRate != 0.07 {
			t.Errorf("%s rate = %v, expected 0.07", input.Name, input.DiscountRate)
		}
	}
	if !reflect.DeepEqual(inputs[0].Periods, []float64{2024, 2025}) {
		t.Errorf("periods = %v, expected [2024 2025]", inputs[0].Periods)
	}
}

func TestSelectAndWithRate(t *testing.T) {
	inputs := []evaluation.Input{
		{Name: "Solar", CashFlows: cashflow.Series{-1, 2}, DiscountRate: 0.1},
		{Name: "Wind", CashFlows: cashflow.Series{-1, 3}, DiscountRate: 0.2},
	}

	all, err := evaluation.Select(inputs, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("Select(\"\") = %v, %v", all, err)
	}

	wind, err := evaluation.Select(inputs, "Wind")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(wind) != 1 || wind[0].Name != "Wind" {
		t.Errorf("Select(Wind) = %v", wind)
	}

	if _, err := evaluation.Select(inputs, "Hydro"); !errors.Is(err, dataset.ErrProjectNotFound) {
		t.Errorf("Select(Hydro) error = %v, expected ErrProjectNotFound", err)
	}

	rated := evaluation.WithRate(inputs, 0.15)
	for _, input := range rated {
		if input.DiscountRate != 0.15 {
			t.Errorf("%s rate = %v, expected 0.15", input.Name, input.DiscountRate)
		}
	}
	if inputs[0].DiscountRate != 0.1 {
		t.Error("WithRate modified its input")
	}
}
