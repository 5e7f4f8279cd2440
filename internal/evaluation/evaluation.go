// Package evaluation runs the cash flow evaluator over every configured or
// uploaded project and attaches an NPV profile to each result.
package evaluation

import (
	"fmt"

	"github.com/iwvelando/cashflow-evaluator/internal/config"
	"github.com/iwvelando/cashflow-evaluator/internal/dataset"
	"github.com/iwvelando/cashflow-evaluator/pkg/cashflow"
	"go.uber.org/zap"
)

// Input is one project to evaluate.
type Input struct {
	Name         string
	CashFlows    cashflow.Series
	Periods      []float64
	DiscountRate float64
}

// Evaluation holds the result for one project.
type Evaluation struct {
	Name      string                  `json:"name"`
	CashFlows cashflow.Series         `json:"cashFlows"`
	Periods   []float64               `json:"periods,omitempty"`
	Result    cashflow.Result         `json:"result"`
	Profile   []cashflow.ProfilePoint `json:"profile,omitempty"`
}

// Engine evaluates projects with a shared evaluator and profile sweep.
type Engine struct {
	logger       *zap.Logger
	evaluator    *cashflow.Evaluator
	profileRates []float64
}

// NewEngine creates an engine. A nil evaluator uses the default solver; an
// empty profileRates disables NPV profiles.
func NewEngine(logger *zap.Logger, evaluator *cashflow.Evaluator, profileRates []float64) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if evaluator == nil {
		evaluator, _ = cashflow.NewEvaluator(logger, cashflow.DefaultSolver())
	}
	return &Engine{logger: logger, evaluator: evaluator, profileRates: profileRates}
}

// NewEngineFromConfig builds an engine from the evaluation section of conf.
func NewEngineFromConfig(logger *zap.Logger, conf *config.Configuration) (*Engine, error) {
	evaluator, err := cashflow.NewEvaluator(logger, conf.SolverSettings())
	if err != nil {
		return nil, fmt.Errorf("invalid solver configuration: %w", err)
	}
	rates, err := conf.ProfileRates()
	if err != nil {
		return nil, fmt.Errorf("invalid profile configuration: %w", err)
	}
	return NewEngine(logger, evaluator, rates), nil
}

// Evaluate evaluates one project.
func (e *Engine) Evaluate(input Input) (Evaluation, error) {
	result, err := e.evaluator.Evaluate(input.CashFlows, input.DiscountRate)
	if err != nil {
		return Evaluation{}, fmt.Errorf("project '%s': %w", input.Name, err)
	}

	evaluation := Evaluation{
		Name:      input.Name,
		CashFlows: input.CashFlows.Clone(),
		Periods:   append([]float64(nil), input.Periods...),
		Result:    result,
	}

	if len(e.profileRates) > 0 {
		profile, err := cashflow.NPVProfile(input.CashFlows, e.profileRates)
		if err != nil {
			return Evaluation{}, fmt.Errorf("project '%s' profile: %w", input.Name, err)
		}
		evaluation.Profile = profile
	}

	e.logger.Debug("project evaluated",
		zap.String("op", "evaluation.Evaluate"),
		zap.String("project", input.Name),
		zap.Int("periods", len(input.CashFlows)),
		zap.Float64("rate", input.DiscountRate),
		zap.Float64("npv", result.NPV),
	)
	return evaluation, nil
}

// EvaluateAll evaluates every input in order and stops at the first failure.
func (e *Engine) EvaluateAll(inputs []Input) ([]Evaluation, error) {
	results := make([]Evaluation, 0, len(inputs))
	for _, input := range inputs {
		evaluation, err := e.Evaluate(input)
		if err != nil {
			return results, err
		}
		results = append(results, evaluation)
	}

	e.logger.Info("projects evaluated",
		zap.String("op", "evaluation.EvaluateAll"),
		zap.Int("projects", len(results)),
	)
	return results, nil
}

// InputsFromConfig converts the inline projects of conf, applying each
// project's rate override.
func InputsFromConfig(conf *config.Configuration) []Input {
	inputs := make([]Input, 0, len(conf.Projects))
	for _, project := range conf.Projects {
		inputs = append(inputs, Input{
			Name:         project.Name,
			CashFlows:    cashflow.Series(project.CashFlows).Clone(),
			DiscountRate: conf.RateFor(project),
		})
	}
	return inputs
}

// InputsFromDataset converts every dataset project, all at rate.
func InputsFromDataset(ds *dataset.Dataset, rate float64) []Input {
	inputs := make([]Input, 0, len(ds.Projects))
	for _, project := range ds.Projects {
		inputs = append(inputs, Input{
			Name:         project.Name,
			CashFlows:    project.CashFlows.Clone(),
			Periods:      project.Periods,
			DiscountRate: rate,
		})
	}
	return inputs
}

// Select keeps only the named project. An empty name keeps everything.
func Select(inputs []Input, name string) ([]Input, error) {
	if name == "" {
		return inputs, nil
	}
	for _, input := range inputs {
		if input.Name == name {
			return []Input{input}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", dataset.ErrProjectNotFound, name)
}

// WithRate returns a copy of inputs with every discount rate replaced.
func WithRate(inputs []Input, rate float64) []Input {
	out := make([]Input, len(inputs))
	for i, input := range inputs {
		input.DiscountRate = rate
		out[i] = input
	}
	return out
}
