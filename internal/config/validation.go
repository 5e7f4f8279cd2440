package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/cashflow-evaluator/pkg/cashflow"
	"github.com/iwvelando/cashflow-evaluator/pkg/validation"
)

// Validate reports configuration that cannot be evaluated at all.
func (c *Configuration) Validate() error {
	var errs []error

	if err := c.SolverSettings().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("evaluation.solver: %w", err))
	}
	if _, err := c.ProfileRates(); err != nil {
		errs = append(errs, fmt.Errorf("evaluation.profile: %w", err))
	}
	if c.Evaluation.DiscountRate <= -1 {
		errs = append(errs, fmt.Errorf("evaluation.discountRate %g must be greater than -1", c.Evaluation.DiscountRate))
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			errs = append(errs, fmt.Errorf("output.format: %w", err))
		}
	}

	for i, project := range c.Projects {
		name := strings.TrimSpace(project.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("projects[%d]: name is required", i))
			continue
		}
		if len(project.CashFlows) == 0 {
			errs = append(errs, fmt.Errorf("project '%s': at least one cash flow is required", name))
		}
		if project.DiscountRate != nil && *project.DiscountRate <= -1 {
			errs = append(errs, fmt.Errorf("project '%s': discount rate %g must be greater than -1", name, *project.DiscountRate))
		}
	}

	return errors.Join(errs...)
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if warning := validation.DiscountRateWarning("Default", c.Evaluation.DiscountRate); warning != "" {
		warnings = append(warnings, warning)
	}

	seen := make(map[string]bool)
	for _, project := range c.Projects {
		if seen[project.Name] {
			warnings = append(warnings, fmt.Sprintf("Project '%s' is declared more than once", project.Name))
		}
		seen[project.Name] = true

		if project.DiscountRate != nil {
			if warning := validation.DiscountRateWarning(fmt.Sprintf("Project '%s'", project.Name), *project.DiscountRate); warning != "" {
				warnings = append(warnings, warning)
			}
		}
		if len(project.CashFlows) > 0 && !cashflow.HasSignChange(project.CashFlows) {
			warnings = append(warnings, fmt.Sprintf("Project '%s' has no sign change; IRR will be undefined", project.Name))
		}
	}

	if len(c.Projects) == 0 && c.Dataset.Path == "" {
		warnings = append(warnings, "No projects or dataset configured")
	}

	return warnings
}
