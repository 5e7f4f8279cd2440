// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/cashflow-evaluator/internal/evaluation"
)

// FindProject finds a project by name in the results slice.
// Returns a pointer to the evaluation if found, nil otherwise.
func FindProject(results []evaluation.Evaluation, name string) *evaluation.Evaluation {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}
