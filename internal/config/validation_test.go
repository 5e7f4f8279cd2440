package config

import (
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Configuration)
		wantError string
	}{
		{
			name:   "Defaults are valid",
			modify: func(*Configuration) {},
		},
		{
			name:      "Invalid solver",
			modify:    func(c *Configuration) { c.Evaluation.Solver.MaxIterations = 0 },
			wantError: "evaluation.solver",
		},
		{
			name:      "Invalid profile",
			modify:    func(c *Configuration) { c.Evaluation.Profile.Step = 0 },
			wantError: "evaluation.profile",
		},
		{
			name:      "Discount rate at minus one",
			modify:    func(c *Configuration) { c.Evaluation.DiscountRate = -1 },
			wantError: "evaluation.discountRate",
		},
		{
			name:      "Unknown output format",
			modify:    func(c *Configuration) { c.Output.Format = "xml" },
			wantError: "output.format",
		},
		{
			name: "Project without name",
			modify: func(c *Configuration) {
				c.Projects = []Project{{CashFlows: []float64{-1, 2}}}
			},
			wantError: "name is required",
		},
		{
			name: "Project without cash flows",
			modify: func(c *Configuration) {
				c.Projects = []Project{{Name: "Empty"}}
			},
			wantError: "at least one cash flow",
		},
		{
			name: "Project with invalid rate",
			modify: func(c *Configuration) {
				c.Projects = []Project{{Name: "Bad", CashFlows: []float64{-1, 2}, DiscountRate: floatPtr(-1.5)}}
			},
			wantError: "must be greater than -1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := DefaultConfiguration()
			tt.modify(conf)
			err := conf.Validate()
			if tt.wantError == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantError)
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Validate() error = %v, expected to contain %q", err, tt.wantError)
			}
		})
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	conf := DefaultConfiguration()
	conf.Evaluation.DiscountRate = 0.5
	conf.Projects = []Project{
		{Name: "Solar Farm", CashFlows: []float64{-1000, 400, 400, 400, 400}},
		{Name: "Solar Farm", CashFlows: []float64{-500, 600}},
		{Name: "Royalty", CashFlows: []float64{100, 100, 100}},
		{Name: "Cheap Money", CashFlows: []float64{-1, 2}, DiscountRate: floatPtr(0.001)},
	}

	warnings := conf.ValidateConfiguration()

	expected := []string{
		"Default discount rate 50.00%",
		"Project 'Solar Farm' is declared more than once",
		"Project 'Royalty' has no sign change",
		"Project 'Cheap Money' discount rate 0.10%",
	}
	for _, want := range expected {
		found := false
		for _, warning := range warnings {
			if strings.Contains(warning, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected warning containing %q, got %v", want, warnings)
		}
	}
	if len(warnings) != len(expected) {
		t.Errorf("expected %d warnings, got %d: %v", len(expected), len(warnings), warnings)
	}
}

func TestValidateConfigurationNothingToEvaluate(t *testing.T) {
	warnings := DefaultConfiguration().ValidateConfiguration()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "No projects or dataset") {
		t.Errorf("unexpected warnings %v", warnings)
	}
}
