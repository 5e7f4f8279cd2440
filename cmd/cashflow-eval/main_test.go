package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/cashflow-evaluator/internal/config"
	"github.com/iwvelando/cashflow-evaluator/internal/dataset"
	"github.com/iwvelando/cashflow-evaluator/pkg/cashflow"
	"github.com/iwvelando/cashflow-evaluator/pkg/constants"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigurationMissingDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.yaml")

	conf, err := loadConfiguration(missing, false)
	if err != nil {
		t.Fatalf("loadConfiguration() error = %v", err)
	}
	if conf.Evaluation.DiscountRate != constants.DefaultDiscountRate {
		t.Errorf("expected default configuration, got %+v", conf.Evaluation)
	}

	if _, err := loadConfiguration(missing, true); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestRunInlineProjects(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `evaluation:
  discountRate: 0.1
projects:
  - name: Solar Farm
    cashFlows: [-1000, 400, 400, 400, 400]
  - name: Royalty
    cashFlows: [100, 100, 100]
`)
	conf, err := loadConfiguration(path, true)
	if err != nil {
		t.Fatalf("loadConfiguration() error = %v", err)
	}
	applyOverrides(conf, overrides{})

	var buf bytes.Buffer
	if err := run(zap.NewNop(), conf, overrides{}, &buf); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"--- Results for project Solar Farm ---",
		"Net present value:         $267.95",
		"--- Results for project Royalty ---",
		"Internal rate of return:   " + constants.UndefinedIRR,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}
}

func TestRunDatasetWithOverrides(t *testing.T) {
	dir := t.TempDir()
	datasetPath := writeFile(t, dir, "flows.csv", "Project,Cash Flow (USD)\nSolar,-1000\nSolar,1200\nWind,-500\nWind,600\n")
	chartDir := filepath.Join(dir, "charts")
	rate := 0.2

	opts := overrides{
		datasetPath:  datasetPath,
		project:      "Wind",
		rate:         &rate,
		outputFormat: constants.OutputFormatCSV,
		chartDir:     chartDir,
	}
	conf := config.DefaultConfiguration()
	applyOverrides(conf, opts)

	var buf bytes.Buffer
	if err := run(zap.NewNop(), conf, opts, &buf); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %v", lines)
	}
	if !strings.HasPrefix(lines[1], `"Wind","0","-500.00"`) || !strings.HasSuffix(lines[1], `"20.00%"`) {
		t.Errorf("unexpected row %q", lines[1])
	}

	for _, name := range []string{"wind-cumulative.png", "wind-profile.png"} {
		if _, err := os.Stat(filepath.Join(chartDir, name)); err != nil {
			t.Errorf("expected chart %s: %v", name, err)
		}
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	datasetPath := writeFile(t, dir, "flows.csv", "Project,Cash Flow (USD)\nSolar,-1000\nSolar,1200\n")
	minusOne := -1.0

	tests := []struct {
		name    string
		modify  func(*config.Configuration)
		opts    overrides
		wantErr error
	}{
		{
			name: "Nothing to evaluate",
		},
		{
			name:    "Unknown project",
			opts:    overrides{datasetPath: datasetPath, project: "Hydro"},
			wantErr: dataset.ErrProjectNotFound,
		},
		{
			name:    "Missing dataset",
			opts:    overrides{datasetPath: filepath.Join(dir, "missing.csv")},
			wantErr: os.ErrNotExist,
		},
		{
			name:    "Rate override of minus one",
			opts:    overrides{datasetPath: datasetPath, rate: &minusOne},
			wantErr: cashflow.ErrInvalidInput,
		},
		{
			name: "Invalid configuration",
			modify: func(c *config.Configuration) {
				c.Evaluation.Solver.MaxIterations = 0
			},
			opts: overrides{datasetPath: datasetPath},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := config.DefaultConfiguration()
			if tt.modify != nil {
				tt.modify(conf)
			}
			applyOverrides(conf, tt.opts)

			err := run(zap.NewNop(), conf, tt.opts, &bytes.Buffer{})
			if err == nil {
				t.Fatal("run() expected error but got none")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("run() error = %v, expected %v", err, tt.wantErr)
			}
		})
	}
}
