// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and validating it.
package config

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/cashflow-evaluator/pkg/cashflow"
	"github.com/iwvelando/cashflow-evaluator/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for cashflow-evaluator.
type Configuration struct {
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
	Evaluation EvaluationConfig `yaml:"evaluation,omitempty"`
	Dataset    DatasetConfig    `yaml:"dataset,omitempty"`
	Projects   []Project        `yaml:"projects,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format   string `yaml:"format,omitempty"`   // pretty, csv, json
	ChartDir string `yaml:"chartDir,omitempty"` // optional PNG chart output directory
}

// EvaluationConfig holds the default discount rate, the NPV profile sweep and
// the IRR solver limits.
type EvaluationConfig struct {
	DiscountRate float64       `yaml:"discountRate"`
	Profile      ProfileConfig `yaml:"profile"`
	Solver       SolverConfig  `yaml:"solver"`
}

// ProfileConfig describes the rate sweep used for NPV profiles.
type ProfileConfig struct {
	MinRate float64 `yaml:"minRate"`
	MaxRate float64 `yaml:"maxRate"`
	Step    float64 `yaml:"step"`
}

// SolverConfig mirrors cashflow.Solver.
type SolverConfig struct {
	LowerBound    float64 `yaml:"lowerBound"`
	UpperBound    float64 `yaml:"upperBound"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"maxIterations"`
	ScanSteps     int     `yaml:"scanSteps"`
}

// DatasetConfig points at a workbook or CSV file of per-period cash flows.
type DatasetConfig struct {
	Path           string `yaml:"path,omitempty"`
	Sheet          string `yaml:"sheet,omitempty"`
	ProjectColumn  string `yaml:"projectColumn,omitempty"`
	CashFlowColumn string `yaml:"cashFlowColumn,omitempty"`
	PeriodColumn   string `yaml:"periodColumn,omitempty"`
}

// Project is a named cash flow series declared inline in the configuration.
// DiscountRate overrides Evaluation.DiscountRate when set.
type Project struct {
	Name         string    `yaml:"name"`
	CashFlows    []float64 `yaml:"cashFlows"`
	DiscountRate *float64  `yaml:"discountRate,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data: %w", err)
	}

	v := newViper()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("error reading config data: %w", err)
		}
	}
	return decode(v)
}

// DefaultConfiguration returns the configuration used when no file is given.
func DefaultConfiguration() *Configuration {
	conf, err := decode(newViper())
	if err != nil {
		// Defaults alone always decode.
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return conf
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix("CASHFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("evaluation.discountRate", constants.DefaultDiscountRate)
	v.SetDefault("evaluation.profile.minRate", constants.UIMinDiscountRate)
	v.SetDefault("evaluation.profile.maxRate", constants.UIMaxDiscountRate)
	v.SetDefault("evaluation.profile.step", constants.DefaultProfileStep)
	v.SetDefault("evaluation.solver.lowerBound", constants.IRRLowerBound)
	v.SetDefault("evaluation.solver.upperBound", constants.IRRUpperBound)
	v.SetDefault("evaluation.solver.tolerance", constants.IRRTolerance)
	v.SetDefault("evaluation.solver.maxIterations", constants.IRRMaxIterations)
	v.SetDefault("evaluation.solver.scanSteps", constants.IRRScanSteps)
	v.SetDefault("dataset.projectColumn", constants.DefaultProjectColumn)
	v.SetDefault("dataset.cashFlowColumn", constants.DefaultCashFlowColumn)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return &configuration, nil
}

// SolverSettings converts the solver section into cashflow.Solver.
func (c *Configuration) SolverSettings() cashflow.Solver {
	return cashflow.Solver{
		LowerBound:    c.Evaluation.Solver.LowerBound,
		UpperBound:    c.Evaluation.Solver.UpperBound,
		Tolerance:     c.Evaluation.Solver.Tolerance,
		MaxIterations: c.Evaluation.Solver.MaxIterations,
		ScanSteps:     c.Evaluation.Solver.ScanSteps,
	}
}

// ProfileRates expands the profile section into the rates to sweep.
func (c *Configuration) ProfileRates() ([]float64, error) {
	p := c.Evaluation.Profile
	return cashflow.RateRange(p.MinRate, p.MaxRate, p.Step)
}

// RateFor returns the discount rate to apply to project.
func (c *Configuration) RateFor(project Project) float64 {
	if project.DiscountRate != nil {
		return *project.DiscountRate
	}
	return c.Evaluation.DiscountRate
}
