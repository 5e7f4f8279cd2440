package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/iwvelando/cashflow-evaluator/internal/config"
	"github.com/iwvelando/cashflow-evaluator/internal/dataset"
	"github.com/iwvelando/cashflow-evaluator/internal/evaluation"
	"github.com/iwvelando/cashflow-evaluator/internal/logging"
	"github.com/iwvelando/cashflow-evaluator/pkg/chart"
	"github.com/iwvelando/cashflow-evaluator/pkg/constants"
	"github.com/iwvelando/cashflow-evaluator/pkg/output"
	"github.com/iwvelando/cashflow-evaluator/pkg/validation"
	"go.uber.org/zap"
)

// overrides holds command line settings that take precedence over the config file.
type overrides struct {
	datasetPath  string
	sheet        string
	project      string
	rate         *float64
	outputFormat string
	chartDir     string
}

// loadConfiguration reads the config file. A missing default config file is
// not an error; the built-in defaults are used instead.
func loadConfiguration(path string, explicit bool) (*config.Configuration, error) {
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.DefaultConfiguration(), nil
		}
	}
	return config.LoadConfiguration(path)
}

// applyOverrides copies command line settings into conf.
func applyOverrides(conf *config.Configuration, opts overrides) {
	if opts.datasetPath != "" {
		conf.Dataset.Path = opts.datasetPath
	}
	if opts.sheet != "" {
		conf.Dataset.Sheet = opts.sheet
	}
	if opts.outputFormat != "" {
		conf.Output.Format = opts.outputFormat
	}
	if conf.Output.Format == "" {
		conf.Output.Format = constants.OutputFormatPretty
	}
	if opts.chartDir != "" {
		conf.Output.ChartDir = opts.chartDir
	}
}

// collectInputs gathers inline and dataset projects, applies the rate
// override and narrows to a single project when requested.
func collectInputs(logger *zap.Logger, conf *config.Configuration, opts overrides) ([]evaluation.Input, error) {
	inputs := evaluation.InputsFromConfig(conf)

	if conf.Dataset.Path != "" {
		ds, err := dataset.NewLoader(logger).LoadFile(conf.Dataset.Path, dataset.Options{
			Sheet:          conf.Dataset.Sheet,
			ProjectColumn:  conf.Dataset.ProjectColumn,
			CashFlowColumn: conf.Dataset.CashFlowColumn,
			PeriodColumn:   conf.Dataset.PeriodColumn,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load dataset: %w", err)
		}
		inputs = append(inputs, evaluation.InputsFromDataset(ds, conf.Evaluation.DiscountRate)...)
	}

	if opts.rate != nil {
		inputs = evaluation.WithRate(inputs, *opts.rate)
	}

	inputs, err := evaluation.Select(inputs, opts.project)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("nothing to evaluate: configure projects or a dataset")
	}
	return inputs, nil
}

// run evaluates every selected project and writes the results to w.
func run(logger *zap.Logger, conf *config.Configuration, opts overrides, w io.Writer) error {
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	inputs, err := collectInputs(logger, conf, opts)
	if err != nil {
		return err
	}

	engine, err := evaluation.NewEngineFromConfig(logger, conf)
	if err != nil {
		return err
	}
	results, err := engine.EvaluateAll(inputs)
	if err != nil {
		return fmt.Errorf("failed to evaluate projects: %w", err)
	}

	if err := output.Write(w, conf.Output.Format, results); err != nil {
		return err
	}

	if conf.Output.ChartDir != "" {
		paths, err := chart.SaveAll(conf.Output.ChartDir, results)
		if err != nil {
			return fmt.Errorf("failed to write charts: %w", err)
		}
		logger.Info("charts written",
			zap.String("op", "main.run"),
			zap.String("dir", conf.Output.ChartDir),
			zap.Int("charts", len(paths)),
		)
	}
	return nil
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	datasetPath := flag.String("dataset", "", "path to an .xlsx or .csv file of per-period cash flows")
	sheet := flag.String("sheet", "", "workbook sheet to read (default: active sheet)")
	project := flag.String("project", "", "evaluate only the named project")
	rate := flag.Float64("rate", constants.DefaultDiscountRate, "discount rate override as a fraction (e.g. 0.1)")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	chartDir := flag.String("chart-dir", "", "directory to write PNG charts into")
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	// Load the config file to get logging configuration
	conf, err := loadConfiguration(*configLocation, set["config"])
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	opts := overrides{
		datasetPath:  *datasetPath,
		sheet:        *sheet,
		project:      *project,
		outputFormat: *outputFormatFlag,
		chartDir:     *chartDir,
	}
	if set["rate"] {
		opts.rate = rate
	}
	applyOverrides(conf, opts)

	if err := validation.ValidateOutputFormat(conf.Output.Format); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Validate configuration and display any warnings
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	if opts.rate != nil {
		if warning := validation.DiscountRateWarning("Override", *opts.rate); warning != "" {
			logger.Warn("Configuration warning: "+warning,
				zap.String("op", "main"),
			)
		}
	}

	if err := run(logger, conf, opts, os.Stdout); err != nil {
		logger.Fatal("failed to evaluate cash flows",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
