// Package constants provides shared constants for the cashflow-evaluator application.
package constants

// Solver defaults for the internal rate of return search.
const (
	// IRRLowerBound is the lowest discount rate the IRR search considers (-99.9%).
	IRRLowerBound = -0.999

	// IRRUpperBound is the highest discount rate the IRR search considers (1000%).
	IRRUpperBound = 10.0

	// IRRTolerance is the absolute NPV tolerance, in currency units, for a converged root.
	IRRTolerance = 1e-6

	// IRRMaxIterations caps the refinement iterations inside a bracket.
	IRRMaxIterations = 1000

	// IRRScanSteps is the number of grid intervals used to bracket the first root.
	IRRScanSteps = 2000
)

// Discount rate defaults
const (
	// DefaultDiscountRate is used when neither the project nor the caller supplies a rate.
	DefaultDiscountRate = 0.10

	// UIMinDiscountRate is the lower end of the interactive rate control (1%).
	UIMinDiscountRate = 0.01

	// UIMaxDiscountRate is the upper end of the interactive rate control (30%).
	UIMaxDiscountRate = 0.30

	// DefaultProfileStep is the default spacing of an NPV profile sweep.
	DefaultProfileStep = 0.01

	// MaxProfilePoints limits the size of a single NPV profile.
	MaxProfilePoints = 10000
)

// Display constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// UndefinedIRR is displayed when no internal rate of return exists.
	UndefinedIRR = "N/A"

	// UndefinedPayback is displayed when payback is not reached in the observed horizon.
	UndefinedPayback = "Beyond range"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Dataset column defaults, matching the workbook layout the dashboards expect.
const (
	// DefaultProjectColumn holds the project or grouping key.
	DefaultProjectColumn = "Project"

	// DefaultCashFlowColumn holds the per-period cash flow amount.
	DefaultCashFlowColumn = "Cash Flow (USD)"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for datasets (10 MB)
	DefaultMaxUploadSizeBytes int64 = 10 * 1024 * 1024
)
