// Package dataset reads tabular cash flow data from workbooks and CSV files
// and slices it into one ordered series per project.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/cashflow-evaluator/pkg/cashflow"
	"github.com/iwvelando/cashflow-evaluator/pkg/constants"
	"github.com/iwvelando/cashflow-evaluator/pkg/mathutil"
	"go.uber.org/zap"
)

var (
	// ErrMissingColumn means a required column is absent from the header row.
	ErrMissingColumn = errors.New("missing required column")
	// ErrInvalidValue means a cell could not be interpreted.
	ErrInvalidValue = errors.New("invalid cell value")
	// ErrUnsupportedFormat means the file is neither a workbook nor CSV.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	// ErrProjectNotFound means no rows exist for the requested project.
	ErrProjectNotFound = errors.New("project not found")
	// ErrEmpty means the source has no header or no data rows.
	ErrEmpty = errors.New("dataset is empty")
)

// Format identifies the encoding of a dataset.
type Format string

const (
	// FormatXLSX is an Office Open XML workbook.
	FormatXLSX Format = "xlsx"
	// FormatCSV is comma-separated text with a header row.
	FormatCSV Format = "csv"
)

// Options selects the sheet and the columns to read.
type Options struct {
	Sheet          string
	ProjectColumn  string
	CashFlowColumn string
	// PeriodColumn, when set, orders each project's rows by its numeric value.
	// Otherwise rows keep their file order.
	PeriodColumn string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.ProjectColumn) == "" {
		o.ProjectColumn = constants.DefaultProjectColumn
	}
	if strings.TrimSpace(o.CashFlowColumn) == "" {
		o.CashFlowColumn = constants.DefaultCashFlowColumn
	}
	return o
}

// Project is one project's cash flows in period order.
type Project struct {
	Name      string          `json:"name"`
	Periods   []float64       `json:"periods,omitempty"`
	CashFlows cashflow.Series `json:"cashFlows"`
}

// Dataset holds every project found in a source, in order of first appearance.
type Dataset struct {
	Source   string
	Columns  []string
	Projects []Project
}

// Names returns the project names in order.
func (d *Dataset) Names() []string {
	names := make([]string, 0, len(d.Projects))
	for _, p := range d.Projects {
		names = append(names, p.Name)
	}
	return names
}

// Project returns the named project.
func (d *Dataset) Project(name string) (Project, error) {
	for _, p := range d.Projects {
		if p.Name == name {
			return p, nil
		}
	}
	return Project{}, fmt.Errorf("%w: %q (available: %s)", ErrProjectNotFound, name, strings.Join(d.Names(), ", "))
}

// Loader reads datasets and logs what it found.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a loader with the given logger.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// FormatFromName infers the dataset format from a file name's extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q (expected .xlsx or .csv)", ErrUnsupportedFormat, name)
}

// LoadFile opens path and reads it according to its extension.
func (l *Loader) LoadFile(path string, opts Options) (*Dataset, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			l.logger.Warn("failed to close dataset file",
				zap.String("op", "dataset.LoadFile"),
				zap.String("path", path),
				zap.Error(closeErr),
			)
		}
	}()

	ds, err := l.Read(file, format, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ds.Source = path
	return ds, nil
}

// Read parses r in the given format.
func (l *Loader) Read(r io.Reader, format Format, opts Options) (*Dataset, error) {
	opts = opts.withDefaults()

	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatXLSX:
		rows, err = readWorkbookRows(r, opts.Sheet)
	case FormatCSV:
		rows, err = readCSVRows(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	ds, err := buildDataset(rows, opts)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("dataset loaded",
		zap.String("op", "dataset.Read"),
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
		zap.Int("projects", len(ds.Projects)),
	)
	return ds, nil
}

type columnIndex struct {
	project  int
	cashFlow int
	period   int
}

func locateColumns(header []string, opts Options) (columnIndex, error) {
	find := func(name string) int {
		want := strings.TrimSpace(name)
		for i, cell := range header {
			if strings.EqualFold(strings.TrimSpace(cell), want) {
				return i
			}
		}
		return -1
	}

	idx := columnIndex{
		project:  find(opts.ProjectColumn),
		cashFlow: find(opts.CashFlowColumn),
		period:   -1,
	}

	var missing []string
	if idx.project < 0 {
		missing = append(missing, opts.ProjectColumn)
	}
	if idx.cashFlow < 0 {
		missing = append(missing, opts.CashFlowColumn)
	}
	if strings.TrimSpace(opts.PeriodColumn) != "" {
		idx.period = find(opts.PeriodColumn)
		if idx.period < 0 {
			missing = append(missing, opts.PeriodColumn)
		}
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: %s (found: %s)", ErrMissingColumn,
			quoteAll(missing), quoteAll(trimAll(header)))
	}
	return idx, nil
}

type periodRow struct {
	period float64
	amount float64
	row    int
}

func buildDataset(rows [][]string, opts Options) (*Dataset, error) {
	headerAt := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, fmt.Errorf("%w: no header row", ErrEmpty)
	}

	header := rows[headerAt]
	idx, err := locateColumns(header, opts)
	if err != nil {
		return nil, err
	}

	var order []string
	grouped := make(map[string][]periodRow)
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		rowNumber := i + 1

		name := strings.TrimSpace(cell(row, idx.project))
		if name == "" {
			return nil, fmt.Errorf("%w: row %d: empty %q", ErrInvalidValue, rowNumber, opts.ProjectColumn)
		}

		amount, err := ParseAmount(cell(row, idx.cashFlow))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d column %q: %v", ErrInvalidValue, rowNumber, opts.CashFlowColumn, err)
		}

		entry := periodRow{amount: amount, row: rowNumber}
		if idx.period >= 0 {
			entry.period, err = ParseAmount(cell(row, idx.period))
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", ErrInvalidValue, rowNumber, opts.PeriodColumn, err)
			}
		}

		if _, ok := grouped[name]; !ok {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], entry)
	}

	if len(order) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrEmpty)
	}

	ds := &Dataset{Columns: trimAll(header)}
	for _, name := range order {
		entries := grouped[name]
		project := Project{Name: name, CashFlows: make(cashflow.Series, 0, len(entries))}

		if idx.period >= 0 {
			sort.SliceStable(entries, func(a, b int) bool { return entries[a].period < entries[b].period })
			for k := 1; k < len(entries); k++ {
				if entries[k].period == entries[k-1].period {
					return nil, fmt.Errorf("%w: project %q has period %g on rows %d and %d",
						ErrInvalidValue, name, entries[k].period, entries[k-1].row, entries[k].row)
				}
			}
			project.Periods = make([]float64, 0, len(entries))
		}

		for _, entry := range entries {
			project.CashFlows = append(project.CashFlows, entry.amount)
			if project.Periods != nil {
				project.Periods = append(project.Periods, entry.period)
			}
		}
		ds.Projects = append(ds.Projects, project)
	}
	return ds, nil
}

// ParseAmount interprets a spreadsheet cell as a number. Currency symbols,
// thousands separators and accounting-style parentheses are accepted.
func ParseAmount(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("empty value")
	}

	negative := false
	if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		negative = true
		value = strings.TrimSpace(value[1 : len(value)-1])
	}
	value = strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)

	amount, err := strconv.ParseFloat(value, 64)
	if err != nil || !mathutil.IsFinite(amount) {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if negative {
		amount = -amount
	}
	return amount, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, ", ")
}
