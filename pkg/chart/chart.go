// Package chart renders evaluation results as PNG charts.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/iwvelando/cashflow-evaluator/internal/evaluation"
	"github.com/iwvelando/cashflow-evaluator/pkg/cashflow"
	"github.com/iwvelando/cashflow-evaluator/pkg/mathutil"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Kind selects which chart to render.
type Kind string

const (
	// KindCumulative draws per-period cash flows as bars with the cumulative series as a line.
	KindCumulative Kind = "cumulative"
	// KindProfile draws NPV against discount rate.
	KindProfile Kind = "profile"
)

const (
	// Width of rendered charts.
	Width = 8 * vg.Inch
	// Height of rendered charts.
	Height = 5 * vg.Inch
)

var (
	// ErrNoData means there is nothing to draw.
	ErrNoData = errors.New("no data to chart")
	// ErrUnknownKind means the chart kind is not recognized.
	ErrUnknownKind = errors.New("unknown chart kind")

	inflowColor     = color.RGBA{R: 46, G: 139, B: 87, A: 255}
	cumulativeColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	markerColor     = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// ParseKind validates a chart kind name. An empty name selects KindCumulative.
func ParseKind(name string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case KindCumulative, "":
		return KindCumulative, nil
	case KindProfile:
		return KindProfile, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Cumulative plots the cash flow of each period as a bar and the running total as a line.
func Cumulative(title string, flows cashflow.Series, cumulative []float64) (*plot.Plot, error) {
	if len(flows) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Period"
	p.Y.Label.Text = "USD"
	p.Legend.Top = true
	p.Legend.Left = true

	bars, err := plotter.NewBarChart(plotter.Values(flows), vg.Points(16))
	if err != nil {
		return nil, fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = inflowColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.Legend.Add("Cash flow", bars)

	if len(cumulative) > 0 {
		points := make(plotter.XYs, len(cumulative))
		for i, value := range cumulative {
			points[i].X = float64(i)
			points[i].Y = value
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return nil, fmt.Errorf("failed to build cumulative line: %w", err)
		}
		line.Color = cumulativeColor
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add("Cumulative", line)
	}

	p.Add(zeroLine())
	p.Add(plotter.NewGrid())
	p.NominalX(periodLabels(len(flows))...)
	return p, nil
}

// Profile plots NPV against discount rate. When irr is defined it is marked on
// the zero line.
func Profile(title string, points []cashflow.ProfilePoint, irr *float64) (*plot.Plot, error) {
	if len(points) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Discount rate (%)"
	p.Y.Label.Text = "NPV (USD)"
	p.Legend.Top = true

	xys := make(plotter.XYs, len(points))
	for i, point := range points {
		xys[i].X = mathutil.CalculatePercentage(point.Rate)
		xys[i].Y = point.NPV
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile line: %w", err)
	}
	line.Color = cumulativeColor
	line.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("NPV", line)

	if irr != nil && mathutil.CalculatePercentage(*irr) >= xys[0].X && mathutil.CalculatePercentage(*irr) <= xys[len(xys)-1].X {
		marker, err := plotter.NewScatter(plotter.XYs{{X: mathutil.CalculatePercentage(*irr), Y: 0}})
		if err != nil {
			return nil, fmt.Errorf("failed to build IRR marker: %w", err)
		}
		marker.GlyphStyle.Shape = draw.CircleGlyph{}
		marker.GlyphStyle.Radius = vg.Points(4)
		marker.GlyphStyle.Color = markerColor
		p.Add(marker)
		p.Legend.Add("IRR", marker)
	}

	p.Add(zeroLine())
	p.Add(plotter.NewGrid())
	return p, nil
}

// Render builds the requested chart for one evaluation.
func Render(kind Kind, result evaluation.Evaluation) (*plot.Plot, error) {
	switch kind {
	case KindCumulative:
		return Cumulative(result.Name+" cash flows", result.CashFlows, result.Result.CumulativeSeries)
	case KindProfile:
		return Profile(result.Name+" NPV profile", result.Profile, result.Result.IRR)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// WritePNG encodes p as a PNG image to w.
func WritePNG(w io.Writer, p *plot.Plot) error {
	writer, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if _, err := writer.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

// SaveAll writes a cumulative chart for every result, and a profile chart for
// those that carry one, into dir. It returns the paths written.
func SaveAll(dir string, results []evaluation.Evaluation) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	var paths []string
	for _, result := range results {
		kinds := []Kind{KindCumulative}
		if len(result.Profile) > 0 {
			kinds = append(kinds, KindProfile)
		}
		for _, kind := range kinds {
			p, err := Render(kind, result)
			if err != nil {
				return paths, fmt.Errorf("project '%s': %w", result.Name, err)
			}
			path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", Slug(result.Name), kind))
			if err := p.Save(Width, Height, path); err != nil {
				return paths, fmt.Errorf("failed to save %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// Slug turns a project name into a file-name-safe token.
func Slug(name string) string {
	var builder strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
			dash = false
			continue
		}
		if !dash && builder.Len() > 0 {
			builder.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(builder.String(), "-")
	if slug == "" {
		return "project"
	}
	return slug
}

func zeroLine() *plotter.Function {
	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = color.Gray{Y: 96}
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	return zero
}

func periodLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("%d", i)
	}
	return labels
}
