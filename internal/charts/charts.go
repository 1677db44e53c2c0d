// Package charts renders collection and deck reports as standalone HTML
// pages.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Width      string   // e.g. "900px"
	Height     string   // e.g. "500px"
	Theme      string   // Chart theme
	ShowLegend bool     // Show legend
	Colors     []string // Custom colors
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// DataPoint represents a single data point in a chart.
type DataPoint struct {
	Label string
	Value float64
}

// SeriesData is one named series of a multi-series bar chart. Every series
// of a chart shares the labels of the first.
type SeriesData struct {
	Name   string
	Points []DataPoint
}

// PointsOf turns a count map into data points sorted by label.
func PointsOf(counts map[string]int) []DataPoint {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	points := make([]DataPoint, 0, len(labels))
	for _, label := range labels {
		points = append(points, DataPoint{Label: label, Value: float64(counts[label])})
	}
	return points
}

func globalOptions(title, subtitle string, config ChartConfig) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
			Top:  "bottom",
		}),
		charts.WithColorsOpts(opts.Colors(config.Colors)),
	}
}

// NewBarChart builds a bar chart with one bar group per label.
func NewBarChart(title, subtitle string, series []SeriesData, config ChartConfig) (*charts.Bar, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no data series provided")
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions(title, subtitle, config)...)

	xLabels := make([]string, len(series[0].Points))
	for i, point := range series[0].Points {
		xLabels[i] = point.Label
	}
	bar.SetXAxis(xLabels)

	for _, s := range series {
		data := make([]opts.BarData, len(s.Points))
		for i, point := range s.Points {
			data[i] = opts.BarData{Value: point.Value}
		}
		bar.AddSeries(s.Name, data)
	}
	bar.SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar, nil
}

// NewPieChart builds a pie chart of the given slices.
func NewPieChart(title string, data []DataPoint, config ChartConfig) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOptions(title, "", config)...)

	items := make([]opts.PieData, len(data))
	for i, point := range data {
		items[i] = opts.PieData{Name: point.Label, Value: point.Value}
	}
	pie.AddSeries(title, items).
		SetSeriesOptions(
			charts.WithPieChartOpts(opts.PieChart{Radius: []string{"35%", "65%"}}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c}"}),
		)
	return pie
}

type renderer interface {
	Render(w io.Writer) error
}

// renderFile renders r into outputPath, creating the parent directory.
func renderFile(r renderer, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := r.Render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func newPage(title string) *components.Page {
	page := components.NewPage()
	page.PageTitle = title
	return page
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
