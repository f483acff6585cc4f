package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/helpdevoir/hdq/internal/ui/styles"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// HeatmapBlocks are Unicode block characters for heatmaps (low to high intensity).
var HeatmapBlocks = []rune{'░', '▒', '▓', '█'}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}

	width = max(width, 20)
	height = max(height, 3)

	// asciigraph needs two points to draw a line.
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Blue),
	)
}

// BarItem is one row of a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Color lipgloss.Color
	// Suffix is printed after the bar instead of the raw value when set.
	Suffix string
}

// RenderBarChart creates a horizontal bar chart scaled to the largest value.
func RenderBarChart(items []BarItem, width int) string {
	if len(items) == 0 {
		return ""
	}

	maxVal := 0.0
	maxLabelLen := 0
	for _, it := range items {
		maxVal = max(maxVal, it.Value)
		maxLabelLen = max(maxLabelLen, len(it.Label))
	}
	if maxVal == 0 {
		maxVal = 1
	}

	barWidth := max(width-maxLabelLen-22, 10)

	lines := make([]string, 0, len(items))
	for _, it := range items {
		barLen := max(int((it.Value/maxVal)*float64(barWidth)), 0)

		color := it.Color
		if color == "" {
			color = styles.Primary
		}
		bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", barLen))

		suffix := it.Suffix
		if suffix == "" {
			suffix = fmt.Sprintf("%.0f", it.Value)
		}

		lines = append(lines, fmt.Sprintf("%*s │%s %s", maxLabelLen, it.Label, bar, suffix))
	}

	return strings.Join(lines, "\n")
}

// RenderHourlyHeatmap creates a 24-hour usage heatmap.
func RenderHourlyHeatmap(patterns []float64) string {
	if len(patterns) != 24 {
		padded := make([]float64, 24)
		copy(padded, patterns)
		patterns = padded
	}

	maxVal := 0.0
	for _, v := range patterns {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	var result strings.Builder
	result.WriteString("00 ")

	for i, v := range patterns {
		intensity := min(max(int((v/maxVal)*float64(len(HeatmapBlocks)-1)), 0), len(HeatmapBlocks)-1)

		var style lipgloss.Style
		switch intensity {
		case 0:
			style = lipgloss.NewStyle().Foreground(styles.Subtle)
		case 1:
			style = lipgloss.NewStyle().Foreground(styles.Success)
		case 2:
			style = lipgloss.NewStyle().Foreground(styles.Warning)
		default:
			style = lipgloss.NewStyle().Foreground(styles.Error)
		}

		result.WriteString(style.Render(string(HeatmapBlocks[intensity])))

		// Gap at noon for readability
		if i == 11 {
			result.WriteString(" ")
		}
	}

	result.WriteString(" 23")
	return result.String()
}

// RenderColoredSparkline creates a sparkline where heavy consumption is
// drawn in warning colors.
func RenderColoredSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	var result strings.Builder
	step := max(float64(len(values))/float64(width), 1)

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		normalized := min(max(int((val/maxVal)*float64(len(sparkChars)-1)), 0), len(sparkChars)-1)

		percent := (val / maxVal) * 100
		style := styles.GetQuotaStyle(100-percent, false)
		result.WriteString(style.Render(string(sparkChars[normalized])))
	}

	return result.String()
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}
