package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Loading")
	if s.label != "Loading" {
		t.Error("Spinner label mismatch")
	}
}

func TestSpinner_Methods(t *testing.T) {
	s := NewSpinner("Loading quota")

	if !strings.Contains(s.View(), "Loading quota") {
		t.Error("View should contain the label")
	}
	if NewSpinner("").View() == "" {
		t.Error("View without label returned empty")
	}
	if s.Init() == nil {
		t.Error("Init should return command")
	}
	if _, cmd := s.Update(spinner.TickMsg{}); cmd == nil {
		t.Error("Update should return command for tick")
	}
}

func TestRenderSpinnerCentered(t *testing.T) {
	s := NewSpinner("Loading...")
	view := RenderSpinnerCentered(s, 20, 5)
	if !strings.Contains(view, "Loading...") {
		t.Error("RenderSpinnerCentered should contain the label")
	}
}

func TestRenderLineChart(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want string
	}{
		{"empty", nil, "No data available"},
		{"single point", []float64{5}, "Tokens"},
		{"series", []float64{1, 2, 3, 4}, "Tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := RenderLineChart(tt.data, 20, 5, "Tokens")
			if !strings.Contains(s, tt.want) {
				t.Errorf("RenderLineChart() = %q, want it to contain %q", s, tt.want)
			}
		})
	}
}

func TestRenderBarChart(t *testing.T) {
	if RenderBarChart(nil, 40) != "" {
		t.Error("RenderBarChart(nil) should be empty")
	}

	s := RenderBarChart([]BarItem{
		{Label: "claude-3-sonnet", Value: 1500, Suffix: "1500 tok"},
		{Label: "mistral-large", Value: 0},
	}, 60)

	lines := strings.Split(s, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "1500 tok") {
		t.Errorf("first line = %q, want suffix", lines[0])
	}
	if !strings.Contains(lines[1], " 0") {
		t.Errorf("second line = %q, want raw value", lines[1])
	}
}

func TestRenderHourlyHeatmap(t *testing.T) {
	data := make([]float64, 24)
	data[9] = 100
	s := RenderHourlyHeatmap(data)
	if !strings.HasPrefix(s, "00 ") || !strings.HasSuffix(s, " 23") {
		t.Errorf("RenderHourlyHeatmap() = %q, want hour markers", s)
	}

	if RenderHourlyHeatmap([]float64{1}) == "" {
		t.Error("short input should be padded")
	}
}

func TestRenderColoredSparkline(t *testing.T) {
	if RenderColoredSparkline(nil, 10) != "" {
		t.Error("empty input should render nothing")
	}
	if RenderColoredSparkline([]float64{1, 2, 3}, 10) == "" {
		t.Error("RenderColoredSparkline returned empty")
	}
}

func TestRenderLegend(t *testing.T) {
	s := RenderLegend([]LegendItem{
		{Label: "anthropic", Color: lipgloss.Color("#cc785c")},
		{Label: "openai", Color: lipgloss.Color("#10a37f")},
	})
	if !strings.Contains(s, "anthropic") || !strings.Contains(s, "openai") {
		t.Errorf("RenderLegend() = %q", s)
	}
}
