package usage

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/helpdevoir/hdq/internal/models"
	"github.com/helpdevoir/hdq/internal/ui/components"
	"github.com/helpdevoir/hdq/internal/ui/styles"
)

// View renders the usage tab.
func (m *Model) View() string {
	if m.loading && m.data == nil {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if m.data == nil || m.data.stats.TotalTokens == 0 {
		return m.renderEmpty()
	}

	sections := []string{
		m.renderHeader(),
		m.renderModelTable(),
		m.renderDailyChart(),
		m.renderHourlyHeatmap(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading usage data..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		styles.HelpStyle.Render("No AI requests recorded in this period."),
		styles.HelpStyle.Render("Press a to ask the assistant."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) rangeLabel() string {
	if m.Days() == 1 {
		return "Today"
	}
	return fmt.Sprintf("Last %d days", m.Days())
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Usage")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.rangeLabel()))
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	var lines []string
	lines = append(lines, header)

	if m.data != nil && m.data.stats.TotalTokens > 0 {
		lines = append(lines, styles.HelpStyle.Render(fmt.Sprintf("%d tokens, $%s total, updated %s",
			m.data.stats.TotalTokens, m.data.stats.TotalCost.StringFixed(4), m.lastRefresh.Format("15:04:05"))))
	}

	if m.confirming {
		lines = append(lines, styles.WarningTextStyle.Render("Press x again to clear all usage history, any other key to cancel"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, append(lines, "")...)
}

type modelRow struct {
	id    string
	usage models.ModelUsage
}

// sortedRows orders models by tokens, highest first.
func (m *Model) sortedRows() []modelRow {
	rows := make([]modelRow, 0, len(m.data.stats.UsageByModel))
	for id, u := range m.data.stats.UsageByModel {
		rows = append(rows, modelRow{id: id, usage: u})
	}
	slices.SortFunc(rows, func(a, b modelRow) int {
		if c := cmp.Compare(b.usage.Tokens, a.usage.Tokens); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	return rows
}

func (m *Model) renderModelTable() string {
	cardWidth := max(m.width-6, 40)

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	lines := []string{
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("By Model")),
		"",
		styles.TableHeaderStyle.Render(fmt.Sprintf("%-24s %-10s %10s %12s", "Model", "Provider", "Tokens", "Cost")),
	}

	rows := m.sortedRows()
	items := make([]components.BarItem, 0, len(rows))
	for _, r := range rows {
		mc, ok := m.data.models[r.id]
		name, provider := r.id, models.Provider("")
		if ok {
			name, provider = mc.Name, mc.Provider
		}
		color := styles.ProviderColor(provider)

		nameStr := lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%-24s", truncate(name, 24)))
		lines = append(lines, styles.TableCellStyle.Render(fmt.Sprintf("%s %-10s %10d %12s",
			nameStr, provider, r.usage.Tokens, "$"+r.usage.Cost.StringFixed(4))))

		share := float64(r.usage.Tokens) / float64(m.data.stats.TotalTokens) * 100
		items = append(items, components.BarItem{
			Label:  truncate(name, 16),
			Value:  float64(r.usage.Tokens),
			Color:  color,
			Suffix: fmt.Sprintf("%.0f%%", share),
		})
	}

	lines = append(lines, "", components.RenderBarChart(items, cardWidth-4))

	var legend []components.LegendItem
	seen := make(map[models.Provider]bool)
	for _, r := range rows {
		p := m.data.models[r.id].Provider
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		legend = append(legend, components.LegendItem{Label: string(p), Color: styles.ProviderColor(p)})
	}
	if len(legend) > 0 {
		lines = append(lines, "", components.RenderLegend(legend))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderDailyChart() string {
	cardWidth := max(m.width-6, 40)

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows := []string{
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Daily Tokens")),
		"",
	}

	chartWidth := max(cardWidth-12, 30)
	chart := components.RenderLineChart(m.data.daily, chartWidth, 8, m.rangeLabel())
	for line := range strings.SplitSeq(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderHourlyHeatmap() string {
	cardWidth := max(m.width-6, 40)

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows := []string{
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Hourly Pattern")),
		"",
		"  " + components.RenderHourlyHeatmap(m.data.hourly),
	}

	peak, peakVal := peakHour(m.data.hourly)
	if peakVal > 0 {
		rows = append(rows, "", fmt.Sprintf("  Peak: %s (%.0f tokens)",
			lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).
				Render(fmt.Sprintf("%02d:00-%02d:00", peak, (peak+1)%24)),
			peakVal,
		))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func peakHour(hourly []float64) (hour int, value float64) {
	for h, v := range hourly {
		if v > value {
			hour, value = h, v
		}
	}
	return hour, value
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
