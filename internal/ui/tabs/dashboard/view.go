package dashboard

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"

	"github.com/helpdevoir/hdq/internal/app"
	"github.com/helpdevoir/hdq/internal/models"
	"github.com/helpdevoir/hdq/internal/services/quota"
	"github.com/helpdevoir/hdq/internal/ui/components"
	"github.com/helpdevoir/hdq/internal/ui/styles"
)

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.renderLoading()
	}

	q := m.state.GetQuota()
	if q == nil {
		return styles.DocStyle.Width(m.width).Render(
			styles.HelpStyle.Render("No quota data yet. Press r to refresh."),
		)
	}

	cardWidth := max(m.width-6, 40)

	sections := []string{
		m.renderTitle(),
		m.renderPlanCard(q, cardWidth),
		m.renderQuotaCard(q, cardWidth),
		m.renderProjectionCard(q, cardWidth),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	if m.width <= 0 {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}
	cardWidth := max(m.width-6, 40)
	shimmer := components.RenderLoadingBar(cardWidth-4, m.animationFrame, styles.Primary)
	return lipgloss.JoinVertical(lipgloss.Left,
		components.RenderSpinnerCentered(m.spinner, m.width, max(m.height-2, 0)),
		shimmer,
	)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Help Devoir AI Quota")
	subtitle := styles.HelpStyle.Render("Prompts and tokens left on this device")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func cardHeader(icon, title string) string {
	iconStr := lipgloss.NewStyle().Foreground(styles.Primary).Render(icon)
	return fmt.Sprintf("%s %s", iconStr, styles.CardTitleStyle.Render(title))
}

func (m *Model) renderPlanCard(q *app.QuotaView, width int) string {
	tier := q.Snapshot.Tier
	limits := q.Snapshot.Limits

	price := "Free"
	if !tier.IsFree() {
		price = tier.MonthlyPrice.StringFixed(2) + " €/month"
	}

	badge := styles.GetTierStyle(tier.Tier).Render("◆ " + tier.DisplayName)
	rows := []string{
		cardHeader("◈", "Plan"),
		"",
		fmt.Sprintf("  %s  %s", badge, styles.HelpStyle.Render(price)),
		fmt.Sprintf("  %d prompts, %d tokens, resets %dh after the limit is reached",
			limits.MaxPrompts, limits.MaxTokens, limits.CooldownHours),
		"",
		"  " + m.renderCurrentModel(q),
	}

	if tier.Tier == models.TierFreemium {
		rows = append(rows, "", styles.UpsellStyle.Render("  ╰─▶ Upgrade for more prompts and tokens (Info tab)"))
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderCurrentModel(q *app.QuotaView) string {
	mc := q.CurrentModel
	dot := lipgloss.NewStyle().Foreground(styles.ProviderColor(mc.Provider)).Render("●")
	name := lipgloss.NewStyle().Bold(true).Render(mc.Name)

	status := styles.SuccessTextStyle.Render("fits budget")
	if !q.IsSelectable(mc.ID) {
		status = styles.ErrorTextStyle.Render("over budget")
	}

	provider := ""
	if mc.Provider != "" {
		provider = styles.HelpStyle.Render(fmt.Sprintf(" (%s)", mc.Provider))
	}

	return fmt.Sprintf("%s Model: %s%s  %s", dot, name, provider, status)
}

func (m *Model) renderQuotaCard(q *app.QuotaView, width int) string {
	snap := q.Snapshot
	exceeded := snap.State.IsQuotaExceeded
	inner := width - 4

	rows := []string{
		cardHeader("◈", "Remaining"),
		"",
		m.promptBar.View(snap.State.PromptsUsed, snap.Limits.MaxPrompts, exceeded, inner),
		m.tokenBar.View(snap.State.TokensUsed, snap.Limits.MaxTokens, exceeded, inner),
	}

	if exceeded {
		timeLeft := quota.FormatTimeLeft(snap.TimeUntilReset)
		rows = append(rows,
			m.cooldownBar.View(snap.TimeUntilReset, snap.Limits.Cooldown(), timeLeft, inner),
			"",
			styles.ErrorTextStyle.Render("  Usage limit reached. Time left: "+timeLeft),
		)
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderProjectionCard(q *app.QuotaView, width int) string {
	proj := q.Projection

	badge := styles.GetProjectionStyle(proj.Status).Render(projectionBadge(proj.Status))
	rows := []string{
		cardHeader("◈", "Projection"),
		"",
		fmt.Sprintf("  %s  %s", badge, styles.HelpStyle.Render(proj.Confidence+" confidence")),
	}

	if proj.TokensPerHour > 0 {
		rows = append(rows,
			fmt.Sprintf("  %.0f tokens/h, %.1f prompts/h, %s",
				proj.TokensPerHour, proj.PromptsPerHour, proj.VsAverage),
			fmt.Sprintf("  Runs out in %s", formatHours(proj.HoursLeft)),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("  No recent usage"))
	}

	if len(q.RecentTokens) > 0 {
		spark := components.RenderColoredSparkline(q.RecentTokens, len(q.RecentTokens))
		rows = append(rows, "", fmt.Sprintf("  Last %d days  %s", len(q.RecentTokens), spark))
	}

	return styles.CardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func projectionBadge(status models.ProjectionStatus) string {
	switch status {
	case models.ProjectionCritical:
		return "▲ CRITICAL"
	case models.ProjectionWarning:
		return "▲ WARNING"
	case models.ProjectionSafe:
		return "● SAFE"
	default:
		return "○ UNKNOWN"
	}
}

func formatHours(hours float64) string {
	if hours <= 0 || math.IsInf(hours, 0) || math.IsNaN(hours) {
		return "---"
	}

	h := int(hours)
	m := int((hours - float64(h)) * 60)

	if h >= 24 {
		return fmt.Sprintf("%dd %02dh", h/24, h%24)
	}

	return fmt.Sprintf("%dh %02dm", h, m)
}
