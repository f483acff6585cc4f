package info

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/helpdevoir/hdq/internal/config"
	"github.com/helpdevoir/hdq/internal/models"
	"github.com/helpdevoir/hdq/internal/ui/styles"
	"github.com/helpdevoir/hdq/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderPlansCard(),
		m.renderModelsCard(),
		m.renderConfigCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Plans, models and configuration")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderPlansCard() string {
	rows := []string{styles.CardTitleStyle.Render("Plans"), ""}

	if m.services == nil {
		rows = append(rows, styles.HelpStyle.Render("Services not initialized"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	current := m.services.Profile().Tier()
	rows = append(rows, styles.TableHeaderStyle.Render(
		fmt.Sprintf("  %-12s %10s %8s %8s %9s", "Plan", "Price", "Prompts", "Tokens", "Cooldown")))

	for _, info := range m.services.Tiers() {
		price := "Free"
		if !info.IsFree() {
			price = info.MonthlyPrice.StringFixed(2) + " €"
		}

		marker := "  "
		if info.Tier == current {
			marker = styles.FocusedStyle.Render("▸ ")
		}

		name := styles.GetTierStyle(info.Tier).Render(fmt.Sprintf("%-12s", info.DisplayName))
		rows = append(rows, marker+name+styles.TableCellStyle.Render(fmt.Sprintf(" %10s %8d %8d %8dh",
			price, info.Limits.MaxPrompts, info.Limits.MaxTokens, info.Limits.CooldownHours)))
	}

	rows = append(rows, "", styles.InfoTextStyle.Render("Press 'p' to switch plan"))
	if current == models.TierFreemium {
		rows = append(rows, styles.UpsellStyle.Render("Premium benefits: more prompts and tokens, shorter cooldown"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderModelsCard() string {
	rows := []string{styles.CardTitleStyle.Render("Models"), ""}

	if m.services == nil {
		rows = append(rows, styles.HelpStyle.Render("Services not initialized"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	recorder := m.services.Recorder()
	current := recorder.CurrentModel()

	quota := m.state.GetQuota()

	for _, mc := range recorder.Models() {
		marker := "  "
		nameStyle := lipgloss.NewStyle().Foreground(styles.ProviderColor(mc.Provider))
		if mc.ID == current {
			marker = styles.FocusedStyle.Render("▸ ")
			nameStyle = styles.TableSelectedStyle
		}

		name := nameStyle.Render(fmt.Sprintf("%-26s", mc.Name))
		line := fmt.Sprintf("%s%s %-10s %6d max  $%s/1K", marker, name, mc.Provider,
			recorder.TokenLimit(mc.ID), recorder.Catalog().PricePer1K(mc.ID).StringFixed(4))
		if quota != nil && !quota.IsSelectable(mc.ID) {
			line += " " + styles.ErrorTextStyle.Render("over budget")
		}
		rows = append(rows, line)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if m.services == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	cfg := m.services.Config()
	catalog := cfg.CatalogPath
	if catalog == "" {
		catalog = "built-in"
	}
	logPath := cfg.LogPath
	if logPath == "" {
		logPath = "stderr"
	}

	rows = append(rows,
		m.renderConfigRow("Storage", string(cfg.StorageBackend)),
		m.renderConfigRow("Location", m.services.StorageLocation()),
	)
	if cfg.StorageBackend == config.BackendSQLite {
		rows = append(rows, m.renderConfigRow("Database", cfg.DatabasePath))
	}
	rows = append(rows,
		m.renderConfigRow("Profile", cfg.ProfilePath),
		m.renderConfigRow("Catalog", catalog),
		m.renderConfigRow("Log", fmt.Sprintf("%s (%s)", logPath, cfg.LogLevel)),
		m.renderConfigRow("Request Estimate", fmt.Sprintf("%d tokens", cfg.RequestTokenEstimate)),
		m.renderConfigRow("Reset Check", cfg.ResetCheckInterval.String()),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About hdq"),
		"",
		m.renderConfigRow("Version", version.GetVersion()),
		m.renderConfigRow("Build Date", version.GetDate()),
		m.renderConfigRow("Git Commit", version.GetCommit()),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
