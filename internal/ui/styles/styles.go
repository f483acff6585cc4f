// Package styles defines the visual styling for the application.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/helpdevoir/hdq/internal/models"
)

// Palette.
var (
	Primary   = lipgloss.Color("99")  // Indigo
	Secondary = lipgloss.Color("135") // Purple
	Subtle    = lipgloss.Color("240") // Gray
	Accent    = lipgloss.Color("214") // Amber, used for upsell copy

	Success = lipgloss.Color("42")
	Error   = lipgloss.Color("196")
	Warning = lipgloss.Color("220")
	Info    = lipgloss.Color("39")

	BgDark  = lipgloss.Color("235")
	BgLight = lipgloss.Color("237")

	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// Provider colors, keyed by models.Provider.
var providerColors = map[models.Provider]lipgloss.Color{
	models.ProviderAnthropic: lipgloss.Color("#cc785c"),
	models.ProviderOpenAI:    lipgloss.Color("#10a37f"),
	models.ProviderMistral:   lipgloss.Color("#ff7000"),
	models.ProviderAWS:       lipgloss.Color("#ff9900"),
	models.ProviderReplicate: lipgloss.Color("#4285f4"),
	models.ProviderPistral:   lipgloss.Color("#b197fc"),
}

// ToastStyle for floating notifications.
var ToastStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Padding(0, 1).
	MarginBottom(1)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

var FocusedStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

var ProgressLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(20)

// TableHeaderStyle styles table headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Subtle)

// TableCellStyle styles table cells.
var TableCellStyle = lipgloss.NewStyle().
	Foreground(TextPrimary)

// TableSelectedStyle marks the current model row.
var TableSelectedStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// Tier badges.
var (
	TierFreemiumStyle = lipgloss.NewStyle().
				Foreground(TextSecondary).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Subtle).
				Padding(0, 1)

	TierEssentialStyle = lipgloss.NewStyle().
				Foreground(Info).
				Bold(true).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Info).
				Padding(0, 1)

	TierFamilyStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Success).
			Padding(0, 1)

	TierPremiumStyle = lipgloss.NewStyle().
				Foreground(Accent).
				Bold(true).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Accent).
				Padding(0, 1)
)

// QuotaHighStyle for high quota percentages (>50%).
var QuotaHighStyle = lipgloss.NewStyle().
	Foreground(Success)

// QuotaMediumStyle for medium quota percentages (20-50%).
var QuotaMediumStyle = lipgloss.NewStyle().
	Foreground(Warning)

// QuotaLowStyle for low quota percentages (<20%).
var QuotaLowStyle = lipgloss.NewStyle().
	Foreground(Error)

// QuotaExceededStyle for an exhausted ledger.
var QuotaExceededStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true).
	Italic(true)

var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// UpsellStyle highlights plan upgrade copy.
var UpsellStyle = lipgloss.NewStyle().
	Foreground(Accent).
	Bold(true)

// ModalContentStyle styles the quota exceeded modal.
var ModalContentStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Error).
	Padding(1, 2).
	Background(BgDark)

// ModalTitleStyle styles the modal heading.
var ModalTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Error)

// ButtonStyle is the base button style.
var ButtonStyle = lipgloss.NewStyle().
	Padding(0, 2).
	MarginRight(1)

// ButtonActiveStyle styles the primary modal action.
var ButtonActiveStyle = ButtonStyle.
	Background(Primary).
	Foreground(lipgloss.Color("229")).
	Bold(true)

var ButtonInactiveStyle = ButtonStyle.
	Background(BgLight).
	Foreground(TextSecondary)

var ProjectionSafeStyle = lipgloss.NewStyle().
	Foreground(Success)

var ProjectionWarningStyle = lipgloss.NewStyle().
	Foreground(Warning).
	Bold(true)

var ProjectionCriticalStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true)

var ProjectionUnknownStyle = lipgloss.NewStyle().
	Foreground(Subtle)

// GetQuotaStyle returns the appropriate style based on quota percentage.
func GetQuotaStyle(percent float64, exceeded bool) lipgloss.Style {
	if exceeded {
		return QuotaExceededStyle
	}
	switch {
	case percent > 50:
		return QuotaHighStyle
	case percent > 20:
		return QuotaMediumStyle
	default:
		return QuotaLowStyle
	}
}

// GetTierStyle returns the badge style for a subscription tier.
func GetTierStyle(tier models.SubscriptionTier) lipgloss.Style {
	switch tier {
	case models.TierEssential:
		return TierEssentialStyle
	case models.TierFamily:
		return TierFamilyStyle
	case models.TierPremium:
		return TierPremiumStyle
	default:
		return TierFreemiumStyle
	}
}

// GetProjectionStyle returns the style for a projection status.
func GetProjectionStyle(status models.ProjectionStatus) lipgloss.Style {
	switch status {
	case models.ProjectionCritical:
		return ProjectionCriticalStyle
	case models.ProjectionWarning:
		return ProjectionWarningStyle
	case models.ProjectionSafe:
		return ProjectionSafeStyle
	default:
		return ProjectionUnknownStyle
	}
}

// ProviderColor returns the brand color of a model provider.
func ProviderColor(p models.Provider) lipgloss.Color {
	if c, ok := providerColors[p]; ok {
		return c
	}
	return Secondary
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
