package quota

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helpdevoir/hdq/internal/models"
)

// DefaultTiers returns the built-in plan table.
func DefaultTiers() map[models.SubscriptionTier]models.TierInfo {
	return map[models.SubscriptionTier]models.TierInfo{
		models.TierFreemium: {
			Tier:         models.TierFreemium,
			DisplayName:  "Freemium",
			MonthlyPrice: decimal.Zero,
			Limits:       models.QuotaLimits{MaxPrompts: 10, MaxTokens: 1000, CooldownHours: 24},
		},
		models.TierEssential: {
			Tier:         models.TierEssential,
			DisplayName:  "Essentiel",
			MonthlyPrice: decimal.RequireFromString("9.99"),
			Limits:       models.QuotaLimits{MaxPrompts: 50, MaxTokens: 5000, CooldownHours: 12},
		},
		models.TierFamily: {
			Tier:         models.TierFamily,
			DisplayName:  "Famille",
			MonthlyPrice: decimal.RequireFromString("19.99"),
			Limits:       models.QuotaLimits{MaxPrompts: 100, MaxTokens: 10000, CooldownHours: 6},
		},
		models.TierPremium: {
			Tier:         models.TierPremium,
			DisplayName:  "Premium",
			MonthlyPrice: decimal.RequireFromString("29.99"),
			Limits:       models.QuotaLimits{MaxPrompts: 500, MaxTokens: 50000, CooldownHours: 1},
		},
	}
}

// DefaultLimits returns the built-in limits keyed by tier.
func DefaultLimits() map[models.SubscriptionTier]models.QuotaLimits {
	tiers := DefaultTiers()
	limits := make(map[models.SubscriptionTier]models.QuotaLimits, len(tiers))
	for t, info := range tiers {
		limits[t] = info.Limits
	}
	return limits
}

// LimitsFor returns the built-in limits of a tier. Unknown tiers get freemium limits.
func LimitsFor(tier models.SubscriptionTier) models.QuotaLimits {
	return DefaultTiers()[models.ParseTier(string(tier))].Limits
}

// TimeUntil returns the non-negative duration from now until t. A zero t yields 0.
func TimeUntil(t, now time.Time) time.Duration {
	if t.IsZero() {
		return 0
	}
	return max(t.Sub(now), 0)
}

// FormatTimeLeft renders a duration as "Xh Ym", the form shown in the
// quota exceeded modal.
func FormatTimeLeft(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// FormatResetTime renders a compact countdown for status bars.
func FormatResetTime(d time.Duration) string {
	if d <= 0 {
		return "Now"
	}

	if d < time.Minute {
		return "< 1m"
	}

	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}

	return fmt.Sprintf("%dh%dm", hours, minutes)
}
