// Package models defines data structures and domain types.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionTier is the parent's subscription plan. It drives quota limits.
type SubscriptionTier string

const (
	// TierFreemium is the free plan and the fallback for unknown values.
	TierFreemium SubscriptionTier = "freemium"
	// TierEssential is the entry paid plan.
	TierEssential SubscriptionTier = "essential"
	// TierFamily is the family plan.
	TierFamily SubscriptionTier = "family"
	// TierPremium is the highest plan.
	TierPremium SubscriptionTier = "premium"
)

// AllTiers lists tiers from lowest to highest.
var AllTiers = []SubscriptionTier{TierFreemium, TierEssential, TierFamily, TierPremium}

// ParseTier converts a plan name to a tier. Unknown or empty names resolve to freemium.
func ParseTier(s string) SubscriptionTier {
	t := SubscriptionTier(strings.ToLower(strings.TrimSpace(s)))
	if t.IsValid() {
		return t
	}
	return TierFreemium
}

// IsValid reports whether t is one of the known tiers.
func (t SubscriptionTier) IsValid() bool {
	switch t {
	case TierFreemium, TierEssential, TierFamily, TierPremium:
		return true
	}
	return false
}

func (t SubscriptionTier) String() string {
	return string(t)
}

// QuotaLimits is the per-tier budget.
type QuotaLimits struct {
	MaxPrompts    int `json:"maxPrompts" yaml:"max_prompts"`
	MaxTokens     int `json:"maxTokens" yaml:"max_tokens"`
	CooldownHours int `json:"cooldownHours" yaml:"cooldown_hours"`
}

// Cooldown returns the reset window as a duration.
func (l QuotaLimits) Cooldown() time.Duration {
	return time.Duration(l.CooldownHours) * time.Hour
}

// TierInfo is the display metadata of a plan.
type TierInfo struct {
	Tier         SubscriptionTier `json:"tier"`
	DisplayName  string           `json:"displayName"`
	MonthlyPrice decimal.Decimal  `json:"monthlyPrice"`
	Limits       QuotaLimits      `json:"limits"`
}

// IsFree reports whether the plan costs nothing.
func (i TierInfo) IsFree() bool {
	return i.MonthlyPrice.IsZero()
}

// LedgerState is the persisted quota aggregate for the local account.
type LedgerState struct {
	LastResetTime   time.Time  `json:"lastResetTime"`
	NextResetTime   *time.Time `json:"nextResetTime,omitempty"`
	PromptsUsed     int        `json:"promptsUsed"`
	TokensUsed      int        `json:"tokensUsed"`
	IsQuotaExceeded bool       `json:"isQuotaExceeded"`
}

// Clone returns a deep copy of the state.
func (s LedgerState) Clone() LedgerState {
	c := s
	if s.NextResetTime != nil {
		next := *s.NextResetTime
		c.NextResetTime = &next
	}
	return c
}

// RemainingQuota is what is left of the budget. Both fields are never negative.
type RemainingQuota struct {
	Prompts int `json:"prompts"`
	Tokens  int `json:"tokens"`
}

// QuotaSnapshot is a read-only view of the ledger used by the UI.
type QuotaSnapshot struct {
	State          LedgerState
	Limits         QuotaLimits
	Remaining      RemainingQuota
	Tier           TierInfo
	TimeUntilReset time.Duration
}

// PromptsPercent returns remaining prompts as a percentage of the limit.
func (s QuotaSnapshot) PromptsPercent() float64 {
	return percentOf(s.Remaining.Prompts, s.Limits.MaxPrompts)
}

// TokensPercent returns remaining tokens as a percentage of the limit.
func (s QuotaSnapshot) TokensPercent() float64 {
	return percentOf(s.Remaining.Tokens, s.Limits.MaxTokens)
}

func percentOf(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
