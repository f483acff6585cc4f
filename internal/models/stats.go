// Package models defines data structures and domain types.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageRecord is one completed AI call. Records are append-only.
type UsageRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Cost      decimal.Decimal `json:"cost"`
	ID        string          `json:"id"`
	ModelID   string          `json:"modelId"`
	Tokens    int             `json:"tokens"`
}

// ModelUsage aggregates usage of a single model.
type ModelUsage struct {
	Cost   decimal.Decimal `json:"cost"`
	Tokens int             `json:"tokens"`
}

// UsageStats aggregates usage over a window of days.
type UsageStats struct {
	UsageByModel map[string]ModelUsage `json:"usageByModel"`
	TotalCost    decimal.Decimal       `json:"totalCost"`
	TotalTokens  int                   `json:"totalTokens"`
	WindowDays   int                   `json:"windowDays"`
}
