package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/helpdevoir/hdq/internal/models"
)

// Catalog holds optional overrides for plan limits and model pricing.
// Anything not listed keeps its built-in value.
type Catalog struct {
	Tiers             map[models.SubscriptionTier]TierOverride `yaml:"tiers"`
	DefaultPricePer1K *decimal.Decimal                         `yaml:"default_price_per_1k"`
	Models            []ModelOverride                          `yaml:"models"`
	DefaultMaxTokens  int                                      `yaml:"default_max_tokens"`
}

// TierOverride replaces the limits of one plan.
type TierOverride struct {
	MonthlyPrice       *decimal.Decimal `yaml:"monthly_price"`
	DisplayName        string           `yaml:"display_name"`
	models.QuotaLimits `yaml:",inline"`
}

// ModelOverride adds or replaces a model and its price per 1000 tokens.
type ModelOverride struct {
	PricePer1K         *decimal.Decimal `yaml:"price_per_1k"`
	models.ModelConfig `yaml:",inline"`
}

// ModelRegistry receives model overrides.
type ModelRegistry interface {
	Register(cfg models.ModelConfig, pricePer1K *decimal.Decimal)
	SetDefaultPrice(pricePer1K decimal.Decimal)
	SetMaxTokensPerRequest(n int) error
}

// LoadCatalog reads a YAML catalog. An empty path yields an empty catalog.
// Environment variables in the format ${VAR} are expanded before parsing.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return &Catalog{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return ParseCatalog([]byte(os.ExpandEnv(string(data))))
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}

	return &cat, nil
}

// Validate checks tiers, limits, prices and model ids.
func (c *Catalog) Validate() error {
	for tier, o := range c.Tiers {
		if !tier.IsValid() {
			return fmt.Errorf("catalog: unknown tier %q", tier)
		}
		if o.MaxPrompts < 0 || o.MaxTokens < 0 || o.CooldownHours < 0 {
			return fmt.Errorf("catalog: tier %q: limits must be non-negative", tier)
		}
		if o.MonthlyPrice != nil && o.MonthlyPrice.IsNegative() {
			return fmt.Errorf("catalog: tier %q: monthly_price must be non-negative", tier)
		}
	}

	ids := make(map[string]bool, len(c.Models))
	for i, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("catalog: models[%d]: id is required", i)
		}
		if ids[m.ID] {
			return fmt.Errorf("catalog: duplicate model id %q", m.ID)
		}
		ids[m.ID] = true
		if m.MaxTokens < 0 {
			return fmt.Errorf("catalog: model %q: max_tokens must be non-negative", m.ID)
		}
		if m.PricePer1K != nil && m.PricePer1K.IsNegative() {
			return fmt.Errorf("catalog: model %q: price_per_1k must be non-negative", m.ID)
		}
	}

	if c.DefaultPricePer1K != nil && c.DefaultPricePer1K.IsNegative() {
		return fmt.Errorf("catalog: default_price_per_1k must be non-negative")
	}
	if c.DefaultMaxTokens < 0 {
		return fmt.Errorf("catalog: default_max_tokens must be non-negative")
	}

	return nil
}

// ApplyTiers overlays tier overrides onto base in place.
func (c *Catalog) ApplyTiers(base map[models.SubscriptionTier]models.TierInfo) {
	for tier, o := range c.Tiers {
		info := base[tier]
		info.Tier = tier
		info.Limits = o.QuotaLimits
		if o.DisplayName != "" {
			info.DisplayName = o.DisplayName
		}
		if o.MonthlyPrice != nil {
			info.MonthlyPrice = *o.MonthlyPrice
		}
		base[tier] = info
	}
}

// ApplyModels registers model overrides and defaults.
func (c *Catalog) ApplyModels(reg ModelRegistry) error {
	for _, m := range c.Models {
		reg.Register(m.ModelConfig, m.PricePer1K)
	}
	if c.DefaultPricePer1K != nil {
		reg.SetDefaultPrice(*c.DefaultPricePer1K)
	}
	if c.DefaultMaxTokens > 0 {
		if err := reg.SetMaxTokensPerRequest(c.DefaultMaxTokens); err != nil {
			return fmt.Errorf("failed to apply default_max_tokens: %w", err)
		}
	}
	return nil
}
