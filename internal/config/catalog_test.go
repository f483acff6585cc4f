package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/helpdevoir/hdq/internal/models"
)

const sampleCatalog = `
default_price_per_1k: 0.02
default_max_tokens: 2048
tiers:
  freemium:
    max_prompts: 5
    max_tokens: 500
    cooldown_hours: 48
  premium:
    display_name: Premium+
    monthly_price: 34.99
    max_prompts: 1000
    max_tokens: 100000
    cooldown_hours: 1
models:
  - id: claude-3-sonnet
    name: Claude 3 Sonnet
    provider: anthropic
    max_tokens: 8192
    temperature: 0.5
    price_per_1k: 0.012
  - id: local-llm
    name: Local LLM
    provider: replicate
    max_tokens: 1024
`

type fakeRegistry struct {
	registered   map[string]models.ModelConfig
	prices       map[string]*decimal.Decimal
	defaultPrice decimal.Decimal
	maxTokens    int
}

func (f *fakeRegistry) Register(cfg models.ModelConfig, price *decimal.Decimal) {
	if f.registered == nil {
		f.registered = make(map[string]models.ModelConfig)
		f.prices = make(map[string]*decimal.Decimal)
	}
	f.registered[cfg.ID] = cfg
	f.prices[cfg.ID] = price
}

func (f *fakeRegistry) SetDefaultPrice(p decimal.Decimal) { f.defaultPrice = p }

func (f *fakeRegistry) SetMaxTokensPerRequest(n int) error {
	f.maxTokens = n
	return nil
}

func TestParseCatalog(t *testing.T) {
	cat, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog() failed: %v", err)
	}

	if len(cat.Tiers) != 2 {
		t.Fatalf("len(Tiers) = %d, want 2", len(cat.Tiers))
	}
	free := cat.Tiers[models.TierFreemium]
	if free.MaxPrompts != 5 || free.MaxTokens != 500 || free.CooldownHours != 48 {
		t.Errorf("freemium override = %+v", free.QuotaLimits)
	}
	if !cat.DefaultPricePer1K.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("DefaultPricePer1K = %s, want 0.02", cat.DefaultPricePer1K)
	}
	if len(cat.Models) != 2 || cat.Models[0].Provider != models.ProviderAnthropic {
		t.Errorf("Models = %+v", cat.Models)
	}
	if cat.Models[1].PricePer1K != nil {
		t.Error("local-llm should have no explicit price")
	}
}

func TestCatalog_ApplyTiers(t *testing.T) {
	cat, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog() failed: %v", err)
	}

	base := map[models.SubscriptionTier]models.TierInfo{
		models.TierFreemium: {Tier: models.TierFreemium, DisplayName: "Freemium"},
		models.TierPremium:  {Tier: models.TierPremium, DisplayName: "Premium", MonthlyPrice: decimal.RequireFromString("29.99")},
		models.TierFamily:   {Tier: models.TierFamily, DisplayName: "Famille"},
	}
	cat.ApplyTiers(base)

	if base[models.TierFreemium].DisplayName != "Freemium" {
		t.Error("display name should be kept when override omits it")
	}
	if base[models.TierFreemium].Limits.MaxPrompts != 5 {
		t.Errorf("freemium MaxPrompts = %d, want 5", base[models.TierFreemium].Limits.MaxPrompts)
	}
	if base[models.TierPremium].DisplayName != "Premium+" {
		t.Errorf("premium DisplayName = %q, want Premium+", base[models.TierPremium].DisplayName)
	}
	if !base[models.TierPremium].MonthlyPrice.Equal(decimal.RequireFromString("34.99")) {
		t.Errorf("premium MonthlyPrice = %s, want 34.99", base[models.TierPremium].MonthlyPrice)
	}
	if base[models.TierFamily].DisplayName != "Famille" {
		t.Error("untouched tier should be unchanged")
	}
}

func TestCatalog_ApplyModels(t *testing.T) {
	cat, err := ParseCatalog([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog() failed: %v", err)
	}

	reg := &fakeRegistry{}
	if err := cat.ApplyModels(reg); err != nil {
		t.Fatalf("ApplyModels() failed: %v", err)
	}

	if reg.registered["claude-3-sonnet"].MaxTokens != 8192 {
		t.Errorf("claude MaxTokens = %d, want 8192", reg.registered["claude-3-sonnet"].MaxTokens)
	}
	if _, ok := reg.registered["local-llm"]; !ok {
		t.Error("local-llm should be registered")
	}
	if !reg.defaultPrice.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("defaultPrice = %s, want 0.02", reg.defaultPrice)
	}
	if reg.maxTokens != 2048 {
		t.Errorf("maxTokens = %d, want 2048", reg.maxTokens)
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"UnknownTier", "tiers:\n  gold:\n    max_prompts: 1\n"},
		{"NegativeLimit", "tiers:\n  family:\n    max_tokens: -5\n"},
		{"DuplicateModel", "models:\n  - id: a\n  - id: a\n"},
		{"MissingID", "models:\n  - name: nameless\n"},
		{"NegativePrice", "models:\n  - id: a\n    price_per_1k: -1\n"},
		{"NegativeDefaultPrice", "default_price_per_1k: -0.5\n"},
		{"Garbage", "tiers: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tt.yaml)); err == nil {
				t.Errorf("ParseCatalog() should fail for %s", tt.name)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog(\"\") failed: %v", err)
	}
	if len(cat.Tiers) != 0 || len(cat.Models) != 0 {
		t.Error("empty path should yield an empty catalog")
	}

	t.Setenv("HDQ_TEST_PROMPTS", "42")
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "tiers:\n  essential:\n    max_prompts: ${HDQ_TEST_PROMPTS}\n    max_tokens: 10\n    cooldown_hours: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	cat, err = LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() failed: %v", err)
	}
	if cat.Tiers[models.TierEssential].MaxPrompts != 42 {
		t.Errorf("MaxPrompts = %d, want 42 from env expansion", cat.Tiers[models.TierEssential].MaxPrompts)
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadCatalog() should fail for a missing file")
	}
}
