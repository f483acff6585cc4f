package usage

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/helpdevoir/hdq/internal/models"
)

// DefaultMaxTokensPerRequest is the token ceiling used for models that do not set one.
const DefaultMaxTokensPerRequest = 4096

var defaultModels = []models.ModelConfig{
	{ID: "claude-3-sonnet", Name: "Claude 3 Sonnet", Provider: models.ProviderAnthropic, MaxTokens: 4096, Temperature: 0.7},
	{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Provider: models.ProviderOpenAI, MaxTokens: 4096, Temperature: 0.7},
	{ID: "mistral-large", Name: "Mistral Large", Provider: models.ProviderMistral, MaxTokens: 4096, Temperature: 0.7},
	{ID: "pistral-12b", Name: "Pistral 12B", Provider: models.ProviderPistral, MaxTokens: 4096, Temperature: 0.7},
	{ID: "pistral-12b-instruct", Name: "Pistral 12B Instruct", Provider: models.ProviderPistral, MaxTokens: 4096, Temperature: 0.7},
	{ID: "llama-2-70b", Name: "Llama 2 70B", Provider: models.ProviderReplicate, MaxTokens: 4096, Temperature: 0.7},
}

// Prices in USD per 1000 tokens.
var defaultPrices = map[string]string{
	"claude-3-sonnet": "0.015",
	"gpt-4-turbo":     "0.01",
	"mistral-large":   "0.008",
	"pistral-12b":     "0.006",
	"llama-2-70b":     "0.005",
}

const defaultPricePer1K = "0.01"

// Catalog holds model metadata and per-model prices. It is safe for
// concurrent use and satisfies config.ModelRegistry.
type Catalog struct {
	models       map[string]models.ModelConfig
	prices       map[string]decimal.Decimal
	defaultPrice decimal.Decimal
	maxTokens    int
	mu           sync.RWMutex
}

// NewCatalog creates an empty catalog with the default price and ceiling.
func NewCatalog() *Catalog {
	return &Catalog{
		models:       make(map[string]models.ModelConfig),
		prices:       make(map[string]decimal.Decimal),
		defaultPrice: decimal.RequireFromString(defaultPricePer1K),
		maxTokens:    DefaultMaxTokensPerRequest,
	}
}

// DefaultCatalog returns the built-in model and price tables.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, m := range defaultModels {
		c.models[m.ID] = m
	}
	for id, p := range defaultPrices {
		c.prices[id] = decimal.RequireFromString(p)
	}
	return c
}

// Register adds or replaces a model. A nil price keeps any existing price.
func (c *Catalog) Register(cfg models.ModelConfig, pricePer1K *decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.models[cfg.ID] = cfg
	if pricePer1K != nil {
		c.prices[cfg.ID] = *pricePer1K
	}
}

// SetDefaultPrice sets the price used for models without their own.
func (c *Catalog) SetDefaultPrice(pricePer1K decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultPrice = pricePer1K
}

// SetMaxTokensPerRequest sets the fallback token ceiling.
func (c *Catalog) SetMaxTokensPerRequest(n int) error {
	if n <= 0 {
		return ErrInvalidTokenLimit
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxTokens = n
	return nil
}

// MaxTokensPerRequest returns the fallback token ceiling.
func (c *Catalog) MaxTokensPerRequest() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxTokens
}

// PricePer1K returns the price of a model, falling back to the default price.
func (c *Catalog) PricePer1K(modelID string) decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if p, ok := c.prices[modelID]; ok {
		return p
	}
	return c.defaultPrice
}

// Cost returns the price of the given tokens on a model.
func (c *Catalog) Cost(modelID string, tokens int) decimal.Decimal {
	return decimal.NewFromInt(int64(tokens)).
		Mul(c.PricePer1K(modelID)).
		Div(decimal.NewFromInt(1000))
}

// Lookup returns a model by id.
func (c *Catalog) Lookup(modelID string) (models.ModelConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[modelID]
	return m, ok
}

// TokenLimit returns the model's ceiling, or the fallback ceiling when the
// model is unknown or sets none.
func (c *Catalog) TokenLimit(modelID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, ok := c.models[modelID]; ok && m.MaxTokens > 0 {
		return m.MaxTokens
	}
	return c.maxTokens
}

// Models returns all models sorted by id.
func (c *Catalog) Models() []models.ModelConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.ModelConfig, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
