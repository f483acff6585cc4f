package models

// Provider identifies the vendor behind a model.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderMistral   Provider = "mistral"
	ProviderAWS       Provider = "aws"
	ProviderReplicate Provider = "replicate"
	ProviderPistral   Provider = "pistral"
)

// ModelConfig is static metadata for an AI model.
type ModelConfig struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Provider    Provider `json:"provider" yaml:"provider"`
	MaxTokens   int      `json:"maxTokens" yaml:"max_tokens"`
	Temperature float64  `json:"temperature" yaml:"temperature"`
}
