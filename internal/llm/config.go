// Package llm provides the model client abstraction used by the analysis
// stage.
package llm

// ModelTier selects the capability level of the underlying model.
type ModelTier string

const (
	// TierLite is for cheap classification and summarization tasks.
	TierLite ModelTier = "lite"
	// TierStandard is for structured extraction with moderate reasoning.
	TierStandard ModelTier = "standard"
)

// Provider identifies an LLM provider.
type Provider string

const (
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini Provider = "gemini"
)

// Config holds the model selection for the service.
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
}

// DefaultConfig returns the default Gemini configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
	}
}

// GetModel returns the model name for a tier, falling back to the standard
// tier when the requested one is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	return c.Models[TierStandard]
}
