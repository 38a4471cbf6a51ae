package llm

import (
	"fmt"

	"calai/internal/config"
	"calai/internal/port"
)

// ProviderFactory is a function that creates a ChatModel from a provider config.
type ProviderFactory func(cfg *config.LLMProviderConfig) (port.ChatModel, error)

// registry of chat provider factories, populated explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a chat provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewModel creates a ChatModel from a provider config using the registered factory.
func NewModel(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown chat provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
