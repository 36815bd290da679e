package ai

import (
	"context"
	"fmt"

	"github.com/benvon/social-momentum/internal/config"
	"go.uber.org/zap"
)

// Provider is a chat-completion backend that answers with a JSON object
type Provider interface {
	// CompleteJSON sends a system prompt and a user turn and returns the raw
	// JSON object the model produced.
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ProviderConfig configures a provider instance
type ProviderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Logger    *zap.Logger
	DebugMode bool
}

// ProviderFactory creates a provider from its configuration
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates an empty provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// NewDefaultRegistry returns a registry with the built-in providers registered
func NewDefaultRegistry() *ProviderRegistry {
	r := NewProviderRegistry()
	r.Register("openai", func(cfg ProviderConfig) (Provider, error) {
		return NewOpenAIProvider(cfg), nil
	})
	return r
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider builds the named provider
func (r *ProviderRegistry) GetProvider(name string, cfg ProviderConfig) (Provider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(cfg)
}

// FromConfig builds the configured provider. It returns a nil Provider when
// no API key is set, which leaves the agent on templates.
func (r *ProviderRegistry) FromConfig(cfg config.AIConfig, logger *zap.Logger, debugMode bool) (Provider, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	name := cfg.Provider
	if name == "" {
		name = "openai"
	}
	p, err := r.GetProvider(name, ProviderConfig{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Logger:    logger,
		DebugMode: debugMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	if logger != nil {
		logger.Info("ai_provider_configured",
			zap.String("provider", name),
			zap.String("model", cfg.Model),
			zap.String("api_key", SanitizeAPIKey(cfg.APIKey)),
		)
	}
	return p, nil
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
