package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/apperrors"
	"github.com/glint-analytics/glint-engine/pkg/config"
)

// NewFromConfig creates an LLM client for the configured provider.
// Returns apperrors.ErrNoProviderConfig when no provider is configured,
// which callers treat as "run without AI collaborators".
func NewFromConfig(cfg *config.AIConfig, logger *zap.Logger) (LLMClient, error) {
	if cfg == nil || !cfg.IsAvailable() {
		return nil, apperrors.ErrNoProviderConfig
	}

	var (
		client LLMClient
		err    error
	)
	switch cfg.Provider {
	case config.AIProviderOpenAI:
		client, err = NewClient(&Config{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}

	case config.AIProviderAnthropic:
		client, err = NewAnthropicClient(&AnthropicConfig{
			Model:     cfg.Model,
			APIKey:    cfg.APIKey,
			MaxTokens: cfg.MaxTokens,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}

	logger.Info("LLM client created",
		zap.String("provider", cfg.Provider),
		zap.String("model", client.GetModel()))
	return client, nil
}
