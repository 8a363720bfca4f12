package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/glint-analytics/glint-engine/pkg/apperrors"
	"github.com/glint-analytics/glint-engine/pkg/config"
	"github.com/glint-analytics/glint-engine/pkg/llm"
	"github.com/glint-analytics/glint-engine/pkg/retry"
)

// generateWithRetry calls the LLM once per attempt, retrying only transient
// failures. KPI executions are never retried; this policy exists solely for
// the LLM collaborators.
func generateWithRetry(ctx context.Context, client llm.LLMClient, cfg *config.AIConfig, logger *zap.Logger, prompt, systemMessage string) (string, error) {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.MaxRetries

	result, err := retry.DoWithResultIfRetryable(ctx, retryCfg, func() (*llm.GenerateResponseResult, error) {
		return client.GenerateResponse(ctx, prompt, systemMessage, cfg.Temperature)
	})
	if err != nil {
		logger.Warn("LLM call failed",
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.Error(err))
		return "", fmt.Errorf("LLM generate response: %w", err)
	}

	logger.Debug("LLM response received",
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens))

	content := strings.TrimSpace(result.Content)
	if content == "" {
		return "", apperrors.ErrEmptyLLMResponse
	}
	return content, nil
}
