package llm

import (
	"context"
	"fmt"

	"skillforge_backend/internal/config"
)

// NewProvider 按配置创建 provider，并包装超时与观测
func NewProvider(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	var (
		base Provider
		err  error
	)

	switch cfg.Provider {
	case "openai", "":
		base, err = NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithInstrumentation(base, cfg.Provider, cfg.Timeout(), cfg.MaxTokens), nil
}
