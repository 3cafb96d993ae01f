package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Modes accepted by NewLLMClient.
const (
	ModeOpenAI = "openai"
	ModeGemini = "gemini"
	ModeMock   = "mock"
)

// Config selects and configures the backing model.
type Config struct {
	Mode         string
	BaseURL      string
	APIKey       string
	Model        string
	GeminiAPIKey string
	GeminiModel  string
	Timeout      time.Duration
}

// NewLLMClient creates an LLM client based on cfg.Mode. It returns a nil
// client and no error when the selected backend has no credentials.
func NewLLMClient(ctx context.Context, cfg Config, logger *zap.Logger) (LLMClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(cfg.Mode) {
	case ModeMock:
		logger.Info("LLM_MODE=mock detected, using mock LLM client")
		return NewMockClient(), nil
	case ModeGemini:
		if cfg.GeminiAPIKey == "" {
			logger.Warn("GEMINI_API_KEY is not set, the assistant is disabled")
			return nil, nil
		}
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Timeout)
	case "", ModeOpenAI:
		if cfg.APIKey == "" {
			logger.Warn("LLM_API_KEY is not set, the assistant is disabled")
			return nil, nil
		}
		return NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown LLM_MODE %q", cfg.Mode)
	}
}
