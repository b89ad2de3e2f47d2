package factory

import (
	"fmt"

	"github.com/mikey/llm-notify-gateway/internal/adapters/bedrock"
	"github.com/mikey/llm-notify-gateway/internal/adapters/gemini"
	"github.com/mikey/llm-notify-gateway/internal/adapters/openai"
	"github.com/mikey/llm-notify-gateway/internal/config"
	"github.com/mikey/llm-notify-gateway/internal/core"
	"go.uber.org/zap"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger)
		return factory.CreateClient()
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger)
		return factory.CreateClient()
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger)
		return factory.CreateClient(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
