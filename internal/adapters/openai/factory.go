package openai

import (
	"github.com/mikey/llm-notify-gateway/internal/config"
	"go.uber.org/zap"
)

// Factory creates OpenAI clients
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new OpenAI factory
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a new OpenAI client
func (f *Factory) CreateClient() *OpenAIClient {
	openaiCfg := f.cfg.GetOpenAI()

	return NewOpenAIClient(
		openaiCfg.APIKey,
		openaiCfg.ModelName,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		f.logger,
	)
}
