package factory

import (
	"fmt"

	"github.com/mikey/llm-notify-gateway/internal/adapters/telegram"
	"github.com/mikey/llm-notify-gateway/internal/config"
	"github.com/mikey/llm-notify-gateway/internal/core"
	"github.com/mikey/llm-notify-gateway/internal/utils"
	"go.uber.org/zap"
)

// MessengerFactory creates messengers based on configuration
type MessengerFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	textProc *utils.TextProcessor
}

// NewMessengerFactory creates a new messenger factory
func NewMessengerFactory(cfg *config.Config, logger *zap.Logger, textProc *utils.TextProcessor) *MessengerFactory {
	return &MessengerFactory{
		cfg:      cfg,
		logger:   logger,
		textProc: textProc,
	}
}

// CreateMessenger creates the Telegram messenger
func (f *MessengerFactory) CreateMessenger() (core.Messenger, error) {
	telegramCfg, err := f.cfg.GetTelegram()
	if err != nil {
		return nil, fmt.Errorf("invalid telegram configuration: %w", err)
	}

	return telegram.NewMessenger(
		telegramCfg.BotToken,
		telegramCfg.ChatID,
		telegramCfg.Timeout,
		f.textProc,
		f.logger,
	), nil
}
