package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mikey/llm-notify-gateway/internal/core"
	"github.com/mikey/llm-notify-gateway/internal/utils"
	"go.uber.org/zap"
)

// alertTextFormat is the Markdown body of an alert message. The preview of
// the original message rides below the summary.
const alertTextFormat = "*Attention needed*\n\n%s\n\n_Original:_ %s"

// alertTextMax keeps the rendered alert under Telegram's 4096-character
// message limit with headroom for the Markdown scaffolding.
const alertTextMax = 4000

// Bot is the subset of the Telegram bot API the messenger uses.
// *tgbotapi.BotAPI satisfies it directly.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// BotFactory creates a Bot from a token and an HTTP client
type BotFactory func(token string, client *http.Client) (Bot, error)

func defaultBotFactory(token string, client *http.Client) (Bot, error) {
	return tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
}

// Messenger is a Telegram implementation of the Messenger interface. The bot
// connection is established lazily on first send so the service starts even
// when Telegram is unreachable.
type Messenger struct {
	token      string
	chatID     int64
	httpClient *http.Client
	factory    BotFactory
	textProc   *utils.TextProcessor
	logger     *zap.Logger

	mu  sync.Mutex
	bot Bot
}

// NewMessenger creates a new Telegram messenger. An empty token or chat id
// leaves the messenger unconfigured; sends will report a descriptive error.
func NewMessenger(
	token string,
	chatID string,
	timeout time.Duration,
	textProc *utils.TextProcessor,
	logger *zap.Logger,
) *Messenger {
	return newMessenger(token, chatID, timeout, textProc, logger, defaultBotFactory)
}

// NewMessengerWithFactory creates a messenger with a custom bot factory
func NewMessengerWithFactory(
	token string,
	chatID string,
	timeout time.Duration,
	textProc *utils.TextProcessor,
	logger *zap.Logger,
	factory BotFactory,
) *Messenger {
	return newMessenger(token, chatID, timeout, textProc, logger, factory)
}

func newMessenger(
	token string,
	chatID string,
	timeout time.Duration,
	textProc *utils.TextProcessor,
	logger *zap.Logger,
	factory BotFactory,
) *Messenger {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil && chatID != "" {
		logger.Warn("Invalid Telegram chat id", zap.String("chat_id", chatID))
		id = 0
	}

	return &Messenger{
		token:      token,
		chatID:     id,
		httpClient: &http.Client{Timeout: timeout},
		factory:    factory,
		textProc:   textProc,
		logger:     logger,
	}
}

// Configured reports whether both the bot token and chat id are present
func (m *Messenger) Configured() bool {
	return m.token != "" && m.chatID != 0
}

// SendAlert delivers an alert with Yes/No/Prompt buttons and returns the
// Telegram message id the alert is tracked under
func (m *Messenger) SendAlert(ctx context.Context, summary, preview string) (string, error) {
	bot, err := m.getBot()
	if err != nil {
		return "", err
	}

	text := fmt.Sprintf(alertTextFormat, summary, preview)
	text = m.textProc.TruncateText(text, alertTextMax)

	msg := tgbotapi.NewMessage(m.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes", core.ActionToken(core.ActionYes)),
			tgbotapi.NewInlineKeyboardButtonData("No", core.ActionToken(core.ActionNo)),
			tgbotapi.NewInlineKeyboardButtonData("Respond", core.ActionToken(core.ActionPrompt)),
		),
	)

	sent, err := bot.Send(msg)
	if err != nil {
		return "", fmt.Errorf("failed to send Telegram alert: %w", err)
	}

	m.logger.Info("Alert sent", zap.Int("message_id", sent.MessageID))
	return strconv.Itoa(sent.MessageID), nil
}

// SendPrompt asks the operator to type a free-text response for summary.
// The message forces a quoted reply so the answer can be correlated back.
func (m *Messenger) SendPrompt(ctx context.Context, summary string) error {
	bot, err := m.getBot()
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(m.chatID, core.PromptText(summary))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true}

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram prompt: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press, clearing its loading state
func (m *Messenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	bot, err := m.getBot()
	if err != nil {
		return err
	}

	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := bot.Request(callback); err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}

// getBot returns the lazily created bot connection
func (m *Messenger) getBot() (Bot, error) {
	if !m.Configured() {
		return nil, fmt.Errorf("telegram messenger is not configured")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bot != nil {
		return m.bot, nil
	}

	bot, err := m.factory(m.token, m.httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	m.bot = bot
	return bot, nil
}
