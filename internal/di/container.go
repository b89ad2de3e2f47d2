package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-notify-gateway/internal/adapters/httpapi"
	"github.com/mikey/llm-notify-gateway/internal/config"
	"github.com/mikey/llm-notify-gateway/internal/core"
	"github.com/mikey/llm-notify-gateway/internal/factory"
	"github.com/mikey/llm-notify-gateway/internal/logging"
	"github.com/mikey/llm-notify-gateway/internal/ports"
	"github.com/mikey/llm-notify-gateway/internal/trusted"
	"github.com/mikey/llm-notify-gateway/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMessengerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register memory repository
	if err := container.Provide(func(f *factory.StoreFactory) (core.MemoryRepository, error) {
		return f.CreateMemoryRepository()
	}); err != nil {
		return nil, err
	}

	// Register messenger
	if err := container.Provide(func(f *factory.MessengerFactory) (core.Messenger, error) {
		return f.CreateMessenger()
	}); err != nil {
		return nil, err
	}

	// Register trusted-source checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *trusted.Checker {
		return trusted.NewChecker(cfg.GetNotify().TrustedSources, logger)
	}); err != nil {
		return nil, err
	}

	// Register classifier gateway
	if err := container.Provide(func(cfg *config.Config, llm core.LLMClient, logger *zap.Logger) (*core.ClassifierGateway, error) {
		classifyCfg, err := cfg.GetClassify()
		if err != nil {
			return nil, err
		}
		chatCfg := cfg.GetChat()
		return core.NewClassifierGateway(
			llm,
			logger,
			classifyCfg.MaxTokens,
			chatCfg.MaxTokens,
			classifyCfg.Timeout,
			classifyCfg.MemoryContext,
			classifyCfg.ResponseContext,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register notification dispatcher
	if err := container.Provide(func(cfg *config.Config, messenger core.Messenger, textProc *utils.TextProcessor, logger *zap.Logger) *core.NotificationDispatcher {
		notifyCfg := cfg.GetNotify()
		return core.NewNotificationDispatcher(
			messenger,
			textProc,
			logger,
			notifyCfg.MaxPerDay,
			notifyCfg.PreviewMaxSize,
		)
	}); err != nil {
		return nil, err
	}

	// Register callback reconciler
	if err := container.Provide(core.NewCallbackReconciler); err != nil {
		return nil, err
	}

	// Register gateway service
	if err := container.Provide(func(
		cfg *config.Config,
		store core.MemoryRepository,
		classifier *core.ClassifierGateway,
		dispatcher *core.NotificationDispatcher,
		trustedChecker *trusted.Checker,
		textProc *utils.TextProcessor,
		logger *zap.Logger,
	) (*core.GatewayService, error) {
		classifyCfg, err := cfg.GetClassify()
		if err != nil {
			return nil, err
		}
		return core.NewGatewayService(
			store,
			classifier,
			dispatcher,
			trustedChecker,
			textProc,
			logger,
			classifyCfg.MemoryContext,
			classifyCfg.ResponseContext,
		), nil
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(
		cfg *config.Config,
		service *core.GatewayService,
		reconciler *core.CallbackReconciler,
		logger *zap.Logger,
	) ports.GatewayServer {
		return httpapi.NewServer(service, reconciler, logger, cfg.GetServer().ListenAddress)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
