package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/llm-notify-gateway/internal/adapters/store"
	"github.com/mikey/llm-notify-gateway/internal/config"
	"github.com/mikey/llm-notify-gateway/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates memory repositories based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMemoryRepository creates a memory repository based on the configuration
func (f *StoreFactory) CreateMemoryRepository() (core.MemoryRepository, error) {
	storageCfg := f.cfg.GetStorage()

	// A relative rules path lives under the data directory
	rulesFile := storageCfg.RulesFile
	if rulesFile != "" && !filepath.IsAbs(rulesFile) {
		rulesFile = filepath.Join(storageCfg.DataDir, rulesFile)
	}

	switch storageCfg.Type {
	case "file":
		return store.NewFileStore(storageCfg.DataDir, rulesFile, f.logger), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(storageCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(storageCfg.SQLitePath, rulesFile, f.logger)
	case "mysql":
		return store.NewMySQLStore(storageCfg.MySQLDSN, rulesFile, f.logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageCfg.Type)
	}
}
