package factory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/llm-notify-gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRelativeRulesFileResolvesUnderDataDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MANIFEST.md"), []byte("Always notify about deploys."), 0o644))

	v := config.NewEmptyViper()
	v.Set("storage.type", "file")
	v.Set("storage.data_dir", dir)
	v.Set("storage.rules_file", "MANIFEST.md")

	f := NewStoreFactory(config.NewFromViper(v), zap.NewNop())
	repo, err := f.CreateMemoryRepository()
	require.NoError(t, err)

	rules, err := repo.Rules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Always notify about deploys.", rules)
}

func TestAbsoluteRulesFileIsUsedVerbatim(t *testing.T) {
	rulesDir := t.TempDir()
	rulesFile := filepath.Join(rulesDir, "rules.md")
	require.NoError(t, os.WriteFile(rulesFile, []byte("rules"), 0o644))

	v := config.NewEmptyViper()
	v.Set("storage.type", "file")
	v.Set("storage.data_dir", t.TempDir())
	v.Set("storage.rules_file", rulesFile)

	f := NewStoreFactory(config.NewFromViper(v), zap.NewNop())
	repo, err := f.CreateMemoryRepository()
	require.NoError(t, err)

	rules, err := repo.Rules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rules", rules)
}

func TestUnsupportedStorageType(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("storage.type", "redis")

	f := NewStoreFactory(config.NewFromViper(v), zap.NewNop())
	_, err := f.CreateMemoryRepository()
	assert.Error(t, err)
}
