package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "bedrock", cfg.GetLLM().Provider)
	assert.Equal(t, "0.0.0.0:8000", cfg.GetServer().ListenAddress)

	bedrock := cfg.GetBedrock()
	assert.Equal(t, "eu-west-3", bedrock.Region)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", bedrock.ModelID)
	assert.InDelta(t, 0.1, float64(bedrock.Temperature), 0.001)
	assert.InDelta(t, 0.9, float64(bedrock.TopP), 0.001)

	classify, err := cfg.GetClassify()
	require.NoError(t, err)
	assert.Equal(t, 256, classify.MaxTokens)
	assert.Equal(t, 30*time.Second, classify.Timeout)
	assert.Equal(t, 20, classify.MemoryContext)
	assert.Equal(t, 10, classify.ResponseContext)

	assert.Equal(t, 1024, cfg.GetChat().MaxTokens)

	notify := cfg.GetNotify()
	assert.Equal(t, 3, notify.MaxPerDay)
	assert.Equal(t, 500, notify.PreviewMaxSize)
	assert.Equal(t, []string{"claude-code"}, notify.TrustedSources)

	telegram, err := cfg.GetTelegram()
	require.NoError(t, err)
	assert.Empty(t, telegram.BotToken)
	assert.Empty(t, telegram.ChatID)
	assert.Equal(t, 10*time.Second, telegram.Timeout)

	storage := cfg.GetStorage()
	assert.Equal(t, "file", storage.Type)
	assert.Equal(t, "MANIFEST.md", storage.RulesFile)
}

func TestOverridesThroughViper(t *testing.T) {
	v := NewEmptyViper()
	v.Set("llm.provider", "openai")
	v.Set("openai.api_key", "sk-test")
	v.Set("notify.max_per_day", 5)
	v.Set("telegram.timeout", "3s")

	cfg := NewFromViper(v)

	assert.Equal(t, "openai", cfg.GetLLM().Provider)
	assert.Equal(t, "sk-test", cfg.GetOpenAI().APIKey)
	assert.Equal(t, 5, cfg.GetNotify().MaxPerDay)

	telegram, err := cfg.GetTelegram()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, telegram.Timeout)
}

func TestInvalidDurationSurfacesError(t *testing.T) {
	v := NewEmptyViper()
	v.Set("classify.timeout", "not-a-duration")

	cfg := NewFromViper(v)
	_, err := cfg.GetClassify()
	assert.Error(t, err)
}
