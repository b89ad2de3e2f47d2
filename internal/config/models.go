package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	Temperature float32
	TopP        float32
}

// ClassifyConfig represents the configuration for message classification
type ClassifyConfig struct {
	MaxTokens       int
	Timeout         time.Duration
	MemoryContext   int
	ResponseContext int
}

// ChatConfig represents the configuration for conversational replies
type ChatConfig struct {
	MaxTokens int
}

// NotifyConfig represents the notification quota and alert configuration
type NotifyConfig struct {
	MaxPerDay      int
	PreviewMaxSize int
	TrustedSources []string
}

// TelegramConfig represents the Telegram delivery configuration
type TelegramConfig struct {
	BotToken string
	ChatID   string
	Timeout  time.Duration
}

// StorageConfig represents the persistence configuration
type StorageConfig struct {
	Type       string
	DataDir    string
	SQLitePath string
	MySQLDSN   string
	RulesFile  string
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ListenAddress string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetClassify returns the classification configuration
func (c *Config) GetClassify() (ClassifyConfig, error) {
	timeout, err := c.GetDuration("classify.timeout")
	if err != nil {
		return ClassifyConfig{}, err
	}
	return ClassifyConfig{
		MaxTokens:       c.GetInt("classify.max_tokens"),
		Timeout:         timeout,
		MemoryContext:   c.GetInt("classify.memory_context"),
		ResponseContext: c.GetInt("classify.response_context"),
	}, nil
}

// GetChat returns the chat configuration
func (c *Config) GetChat() ChatConfig {
	return ChatConfig{
		MaxTokens: c.GetInt("chat.max_tokens"),
	}
}

// GetNotify returns the notification configuration
func (c *Config) GetNotify() NotifyConfig {
	return NotifyConfig{
		MaxPerDay:      c.GetInt("notify.max_per_day"),
		PreviewMaxSize: c.GetInt("notify.preview_max_size"),
		TrustedSources: c.GetStringSlice("notify.trusted_sources"),
	}
}

// GetTelegram returns the Telegram configuration
func (c *Config) GetTelegram() (TelegramConfig, error) {
	timeout, err := c.GetDuration("telegram.timeout")
	if err != nil {
		return TelegramConfig{}, err
	}
	return TelegramConfig{
		BotToken: c.GetString("telegram.bot_token"),
		ChatID:   c.GetString("telegram.chat_id"),
		Timeout:  timeout,
	}, nil
}

// GetStorage returns the storage configuration
func (c *Config) GetStorage() StorageConfig {
	return StorageConfig{
		Type:       c.GetString("storage.type"),
		DataDir:    c.GetString("storage.data_dir"),
		SQLitePath: c.GetString("storage.sqlite_path"),
		MySQLDSN:   c.GetString("storage.mysql_dsn"),
		RulesFile:  c.GetString("storage.rules_file"),
	}
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress: c.GetString("server.listen_address"),
	}
}
