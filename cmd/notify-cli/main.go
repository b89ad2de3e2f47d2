package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mikey/llm-notify-gateway/internal/adapters/store"
	"github.com/mikey/llm-notify-gateway/internal/config"
	"github.com/mikey/llm-notify-gateway/internal/core"
	"github.com/mikey/llm-notify-gateway/internal/factory"
	"github.com/mikey/llm-notify-gateway/internal/logging"
	"go.uber.org/zap"
)

var (
	// Gateway flags
	apiURL = flag.String("api-url", "", "Gateway API base URL (defaults to $NOTIFY_API_URL or http://localhost:8000)")
	source = flag.String("source", "cli", "Source label attached to the message")

	// LLM provider flags, used when the gateway is unreachable
	provider    = flag.String("provider", "bedrock", "LLM provider for local fallback (bedrock, gemini, openai)")
	temperature = flag.Float64("temperature", 0.1, "Temperature for LLM generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for LLM generation")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "eu-west-3", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4", "OpenAI model name")

	verbose = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog = flag.Bool("json-log", false, "Output logs in JSON format")
)

const requestTimeout = 35 * time.Second

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	text := readMessageText()
	if text == "" {
		fmt.Println("Usage: notify-cli [flags] <message>")
		fmt.Println("       echo <message> | notify-cli [flags]")
		os.Exit(1)
	}

	baseURL := *apiURL
	if baseURL == "" {
		baseURL = os.Getenv("NOTIFY_API_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	client := &http.Client{Timeout: requestTimeout}

	// Forget requests have their own endpoint
	if query, ok := strings.CutPrefix(text, "forget "); ok {
		handleForget(client, baseURL, strings.TrimSpace(query), logger)
		return
	}

	if reply, sent, err := sendMessage(client, baseURL, text); err == nil {
		if reply != "" {
			fmt.Println(reply)
		}
		if sent {
			fmt.Println("[notification sent]")
		}
		return
	} else {
		logger.Warn("Gateway unreachable, falling back to local mode", zap.Error(err))
	}

	runLocalFallback(text, logger)
}

// readMessageText takes the message from the arguments, or from stdin when a
// pipe is attached and no arguments are given
func readMessageText() string {
	if flag.NArg() > 0 {
		return strings.TrimSpace(strings.Join(flag.Args(), " "))
	}

	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return ""
	}

	var lines []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func handleForget(client *http.Client, baseURL, query string, logger *zap.Logger) {
	body, _ := json.Marshal(map[string]string{"query": query})
	resp, err := client.Post(baseURL+"/forget", "application/json", bytes.NewReader(body))
	if err == nil {
		defer resp.Body.Close()
		var result struct {
			Forgotten int `json:"forgotten"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
			fmt.Printf("Forgot %d memories\n", result.Forgotten)
			return
		}
	}

	logger.Warn("Gateway unreachable, forgetting locally", zap.Error(err))

	localStore := newLocalStore(logger)
	removed, err := localStore.Forget(context.Background(), query)
	if err != nil {
		logger.Fatal("Failed to forget memories", zap.Error(err))
	}
	fmt.Printf("Forgot %d memories\n", removed)
}

func sendMessage(client *http.Client, baseURL, text string) (string, bool, error) {
	body, _ := json.Marshal(map[string]string{"text": text, "source": *source})
	resp, err := client.Post(baseURL+"/message", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var result core.WorkflowResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", false, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return result.Reply, result.NotificationSent, nil
}

// runLocalFallback remembers the message in the local file store and answers
// from local memories with a directly constructed LLM client
func runLocalFallback(text string, logger *zap.Logger) {
	localStore := newLocalStore(logger)
	ctx := context.Background()

	if _, err := localStore.AppendMemory(ctx, text, *source); err != nil {
		logger.Fatal("Failed to remember message", zap.Error(err))
	}

	cfg := createConfigFromFlags()
	llmFactory := factory.NewLLMFactory(cfg, logger)
	llmClient, err := llmFactory.CreateLLMClient()
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	classifier := core.NewClassifierGateway(llmClient, logger, 0, 0, 0, 0, 0)

	memories, err := localStore.RecentMemories(ctx, 20)
	if err != nil {
		logger.Fatal("Failed to load memories", zap.Error(err))
	}

	reply, err := classifier.ChatReply(ctx, text, memories)
	if err != nil {
		logger.Fatal("Failed to generate reply", zap.Error(err))
	}
	fmt.Println(reply)

	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
}

// newLocalStore opens the per-user file store used when the gateway is down
func newLocalStore(logger *zap.Logger) *store.FileStore {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".llm-notify-gateway")
	return store.NewFileStore(dataDir, filepath.Join(dataDir, "MANIFEST.md"), logger)
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	// Set LLM provider
	v.Set("llm.provider", *provider)

	// Set provider-specific configuration
	switch *provider {
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
	}

	return config.NewFromViper(v)
}
