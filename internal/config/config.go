package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/interviewfriend/relay/backend/internal/integrations/langsmith"
	"github.com/interviewfriend/relay/backend/internal/integrations/nim"
	"github.com/interviewfriend/relay/backend/internal/model/prompt"
)

// Config aggregates every setting of the service.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Prompts PromptConfig
	Log     LogConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	prompts, err := loadPromptConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Prompts: prompts,
		Log:     LogConfig{Level: getEnvOrDefault("LOGLEVEL", "INFO")},
	}, nil
}

// ServerConfig describes the HTTP listener and request-level policies.
type ServerConfig struct {
	Addr          string
	AllowedOrigin string
	// RateLimit is the number of /chat requests allowed per minute per client
	// IP. Zero disables limiting.
	RateLimit int
	RateBurst int
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	var addr string
	switch {
	case strings.Contains(port, ":"):
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		addr = port
	case strings.Contains(port, " "):
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	default:
		addr = ":" + port
	}

	rateLimit, err := parseOptionalIntEnv("CHAT_RATE_LIMIT")
	if err != nil {
		return ServerConfig{}, err
	}
	rateBurst, err := parseOptionalIntEnv("CHAT_RATE_BURST")
	if err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{
		Addr:          addr,
		AllowedOrigin: getEnvOrDefault("CORS_ALLOWED_ORIGIN", "https://interview-friend.ai-lab1.com"),
	}
	if rateLimit != nil && *rateLimit > 0 {
		cfg.RateLimit = *rateLimit
		cfg.RateBurst = *rateLimit
	}
	if rateBurst != nil && *rateBurst > 0 {
		cfg.RateBurst = *rateBurst
	}
	return cfg, nil
}

const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// AIConfig describes the inference backend.
type AIConfig struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int

	// Ark-only credentials.
	ArkAccessKey string
	ArkSecretKey string
	ArkRegion    string
}

// NewChatModel builds the chat model for the configured provider. An error
// here means the backend client could not be constructed.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	temperature := float32(c.Temperature)
	topP := float32(c.TopP)
	maxTokens := c.MaxTokens

	switch c.Provider {
	case ProviderOpenAI:
		if c.APIKey == "" {
			return nil, fmt.Errorf("NGC_API_KEY is required for the %s provider", c.Provider)
		}
		return nim.NewChatModel(&nim.Config{
			BaseURL:     c.BaseURL,
			APIKey:      c.APIKey,
			Model:       c.Model,
			Temperature: &temperature,
			TopP:        &topP,
			MaxTokens:   &maxTokens,
		})
	case ProviderArk:
		if c.APIKey == "" && (c.ArkAccessKey == "" || c.ArkSecretKey == "") {
			return nil, fmt.Errorf("ark provider needs ARK_API_KEY or ARK_ACCESS_KEY + ARK_SECRET_KEY")
		}
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.ArkRegion,
			APIKey:      c.APIKey,
			AccessKey:   c.ArkAccessKey,
			SecretKey:   c.ArkSecretKey,
			Model:       c.Model,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
			TopP:        &topP,
		})
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", c.Provider)
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenAI))

	temperature, err := parseFloatEnv("NIM_TEMPERATURE", 0.2)
	if err != nil {
		return AIConfig{}, err
	}
	topP, err := parseFloatEnv("NIM_TOP_P", 0.7)
	if err != nil {
		return AIConfig{}, err
	}
	maxTokens := 1024
	if override, err := parseOptionalIntEnv("NIM_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AIConfig{}, fmt.Errorf("invalid NIM_MAX_TOKENS value %d", *override)
		}
		maxTokens = *override
	}

	cfg := AIConfig{
		Provider:    provider,
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}

	switch provider {
	case ProviderOpenAI:
		cfg.BaseURL = getEnvOrDefault("NIM_BASE_URL", "http://0.0.0.0:8000/v1")
		cfg.APIKey = strings.TrimSpace(os.Getenv("NGC_API_KEY"))
		cfg.Model = getEnvOrDefault("NIM_MODEL", "meta/llama-3.1-8b-instruct")
	case ProviderArk:
		cfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
		cfg.APIKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
		cfg.Model = strings.TrimSpace(os.Getenv("ARK_MODEL"))
		cfg.ArkAccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
		cfg.ArkSecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
		cfg.ArkRegion = getEnvOrDefault("ARK_REGION", "cn-beijing")
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	return cfg, nil
}

// PromptConfig describes the prompt registry used at startup.
type PromptConfig struct {
	RegistryURL  string
	APIKey       string
	Interviewee  string
	Candidate    string
	FetchTimeout time.Duration
}

// NewRegistry constructs the registry client. An error means prompts must
// come from the embedded defaults.
func (c PromptConfig) NewRegistry() (*langsmith.Client, error) {
	return langsmith.NewClient(c.RegistryURL, c.APIKey)
}

func loadPromptConfig() (PromptConfig, error) {
	timeout, err := parseDurationEnv("PROMPT_FETCH_TIMEOUT", 10*time.Second)
	if err != nil {
		return PromptConfig{}, err
	}

	apiKey := strings.TrimSpace(os.Getenv("LANGSMITH_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("LANGCHAIN_API_KEY"))
	}

	endpoint := strings.TrimSpace(os.Getenv("LANGSMITH_ENDPOINT"))
	if endpoint == "" {
		endpoint = getEnvOrDefault("LANGCHAIN_ENDPOINT", langsmith.DefaultAPIURL)
	}

	return PromptConfig{
		RegistryURL:  endpoint,
		APIKey:       apiKey,
		Interviewee:  getEnvOrDefault("PROMPT_NAME_INTERVIEWEE", prompt.DefaultIntervieweeName),
		Candidate:    getEnvOrDefault("PROMPT_NAME_CANDIDATE", prompt.DefaultCandidateName),
		FetchTimeout: timeout,
	}, nil
}

// LogConfig holds the log verbosity.
type LogConfig struct {
	Level string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	val, err := parseOptionalFloatEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}
