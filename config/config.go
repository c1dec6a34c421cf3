// Package config loads docchat settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted for LLM_PROVIDER and EMBED_PROVIDER.
const (
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultGreeting seeds every new conversation.
const DefaultGreeting = "Hi, what would you like to learn about Soroban?"

// Config holds all configuration values.
type Config struct {
	// HTTP server
	Port string

	// Chroma vector index
	ChromaURL        string
	ChromaCollection string

	// Documentation directory to index
	IndexPath  string
	WatchIndex bool

	// Embedding
	EmbedProvider string
	EmbedModel    string

	// Generation
	LLMProvider string
	LLMModel    string
	TopK        int

	// Provider credentials and hosts
	OllamaHost      string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// PDF extraction
	UnidocLicenseKey string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Chat client
	ServerURL      string
	RequestTimeout time.Duration
	Greeting       string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment
// variables win over its values.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	return Config{
		Port: getEnv("PORT", "8080"),

		ChromaURL:        getEnv("CHROMA_URL", "http://localhost:8000"),
		ChromaCollection: getEnv("CHROMA_COLLECTION", "soroban-docs"),

		IndexPath:  getEnv("INDEX_PATH", ""),
		WatchIndex: getEnv("WATCH_INDEX", "false") == "true",

		EmbedProvider: getEnv("EMBED_PROVIDER", ProviderOllama),
		EmbedModel:    getEnv("EMBED_MODEL", "nomic-embed-text:v1.5"),

		LLMProvider: getEnv("LLM_PROVIDER", ProviderGemini),
		LLMModel:    getEnv("LLM_MODEL", "gemini-2.5-flash"),
		TopK:        getEnvInt("RETRIEVAL_TOP_K", 4),

		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		UnidocLicenseKey: getEnv("UNIDOC_LICENSE_KEY", ""),

		LogFile:  getEnv("DOCCHAT_LOG_FILE", "/tmp/docchat.log"),
		LogLevel: parseLogLevel(getEnv("DOCCHAT_LOG_LEVEL", "INFO")),

		ServerURL:      getEnv("DOCCHAT_SERVER_URL", "http://localhost:8080"),
		RequestTimeout: getEnvDuration("CHAT_REQUEST_TIMEOUT", 0),
		Greeting:       getEnv("DOCCHAT_GREETING", DefaultGreeting),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := ParseDuration(val)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return d
}

// ParseDuration accepts Go duration strings ("30s") or a bare number of
// seconds. Negative values are rejected.
func ParseDuration(val string) (time.Duration, error) {
	if d, err := time.ParseDuration(val); err == nil && d >= 0 {
		return d, nil
	}
	if secs, err := strconv.Atoi(val); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid duration %q", val)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
