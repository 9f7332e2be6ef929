package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"

	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama-3.3-70b-versatile"
	defaultGeminiModel = "gemini-1.5-flash"
)

// Config holds the configuration for the application.
type Config struct {
	Env          string
	DatabasePath string
	SnapshotPath string
	HTTPAddr     string

	// Datasheet extraction
	LLMProvider        string
	GroqAPIKey         string
	GroqBaseURL        string
	GroqModel          string
	GeminiAPIKey       string
	GeminiModel        string
	ExtractConcurrency int
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func NewFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	provider := getEnv("LLM_PROVIDER", ProviderGroq)
	if provider != ProviderGroq && provider != ProviderGemini {
		return nil, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderGroq, ProviderGemini, provider)
	}

	concurrency := 3
	if raw := os.Getenv("EXTRACT_CONCURRENCY"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("EXTRACT_CONCURRENCY must be a positive integer, got %q", raw)
		}
		concurrency = n
	}

	return &Config{
		Env:                os.Getenv("ENV"),
		DatabasePath:       getEnv("DATABASE_PATH", "data/inventory.db"),
		SnapshotPath:       getEnv("SNAPSHOT_PATH", "data/snapshots"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		LLMProvider:        provider,
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:        getEnv("GROQ_BASE_URL", defaultGroqBaseURL),
		GroqModel:          getEnv("GROQ_MODEL", defaultGroqModel),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", defaultGeminiModel),
		ExtractConcurrency: concurrency,
	}, nil
}

// RequireLLM checks that the key for the selected provider is present.
// Only the extraction commands need it.
func (c *Config) RequireLLM() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	default:
		if c.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
