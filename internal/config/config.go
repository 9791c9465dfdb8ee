package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	FallbackAPIKey   string
	FallbackEndpoint string
	FallbackModel    string
	Port             string
}

// Load reads configuration from the environment, providing sensible defaults.
// The primary-provider credential is read once here at startup.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()
	return Config{
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		FallbackAPIKey:   getEnv("FALLBACK_API_KEY", "local"),
		FallbackEndpoint: getEnv("FALLBACK_API_ENDPOINT", "http://localhost:11434/v1"),
		FallbackModel:    getEnv("FALLBACK_MODEL", "llama3.2:1b"),
		Port:             getEnv("PORT", "8080"),
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
