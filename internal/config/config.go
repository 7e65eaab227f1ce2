package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Gemini AI
	GeminiAPIKey         string
	GeminiChatModel      string
	GeminiExtractModel   string
	GeminiConcurrentReqs int
	GeminiTimeoutSecs    int

	// Coaching persona
	ReferenceDate string // anchor for relative-time reasoning, YYYY-MM-DD
	Currency      string

	// Image derivation
	ImageServiceBaseURL string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port: getEnvOrDefault("PORT", "8080"),
		Env:  getEnvOrDefault("ENV", "development"),

		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiChatModel:      getEnvOrDefault("GEMINI_CHAT_MODEL", "gemini-3-flash-preview"),
		GeminiExtractModel:   getEnvOrDefault("GEMINI_EXTRACT_MODEL", "gemini-3-pro-preview"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		GeminiTimeoutSecs:    getEnvAsIntOrDefault("GEMINI_TIMEOUT_SECONDS", 120),

		ReferenceDate: getEnvOrDefault("REFERENCE_DATE", "2026-01-09"),
		Currency:      getEnvOrDefault("CURRENCY", "KRW"),

		ImageServiceBaseURL: getEnvOrDefault("IMAGE_SERVICE_BASE_URL", "https://loremflickr.com"),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
