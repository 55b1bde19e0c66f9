package config

import (
	"os"
	"strconv"
)

type Config struct {
	LLMProvider    string
	OpenAIApiKey   string
	OpenAIModel    string
	GoogleApiKey   string
	GoogleModel    string
	EmbeddingModel string
	SerperApiKey   string
	SearchProvider string
	MistralApiKey  string
	DatabaseURL    string
	Port           string
	OutputDir      string
	ChunkSize      int
	ChunkOverlap   int
	CollectionName string
}

func Load() *Config {
	cfg := &Config{
		LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
		OpenAIApiKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GoogleApiKey:   getEnv("GOOGLE_API_KEY", ""),
		GoogleModel:    getEnv("GOOGLE_MODEL", "gemini-3-flash-preview"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		SerperApiKey:   getEnv("SERPER_API_KEY", ""),
		SearchProvider: getEnv("SEARCH_PROVIDER", "serper"),
		MistralApiKey:  getEnv("MISTRAL_API_KEY", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		Port:           getEnv("PORT", "8081"),
		OutputDir:      getEnv("OUTPUT_DIR", "output"),
		ChunkSize:      getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 200),
		CollectionName: getEnv("COLLECTION_NAME", "research_db"),
	}

	// Fall back to Google when no OpenAI key is configured but a Google key is.
	if cfg.LLMProvider == "openai" && cfg.OpenAIApiKey == "" && cfg.GoogleApiKey != "" {
		cfg.LLMProvider = "google"
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
