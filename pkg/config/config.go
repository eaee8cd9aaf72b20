package config

import (
	"os"
	"strconv"
)

type Config struct {
	GoogleApiKey   string
	DatabaseURL    string
	Port           string
	ReasoningModel string
	EmbeddingModel string
	CollectionName string

	PrimaryEngine   string
	SecondaryEngine string
	BraveApiKey     string
	SerperApiKey    string

	WebResultLimit  int
	DiscussionLimit int
	MaxThreads      int
	MaxComments     int
	EvidenceTopK    int

	FetchTimeoutSec    int
	PipelineTimeoutSec int

	ChunkSize    int
	ChunkOverlap int
}

func Load() *Config {
	return &Config{
		GoogleApiKey:   getEnv("GOOGLE_API_KEY", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		Port:           getEnv("PORT", "8081"),
		ReasoningModel: getEnv("REASONING_MODEL", "gemini-3-flash-preview"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		CollectionName: getEnv("COLLECTION_NAME", "research_docs"),

		PrimaryEngine:   getEnv("PRIMARY_SEARCH_ENGINE", "duckduckgo"),
		SecondaryEngine: getEnv("SECONDARY_SEARCH_ENGINE", "lite"),
		BraveApiKey:     getEnv("BRAVE_API_KEY", ""),
		SerperApiKey:    getEnv("SERPER_API_KEY", ""),

		WebResultLimit:  getEnvAsInt("WEB_RESULT_LIMIT", 10),
		DiscussionLimit: getEnvAsInt("DISCUSSION_LIMIT", 8),
		MaxThreads:      getEnvAsInt("MAX_THREADS", 3),
		MaxComments:     getEnvAsInt("MAX_COMMENTS", 20),
		EvidenceTopK:    getEnvAsInt("EVIDENCE_TOP_K", 3),

		FetchTimeoutSec:    getEnvAsInt("FETCH_TIMEOUT_SEC", 20),
		PipelineTimeoutSec: getEnvAsInt("PIPELINE_TIMEOUT_SEC", 120),

		ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 200),
	}
}

// ApiKeyFor returns the API key matching a search engine name, empty for
// the no-auth engines.
func (c *Config) ApiKeyFor(engine string) string {
	switch engine {
	case "brave":
		return c.BraveApiKey
	case "serper":
		return c.SerperApiKey
	default:
		return ""
	}
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
