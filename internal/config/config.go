// File: internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string
	Environment  string
	DatabasePath string

	JWTSecretKey string
	AdminSecret  string

	EngineProvider string

	OpenAIAPIKey       string
	OpenAIBaseURL      string
	AnswerModelName    string
	EmbeddingModelName string

	PineconeAPIKey    string
	PineconeIndexHost string
	RetrievalTopK     int

	MaxPromptsPerStore int
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	env := os.Getenv("ENV")
	if strings.ToLower(env) != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		Environment:  env,
		DatabasePath: getEnv("DATABASE_PATH", "askdeck.db"),

		JWTSecretKey: getEnv("JWT_SECRET_KEY", ""),
		AdminSecret:  getEnv("ADMIN_SECRET", ""),

		EngineProvider: strings.ToLower(getEnv("ENGINE_PROVIDER", "openai")),

		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		AnswerModelName:    getEnv("ANSWER_MODEL_NAME", "gpt-4o-mini"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "text-embedding-3-small"),

		PineconeAPIKey:    getEnv("PINECONE_API_KEY", ""),
		PineconeIndexHost: getEnv("PINECONE_INDEX_HOST", ""),
		RetrievalTopK:     getEnvAsInt("RAG_TOPK", 8),

		MaxPromptsPerStore: getEnvAsInt("MAX_PROMPTS_PER_STORE", 3),
	}

	// Validation for production environments
	if strings.ToLower(env) == "production" {
		missing := []string{}
		if cfg.JWTSecretKey == "" {
			missing = append(missing, "JWT_SECRET_KEY")
		}
		if cfg.AdminSecret == "" {
			missing = append(missing, "ADMIN_SECRET")
		}
		if cfg.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if cfg.EngineProvider == "rag" {
			if cfg.PineconeAPIKey == "" {
				missing = append(missing, "PINECONE_API_KEY")
			}
			if cfg.PineconeIndexHost == "" {
				missing = append(missing, "PINECONE_INDEX_HOST")
			}
		}
		if len(missing) > 0 {
			log.Fatalf("Missing required production environment variables: %v", missing)
		}
	}

	return cfg
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}
