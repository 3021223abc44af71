package engine

import (
	"fmt"
	"time"
)

type Config struct {
	// Provider credentials
	APIKey  string
	BaseURL string

	// Model selection
	AnswerModel    string
	EmbeddingModel string

	// Performance
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	PollInterval time.Duration

	// Model parameters
	Temperature float32
	TopP        float32
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.AnswerModel == "" {
		return fmt.Errorf("ANSWER_MODEL_NAME is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		AnswerModel:    "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
		Timeout:        5 * time.Minute,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
		PollInterval:   time.Second,
		Temperature:    0.1,
		TopP:           0.9,
	}
}
