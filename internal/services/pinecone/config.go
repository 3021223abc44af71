package pinecone

import (
	"fmt"
	"time"
)

type Config struct {
	APIKey    string
	IndexHost string

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PINECONE_API_KEY is required")
	}
	if c.IndexHost == "" {
		return fmt.Errorf("PINECONE_INDEX_HOST is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:    60 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}
