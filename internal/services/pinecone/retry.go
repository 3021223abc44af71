package pinecone

import (
	"context"
	"time"
)

// RetryService wraps index calls with the configured timeout and retry budget.
type RetryService struct {
	config *Config
	logger Logger
}

func NewRetryService(config *Config, logger Logger) *RetryService {
	return &RetryService{config: config, logger: logger}
}

func (r *RetryService) RetryWithTimeout(parent context.Context, operation string, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(parent, r.config.Timeout)
		err := call(ctx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if parent.Err() != nil {
			return lastErr
		}

		r.logger.Warn("Pinecone call failed, retrying",
			"operation", operation, "attempt", attempt, "max", r.config.MaxRetries, "error", err)
		if attempt < r.config.MaxRetries {
			time.Sleep(time.Duration(attempt) * r.config.RetryDelay)
		}
	}
	return lastErr
}
