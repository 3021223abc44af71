package engine

import (
	"context"
	"errors"
	"time"
)

// retryWithTimeout runs call under the configured timeout, repeating it
// up to MaxRetries times with linear backoff. Non-retryable engine
// errors abort immediately; callers rely on every retried operation
// being safe to repeat.
func retryWithTimeout(parent context.Context, cfg *Config, logger Logger, operation string, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(parent, cfg.Timeout)
		err := call(ctx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		var engErr *EngineError
		if errors.As(err, &engErr) && !engErr.Retryable() {
			return err
		}
		if parent.Err() != nil {
			return lastErr
		}

		logger.Warn("engine call failed, retrying",
			"operation", operation, "attempt", attempt, "max", cfg.MaxRetries, "error", err)
		if attempt < cfg.MaxRetries {
			time.Sleep(time.Duration(attempt) * cfg.RetryDelay)
		}
	}
	return lastErr
}
