// File: internal/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config holds rate limiting configuration.
type Config struct {
	WindowSize    time.Duration // sliding window for counting attempts
	MaxAttempts   int           // attempts allowed per window
	CleanupPeriod time.Duration // how often stale records are purged
	BanDuration   time.Duration // lockout after the limit is exceeded
}

// DefaultAuthConfig covers the token issuance endpoint, where a burst
// of failures means someone is guessing the admin secret.
func DefaultAuthConfig() *Config {
	return &Config{
		WindowSize:    15 * time.Minute,
		MaxAttempts:   5,
		CleanupPeriod: 30 * time.Minute,
		BanDuration:   30 * time.Minute,
	}
}

// DefaultAPIConfig covers the general API surface.
func DefaultAPIConfig() *Config {
	return &Config{
		WindowSize:    time.Minute,
		MaxAttempts:   120,
		CleanupPeriod: 10 * time.Minute,
		BanDuration:   5 * time.Minute,
	}
}

// Info reports the limiter's decision for one request.
type Info struct {
	Allowed    bool
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
	Banned     bool
}

type attemptRecord struct {
	Count     int
	FirstSeen time.Time
	BannedAt  *time.Time
}

// MemoryRateLimiter tracks per-identifier attempt counts in memory.
type MemoryRateLimiter struct {
	config   *Config
	attempts map[string]*attemptRecord
	mu       sync.Mutex
	stopCh   chan struct{}
}

func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	rl := &MemoryRateLimiter{
		config:   config,
		attempts: make(map[string]*attemptRecord),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow records an attempt for the identifier and reports whether the
// request may proceed.
func (rl *MemoryRateLimiter) Allow(identifier string) (bool, *Info) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	record, exists := rl.attempts[identifier]

	if !exists {
		rl.attempts[identifier] = &attemptRecord{Count: 1, FirstSeen: now}
		return true, &Info{
			Allowed:   true,
			Remaining: rl.config.MaxAttempts - 1,
			ResetTime: now.Add(rl.config.WindowSize),
		}
	}

	if record.BannedAt != nil && now.Sub(*record.BannedAt) < rl.config.BanDuration {
		remaining := rl.config.BanDuration - now.Sub(*record.BannedAt)
		return false, &Info{
			ResetTime:  record.BannedAt.Add(rl.config.BanDuration),
			RetryAfter: remaining,
			Banned:     true,
		}
	}

	if now.Sub(record.FirstSeen) > rl.config.WindowSize {
		record.Count = 1
		record.FirstSeen = now
		record.BannedAt = nil
		return true, &Info{
			Allowed:   true,
			Remaining: rl.config.MaxAttempts - 1,
			ResetTime: now.Add(rl.config.WindowSize),
		}
	}

	record.Count++
	if record.Count > rl.config.MaxAttempts {
		banTime := now
		record.BannedAt = &banTime
		return false, &Info{
			ResetTime:  now.Add(rl.config.BanDuration),
			RetryAfter: rl.config.BanDuration,
			Banned:     true,
		}
	}

	return true, &Info{
		Allowed:   true,
		Remaining: rl.config.MaxAttempts - record.Count,
		ResetTime: record.FirstSeen.Add(rl.config.WindowSize),
	}
}

// RecordSuccess clears the identifier's attempts, so legitimate clients
// are not penalized for earlier failures.
func (rl *MemoryRateLimiter) RecordSuccess(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, identifier)
}

func (rl *MemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *MemoryRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for identifier, record := range rl.attempts {
		windowExpired := now.Sub(record.FirstSeen) > rl.config.WindowSize
		banExpired := record.BannedAt != nil && now.Sub(*record.BannedAt) > rl.config.BanDuration
		if (windowExpired && record.BannedAt == nil) || banExpired {
			delete(rl.attempts, identifier)
		}
	}
}

// Close stops the cleanup goroutine.
func (rl *MemoryRateLimiter) Close() {
	close(rl.stopCh)
}

// GetClientIP extracts the client IP, honoring common proxy headers.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
