package api

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultMaxRateLimitRetries   = 3
	DefaultMax5xxRetries         = 1
	DefaultRateLimitBaseDelay    = 1 * time.Second
	DefaultServerErrorRetryDelay = 1 * time.Second
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRateLimitRetries   int
	Max5xxRetries         int
	RateLimitBaseDelay    time.Duration
	ServerErrorRetryDelay time.Duration
}

// DefaultRetryConfig returns a RetryConfig populated from environment
// variables with fallback to default values.
//
// Environment variables:
//   - FTG_MAX_RATE_LIMIT_RETRIES: max retries for 429 errors (default: 3)
//   - FTG_MAX_5XX_RETRIES: max retries for 5xx errors (default: 1)
//   - FTG_RATE_LIMIT_DELAY: base delay for rate limit retries (default: "1s")
//   - FTG_SERVER_ERROR_DELAY: delay for server error retries (default: "1s")
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRateLimitRetries:   getEnvInt("FTG_MAX_RATE_LIMIT_RETRIES", DefaultMaxRateLimitRetries),
		Max5xxRetries:         getEnvInt("FTG_MAX_5XX_RETRIES", DefaultMax5xxRetries),
		RateLimitBaseDelay:    getEnvDuration("FTG_RATE_LIMIT_DELAY", DefaultRateLimitBaseDelay),
		ServerErrorRetryDelay: getEnvDuration("FTG_SERVER_ERROR_DELAY", DefaultServerErrorRetryDelay),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// sleepWithContext waits for the duration or returns early on context cancellation.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryAfterDuration parses Retry-After header values (seconds or HTTP date).
func retryAfterDuration(h http.Header) (time.Duration, bool) {
	value := strings.TrimSpace(h.Get("Retry-After"))
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
