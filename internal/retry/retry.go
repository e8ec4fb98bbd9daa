// Package retry implements the generic exponential-backoff wrapper every
// remote collaborator (Embedder, LLM) uses around its network calls.
package retry

import (
	"context"
	"time"
)

// Config configures exponential backoff.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// Default returns sensible defaults for a remote API call.
func Default() Config {
	return Config{
		MaxRetries: 4,
		BaseDelay:  250 * time.Millisecond,
		MaxDelay:   8 * time.Second,
		Multiplier: 2.0,
	}
}

// WithBackoff executes fn with exponential backoff, skipping further
// retries once ctx is cancelled.
func WithBackoff[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := cfg.BaseDelay

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < cfg.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * cfg.Multiplier)
				if backoff > cfg.MaxDelay {
					backoff = cfg.MaxDelay
				}
			}
		}
	}
	return zero, lastErr
}
