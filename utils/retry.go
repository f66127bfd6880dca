package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryContext calls fn up to attempts times, sleeping between failures,
// and gives up early once ctx is done. The returned error wraps the last
// failure.
func RetryContext(ctx context.Context, attempts int, sleep time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled after %d attempts: %w", i+1, ctx.Err())
		case <-time.After(sleep):
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}
