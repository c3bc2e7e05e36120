// ABOUTME: Exponential backoff with jitter for ingestion embedding retries
// ABOUTME: Wait sleeps for one backoff step unless the context ends first
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

const maxBackoff = 30 * time.Second

// CalculateBackoff returns baseDelay * 2^attempt, capped at 30s, with
// jitter of ±25%. Attempt 0 and a non-positive base mean no wait.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	backoff := maxBackoff
	if baseDelay < maxBackoff>>uint(attempt) {
		backoff = baseDelay << uint(attempt)
	}
	spread := int64(backoff) / 2
	if spread <= 0 {
		return backoff
	}
	jitter := time.Duration(rand.Int64N(spread)) - backoff/4
	return backoff + jitter
}

// Wait blocks for CalculateBackoff(baseDelay, attempt) and returns the
// context error if ctx is done first
func Wait(ctx context.Context, baseDelay time.Duration, attempt int) error {
	d := CalculateBackoff(baseDelay, attempt)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
