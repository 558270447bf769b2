// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"
)

// RetryConfig defines retry behavior for read-only namespace operations.
// Retries never happen inside RPCClient.Invoke; the namespaces apply this
// policy around idempotent reads only. Disabled by default.
type RetryConfig struct {
	// Enabled controls whether retries happen at all.
	Enabled bool

	// MaxRetries is the maximum number of retry attempts (default: 3).
	MaxRetries int

	// InitialBackoff is the initial backoff duration (default: 100ms).
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration (default: 5s).
	MaxBackoff time.Duration

	// RetryableErrors lists sentinel errors that trigger retries. When
	// empty, only ErrConnectionFailed is considered retryable.
	RetryableErrors []error
}

// retryWrapper runs an operation under the given retry policy using
// exponential backoff with jitter. A nil or disabled config executes the
// operation exactly once.
func retryWrapper[T any](ctx context.Context, config *RetryConfig, operation func() (T, error)) (T, error) {
	var zero T

	if config == nil || !config.Enabled {
		return operation()
	}

	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	initialBackoff := config.InitialBackoff
	if initialBackoff <= 0 {
		initialBackoff = 100 * time.Millisecond
	}
	maxBackoff := config.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 5 * time.Second
	}
	retryableErrors := config.RetryableErrors
	if len(retryableErrors) == 0 {
		retryableErrors = []error{ErrConnectionFailed}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, ctx.Err()
		default:
		}

		result, err := operation()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}
		if !isRetryable(err, retryableErrors) {
			return zero, err
		}

		backoff := calculateBackoff(attempt, initialBackoff, maxBackoff)
		select {
		case <-ctx.Done():
			return zero, lastErr
		case <-time.After(backoff):
		}
	}

	return zero, lastErr
}

// isRetryable checks if an error should trigger a retry.
func isRetryable(err error, retryableErrors []error) bool {
	if err == nil {
		return false
	}
	for _, retryableErr := range retryableErrors {
		if errors.Is(err, retryableErr) {
			return true
		}
	}

	errMsg := strings.ToLower(err.Error())
	transientKeywords := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"unavailable",
	}
	for _, keyword := range transientKeywords {
		if strings.Contains(errMsg, keyword) {
			return true
		}
	}

	return false
}

// calculateBackoff computes the backoff duration for a given attempt using
// exponential backoff with jitter.
func calculateBackoff(attempt int, initial, max time.Duration) time.Duration {
	backoff := float64(initial) * math.Pow(2, float64(attempt))
	if backoff > float64(max) {
		backoff = float64(max)
	}
	jitter := rand.Float64() * backoff
	return time.Duration(jitter)
}
