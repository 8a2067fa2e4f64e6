package llm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines retry behavior for provider calls.
type RetryPolicy struct {
	MaxRetries   int           // Maximum number of retry attempts (0 = no retries)
	InitialDelay time.Duration // Initial delay before first retry
	MaxDelay     time.Duration // Maximum delay cap
	Multiplier   float64       // Exponential backoff multiplier (e.g., 2.0)
	Jitter       bool          // Whether to add random jitter to delays
}

// DefaultRetryPolicy is tuned for interactive pipeline runs: a few quick
// retries, capped backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// RetryingClient wraps a Client with classification-aware retries. The
// planning pipeline treats the wrapped client as its single LLM capability;
// retry behavior lives here, not in the pipeline.
type RetryingClient struct {
	Inner   Client
	Policy  RetryPolicy
	OnRetry func(attempt int, delay time.Duration, err error) // optional
}

// WithRetries wraps a client with the default retry policy.
func WithRetries(inner Client) *RetryingClient {
	return &RetryingClient{Inner: inner, Policy: DefaultRetryPolicy()}
}

// Complete implements Client.
func (c *RetryingClient) Complete(ctx context.Context, req Request) (string, error) {
	attempt := 0

	for {
		result, err := c.Inner.Complete(ctx, req)
		if err == nil {
			return result, nil
		}

		class := Classify(err)
		if class == RetryClassNonRetryable {
			return "", err
		}
		if attempt >= c.Policy.MaxRetries {
			return "", &RetryExhaustedError{Err: err, Attempts: attempt + 1, Max: c.Policy.MaxRetries}
		}
		// "maybe" errors get at most two attempts regardless of policy.
		if class == RetryClassMaybe && attempt >= 1 {
			return "", &RetryExhaustedError{Err: err, Attempts: attempt + 1, Max: 2}
		}

		delay := c.delay(attempt)
		if c.OnRetry != nil {
			c.OnRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}

		attempt++
	}
}

// delay computes exponential backoff with an optional 0-20% jitter.
func (c *RetryingClient) delay(attempt int) time.Duration {
	d := float64(c.Policy.InitialDelay) * math.Pow(c.Policy.Multiplier, float64(attempt))
	if d > float64(c.Policy.MaxDelay) {
		d = float64(c.Policy.MaxDelay)
	}
	if c.Policy.Jitter {
		d += rand.Float64() * 0.2 * d
	}
	return time.Duration(d)
}
