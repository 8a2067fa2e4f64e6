package llm

import (
	"fmt"
	"strings"
)

// RetryClass indicates whether an error should be retried.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"     // Definitely retry
	RetryClassMaybe        RetryClass = "maybe"         // Retry with caution (limited attempts)
	RetryClassNonRetryable RetryClass = "non_retryable" // Never retry
)

// RetryExhaustedError is returned when all retry attempts for a provider
// call have been used up.
type RetryExhaustedError struct {
	Err      error
	Attempts int
	Max      int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("llm call failed after %d attempts (max %d): %v", e.Attempts, e.Max, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// Classify decides how a provider error should be retried. Provider SDKs
// surface HTTP failures as opaque error strings, so classification is by
// substring.
func Classify(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}

	errStr := strings.ToLower(err.Error())

	// Rate limits and server errors - retryable
	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "gateway timeout") {
		return RetryClassRetryable
	}

	// Network failures - retryable
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "temporary failure") {
		return RetryClassRetryable
	}

	// Deadline expiry - maybe (limited retries)
	if strings.Contains(errStr, "deadline exceeded") {
		return RetryClassMaybe
	}

	// Auth, bad request, quota, safety refusals - non-retryable
	return RetryClassNonRetryable
}
