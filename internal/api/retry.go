package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/buker/brdesk/internal/stream"
)

// Retry configuration
const (
	maxRateLimitRetries = 3
	maxNetworkRetries   = 1
)

// Retry delays are variables so tests can shorten them.
var (
	initialBackoff    = 1 * time.Second
	networkRetryDelay = 2 * time.Second
)

// Error messages for user-friendly output
const (
	errMsgRateLimit = "rate limit exceeded after 3 retries"
	errMsgNetwork   = "network error: %s"
	errMsgServer    = "BRD service error occurred. Please try again later."
	errMsgTimeout   = "request timed out"
)

// executeWithRetry wraps an idempotent call with retry logic based on error type.
// Network errors are retried once, rate limits back off exponentially, server
// errors and timeouts fail immediately.
func executeWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	rateLimitRetries := 0
	networkRetries := 0
	backoff := initialBackoff

	for {
		// Check context before attempting
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		switch classifyError(lastErr) {
		case errTypeRateLimit:
			rateLimitRetries++
			if rateLimitRetries > maxRateLimitRetries {
				return fmt.Errorf("%s: %w", errMsgRateLimit, lastErr)
			}
			log.Debugf("rate limited, retrying in %v", backoff)
			if err := sleepWithContext(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2

		case errTypeNetwork:
			networkRetries++
			if networkRetries > maxNetworkRetries {
				return fmt.Errorf(errMsgNetwork+": %w", extractNetworkErrorMsg(lastErr), lastErr)
			}
			log.Debugf("network error, retrying in %v: %v", networkRetryDelay, lastErr)
			if err := sleepWithContext(ctx, networkRetryDelay); err != nil {
				return err
			}

		default:
			return classify(lastErr)
		}
	}
}

// classify decorates a non-retryable error with a user-facing message while
// keeping the original reachable through errors.Is and errors.As.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch classifyError(err) {
	case errTypeServer:
		return fmt.Errorf("%s: %w", errMsgServer, err)
	case errTypeTimeout:
		return fmt.Errorf("%s: %w", errMsgTimeout, err)
	case errTypeNetwork:
		return fmt.Errorf(errMsgNetwork+": %w", extractNetworkErrorMsg(err), err)
	default:
		return err
	}
}

// errorType represents the category of error
type errorType int

const (
	errTypeUnknown errorType = iota
	errTypeRateLimit
	errTypeNetwork
	errTypeServer
	errTypeTimeout
)

// classifyError determines the type of error from HTTP status codes and
// network error types.
func classifyError(err error) errorType {
	if err == nil {
		return errTypeUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errTypeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return errTypeUnknown // Let caller handle canceled context
	}

	var remote *stream.RemoteError
	if errors.As(err, &remote) {
		switch {
		case remote.StatusCode == http.StatusTooManyRequests:
			return errTypeRateLimit
		case remote.StatusCode >= 500:
			return errTypeServer
		default:
			return errTypeUnknown
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errTypeTimeout
	}
	if isNetworkError(err) {
		return errTypeNetwork
	}

	return errTypeUnknown
}

// isNetworkError checks if an error is a network-related error
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// extractNetworkErrorMsg extracts a user-friendly message from a network error
func extractNetworkErrorMsg(err error) string {
	if err == nil {
		return "unknown network error"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op + " failed"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "connection timed out"
		}
		return "connection failed"
	}

	return err.Error()
}

// sleepWithContext sleeps for the specified duration, respecting context cancellation
func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
