package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/buker/brdesk/internal/stream"
)

func TestExecuteWithRetry_NetworkError_RetriesOnce(t *testing.T) {
	fastRetries(t)
	callCount := 0
	fn := func() error {
		callCount++
		return &net.DNSError{Err: "no such host", IsNotFound: true}
	}

	err := executeWithRetry(context.Background(), fn)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if callCount != 2 {
		t.Errorf("expected 2 calls (1 initial + 1 retry), got %d", callCount)
	}
	if !strings.HasPrefix(err.Error(), "network error: no such host") {
		t.Errorf("error message = %q", err.Error())
	}
	var dnsErr *net.DNSError
	if !errors.As(err, &dnsErr) {
		t.Error("expected wrapped *net.DNSError")
	}
}

func TestExecuteWithRetry_RateLimit_BacksOff(t *testing.T) {
	fastRetries(t)
	callCount := 0
	callTimes := make([]time.Time, 0, 4)
	fn := func() error {
		callCount++
		callTimes = append(callTimes, time.Now())
		return &stream.RemoteError{StatusCode: 429}
	}

	err := executeWithRetry(context.Background(), fn)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if callCount != maxRateLimitRetries+1 {
		t.Errorf("expected %d calls, got %d", maxRateLimitRetries+1, callCount)
	}
	if !strings.HasPrefix(err.Error(), errMsgRateLimit) {
		t.Errorf("error message = %q, want prefix %q", err.Error(), errMsgRateLimit)
	}
	// third gap should be at least 4x the initial backoff
	if gap := callTimes[3].Sub(callTimes[2]); gap < 4*initialBackoff {
		t.Errorf("backoff did not grow: %v", gap)
	}
}

func TestExecuteWithRetry_RateLimitThenSuccess(t *testing.T) {
	fastRetries(t)
	callCount := 0
	fn := func() error {
		callCount++
		if callCount == 1 {
			return &stream.RemoteError{StatusCode: 429}
		}
		return nil
	}

	if err := executeWithRetry(context.Background(), fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if callCount != 2 {
		t.Errorf("expected 2 calls, got %d", callCount)
	}
}

func TestExecuteWithRetry_ServerError_NoRetry(t *testing.T) {
	callCount := 0
	fn := func() error {
		callCount++
		return &stream.RemoteError{StatusCode: 502, Body: "bad gateway"}
	}

	err := executeWithRetry(context.Background(), fn)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if !strings.HasPrefix(err.Error(), errMsgServer) {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestExecuteWithRetry_Success(t *testing.T) {
	callCount := 0
	fn := func() error {
		callCount++
		return nil
	}

	if err := executeWithRetry(context.Background(), fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestExecuteWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fn := func() error {
		return errors.New("should not be called")
	}

	err := executeWithRetry(ctx, fn)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExecuteWithRetry_CanceledDuringBackoff(t *testing.T) {
	old := initialBackoff
	initialBackoff = time.Hour
	t.Cleanup(func() { initialBackoff = old })

	ctx, cancel := context.WithCancel(context.Background())
	fn := func() error {
		cancel()
		return &stream.RemoteError{StatusCode: 429}
	}

	err := executeWithRetry(ctx, fn)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errorType
	}{
		{"nil", nil, errTypeUnknown},
		{"rate limit", &stream.RemoteError{StatusCode: 429}, errTypeRateLimit},
		{"server", &stream.RemoteError{StatusCode: 503}, errTypeServer},
		{"client", &stream.RemoteError{StatusCode: 400}, errTypeUnknown},
		{"wrapped server", fmt.Errorf("x: %w", &stream.RemoteError{StatusCode: 500}), errTypeServer},
		{"deadline", context.DeadlineExceeded, errTypeTimeout},
		{"canceled", context.Canceled, errTypeUnknown},
		{"dns", &net.DNSError{Err: "no such host"}, errTypeNetwork},
		{"op", &net.OpError{Op: "dial", Err: errors.New("refused")}, errTypeNetwork},
		{"plain", errors.New("plain"), errTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err); got != tt.want {
				t.Errorf("classifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractNetworkErrorMsg(t *testing.T) {
	if got := extractNetworkErrorMsg(&net.DNSError{Err: "no such host"}); got != "no such host" {
		t.Errorf("dns message = %q", got)
	}
	if got := extractNetworkErrorMsg(&net.OpError{Op: "dial", Err: errors.New("x")}); got != "dial failed" {
		t.Errorf("op message = %q", got)
	}
	if got := extractNetworkErrorMsg(nil); got != "unknown network error" {
		t.Errorf("nil message = %q", got)
	}
}

func TestClassify_KeepsOriginal(t *testing.T) {
	orig := &stream.RemoteError{StatusCode: 500, Body: "trace"}
	err := classify(orig)
	var remote *stream.RemoteError
	if !errors.As(err, &remote) || remote != orig {
		t.Fatalf("original error lost: %v", err)
	}
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}
