package http

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// TestExecuteWithRetry_Success verifies basic success case returns nil on first attempt.
func TestExecuteWithRetry_Success(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// TestExecuteWithRetry_FatalError verifies no retry on fatal errors.
func TestExecuteWithRetry_FatalError(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		return fmt.Errorf("400 bad request")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry on fatal), got %d", calls)
	}
}

// TestExecuteWithRetry_RetryableError verifies retries happen for server errors.
func TestExecuteWithRetry_RetryableError(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		MaxRetries:   4,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}

	calls := 0
	err := ExecuteWithRetry(ctx, cfg, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("503 service unavailable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorType
	}{
		{nil, ErrorTypeSuccess},
		{fmt.Errorf("API error 401: unauthorized"), ErrorTypeCredential},
		{fmt.Errorf("token expired"), ErrorTypeCredential},
		{fmt.Errorf("dial tcp: connection refused"), ErrorTypeNetwork},
		{fmt.Errorf("read: i/o timeout"), ErrorTypeNetwork},
		{fmt.Errorf("API error 503: overloaded"), ErrorTypeRetryable},
		{fmt.Errorf("API error 429: throttled"), ErrorTypeRetryable},
		{fmt.Errorf("API error 409: duplicate photo"), ErrorTypeFatal},
		{fmt.Errorf("API error 413: quota exceeded"), ErrorTypeFatal},
		{fmt.Errorf("something odd"), ErrorTypeFatal},
	}

	for _, tc := range cases {
		if got := ClassifyError(tc.err); got != tc.want {
			t.Errorf("ClassifyError(%v) = %s, want %s", tc.err, ErrorTypeName(got), ErrorTypeName(tc.want))
		}
	}
}

func TestCalculateBackoff(t *testing.T) {
	initial := 100 * time.Millisecond
	max := time.Second

	if d := CalculateBackoff(0, initial, max); d != 0 {
		t.Errorf("attempt 0 should have no backoff, got %v", d)
	}

	for attempt := 1; attempt < 8; attempt++ {
		d := CalculateBackoff(attempt, initial, max)
		if d < 0 || d > max {
			t.Errorf("attempt %d: backoff %v out of [0, %v]", attempt, d, max)
		}
	}
}
