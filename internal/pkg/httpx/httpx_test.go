package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return fmt.Sprintf("http %d", e.code) }
func (e *statusErr) HTTPStatusCode() int { return e.code }

func TestIsRetryableHTTPStatus(t *testing.T) {
	retryable := []int{408, 429, 500, 502, 503, 599}
	for _, code := range retryable {
		if !IsRetryableHTTPStatus(code) {
			t.Fatalf("%d should be retryable", code)
		}
	}
	final := []int{200, 301, 400, 401, 403, 404, 409, 422}
	for _, code := range final {
		if IsRetryableHTTPStatus(code) {
			t.Fatalf("%d should not be retryable", code)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	if IsRetryableError(nil) {
		t.Fatal("nil error retryable")
	}
	if !IsRetryableError(context.DeadlineExceeded) {
		t.Fatal("deadline not retryable")
	}
	if !IsRetryableError(&statusErr{code: 503}) {
		t.Fatal("503 not retryable")
	}
	if IsRetryableError(&statusErr{code: 400}) {
		t.Fatal("400 retryable")
	}
	if IsRetryableError(errors.New("plain")) {
		t.Fatal("plain error retryable")
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "3")
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 3*time.Second {
		t.Fatalf("Retry-After honored wrong: %v", got)
	}
	if got := RetryAfterDuration(resp, time.Second, 2*time.Second); got != 2*time.Second {
		t.Fatalf("max cap ignored: %v", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 10*time.Second); got != time.Second {
		t.Fatalf("fallback wrong: %v", got)
	}
}

func TestJitterSleepBounds(t *testing.T) {
	base := time.Second
	for i := 0; i < 100; i++ {
		got := JitterSleep(base)
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("jitter out of bounds: %v", got)
		}
	}
	if JitterSleep(0) != 0 {
		t.Fatal("zero base should sleep zero")
	}
}
