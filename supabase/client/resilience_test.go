package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/remnanthub/platform/pkg/logger"
)

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, BackoffMultiplier: 2}
}

func TestTransport_RetriesUnavailable(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != "payload" {
			t.Errorf("attempt body = %q", body)
		}
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := NewTransport(http.DefaultTransport, fastPolicy(3), DefaultBreakerConfig(), nil)
	req, _ := http.NewRequest(http.MethodPost, server.URL, bytes.NewReader([]byte("payload")))
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
	if transport.Breaker().State() != CircuitClosed {
		t.Fatalf("breaker should stay closed")
	}
}

func TestTransport_DoesNotRetryClientErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	transport := NewTransport(nil, fastPolicy(3), BreakerConfig{}, nil)
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
	if atomic.LoadInt32(&attempts) != 1 {
		t.Fatalf("client errors must not be retried")
	}
}

func TestTransport_OpensCircuit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var observed int32
	observer := func(method string, status int, elapsed time.Duration, err error) {
		atomic.AddInt32(&observed, 1)
	}
	transport := NewTransport(nil, fastPolicy(0), BreakerConfig{FailureThreshold: 2, Cooldown: time.Hour}, observer)

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		resp, err := transport.RoundTrip(req)
		if err != nil {
			t.Fatalf("round trip %d: %v", i, err)
		}
		resp.Body.Close()
	}
	if transport.Breaker().State() != CircuitOpen {
		t.Fatalf("breaker state = %s, want open", transport.Breaker().State())
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	if _, err := transport.RoundTrip(req); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if atomic.LoadInt32(&observed) != 2 {
		t.Fatalf("observer calls = %d, want 2", observed)
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Cooldown: time.Minute})
	current := time.Now()
	b.now = func() time.Time { return current }

	b.Failure()
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	current = current.Add(2 * time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe to be allowed: %v", err)
	}
	if b.State() != CircuitHalfOpen {
		t.Fatalf("state = %s, want half-open", b.State())
	}
	b.Success()
	if b.State() != CircuitClosed {
		t.Fatalf("state = %s, want closed", b.State())
	}
}

func TestTransport_ForwardsTraceID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Trace-ID") != "trace-42" {
			t.Errorf("trace header = %q", r.Header.Get("X-Trace-ID"))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	transport := NewTransport(nil, fastPolicy(0), BreakerConfig{}, nil)
	ctx := logger.WithTraceID(context.Background(), "trace-42")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
}

func TestCircuitState_String(t *testing.T) {
	cases := map[CircuitState]string{
		CircuitClosed:    "closed",
		CircuitOpen:      "open",
		CircuitHalfOpen:  "half-open",
		CircuitState(42): "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
