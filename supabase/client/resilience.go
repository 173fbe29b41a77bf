package client

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/remnanthub/platform/pkg/logger"
)

// =============================================================================
// Retry policy
// =============================================================================

// RetryPolicy configures retries of failed requests.
type RetryPolicy struct {
	// MaxRetries is the number of extra attempts. Negative disables the
	// resilient transport altogether.
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Jitter            float64
}

// DefaultRetryPolicy returns the retry settings used in production.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
	}
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	initial := p.InitialBackoff
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}
	multiplier := p.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	d := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if p.MaxBackoff > 0 && d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// =============================================================================
// Circuit breaker
// =============================================================================

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures circuit breaker behavior.
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before probing again.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the breaker settings used in production.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Cooldown:         30 * time.Second,
	}
}

// ErrCircuitOpen is returned while Supabase is considered unavailable.
var ErrCircuitOpen = errors.New("supabase circuit breaker is open")

// Breaker stops calling Supabase after repeated failures.
type Breaker struct {
	mu        sync.Mutex
	cfg       BreakerConfig
	state     CircuitState
	failures  int
	successes int
	openedAt  time.Time
	now       func() time.Time
}

// NewBreaker creates a closed breaker. Zero fields fall back to defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Allow reports whether a request may proceed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitOpen {
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return ErrCircuitOpen
		}
		b.state = CircuitHalfOpen
		b.successes = 0
	}
	return nil
}

// Success records a healthy response.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitClosed:
		b.failures = 0
	case CircuitHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = CircuitClosed
			b.failures = 0
		}
	}
}

// Failure records an unhealthy response.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == CircuitHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.state = CircuitOpen
		b.openedAt = b.now()
	}
}

// State returns the current circuit state.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// =============================================================================
// Transport
// =============================================================================

// Observer is told about every attempt. status is 0 when the request failed
// before a response arrived.
type Observer func(method string, status int, elapsed time.Duration, err error)

// Transport retries transient failures, trips a breaker on repeated ones and
// forwards the request trace id.
type Transport struct {
	base     http.RoundTripper
	policy   RetryPolicy
	breaker  *Breaker
	observer Observer
}

// NewTransport wraps base with retries and a circuit breaker.
func NewTransport(base http.RoundTripper, policy RetryPolicy, breaker BreakerConfig, observer Observer) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:     base,
		policy:   policy,
		breaker:  NewBreaker(breaker),
		observer: observer,
	}
}

// Breaker exposes the transport's circuit breaker.
func (t *Transport) Breaker() *Breaker {
	return t.breaker
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.breaker.Allow(); err != nil {
		return nil, err
	}
	if traceID := logger.TraceID(req.Context()); traceID != "" && req.Header.Get("X-Trace-ID") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("X-Trace-ID", traceID)
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(t.policy.backoff(attempt)):
			}
			if req, err = rewind(req); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		resp, err = t.base.RoundTrip(req)
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		if t.observer != nil {
			t.observer(req.Method, status, time.Since(start), err)
		}

		retry := (err != nil && retryableError(err)) || (err == nil && retryableStatus(status))
		if !retry || attempt >= t.policy.MaxRetries {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}
	}

	if err != nil || status5xx(resp) {
		t.breaker.Failure()
	} else {
		t.breaker.Success()
	}
	return resp, err
}

func status5xx(resp *http.Response) bool {
	return resp != nil && resp.StatusCode >= 500
}

// rewind prepares a request for another attempt, recreating its body.
func rewind(req *http.Request) (*http.Request, error) {
	next := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return next, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	next.Body = body
	return next, nil
}
