package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// BackoffStrategy defines the interface for different backoff strategies
type BackoffStrategy interface {
	// NextDelay returns the delay before retry number attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	// BaseDelay is the initial delay duration
	BaseDelay time.Duration
	// MaxDelay is the maximum delay duration
	MaxDelay time.Duration
	// Multiplier is the factor by which delay increases
	Multiplier float64
	// JitterFactor adds randomness to avoid thundering herd (0.0 to 1.0)
	JitterFactor float64
}

// NewExponentialBackoff starts at base and doubles up to one minute.
func NewExponentialBackoff(base time.Duration) *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    base,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	return withJitter(delay, eb.JitterFactor)
}

// LinearBackoff implements linear backoff strategy
type LinearBackoff struct {
	// BaseDelay is the delay before the first retry
	BaseDelay time.Duration
	// MaxDelay is the maximum delay duration
	MaxDelay time.Duration
	// Increment is the amount to increase delay by each attempt
	Increment time.Duration
	// JitterFactor adds randomness (0.0 to 1.0)
	JitterFactor float64
}

// NewLinearBackoff grows by base on every attempt, capped at 30 seconds.
func NewLinearBackoff(base time.Duration) *LinearBackoff {
	return &LinearBackoff{
		BaseDelay: base,
		MaxDelay:  30 * time.Second,
		Increment: base,
	}
}

// NextDelay calculates the next delay with linear backoff
func (lb *LinearBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(lb.BaseDelay + lb.Increment*time.Duration(attempt-1))
	if delay > float64(lb.MaxDelay) {
		delay = float64(lb.MaxDelay)
	}

	return withJitter(delay, lb.JitterFactor)
}

// ConstantBackoff waits the same delay before every retry. It is the
// default: the API client sleeps retry_delay on every 429/502.
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

func withJitter(delay, factor float64) time.Duration {
	if factor > 0 {
		jitter := delay * factor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// ParseStrategy maps a configuration name to a strategy seeded with delay.
// An empty name selects the constant strategy.
func ParseStrategy(name string, delay time.Duration) (BackoffStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "constant":
		return &ConstantBackoff{Delay: delay}, nil
	case "linear":
		return NewLinearBackoff(delay), nil
	case "exponential":
		return NewExponentialBackoff(delay), nil
	default:
		return nil, fmt.Errorf("unknown backoff strategy: %q", name)
	}
}

// StatusBackoff keeps a separate strategy for each transient status code.
type StatusBackoff struct {
	// RateLimit is used for 429 responses
	RateLimit BackoffStrategy
	// BadGateway is used for 502 responses
	BadGateway BackoffStrategy
	// Default is used for anything else the caller decides to retry
	Default BackoffStrategy
}

// NewStatusBackoff uses the same strategy for every status.
func NewStatusBackoff(strategy BackoffStrategy) *StatusBackoff {
	return &StatusBackoff{
		RateLimit:  strategy,
		BadGateway: strategy,
		Default:    strategy,
	}
}

// For returns the strategy to apply after a response with statusCode.
func (sb *StatusBackoff) For(statusCode int) BackoffStrategy {
	switch statusCode {
	case http.StatusTooManyRequests:
		return sb.RateLimit
	case http.StatusBadGateway:
		return sb.BadGateway
	default:
		return sb.Default
	}
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
