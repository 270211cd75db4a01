package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/foundr/internal/observability/metrics"
)

var (
	ErrLimitExceeded = errors.New("rate_limited")
	ErrUnavailable   = errors.New("rate_limiter_unavailable")
)

// ExceededError is returned by Enforce when the window is exhausted. Message
// is safe to show to the caller.
type ExceededError struct {
	Policy     string
	RetryAfter time.Duration
	Message    string
}

func (e *ExceededError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Too many requests. Please try again later."
}

func (e *ExceededError) Is(target error) bool {
	return target == ErrLimitExceeded
}

// Enforce counts one attempt and turns a denial into *ExceededError. Store
// failures are wrapped with ErrUnavailable.
func (l *Limiter) Enforce(ctx context.Context, policy Policy, subject, message string) error {
	res, err := l.Allow(ctx, policy, subject)
	if err != nil {
		if errors.Is(err, ErrEmptyKey) || errors.Is(err, ErrInvalidPolicy) {
			return err
		}
		l.metrics.RecordRateLimitDenied(ctx, policy.Name, "backend_error")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !res.Allowed {
		l.metrics.RecordRateLimitDenied(ctx, policy.Name, "window_exhausted")
		return &ExceededError{Policy: policy.Name, RetryAfter: res.RetryAfter, Message: message}
	}
	l.metrics.RecordRateLimitAllowed(ctx, policy.Name)
	return nil
}

// WithMetrics attaches allow/deny counters.
func (l *Limiter) WithMetrics(m *metrics.Metrics) *Limiter {
	l.metrics = m
	return l
}
