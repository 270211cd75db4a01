package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/foundr/internal/clock"
	"github.com/smallbiznis/foundr/internal/config"
	"github.com/smallbiznis/foundr/internal/observability/metrics"
)

var (
	ErrEmptyKey      = errors.New("rate limiter key is empty")
	ErrInvalidPolicy = errors.New("rate limiter policy must have a positive limit and window")
)

// Policy allows Limit attempts per key inside each fixed Window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Store increments the counter for key, starting a new window of the given
// length when none is open, and returns the count and the time left in it.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Policies groups the per-endpoint limits.
type Policies struct {
	PaymentIntent    Policy
	Registration     Policy
	InvestorInterest Policy
}

func NewPolicies(cfg config.Config) Policies {
	rl := cfg.RateLimit
	return Policies{
		PaymentIntent:    Policy{Name: "payment_intent", Limit: rl.PaymentIntentLimit, Window: rl.PaymentIntentWindow},
		Registration:     Policy{Name: "register", Limit: rl.RegistrationLimit, Window: rl.RegistrationWindow},
		InvestorInterest: Policy{Name: "investor_interest", Limit: rl.InvestorLimit, Window: rl.InvestorWindow},
	}
}

type Limiter struct {
	store   Store
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewLimiter(store Store, clk clock.Clock) *Limiter {
	if clk == nil {
		clk = clock.System{}
	}
	return &Limiter{store: store, clock: clk}
}

// Allow counts one attempt for subject under policy.
func (l *Limiter) Allow(ctx context.Context, policy Policy, subject string) (Result, error) {
	subject = strings.ToLower(strings.TrimSpace(subject))
	if subject == "" {
		return Result{}, ErrEmptyKey
	}
	if policy.Limit <= 0 || policy.Window <= 0 {
		return Result{}, ErrInvalidPolicy
	}

	count, ttl, err := l.store.Increment(ctx, Key(policy, subject), policy.Window)
	if err != nil {
		return Result{}, err
	}
	if ttl <= 0 || ttl > policy.Window {
		ttl = policy.Window
	}

	res := Result{
		Allowed:   count <= int64(policy.Limit),
		Limit:     policy.Limit,
		Remaining: max(policy.Limit-int(count), 0),
		ResetAt:   l.clock.Now().Add(ttl),
	}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res, nil
}

// Key builds the storage key, e.g. "ratelimit:register:someone@example.com".
func Key(policy Policy, subject string) string {
	return "ratelimit:" + policy.Name + ":" + subject
}
