// Package ratelimit implements the fixed-window attempt limiter guarding OTP
// resends, password reset requests and logins. Each Store applies one attempt
// atomically so concurrent callers never push a window past its maximum.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

// Decision is the outcome of one attempt.
type Decision struct {
	Allowed    bool
	RetryAfter time.Time
	Count      int
}

// Store applies a single attempt for (identifier, action) under p at now.
type Store interface {
	Hit(ctx context.Context, identifier string, action domain.RateLimitAction, p Policy, now time.Time) (Decision, error)
}

type Limiter struct {
	store    Store
	policies map[domain.RateLimitAction]Policy
	logger   zerolog.Logger
	now      func() time.Time
}

type Option func(*Limiter)

// WithPolicies replaces the default policy table.
func WithPolicies(p map[domain.RateLimitAction]Policy) Option {
	return func(l *Limiter) { l.policies = p }
}

// WithClock overrides time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func New(store Store, logger zerolog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		store:    store,
		policies: DefaultPolicies,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check records one attempt and reports whether it is allowed. Store failures
// and unknown actions are allowed and logged.
func (l *Limiter) Check(ctx context.Context, identifier string, action domain.RateLimitAction) Decision {
	identifier = normalize(identifier)
	policy, ok := l.policies[action]
	if !ok {
		l.logger.Warn().Str("action", string(action)).Msg("rate limit policy missing; allowing")
		return Decision{Allowed: true}
	}

	d, err := l.store.Hit(ctx, identifier, action, policy, l.now().UTC())
	if err != nil {
		l.logger.Warn().Err(err).
			Str("action", string(action)).
			Str("identifier", fingerprint(identifier)).
			Msg("rate limit store failed; allowing")
		return Decision{Allowed: true}
	}
	if !d.Allowed {
		l.logger.Info().
			Str("action", string(action)).
			Str("identifier", fingerprint(identifier)).
			Time("retry_after", d.RetryAfter).
			Msg("rate limited")
	}
	return d
}

// Enforce is Check returning *domain.RateLimitError on denial.
func (l *Limiter) Enforce(ctx context.Context, identifier string, action domain.RateLimitAction) error {
	d := l.Check(ctx, identifier, action)
	if d.Allowed {
		return nil
	}
	return &domain.RateLimitError{Action: action, RetryAfter: d.RetryAfter}
}

// Now returns the limiter clock.
func (l *Limiter) Now() time.Time { return l.now() }

// fingerprint is a short stable digest of identifier for log correlation.
func fingerprint(identifier string) string {
	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:6])
}

func normalize(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
