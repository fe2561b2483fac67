package ratelimit

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(store Store, c *clock) *Limiter {
	return New(store, zerolog.Nop(), WithClock(c.now))
}

func TestLimiterDeniesAfterMax(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	l := newTestLimiter(NewMemoryStore(), c)

	for i := 1; i <= 3; i++ {
		d := l.Check(context.Background(), "a@x.org", domain.ActionForgotPassword)
		require.True(t, d.Allowed, "attempt %d", i)
		assert.Equal(t, i, d.Count)
	}

	d := l.Check(context.Background(), "a@x.org", domain.ActionForgotPassword)
	assert.False(t, d.Allowed)
	assert.Equal(t, c.t.Add(time.Hour), d.RetryAfter)
	assert.Equal(t, 3, d.Count)
}

func TestLimiterWindowRollover(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	l := newTestLimiter(NewMemoryStore(), c)

	first := l.Check(context.Background(), "a@x.org", domain.ActionResendOTP)
	require.True(t, first.Allowed)
	require.False(t, l.Check(context.Background(), "a@x.org", domain.ActionResendOTP).Allowed)

	c.t = first.RetryAfter
	d := l.Check(context.Background(), "a@x.org", domain.ActionResendOTP)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
	assert.Equal(t, c.t.Add(time.Minute), d.RetryAfter)
}

func TestLimiterResendOTPTwiceWithinMinute(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := &clock{t: start}
	l := newTestLimiter(NewMemoryStore(), c)

	require.NoError(t, l.Enforce(context.Background(), "user@x.com", domain.ActionResendOTP))

	c.t = start.Add(20 * time.Second)
	err := l.Enforce(context.Background(), "User@X.com ", domain.ActionResendOTP)
	require.ErrorIs(t, err, domain.ErrRateLimited)

	var rl *domain.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, start.Add(time.Minute), rl.RetryAfter)
	assert.Equal(t, 40*time.Second, rl.RetryIn(c.t))
}

func TestLimiterActionsAreIndependent(t *testing.T) {
	c := &clock{t: time.Now()}
	l := newTestLimiter(NewMemoryStore(), c)

	require.True(t, l.Check(context.Background(), "a@x.org", domain.ActionResendOTP).Allowed)
	assert.True(t, l.Check(context.Background(), "a@x.org", domain.ActionForgotPassword).Allowed)
	assert.True(t, l.Check(context.Background(), "b@x.org", domain.ActionResendOTP).Allowed)
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, domain.RateLimitAction, Policy, time.Time) (Decision, error) {
	return Decision{}, errors.New("connection refused")
}

func TestLimiterFailsOpen(t *testing.T) {
	l := newTestLimiter(failingStore{}, &clock{t: time.Now()})
	for i := 0; i < 5; i++ {
		assert.True(t, l.Check(context.Background(), "a@x.org", domain.ActionResendOTP).Allowed)
	}
	assert.NoError(t, l.Enforce(context.Background(), "a@x.org", domain.ActionResendOTP))
}

func TestLimiterLogsFingerprintNotIdentifier(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	c := &clock{t: time.Now()}

	denied := New(NewMemoryStore(), logger, WithClock(c.now))
	denied.Check(context.Background(), "Asha@X.org", domain.ActionResendOTP)
	denied.Check(context.Background(), "asha@x.org", domain.ActionResendOTP)
	New(failingStore{}, logger, WithClock(c.now)).Check(context.Background(), "asha@x.org", domain.ActionResendOTP)

	out := buf.String()
	assert.Contains(t, out, "rate limited")
	assert.Contains(t, out, "rate limit store failed")
	assert.NotContains(t, strings.ToLower(out), "asha@x.org")
	assert.Equal(t, 2, strings.Count(out, fingerprint("asha@x.org")))
}

func TestLimiterUnknownActionAllowed(t *testing.T) {
	l := newTestLimiter(NewMemoryStore(), &clock{t: time.Now()})
	assert.True(t, l.Check(context.Background(), "a@x.org", domain.RateLimitAction("nope")).Allowed)
}

func TestMemoryStoreConcurrentHitsNeverExceedMax(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	p := Policy{Max: 10, Window: time.Minute}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := store.Hit(context.Background(), "1.2.3.4", domain.ActionLogin, p, now)
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowed)
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	_, _ = store.Hit(context.Background(), "a", domain.ActionResendOTP, Policy{Max: 1, Window: time.Minute}, now)
	_, _ = store.Hit(context.Background(), "b", domain.ActionForgotPassword, Policy{Max: 3, Window: time.Hour}, now)

	n, err := store.Sweep(context.Background(), now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
