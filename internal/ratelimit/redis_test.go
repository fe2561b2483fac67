package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStoreWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client)
	p := Policy{Max: 2, Window: time.Minute}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		d, err := store.Hit(ctx, "a@x.org", domain.ActionForgotPassword, p, now)
		if err != nil {
			t.Fatalf("hit %d: %v", i, err)
		}
		if !d.Allowed || d.Count != i {
			t.Fatalf("hit %d: got %+v", i, d)
		}
	}

	d, err := store.Hit(ctx, "a@x.org", domain.ActionForgotPassword, p, now)
	if err != nil {
		t.Fatalf("third hit: %v", err)
	}
	if d.Allowed {
		t.Fatalf("third hit should be denied")
	}
	if d.RetryAfter.Sub(now) <= 0 || d.RetryAfter.Sub(now) > time.Minute {
		t.Fatalf("retry after out of window: %v", d.RetryAfter.Sub(now))
	}

	mr.FastForward(61 * time.Second)

	d, err = store.Hit(ctx, "a@x.org", domain.ActionForgotPassword, p, now.Add(61*time.Second))
	if err != nil {
		t.Fatalf("after window: %v", err)
	}
	if !d.Allowed || d.Count != 1 {
		t.Fatalf("window should reset, got %+v", d)
	}
}

func TestRedisStoreKeyLayout(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client)

	if _, err := store.Hit(context.Background(), "user@x.com", domain.ActionResendOTP, Policy{Max: 1, Window: time.Minute}, time.Now()); err != nil {
		t.Fatalf("hit: %v", err)
	}
	if !mr.Exists("rl:resend-otp:user@x.com") {
		t.Fatalf("expected window key, have %v", mr.Keys())
	}
	if ttl := mr.TTL("rl:resend-otp:user@x.com"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}

func TestRedisStoreUnavailableFailsOpenThroughLimiter(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	l := New(NewRedisStore(client), zerologNop())
	if d := l.Check(context.Background(), "a@x.org", domain.ActionResendOTP); !d.Allowed {
		t.Fatalf("expected fail-open, got %+v", d)
	}
}
