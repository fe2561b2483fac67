package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

// MemoryStore keeps windows in process. Suitable for development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*domain.RateLimitRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*domain.RateLimitRecord)}
}

func (s *MemoryStore) Hit(_ context.Context, identifier string, action domain.RateLimitAction, p Policy, now time.Time) (Decision, error) {
	key := string(action) + ":" + identifier

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || rec.Expired(now) {
		rec = &domain.RateLimitRecord{
			Identifier: identifier,
			Action:     action,
			Count:      1,
			ResetAt:    now.Add(p.Window),
		}
		s.records[key] = rec
		return Decision{Allowed: true, RetryAfter: rec.ResetAt, Count: 1}, nil
	}
	if rec.Count >= p.Max {
		return Decision{Allowed: false, RetryAfter: rec.ResetAt, Count: rec.Count}, nil
	}
	rec.Count++
	return Decision{Allowed: true, RetryAfter: rec.ResetAt, Count: rec.Count}, nil
}

// Sweep drops expired windows and returns how many were removed.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}
