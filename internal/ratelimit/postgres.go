package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/infra"
	"github.com/bhos1242/seva-samarpan-sub001/internal/sqlinline"
)

const maxHitAttempts = 3

// PostgresStore keeps windows in the rate_limits table.
type PostgresStore struct {
	sql infra.SQLExecutor
}

func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

// Hit runs the attempt as one statement. No row comes back only when another
// session inserted the window after this statement's snapshot; retrying then
// sees that row.
func (s *PostgresStore) Hit(ctx context.Context, identifier string, action domain.RateLimitAction, p Policy, now time.Time) (Decision, error) {
	for attempt := 0; attempt < maxHitAttempts; attempt++ {
		var d Decision
		err := s.sql.QueryRow(ctx, sqlinline.QHitRateLimit,
			identifier, string(action), now, now.Add(p.Window), p.Max,
		).Scan(&d.Allowed, &d.Count, &d.RetryAfter)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return Decision{}, fmt.Errorf("rate limit hit: %w", err)
		}
		return d, nil
	}
	return Decision{}, fmt.Errorf("rate limit hit: %s/%s contended", action, identifier)
}

// Sweep deletes windows that reset at or before now.
func (s *PostgresStore) Sweep(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.sql.Exec(ctx, sqlinline.QSweepExpiredRateLimits, now)
	if err != nil {
		return 0, fmt.Errorf("sweep rate limits: %w", err)
	}
	return tag.RowsAffected(), nil
}
