package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/bhos1242/seva-samarpan-sub001/internal/infra"
	"github.com/bhos1242/seva-samarpan-sub001/internal/sqlinline"
)

// TokenSweeper removes expired or consumed OTPs and password reset tokens.
type TokenSweeper struct {
	sql infra.SQLExecutor
}

func NewTokenSweeper(sql infra.SQLExecutor) *TokenSweeper {
	return &TokenSweeper{sql: sql}
}

// Sweep deletes dead tokens and returns how many rows went.
func (s *TokenSweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	otps, err := s.sql.Exec(ctx, sqlinline.QSweepExpiredOTPs, now)
	if err != nil {
		return 0, fmt.Errorf("sweep otps: %w", err)
	}
	resets, err := s.sql.Exec(ctx, sqlinline.QSweepExpiredResetTokens, now)
	if err != nil {
		return otps.RowsAffected(), fmt.Errorf("sweep reset tokens: %w", err)
	}
	return otps.RowsAffected() + resets.RowsAffected(), nil
}
