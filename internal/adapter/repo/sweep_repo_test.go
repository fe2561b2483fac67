package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bhos1242/seva-samarpan-sub001/internal/sqlinline"
)

func TestTokenSweeperSumsBothTables(t *testing.T) {
	sql := newFakeSQL()
	now := time.Now().UTC()
	sql.execs[marker(sqlinline.QSweepExpiredOTPs)] = func(args []any) (pgconn.CommandTag, error) {
		if got, _ := args[0].(time.Time); !got.Equal(now) {
			t.Fatalf("otp sweep got %v, want %v", args[0], now)
		}
		return pgconn.NewCommandTag("DELETE 4"), nil
	}
	sql.execs[marker(sqlinline.QSweepExpiredResetTokens)] = func([]any) (pgconn.CommandTag, error) {
		return pgconn.NewCommandTag("DELETE 2"), nil
	}

	n, err := NewTokenSweeper(sql).Sweep(context.Background(), now)
	if err != nil {
		t.Fatalf("Sweep() error: %v", err)
	}
	if n != 6 {
		t.Fatalf("Sweep() = %d, want 6", n)
	}
}

func TestTokenSweeperStopsOnError(t *testing.T) {
	sql := newFakeSQL()
	sql.execs[marker(sqlinline.QSweepExpiredOTPs)] = func([]any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, errors.New("connection reset")
	}

	if _, err := NewTokenSweeper(sql).Sweep(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected error")
	}
	if len(sql.calls) != 1 {
		t.Fatalf("reset sweep should not run after otp failure, calls = %v", sql.calls)
	}
}
