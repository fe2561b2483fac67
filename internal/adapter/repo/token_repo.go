package repo

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

// OTPRepositoryPG implements domain.OTPRepository.
type OTPRepositoryPG struct {
	sql infra.TxExecutor
}

func NewOTPRepository(sql infra.TxExecutor) *OTPRepositoryPG {
	return &OTPRepositoryPG{sql: sql}
}

// Replace deletes older codes for email and inserts the new one in one transaction.
func (r *OTPRepositoryPG) Replace(ctx context.Context, email, codeHash string, expiresAt time.Time) (*domain.OTP, error) {
	var otp *domain.OTP
	err := r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		if _, err := q.Exec(ctx, sqlinline.QDeleteOTPsByEmail, email); err != nil {
			return fmt.Errorf("supersede otps: %w", err)
		}
		var err error
		otp, err = scanOTP(q.QueryRow(ctx, sqlinline.QInsertOTP, email, codeHash, expiresAt))
		return err
	})
	if err != nil {
		return nil, err
	}
	return otp, nil
}

func (r *OTPRepositoryPG) LatestActive(ctx context.Context, email string, now time.Time) (*domain.OTP, error) {
	return scanOTP(r.sql.QueryRow(ctx, sqlinline.QSelectLatestActiveOTP, email, now))
}

func (r *OTPRepositoryPG) Consume(ctx context.Context, id string) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QConsumeOTP, id)
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OTPRepositoryPG) DeleteByEmail(ctx context.Context, email string) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QDeleteOTPsByEmail, email); err != nil {
		return fmt.Errorf("delete otps: %w", err)
	}
	return nil
}

func scanOTP(row pgx.Row) (*domain.OTP, error) {
	var o domain.OTP
	if err := row.Scan(&o.ID, &o.Email, &o.CodeHash, &o.ExpiresAt, &o.ConsumedAt, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan otp: %w", err)
	}
	return &o, nil
}

// PasswordResetRepositoryPG implements domain.PasswordResetRepository.
type PasswordResetRepositoryPG struct {
	sql infra.TxExecutor
}

func NewPasswordResetRepository(sql infra.TxExecutor) *PasswordResetRepositoryPG {
	return &PasswordResetRepositoryPG{sql: sql}
}

func (r *PasswordResetRepositoryPG) Replace(ctx context.Context, email, tokenHash string, expiresAt time.Time) (*domain.PasswordResetToken, error) {
	var tok *domain.PasswordResetToken
	err := r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		if _, err := q.Exec(ctx, sqlinline.QDeleteResetTokensByEmail, email); err != nil {
			return fmt.Errorf("supersede reset tokens: %w", err)
		}
		var err error
		tok, err = scanResetToken(q.QueryRow(ctx, sqlinline.QInsertResetToken, email, tokenHash, expiresAt))
		return err
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// Consume redeems the token in a single conditional update; a used, expired or
// unknown token returns domain.ErrInvalidToken.
func (r *PasswordResetRepositoryPG) Consume(ctx context.Context, tokenHash string, now time.Time) (*domain.PasswordResetToken, error) {
	tok, err := scanResetToken(r.sql.QueryRow(ctx, sqlinline.QConsumeResetToken, tokenHash, now))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidToken
	}
	return tok, err
}

func (r *PasswordResetRepositoryPG) Delete(ctx context.Context, id string) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QDeleteResetToken, id); err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}
	return nil
}

func scanResetToken(row pgx.Row) (*domain.PasswordResetToken, error) {
	var t domain.PasswordResetToken
	if err := row.Scan(&t.ID, &t.Email, &t.TokenHash, &t.ExpiresAt, &t.ConsumedAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan reset token: %w", err)
	}
	return &t, nil
}

var (
	_ domain.OTPRepository           = (*OTPRepositoryPG)(nil)
	_ domain.PasswordResetRepository = (*PasswordResetRepositoryPG)(nil)
)
