package domain

import "time"

// OTP is a one-time email verification code. Only the hash of the code is stored.
type OTP struct {
	ID         string
	Email      string
	CodeHash   string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Active reports whether the code can still be redeemed at now.
func (o OTP) Active(now time.Time) bool {
	return o.ConsumedAt == nil && now.Before(o.ExpiresAt)
}

// PasswordResetToken is a single-use reset link secret. Only the hash is stored.
type PasswordResetToken struct {
	ID         string
	Email      string
	TokenHash  string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

const (
	OTPLifetime        = 10 * time.Minute
	ResetTokenLifetime = time.Hour
)
