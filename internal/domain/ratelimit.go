package domain

import "time"

// RateLimitAction names a throttled operation.
type RateLimitAction string

const (
	ActionResendOTP      RateLimitAction = "resend-otp"
	ActionForgotPassword RateLimitAction = "forgot-password"
	ActionLogin          RateLimitAction = "login"
	ActionVerifyOTP      RateLimitAction = "verify-otp"
)

// RateLimitRecord is the windowed attempt counter for one (identifier, action) pair.
type RateLimitRecord struct {
	Identifier string
	Action     RateLimitAction
	Count      int
	ResetAt    time.Time
}

// Expired reports whether the window has rolled over at now.
func (r RateLimitRecord) Expired(now time.Time) bool {
	return !now.Before(r.ResetAt)
}
