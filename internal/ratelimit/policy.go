package ratelimit

import (
	"time"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

// Policy caps an action at Max attempts per fixed Window.
type Policy struct {
	Max    int
	Window time.Duration
}

// DefaultPolicies are the limits applied by the auth flows.
var DefaultPolicies = map[domain.RateLimitAction]Policy{
	domain.ActionResendOTP:      {Max: 1, Window: time.Minute},
	domain.ActionForgotPassword: {Max: 3, Window: time.Hour},
	domain.ActionLogin:          {Max: 10, Window: 15 * time.Minute},
	domain.ActionVerifyOTP:      {Max: 5, Window: domain.OTPLifetime},
}
