// Package auth implements email/password accounts: signup with an emailed
// one-time code, login, and password reset by single-use link.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/middleware"
)

const (
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLen = 72
	resetTokenSize = 32
)

// Limiter is satisfied by *ratelimit.Limiter.
type Limiter interface {
	Enforce(ctx context.Context, identifier string, action domain.RateLimitAction) error
}

// Mailer is the subset of mailer.Mailer used by account flows.
type Mailer interface {
	SendOTPEmail(ctx context.Context, to, name, code string) error
	SendPasswordResetEmail(ctx context.Context, to, name, link string) error
}

type Config struct {
	JWTSecret  string
	SessionTTL time.Duration
	// AppBaseURL is the frontend origin used in reset links.
	AppBaseURL string
	BcryptCost int
}

// Session is an issued bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type SignupInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type Service struct {
	users   domain.UserRepository
	otps    domain.OTPRepository
	resets  domain.PasswordResetRepository
	limiter Limiter
	mailer  Mailer
	cfg     Config
	logger  zerolog.Logger

	now     func() time.Time
	random  io.Reader
	dummyPW []byte
}

var validate = validator.New()

func NewService(
	users domain.UserRepository,
	otps domain.OTPRepository,
	resets domain.PasswordResetRepository,
	limiter Limiter,
	mailer Mailer,
	cfg Config,
	logger zerolog.Logger,
) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	cfg.AppBaseURL = strings.TrimRight(cfg.AppBaseURL, "/")
	// Compared against on unknown emails so login timing does not reveal accounts.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("seva-samarpan-dummy"), cfg.BcryptCost)
	return &Service{
		users:   users,
		otps:    otps,
		resets:  resets,
		limiter: limiter,
		mailer:  mailer,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		random:  rand.Reader,
		dummyPW: dummy,
	}
}

// Signup creates an unverified account and emails a verification code. If the
// email cannot be sent the account is removed so the address can retry.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}
	if err := checkEmail(in.Email); err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         domain.UserRoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sendOTP(ctx, user); err != nil {
		if delErr := s.otps.DeleteByEmail(ctx, user.Email); delErr != nil {
			s.logger.Error().Err(delErr).Str("user_id", user.ID).Msg("signup rollback: delete otp failed")
		}
		if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("user_id", user.ID).Msg("signup rollback: delete user failed")
		}
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("user signed up")
	return user, nil
}

// VerifyOTP redeems the latest code for email, marks the address verified and
// opens a session. Attempts per email are limited by the verify-otp policy.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if len(code) != 6 {
		return nil, domain.NewValidationError("otp", "code must be 6 digits")
	}
	if err := s.limiter.Enforce(ctx, email, domain.ActionVerifyOTP); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return nil, domain.NewValidationError("email", "email already verified")
	}

	otp, err := s.otps.LatestActive(ctx, email, s.now().UTC())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(hashSecret(code)), []byte(otp.CodeHash)) != 1 {
		return nil, domain.ErrInvalidToken
	}
	ok, err := s.otps.Consume(ctx, otp.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.EmailVerified = true
	return s.issue(user)
}

// ResendOTP supersedes any outstanding code with a fresh one. It is limited to
// one call per email per minute. Unknown and already verified addresses
// succeed without sending anything.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return err
	}
	if err := s.limiter.Enforce(ctx, email, domain.ActionResendOTP); err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug().Msg("otp resend for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	if user.EmailVerified {
		s.logger.Debug().Str("user_id", user.ID).Msg("otp resend for verified user")
		return nil
	}
	return s.sendOTP(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyPW, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}
	return s.issue(user)
}

// ForgotPassword emails a reset link. Unknown addresses succeed silently. If
// the email fails the fresh token is deleted.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return err
	}
	if err := s.limiter.Enforce(ctx, email, domain.ActionForgotPassword); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug().Msg("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	raw := make([]byte, resetTokenSize)
	if _, err := io.ReadFull(s.random, raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	tok, err := s.resets.Replace(ctx, email, hashSecret(token), s.now().UTC().Add(domain.ResetTokenLifetime))
	if err != nil {
		return err
	}

	link := s.cfg.AppBaseURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Name, link); err != nil {
		if delErr := s.resets.Delete(ctx, tok.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("user_id", user.ID).Msg("delete reset token failed")
		}
		return fmt.Errorf("send password reset email: %w", err)
	}
	return nil
}

// ResetPassword redeems token once and stores the new password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.NewValidationError("token", "token is required")
	}
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	tok, err := s.resets.Consume(ctx, hashSecret(token), s.now().UTC())
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, tok.Email, string(hash)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidToken
		}
		return err
	}
	s.logger.Info().Str("token_id", tok.ID).Msg("password reset")
	return nil
}

func (s *Service) Me(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.users.GetByID(ctx, userID)
}

func (s *Service) sendOTP(ctx context.Context, user *domain.User) error {
	code, err := s.newOTPCode()
	if err != nil {
		return err
	}
	if _, err := s.otps.Replace(ctx, user.Email, hashSecret(code), s.now().UTC().Add(domain.OTPLifetime)); err != nil {
		return err
	}
	if err := s.mailer.SendOTPEmail(ctx, user.Email, user.Name, code); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

func (s *Service) newOTPCode() (string, error) {
	n, err := rand.Int(s.random, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *Service) issue(user *domain.User) (*Session, error) {
	token, expires, err := middleware.SignJWT(s.cfg.JWTSecret, user, s.now(), s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

// hashSecret stores OTPs and reset tokens as sha256 hex digests.
func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return domain.NewValidationError("email", "a valid email is required")
	}
	return nil
}

func checkPassword(pw string) error {
	switch {
	case len(pw) < minPasswordLen:
		return domain.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	case len(pw) > maxPasswordLen:
		return domain.NewValidationError("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordLen))
	}
	return nil
}
