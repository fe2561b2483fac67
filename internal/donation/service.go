// Package donation verifies payment callbacks and records donations together
// with the beneficiary funding aggregate in a single transaction.
package donation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

const (
	defaultDispatchTimeout = 30 * time.Second
	DefaultRecentLimit     = 20
	MaxRecentLimit         = 100
)

var (
	panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	validate   = validator.New()
)

// Donor identifies the supporter making a payment.
type Donor struct {
	Name  string
	Email string
	Phone string
}

// Verification is a payment gateway callback plus donor details.
type Verification struct {
	PaymentID  string
	OrderID    string
	Signature  string
	Donor      Donor
	Amount     int64
	StudentID  *string
	Require80G bool
	PANNumber  *string
	Country    string
}

// Result is what VerifyAndRecord committed. Student is nil for general donations.
type Result struct {
	Donation *domain.Donation
	Student  *domain.Student
}

// ReceiptSender emails the donor a receipt.
type ReceiptSender interface {
	SendDonationReceipt(ctx context.Context, d domain.Donation, s *domain.Student) error
}

// Notifier announces a committed donation to a student. Implementations must
// not block on delivery failures.
type Notifier interface {
	NotifyDonation(ctx context.Context, d domain.Donation, s domain.Student)
}

type Service struct {
	repo     domain.DonationRepository
	secret   string
	receipts ReceiptSender
	notifier Notifier
	logger   zerolog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

type Option func(*Service)

// WithNotifier enables post-commit push announcements.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithDispatchTimeout bounds each background receipt or notification.
func WithDispatchTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func NewService(repo domain.DonationRepository, secret string, receipts ReceiptSender, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		secret:   secret,
		receipts: receipts,
		logger:   logger,
		timeout:  defaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifyAndRecord checks the payment signature, then inserts the donation and
// credits the student inside one transaction. Nothing is persisted when the
// signature is wrong or any step fails. The receipt and push announcement are
// dispatched after commit and never fail the call.
func (s *Service) VerifyAndRecord(ctx context.Context, v Verification) (*Result, error) {
	if err := checkVerification(&v); err != nil {
		return nil, err
	}
	if !VerifySignature(s.secret, v.OrderID, v.PaymentID, v.Signature) {
		s.logger.Warn().Str("order_id", v.OrderID).Str("payment_id", v.PaymentID).Msg("payment signature mismatch")
		return nil, domain.ErrInvalidSignature
	}

	d := &domain.Donation{
		Name:         v.Donor.Name,
		Email:        v.Donor.Email,
		Phone:        v.Donor.Phone,
		Amount:       v.Amount,
		PaymentID:    v.PaymentID,
		OrderID:      v.OrderID,
		Status:       domain.DonationStatusCompleted,
		StudentID:    v.StudentID,
		Require80G:   v.Require80G,
		PANNumber:    v.PANNumber,
		DonorCountry: v.Country,
	}

	var student *domain.Student
	err := s.repo.WithinTx(ctx, func(tx domain.DonationTx) error {
		if err := tx.InsertDonation(ctx, d); err != nil {
			return err
		}
		if d.StudentID == nil {
			return nil
		}
		credited, err := tx.CreditStudent(ctx, *d.StudentID, d.Amount)
		if err != nil {
			return err
		}
		student = credited
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateOperation) {
			s.logger.Info().Str("order_id", v.OrderID).Str("payment_id", v.PaymentID).Msg("duplicate payment callback")
		}
		return nil, err
	}

	s.logger.Info().
		Str("donation_id", d.ID).
		Int64("amount", d.Amount).
		Bool("student", student != nil).
		Msg("donation recorded")

	s.dispatch(ctx, *d, student)
	return &Result{Donation: d, Student: student}, nil
}

func (s *Service) dispatch(ctx context.Context, d domain.Donation, student *domain.Student) {
	base := context.WithoutCancel(ctx)

	if s.receipts != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sendCtx, cancel := context.WithTimeout(base, s.timeout)
			defer cancel()
			if err := s.receipts.SendDonationReceipt(sendCtx, d, student); err != nil {
				s.logger.Error().Err(err).Str("donation_id", d.ID).Msg("donation receipt failed")
			}
		}()
	}

	if s.notifier != nil && student != nil {
		st := *student
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			notifyCtx, cancel := context.WithTimeout(base, s.timeout)
			defer cancel()
			s.notifier.NotifyDonation(notifyCtx, d, st)
		}()
	}
}

// Drain waits for in-flight receipts and notifications.
func (s *Service) Drain() {
	s.wg.Wait()
}

// ListRecent returns up to limit completed donations, newest first.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]domain.Donation, error) {
	return s.repo.ListRecent(ctx, clampLimit(limit))
}

// ListByStudent returns completed donations to one student, newest first.
func (s *Service) ListByStudent(ctx context.Context, studentID string, limit int) ([]domain.Donation, error) {
	return s.repo.ListByStudent(ctx, studentID, clampLimit(limit))
}

func (s *Service) Stats(ctx context.Context) (*domain.DonationStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("donation stats: %w", err)
	}
	return stats, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	}
	return limit
}

func checkVerification(v *Verification) error {
	v.PaymentID = strings.TrimSpace(v.PaymentID)
	v.OrderID = strings.TrimSpace(v.OrderID)
	v.Signature = strings.TrimSpace(v.Signature)
	v.Donor.Name = strings.TrimSpace(v.Donor.Name)
	v.Donor.Email = strings.ToLower(strings.TrimSpace(v.Donor.Email))
	v.Donor.Phone = strings.TrimSpace(v.Donor.Phone)

	switch {
	case v.PaymentID == "":
		return domain.NewValidationError("razorpay_payment_id", "payment id is required")
	case v.OrderID == "":
		return domain.NewValidationError("razorpay_order_id", "order id is required")
	case v.Signature == "":
		return domain.NewValidationError("razorpay_signature", "signature is required")
	case v.Donor.Name == "":
		return domain.NewValidationError("name", "name is required")
	case v.Amount <= 0:
		return domain.NewValidationError("amount", "amount must be positive")
	}
	if err := validate.Var(v.Donor.Email, "required,email"); err != nil {
		return domain.NewValidationError("email", "email is invalid")
	}
	if v.StudentID != nil && strings.TrimSpace(*v.StudentID) == "" {
		v.StudentID = nil
	}
	if v.PANNumber != nil {
		pan := strings.ToUpper(strings.TrimSpace(*v.PANNumber))
		if pan == "" {
			v.PANNumber = nil
		} else {
			v.PANNumber = &pan
		}
	}
	if v.Require80G {
		if v.PANNumber == nil {
			return domain.NewValidationError("panNumber", "PAN is required for an 80G receipt")
		}
		if !panPattern.MatchString(*v.PANNumber) {
			return domain.NewValidationError("panNumber", "PAN is invalid")
		}
	}
	return nil
}
