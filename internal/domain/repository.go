package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Delete(ctx context.Context, id string) error
	MarkEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// OTPRepository persists email verification codes.
type OTPRepository interface {
	// Replace invalidates every code issued for email and stores a new one.
	Replace(ctx context.Context, email, codeHash string, expiresAt time.Time) (*OTP, error)
	LatestActive(ctx context.Context, email string, now time.Time) (*OTP, error)
	// Consume marks the code used; false means another request consumed it first.
	Consume(ctx context.Context, id string) (bool, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// PasswordResetRepository persists password reset tokens.
type PasswordResetRepository interface {
	Replace(ctx context.Context, email, tokenHash string, expiresAt time.Time) (*PasswordResetToken, error)
	// Consume atomically redeems an unexpired, unused token.
	Consume(ctx context.Context, tokenHash string, now time.Time) (*PasswordResetToken, error)
	Delete(ctx context.Context, id string) error
}

// DonationTx is the set of writes that must commit together when a payment is verified.
type DonationTx interface {
	InsertDonation(ctx context.Context, donation *Donation) error
	// CreditStudent adds amount to the student's collected total and donor count
	// using in-place increments and returns the updated aggregate.
	CreditStudent(ctx context.Context, studentID string, amount int64) (*Student, error)
}

// DonationRepository handles donation persistence.
type DonationRepository interface {
	// WithinTx runs fn in one transaction; any error rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(tx DonationTx) error) error
	ListRecent(ctx context.Context, limit int) ([]Donation, error)
	ListByStudent(ctx context.Context, studentID string, limit int) ([]Donation, error)
	Stats(ctx context.Context) (*DonationStats, error)
}

// StudentRepository handles beneficiary records.
type StudentRepository interface {
	Create(ctx context.Context, student *Student) error
	GetByID(ctx context.Context, id string) (*Student, error)
	List(ctx context.Context) ([]Student, error)
	UpdatePhotoURL(ctx context.Context, id, url string) error
}

// PushSubscriptionRepository handles web-push registrations.
type PushSubscriptionRepository interface {
	Upsert(ctx context.Context, sub *PushSubscription) error
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	List(ctx context.Context) ([]PushSubscription, error)
}
