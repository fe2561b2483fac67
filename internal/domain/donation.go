package domain

import "time"

// DonationStatus enumerates payment states of a donation record.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "PENDING"
	DonationStatusCompleted DonationStatus = "COMPLETED"
	DonationStatusFailed    DonationStatus = "FAILED"
)

// Donation represents a verified supporter contribution. Amount is in whole rupees
// and never changes after creation.
type Donation struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Amount       int64
	PaymentID    string
	OrderID      string
	Status       DonationStatus
	StudentID    *string
	Require80G   bool
	PANNumber    *string
	DonorCountry string
	CreatedAt    time.Time
}

// DonationStats aggregates completed donations.
type DonationStats struct {
	TotalAmount    int64
	DonationCount  int64
	UniqueDonors   int64
	StudentsFunded int64
}
