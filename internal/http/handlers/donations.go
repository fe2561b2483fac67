package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/donation"
	"github.com/bhos1242/seva-samarpan-sub001/internal/middleware"
)

type verifyDonationRequest struct {
	PaymentID  string  `json:"razorpay_payment_id" validate:"required"`
	OrderID    string  `json:"razorpay_order_id" validate:"required"`
	Signature  string  `json:"razorpay_signature" validate:"required"`
	Name       string  `json:"name" validate:"required,max=120"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      string  `json:"phone" validate:"omitempty,max=20"`
	Amount     int64   `json:"amount" validate:"gt=0"`
	StudentID  *string `json:"studentId" validate:"omitempty,uuid"`
	Require80G bool    `json:"require80G"`
	PANNumber  *string `json:"panNumber" validate:"required_if=Require80G true"`
}

type donationDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	StudentID  *string   `json:"studentId,omitempty"`
	Require80G bool      `json:"require80G"`
	CreatedAt  time.Time `json:"createdAt"`
}

type verifyDonationResponse struct {
	Success  bool        `json:"success"`
	Donation donationDTO `json:"donation"`
	Student  *studentDTO `json:"student,omitempty"`
}

type statsResponse struct {
	TotalAmount    int64 `json:"totalAmount"`
	DonationCount  int64 `json:"donationCount"`
	UniqueDonors   int64 `json:"uniqueDonors"`
	StudentsFunded int64 `json:"studentsFunded"`
}

// toDonationDTO omits donor contact details and PAN.
func toDonationDTO(d domain.Donation) donationDTO {
	return donationDTO{
		ID:         d.ID,
		Name:       d.Name,
		Amount:     d.Amount,
		Status:     string(d.Status),
		StudentID:  d.StudentID,
		Require80G: d.Require80G,
		CreatedAt:  d.CreatedAt,
	}
}

func toDonationDTOs(items []domain.Donation) []donationDTO {
	out := make([]donationDTO, 0, len(items))
	for _, d := range items {
		out = append(out, toDonationDTO(d))
	}
	return out
}

func (a *App) VerifyDonation(w http.ResponseWriter, r *http.Request) {
	var req verifyDonationRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.Donations.VerifyAndRecord(r.Context(), donation.Verification{
		PaymentID:  req.PaymentID,
		OrderID:    req.OrderID,
		Signature:  req.Signature,
		Donor:      donation.Donor{Name: req.Name, Email: req.Email, Phone: req.Phone},
		Amount:     req.Amount,
		StudentID:  req.StudentID,
		Require80G: req.Require80G,
		PANNumber:  req.PANNumber,
		Country:    middleware.CountryFromContext(r.Context()),
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	resp := verifyDonationResponse{Success: true, Donation: toDonationDTO(*res.Donation)}
	if res.Student != nil {
		st := toStudentDTO(*res.Student)
		resp.Student = &st
	}
	a.json(w, http.StatusCreated, resp)
}

func (a *App) RecentDonations(w http.ResponseWriter, r *http.Request) {
	items, err := a.Donations.ListRecent(r.Context(), queryLimit(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": toDonationDTOs(items)})
}

func (a *App) DonationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Donations.Stats(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, statsResponse{
		TotalAmount:    stats.TotalAmount,
		DonationCount:  stats.DonationCount,
		UniqueDonors:   stats.UniqueDonors,
		StudentsFunded: stats.StudentsFunded,
	})
}

// DonationConfig exposes the public checkout key.
func (a *App) DonationConfig(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"razorpayKeyId": a.RazorpayKeyID})
}

// queryLimit parses ?limit=, leaving clamping to the service.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}
