package domain

import (
	"math"
	"time"
)

// Student is a sponsorship beneficiary together with its funding aggregate.
type Student struct {
	ID                 string
	Name               string
	Class              string
	School             string
	Story              string
	PhotoURL           string
	RequiredAmount     int64
	CollectedAmount    int64
	DonorCount         int
	ProgressPercentage int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProgressPercentage returns round(collected/required*100) clamped to [0, 100].
// A non-positive required amount yields 0.
func ProgressPercentage(collected, required int64) int {
	if required <= 0 || collected <= 0 {
		return 0
	}
	pct := math.Round(float64(collected) / float64(required) * 100)
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// Credit applies one donation of amount to the aggregate.
func (s *Student) Credit(amount int64) {
	s.CollectedAmount += amount
	s.DonorCount++
	s.ProgressPercentage = ProgressPercentage(s.CollectedAmount, s.RequiredAmount)
}

// FullyFunded reports whether the goal has been reached.
func (s Student) FullyFunded() bool {
	return s.RequiredAmount > 0 && s.CollectedAmount >= s.RequiredAmount
}
