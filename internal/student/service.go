// Package student manages sponsorship beneficiaries and their photos.
package student

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/storage"
)

// MaxPhotoBytes caps uploaded photos.
const MaxPhotoBytes = 5 << 20

// DonationLister is satisfied by *donation.Service.
type DonationLister interface {
	ListByStudent(ctx context.Context, studentID string, limit int) ([]domain.Donation, error)
}

type CreateInput struct {
	Name           string
	Class          string
	School         string
	Story          string
	RequiredAmount int64
}

type Service struct {
	students  domain.StudentRepository
	donations DonationLister
	uploader  storage.Uploader
	logger    zerolog.Logger
}

func NewService(students domain.StudentRepository, donations DonationLister, uploader storage.Uploader, logger zerolog.Logger) *Service {
	return &Service{students: students, donations: donations, uploader: uploader, logger: logger}
}

// List returns every student, least funded first.
func (s *Service) List(ctx context.Context) ([]domain.Student, error) {
	return s.students.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Student, error) {
	return s.students.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Student, error) {
	st := &domain.Student{
		Name:           strings.TrimSpace(in.Name),
		Class:          strings.TrimSpace(in.Class),
		School:         strings.TrimSpace(in.School),
		Story:          strings.TrimSpace(in.Story),
		RequiredAmount: in.RequiredAmount,
	}
	switch {
	case st.Name == "":
		return nil, domain.NewValidationError("name", "name is required")
	case st.RequiredAmount <= 0:
		return nil, domain.NewValidationError("requiredAmount", "required amount must be positive")
	}
	if err := s.students.Create(ctx, st); err != nil {
		return nil, err
	}
	s.logger.Info().Str("student_id", st.ID).Int64("required", st.RequiredAmount).Msg("student created")
	return st, nil
}

// UploadPhoto stores a JPEG, PNG or WebP image and points the student at it.
// The type is sniffed from the bytes, not taken from the client.
func (s *Service) UploadPhoto(ctx context.Context, id string, data []byte) (*domain.Student, error) {
	if len(data) == 0 {
		return nil, domain.NewValidationError("photo", "photo is required")
	}
	if len(data) > MaxPhotoBytes {
		return nil, domain.NewValidationError("photo", fmt.Sprintf("photo must be at most %d MB", MaxPhotoBytes>>20))
	}
	contentType := http.DetectContentType(data)
	ext, ok := storage.ImageExtension(contentType)
	if !ok {
		return nil, domain.NewValidationError("photo", "photo must be a JPEG, PNG or WebP image")
	}

	st, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.uploader.Upload(ctx, data, storage.NewObjectKey("students", st.ID, ext), contentType)
	if err != nil {
		return nil, fmt.Errorf("upload student photo: %w", err)
	}
	if err := s.students.UpdatePhotoURL(ctx, st.ID, url); err != nil {
		return nil, err
	}
	st.PhotoURL = url
	return st, nil
}

// Donations lists completed donations to the student, newest first.
func (s *Service) Donations(ctx context.Context, id string, limit int) ([]domain.Donation, error) {
	if _, err := s.students.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.donations.ListByStudent(ctx, id, limit)
}
