package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/student"
)

type createStudentRequest struct {
	Name           string `json:"name" validate:"required,max=120"`
	Class          string `json:"class" validate:"max=40"`
	School         string `json:"school" validate:"max=200"`
	Story          string `json:"story" validate:"max=4000"`
	RequiredAmount int64  `json:"requiredAmount" validate:"gt=0"`
}

type studentDTO struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Class              string    `json:"class"`
	School             string    `json:"school"`
	Story              string    `json:"story"`
	PhotoURL           string    `json:"photoUrl,omitempty"`
	RequiredAmount     int64     `json:"requiredAmount"`
	CollectedAmount    int64     `json:"collectedAmount"`
	DonorCount         int       `json:"donorCount"`
	ProgressPercentage int       `json:"progressPercentage"`
	FullyFunded        bool      `json:"fullyFunded"`
	CreatedAt          time.Time `json:"createdAt"`
}

func toStudentDTO(s domain.Student) studentDTO {
	return studentDTO{
		ID:                 s.ID,
		Name:               s.Name,
		Class:              s.Class,
		School:             s.School,
		Story:              s.Story,
		PhotoURL:           s.PhotoURL,
		RequiredAmount:     s.RequiredAmount,
		CollectedAmount:    s.CollectedAmount,
		DonorCount:         s.DonorCount,
		ProgressPercentage: s.ProgressPercentage,
		FullyFunded:        s.FullyFunded(),
		CreatedAt:          s.CreatedAt,
	}
}

// studentID reads {id}; malformed ids are reported as not found.
func (a *App) studentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		a.writeError(w, r, domain.ErrNotFound)
		return "", false
	}
	return id, true
}

func (a *App) ListStudents(w http.ResponseWriter, r *http.Request) {
	items, err := a.Students.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]studentDTO, 0, len(items))
	for _, s := range items {
		out = append(out, toStudentDTO(s))
	}
	a.json(w, http.StatusOK, map[string]any{"items": out})
}

func (a *App) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := a.studentID(w, r)
	if !ok {
		return
	}
	s, err := a.Students.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toStudentDTO(*s))
}

func (a *App) StudentDonations(w http.ResponseWriter, r *http.Request) {
	id, ok := a.studentID(w, r)
	if !ok {
		return
	}
	items, err := a.Students.Donations(r.Context(), id, queryLimit(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": toDonationDTOs(items)})
}

func (a *App) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if !a.decode(w, r, &req) {
		return
	}
	s, err := a.Students.Create(r.Context(), student.CreateInput{
		Name:           req.Name,
		Class:          req.Class,
		School:         req.School,
		Story:          req.Story,
		RequiredAmount: req.RequiredAmount,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toStudentDTO(*s))
}

// UploadStudentPhoto accepts a multipart form with a "photo" file part.
func (a *App) UploadStudentPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := a.studentID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, student.MaxPhotoBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		a.writeError(w, r, domain.NewValidationError("photo", "photo must be sent as multipart/form-data within 5 MB"))
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		a.writeError(w, r, domain.NewValidationError("photo", "photo is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, student.MaxPhotoBytes+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.writeError(w, r, domain.NewValidationError("photo", "photo is too large"))
			return
		}
		a.writeError(w, r, err)
		return
	}
	s, err := a.Students.UploadPhoto(r.Context(), id, data)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toStudentDTO(*s))
}
