package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/bhos1242/seva-samarpan-sub001/internal/auth"
	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/donation"
	"github.com/bhos1242/seva-samarpan-sub001/internal/middleware"
	"github.com/bhos1242/seva-samarpan-sub001/internal/push"
	"github.com/bhos1242/seva-samarpan-sub001/internal/student"
)

const maxJSONBody = 1 << 20

type AuthService interface {
	Signup(ctx context.Context, in auth.SignupInput) (*domain.User, error)
	VerifyOTP(ctx context.Context, email, code string) (*auth.Session, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	Me(ctx context.Context, userID string) (*domain.User, error)
}

type DonationService interface {
	VerifyAndRecord(ctx context.Context, v donation.Verification) (*donation.Result, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Donation, error)
	Stats(ctx context.Context) (*domain.DonationStats, error)
}

type StudentService interface {
	List(ctx context.Context) ([]domain.Student, error)
	Get(ctx context.Context, id string) (*domain.Student, error)
	Create(ctx context.Context, in student.CreateInput) (*domain.Student, error)
	UploadPhoto(ctx context.Context, id string, data []byte) (*domain.Student, error)
	Donations(ctx context.Context, id string, limit int) ([]domain.Donation, error)
}

type PushService interface {
	Subscribe(ctx context.Context, in push.SubscribeInput) (*domain.PushSubscription, error)
	Unsubscribe(ctx context.Context, endpoint string) error
	Broadcast(ctx context.Context, payload domain.PushPayload) (push.BroadcastResult, error)
}

// Pinger reports database health; *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Auth      AuthService
	Donations DonationService
	Students  StudentService
	Push      PushService
	DB        Pinger
	Logger    zerolog.Logger

	RazorpayKeyID  string
	VAPIDPublicKey string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// decode reads a JSON body into dst and validates it. On failure the error
// response has been written and false is returned.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			a.error(w, http.StatusBadRequest, "validation_error", "request body is required")
			return false
		}
		a.error(w, http.StatusBadRequest, "validation_error", "invalid JSON payload")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		a.writeError(w, r, validationError(err))
		return false
	}
	return true
}

// validationError reports the first failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("", "invalid request")
	}
	fe := verrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required", "required_if":
		msg = field + " is required"
	case "email":
		msg = field + " must be a valid email"
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		msg = fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "len":
		msg = fmt.Sprintf("%s must be %s characters", field, fe.Param())
	case "uuid":
		msg = field + " must be a valid id"
	default:
		msg = field + " is invalid"
	}
	return domain.NewValidationError(field, msg)
}

// writeError maps service errors onto the HTTP error taxonomy.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	var rl *domain.RateLimitError
	switch {
	case errors.As(err, &ve):
		a.error(w, http.StatusBadRequest, "validation_error", ve.Message)
	case errors.As(err, &rl):
		middleware.WriteRateLimited(w, rl.RetryIn(time.Now()))
	case errors.Is(err, domain.ErrInvalidCredentials):
		a.error(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrEmailNotVerified):
		a.error(w, http.StatusForbidden, "email_not_verified", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "insufficient permissions")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrInvalidSignature):
		a.error(w, http.StatusBadRequest, "invalid_signature", err.Error())
	case errors.Is(err, domain.ErrInvalidToken):
		a.error(w, http.StatusBadRequest, "invalid_token", err.Error())
	case errors.Is(err, domain.ErrDuplicateOperation):
		a.error(w, http.StatusConflict, "duplicate", "this payment has already been recorded")
	case errors.Is(err, domain.ErrEmailTaken):
		a.error(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, push.ErrDisabled):
		a.error(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
