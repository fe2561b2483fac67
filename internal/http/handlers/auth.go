package handlers

import (
	"net/http"
	"time"

	"github.com/bhos1242/seva-samarpan-sub001/internal/auth"
	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type userDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userDTO   `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

func toSessionResponse(s *auth.Session) sessionResponse {
	return sessionResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: toUserDTO(s.User)}
}

func (a *App) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !a.decode(w, r, &req) {
		return
	}
	user, err := a.Auth.Signup(r.Context(), auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"user":    toUserDTO(user),
		"message": "Verification code sent to " + user.Email,
	})
}

func (a *App) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !a.decode(w, r, &req) {
		return
	}
	sess, err := a.Auth.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toSessionResponse(sess))
}

func (a *App) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.Auth.ResendOTP(r.Context(), req.Email); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, messageResponse{Message: "A new verification code has been sent."})
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decode(w, r, &req) {
		return
	}
	sess, err := a.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toSessionResponse(sess))
}

func (a *App) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.Auth.ForgotPassword(r.Context(), req.Email); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, messageResponse{Message: "If an account exists for that email, a reset link has been sent."})
}

func (a *App) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.Auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, messageResponse{Message: "Password updated. You can now log in."})
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	user, err := a.Auth.Me(r.Context(), a.currentUserID(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toUserDTO(user))
}
