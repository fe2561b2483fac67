package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bhos1242/seva-samarpan-sub001/internal/auth"
	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/http/handlers"
	"github.com/bhos1242/seva-samarpan-sub001/internal/middleware"
	"github.com/bhos1242/seva-samarpan-sub001/internal/ratelimit"
	"github.com/bhos1242/seva-samarpan-sub001/internal/student"
)

const secret = "router-secret"

type stubAuth struct{ handlers.AuthService }

func (stubAuth) Login(context.Context, string, string) (*auth.Session, error) {
	return nil, domain.ErrInvalidCredentials
}

type stubStudents struct{ handlers.StudentService }

func (stubStudents) Create(_ context.Context, in student.CreateInput) (*domain.Student, error) {
	return &domain.Student{ID: "s-1", Name: in.Name, RequiredAmount: in.RequiredAmount}, nil
}

func newTestRouter(t *testing.T, staticDir string) http.Handler {
	t.Helper()
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), zerolog.Nop(),
		ratelimit.WithPolicies(map[domain.RateLimitAction]ratelimit.Policy{
			domain.ActionLogin: {Max: 2, Window: time.Minute},
		}))
	app := &handlers.App{
		Auth:     stubAuth{},
		Students: stubStudents{},
		Logger:   zerolog.Nop(),
	}
	return NewRouter(app, Options{
		JWTSecret:      secret,
		AllowedOrigins: []string{"https://sevasamarpan.org"},
		Limiter:        limiter,
		StaticDir:      staticDir,
		Logger:         zerolog.Nop(),
	})
}

func bearer(t *testing.T, role domain.UserRole) string {
	t.Helper()
	token, _, err := middleware.SignJWT(secret, &domain.User{ID: "u-1", Email: "a@x.org", Role: role}, time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("SignJWT() error: %v", err)
	}
	return "Bearer " + token
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t, "").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id header missing")
	}
}

func TestCreateStudentRequiresAdmin(t *testing.T) {
	h := newTestRouter(t, "")
	body := `{"name":"Ravi","requiredAmount":1000}`

	tests := []struct {
		name string
		auth string
		want int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"user", bearer(t, domain.UserRoleUser), http.StatusForbidden},
		{"admin", bearer(t, domain.UserRoleAdmin), http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/students", strings.NewReader(body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestLoginIsRateLimitedPerIP(t *testing.T) {
	h := newTestRouter(t, "")
	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"email":"a@x.org","password":"whatever1"}`))
		req.RemoteAddr = ip + ":5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		if rr := send("203.0.113.7"); rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d", i+1, rr.Code)
		}
	}
	rr := send("203.0.113.7")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt: status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("Retry-After missing")
	}
	if rr := send("198.51.100.1"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("other ip: status = %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/v1/donations/verify", nil)
	req.Header.Set("Origin", "https://sevasamarpan.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	newTestRouter(t, "").ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://sevasamarpan.org" {
		t.Fatalf("allow origin = %q", got)
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Expose-Headers"), "Retry-After") {
		t.Fatalf("Retry-After should be exposed")
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "students"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "students", "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rr := httptest.NewRecorder()
	newTestRouter(t, dir).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/students/a.txt", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "hello" {
		t.Fatalf("status = %d body = %q", rr.Code, rr.Body.String())
	}
}
