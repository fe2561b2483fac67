package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
)

const testSecret = "test-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserIDFromContext(r.Context()) + "|" + string(RoleFromContext(r.Context()))))
	})
}

func TestSignAndVerifyJWT(t *testing.T) {
	user := &domain.User{ID: "u-1", Email: "a@x.org", Role: domain.UserRoleAdmin}
	token, exp, err := SignJWT(testSecret, user, time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("SignJWT() error: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}
	claims, err := VerifyJWT(testSecret, token)
	if err != nil {
		t.Fatalf("VerifyJWT() error: %v", err)
	}
	if claims.Subject != "u-1" || claims.Role != "admin" || claims.Email != "a@x.org" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := VerifyJWT("other-secret", token); err == nil {
		t.Fatalf("expected signature failure with wrong secret")
	}
}

func TestVerifyJWTRejectsExpired(t *testing.T) {
	user := &domain.User{ID: "u-1", Role: domain.UserRoleUser}
	token, _, err := SignJWT(testSecret, user, time.Now().Add(-2*time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("SignJWT() error: %v", err)
	}
	if _, err := VerifyJWT(testSecret, token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestAuthJWT(t *testing.T) {
	token, _, _ := SignJWT(testSecret, &domain.User{ID: "u-1", Role: domain.UserRoleUser}, time.Now(), time.Hour)
	h := AuthJWT(testSecret)(okHandler())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc.def.ghi", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, status: http.StatusOK, body: "u-1|user"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.body != "" && rec.Body.String() != tc.body {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tc.body)
			}
			if tc.status == http.StatusUnauthorized {
				var body errorBody
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error.Code != "unauthorized" {
					t.Fatalf("unexpected error body %q", rec.Body.String())
				}
			}
		})
	}
}

func TestOptionalAuthJWT(t *testing.T) {
	h := OptionalAuthJWT(testSecret)(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/push/subscribe", nil)
	req.Header.Set("Authorization", "Bearer broken")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "|" {
		t.Fatalf("anonymous request: %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(domain.UserRoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/students", nil)
	req = req.WithContext(ContextWithRole(req.Context(), domain.UserRoleUser))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user role: status %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/students", nil)
	req = req.WithContext(ContextWithRole(req.Context(), domain.UserRoleAdmin))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin role: status %d, want 200", rec.Code)
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	h := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.Header.Set("X-Request-ID", "rid-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "rid-123" {
		t.Fatalf("request id not echoed")
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line not json: %q", buf.String())
	}
	if line["request_id"] != "rid-123" || line["status"] != float64(http.StatusTeapot) || line["level"] != "warn" {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://seva.example.org"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/v1/students", nil)
	req.Header.Set("Origin", "https://seva.example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://seva.example.org" {
		t.Fatalf("preflight: %d %v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/students", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected CORS grant for foreign origin")
	}
}
