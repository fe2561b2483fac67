package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/bhos1242/seva-samarpan-sub001/internal/domain"
	"github.com/bhos1242/seva-samarpan-sub001/internal/http/handlers"
	"github.com/bhos1242/seva-samarpan-sub001/internal/middleware"
)

// Options carries the cross-cutting dependencies of the router.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Limiter        middleware.RateLimiter
	CountryLookup  middleware.CountryLookup
	// StaticDir is served under /static/ when the filesystem storage driver is active.
	StaticDir        string
	// TrustedProxyHops is the number of reverse proxies that append to
	// X-Forwarded-For. Zero keys clients on the TCP peer address.
	TrustedProxyHops int
	Logger           zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP(opts.TrustedProxyHops),
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.Country(opts.CountryLookup),
	)

	authRequired := middleware.AuthJWT(opts.JWTSecret)
	adminOnly := middleware.RequireRole(domain.UserRoleAdmin)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.Signup)
			r.Post("/verify-otp", app.VerifyOTP)
			r.Post("/resend-otp", app.ResendOTP)
			r.With(middleware.RateLimit(opts.Limiter, domain.ActionLogin)).Post("/login", app.Login)
			r.Post("/forgot-password", app.ForgotPassword)
			r.Post("/reset-password", app.ResetPassword)
		})

		r.With(authRequired).Get("/me", app.Me)

		r.Route("/donations", func(r chi.Router) {
			r.Post("/verify", app.VerifyDonation)
			r.Get("/recent", app.RecentDonations)
			r.Get("/stats", app.DonationStats)
			r.Get("/config", app.DonationConfig)
		})

		r.Route("/students", func(r chi.Router) {
			r.Get("/", app.ListStudents)
			r.Get("/{id}", app.GetStudent)
			r.Get("/{id}/donations", app.StudentDonations)
			r.Group(func(r chi.Router) {
				r.Use(authRequired, adminOnly)
				r.Post("/", app.CreateStudent)
				r.Post("/{id}/photo", app.UploadStudentPhoto)
			})
		})

		r.Route("/push", func(r chi.Router) {
			r.Get("/vapid-public-key", app.VAPIDKey)
			r.With(middleware.OptionalAuthJWT(opts.JWTSecret)).Post("/subscribe", app.Subscribe)
			r.Post("/unsubscribe", app.Unsubscribe)
			r.With(authRequired, adminOnly).Post("/broadcast", app.Broadcast)
		})
	})

	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	return r
}
