package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bhos1242/seva-samarpan-sub001/internal/adapter/repo"
	"github.com/bhos1242/seva-samarpan-sub001/internal/auth"
	"github.com/bhos1242/seva-samarpan-sub001/internal/donation"
	"github.com/bhos1242/seva-samarpan-sub001/internal/http/handlers"
	httpapi "github.com/bhos1242/seva-samarpan-sub001/internal/http/httpapi"
	"github.com/bhos1242/seva-samarpan-sub001/internal/infra"
	"github.com/bhos1242/seva-samarpan-sub001/internal/infra/geoip"
	"github.com/bhos1242/seva-samarpan-sub001/internal/mailer"
	"github.com/bhos1242/seva-samarpan-sub001/internal/push"
	"github.com/bhos1242/seva-samarpan-sub001/internal/ratelimit"
	"github.com/bhos1242/seva-samarpan-sub001/internal/storage"
	"github.com/bhos1242/seva-samarpan-sub001/internal/student"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)

	limiter, closeLimiter := newLimiter(ctx, cfg, runner, logger)
	defer closeLimiter()

	mail := newMailer(cfg, logger)

	uploader, staticDir := newUploader(ctx, cfg, logger)

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	var sender push.Sender
	if cfg.PushEnabled() {
		sender = push.NewWebPushSender(push.VAPIDConfig{
			PublicKey:  cfg.VAPIDPublicKey,
			PrivateKey: cfg.VAPIDPrivateKey,
			Subject:    cfg.VAPIDSubject,
		}, &http.Client{Timeout: 10 * time.Second})
	} else {
		logger.Info().Msg("web push disabled: VAPID keys not configured")
	}
	pushSvc := push.NewService(repo.NewPushSubscriptionRepository(runner), sender, cfg.AppBaseURL, logger)

	donationOpts := []donation.Option{}
	if sender != nil {
		donationOpts = append(donationOpts, donation.WithNotifier(pushSvc))
	}
	donations := donation.NewService(repo.NewDonationRepository(runner), cfg.RazorpayKeySecret, mail, logger, donationOpts...)

	authSvc := auth.NewService(
		repo.NewUserRepository(runner),
		repo.NewOTPRepository(runner),
		repo.NewPasswordResetRepository(runner),
		limiter,
		mail,
		auth.Config{JWTSecret: cfg.JWTSecret, SessionTTL: cfg.SessionTTL, AppBaseURL: cfg.AppBaseURL},
		logger,
	)

	app := &handlers.App{
		Auth:           authSvc,
		Donations:      donations,
		Students:       student.NewService(repo.NewStudentRepository(runner), donations, uploader, logger),
		Push:           pushSvc,
		DB:             dbpool,
		Logger:         logger,
		RazorpayKeyID:  cfg.RazorpayKeyID,
		VAPIDPublicKey: cfg.VAPIDPublicKey,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:        cfg.JWTSecret,
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		Limiter:          limiter,
		CountryLookup:    resolver.Lookup(),
		StaticDir:        staticDir,
		TrustedProxyHops: cfg.TrustedProxyHops,
		Logger:           logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
		return server.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}

	// Let in-flight receipts and announcements finish before the pool closes.
	donations.Drain()
	logger.Info().Msg("server stopped")
}

func newLimiter(ctx context.Context, cfg *infra.Config, runner *infra.SQLRunner, logger zerolog.Logger) (*ratelimit.Limiter, func()) {
	switch cfg.RateLimitBackend {
	case infra.RateLimitBackendRedis:
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		return ratelimit.New(ratelimit.NewRedisStore(client), logger), func() { _ = client.Close() }
	case infra.RateLimitBackendMemory:
		logger.Warn().Msg("in-memory rate limiting is per-process only")
		store := ratelimit.NewMemoryStore()
		go sweepMemory(ctx, store, cfg.SweepInterval, logger)
		return ratelimit.New(store, logger), func() {}
	default:
		return ratelimit.New(ratelimit.NewPostgresStore(runner), logger), func() {}
	}
}

func sweepMemory(ctx context.Context, store *ratelimit.MemoryStore, every time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n, _ := store.Sweep(ctx, now); n > 0 {
				logger.Debug().Int64("removed", n).Msg("rate limit windows swept")
			}
		}
	}
}

func newMailer(cfg *infra.Config, logger zerolog.Logger) mailer.Mailer {
	if cfg.SMTPHost == "" {
		logger.Warn().Msg("SMTP_HOST not set; emails are logged instead of sent")
		return mailer.NewLogMailer(logger)
	}
	m, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure mailer")
	}
	return m
}

// newUploader returns the photo store and, for the filesystem driver, the
// directory the router serves under /static/.
func newUploader(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (storage.Uploader, string) {
	if cfg.StorageDriver == "s3" {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.AWSRegion)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure s3 storage")
		}
		return s3Store, ""
	}
	fileStore, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}
	return fileStore, fileStore.BasePath()
}
