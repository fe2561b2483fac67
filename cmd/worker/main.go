package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/bhos1242/seva-samarpan-sub001/internal/adapter/repo"
	"github.com/bhos1242/seva-samarpan-sub001/internal/infra"
	"github.com/bhos1242/seva-samarpan-sub001/internal/ratelimit"
)

// sweepFunc deletes rows that expired before now and reports how many.
type sweepFunc func(ctx context.Context, now time.Time) (int64, error)

type sweepWorker struct {
	logger   infra.Logger
	interval time.Duration
	now      func() time.Time
	sweeps   map[string]sweepFunc
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	sweeps := map[string]sweepFunc{
		"tokens": repo.NewTokenSweeper(runner).Sweep,
	}
	// Redis keys expire on their own; memory windows live in the API process.
	if cfg.RateLimitBackend == infra.RateLimitBackendPostgres {
		sweeps["rate_limits"] = ratelimit.NewPostgresStore(runner).Sweep
	}

	w := &sweepWorker{
		logger:   logger,
		interval: cfg.SweepInterval,
		now:      time.Now,
		sweeps:   sweeps,
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (w *sweepWorker) Run(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("worker: started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweepOnce(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// sweepOnce runs every sweep concurrently. Failures are logged and retried on
// the next tick.
func (w *sweepWorker) sweepOnce(ctx context.Context) map[string]int64 {
	now := w.now().UTC()
	results := make(map[string]int64, len(w.sweeps))
	counts := make([]int64, 0, len(w.sweeps))
	names := make([]string, 0, len(w.sweeps))
	for name := range w.sweeps {
		names = append(names, name)
		counts = append(counts, 0)
	}

	var g errgroup.Group
	for i, name := range names {
		sweep := w.sweeps[name]
		g.Go(func() error {
			n, err := sweep(ctx, now)
			if err != nil {
				w.logger.Error().Err(err).Str("sweep", name).Msg("worker: sweep failed")
				return nil
			}
			counts[i] = n
			return nil
		})
	}
	_ = g.Wait()

	for i, name := range names {
		results[name] = counts[i]
		if counts[i] > 0 {
			w.logger.Info().Str("sweep", name).Int64("removed", counts[i]).Msg("worker: swept expired rows")
		}
	}
	return results
}
