package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/auth"
	"tally/internal/backend"
	"tally/internal/cache"
	"tally/internal/cli"
	"tally/internal/core"
	apphttp "tally/internal/http"
	applog "tally/internal/log"
	"tally/internal/metrics"
	"tally/internal/middleware/ratelimit"
	"tally/internal/realtime"
	"tally/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	janitorInterval = time.Minute
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp, nil)

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	be, err := backend.New(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}
	defer be.Close()

	m := metrics.New()
	hub := realtime.NewHub(realtime.WithDropHook(m.ObserveDroppedEvent))

	publishers := realtime.Fanout{hub}
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// The API keeps working; only the sheet mirror misses events.
			logger.Warn("Failed to initialize AMQP client, continuing without broker", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			publishers = append(publishers, amqpClient)
			logger.Info("Initialized AMQP publisher", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	lists := cache.NewLRUCache[[]core.Expense](cfg.CacheSize, cfg.CacheTTL)
	janitor := cache.NewJanitor(logger)
	janitor.Register(lists)

	svc := services.NewExpenseService(be.Store, logger,
		services.WithPublisher(publishers),
		services.WithListCache(lists),
		services.WithMetrics(m),
	)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	if cfg.AuthDisabled {
		logger.Warn("Authentication disabled, requests act as X-User-ID or the local user")
	}
	srv := apphttp.NewServer(apphttp.Options{
		Addr:    ":" + cfg.Port,
		Service: svc,
		Auth:    auth.NewAuthenticator(auth.NewJWTManager(cfg.AuthJWTSecret), cfg.AuthDisabled),
		Logger:  logger,
		Hub:     hub,
		Metrics: m,
		Limiter: limiter,
		Ready:   be.Ready,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting tally server", "port", cfg.Port, "backend", cfg.DataBackend, "amqp_enabled", len(publishers) > 1)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		janitor.Run(gctx, janitorInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}
	logger.Info("Server stopped gracefully")
}
