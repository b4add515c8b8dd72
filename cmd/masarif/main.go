package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"masarif/internal/cli"
	apphttp "masarif/internal/http"
	applog "masarif/internal/log"
)

func main() {
	cfg, logger := cli.MustLoadConfig()

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	l, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	svc, err := cli.NewService(ctx, cfg, l, true, logger)
	if err != nil {
		_ = l.Close()
		logger.Error("Failed to initialize expense service", applog.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Service cleanup error", applog.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Service:            svc,
		Logger:             logger,
		DefaultCategory:    cfg.DefaultCategory,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		TrustedProxies:     cfg.TrustedProxies,
		Ready:              l.Ready,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("Starting masarif server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		applog.FieldStorageKey, cfg.StorageKey,
		"sealed", cfg.SealingEnabled(),
		"amqp_enabled", cfg.AMQPEnabled())

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
