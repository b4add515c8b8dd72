package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"masarif/internal/amqp"
	"masarif/internal/cli"
	applog "masarif/internal/log"
	"masarif/internal/worker"
)

func main() {
	cfg, logger := cli.MustLoadConfig()
	logger.Info("Starting masarif-worker")

	reconcile := cfg.ExportInterval > 0
	if !cfg.AMQPEnabled() && !cfg.ExportOnStart && !reconcile {
		logger.Error("Nothing to do: set AMQP_URL to consume events, EXPORT_ON_START=true for a one-off export or EXPORT_INTERVAL for periodic exports")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	exporter, err := cli.NewExporter(ctx, cfg, true, logger)
	if err != nil {
		logger.Error("Failed to initialize exporter", applog.FieldError, err)
		os.Exit(1)
	}

	var source worker.LogSource
	if cfg.ExportOnStart || reconcile {
		l, err := cli.OpenLedger(ctx, cfg, logger)
		if err != nil {
			logger.Error("Failed to initialize storage", applog.FieldError, err)
			os.Exit(1)
		}
		defer l.Close()
		source = l.Store
	}
	w := worker.NewExportWorker(exporter, source, logger)

	if cfg.ExportOnStart {
		logger.Info("Performing startup export...")
		if err := w.StartupExport(ctx); err != nil {
			// Keep consuming: new records still reach the sheet.
			logger.Error("Startup export failed", applog.FieldError, err)
		}
	}

	if !cfg.AMQPEnabled() && !reconcile {
		logger.Info("AMQP disabled, exiting after startup export")
		return
	}

	g, gctx := errgroup.WithContext(ctx)

	if reconcile {
		r := worker.NewReconciler(w, cfg.ExportInterval, logger)
		if err := r.Start(gctx); err != nil {
			logger.Error("Failed to start reconciler", applog.FieldError, err)
			os.Exit(1)
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return r.Stop(stopCtx)
		})
	}

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			return client.ConsumeExpenseRecorded(gctx, w.HandleExpenseRecorded)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
