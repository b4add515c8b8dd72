package cli

import (
	"context"
	"errors"
	"fmt"

	"masarif/internal/amqp"
	"masarif/internal/backend"
	"masarif/internal/blob"
	"masarif/internal/config"
	"masarif/internal/ledger"
	applog "masarif/internal/log"
	"masarif/internal/services"
	"masarif/internal/sheets"
	gsheet "masarif/internal/sheets/google"
	memsheet "masarif/internal/sheets/memory"
)

// Ledger is an opened expense log with the blob backend behind it.
type Ledger struct {
	Store   *ledger.Store
	Backend *backend.BackendResult
	blobs   blob.Store
	key     string
}

// OpenLedger builds the configured blob backend and the ledger on top of it.
// The log is not loaded yet.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Ledger, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	store := ledger.NewStore(res.Store, ledger.Options{
		Key:    cfg.StorageKey,
		Seed:   cfg.SeedSample,
		Logger: logger,
	})
	return &Ledger{Store: store, Backend: res, blobs: res.Store, key: store.Key()}, nil
}

// Ready reports whether the blob backend answers. An unreadable value still
// means the backend is reachable.
func (l *Ledger) Ready(ctx context.Context) error {
	_, _, err := l.blobs.Get(ctx, l.key)
	if err != nil && !errors.Is(err, blob.ErrUnreadable) {
		return err
	}
	return nil
}

// Close releases the backend.
func (l *Ledger) Close() error {
	return l.Backend.Close()
}

// NewService wires the expense service over an opened ledger. When publish
// is set and AMQP is configured, recorded expenses are announced; a broker
// that cannot be reached is logged and the service runs without events.
func NewService(ctx context.Context, cfg *config.Config, l *Ledger, publish bool, logger *applog.Logger) (*services.ExpenseService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	opts := services.Options{
		Store:    l.Store,
		Location: loc,
		Logger:   logger,
		Closers:  []func() error{l.Close},
	}

	if publish && cfg.AMQPEnabled() {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		} else {
			opts.Publisher = client
			opts.Closers = append([]func() error{client.Close}, opts.Closers...)
			logger.Info("Initialized AMQP publisher", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewExpenseService(opts)
	if _, err := svc.Load(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return svc, nil
}

// NewExporter returns the Google Sheets exporter when configured. With
// fallback set, an in-memory sheet stands in so the worker still runs.
func NewExporter(ctx context.Context, cfg *config.Config, fallback bool, logger *applog.Logger) (sheets.Exporter, error) {
	if !cfg.SheetsEnabled() {
		if !fallback {
			return nil, errors.New("spreadsheet export is not configured: set GOOGLE_SPREADSHEET_ID")
		}
		logger.Info("Google Sheets disabled, exporting to an in-memory sheet")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", applog.FieldSpreadsheet, cfg.GoogleSpreadsheetID)
	return client, nil
}
