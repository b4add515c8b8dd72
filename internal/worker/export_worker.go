package worker

import (
	"context"
	"fmt"

	"masarif/internal/amqp"
	"masarif/internal/core"
	applog "masarif/internal/log"
	"masarif/internal/sheets"
)

// LogSource reads the current expense log. *ledger.Store satisfies it.
type LogSource interface {
	Load(ctx context.Context) ([]core.Expense, error)
	// Seeded reports whether the last Load returned the unsaved sample.
	Seeded() bool
}

// ExportWorker mirrors the expense log into a spreadsheet: one row per
// ExpenseRecorded event, plus an optional full export at startup.
type ExportWorker struct {
	exporter sheets.Exporter
	source   LogSource
	logger   *applog.Logger
}

func NewExportWorker(exporter sheets.Exporter, source LogSource, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ExportWorker{
		exporter: exporter,
		source:   source,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleExpenseRecorded appends the event's record. A payload that fails
// validation is logged and acknowledged: redelivering it cannot succeed.
// Sheet errors are returned so the message is requeued.
func (w *ExportWorker) HandleExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	e, err := msg.ToExpense()
	if err != nil {
		w.logger.ErrorContext(ctx, "Dropping invalid expense recorded message",
			applog.FieldMessageID, msg.MessageID,
			applog.FieldExpenseID, msg.Expense.ID,
			applog.FieldError, err)
		return nil
	}

	ref, err := w.exporter.AppendRecord(ctx, e)
	if err != nil {
		return fmt.Errorf("append expense %d to sheet: %w", e.ID, err)
	}

	w.logger.InfoContext(ctx, "Expense exported",
		applog.FieldMessageID, msg.MessageID,
		applog.FieldExpenseID, e.ID,
		"row", ref)
	return nil
}

// StartupExport rewrites the sheet from the stored log. A corrupt log is
// reported rather than exported as empty. The sample seed of a store that
// was never written is not a log and leaves the sheet alone.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	if w.source == nil {
		return nil
	}
	log, err := w.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load log for export: %w", err)
	}
	if w.source.Seeded() {
		w.logger.InfoContext(ctx, "Skipping export of unsaved sample log",
			applog.FieldOperation, applog.OpExport,
			applog.FieldCount, len(log))
		return nil
	}
	n, err := w.exporter.ExportLog(ctx, log)
	if err != nil {
		return fmt.Errorf("export log: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup export completed",
		applog.FieldOperation, applog.OpExport,
		applog.FieldCount, n)
	return nil
}
