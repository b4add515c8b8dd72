package sheets

import (
	"context"

	"masarif/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// RecordAppender adds one record as a row. Appending a record whose ID is
	// already present is a no-op that returns the existing row reference.
	RecordAppender interface {
		AppendRecord(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// LogExporter replaces the sheet content with a full log snapshot.
	LogExporter interface {
		ExportLog(ctx context.Context, log []core.Expense) (rows int, err error)
	}

	// Exporter is what the export worker needs.
	Exporter interface {
		RecordAppender
		LogExporter
	}
)
