// Package memory is an in-process sheets.Exporter used when no spreadsheet
// is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"masarif/internal/core"
	"masarif/internal/sheets"
)

var _ sheets.Exporter = (*Sheet)(nil)

// Sheet keeps rendered rows the way a spreadsheet would: the header in row
// 1, one record per row below it.
type Sheet struct {
	mu    sync.Mutex
	cells [][]any
}

func New() *Sheet {
	return &Sheet{cells: [][]any{sheets.HeaderRow()}}
}

// AppendRecord stores e unless its ID is already present.
func (s *Sheet) AppendRecord(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := sheets.RowIDs(s.cells)[e.ID]; ok {
		return ref(row), nil
	}
	s.cells = append(s.cells, sheets.ToRow(e))
	return ref(len(s.cells)), nil
}

// ExportLog replaces every row with log.
func (s *Sheet) ExportLog(_ context.Context, log []core.Expense) (int, error) {
	cells := make([][]any, 0, len(log)+1)
	cells = append(cells, sheets.HeaderRow())
	for _, e := range log {
		cells = append(cells, sheets.ToRow(e))
	}
	s.mu.Lock()
	s.cells = cells
	s.mu.Unlock()
	return len(log), nil
}

// Rows parses the stored rows back into records, header excluded.
func (s *Sheet) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.cells))
	for _, row := range s.cells[1:] {
		e, err := sheets.FromRow(row)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

func ref(row int) string {
	return fmt.Sprintf("mem:%d", row)
}
