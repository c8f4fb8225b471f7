package memory

import (
	"context"
	"fmt"
	"sync"

	"holdings/internal/core"
	ports "holdings/internal/sheets"
)

var _ ports.BalanceSheetExporter = (*Exporter)(nil)

// Exporter keeps exported tables in memory. It backs the export endpoint
// when no spreadsheet is configured.
type Exporter struct {
	mu     sync.Mutex
	tables [][][]any
}

func New() *Exporter {
	return &Exporter{}
}

// ExportBalanceSheet stores the table and returns a synthetic reference.
func (e *Exporter) ExportBalanceSheet(_ context.Context, sheet core.BalanceSheet) (string, error) {
	table := ports.Table(sheet)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tables = append(e.tables, table)
	return fmt.Sprintf("mem:%d!A1:L%d", len(e.tables), len(table)), nil
}

// Last returns the most recent export, nil when nothing was exported.
func (e *Exporter) Last() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.tables) == 0 {
		return nil
	}
	return e.tables[len(e.tables)-1]
}

// Count is the number of exports so far.
func (e *Exporter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tables)
}
