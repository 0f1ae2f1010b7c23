package export

import (
	"context"
	"fmt"
	"sync"

	"github.com/Josehuhu/financeiro/internal/core"
)

// MemoryWriter collects appended rows in memory. Used in tests and as a
// stand-in when no spreadsheet is configured.
type MemoryWriter struct {
	mu   sync.Mutex
	rows []core.Installment
}

// NewMemoryWriter creates an empty in-memory report writer.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

// AppendPaid records the installment and returns a synthetic row reference.
func (m *MemoryWriter) AppendPaid(_ context.Context, inst core.Installment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = append(m.rows, inst)
	return fmt.Sprintf("memory:%d", len(m.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (m *MemoryWriter) Rows() []core.Installment {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.Installment, len(m.rows))
	copy(out, m.rows)
	return out
}
