// Package export defines the outbound port for mirroring paid
// installments into external report sheets.
package export

import (
	"context"

	"github.com/Josehuhu/financeiro/internal/core"
)

// ReportWriter appends a paid installment row to an external report.
// Implementations return an opaque row reference for logging.
type ReportWriter interface {
	AppendPaid(ctx context.Context, inst core.Installment) (rowRef string, err error)
}
