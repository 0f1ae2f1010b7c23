// Package worker consumes ledger events from AMQP and mirrors them into
// the local history log and, when configured, the external report sheet.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Josehuhu/financeiro/internal/amqp"
	"github.com/Josehuhu/financeiro/internal/core"
	"github.com/Josehuhu/financeiro/internal/export"
	"github.com/Josehuhu/financeiro/internal/history"
	"github.com/Josehuhu/financeiro/internal/storage"
)

// Worker processes ledger events. The report writer is optional; without
// one only the history mirror runs.
type Worker struct {
	history history.Recorder
	store   *storage.LedgerStore
	report  export.ReportWriter
}

func New(history history.Recorder, store *storage.LedgerStore, report export.ReportWriter) *Worker {
	return &Worker{
		history: history,
		store:   store,
		report:  report,
	}
}

// HandleEvent processes a single event message: mirror it into the month
// bucket, then export paid installments to the report.
func (w *Worker) HandleEvent(ctx context.Context, msg *amqp.EventMessage) error {
	event := msg.Event()

	if err := w.history.Append(ctx, event); err != nil {
		return fmt.Errorf("append event %s to history: %w", event.ID, err)
	}

	if event.Type == core.EventInstallmentPaid && w.report != nil {
		// Paid events carry the installment under an "installment" key.
		var payload struct {
			Installment core.Installment `json:"installment"`
		}
		if err := json.Unmarshal(event.Payload, &payload); err != nil || payload.Installment.ID == "" {
			// Poison payload: log and consume, a requeue would loop forever.
			slog.WarnContext(ctx, "Skipping paid event with bad payload",
				"event_id", event.ID,
				"error", err)
			return nil
		}
		if _, err := w.exportInstallment(ctx, payload.Installment); err != nil {
			return err
		}
	}

	return nil
}

// exportInstallment appends one paid installment to the report unless an
// export marker already exists. It reports whether a row was written.
func (w *Worker) exportInstallment(ctx context.Context, inst core.Installment) (bool, error) {
	exported, err := w.store.IsExported(ctx, inst.ID)
	if err != nil {
		return false, fmt.Errorf("check export marker %s: %w", inst.ID, err)
	}
	if exported {
		slog.DebugContext(ctx, "Installment already exported", "installment_id", inst.ID)
		return false, nil
	}

	ref, err := w.report.AppendPaid(ctx, inst)
	if err != nil {
		return false, fmt.Errorf("export installment %s: %w", inst.ID, err)
	}

	if err := w.store.MarkExported(ctx, inst.ID, ref); err != nil {
		// Row is written; a lost marker means at most one duplicate later.
		slog.WarnContext(ctx, "Failed to record export marker",
			"installment_id", inst.ID,
			"error", err)
	}

	slog.InfoContext(ctx, "Exported paid installment",
		"installment_id", inst.ID,
		"transaction_id", inst.TransactionID,
		"row_ref", ref)
	return true, nil
}

// ExportBacklog sweeps paid installments that have no export marker yet
// and returns how many rows it wrote. This is the recovery path for
// events lost while the worker was down.
func (w *Worker) ExportBacklog(ctx context.Context) (int, error) {
	if w.report == nil {
		return 0, nil
	}

	insts, err := w.store.ListInstallments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list installments for backlog: %w", err)
	}

	exportedCount := 0
	for _, inst := range insts {
		if !inst.Paid {
			continue
		}
		wrote, err := w.exportInstallment(ctx, inst)
		if err != nil {
			slog.ErrorContext(ctx, "Backlog export failed",
				"installment_id", inst.ID,
				"error", err)
			continue
		}
		if wrote {
			exportedCount++
		}
	}

	if exportedCount > 0 {
		slog.InfoContext(ctx, "Backlog export pass complete", "exported", exportedCount)
	}
	return exportedCount, nil
}

// Run consumes events and sweeps the backlog on a fixed interval until
// the context is cancelled or either loop fails.
func (w *Worker) Run(ctx context.Context, client *amqp.Client, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.Consume(ctx, func(msg *amqp.EventMessage) error {
			return w.HandleEvent(ctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, err := w.ExportBacklog(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic backlog export failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}
