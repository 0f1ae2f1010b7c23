// Package ledger orchestrates transaction and installment mutations: it
// validates drafts, computes schedules, reconciles them against the store
// and drives the pay-one-materialize-next progression.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Josehuhu/financeiro/internal/auth"
	"github.com/Josehuhu/financeiro/internal/core"
	"github.com/Josehuhu/financeiro/internal/history"
	"github.com/Josehuhu/financeiro/internal/storage"
)

// EventPublisher fans recorded events out to interested consumers (the
// AMQP exchange). A nil publisher degrades to local-only history.
type EventPublisher interface {
	Publish(ctx context.Context, event core.Event) error
}

// ValidationError carries the field-level failures of a rejected draft.
type ValidationError struct {
	Fields []core.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("validation failed: %d invalid fields", len(e.Fields))
}

// Service coordinates the store, the monthly history sink and the optional
// event fan-out. All mutations follow the same shape: validate, compute,
// issue persistence writes, record the event. There is no transactional
// guarantee across the writes of one operation; a crash mid-sequence can
// leave a partial state.
type Service struct {
	store     *storage.LedgerStore
	history   history.Recorder
	publisher EventPublisher

	// now is the clock seam for the current-month-forward filter.
	now func() time.Time
}

// NewService wires the mutation engine. publisher may be nil.
func NewService(store *storage.LedgerStore, recorder history.Recorder, publisher EventPublisher) *Service {
	return &Service{
		store:     store,
		history:   recorder,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateTransaction validates the draft, computes the installment schedule
// and persists the transaction together with every installment due from
// the first day of the current month forward. Installments due strictly
// before the current month are never materialized.
func (s *Service) CreateTransaction(ctx context.Context, principal auth.Principal, draft core.TransactionDraft) (core.Transaction, []core.Installment, error) {
	if principal.IsZero() {
		return core.Transaction{}, nil, auth.ErrUnauthenticated
	}
	if fieldErrs := core.ValidateDraft(draft); len(fieldErrs) > 0 {
		return core.Transaction{}, nil, &ValidationError{Fields: fieldErrs}
	}

	now := s.now().UTC()
	txn := core.Transaction{
		ID:               uuid.NewString(),
		Name:             draft.Name,
		Type:             draft.Type,
		Description:      draft.Description,
		TotalValue:       draft.TotalValue,
		InstallmentCount: draft.InstallmentCount,
		StartDate:        draft.StartDate,
		CreatedAt:        now,
		UpdatedAt:        now,
		CreatedBy:        principal.Email,
		CreatedByName:    principal.DisplayName(),
	}

	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		return core.Transaction{}, nil, err
	}

	installments, err := s.insertSchedule(ctx, principal, txn, draft.CustomValues, draft.CustomDates)
	if err != nil {
		return core.Transaction{}, nil, err
	}

	s.record(ctx, core.EventTransactionCreated, map[string]any{
		"transaction":  txn,
		"installments": installments,
	})

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", txn.ID,
		"type", txn.Type,
		"total_cents", txn.TotalValue.Cents,
		"installment_count", txn.InstallmentCount,
		"materialized", len(installments))

	return txn, installments, nil
}

// UpdateTransaction recomputes the schedule from the edited draft and
// fully replaces the transaction's installment set: every previously
// persisted installment is deleted, paid ones included, and the fresh
// current-month-forward subset is inserted unpaid with re-stamped
// denormalized fields. Payment history for this transaction is therefore
// discarded on edit.
func (s *Service) UpdateTransaction(ctx context.Context, principal auth.Principal, id string, draft core.TransactionDraft) (core.Transaction, []core.Installment, error) {
	if principal.IsZero() {
		return core.Transaction{}, nil, auth.ErrUnauthenticated
	}
	if fieldErrs := core.ValidateDraft(draft); len(fieldErrs) > 0 {
		return core.Transaction{}, nil, &ValidationError{Fields: fieldErrs}
	}

	txn, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, nil, err
	}

	txn.Name = draft.Name
	txn.Type = draft.Type
	txn.Description = draft.Description
	txn.TotalValue = draft.TotalValue
	txn.InstallmentCount = draft.InstallmentCount
	txn.StartDate = draft.StartDate
	txn.UpdatedAt = s.now().UTC()

	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		return core.Transaction{}, nil, err
	}
	if err := s.store.DeleteInstallmentsByTransaction(ctx, id); err != nil {
		return core.Transaction{}, nil, err
	}

	installments, err := s.insertSchedule(ctx, principal, txn, draft.CustomValues, draft.CustomDates)
	if err != nil {
		return core.Transaction{}, nil, err
	}

	s.record(ctx, core.EventTransactionUpdated, map[string]any{
		"transaction":  txn,
		"installments": installments,
	})

	slog.InfoContext(ctx, "Transaction updated",
		"transaction_id", txn.ID,
		"installment_count", txn.InstallmentCount,
		"materialized", len(installments))

	return txn, installments, nil
}

// DeleteTransaction removes the transaction and cascades to all of its
// installments.
func (s *Service) DeleteTransaction(ctx context.Context, principal auth.Principal, id string) error {
	if principal.IsZero() {
		return auth.ErrUnauthenticated
	}

	if _, err := s.store.GetTransaction(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteInstallmentsByTransaction(ctx, id); err != nil {
		return err
	}

	s.record(ctx, core.EventTransactionDeleted, map[string]any{"id": id})

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// PayInstallment marks the target installment paid and, when a successor
// exists in the schedule, materializes it lazily. The successor's value
// and due date come from the equal-split schedule recomputed from the
// parent transaction; custom per-installment overrides are not re-applied
// at this stage.
//
// Creation is guarded by an existence check on (transactionID,
// installmentNumber): repeating the call marks the installment paid again
// but never duplicates the successor.
func (s *Service) PayInstallment(ctx context.Context, principal auth.Principal, installmentID string, paidDate core.Date) (core.Installment, *core.Installment, error) {
	if principal.IsZero() {
		return core.Installment{}, nil, auth.ErrUnauthenticated
	}

	inst, err := s.store.GetInstallment(ctx, installmentID)
	if err != nil {
		return core.Installment{}, nil, err
	}

	if paidDate.IsZero() {
		paidDate = core.DateOf(s.now())
	}
	inst.Paid = true
	inst.PaidDate = paidDate
	inst.ValidatedBy = principal.Email
	inst.ValidatedByName = principal.DisplayName()
	inst.UpdatedAt = s.now().UTC()

	if err := s.store.SaveInstallment(ctx, inst); err != nil {
		return core.Installment{}, nil, err
	}

	s.record(ctx, core.EventInstallmentPaid, map[string]any{"installment": inst})

	nextNumber := inst.InstallmentNumber + 1
	if nextNumber > inst.TotalInstallments {
		slog.InfoContext(ctx, "Final installment paid, schedule complete",
			"transaction_id", inst.TransactionID,
			"installment_number", inst.InstallmentNumber)
		return inst, nil, nil
	}

	next, err := s.materializeNext(ctx, principal, inst, nextNumber)
	if err != nil {
		return core.Installment{}, nil, err
	}

	slog.InfoContext(ctx, "Installment paid",
		"installment_id", inst.ID,
		"transaction_id", inst.TransactionID,
		"installment_number", inst.InstallmentNumber,
		"next_created", next != nil)

	return inst, next, nil
}

func (s *Service) materializeNext(ctx context.Context, principal auth.Principal, paid core.Installment, nextNumber int) (*core.Installment, error) {
	txn, err := s.store.GetTransaction(ctx, paid.TransactionID)
	if errors.Is(err, storage.ErrNotFound) {
		// Parent removed concurrently; nothing to advance.
		slog.WarnContext(ctx, "Parent transaction missing, skipping next installment",
			"transaction_id", paid.TransactionID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	schedule := core.CalculateInstallments(txn.TotalValue, txn.InstallmentCount, txn.StartDate, nil, nil)
	var entry *core.ScheduleEntry
	for i := range schedule {
		if schedule[i].Number == nextNumber {
			entry = &schedule[i]
			break
		}
	}
	if entry == nil {
		return nil, nil
	}

	// Idempotency guard: skip creation when the slot is already taken.
	existing, err := s.store.ListInstallmentsByTransaction(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if other.InstallmentNumber == nextNumber {
			slog.DebugContext(ctx, "Next installment already materialized",
				"transaction_id", txn.ID,
				"installment_number", nextNumber)
			return nil, nil
		}
	}

	next := s.materialize(txn, *entry, principal)
	if err := s.store.SaveInstallment(ctx, next); err != nil {
		return nil, err
	}

	s.record(ctx, core.EventInstallmentCreated, map[string]any{"installment": next})
	return &next, nil
}

// InstallmentPatch is a partial installment update. Nil fields are left
// untouched.
type InstallmentPatch struct {
	Paid     *bool       `json:"paid,omitempty"`
	PaidDate *core.Date  `json:"paidDate,omitempty"`
	DueDate  *core.Date  `json:"dueDate,omitempty"`
	Value    *core.Money `json:"value,omitempty"`
}

// UpdateInstallment applies a generic field patch to one installment. Use
// PayInstallment for the pay-and-advance transition; patching Paid here
// does not materialize a successor.
func (s *Service) UpdateInstallment(ctx context.Context, principal auth.Principal, id string, patch InstallmentPatch) (core.Installment, error) {
	if principal.IsZero() {
		return core.Installment{}, auth.ErrUnauthenticated
	}

	inst, err := s.store.GetInstallment(ctx, id)
	if err != nil {
		return core.Installment{}, err
	}

	if patch.Paid != nil {
		inst.Paid = *patch.Paid
		if !*patch.Paid {
			inst.PaidDate = core.Date{}
			inst.ValidatedBy = ""
			inst.ValidatedByName = ""
		}
	}
	if patch.PaidDate != nil {
		inst.PaidDate = *patch.PaidDate
	}
	if patch.DueDate != nil {
		inst.DueDate = *patch.DueDate
	}
	if patch.Value != nil {
		inst.Value = *patch.Value
	}
	inst.UpdatedAt = s.now().UTC()

	if err := s.store.SaveInstallment(ctx, inst); err != nil {
		return core.Installment{}, err
	}

	s.record(ctx, core.EventInstallmentUpdated, map[string]any{"installment": inst})
	return inst, nil
}

// ListTransactions returns all transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// ListInstallments returns all installments ordered by due date.
func (s *Service) ListInstallments(ctx context.Context) ([]core.Installment, error) {
	return s.store.ListInstallments(ctx)
}

// Summary recomputes the aggregate figures from the full installment set.
func (s *Service) Summary(ctx context.Context) (core.Summary, error) {
	installments, err := s.store.ListInstallments(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(installments), nil
}

// insertSchedule computes the full schedule for txn, filters it to entries
// due on or after the first day of the current month and persists the
// resulting installments unpaid.
func (s *Service) insertSchedule(ctx context.Context, principal auth.Principal, txn core.Transaction, customValues []core.Money, customDates []core.Date) ([]core.Installment, error) {
	schedule := core.CalculateInstallments(txn.TotalValue, txn.InstallmentCount, txn.StartDate, customValues, customDates)
	monthStart := core.DateOf(s.now()).FirstOfMonth()

	installments := make([]core.Installment, 0, len(schedule))
	for _, entry := range schedule {
		if entry.DueDate.Before(monthStart) {
			continue
		}
		inst := s.materialize(txn, entry, principal)
		if err := s.store.SaveInstallment(ctx, inst); err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	return installments, nil
}

// materialize builds a persistable installment from a schedule entry,
// stamping the denormalized parent fields and the acting principal.
func (s *Service) materialize(txn core.Transaction, entry core.ScheduleEntry, principal auth.Principal) core.Installment {
	now := s.now().UTC()
	return core.Installment{
		ID:                     fmt.Sprintf("%s-%d", txn.ID, entry.Number),
		TransactionID:          txn.ID,
		TransactionName:        txn.Name,
		TransactionType:        txn.Type,
		TransactionDescription: txn.Description,
		InstallmentNumber:      entry.Number,
		TotalInstallments:      txn.InstallmentCount,
		Value:                  entry.Value,
		DueDate:                entry.DueDate,
		Paid:                   false,
		CreatedAt:              now,
		UpdatedAt:              now,
		CreatedBy:              principal.Email,
		CreatedByName:          principal.DisplayName(),
	}
}

// record appends the event to the monthly history and fans it out. Both
// sinks are fire-and-forget: failures are logged, never propagated into
// the mutation that produced the event.
func (s *Service) record(ctx context.Context, eventType core.EventType, payload any) {
	event := core.NewEvent(eventType, payload, s.now().UTC())

	if s.history != nil {
		if err := s.history.Append(ctx, event); err != nil {
			slog.ErrorContext(ctx, "Failed to record history event",
				"event_type", eventType, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			slog.ErrorContext(ctx, "Failed to publish event",
				"event_type", eventType, "error", err)
		}
	}
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}
