package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Josehuhu/financeiro/internal/core"
)

// LedgerStore marshals the domain records over the KV contract. It is the
// only place that knows how transactions and installments are laid out in
// the store.
type LedgerStore struct {
	kv KV
}

// NewLedgerStore wraps a KV implementation.
func NewLedgerStore(kv KV) *LedgerStore {
	return &LedgerStore{kv: kv}
}

// KV exposes the underlying store for collaborators that share the same
// backend, such as the history recorder.
func (s *LedgerStore) KV() KV {
	return s.kv
}

// SaveTransaction upserts a transaction record.
func (s *LedgerStore) SaveTransaction(ctx context.Context, txn core.Transaction) error {
	data, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("marshal transaction %s: %w", txn.ID, err)
	}
	if err := s.kv.Set(ctx, TransactionKey(txn.ID), data); err != nil {
		return fmt.Errorf("save transaction %s: %w", txn.ID, err)
	}
	return nil
}

// GetTransaction loads a transaction by ID. Returns ErrNotFound when the
// record is absent.
func (s *LedgerStore) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var txn core.Transaction
	data, err := s.kv.Get(ctx, TransactionKey(id))
	if err != nil {
		return txn, err
	}
	if err := json.Unmarshal(data, &txn); err != nil {
		return txn, fmt.Errorf("unmarshal transaction %s: %w", id, err)
	}
	return txn, nil
}

// ListTransactions returns every stored transaction, newest first.
func (s *LedgerStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	raws, err := s.kv.ListByPrefix(ctx, TransactionPrefix)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txns := make([]core.Transaction, 0, len(raws))
	for _, raw := range raws {
		var txn core.Transaction
		if err := json.Unmarshal(raw, &txn); err != nil {
			return nil, fmt.Errorf("unmarshal transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	sort.Slice(txns, func(i, j int) bool {
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
	return txns, nil
}

// DeleteTransaction removes a transaction record. Installments are removed
// separately via DeleteInstallmentsByTransaction.
func (s *LedgerStore) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.kv.Delete(ctx, TransactionKey(id)); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// SaveInstallment upserts an installment record.
func (s *LedgerStore) SaveInstallment(ctx context.Context, inst core.Installment) error {
	data, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("marshal installment %s: %w", inst.ID, err)
	}
	if err := s.kv.Set(ctx, InstallmentKey(inst.ID), data); err != nil {
		return fmt.Errorf("save installment %s: %w", inst.ID, err)
	}
	return nil
}

// GetInstallment loads an installment by ID. Returns ErrNotFound when the
// record is absent.
func (s *LedgerStore) GetInstallment(ctx context.Context, id string) (core.Installment, error) {
	var inst core.Installment
	data, err := s.kv.Get(ctx, InstallmentKey(id))
	if err != nil {
		return inst, err
	}
	if err := json.Unmarshal(data, &inst); err != nil {
		return inst, fmt.Errorf("unmarshal installment %s: %w", id, err)
	}
	return inst, nil
}

// ListInstallments returns every stored installment ordered by due date,
// then installment number.
func (s *LedgerStore) ListInstallments(ctx context.Context) ([]core.Installment, error) {
	raws, err := s.kv.ListByPrefix(ctx, InstallmentPrefix)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	insts := make([]core.Installment, 0, len(raws))
	for _, raw := range raws {
		var inst core.Installment
		if err := json.Unmarshal(raw, &inst); err != nil {
			return nil, fmt.Errorf("unmarshal installment: %w", err)
		}
		insts = append(insts, inst)
	}
	sort.Slice(insts, func(i, j int) bool {
		if !insts[i].DueDate.Equal(insts[j].DueDate.Time) {
			return insts[i].DueDate.Before(insts[j].DueDate)
		}
		return insts[i].InstallmentNumber < insts[j].InstallmentNumber
	})
	return insts, nil
}

// ListInstallmentsByTransaction filters the full installment set down to
// one transaction's rows. There is no secondary index in the store; this
// is a deliberate client-side filter.
func (s *LedgerStore) ListInstallmentsByTransaction(ctx context.Context, transactionID string) ([]core.Installment, error) {
	all, err := s.ListInstallments(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]core.Installment, 0)
	for _, inst := range all {
		if inst.TransactionID == transactionID {
			matched = append(matched, inst)
		}
	}
	return matched, nil
}

// DeleteInstallment removes one installment record.
func (s *LedgerStore) DeleteInstallment(ctx context.Context, id string) error {
	if err := s.kv.Delete(ctx, InstallmentKey(id)); err != nil {
		return fmt.Errorf("delete installment %s: %w", id, err)
	}
	return nil
}

// DeleteInstallmentsByTransaction removes every installment belonging to
// the transaction, one delete per row. The writes are not atomic as a
// group; a failure mid-sequence leaves earlier deletes applied.
func (s *LedgerStore) DeleteInstallmentsByTransaction(ctx context.Context, transactionID string) error {
	insts, err := s.ListInstallmentsByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	for _, inst := range insts {
		if err := s.DeleteInstallment(ctx, inst.ID); err != nil {
			return err
		}
	}
	return nil
}

// MarkExported records that an installment was mirrored to the external
// report, keeping the row reference for traceability.
func (s *LedgerStore) MarkExported(ctx context.Context, installmentID, rowRef string) error {
	data, err := json.Marshal(map[string]string{"rowRef": rowRef})
	if err != nil {
		return fmt.Errorf("marshal export marker %s: %w", installmentID, err)
	}
	if err := s.kv.Set(ctx, ExportKey(installmentID), data); err != nil {
		return fmt.Errorf("mark exported %s: %w", installmentID, err)
	}
	return nil
}

// IsExported reports whether an installment already has an export marker.
func (s *LedgerStore) IsExported(ctx context.Context, installmentID string) (bool, error) {
	_, err := s.kv.Get(ctx, ExportKey(installmentID))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close closes the underlying store.
func (s *LedgerStore) Close() error {
	return s.kv.Close()
}
