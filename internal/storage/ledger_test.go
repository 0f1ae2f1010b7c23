package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Josehuhu/financeiro/internal/core"
)

func testTransaction(id string, createdAt time.Time) core.Transaction {
	return core.Transaction{
		ID:               id,
		Name:             "Aluguel",
		Type:             core.Expense,
		TotalValue:       core.Money{Cents: 120000},
		InstallmentCount: 12,
		StartDate:        core.NewDate(2025, 1, 5),
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
		CreatedBy:        "ana@example.com",
		CreatedByName:    "Ana",
	}
}

func testInstallment(id, txnID string, number int, due core.Date) core.Installment {
	return core.Installment{
		ID:                id,
		TransactionID:     txnID,
		TransactionName:   "Aluguel",
		TransactionType:   core.Expense,
		InstallmentNumber: number,
		TotalInstallments: 12,
		Value:             core.Money{Cents: 10000},
		DueDate:           due,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
}

func TestLedgerStoreTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(NewMemoryKV())

	txn := testTransaction("t1", time.Now())
	if err := store.SaveTransaction(ctx, txn); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != txn.ID || got.Name != txn.Name || got.TotalValue != txn.TotalValue {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if _, err := store.GetTransaction(ctx, "absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerStoreListTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(NewMemoryKV())

	older := testTransaction("t1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := testTransaction("t2", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	_ = store.SaveTransaction(ctx, older)
	_ = store.SaveTransaction(ctx, newer)

	txns, err := store.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}
	if txns[0].ID != "t2" || txns[1].ID != "t1" {
		t.Errorf("expected newest first, got %s then %s", txns[0].ID, txns[1].ID)
	}
}

func TestLedgerStoreInstallmentsByTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(NewMemoryKV())

	_ = store.SaveInstallment(ctx, testInstallment("i1", "t1", 1, core.NewDate(2025, 1, 5)))
	_ = store.SaveInstallment(ctx, testInstallment("i2", "t1", 2, core.NewDate(2025, 2, 5)))
	_ = store.SaveInstallment(ctx, testInstallment("i3", "t2", 1, core.NewDate(2025, 1, 10)))

	mine, err := store.ListInstallmentsByTransaction(ctx, "t1")
	if err != nil {
		t.Fatalf("list by transaction: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 installments, got %d", len(mine))
	}
	for _, inst := range mine {
		if inst.TransactionID != "t1" {
			t.Errorf("unexpected transaction %s in result", inst.TransactionID)
		}
	}
}

func TestLedgerStoreListInstallmentsSorted(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(NewMemoryKV())

	_ = store.SaveInstallment(ctx, testInstallment("i2", "t1", 2, core.NewDate(2025, 3, 5)))
	_ = store.SaveInstallment(ctx, testInstallment("i1", "t1", 1, core.NewDate(2025, 2, 5)))

	insts, err := store.ListInstallments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if insts[0].ID != "i1" || insts[1].ID != "i2" {
		t.Errorf("expected due-date order, got %s then %s", insts[0].ID, insts[1].ID)
	}
}

func TestLedgerStoreDeleteInstallmentsByTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(NewMemoryKV())

	_ = store.SaveInstallment(ctx, testInstallment("i1", "t1", 1, core.NewDate(2025, 1, 5)))
	_ = store.SaveInstallment(ctx, testInstallment("i2", "t1", 2, core.NewDate(2025, 2, 5)))
	_ = store.SaveInstallment(ctx, testInstallment("i3", "t2", 1, core.NewDate(2025, 1, 10)))

	if err := store.DeleteInstallmentsByTransaction(ctx, "t1"); err != nil {
		t.Fatalf("delete by transaction: %v", err)
	}

	remaining, err := store.ListInstallments(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "i3" {
		t.Errorf("expected only i3 to remain, got %+v", remaining)
	}
}
