package core

import "testing"

func TestSummarize(t *testing.T) {
	installments := []Installment{
		{TransactionType: Income, Paid: false, Value: Money{Cents: 1000}},
		{TransactionType: Income, Paid: false, Value: Money{Cents: 500}},
		{TransactionType: Expense, Paid: false, Value: Money{Cents: 300}},
		{TransactionType: Income, Paid: true, Value: Money{Cents: 2000}},
		{TransactionType: Expense, Paid: true, Value: Money{Cents: 700}},
	}

	s := Summarize(installments)

	if s.PendingIncome.Cents != 1500 {
		t.Errorf("pending income: expected 1500, got %d", s.PendingIncome.Cents)
	}
	if s.PendingExpense.Cents != 300 {
		t.Errorf("pending expense: expected 300, got %d", s.PendingExpense.Cents)
	}
	if s.PaidIncome.Cents != 2000 {
		t.Errorf("paid income: expected 2000, got %d", s.PaidIncome.Cents)
	}
	if s.PaidExpense.Cents != 700 {
		t.Errorf("paid expense: expected 700, got %d", s.PaidExpense.Cents)
	}
	if s.PendingBalance.Cents != 1200 {
		t.Errorf("pending balance: expected 1200, got %d", s.PendingBalance.Cents)
	}
	if s.PaidBalance.Cents != 1300 {
		t.Errorf("paid balance: expected 1300, got %d", s.PaidBalance.Cents)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", s)
	}
}
