package core

// Summary holds the aggregate figures derived from the full installment
// set: pending and paid totals per transaction type, plus the two
// income-minus-expense balances. It is recomputed on every read; there is
// no cached aggregate state.
type Summary struct {
	PendingIncome  Money `json:"pendingIncome"`
	PendingExpense Money `json:"pendingExpense"`
	PaidIncome     Money `json:"paidIncome"`
	PaidExpense    Money `json:"paidExpense"`
	PendingBalance Money `json:"pendingBalance"`
	PaidBalance    Money `json:"paidBalance"`
}

// Summarize partitions installments by paid state and transaction type and
// sums each partition's values.
func Summarize(installments []Installment) Summary {
	var s Summary
	for _, inst := range installments {
		switch {
		case inst.Paid && inst.TransactionType == Income:
			s.PaidIncome = s.PaidIncome.Add(inst.Value)
		case inst.Paid && inst.TransactionType == Expense:
			s.PaidExpense = s.PaidExpense.Add(inst.Value)
		case !inst.Paid && inst.TransactionType == Income:
			s.PendingIncome = s.PendingIncome.Add(inst.Value)
		case !inst.Paid && inst.TransactionType == Expense:
			s.PendingExpense = s.PendingExpense.Add(inst.Value)
		}
	}
	s.PendingBalance = s.PendingIncome.Sub(s.PendingExpense)
	s.PaidBalance = s.PaidIncome.Sub(s.PaidExpense)
	return s
}
